package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/kusina/pkg/errorbank"
)

func newContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return echo.New().NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestBuildSuccessCarriesRequestID(t *testing.T) {
	c, rec := newContext(t)
	c.Response().Header().Set(echo.HeaderXRequestID, "req-1")

	require.NoError(t, New(c).WithStatus(http.StatusCreated).WithData("ok").WithCount(3).Build())

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", env.Data)
	assert.Nil(t, env.Error)
	assert.Equal(t, "req-1", env.Meta["request_id"])
	assert.InDelta(t, 3, env.Meta["count"], 0)
}

func TestBuildRendersNullDataWhenUnset(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, New(c).Build())
	assert.Contains(t, rec.Body.String(), `"data":null`)
}

func TestBuildErrorUsesErrorStatus(t *testing.T) {
	c, rec := newContext(t)
	err := errorbank.Validation("name is required", errorbank.WithDetail("field", "name"))

	require.NoError(t, New(c).WithData("ignored").WithError(err).Build())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation", env.Error.Kind)
	assert.Equal(t, "name is required", env.Error.Message)
	assert.Equal(t, "name", env.Error.Details["field"])
}

func TestBuildWrapsPlainErrors(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, New(c).WithError(errors.New("disk on fire")).Build())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEmptyWritesNoContent(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, New(c).Empty().Build())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
