package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/kusina/internal/entity"
)

func TestTimestamp(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "03/05/2024 02:07:09 PM", Timestamp(ts))
	assert.Equal(t, NoTimestamp, Timestamp(time.Time{}))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

	for _, in := range []string{
		"2024-03-05 14:07:09",
		"2024-03-05T14:07:09",
		"2024-03-05T14:07:09Z",
		" 2024-03-05 14:07:09.000000 ",
	} {
		got, err := ParseTimestamp(in, time.UTC)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := ParseTimestamp("yesterday", time.UTC)
	assert.Error(t, err)
}

func TestItemsSummary(t *testing.T) {
	items := []entity.LineItem{{Name: "Rice", Qty: 2}, {Name: "Tea", Qty: 1}}
	assert.Equal(t, "Rice x2, Tea x1", ItemsSummary(items))
	assert.Equal(t, "", ItemsSummary(nil))
}

func TestAmounts(t *testing.T) {
	assert.Equal(t, "1,234.50", Amount(1234.5))
	assert.Equal(t, "0.00", Amount(0))
	assert.Equal(t, "₱245.00", Peso(245))
	assert.Equal(t, "₱1,000,000.00", Peso(1e6))
	assert.Equal(t, "-₱5.25", Peso(-5.25))
}
