package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Additional-Code/kusina/internal/config"
	"github.com/Additional-Code/kusina/pkg/errorbank"
)

type loadedFlag bool

func (l loadedFlag) Loaded() bool { return bool(l) }

func dial(t *testing.T, server *grpc.Server) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHealthFollowsQueueState(t *testing.T) {
	hs := health.NewServer()
	server := NewServer(config.Config{GRPC: config.GRPC{Reflection: true}}, hs, zaptest.NewLogger(t))
	client := healthpb.NewHealthClient(dial(t, server))
	ctx := context.Background()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	MarkReady(hs, loadedFlag(true))
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestToStatusMapsErrorKinds(t *testing.T) {
	err := toStatus(errorbank.Validation("qty must be positive"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	err = toStatus(errorbank.CorruptRecord("bad items"))
	assert.Equal(t, codes.DataLoss, status.Code(err))

	err = toStatus(errors.New("boom"))
	assert.Equal(t, codes.Internal, status.Code(err))

	already := status.Error(codes.NotFound, "gone")
	assert.Equal(t, already, toStatus(already))
}
