package interceptors

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/club-pos/internal/pkg/interceptors/constants"
)

func TestUnaryServerInterceptorPropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	interceptor := UnaryServerInterceptor(logger)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(constants.HeaderXRequestId, "req-42"))
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	var seen string
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		seen = GetIDFromContext(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-42", seen)
	assert.Contains(t, buf.String(), "request_id=req-42")
	assert.Contains(t, buf.String(), "method=/grpc.health.v1.Health/Check")
}

func TestUnaryServerInterceptorGeneratesRequestID(t *testing.T) {
	interceptor := UnaryServerInterceptor(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	var seen string
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x"}, func(ctx context.Context, req any) (any, error) {
		seen = GetIDFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.NotEqual(t, "unknown", seen)
	assert.Len(t, seen, 36)
}

func TestGetIDFromContextUnknown(t *testing.T) {
	assert.Equal(t, "unknown", GetIDFromContext(context.Background()))
}
