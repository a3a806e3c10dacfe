package user

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func dialDirectory(t *testing.T, svc *Service) *DirectoryClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterDirectoryServer(srv, NewDirectory(svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewDirectoryClient(conn)
}

func TestDirectory_OverGRPC(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil, primaryAdmin)
	admin := register(t, svc, "Konki", primaryAdmin)
	customer := register(t, svc, "Ana", "ana@example.com")
	client := dialDirectory(t, svc)
	ctx := context.Background()

	ok, err := client.IsAdmin(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.IsAdmin(ctx, customer.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = client.ValidateUser(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.ValidateUser(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = client.IsAdmin(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
