package directory

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

func TestServerBrokerRegistrationAndClientQuery(t *testing.T) {
	srv, err := NewServer("0")
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()
	defer srv.ln.Close()

	conn1 := dial(t, srv.Addr().String())
	defer conn1.Close()
	require.NoError(t, conn1.WriteFrame(wire.DirectoryRequest{
		UserType:   wire.RoleBroker,
		BrokerIP:   "127.0.0.1",
		BrokerPort: "6666",
	}))
	var resp1 wire.DirectoryResponse
	require.NoError(t, conn1.ReadFrame(&resp1))
	require.Equal(t, wire.RoleDirectory, resp1.UserType)
	require.Len(t, resp1.Brokers, 1)

	conn2 := dial(t, srv.Addr().String())
	defer conn2.Close()
	require.NoError(t, conn2.WriteFrame(wire.DirectoryRequest{UserType: wire.RoleSubscriber}))
	var resp2 wire.DirectoryResponse
	require.NoError(t, conn2.ReadFrame(&resp2))
	require.Empty(t, resp2.UserType, "client query reply must omit \"user type\"")
	require.Len(t, resp2.Brokers, 1)
}

func TestServerHandlesMultipleRequestsOnOneConnection(t *testing.T) {
	srv, err := NewServer("0")
	require.NoError(t, err)
	go func() { _ = srv.Serve() }()
	defer srv.ln.Close()

	conn := dial(t, srv.Addr().String())
	defer conn.Close()

	require.NoError(t, conn.WriteFrame(wire.DirectoryRequest{UserType: wire.RoleBroker, BrokerIP: "1.2.3.4", BrokerPort: "1"}))
	var resp wire.DirectoryResponse
	require.NoError(t, conn.ReadFrame(&resp))

	require.NoError(t, conn.WriteFrame(wire.DirectoryRequest{UserType: wire.RolePublisher}))
	require.NoError(t, conn.ReadFrame(&resp))
	require.Len(t, resp.Brokers, 1)
}

func dial(t *testing.T, addr string) *wire.Conn {
	t.Helper()
	raw, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	return wire.NewConn(raw)
}
