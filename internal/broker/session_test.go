package broker

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// startTestServer brings up a broker on loopback and returns its Server,
// mirroring how cmd/broker wires things in main.go but without any
// directory or -b bootstrap.
func startTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer("127.0.0.1", "0")
	require.NoError(t, err)
	go func() {
		_ = srv.Serve()
	}()
	t.Cleanup(func() { _ = srv.ln.Close() })
	return srv
}

func dialAndAnnounce(t *testing.T, addr net.Addr, role, name string) *wire.Conn {
	t.Helper()
	raw, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	conn := wire.NewConn(raw)
	require.NoError(t, conn.WriteFrame(wire.Announce{UserType: role, UserName: name}))
	return conn
}

func TestSessionScenarioS1SingleBrokerFanOut(t *testing.T) {
	srv := startTestServer(t)
	addr := srv.Addr()

	pub := dialAndAnnounce(t, addr, wire.RolePublisher, "pub1")
	defer pub.Close()
	sub := dialAndAnnounce(t, addr, wire.RoleSubscriber, "sub1")
	defer sub.Close()

	// subscribing before the topic exists fails
	require.NoError(t, sub.WriteFrame(wire.Request{Command: wire.CmdSubscribe, TopicID: "10"}))
	var resp wire.Response
	require.NoError(t, sub.ReadFrame(&resp))
	require.Equal(t, wire.ResultFailed, resp.Result)

	require.NoError(t, pub.WriteFrame(wire.Request{Command: wire.CmdCreate, TopicID: "10", TopicName: "weather"}))
	require.NoError(t, pub.ReadFrame(&resp))
	require.Equal(t, wire.ResultSuccess, resp.Result)

	require.NoError(t, sub.WriteFrame(wire.Request{Command: wire.CmdSubscribe, TopicID: "10"}))
	require.NoError(t, sub.ReadFrame(&resp))
	require.Equal(t, wire.ResultSuccess, resp.Result)

	require.NoError(t, pub.WriteFrame(wire.Request{Command: wire.CmdPublish, TopicID: "10", Message: "hello"}))
	require.NoError(t, pub.ReadFrame(&resp))
	require.Equal(t, wire.ResultSuccess, resp.Result)

	var b wire.Broadcast
	require.NoError(t, sub.ReadFrame(&b))
	require.Equal(t, "pub1", b.Publisher)
	require.Equal(t, "weather", b.Title)
	require.Equal(t, "10", b.TopicID)
	require.Equal(t, "hello", b.Message)
}

func TestSessionScenarioS4OwnershipGuard(t *testing.T) {
	srv := startTestServer(t)
	addr := srv.Addr()

	pub1 := dialAndAnnounce(t, addr, wire.RolePublisher, "pub1")
	defer pub1.Close()
	pub2 := dialAndAnnounce(t, addr, wire.RolePublisher, "pub2")
	defer pub2.Close()

	var resp wire.Response
	require.NoError(t, pub1.WriteFrame(wire.Request{Command: wire.CmdCreate, TopicID: "30", TopicName: "x"}))
	require.NoError(t, pub1.ReadFrame(&resp))
	require.Equal(t, wire.ResultSuccess, resp.Result)

	require.NoError(t, pub2.WriteFrame(wire.Request{Command: wire.CmdPublish, TopicID: "30", Message: "hi"}))
	require.NoError(t, pub2.ReadFrame(&resp))
	require.Equal(t, wire.ResultFailed, resp.Result)
	require.Equal(t, "you don't have this topic id", resp.Detail)
}

func TestSessionPublisherDisconnectNotifiesSubscriber(t *testing.T) {
	srv := startTestServer(t)
	addr := srv.Addr()

	pub := dialAndAnnounce(t, addr, wire.RolePublisher, "pub1")
	sub := dialAndAnnounce(t, addr, wire.RoleSubscriber, "sub1")
	defer sub.Close()

	var resp wire.Response
	require.NoError(t, pub.WriteFrame(wire.Request{Command: wire.CmdCreate, TopicID: "20", TopicName: "news"}))
	require.NoError(t, pub.ReadFrame(&resp))
	require.NoError(t, sub.WriteFrame(wire.Request{Command: wire.CmdSubscribe, TopicID: "20"}))
	require.NoError(t, sub.ReadFrame(&resp))

	require.NoError(t, pub.Close())

	sub.Raw().SetReadDeadline(time.Now().Add(2 * time.Second))
	var notify wire.DeleteNotify
	require.NoError(t, sub.ReadFrame(&notify))
	require.Equal(t, wire.MsgTypeDeleteNotify, notify.MessageType)
	require.Len(t, notify.DeletedTopics, 1)
	require.Equal(t, "20", notify.DeletedTopics[0].TopicID)
}
