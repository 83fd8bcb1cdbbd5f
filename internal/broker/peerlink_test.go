package broker

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

func TestPeerLinkDedup(t *testing.T) {
	b := New("127.0.0.1", "9000")
	pm := NewPeerManager(b)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			// keep the link open: a closed link is evicted from b.peers
			go func(c net.Conn) {
				_, _ = io.Copy(io.Discard, c)
				c.Close()
			}(conn)
		}
	}()

	ip, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	require.NoError(t, pm.Dial(ip, port))
	// dialing the same address again must not create a second link
	require.NoError(t, pm.Dial(ip, port))

	b.mu.Lock()
	count := len(b.peers)
	b.mu.Unlock()
	require.Equal(t, 1, count)
}

func TestPeerLinkSelfDialIsNoOp(t *testing.T) {
	b := New("127.0.0.1", "9000")
	pm := NewPeerManager(b)
	require.NoError(t, pm.Dial("127.0.0.1", "9000"))

	b.mu.Lock()
	count := len(b.peers)
	b.mu.Unlock()
	require.Equal(t, 0, count)
}

// TestScenarioS2TwoBrokerFanOut covers §8 scenario S2: two linked brokers,
// a publisher on one, a subscriber on the other, and a publish that must
// cross the peer link as a sync record and fan out locally on arrival.
func TestScenarioS2TwoBrokerFanOut(t *testing.T) {
	srv1, err := NewServer("127.0.0.1", "0")
	require.NoError(t, err)
	go func() { _ = srv1.Serve() }()
	defer srv1.ln.Close()

	srv2, err := NewServer("127.0.0.1", "0")
	require.NoError(t, err)
	go func() { _ = srv2.Serve() }()
	defer srv2.ln.Close()

	// srv2 listens on every interface, so dial it over loopback
	_, port2, err := net.SplitHostPort(srv2.Addr().String())
	require.NoError(t, err)
	require.NoError(t, srv1.PM.Dial("127.0.0.1", port2))

	// give the dial-back a moment to land
	time.Sleep(100 * time.Millisecond)

	pub := dialAndAnnounce(t, srv1.Addr(), wire.RolePublisher, "pub1")
	defer pub.Close()
	sub := dialAndAnnounce(t, srv2.Addr(), wire.RoleSubscriber, "sub1")
	defer sub.Close()

	var resp wire.Response
	require.NoError(t, pub.WriteFrame(wire.Request{Command: wire.CmdCreate, TopicID: "20", TopicName: "news"}))
	require.NoError(t, pub.ReadFrame(&resp))
	require.Equal(t, wire.ResultSuccess, resp.Result)

	// give the create's sync record time to reach srv2
	require.Eventually(t, func() bool {
		srv2.B.mu.Lock()
		_, ok := srv2.B.topics["20"]
		srv2.B.mu.Unlock()
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sub.WriteFrame(wire.Request{Command: wire.CmdSubscribe, TopicID: "20"}))
	require.NoError(t, sub.ReadFrame(&resp))
	require.Equal(t, wire.ResultSuccess, resp.Result)

	require.NoError(t, pub.WriteFrame(wire.Request{Command: wire.CmdPublish, TopicID: "20", Message: "hi"}))
	require.NoError(t, pub.ReadFrame(&resp))
	require.Equal(t, wire.ResultSuccess, resp.Result)

	sub.Raw().SetReadDeadline(time.Now().Add(2 * time.Second))
	var b wire.Broadcast
	require.NoError(t, sub.ReadFrame(&b))
	require.Equal(t, "pub1", b.Publisher)
	require.Equal(t, "hi", b.Message)
}
