package client

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

func TestSubscriberDemuxesPushesAndResponses(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	serverReady := make(chan *wire.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		c := wire.NewConn(conn)
		var a wire.Announce
		if err := c.ReadFrame(&a); err != nil {
			return
		}
		serverReady <- c
	}()

	sub, err := DialSubscriber(ln.Addr().String(), "sub1")
	require.NoError(t, err)
	defer sub.Close()

	server := <-serverReady

	// a push frame arrives before the response to the request we're
	// about to issue — it must not be mistaken for that response.
	require.NoError(t, server.WriteFrame(wire.Broadcast{
		MessageType: wire.MsgTypeBroadcast,
		Publisher:   "pub1",
		Title:       "weather",
		TopicID:     "10",
		Message:     "hello",
	}))

	var req wire.Request
	go func() {
		_ = server.ReadFrame(&req)
		_ = server.WriteFrame(wire.Response{Result: wire.ResultSuccess, Detail: "subscribed"})
	}()

	resp, err := sub.Subscribe("10")
	require.NoError(t, err)
	require.Equal(t, wire.ResultSuccess, resp.Result)
	require.Equal(t, wire.CmdSubscribe, req.Command)

	select {
	case push := <-sub.Pushes:
		require.NotNil(t, push.Broadcast)
		require.Equal(t, "hello", push.Broadcast.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for push")
	}
}
