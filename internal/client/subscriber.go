package client

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// Push is one asynchronous frame delivered to a subscriber outside the
// request/response cadence: either a Broadcast or a DeleteNotify.
type Push struct {
	Broadcast    *wire.Broadcast
	DeleteNotify *wire.DeleteNotify
}

type responseResult struct {
	resp wire.Response
	err  error
}

// Subscriber is one subscriber's session against a broker. Per §4.5 and
// the redesign direction in §9, a dedicated goroutine owns the socket's
// read side and demultiplexes by "message type": push-class frames go on
// Pushes for the caller to render immediately, response-class frames are
// relayed to whichever request is currently waiting. This reproduces the
// reference client's wait/notify rendezvous with channels instead of a
// lock and a condition variable.
type Subscriber struct {
	conn *wire.Conn
	name string

	Pushes chan Push

	responses chan responseResult
	closed    chan struct{}
}

// DialSubscriber connects to brokerAddr, announces name as a subscriber,
// and starts the receiver goroutine.
func DialSubscriber(brokerAddr, name string) (*Subscriber, error) {
	raw, err := net.Dial("tcp", brokerAddr)
	if err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", brokerAddr, err)
	}
	conn := wire.NewConn(raw)
	if err := conn.WriteFrame(wire.Announce{UserType: wire.RoleSubscriber, UserName: name}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("announce: %w", err)
	}

	s := &Subscriber{
		conn:      conn,
		name:      name,
		Pushes:    make(chan Push, 16),
		responses: make(chan responseResult),
		closed:    make(chan struct{}),
	}
	go s.receiveLoop()
	return s, nil
}

// Close closes the underlying connection.
func (s *Subscriber) Close() error { return s.conn.Close() }

// peekFrame is decoded first on every frame to classify it before picking
// the concrete struct to unmarshal the raw line into.
type peekFrame struct {
	MessageType string `json:"message type"`
}

// receiveLoop owns the socket's read side for the session's whole
// lifetime. Push frames are sent on the buffered Pushes channel, response
// frames on the unbuffered responses channel, which blocks the loop until
// a pending request consumes it — that blocking is the rendezvous.
func (s *Subscriber) receiveLoop() {
	defer close(s.closed)
	defer close(s.Pushes)
	for {
		line, err := s.conn.ReadRaw()
		if err != nil {
			s.responses <- responseResult{err: err}
			return
		}

		var peek peekFrame
		if err := json.Unmarshal(line, &peek); err != nil {
			continue
		}

		switch peek.MessageType {
		case wire.MsgTypeBroadcast:
			var b wire.Broadcast
			if json.Unmarshal(line, &b) == nil {
				s.Pushes <- Push{Broadcast: &b}
			}
		case wire.MsgTypeDeleteNotify:
			var d wire.DeleteNotify
			if json.Unmarshal(line, &d) == nil {
				s.Pushes <- Push{DeleteNotify: &d}
			}
		default: // "response", "current", "list", or untagged plain response
			var resp wire.Response
			if err := json.Unmarshal(line, &resp); err != nil {
				continue
			}
			s.responses <- responseResult{resp: resp}
		}
	}
}

// request writes req and blocks for the next response-class frame, per
// §4.5's guarantee that a command's response is the next response-class
// frame after its request on the same socket.
func (s *Subscriber) request(req wire.Request) (wire.Response, error) {
	if err := s.conn.WriteFrame(req); err != nil {
		return wire.Response{}, err
	}
	r := <-s.responses
	return r.resp, r.err
}

// List sends a "list" command.
func (s *Subscriber) List() (wire.Response, error) {
	return s.request(wire.Request{Command: wire.CmdList})
}

// Subscribe sends a "subscribe" command.
func (s *Subscriber) Subscribe(topicID string) (wire.Response, error) {
	return s.request(wire.Request{Command: wire.CmdSubscribe, TopicID: topicID})
}

// Unsubscribe sends an "unsubscribe" command.
func (s *Subscriber) Unsubscribe(topicID string) (wire.Response, error) {
	return s.request(wire.Request{Command: wire.CmdUnsubscribe, TopicID: topicID})
}

// CurrentSubscriptions sends a "showCurrentSubscription" command.
func (s *Subscriber) CurrentSubscriptions() (wire.Response, error) {
	return s.request(wire.Request{Command: wire.CmdShowCurrentSubscription})
}
