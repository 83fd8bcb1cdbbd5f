package client

import (
	"fmt"
	"net"
	"strconv"

	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// maxMessageLength is the client-side cap on a published message (§6).
// The broker does not re-check this; it is enforced here only.
const maxMessageLength = 100

// Publisher is one publisher's session against a broker. Unlike the
// subscriber, a publisher needs no separate receiver goroutine: every
// command it issues gets exactly one synchronous reply on the same
// connection (§4.5).
type Publisher struct {
	conn *wire.Conn
	name string
}

// DialPublisher connects to brokerAddr and announces name as a publisher.
func DialPublisher(brokerAddr, name string) (*Publisher, error) {
	raw, err := net.Dial("tcp", brokerAddr)
	if err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", brokerAddr, err)
	}
	conn := wire.NewConn(raw)
	if err := conn.WriteFrame(wire.Announce{UserType: wire.RolePublisher, UserName: name}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("announce: %w", err)
	}
	return &Publisher{conn: conn, name: name}, nil
}

// Close closes the underlying connection.
func (p *Publisher) Close() error { return p.conn.Close() }

func (p *Publisher) roundTrip(req wire.Request) (wire.Response, error) {
	if err := p.conn.WriteFrame(req); err != nil {
		return wire.Response{}, err
	}
	var resp wire.Response
	if err := p.conn.ReadFrame(&resp); err != nil {
		return wire.Response{}, err
	}
	return resp, nil
}

// ValidTopicID reports whether id parses as an integer, mirroring the
// reference client's Integer.parseInt guard before sending create/
// publish/delete/subscribe/unsubscribe.
func ValidTopicID(id string) bool {
	_, err := strconv.Atoi(id)
	return err == nil
}

// Create sends a "create" command.
func (p *Publisher) Create(topicID, title string) (wire.Response, error) {
	return p.roundTrip(wire.Request{Command: wire.CmdCreate, TopicID: topicID, TopicName: title})
}

// Publish sends a "publish" command. Callers must pre-validate the
// message length with ValidMessage before calling this, matching the
// reference client's client-side cap (§6).
func (p *Publisher) Publish(topicID, message string) (wire.Response, error) {
	return p.roundTrip(wire.Request{Command: wire.CmdPublish, TopicID: topicID, Message: message})
}

// ValidMessage reports whether message is within the wire's length cap.
func ValidMessage(message string) bool { return len(message) <= maxMessageLength }

// Delete sends a "delete" command.
func (p *Publisher) Delete(topicID string) (wire.Response, error) {
	return p.roundTrip(wire.Request{Command: wire.CmdDelete, TopicID: topicID})
}

// ShowSubscriberCounts sends a "countSubscriber" command ("show" in the
// CLI menu).
func (p *Publisher) ShowSubscriberCounts() (wire.Response, error) {
	return p.roundTrip(wire.Request{Command: wire.CmdCountSubscriber})
}
