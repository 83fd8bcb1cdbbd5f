package broker

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/yocccc/publisher-subscriber-system/internal/logging"
	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// session is one client session handler (§4.2): one goroutine per inbound
// socket, carrying it through announcing -> operating -> disconnected.
// Every accepted socket gets a session id, the same way the teacher
// codebase stamps a uuid on everything that shows up in its logs.
type session struct {
	id       string
	conn     *wire.Conn
	role     string
	name     string
	b        *Broker
	pm       *PeerManager
	log      *logging.Logger
	cleanup  sync.Once
}

// ServeConn is the accept-loop entry point: it owns conn for its entire
// lifetime, reads the announce frame, and then either becomes a peer
// sync loop (role == broker) or a client request loop.
func ServeConn(b *Broker, pm *PeerManager, raw net.Conn) {
	conn := wire.NewConn(raw)
	s := &session{
		id:   uuid.NewString(),
		conn: conn,
		b:    b,
		pm:   pm,
		log:  logging.Tagged("session"),
	}

	var announce wire.Announce
	if err := conn.ReadFrame(&announce); err != nil {
		s.log.Errorf("%s: announce: %v", s.id, err)
		conn.Close()
		return
	}
	s.role = announce.UserType
	s.name = announce.UserName

	switch s.role {
	case wire.RoleBroker:
		// AcceptAnnounce takes ownership of conn's lifetime (sync loop).
		s.pm.AcceptAnnounce(conn, announce.IPAddress, announce.Port)
		return
	case wire.RoleSubscriber:
		s.b.RegisterSubscriberConn(s.name, conn)
		s.log.Printf("%s: subscriber %q connected", s.id, s.name)
	case wire.RolePublisher:
		s.b.RegisterPublisherConn(s.name, conn)
		s.log.Printf("%s: publisher %q connected", s.id, s.name)
	default:
		s.log.Errorf("%s: unknown user type %q", s.id, s.role)
		conn.Close()
		return
	}

	defer s.disconnect()
	s.requestLoop()
}

// requestLoop is the operating-state loop: one request per line,
// dispatched by command, one response written back. A "sync" command is
// applied with no response; a malformed frame is skipped with an
// "invalid command" response.
func (s *session) requestLoop() {
	for {
		var req wire.Request
		err := s.conn.ReadFrame(&req)
		if err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.log.Errorf("%s: %v", s.id, err)
				if err := s.conn.WriteFrame(wire.Response{Result: wire.ResultFailed, Detail: "invalid command"}); err != nil {
					return
				}
				continue
			}
			if !errors.Is(err, io.EOF) {
				s.log.Errorf("%s: read: %v", s.id, err)
			}
			return
		}
		if req.Command == wire.CmdSync {
			s.b.ApplySync(req)
			continue
		}
		resp := s.dispatch(req)
		if err := s.conn.WriteFrame(resp); err != nil {
			s.log.Errorf("%s: write: %v", s.id, err)
			return
		}
	}
}

// dispatch implements §4.2's command dispatch table over §4.1's
// operations, mapping each sentinel error to its exact wire detail (§7).
func (s *session) dispatch(req wire.Request) wire.Response {
	switch req.Command {
	case wire.CmdList:
		topics, err := s.b.ListTopics()
		if err != nil {
			return wire.Response{Result: wire.ResultFailed, Detail: detail(err, req.TopicID)}
		}
		return wire.Response{Result: wire.ResultSuccess, Detail: topics, MessageType: wire.MsgTypeList}

	case wire.CmdCreate:
		if err := s.b.CreateTopic(req.TopicID, req.TopicName, s.name); err != nil {
			return wire.Response{Result: wire.ResultFailed, Detail: detail(err, req.TopicID)}
		}
		return wire.Response{Result: wire.ResultSuccess, Detail: "topic created"}

	case wire.CmdPublish:
		if err := s.b.PublishMessage(req.TopicID, req.Message, s.name); err != nil {
			return wire.Response{Result: wire.ResultFailed, Detail: detail(err, req.TopicID)}
		}
		return wire.Response{Result: wire.ResultSuccess, Detail: "message published"}

	case wire.CmdDelete:
		if err := s.b.DeleteTopic(req.TopicID, s.name); err != nil {
			return wire.Response{Result: wire.ResultFailed, Detail: detail(err, req.TopicID)}
		}
		return wire.Response{Result: wire.ResultSuccess, Detail: "topic deleted"}

	case wire.CmdSubscribe:
		if err := s.b.Subscribe(req.TopicID, s.name); err != nil {
			return wire.Response{Result: wire.ResultFailed, Detail: detail(err, req.TopicID)}
		}
		return wire.Response{Result: wire.ResultSuccess, Detail: "subscribed"}

	case wire.CmdUnsubscribe:
		if err := s.b.Unsubscribe(req.TopicID, s.name); err != nil {
			return wire.Response{Result: wire.ResultFailed, Detail: detail(err, req.TopicID)}
		}
		return wire.Response{Result: wire.ResultSuccess, Detail: "unsubscribed"}

	case wire.CmdShowCurrentSubscription:
		topics, err := s.b.ShowCurrentSubscription(s.name)
		if err != nil {
			return wire.Response{Result: wire.ResultFailed, Detail: detail(err, req.TopicID)}
		}
		return wire.Response{Result: wire.ResultSuccess, Detail: topics, MessageType: wire.MsgTypeCurrent}

	case wire.CmdCountSubscriber:
		counts, err := s.b.CountSubscribers(s.name)
		if err != nil {
			return wire.Response{Result: wire.ResultFailed, Detail: detail(err, req.TopicID)}
		}
		return wire.Response{Result: wire.ResultSuccess, Detail: counts}

	default:
		return wire.Response{Result: wire.ResultFailed, Detail: "invalid command"}
	}
}

// disconnect runs the role-appropriate cleanup exactly once per session.
func (s *session) disconnect() {
	s.cleanup.Do(func() {
		switch s.role {
		case wire.RolePublisher:
			s.b.OnPublisherDisconnect(s.name)
		case wire.RoleSubscriber:
			s.b.OnSubscriberDisconnect(s.name)
		}
		s.conn.Close()
		s.log.Printf("%s: %s %q disconnected", s.id, s.role, s.name)
	})
}
