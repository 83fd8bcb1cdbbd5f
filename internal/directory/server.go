package directory

import (
	"errors"
	"io"
	"net"

	"github.com/yocccc/publisher-subscriber-system/internal/logging"
	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// Server binds a listener and serves the directory protocol (§4.4,
// §6): a broker announce gets appended and echoed back with the full
// list tagged "user type":"directory"; a publisher/subscriber query gets
// the list with no "user type" field, matching the reference service's
// reply shapes exactly.
type Server struct {
	reg *Registry
	ln  net.Listener
	log *logging.Logger
}

// NewServer binds a listener on port.
func NewServer(port string) (*Server, error) {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, err
	}
	return &Server{
		reg: NewRegistry(),
		ln:  ln,
		log: logging.Tagged("directory"),
	}, nil
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve runs the accept loop until the listener is closed.
func (s *Server) Serve() error {
	s.log.Printf("listening on %s", s.ln.Addr())
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		go s.serveConn(wire.NewConn(conn))
	}
}

// serveConn reads every request on one connection until the caller
// disconnects; the reference directory handler keeps a connection open
// across multiple requests rather than closing after the first reply.
func (s *Server) serveConn(conn *wire.Conn) {
	defer conn.Close()
	for {
		var req wire.DirectoryRequest
		if err := conn.ReadFrame(&req); err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Errorf("read: %v", err)
			}
			return
		}

		var resp wire.DirectoryResponse
		switch req.UserType {
		case wire.RoleBroker:
			resp = wire.DirectoryResponse{
				UserType: wire.RoleDirectory,
				Brokers:  s.reg.Register(req.BrokerIP, req.BrokerPort),
			}
			s.log.Printf("registered broker %s:%s", req.BrokerIP, req.BrokerPort)
		case wire.RolePublisher, wire.RoleSubscriber:
			resp = wire.DirectoryResponse{Brokers: s.reg.List()}
		default:
			resp = wire.DirectoryResponse{Brokers: s.reg.List()}
		}

		if err := conn.WriteFrame(resp); err != nil {
			s.log.Errorf("write: %v", err)
			return
		}
	}
}
