package broker

import (
	"fmt"
	"net"

	"github.com/yocccc/publisher-subscriber-system/internal/logging"
	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// Server owns a Broker's listening socket and wires it to the directory
// service and/or a -b bootstrap list, mirroring the wiring sequence
// server_unified/main.go uses (build state -> register -> bootstrap ->
// accept loop).
type Server struct {
	B  *Broker
	PM *PeerManager

	ln  net.Listener
	log *logging.Logger
}

// NewServer binds a listener on port and constructs the Broker bound to
// selfIP:port.
func NewServer(selfIP, port string) (*Server, error) {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", port, err)
	}
	b := New(selfIP, port)
	return &Server{
		B:   b,
		PM:  NewPeerManager(b),
		ln:  ln,
		log: logging.Tagged("server"),
	}, nil
}

// RegisterWithDirectory dials directoryAddr, announces this broker, and
// bootstraps peer links from the returned broker list (§4.3, §4.4).
func (s *Server) RegisterWithDirectory(directoryAddr string) error {
	raw, err := net.Dial("tcp", directoryAddr)
	if err != nil {
		return fmt.Errorf("dial directory %s: %w", directoryAddr, err)
	}
	defer raw.Close()
	conn := wire.NewConn(raw)

	req := wire.DirectoryRequest{
		UserType:   wire.RoleBroker,
		BrokerIP:   s.B.selfIP,
		BrokerPort: s.B.selfPort,
	}
	if err := conn.WriteFrame(req); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	var resp wire.DirectoryResponse
	if err := conn.ReadFrame(&resp); err != nil {
		return fmt.Errorf("register response: %w", err)
	}
	s.log.Printf("registered with directory %s, %d broker(s) known", directoryAddr, len(resp.Brokers))
	s.PM.BootstrapFromList(resp.Brokers)
	return nil
}

// BootstrapPeers dials every "-b" address given on the command line.
func (s *Server) BootstrapPeers(addrs []string) {
	for _, a := range addrs {
		ip, port, err := net.SplitHostPort(a)
		if err != nil {
			s.log.Errorf("bad -b address %q: %v", a, err)
			continue
		}
		if err := s.PM.Dial(ip, port); err != nil {
			s.log.Errorf("-b dial to %s failed: %v", a, err)
		}
	}
}

// Serve runs the accept loop. It blocks until the listener is closed.
func (s *Server) Serve() error {
	s.log.Printf("listening on %s", s.ln.Addr())
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return err
		}
		go ServeConn(s.B, s.PM, conn)
	}
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }
