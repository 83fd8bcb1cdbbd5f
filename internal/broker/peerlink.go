package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// PeerManager implements §4.3's dial/accept/dedup logic on top of a
// Broker's peer link set. It is the one piece of the broker that opens
// outbound peer sockets, so it is kept separate from the pure state machine in
// state.go/ops.go/sync.go.
type PeerManager struct {
	b *Broker
}

// NewPeerManager returns a PeerManager bound to b.
func NewPeerManager(b *Broker) *PeerManager { return &PeerManager{b: b} }

// addrKey is the dedup key for a peer link (§3 invariant 4): remote
// ip:port, exactly as advertised in the broker announce frame.
func addrKey(ip, port string) string { return ip + ":" + port }

// isSelf reports whether ip:port names this broker itself, so a bootstrap
// list that includes us is never dialed back to ourselves.
func (p *PeerManager) isSelf(ip, port string) bool {
	return ip == p.b.selfIP && port == p.b.selfPort
}

// Dial opens an outbound link to ip:port, announces this broker on it,
// registers the link, and starts the sync loop that applies every record
// received on it. It is a no-op if a link to that address already
// exists, or if the address is this broker's own.
func (p *PeerManager) Dial(ip, port string) error {
	key := addrKey(ip, port)
	if p.isSelf(ip, port) {
		return nil
	}
	p.b.mu.Lock()
	_, already := p.b.peers[key]
	p.b.mu.Unlock()
	if already {
		return nil
	}

	raw, err := net.Dial("tcp", key)
	if err != nil {
		return fmt.Errorf("dial peer %s: %w", key, err)
	}
	conn := wire.NewConn(raw)
	announce := wire.Announce{
		UserType:  wire.RoleBroker,
		IPAddress: p.b.selfIP,
		Port:      p.b.selfPort,
	}
	if err := conn.WriteFrame(announce); err != nil {
		conn.Close()
		return fmt.Errorf("announce to peer %s: %w", key, err)
	}

	p.b.mu.Lock()
	if _, already := p.b.peers[key]; already {
		p.b.mu.Unlock()
		conn.Close()
		return nil
	}
	p.b.peers[key] = &peerLink{addr: key, conn: conn}
	p.b.mu.Unlock()

	p.b.log.Printf("linked to peer %s (outbound)", key)
	go p.syncLoop(conn, key)
	return nil
}

// AcceptAnnounce handles an inbound connection that announced itself as a
// broker: if the advertised ip:port is new to us, it registers this
// inbound connection as the link to that address, and sync records then
// flow both ways over it, which makes -b links bidirectional (Open
// Question 3 in §9, see SPEC_FULL.md §4.3). No second connection is
// opened: the Dial call below finds the address already registered and
// returns without dialing. This is exercised the same way whether the
// remote reached us via directory bootstrap or via a raw -b address.
func (p *PeerManager) AcceptAnnounce(conn *wire.Conn, ip, port string) {
	key := addrKey(ip, port)
	p.b.mu.Lock()
	_, already := p.b.peers[key]
	if !already {
		p.b.peers[key] = &peerLink{addr: key, conn: conn}
	}
	p.b.mu.Unlock()

	if already {
		p.b.log.Printf("peer %s re-announced on a second connection; keeping prior link and closing this one", key)
		conn.Close()
		return
	}

	p.b.log.Printf("linked to peer %s (inbound)", key)
	go p.syncLoop(conn, key)

	if err := p.Dial(ip, port); err != nil {
		p.b.log.Errorf("dial-back to %s failed: %v", key, err)
	}
}

// syncLoop owns the read side of a peer connection for its whole
// lifetime: every frame it decodes is a "sync" command, applied directly
// with no response written (§4.2); malformed frames are dropped and the
// link stays open. When the connection closes it evicts
// itself from b.peers so a later Dial/AcceptAnnounce for the same address
// can re-establish the link instead of finding the dedup slot permanently
// occupied (§3 Lifecycle).
func (p *PeerManager) syncLoop(conn *wire.Conn, addr string) {
	defer func() {
		conn.Close()
		p.b.mu.Lock()
		if cur, ok := p.b.peers[addr]; ok && cur.conn == conn {
			delete(p.b.peers, addr)
		}
		p.b.mu.Unlock()
	}()
	for {
		var req wire.Request
		if err := conn.ReadFrame(&req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				p.b.log.Errorf("peer link %s: dropping %v", addr, err)
				continue
			}
			p.b.log.Printf("peer link %s closed: %v", addr, err)
			return
		}
		if req.Command != wire.CmdSync {
			continue
		}
		p.b.ApplySync(req)
	}
}

// BootstrapFromList dials every broker in entries, skipping ourselves.
func (p *PeerManager) BootstrapFromList(entries []wire.BrokerEntry) {
	for _, e := range entries {
		if err := p.Dial(e.BrokerIP, e.BrokerPort); err != nil {
			p.b.log.Errorf("bootstrap dial to %s:%s failed: %v", e.BrokerIP, e.BrokerPort, err)
		}
	}
}
