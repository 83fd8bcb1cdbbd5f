// Package broker implements the broker core (§4.1), the client session
// handler (§4.2) and the peer link manager / sync protocol (§4.3) of the
// publish/subscribe mesh.
package broker

import (
	"sync"

	"github.com/yocccc/publisher-subscriber-system/internal/logging"
	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// topicEntry is one row of the topic table (§3).
type topicEntry struct {
	title string
	owner string
}

// peerLink is one entry of the peer link set (§3, §4.3): a live
// connection to another broker, tagged with the address used to
// deduplicate it.
type peerLink struct {
	addr string // "ip:port", the dedup key
	conn *wire.Conn
}

// Broker holds all mutable state for one broker node, guarded by a single
// coarse mutex per §5. Each of §4.1's operations is an exported method on
// Broker; each acquires mu for its full duration, including any local
// pushes and peer fan-out it triggers.
type Broker struct {
	mu sync.Mutex

	topics map[string]*topicEntry    // topic id -> entry
	subs   map[string]map[string]bool // subscriber name -> set of topic ids

	subscriberConns map[string]*wire.Conn // subscriber name -> socket
	publisherConns  map[string]*wire.Conn // publisher name -> socket

	peers map[string]*peerLink // "ip:port" -> link

	selfIP   string
	selfPort string

	log *logging.Logger
}

// New creates an empty broker bound to selfIP:selfPort. The self address
// is what this broker advertises in its peer announce and directory
// registration, and is used to reject self-links when bootstrapping from
// a directory listing (§4.3).
func New(selfIP, selfPort string) *Broker {
	return &Broker{
		topics:          make(map[string]*topicEntry),
		subs:            make(map[string]map[string]bool),
		subscriberConns: make(map[string]*wire.Conn),
		publisherConns:  make(map[string]*wire.Conn),
		peers:           make(map[string]*peerLink),
		selfIP:          selfIP,
		selfPort:        selfPort,
		log:             logging.Tagged("broker"),
	}
}

// RegisterSubscriberConn records the socket through which a subscriber's
// pushes are delivered. A second announce under the same name silently
// overwrites the prior entry (Open Question 1, preserved as specified).
func (b *Broker) RegisterSubscriberConn(name string, c *wire.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriberConns[name] = c
}

// RegisterPublisherConn records the socket for a publisher's session, used
// only so disconnect cleanup can find the name back to its connection.
func (b *Broker) RegisterPublisherConn(name string, c *wire.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publisherConns[name] = c
}
