// Package client implements the publisher and subscriber session logic
// (§4.2's client side) and the directory lookup both share.
package client

import (
	"fmt"
	"math/rand"
	"net"

	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

// FetchBrokers queries the directory service at directoryAddr for the
// current broker list, announcing as role (publisher or subscriber).
func FetchBrokers(directoryAddr, role string) ([]wire.BrokerEntry, error) {
	raw, err := net.Dial("tcp", directoryAddr)
	if err != nil {
		return nil, fmt.Errorf("dial directory %s: %w", directoryAddr, err)
	}
	defer raw.Close()
	conn := wire.NewConn(raw)

	if err := conn.WriteFrame(wire.DirectoryRequest{UserType: role}); err != nil {
		return nil, fmt.Errorf("query directory: %w", err)
	}
	var resp wire.DirectoryResponse
	if err := conn.ReadFrame(&resp); err != nil {
		return nil, fmt.Errorf("directory response: %w", err)
	}
	return resp.Brokers, nil
}

// PickRandom picks one broker at random from brokers, matching the
// reference client's random broker selection when bootstrapping via -d.
func PickRandom(brokers []wire.BrokerEntry) (wire.BrokerEntry, error) {
	if len(brokers) == 0 {
		return wire.BrokerEntry{}, fmt.Errorf("no available brokers found")
	}
	return brokers[rand.Intn(len(brokers))], nil
}
