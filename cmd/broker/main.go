// Command broker runs one broker node (§4.1-§4.3).
//
// Usage: broker <port> [-d host:port] [-b host:port ...]
//
// -d registers with a directory service and bootstraps peer links from
// its broker list. -b dials the given peer addresses directly. Both may
// be given; at least one of them is how a broker ever learns about
// peers, since the mesh has no other discovery mechanism.
package main

import (
	"fmt"
	"log"
	"net"
	"os"

	"github.com/yocccc/publisher-subscriber-system/internal/broker"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: broker <port> [-d host:port] [-b host:port ...]")
		os.Exit(1)
	}
	port := os.Args[1]
	selfIP := localIP()

	srv, err := broker.NewServer(selfIP, port)
	if err != nil {
		log.Fatalf("start broker: %v", err)
	}
	log.Printf("[broker] self address %s:%s", selfIP, port)

	go func() {
		if err := srv.Serve(); err != nil {
			log.Fatalf("broker serve: %v", err)
		}
	}()

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-d":
			if i+1 >= len(args) {
				log.Fatal("-d requires host:port")
			}
			if err := srv.RegisterWithDirectory(args[i+1]); err != nil {
				log.Fatalf("directory registration failed: %v", err)
			}
			i++
		case "-b":
			var addrs []string
			for j := i + 1; j < len(args); j++ {
				addrs = append(addrs, args[j])
			}
			srv.BootstrapPeers(addrs)
			i = len(args)
		}
	}

	select {}
}

// localIP picks this host's first non-loopback IPv4 address, the same
// role InetAddress.getLocalHost().getHostAddress() plays in the
// reference broker; it falls back to the loopback address when no such
// interface exists (e.g. inside a minimal container).
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}
