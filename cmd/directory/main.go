// Command directory runs the bootstrap broker registry (§4.4).
//
// Usage: directory <port>
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/yocccc/publisher-subscriber-system/internal/directory"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: directory <port>")
		os.Exit(1)
	}
	port := os.Args[1]

	srv, err := directory.NewServer(port)
	if err != nil {
		log.Fatalf("start directory: %v", err)
	}
	if err := srv.Serve(); err != nil {
		log.Fatalf("directory serve: %v", err)
	}
}
