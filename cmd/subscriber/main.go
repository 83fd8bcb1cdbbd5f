// Command subscriber is an interactive subscriber client (§4.2, §4.5, §6).
//
// Usage: subscriber <name> <host:port>
//        subscriber <name> -d <host:port>
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/yocccc/publisher-subscriber-system/internal/client"
	"github.com/yocccc/publisher-subscriber-system/internal/wire"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: subscriber <name> <host:port> | subscriber <name> -d <host:port>")
		os.Exit(1)
	}
	name := os.Args[1]

	brokerAddr, err := resolveBrokerAddr(os.Args[2:], wire.RoleSubscriber)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println("Connecting to broker:", brokerAddr)

	sub, err := client.DialSubscriber(brokerAddr, name)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer sub.Close()
	fmt.Println("Connected to the broker")

	go renderPushes(sub)
	runMenu(sub)
}

func resolveBrokerAddr(args []string, role string) (string, error) {
	if args[0] == "-d" {
		if len(args) < 2 {
			return "", fmt.Errorf("-d requires a directory address")
		}
		brokers, err := client.FetchBrokers(args[1], role)
		if err != nil {
			return "", err
		}
		b, err := client.PickRandom(brokers)
		if err != nil {
			return "", err
		}
		return b.BrokerIP + ":" + b.BrokerPort, nil
	}
	return args[0], nil
}

// renderPushes prints broadcasts and delete notices as they arrive,
// independent of whatever request/response exchange is in flight — this
// is the goroutine-owns-the-channel half of §4.5's redesign.
func renderPushes(sub *client.Subscriber) {
	for push := range sub.Pushes {
		switch {
		case push.Broadcast != nil:
			b := push.Broadcast
			fmt.Printf("\n[broadcast] topic %s (%s) from %s: %s\n", b.TopicID, b.Title, b.Publisher, b.Message)
		case push.DeleteNotify != nil:
			fmt.Println("\n[deleted]")
			for _, t := range push.DeleteNotify.DeletedTopics {
				fmt.Printf("  topic %s (%s) owned by %s\n", t.TopicID, t.Title, t.Publisher)
			}
		}
	}
}

func displayMenu() {
	fmt.Println("Please select command: list, sub, current, unsub.")
	fmt.Println("1. list #all topics")
	fmt.Println("2. sub {topic_id} #subscribe to a topic")
	fmt.Println("3. current # show the current subscriptions of the subscriber")
	fmt.Println("4. unsub {topic_id} #unsubscribe from a topic")
	fmt.Println("5. exit")
}

func runMenu(sub *client.Subscriber) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		displayMenu()
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "list":
			resp, err := sub.List()
			printResult(resp, err)

		case "sub":
			topicID, ok := validatedTopicID(fields)
			if !ok {
				continue
			}
			resp, err := sub.Subscribe(topicID)
			printResult(resp, err)

		case "current":
			resp, err := sub.CurrentSubscriptions()
			printResult(resp, err)

		case "unsub":
			topicID, ok := validatedTopicID(fields)
			if !ok {
				continue
			}
			resp, err := sub.Unsubscribe(topicID)
			printResult(resp, err)

		case "exit":
			fmt.Println("Program terminated.")
			return

		default:
			fmt.Println("Invalid command. Please re-enter.")
		}
	}
}

func validatedTopicID(fields []string) (string, bool) {
	if len(fields) < 2 {
		fmt.Println("Invalid command. Please re-enter.")
		return "", false
	}
	if !client.ValidTopicID(fields[1]) {
		fmt.Println("ID accepts only number.")
		return "", false
	}
	return fields[1], true
}

func printResult(resp wire.Response, err error) {
	if err != nil {
		fmt.Println("The server seems to be down. Terminating the program.")
		os.Exit(1)
	}
	fmt.Println(resp.Detail)
}
