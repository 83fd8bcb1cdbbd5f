// Command publisher is an interactive publisher client (§4.2, §6).
//
// Usage: publisher <name> <host:port>
//        publisher <name> -d <host:port>
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
		fmt.Fprintln(os.Stderr, "usage: publisher <name> <host:port> | publisher <name> -d <host:port>")
		os.Exit(1)
	}
	name := os.Args[1]

	brokerAddr, err := resolveBrokerAddr(os.Args[2:], wire.RolePublisher)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println("Connecting to broker:", brokerAddr)

	pub, err := client.DialPublisher(brokerAddr, name)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pub.Close()
	fmt.Println("Connected to the broker")

	runMenu(pub)
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

func displayMenu() {
	fmt.Println("Please select command: create, publish, show, delete, exit.")
	fmt.Println("1. create {topic_id} {topic_name}")
	fmt.Println("2. publish {topic_id} {message}")
	fmt.Println("3. show # subscriber counts for your topics")
	fmt.Println("4. delete {topic_id}")
	fmt.Println("5. exit")
}

func runMenu(pub *client.Publisher) {
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
		case "create":
			if len(fields) < 3 {
				fmt.Println("Invalid command. Please provide topic id and name.")
				continue
			}
			topicID := fields[1]
			if !client.ValidTopicID(topicID) {
				fmt.Println("Topic id must be a number.")
				continue
			}
			resp, err := pub.Create(topicID, strings.Join(fields[2:], " "))
			printResult(resp, err)

		case "publish":
			if len(fields) < 3 {
				fmt.Println("Invalid command. Please provide topic id and message.")
				continue
			}
			topicID := fields[1]
			if !client.ValidTopicID(topicID) {
				fmt.Println("Topic id must be a number.")
				continue
			}
			message := strings.Join(fields[2:], " ")
			if !client.ValidMessage(message) {
				fmt.Println("Message exceeds the maximum length of 100 characters.")
				continue
			}
			resp, err := pub.Publish(topicID, message)
			printResult(resp, err)

		case "show":
			resp, err := pub.ShowSubscriberCounts()
			printResult(resp, err)

		case "delete":
			if len(fields) < 2 {
				fmt.Println("Invalid command. Please provide topic id.")
				continue
			}
			topicID := fields[1]
			if !client.ValidTopicID(topicID) {
				fmt.Println("Topic id must be a number.")
				continue
			}
			resp, err := pub.Delete(topicID)
			printResult(resp, err)

		case "exit":
			fmt.Println("Program terminated.")
			return

		default:
			fmt.Println("Invalid command. Please re-enter.")
		}
	}
}

func printResult(resp wire.Response, err error) {
	if err != nil {
		fmt.Println("The server seems to be down. Terminating the program.")
		os.Exit(1)
	}
	fmt.Println(resp.Detail)
}
