// Command visualizer is the minimal stand-in for spec.md §1's "optional
// graph visualizer": it subscribes to the telemetry channel a demo run
// publishes to and prints one line per weight adjustment and per decided
// instance. It does not render a graph; it satisfies the visualizer's
// interface (consume the event stream a run produces), nothing more, per
// SPEC_FULL.md §6.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gdub/weighted-paxos/internal/telemetry"
)

func main() {
	addr := flag.String("redis", "localhost:6379", "redis addr (host:port)")
	channel := flag.String("channel", "", "telemetry channel to subscribe to, e.g. weighted-paxos:<run-id>")
	flag.Parse()

	if *channel == "" {
		log.Fatal("[VISUALIZER] -> -channel is required; the demo driver prints it at run start.")
	}

	sub, err := telemetry.NewSubscriber(*addr, *channel)
	if err != nil {
		log.Fatalf("[VISUALIZER] -> Could not subscribe: %v.", err)
	}
	defer sub.Close()

	fmt.Printf("[VISUALIZER] -> Subscribed to %s.\n", *channel)
	for {
		event, err := sub.Next()
		if err != nil {
			log.Printf("[VISUALIZER] -> Subscription error: %v.", err)
			return
		}
		switch event.Kind {
		case telemetry.EventWeightsAdjusted:
			fmt.Printf("[VISUALIZER] -> proposer %d adjusted weights: %v\n", event.Pid, event.Weights)
		case telemetry.EventInstanceDecided:
			fmt.Printf("[VISUALIZER] -> learner %d decided instance %d: %v\n", event.Pid, event.Instance, event.Value)
		default:
			fmt.Printf("[VISUALIZER] -> unrecognized event: %+v\n", event)
		}
	}
}
