// Package telemetry is the optional Redis pub/sub publisher SPEC_FULL.md
// §6 adds for out-of-process observers (the visualizer, a dashboard): a
// demo run can attach a Publisher to broadcast AdjustWeights broadcasts and
// learner decisions as they happen. It is entirely optional and off by
// default; the core protocol in the paxos package never imports it and
// runs identically with it absent.
//
// Ported from esaraci-go-paxos/paxos/queries/redis-queries.go's client
// construction style, using the teacher's own github.com/go-redis/redis/v7
// dependency.
package telemetry

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-redis/redis/v7"
)

// EventKind tags a telemetry event the way message.Kind tags a protocol
// message, so a subscriber (cmd/visualizer) can dispatch on it.
type EventKind string

const (
	EventWeightsAdjusted EventKind = "weights_adjusted"
	EventInstanceDecided EventKind = "instance_decided"
)

// Event is one published telemetry record.
type Event struct {
	Kind     EventKind       `json:"kind"`
	Pid      int             `json:"pid"`
	Instance int64           `json:"instance,omitempty"`
	Value    any             `json:"value,omitempty"`
	Weights  map[int]float64 `json:"weights,omitempty"`
}

// Publisher publishes Events to a single Redis channel.
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher connects to addr and returns a Publisher for channel, the
// same connect-then-PING pattern as the teacher's RedisPrepareDBConn.
func NewPublisher(addr, channel string) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping().Result(); err != nil {
		return nil, fmt.Errorf("telemetry: redis at %s did not respond to ping: %w", addr, err)
	}
	return &Publisher{client: client, channel: channel}, nil
}

// Close releases the underlying Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

func (p *Publisher) publish(e Event) {
	raw, err := json.Marshal(e)
	if err != nil {
		log.Printf("[TELEMETRY] -> Could not marshal event: %v.", err)
		return
	}
	if err := p.client.Publish(p.channel, raw).Err(); err != nil {
		log.Printf("[TELEMETRY] -> Could not publish event: %v.", err)
	}
}

// PublishWeightsAdjusted publishes one analyzer weight-change broadcast.
func (p *Publisher) PublishWeightsAdjusted(proposerPid int, weights map[int]float64) {
	p.publish(Event{Kind: EventWeightsAdjusted, Pid: proposerPid, Weights: weights})
}

// PublishInstanceDecided publishes one learner decision.
func (p *Publisher) PublishInstanceDecided(learnerPid int, instance int64, value any) {
	p.publish(Event{Kind: EventInstanceDecided, Pid: learnerPid, Instance: instance, Value: value})
}

// Subscriber reads Events back off the channel, used by cmd/visualizer.
type Subscriber struct {
	sub *redis.PubSub
}

// NewSubscriber connects to addr and subscribes to channel.
func NewSubscriber(addr, channel string) (*Subscriber, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping().Result(); err != nil {
		return nil, fmt.Errorf("telemetry: redis at %s did not respond to ping: %w", addr, err)
	}
	return &Subscriber{sub: client.Subscribe(channel)}, nil
}

// Next blocks for the next Event on the channel.
func (s *Subscriber) Next() (Event, error) {
	msg, err := s.sub.ReceiveMessage()
	if err != nil {
		return Event{}, err
	}
	var e Event
	if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
		return Event{}, fmt.Errorf("telemetry: unmarshalling event: %w", err)
	}
	return e, nil
}

// Close releases the underlying Redis connection.
func (s *Subscriber) Close() error {
	return s.sub.Close()
}
