package reactive

import (
	"context"
	"encoding/json"
	"log"
)

// Publisher runs inside every worker process and broadcasts one envelope per
// finished stage task. Publishing is fire-and-forget: a failure is logged and
// never propagated into the task queue's own completion bookkeeping.
type Publisher struct {
	channel Channel
	name    string
}

// NewPublisher creates a publisher for the named channel.
func NewPublisher(channel Channel, name string) *Publisher {
	if name == "" {
		name = DefaultChannel
	}
	return &Publisher{channel: channel, name: name}
}

// Publish broadcasts a completion event for the given task.
func (p *Publisher) Publish(ctx context.Context, taskID, stage string, headers Headers) {
	payload, err := json.Marshal(Envelope{TaskID: taskID, Stage: stage, Headers: headers})
	if err != nil {
		log.Printf("[publisher] failed to encode event for stage %s: %v", stage, err)
		return
	}
	if err := p.channel.Publish(ctx, p.name, payload); err != nil {
		log.Printf("[publisher] failed to publish event for stage %s: %v", stage, err)
	}
}
