package reactive

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Callback reacts to one stage completion. taskErr is the stage's own failure
// (nil on success), result is the raw payload fetched from the task queue's
// result store, and headers carries the correlation metadata.
type Callback func(ctx context.Context, taskErr error, result []byte, headers Headers)

// ResultFetcher looks up the authoritative stage result or error by task id.
// The envelope carries only the identifier, so the result store stays the
// single source of truth.
type ResultFetcher interface {
	FetchResult(ctx context.Context, taskID string) (result []byte, taskErr error, err error)
}

// Bridge is the single long-lived subscriber that turns completion events
// into callback invocations. One callback may be registered per stage name;
// last registration wins, and unmatched names fall back to a default.
type Bridge struct {
	channel   Channel
	results   ResultFetcher
	name      string
	retryWait time.Duration

	mu        sync.RWMutex
	callbacks map[string]Callback
	defaultCb Callback

	sub    Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBridge creates a bridge over the named channel. A zero retryWait
// defaults to one second between receive-loop recovery attempts.
func NewBridge(channel Channel, results ResultFetcher, name string, retryWait time.Duration) *Bridge {
	if name == "" {
		name = DefaultChannel
	}
	if retryWait <= 0 {
		retryWait = time.Second
	}
	return &Bridge{
		channel:   channel,
		results:   results,
		name:      name,
		retryWait: retryWait,
		callbacks: make(map[string]Callback),
	}
}

// Register sets the callback for a stage name. Last registration wins.
func (b *Bridge) Register(stage string, cb Callback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks[stage] = cb
}

// SetDefault sets the fallback callback for unregistered stage names.
func (b *Bridge) SetDefault(cb Callback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaultCb = cb
}

// Start subscribes and launches the receive loop. Calling Start on a running
// bridge is a no-op.
func (b *Bridge) Start(ctx context.Context) error {
	if b.sub != nil {
		return nil
	}

	log.Printf("[bridge] starting stage completion listener on %s", b.name)

	sub, err := b.channel.Subscribe(ctx, b.name)
	if err != nil {
		return err
	}
	b.sub = sub

	loopCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.run(loopCtx)
	return nil
}

// Stop shuts the receive loop down, waits for any in-flight callback to
// finish, and releases the subscription. Stop before Start is a no-op.
func (b *Bridge) Stop() {
	if b.sub == nil {
		return
	}
	b.cancel()
	<-b.done
	if err := b.sub.Close(); err != nil {
		log.Printf("[bridge] failed to close subscription: %v", err)
	}
	b.sub = nil
	log.Println("[bridge] stopped")
}

// run is the receive loop. It never exits on its own: a malformed message is
// skipped, a transient channel error pauses and retries.
func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)
	for {
		payload, err := b.sub.Receive(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("[bridge] receive failed: %v", err)
			select {
			case <-time.After(b.retryWait):
			case <-ctx.Done():
				return
			}
			continue
		}
		// Shutdown waits for the in-flight callback instead of cancelling it.
		b.process(context.WithoutCancel(ctx), payload)
	}
}

// process handles one message; its failures are isolated and logged, never
// propagated to the rest of the loop.
func (b *Bridge) process(ctx context.Context, payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Printf("[bridge] skipping malformed event: %v", err)
		return
	}

	b.mu.RLock()
	cb, ok := b.callbacks[env.Stage]
	if !ok {
		cb = b.defaultCb
	}
	b.mu.RUnlock()

	if cb == nil {
		log.Printf("[bridge] no callback for stage %s, dropping event", env.Stage)
		return
	}

	result, taskErr, err := b.results.FetchResult(ctx, env.TaskID)
	if err != nil {
		log.Printf("[bridge] failed to fetch result for task %s (stage %s): %v", env.TaskID, env.Stage, err)
		return
	}

	cb(ctx, taskErr, result, env.Headers)
}
