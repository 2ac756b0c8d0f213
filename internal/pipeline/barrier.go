package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// fanInWidth is the number of distinct siblings gating the merge stage.
const fanInWidth = 2

// Barrier synchronizes the diarize/transcribe fan-in. Arrive records that the
// named sibling finished for a job and reports true exactly once, when every
// distinct sibling has arrived. A repeat of a stage already recorded is a
// duplicate delivery and reports false, so a redelivered event cannot release
// the merge while the other sibling is still running.
type Barrier interface {
	Arrive(ctx context.Context, jobID uuid.UUID, stage string) (release bool, err error)
}

// arriveScript adds the stage to the job's arrival set and reports the set
// size, or -1 for a duplicate. Running it as a script keeps the add and the
// count atomic, so two distinct siblings arriving concurrently still release
// exactly once.
var arriveScript = redis.NewScript(`
if redis.call("SADD", KEYS[1], ARGV[1]) == 0 then
	return -1
end
if tonumber(ARGV[2]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return redis.call("SCARD", KEYS[1])
`)

// RedisBarrier keeps barrier state in Redis so the siblings may complete on
// different workers in either order.
type RedisBarrier struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBarrier wraps a Redis client. ttl bounds how long abandoned
// barrier state lingers; zero disables expiry.
func NewRedisBarrier(client *redis.Client, ttl time.Duration) *RedisBarrier {
	return &RedisBarrier{client: client, ttl: ttl}
}

// Arrive records the sibling's arrival and releases when the last distinct
// sibling is in.
func (b *RedisBarrier) Arrive(ctx context.Context, jobID uuid.UUID, stage string) (bool, error) {
	key := "pipeline:barrier:" + jobID.String()
	n, err := arriveScript.Run(ctx, b.client, []string{key}, stage, b.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to advance barrier for job %s: %w", jobID, err)
	}
	return n == fanInWidth, nil
}

// MemoryBarrier is an in-process Barrier for tests and single-process runs.
type MemoryBarrier struct {
	mu      sync.Mutex
	arrived map[uuid.UUID]map[string]bool
}

// NewMemoryBarrier creates an empty in-memory barrier.
func NewMemoryBarrier() *MemoryBarrier {
	return &MemoryBarrier{arrived: make(map[uuid.UUID]map[string]bool)}
}

// Arrive records the sibling's arrival and releases when the last distinct
// sibling is in.
func (b *MemoryBarrier) Arrive(_ context.Context, jobID uuid.UUID, stage string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := b.arrived[jobID]
	if set == nil {
		set = make(map[string]bool)
		b.arrived[jobID] = set
	}
	if set[stage] {
		return false, nil
	}
	set[stage] = true
	return len(set) == fanInWidth, nil
}
