// Package redisset stores the checkpoint as a Redis set, so a run can be
// resumed from another machine. One run owns the set at a time: Lock claims
// "<key>:lock" with SET NX and keeps it alive until Unlock.
package redisset

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKey is the set key used when the location has no #fragment
const DefaultKey = "dcheck:checked"

// LockTTL bounds how long a crashed run keeps the set locked. A live run
// refreshes the lock every LockTTL/3.
const LockTTL = 30 * time.Second

// ErrLocked is returned by Lock when another run holds the set
var ErrLocked = errors.New("checkpoint is locked by another run")

var (
	// Delete or extend the lock only while this run still owns it
	unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// Set is a checkpoint backend backed by one Redis set
type Set struct {
	client *redis.Client
	key    string

	mu      sync.Mutex
	owner   string        // run ID holding the lock, empty when unlocked
	stop    chan struct{} // closes the refresh loop
	stopped chan struct{}
}

// Open connects to the Redis server in location, a redis:// URL with an
// optional "#key" fragment naming the set.
func Open(ctx context.Context, location string) (*Set, error) {
	rawURL, key, _ := strings.Cut(location, "#")
	if key == "" {
		key = DefaultKey
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return New(client, key), nil
}

// New wraps an existing client
func New(client *redis.Client, key string) *Set {
	return &Set{client: client, key: key}
}

// Key returns the set key
func (s *Set) Key() string { return s.key }

// Load returns the set members
func (s *Set) Load(ctx context.Context) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.key, err)
	}
	return members, nil
}

// Persist adds one member; the snapshot is not needed
func (s *Set) Persist(ctx context.Context, added string, _ func() []string) error {
	if err := s.client.SAdd(ctx, s.key, added).Err(); err != nil {
		return fmt.Errorf("adding %s to %s: %w", added, s.key, err)
	}
	return nil
}

// Remove deletes the set
func (s *Set) Remove(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("deleting %s: %w", s.key, err)
	}
	return nil
}

// LockKey returns the key guarding the set
func (s *Set) LockKey() string { return s.key + ":lock" }

// Lock claims the set for runID until Unlock. It fails with ErrLocked when
// another run holds it.
func (s *Set) Lock(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != "" {
		return fmt.Errorf("%s already locked by run %s", s.key, s.owner)
	}

	ok, err := s.client.SetNX(ctx, s.LockKey(), runID, LockTTL).Result()
	if err != nil {
		return fmt.Errorf("locking %s: %w", s.key, err)
	}
	if !ok {
		holder, _ := s.client.Get(ctx, s.LockKey()).Result()
		return fmt.Errorf("%w: %s held by run %s", ErrLocked, s.key, holder)
	}

	s.owner = runID
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.refresh(runID, s.stop, s.stopped)
	return nil
}

func (s *Set) refresh(runID string, stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(LockTTL / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), LockTTL/3)
			refreshScript.Run(ctx, s.client, []string{s.LockKey()}, runID, LockTTL.Milliseconds())
			cancel()
		}
	}
}

// Unlock releases a lock taken by Lock. It is a no-op when not locked.
func (s *Set) Unlock(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == "" {
		return nil
	}
	close(s.stop)
	<-s.stopped

	owner := s.owner
	s.owner = ""
	if err := unlockScript.Run(ctx, s.client, []string{s.LockKey()}, owner).Err(); err != nil {
		return fmt.Errorf("unlocking %s: %w", s.key, err)
	}
	return nil
}

// Close closes the client connection pool
func (s *Set) Close() error {
	return s.client.Close()
}
