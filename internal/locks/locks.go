// Package locks serializes work on one entity across requests.
package locks

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/cespare/xxhash/v2"
)

// Locker hands out an exclusive hold on key until unlock is called.
// Lock gives up with ctx.Err() when ctx ends first.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

func ListKey(id snowflake.ID) string {
	return fmt.Sprintf("list:%d", id)
}

const defaultStripes = 64

// StripedLocker maps keys onto a fixed set of one-slot semaphores. Two keys can share a
// stripe, which only costs throughput.
type StripedLocker struct {
	stripes []chan struct{}
}

func NewStripedLocker(n int) *StripedLocker {
	if n <= 0 {
		n = defaultStripes
	}

	stripes := make([]chan struct{}, n)
	for i := range stripes {
		stripes[i] = make(chan struct{}, 1)
	}
	return &StripedLocker{stripes: stripes}
}

func (s *StripedLocker) Lock(ctx context.Context, key string) (func(), error) {
	stripe := s.stripes[xxhash.Sum64String(key)%uint64(len(s.stripes))]

	select {
	case stripe <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-stripe })
	}, nil
}
