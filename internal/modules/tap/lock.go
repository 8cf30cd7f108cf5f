// README: In-process per-card lock. Serializes taps within one instance;
// the Redis variant covers multi-instance deployments.
package tap

import (
	"context"
	"sync"

	"citypass/internal/types"
)

// CardLocker serializes tap processing per card. Lock blocks until the
// card's lock is held and returns the release func.
type CardLocker interface {
	Lock(ctx context.Context, cardID types.ID) (release func(), err error)
}

type KeyedLock struct {
	mu    sync.Mutex
	locks map[types.ID]*cardLock
}

type cardLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{locks: map[types.ID]*cardLock{}}
}

func (k *KeyedLock) Lock(ctx context.Context, cardID types.ID) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[cardID]
	if !ok {
		l = &cardLock{}
		k.locks[cardID] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, cardID)
		}
		k.mu.Unlock()
	}, nil
}
