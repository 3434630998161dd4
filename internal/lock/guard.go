package lock

import (
	"context"
	"sync"
)

// Guard serializes work on a key. The returned unlock must be called once
// the guarded section is done.
type Guard interface {
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

// LocalGuard is an in-process Guard, used when no Redis is configured.
type LocalGuard struct {
	mutex sync.Mutex
	keys  map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

var _ Guard = (*LocalGuard)(nil)

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{
		keys: make(map[string]*keyLock),
	}
}

func (g *LocalGuard) Lock(ctx context.Context, key string) (func(context.Context) error, error) {
	g.mutex.Lock()
	kl, ok := g.keys[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		g.keys[key] = kl
	}
	kl.refs++
	g.mutex.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		g.release(key, kl)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-kl.ch
			g.release(key, kl)
		})
		return nil
	}, nil
}

func (g *LocalGuard) release(key string, kl *keyLock) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(g.keys, key)
	}
}
