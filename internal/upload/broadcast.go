package upload

import (
	"sync"

	"github.com/dineshlahiru/forms.lk-sub000/internal/model"
)

// Broadcaster fans progress events out to any number of observers without
// coupling the orchestrator to presentation. There is no buffering or
// replay: late subscribers see only future events.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(model.UploadProgress)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]func(model.UploadProgress))}
}

// Subscribe registers a callback and returns its unsubscribe function.
// Callbacks are invoked synchronously on the publishing goroutine, so they
// must be fast; slow consumers should bridge into their own channel.
func (b *Broadcaster) Subscribe(fn func(model.UploadProgress)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Broadcaster) Publish(p model.UploadProgress) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.subs {
		fn(p)
	}
}
