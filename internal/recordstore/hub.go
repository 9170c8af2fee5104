package recordstore

import (
	"context"
	"sync"

	"github.com/angelmondragon/foodorder-backend/pkg/logger"
)

// Unsubscribe stops a subscription. It blocks while a callback is running and
// guarantees no callback runs after it returns. It must not be called from
// inside that subscription's callback.
type Unsubscribe func()

type loader func(ctx context.Context, path string) (Snapshot, error)

// hub fans change notifications out to subscriptions in this process.
type hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscription
	load   loader
	logg   *logger.Logger
}

type subscription struct {
	path    string
	fn      func(Snapshot)
	pending chan struct{}
	stop    chan struct{}
	once    sync.Once

	cbMu   sync.Mutex
	closed bool
}

func newHub(load loader, logg *logger.Logger) *hub {
	return &hub{subs: make(map[uint64]*subscription), load: load, logg: logg}
}

func (h *hub) subscribe(ctx context.Context, path string, fn func(Snapshot)) Unsubscribe {
	sub := &subscription{
		path:    path,
		fn:      fn,
		pending: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
	sub.pending <- struct{}{}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	unsubscribe := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()

			sub.cbMu.Lock()
			sub.closed = true
			sub.cbMu.Unlock()
			close(sub.stop)
		})
	}

	go h.run(ctx, sub, unsubscribe)
	return unsubscribe
}

// publish marks every subscription covering path as pending. Pending signals
// coalesce so a slow subscriber only sees the latest state.
func (h *hub) publish(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if !covers(sub.path, path) {
			continue
		}
		select {
		case sub.pending <- struct{}{}:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *hub) run(ctx context.Context, sub *subscription, unsubscribe Unsubscribe) {
	for {
		select {
		case <-ctx.Done():
			unsubscribe()
			return
		case <-sub.stop:
			return
		case <-sub.pending:
		}

		snap, err := h.load(ctx, sub.path)
		if err != nil {
			if h.logg != nil && ctx.Err() == nil {
				h.logg.Error(h.logg.WithField(ctx, "record_path", sub.path), "recordstore.snapshot_failed", err)
			}
			continue
		}

		sub.cbMu.Lock()
		if !sub.closed {
			sub.fn(snap)
		}
		sub.cbMu.Unlock()
	}
}
