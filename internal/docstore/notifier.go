package docstore

import "sync"

// notifier fans out committed snapshots to watchers of a session.
// Each watcher has a buffered channel of one; if the watcher lags, the stale
// pending snapshot is replaced by the newest. That keeps delivery
// at-least-once for the latest state without blocking committers.
type notifier struct {
	mu       sync.Mutex
	watchers map[string]map[int]chan Snapshot
	nextID   int
}

func newNotifier() *notifier {
	return &notifier{watchers: make(map[string]map[int]chan Snapshot)}
}

func (n *notifier) watch(id string) (<-chan Snapshot, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.watchers[id] == nil {
		n.watchers[id] = make(map[int]chan Snapshot)
	}
	wid := n.nextID
	n.nextID++
	ch := make(chan Snapshot, 1)
	n.watchers[id][wid] = ch
	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if set, ok := n.watchers[id]; ok {
			if c, ok := set[wid]; ok {
				delete(set, wid)
				close(c)
			}
			if len(set) == 0 {
				delete(n.watchers, id)
			}
		}
	}
	return ch, cancel
}

func (n *notifier) publish(id string, snap Snapshot) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.watchers[id] {
		select {
		case ch <- snap:
		default:
			// Drop the stale pending snapshot, keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
