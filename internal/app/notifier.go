package app

import "sync"

// Notifier fans session snapshots out to subscribers. It is constructed once
// per process and shared by the components that publish or watch sessions.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[chan SessionView]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[chan SessionView]struct{})}
}

// Subscribe registers for updates of one session. The caller must invoke the
// returned cancel function to avoid leaks.
func (n *Notifier) Subscribe(sessionID string) (<-chan SessionView, func()) {
	ch := make(chan SessionView, 8)

	n.mu.Lock()
	set, ok := n.subs[sessionID]
	if !ok {
		set = make(map[chan SessionView]struct{})
		n.subs[sessionID] = set
	}
	set[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		set, ok := n.subs[sessionID]
		if !ok {
			return
		}
		if _, ok := set[ch]; ok {
			delete(set, ch)
			close(ch)
		}
		if len(set) == 0 {
			delete(n.subs, sessionID)
		}
	}
	return ch, cancel
}

// Publish delivers view to every subscriber of its session. A full
// subscriber loses its oldest pending update rather than blocking.
func (n *Notifier) Publish(view SessionView) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[view.ID] {
		select {
		case ch <- view:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
}

// Close ends every subscription of a session.
func (n *Notifier) Close(sessionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[sessionID] {
		close(ch)
	}
	delete(n.subs, sessionID)
}
