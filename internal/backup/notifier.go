// Package backup ships snapshots of the ledger database and the inventory
// file to a messenger channel, and restores from the latest one.
package backup

import "sync"

// SendFunc receives the coalesced reasons and the acting username when a
// notification scope closes.
type SendFunc func(reasons []string, username string)

// Notifier batches backup triggers. Operations open a scope naming why a
// backup is warranted; nested scopes only add their reason, and the send
// fires once when the outermost scope closes, with every reason collected
// along the way. Sends run on their own goroutine so request handling never
// waits on the network.
type Notifier struct {
	mu       sync.Mutex
	depth    int
	reasons  []string
	seen     map[string]bool
	username string
	send     SendFunc
}

func NewNotifier(send SendFunc) *Notifier {
	return &Notifier{send: send, seen: map[string]bool{}}
}

// Scope registers a reason and returns the close function. Callers defer the
// returned func; the reason set keeps first-seen order with duplicates
// dropped.
func (n *Notifier) Scope(reason, username string) func() {
	n.mu.Lock()
	n.depth++
	if reason != "" && !n.seen[reason] {
		n.seen[reason] = true
		n.reasons = append(n.reasons, reason)
	}
	if username != "" {
		n.username = username
	}
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(n.close)
	}
}

func (n *Notifier) close() {
	n.mu.Lock()
	n.depth--
	if n.depth > 0 || len(n.reasons) == 0 {
		n.mu.Unlock()
		return
	}
	reasons := n.reasons
	username := n.username
	n.reasons = nil
	n.seen = map[string]bool{}
	n.username = ""
	send := n.send
	n.mu.Unlock()

	if send != nil {
		go send(reasons, username)
	}
}
