package backup

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	mu       sync.Mutex
	calls    [][]string
	users    []string
	notified chan struct{}
}

func newCapture() *capture {
	return &capture{notified: make(chan struct{}, 16)}
}

func (c *capture) send(reasons []string, username string) {
	c.mu.Lock()
	c.calls = append(c.calls, reasons)
	c.users = append(c.users, username)
	c.mu.Unlock()
	c.notified <- struct{}{}
}

func (c *capture) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.notified:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier never flushed")
	}
}

func TestNotifierSingleScope(t *testing.T) {
	c := newCapture()
	n := NewNotifier(c.send)

	done := n.Scope("inventory edited", "reza")
	done()
	c.wait(t)

	require.Len(t, c.calls, 1)
	assert.Equal(t, []string{"inventory edited"}, c.calls[0])
	assert.Equal(t, "reza", c.users[0])
}

func TestNotifierNestedScopesFlushOnce(t *testing.T) {
	c := newCapture()
	n := NewNotifier(c.send)

	outer := n.Scope("invoice edited", "reza")
	inner := n.Scope("inventory edited", "")
	dup := n.Scope("invoice edited", "")
	dup()
	inner()

	c.mu.Lock()
	assert.Empty(t, c.calls, "inner scopes must not flush")
	c.mu.Unlock()

	outer()
	c.wait(t)

	require.Len(t, c.calls, 1)
	assert.Equal(t, []string{"invoice edited", "inventory edited"}, c.calls[0],
		"first-seen order, duplicates dropped")
}

func TestNotifierCloseIdempotent(t *testing.T) {
	c := newCapture()
	n := NewNotifier(c.send)

	done := n.Scope("reason", "")
	done()
	done() // second call is a no-op, not a depth underflow
	c.wait(t)

	done2 := n.Scope("another", "")
	done2()
	c.wait(t)

	require.Len(t, c.calls, 2)
	assert.Equal(t, []string{"another"}, c.calls[1])
}

func TestNotifierNoReasonNoFlush(t *testing.T) {
	c := newCapture()
	n := NewNotifier(c.send)

	done := n.Scope("", "")
	done()

	select {
	case <-c.notified:
		t.Fatal("a scope with no reason must not trigger a send")
	case <-time.After(50 * time.Millisecond):
	}
}
