package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type log struct{ fired []string }

func (l *log) add(name string) Action[*log] {
	return func(ctx *log) { ctx.fired = append(ctx.fired, name) }
}

func TestQueueFiresInDeadlineOrder(t *testing.T) {
	q := NewQueue[*log]()
	l := &log{}
	q.Schedule(30*time.Millisecond, l.add("c"))
	q.Schedule(10*time.Millisecond, l.add("a"))
	q.Schedule(20*time.Millisecond, l.add("b"))

	assert.Equal(t, 0, q.Advance(5*time.Millisecond, l))
	assert.Equal(t, 2, q.Advance(15*time.Millisecond, l))
	assert.Equal(t, []string{"a", "b"}, l.fired)
	assert.Equal(t, 1, q.Pending())

	q.Advance(time.Second, l)
	assert.Equal(t, []string{"a", "b", "c"}, l.fired)
	assert.Equal(t, 0, q.Pending())
}

func TestQueueTiesFireInInsertionOrder(t *testing.T) {
	q := NewQueue[*log]()
	l := &log{}
	for _, name := range []string{"first", "second", "third"} {
		q.Schedule(10*time.Second, l.add(name))
	}
	q.Advance(10*time.Second, l)
	assert.Equal(t, []string{"first", "second", "third"}, l.fired)
}

func TestQueueFiresNoEarlierThanDelay(t *testing.T) {
	q := NewQueue[*log]()
	l := &log{}
	q.Advance(3*time.Second, l)
	q.Schedule(10*time.Second, l.add("x"))

	for i := 0; i < 999; i++ {
		q.Advance(10*time.Millisecond, l)
	}
	assert.Empty(t, l.fired, "9.99s after scheduling")
	q.Advance(10*time.Millisecond, l)
	assert.Equal(t, []string{"x"}, l.fired)
}

func TestQueueDefersActionsScheduledWhileFiring(t *testing.T) {
	q := NewQueue[*log]()
	l := &log{}
	q.Schedule(0, func(ctx *log) {
		ctx.fired = append(ctx.fired, "outer")
		q.Schedule(0, l.add("inner"))
	})

	assert.Equal(t, 1, q.Advance(time.Millisecond, l))
	assert.Equal(t, []string{"outer"}, l.fired)
	assert.Equal(t, 1, q.Advance(time.Millisecond, l))
	assert.Equal(t, []string{"outer", "inner"}, l.fired)
}

func TestQueueNegativeDelay(t *testing.T) {
	q := NewQueue[*log]()
	l := &log{}
	q.Schedule(-time.Second, l.add("now"))
	assert.Equal(t, 1, q.Advance(0, l))
}
