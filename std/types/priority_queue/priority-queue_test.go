package priority_queue_test

import (
	"testing"

	pq "github.com/named-data/kite/std/types/priority_queue"
	"github.com/stretchr/testify/require"
)

func TestQueueOrder(t *testing.T) {
	q := pq.New[string, int64]()
	q.Push("c", 30)
	q.Push("a", 10)
	q.Push("b", 20)

	require.Equal(t, 3, q.Len())
	require.Equal(t, "a", q.Peek())
	require.Equal(t, int64(10), q.PeekPriority())
	require.Equal(t, "a", q.Pop())
	require.Equal(t, "b", q.Pop())
	require.Equal(t, "c", q.Pop())
	require.Equal(t, 0, q.Len())
}

func TestQueueUpdateAndRemove(t *testing.T) {
	q := pq.New[string, int64]()
	a := q.Push("a", 10)
	b := q.Push("b", 20)
	q.Push("c", 30)

	q.UpdatePriority(b, 5)
	require.Equal(t, "b", q.Peek())

	q.Remove(a)
	q.Remove(a)
	require.Equal(t, 2, q.Len())
	require.Equal(t, "b", q.Pop())
	require.Equal(t, "c", q.Pop())

	// popped items are no longer removable
	q.Remove(b)
	require.Equal(t, 0, q.Len())
}
