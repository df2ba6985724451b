package lock

import (
	"container/heap"
	"time"

	"github.com/jathurchan/lockd/types"
)

// timeoutRecord is one pending expiration: the lock acquired at deadline-T
// by identity on key, to be reaped if still held when its deadline passes.
type timeoutRecord struct {
	key      string
	identity types.Identity
	deadline time.Time
}

// expirationHeap is a container/heap.Interface min-heap ordered by deadline,
// giving the reaper O(log n) access to the next lock due to expire.
type expirationHeap []timeoutRecord

func (h expirationHeap) Len() int            { return len(h) }
func (h expirationHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h expirationHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expirationHeap) Push(x any)         { *h = append(*h, x.(timeoutRecord)) }
func (h *expirationHeap) Pop() any {
	old := *h
	n := len(old)
	rec := old[n-1]
	*h = old[:n-1]
	return rec
}

var _ heap.Interface = (*expirationHeap)(nil)
