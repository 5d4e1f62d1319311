package output

import (
	"container/heap"
	"sort"
	"sync"

	"github.com/kestrel-dev/kestrel/pkg/types"
)

// BucketCap is the maximum number of lines retained per OutputKey before the
// oldest line is dropped (spec.md §4.1).
const BucketCap = 8096

// Event is one published line, paired with the bucket it landed in —
// published to every Subscriber after Add, for the optional pkg/remote
// broadcast surface (SPEC_FULL.md §9).
type Event struct {
	Key  types.OutputKey
	Line types.OutputLine
}

// subscriberBuffer bounds how far a slow subscriber can lag before Add
// starts dropping events to it rather than blocking the writer.
const subscriberBuffer = 256

// Store is the bucketed, append-only log every block, task and automation
// writes its output lines into. Indices are globally monotonic across every
// bucket in the store.
type Store struct {
	mu          sync.RWMutex
	nextIndex   types.OutputIndex
	buckets     map[types.OutputKey][]types.OutputLine
	subscribers map[chan Event]struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		buckets:     make(map[types.OutputKey][]types.OutputLine),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives every Event added after this
// call, until Unsubscribe is called with the same channel. A subscriber
// that falls behind has events dropped rather than stalling Add.
func (s *Store) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

// Unsubscribe stops and closes a channel previously returned by Subscribe.
func (s *Store) Unsubscribe(ch chan Event) {
	s.mu.Lock()
	delete(s.subscribers, ch)
	s.mu.Unlock()
	close(ch)
}

// Add appends value to key's bucket with the next monotonic index, dropping
// the oldest line if the bucket is at capacity, then publishes the new line
// to every subscriber.
func (s *Store) Add(key types.OutputKey, value string) types.OutputLine {
	s.mu.Lock()

	s.nextIndex++
	line := types.OutputLine{Value: value, Index: s.nextIndex}

	lines := s.buckets[key]
	lines = append(lines, line)
	if len(lines) > BucketCap {
		lines = lines[len(lines)-BucketCap:]
	}
	s.buckets[key] = lines

	subs := make([]chan Event, 0, len(s.subscribers))
	for ch := range s.subscribers {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	event := Event{Key: key, Line: line}
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}

	return line
}

// BucketCount returns the number of distinct buckets currently populated.
func (s *Store) BucketCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

// cursor walks one bucket's snapshot from a starting position.
type cursor struct {
	lines []types.OutputLine
	pos   int // next index to yield, in the walk direction
}

func (c *cursor) empty(ascending bool) bool {
	if ascending {
		return c.pos >= len(c.lines)
	}
	return c.pos < 0
}

func (c *cursor) peek() types.OutputLine { return c.lines[c.pos] }

func (c *cursor) advance(ascending bool) {
	if ascending {
		c.pos++
	} else {
		c.pos--
	}
}

// cursorHeap is a min-heap (ascending) or max-heap (descending, via
// ascending=false) over each key's cursor, ordered by OutputLine.Index.
type cursorHeap struct {
	cursors   []*cursor
	ascending bool
}

func (h cursorHeap) Len() int { return len(h.cursors) }
func (h cursorHeap) Less(i, j int) bool {
	a, b := h.cursors[i].peek().Index, h.cursors[j].peek().Index
	if h.ascending {
		return a < b
	}
	return a > b
}
func (h cursorHeap) Swap(i, j int) { h.cursors[i], h.cursors[j] = h.cursors[j], h.cursors[i] }
func (h *cursorHeap) Push(x any)   { h.cursors = append(h.cursors, x.(*cursor)) }
func (h *cursorHeap) Pop() any {
	old := h.cursors
	n := len(old)
	item := old[n-1]
	h.cursors = old[:n-1]
	return item
}

// LinesFrom returns up to num lines, ascending by index, across keys,
// starting at the first line in each bucket with index ≥ minIdx (or from the
// start of the bucket if minIdx is nil).
func (s *Store) LinesFrom(num int, minIdx *types.OutputIndex, keys []types.OutputKey) []types.OutputLine {
	return s.merge(num, minIdx, keys, true)
}

// LinesTo returns up to num lines, descending by index then reversed back
// to ascending order, across keys, ending at the last line in each bucket
// with index ≤ maxIdx (or the end of the bucket if maxIdx is nil).
func (s *Store) LinesTo(num int, maxIdx *types.OutputIndex, keys []types.OutputKey) []types.OutputLine {
	return s.merge(num, maxIdx, keys, false)
}

func (s *Store) merge(num int, bound *types.OutputIndex, keys []types.OutputKey, ascending bool) []types.OutputLine {
	if len(keys) == 0 || num <= 0 {
		return nil
	}

	s.mu.RLock()
	snapshots := make([][]types.OutputLine, len(keys))
	for i, k := range keys {
		snapshots[i] = s.buckets[k]
	}
	s.mu.RUnlock()

	h := &cursorHeap{ascending: ascending}
	for _, lines := range snapshots {
		if len(lines) == 0 {
			continue
		}
		pos := startPosition(lines, bound, ascending)
		c := &cursor{lines: lines, pos: pos}
		if !c.empty(ascending) {
			h.cursors = append(h.cursors, c)
		}
	}
	heap.Init(h)

	out := make([]types.OutputLine, 0, num)
	for len(out) < num && h.Len() > 0 {
		c := h.cursors[0]
		out = append(out, c.peek())
		c.advance(ascending)
		if c.empty(ascending) {
			heap.Pop(h)
		} else {
			heap.Fix(h, 0)
		}
	}

	if !ascending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// startPosition binary-searches lines (sorted ascending by Index) for the
// walk's starting position given bound, respecting direction.
func startPosition(lines []types.OutputLine, bound *types.OutputIndex, ascending bool) int {
	if ascending {
		if bound == nil {
			return 0
		}
		return sort.Search(len(lines), func(i int) bool { return lines[i].Index >= *bound })
	}
	if bound == nil {
		return len(lines) - 1
	}
	// last index with Index <= *bound
	i := sort.Search(len(lines), func(i int) bool { return lines[i].Index > *bound })
	return i - 1
}
