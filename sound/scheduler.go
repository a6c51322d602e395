package sound

import (
	"container/heap"

	"github.com/ad-engine/soundcore/backend"
)

// cueHeapItem is one entry in a category's priority heap: a handle plus the
// priority/seq needed to order it without resolving the handle on every
// comparison.
type cueHeapItem struct {
	handle Handle[*playingCue]
	priority int
	seq uint64
}

// cueHeap is a binary max-heap on priority value (higher number = less
// urgent, so the least-urgent live cue floats to the top for O(1) peek),
// with insertion order as a tie-break — the same container/heap.Interface
// shape as a max-heap keyed by priority descending with a monotonic
// sequence number for FIFO ties.
type cueHeap []*cueHeapItem

func (h cueHeap) Len() int { return len(h) }
func (h cueHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h cueHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cueHeap) Push(x any) { *h = append(*h, x.(*cueHeapItem)) }

func (h *cueHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// peekLeastUrgent returns the top of the heap without removing it.
func (h cueHeap) peekLeastUrgent() (*cueHeapItem, bool) {
	if len(h) == 0 {
		return nil, false
	}
	return h[0], true
}

// erase removes the item naming handle, wherever it sits in the heap.
func (h *cueHeap) erase(handle Handle[*playingCue]) {
	old := *h
	for i, item := range old {
		if item.handle == handle {
			heap.Remove(h, i)
			return
		}
	}
}

// scheduler owns the fixed voice pool and the per-category priority heaps.
// Engine holds it through a pointer field, not in an arena, since it has
// exactly one instance per Engine.
type scheduler struct {
	voices []backend.VoiceID
	freeVoices []int // stack of indices into voices

	heaps map[string]*cueHeap
	nextSeq uint64
}

func newScheduler(voices []backend.VoiceID) *scheduler {
	s := &scheduler{
		voices: voices,
		heaps: make(map[string]*cueHeap),
	}
	for i := range voices {
		s.freeVoices = append(s.freeVoices, i)
	}
	return s
}

func (s *scheduler) heapFor(category string) *cueHeap {
	h, ok := s.heaps[category]
	if !ok {
		nh := &cueHeap{}
		heap.Init(nh)
		s.heaps[category] = nh
		h = nh
	}
	return h
}

// acquireVoice pops a free voice, or returns ok=false if the pool is empty.
func (s *scheduler) acquireVoice() (backend.VoiceID, int, bool) {
	if len(s.freeVoices) == 0 {
		return 0, -1, false
	}
	n := len(s.freeVoices)
	idx := s.freeVoices[n-1]
	s.freeVoices = s.freeVoices[:n-1]
	return s.voices[idx], idx, true
}

func (s *scheduler) releaseVoice(slot int) {
	s.freeVoices = append(s.freeVoices, slot)
}

// insert adds a newly scheduled cue's handle into its category's heap.
func (s *scheduler) insert(category string, handle Handle[*playingCue], priority int) {
	h := s.heapFor(category)
	s.nextSeq++
	heap.Push(h, &cueHeapItem{handle: handle, priority: priority, seq: s.nextSeq})
}

// remove erases handle from its category's heap.
func (s *scheduler) remove(category string, handle Handle[*playingCue]) {
	h := s.heapFor(category)
	h.erase(handle)
}
