package usecase

import (
	"sync"

	"influencer-agent/internal/domain"
)

const DefaultWindowSize = 5

// Window keeps the most recent conversation turns, oldest first. Adding past
// capacity evicts the oldest turn.
type Window struct {
	mu       sync.Mutex
	capacity int
	turns    []domain.Turn
}

// NewWindow returns a Window holding at most capacity turns. A capacity below
// one uses DefaultWindowSize.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = DefaultWindowSize
	}
	return &Window{capacity: capacity}
}

func (w *Window) Add(turn domain.Turn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = append(w.turns, turn)
	if over := len(w.turns) - w.capacity; over > 0 {
		w.turns = append([]domain.Turn(nil), w.turns[over:]...)
	}
}

// Turns returns a copy of the retained turns, oldest first.
func (w *Window) Turns() []domain.Turn {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]domain.Turn(nil), w.turns...)
}

func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

func (w *Window) Capacity() int {
	return w.capacity
}

func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = nil
}
