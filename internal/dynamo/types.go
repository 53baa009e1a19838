package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Min returns the smallest entry, or 0 for an empty state.
func (s State) Min() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Min(s)
}

// Buffer holds a quantity at the current (Cur) and next (Next) time level.
type Buffer struct {
	Cur  State
	Next State
}

func NewBuffer(n int) *Buffer {
	return &Buffer{
		Cur:  make(State, n),
		Next: make(State, n),
	}
}

// Fill sets both levels to v.
func (b *Buffer) Fill(v float64) {
	for i := range b.Cur {
		b.Cur[i] = v
		b.Next[i] = v
	}
}

// Swap commits the next level: Next becomes Cur and the old Cur is reused as scratch.
func (b *Buffer) Swap() {
	b.Cur, b.Next = b.Next, b.Cur
}

// Configurable is implemented by parameter sets addressable by name.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// RelChange returns |1 - next/prev|, falling back to |next| when prev is zero.
func RelChange(next, prev float64) float64 {
	if prev == 0 {
		return math.Abs(next)
	}
	return math.Abs(1 - next/prev)
}
