package systems

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// ErrNumericDegeneracy is returned when a buffer holds a value outside the
// field or agent invariants (non-finite, negative, above saturation).
var ErrNumericDegeneracy = errors.New("numeric degeneracy")

// TrailField is a toroidal W x H grid of C float32 channels.
//
// Two full buffers alternate between the committed ("current") and the
// write target of relaxation ("scratch"). Agent deposits for the tick in
// flight accumulate in a separate pending layer so the committed buffer is
// never touched until Swap.
type TrailField struct {
	W, H, C    int
	Saturation float32

	buf [2][]float32
	cur int

	// Float32 bit patterns, updated with CAS.
	pending []uint32
}

// NewTrailField allocates a zeroed field.
func NewTrailField(w, h, c int, saturation float32) *TrailField {
	n := w * h * c
	return &TrailField{
		W: w, H: h, C: c,
		Saturation: saturation,
		buf:        [2][]float32{make([]float32, n), make([]float32, n)},
		pending:    make([]uint32, n),
	}
}

// Index returns the flat buffer offset of channel c at cell (x, y).
func (f *TrailField) Index(x, y, c int) int {
	return (y*f.W+x)*f.C + c
}

// Current returns the committed buffer. Callers must not modify it.
func (f *TrailField) Current() []float32 { return f.buf[f.cur] }

// Scratch returns the buffer relaxation writes into.
func (f *TrailField) Scratch() []float32 { return f.buf[1-f.cur] }

// Deposit adds amount to the pending layer at flat offset i.
// Safe for concurrent use by agent workers.
func (f *TrailField) Deposit(i int, amount float32) {
	p := &f.pending[i]
	for {
		old := atomic.LoadUint32(p)
		next := math.Float32bits(math.Float32frombits(old) + amount)
		if atomic.CompareAndSwapUint32(p, old, next) {
			return
		}
	}
}

// Pending returns the accumulated deposit at flat offset i.
func (f *TrailField) Pending(i int) float32 {
	return math.Float32frombits(atomic.LoadUint32(&f.pending[i]))
}

// pendingBits exposes the raw pending layer to relaxation, which runs
// strictly after the agent barrier.
func (f *TrailField) pendingBits() []uint32 { return f.pending }

// Swap commits the scratch buffer and clears the pending layer.
func (f *TrailField) Swap() {
	f.cur = 1 - f.cur
	f.DiscardPending()
}

// DiscardPending drops every deposit accumulated for the tick in flight.
func (f *TrailField) DiscardPending() {
	clear(f.pending)
}

// Reset zeroes every buffer.
func (f *TrailField) Reset() {
	clear(f.buf[0])
	clear(f.buf[1])
	clear(f.pending)
	f.cur = 0
}

// Release drops the buffers. The field is unusable afterwards.
func (f *TrailField) Release() {
	f.buf = [2][]float32{}
	f.pending = nil
}

// Released reports whether Release was called.
func (f *TrailField) Released() bool { return f.buf[0] == nil }

// View returns a read-only view of the committed buffer.
func (f *TrailField) View() FieldView {
	return FieldView{w: f.W, h: f.H, c: f.C, data: f.buf[f.cur]}
}

// Validate scans the committed buffer for non-finite, negative or
// saturated-beyond-bound values.
func (f *TrailField) Validate() error {
	for i, v := range f.buf[f.cur] {
		if !finite32(v) || v < 0 || v > f.Saturation {
			cell := i / f.C
			return fmt.Errorf("%w: field value %v at (%d,%d) channel %d",
				ErrNumericDegeneracy, v, cell%f.W, cell/f.W, i%f.C)
		}
	}
	return nil
}

// FieldView is a read-only window onto a committed trail buffer.
type FieldView struct {
	w, h, c int
	data    []float32
}

// NewFieldView wraps an interleaved buffer of w*h*c values.
func NewFieldView(w, h, c int, data []float32) FieldView {
	return FieldView{w: w, h: h, c: c, data: data}
}

func (v FieldView) Width() int    { return v.w }
func (v FieldView) Height() int   { return v.h }
func (v FieldView) Channels() int { return v.c }

// Empty reports whether the view has no backing data.
func (v FieldView) Empty() bool { return len(v.data) == 0 }

// At returns channel c at cell (x, y), wrapping coordinates.
func (v FieldView) At(x, y, c int) float32 {
	x = modInt(x, v.w)
	y = modInt(y, v.h)
	return v.data[(y*v.w+x)*v.c+c]
}

// Values returns the interleaved backing slice. It aliases simulation
// memory and must not be modified; it stays valid until the next Step.
func (v FieldView) Values() []float32 { return v.data }

// CopyTo copies the view into dst, growing it if needed.
func (v FieldView) CopyTo(dst []float32) []float32 {
	if cap(dst) < len(v.data) {
		dst = make([]float32, len(v.data))
	}
	dst = dst[:len(v.data)]
	copy(dst, v.data)
	return dst
}

// Sum returns the total of channel c across all cells.
func (v FieldView) Sum(c int) float64 {
	var s float64
	for i := c; i < len(v.data); i += v.c {
		s += float64(v.data[i])
	}
	return s
}

// Mass returns the total of every channel across all cells.
func (v FieldView) Mass() float64 {
	var s float64
	for _, x := range v.data {
		s += float64(x)
	}
	return s
}

// Max returns the largest value of channel c.
func (v FieldView) Max(c int) float32 {
	var m float32
	for i := c; i < len(v.data); i += v.c {
		if v.data[i] > m {
			m = v.data[i]
		}
	}
	return m
}
