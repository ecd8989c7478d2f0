package FD3D

import "fmt"

/*
TimeFunction holds TimeOrder+1 time levels of a Field in a ring. For the
second order scheme the logical levels are Backward, Current and
Forward. Logical level l (0 is the oldest, TimeOrder is Forward) lives
in physical slot (rotations + l) mod (TimeOrder+1), so rotating only
advances the counter.
*/
type TimeFunction[T Real] struct {
	Name      string
	TimeOrder int
	buffers   []*Field[T]
	rotations int
}

type FieldSnapshot[T Real] struct {
	Step int
	Data []T
}

func NewTimeFunction[T Real](name string, g *Grid, spaceOrder, timeOrder int) (tf *TimeFunction[T], err error) {
	if timeOrder < 1 {
		err = fmt.Errorf("%w: time order %d for %s must be >= 1", ErrInvalidDimension, timeOrder, name)
		return
	}
	tf = &TimeFunction[T]{
		Name:      name,
		TimeOrder: timeOrder,
		buffers:   make([]*Field[T], timeOrder+1),
	}
	for n := range tf.buffers {
		if tf.buffers[n], err = NewField[T](fmt.Sprintf("%s[%d]", name, n), g, spaceOrder,
			[3]Staggering{}); err != nil {
			tf = nil
			return
		}
	}
	return
}

func (tf *TimeFunction[T]) slot(level int) int {
	nb := tf.TimeOrder + 1
	return ((tf.rotations+level)%nb + nb) % nb
}

// Level returns the buffer at a time offset relative to Current, from -(TimeOrder-1) up to +1
func (tf *TimeFunction[T]) Level(offset int) *Field[T] {
	if offset > 1 || offset < 1-tf.TimeOrder {
		panic(fmt.Sprintf("time offset %d out of range for time order %d", offset, tf.TimeOrder))
	}
	return tf.buffers[tf.slot(offset+tf.TimeOrder-1)]
}

func (tf *TimeFunction[T]) Forward() *Field[T]  { return tf.Level(1) }
func (tf *TimeFunction[T]) Current() *Field[T]  { return tf.Level(0) }
func (tf *TimeFunction[T]) Backward() *Field[T] { return tf.Level(-1) }

// Rotate makes Current the new Backward and Forward the new Current
func (tf *TimeFunction[T]) Rotate() { tf.rotations++ }

func (tf *TimeFunction[T]) Rotations() int { return tf.rotations }

func (tf *TimeFunction[T]) Buffers() []*Field[T] { return tf.buffers }

func (tf *TimeFunction[T]) Fill(val T) {
	for _, f := range tf.buffers {
		f.Fill(val)
	}
}

// Snapshot copies the Current level, tagged with the number of completed steps
func (tf *TimeFunction[T]) Snapshot() FieldSnapshot[T] {
	return FieldSnapshot[T]{
		Step: tf.rotations,
		Data: tf.Current().Snapshot(),
	}
}
