// Package lockcell provides a guarded cell for state shared between
// interrupt handlers and the main loop.
package lockcell

// Cell holds one value that is only reachable inside a critical section.
// The zero value is an empty cell; call Init before use.
type Cell[T any] struct {
	cs   section
	v    T
	init bool
}

// Init stores v, replacing any previous value.
func (c *Cell[T]) Init(v T) {
	c.cs.enter()
	c.v = v
	c.init = true
	c.cs.exit()
}

// WithLock runs f on the guarded value and reports whether the cell was
// initialised. f must not block or re-enter the same cell.
func (c *Cell[T]) WithLock(f func(v *T)) bool {
	c.cs.enter()
	defer c.cs.exit()
	if !c.init {
		return false
	}
	f(&c.v)
	return true
}

// Load returns a copy of the value.
func (c *Cell[T]) Load() (T, bool) {
	c.cs.enter()
	defer c.cs.exit()
	return c.v, c.init
}
