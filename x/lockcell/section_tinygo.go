//go:build tinygo

package lockcell

import "runtime/interrupt"

// section masks interrupts for its duration. Nesting distinct cells is fine:
// each saves and restores the mask it found.
type section struct{ state interrupt.State }

func (s *section) enter() { s.state = interrupt.Disable() }
func (s *section) exit()  { interrupt.Restore(s.state) }
