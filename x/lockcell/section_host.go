//go:build !tinygo

package lockcell

import "sync"

type section struct{ mu sync.Mutex }

func (s *section) enter() { s.mu.Lock() }
func (s *section) exit()  { s.mu.Unlock() }
