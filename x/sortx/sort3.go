// Package sortx holds small fixed-size sorts for hot interrupt paths.
package sortx

import "golang.org/x/exp/constraints"

// Sort3 orders exactly three elements in place using less as a strict
// less-than. At most three comparisons are made. Equal elements may be
// reordered. It panics if len(s) != 3.
func Sort3[T any](s []T, less func(a, b T) bool) {
	if len(s) != 3 {
		panic("sortx: Sort3 needs exactly 3 elements")
	}
	if less(s[1], s[0]) {
		s[0], s[1] = s[1], s[0]
	}
	if less(s[2], s[1]) {
		s[1], s[2] = s[2], s[1]
		if less(s[1], s[0]) {
			s[0], s[1] = s[1], s[0]
		}
	}
}

// Sort3ByKey is Sort3 ordered by key(x).
func Sort3ByKey[T any, K constraints.Ordered](s []T, key func(T) K) {
	Sort3(s, func(a, b T) bool { return key(a) < key(b) })
}
