// Package conv formats numbers into caller-supplied buffers without fmt or
// strconv, for MCU log lines.
package conv

// AppendUint appends the base-10 digits of n.
func AppendUint(dst []byte, n uint64) []byte {
	var tmp [20]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte('0' + n%10)
		n /= 10
		if n == 0 {
			break
		}
	}
	return append(dst, tmp[i:]...)
}

// AppendInt appends n in base 10 with a leading '-' when negative.
func AppendInt(dst []byte, n int64) []byte {
	if n < 0 {
		// -n overflows for MinInt64; uint64 conversion of the negation does not.
		return AppendUint(append(dst, '-'), uint64(-(n+1))+1)
	}
	return AppendUint(dst, uint64(n))
}

// AppendFixed appends v with exactly decimals fractional digits, rounded
// half away from zero. decimals is capped at 6. NaN and infinities are
// written as "nan", "+inf" and "-inf".
func AppendFixed(dst []byte, v float64, decimals int) []byte {
	switch {
	case v != v:
		return append(dst, "nan"...)
	case v > 1.8e19:
		return append(dst, "+inf"...)
	case v < -1.8e19:
		return append(dst, "-inf"...)
	}
	if decimals < 0 {
		decimals = 0
	}
	if decimals > 6 {
		decimals = 6
	}
	if v < 0 {
		dst = append(dst, '-')
		v = -v
	}
	scale := uint64(1)
	for i := 0; i < decimals; i++ {
		scale *= 10
	}
	n := uint64(v*float64(scale) + 0.5)
	dst = AppendUint(dst, n/scale)
	if decimals == 0 {
		return dst
	}
	dst = append(dst, '.')
	frac := n % scale
	for div := scale / 10; div > 0; div /= 10 {
		dst = append(dst, byte('0'+frac/div%10))
	}
	return dst
}
