package extract

// claimed marks byte offsets of the input already owned by an accepted match
type claimed []uint64

func newClaimed(n int) claimed {
	return make(claimed, (n+63)/64)
}

// any reports whether any offset in [start, end) is claimed
func (c claimed) any(start, end int) bool {
	for i := start; i < end; i++ {
		if c[i>>6]&(1<<(uint(i)&63)) != 0 {
			return true
		}
	}
	return false
}

// claim marks every offset in [start, end)
func (c claimed) claim(start, end int) {
	for i := start; i < end; i++ {
		c[i>>6] |= 1 << (uint(i) & 63)
	}
}
