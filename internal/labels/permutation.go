package labels

// Permutation is a seeded pseudo-random bijection over [0, n).
//
// It is a four-round Feistel network over the smallest even-bit domain that
// covers n, with cycle walking to stay inside [0, n). This lets a run visit a
// candidate space in shuffled order without materializing it.
type Permutation struct {
	n        uint64
	halfBits uint
	mask     uint64
	keys     [4]uint64
}

// NewPermutation returns the permutation of [0, n) selected by seed
func NewPermutation(n int64, seed uint64) *Permutation {
	p := &Permutation{n: uint64(n)}
	p.halfBits = 1
	for p.halfBits < 32 && (uint64(1)<<(2*p.halfBits)) < p.n {
		p.halfBits++
	}
	p.mask = (uint64(1) << p.halfBits) - 1
	state := seed
	for i := range p.keys {
		state, p.keys[i] = splitmix64(state)
	}
	return p
}

// Len returns the size of the permuted range
func (p *Permutation) Len() int64 { return int64(p.n) }

// At maps position i to its permuted index
func (p *Permutation) At(i int64) int64 {
	x := uint64(i)
	for {
		x = p.encrypt(x)
		if x < p.n {
			return int64(x)
		}
	}
}

func (p *Permutation) encrypt(x uint64) uint64 {
	l := (x >> p.halfBits) & p.mask
	r := x & p.mask
	for _, k := range p.keys {
		_, f := splitmix64(r ^ k)
		l, r = r, l^(f&p.mask)
	}
	return l<<p.halfBits | r
}

// splitmix64 advances state and returns the next mixed output
func splitmix64(state uint64) (next, out uint64) {
	next = state + 0x9e3779b97f4a7c15
	z := next
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return next, z ^ (z >> 31)
}
