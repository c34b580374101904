package words

import "lukechampine.com/frand"

// Source supplies uniformly distributed integers in [0, n).
// Implementations may panic when n <= 0; callers never pass such n.
type Source interface {
	Intn(n int) int
}

type systemSource struct{}

func (systemSource) Intn(n int) int { return frand.Intn(n) }

// SystemSource draws from the process-wide CSPRNG. Safe for concurrent use.
func SystemSource() Source { return systemSource{} }

// NewSeededSource returns a deterministic source. Equal seeds produce equal
// sequences. Seeds longer than 32 bytes are truncated and shorter ones are
// zero-padded. Not safe for concurrent use.
func NewSeededSource(seed []byte) Source {
	var key [32]byte
	copy(key[:], seed)
	return frand.NewCustom(key[:], 1024, 12)
}
