package words

// Scramble returns the letters of word in random order.
//
// Every position i, from first to last, is swapped with a position drawn
// uniformly from [0, len). The result always holds the same letters as word
// and may happen to equal it.
func Scramble(word string, src Source) string {
	rs := []rune(word)
	n := len(rs)
	for i := 0; i < n; i++ {
		j := src.Intn(n)
		rs[i], rs[j] = rs[j], rs[i]
	}
	return string(rs)
}

// IsPermutation reports whether a and b contain the same multiset of letters.
func IsPermutation(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return false
	}
	counts := make(map[rune]int, len(ra))
	for _, r := range ra {
		counts[r]++
	}
	for _, r := range rb {
		counts[r]--
		if counts[r] < 0 {
			return false
		}
	}
	return true
}
