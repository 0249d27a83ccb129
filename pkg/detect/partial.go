// CLAUDE:SUMMARY Partial-ratio fuzzy similarity: best normalized-Indel alignment of a short term against every window of a longer text.
package detect

import "math/bits"

// PartialRatio scores how well the shorter of a and b aligns with its best
// window in the longer one, in [0,100]. Each window w is scored
// 100*2*LCS(short, w)/(len(short)+len(w)); windows are every full-length
// substring plus the partial prefixes and suffixes of the longer string.
// Empty input scores 0.
func PartialRatio(a, b string) float64 {
	return partialRatio([]rune(a), []rune(b))
}

func partialRatio(s1, s2 []rune) float64 {
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}
	best := bestAlignment(s1, s2)
	if len(s1) == len(s2) && best < 100 {
		if r := bestAlignment(s2, s1); r > best {
			best = r
		}
	}
	return best
}

// bestAlignment slides needle over hay; len(needle) <= len(hay).
func bestAlignment(needle, hay []rune) float64 {
	m, n := len(needle), len(hay)
	lcs := lcsFunc(needle)

	best := 0.0
	score := func(w []rune) bool {
		r := 100 * float64(2*lcs(w)) / float64(m+len(w))
		if r > best {
			best = r
		}
		return best >= 100
	}

	for i := 1; i < m; i++ {
		if score(hay[:i]) {
			return best
		}
	}
	for i := 0; i <= n-m; i++ {
		if score(hay[i : i+m]) {
			return best
		}
	}
	for i := n - m + 1; i < n; i++ {
		if score(hay[i:]) {
			return best
		}
	}
	return best
}

// lcsFunc returns a function computing LCS(needle, w) with the bit-parallel
// algorithm (Hyyrö), one 64-bit word per 64 runes of needle. Carries
// propagate between words, so long needles cost O(len(w)*blocks).
func lcsFunc(needle []rune) func([]rune) int {
	pm := newPatternMask(needle)
	blocks := pm.blocks
	last := ^uint64(0)
	if r := len(needle) % 64; r != 0 {
		last = (uint64(1) << r) - 1
	}
	s := make([]uint64, blocks)
	return func(w []rune) int {
		for k := range s {
			s[k] = ^uint64(0)
		}
		for _, c := range w {
			m := pm.get(c)
			var carry uint64
			for k := range s {
				u := s[k] & m[k]
				sum, cout := bits.Add64(s[k], u, carry)
				carry = cout
				s[k] = sum | (s[k] - u)
			}
		}
		n := 0
		for k := 0; k < blocks-1; k++ {
			n += bits.OnesCount64(^s[k])
		}
		return n + bits.OnesCount64(^s[blocks-1]&last)
	}
}

// patternMask holds, per rune, the positions where it occurs in the needle
// as a little-endian bitset of blocks words.
type patternMask struct {
	blocks int
	ascii  []uint64 // 128*blocks, indexed c*blocks+k
	other  map[rune][]uint64
	none   []uint64
}

func newPatternMask(needle []rune) *patternMask {
	blocks := max(1, (len(needle)+63)/64)
	pm := &patternMask{
		blocks: blocks,
		ascii:  make([]uint64, 128*blocks),
		none:   make([]uint64, blocks),
	}
	for i, c := range needle {
		k, bit := i/64, uint64(1)<<(i%64)
		if c >= 0 && c < 128 {
			pm.ascii[int(c)*blocks+k] |= bit
			continue
		}
		if pm.other == nil {
			pm.other = make(map[rune][]uint64)
		}
		v, ok := pm.other[c]
		if !ok {
			v = make([]uint64, blocks)
			pm.other[c] = v
		}
		v[k] |= bit
	}
	return pm
}

func (pm *patternMask) get(c rune) []uint64 {
	if c >= 0 && c < 128 {
		i := int(c) * pm.blocks
		return pm.ascii[i : i+pm.blocks]
	}
	if v, ok := pm.other[c]; ok {
		return v
	}
	return pm.none
}

func lcsDP(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
