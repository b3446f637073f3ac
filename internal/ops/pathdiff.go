package ops

import "strings"

// minMatchLen is the shortest common run treated as meaningful
// alignment between src and dst. Runs shorter than this (typically a
// single coincidentally shared letter inside two otherwise-different
// words) are folded into the surrounding differing block instead of
// fragmenting it.
const minMatchLen = 2

// InlinePathDiff renders a compact "src -> dst" style line for a
// move/rename: common runs are kept literal and each differing run is
// braced as "{old -> new}". Multiple non-adjacent differing runs each
// get their own braces, e.g. "{a -> b}/shelf/{laptop -> notebook}.1".
func InlinePathDiff(src, dst string) string {
	if src == dst {
		return src
	}
	var sb strings.Builder
	for _, blk := range diffBlocks([]rune(src), []rune(dst)) {
		if blk.equal {
			sb.WriteString(string(blk.a))
		} else {
			sb.WriteString("{" + string(blk.a) + " -> " + string(blk.b) + "}")
		}
	}
	return sb.String()
}

type diffBlock struct {
	equal bool
	a, b  []rune
}

// diffBlocks recursively splits (a, b) on their longest common
// substring, the same strategy difflib.SequenceMatcher uses, yielding
// an ordered sequence of equal/differing runs.
func diffBlocks(a, b []rune) []diffBlock {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	if string(a) == string(b) {
		return []diffBlock{{equal: true, a: a, b: b}}
	}
	i, j, l := longestCommonSubstring(a, b)
	if l < minMatchLen {
		return []diffBlock{{equal: false, a: a, b: b}}
	}
	var out []diffBlock
	out = append(out, diffBlocks(a[:i], b[:j])...)
	out = append(out, diffBlock{equal: true, a: a[i : i+l], b: b[j : j+l]})
	out = append(out, diffBlocks(a[i+l:], b[j+l:])...)
	return out
}

// longestCommonSubstring returns the start indices and length of the
// first-occurring longest contiguous run shared by a and b (0,0,0 if
// none), via the standard O(len(a)*len(b)) DP table.
func longestCommonSubstring(a, b []rune) (int, int, int) {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return 0, 0, 0
	}
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	bestLen, bestI, bestJ := 0, 0, 0
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestLen {
					bestLen = curr[j]
					bestI = i - bestLen
					bestJ = j - bestLen
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return bestI, bestJ, bestLen
}
