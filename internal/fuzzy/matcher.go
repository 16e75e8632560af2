package fuzzy

import "sort"

// DefaultCloseMatchThreshold is the similarity above which two names are
// considered the same thing for IsCloseMatch.
const DefaultCloseMatchThreshold = 0.8

// Match is a scored candidate.
type Match struct {
	Candidate string
	Score     float64
}

// Similarity returns a score in [0,1] for how alike a and b are once both
// are normalized. It is the ratio 2*M/T where M is the number of characters
// covered by the longest matching blocks and T the total length of both
// strings.
func Similarity(a, b string) float64 {
	na := []rune(Normalize(a))
	nb := []rune(Normalize(b))

	if len(na) == 0 && len(nb) == 0 {
		return 1.0
	}
	if len(na) == 0 || len(nb) == 0 {
		return 0.0
	}

	// The block search is order sensitive; scoring both directions keeps the
	// result symmetric.
	forward := ratio(na, nb)
	backward := ratio(nb, na)
	if backward > forward {
		return backward
	}
	return forward
}

// BestMatch returns the highest scoring candidate at or above minSimilarity.
// Ties keep the earliest candidate.
func BestMatch(target string, candidates []string, minSimilarity float64) (Match, bool) {
	var (
		best  Match
		found bool
	)

	for _, candidate := range candidates {
		score := Similarity(target, candidate)
		if score < minSimilarity {
			continue
		}
		if !found || score > best.Score {
			best = Match{Candidate: candidate, Score: score}
			found = true
		}
	}

	return best, found
}

// BestMatches returns up to maxResults candidates scoring at or above
// minSimilarity, highest first. A non-positive maxResults means no limit.
func BestMatches(target string, candidates []string, minSimilarity float64, maxResults int) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		score := Similarity(target, candidate)
		if score >= minSimilarity {
			matches = append(matches, Match{Candidate: candidate, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	return matches
}

// IsCloseMatch reports whether a and b score at or above threshold.
func IsCloseMatch(a, b string, threshold float64) bool {
	return Similarity(a, b) >= threshold
}

// ratio computes 2*M/T over the matching blocks of a against b.
func ratio(a, b []rune) float64 {
	index := make(map[rune][]int, len(b))
	for j, r := range b {
		index[r] = append(index[r], j)
	}

	matched := 0
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, index, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k

		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}

	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

// longestMatch finds the longest common block of a[alo:ahi] and b[blo:bhi].
// Among equally long blocks the one starting earliest in a wins, then the
// one starting earliest in b.
func longestMatch(a []rune, index map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestSize := alo, blo, 0
	runLen := map[int]int{}

	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range index[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := runLen[j-1] + 1
			next[j] = k
			if k > bestSize {
				besti, bestj, bestSize = i-k+1, j-k+1, k
			}
		}
		runLen = next
	}

	return besti, bestj, bestSize
}
