package matcher

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// ratio is a simple string-similarity score in 0..100, built on top of the
// Wagner-Fischer edit distance smetrics provides (the pack carries no
// ready-made fuzzy-ratio library). It approximates the "simple ratio" the
// token-set and partial ratios are composed from.
func ratio(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	dist := smetrics.WagnerFischer(a, b, 1, 1, 1)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	score := 100 - (dist*100)/maxLen
	if score < 0 {
		score = 0
	}
	return score
}

// partialRatio slides the shorter string across the longer one and returns
// the best ratio found, the way fuzzywuzzy's partial_ratio does.
func partialRatio(a, b string) int {
	shorter, longer := a, b
	if len(a) > len(b) {
		shorter, longer = b, a
	}
	if shorter == "" {
		return ratio(a, b)
	}
	best := 0
	n := len(shorter)
	for i := 0; i+n <= len(longer); i++ {
		if s := ratio(shorter, longer[i:i+n]); s > best {
			best = s
		}
	}
	if best == 0 && len(longer) < n {
		return ratio(a, b)
	}
	return best
}

// tokenize splits on whitespace. Callers are expected to have already run
// script.Normalize on their inputs; tokenize only splits.
func tokenize(s string) []string {
	return strings.Fields(s)
}

// sortedJoin sorts tokens alphabetically (duplicates kept) and joins them
// with a single space, the representation token_sort/token_set ratios
// compare.
func sortedJoin(tokens []string) string {
	cp := append([]string(nil), tokens...)
	sort.Strings(cp)
	return strings.Join(cp, " ")
}

func uniqueSorted(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, t := range tokens {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

func setDiff(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, t := range b {
		inB[t] = struct{}{}
	}
	var out []string
	for _, t := range a {
		if _, ok := inB[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func intersect(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, t := range b {
		inB[t] = struct{}{}
	}
	var out []string
	for _, t := range a {
		if _, ok := inB[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// tokenSetRatio is fuzzywuzzy's token_set_ratio: tokenise both strings,
// split into the shared intersection and each side's unique remainder, and
// take the best ratio among the three recombinations. Order-independent
// and robust to one string being a superset of the other's words.
func tokenSetRatio(a, b string) int {
	ta := uniqueSorted(tokenize(a))
	tb := uniqueSorted(tokenize(b))

	common := intersect(ta, tb)
	onlyA := setDiff(ta, common)
	onlyB := setDiff(tb, common)

	t0 := sortedJoin(common)
	t1 := strings.TrimSpace(t0 + " " + sortedJoin(onlyA))
	t2 := strings.TrimSpace(t0 + " " + sortedJoin(onlyB))

	best := ratio(t0, t1)
	if s := ratio(t0, t2); s > best {
		best = s
	}
	if s := ratio(t1, t2); s > best {
		best = s
	}
	return best
}

// partialTokenSortRatio sorts each string's tokens alphabetically, then
// runs partialRatio over the two normalised strings, as
// fuzz.partial_token_sort_ratio does.
func partialTokenSortRatio(a, b string) int {
	sa := sortedJoin(tokenize(a))
	sb := sortedJoin(tokenize(b))
	return partialRatio(sa, sb)
}
