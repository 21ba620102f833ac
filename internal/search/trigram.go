package search

import (
	"cmp"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// minCoverage is the share of a query word's trigrams a title must contain.
const minCoverage = 0.4

type gramSet map[string]struct{}

// Match is a hit in a TitleIndex, best first when returned by Search.
type Match struct {
	Index int
	Score float64
}

// TitleIndex matches free-text queries against a fixed list of titles.
// Every query word has to match; long words match by trigram coverage,
// one and two letter words by substring.
type TitleIndex struct {
	folded []string
	grams  []gramSet
}

// NewTitleIndex indexes titles in order; Match.Index refers to that order.
func NewTitleIndex(titles []string) *TitleIndex {
	idx := &TitleIndex{
		folded: make([]string, len(titles)),
		grams:  make([]gramSet, len(titles)),
	}
	for i, title := range titles {
		idx.folded[i] = foldTitle(title)
		idx.grams[i] = trigrams(idx.folded[i])
	}
	return idx
}

// Len returns the number of titles.
func (idx *TitleIndex) Len() int {
	return len(idx.folded)
}

// Search scores every title against query. A blank query matches all
// titles with score 0. Ties keep index order.
func (idx *TitleIndex) Search(query string) []Match {
	words := strings.Fields(foldTitle(query))
	if len(words) == 0 {
		all := make([]Match, len(idx.folded))
		for i := range all {
			all[i].Index = i
		}
		return all
	}

	wordGrams := make([]gramSet, len(words))
	for i, w := range words {
		wordGrams[i] = trigrams(w)
	}

	var matches []Match
	for i := range idx.folded {
		if score := idx.score(i, words, wordGrams); score > 0 {
			matches = append(matches, Match{Index: i, Score: score})
		}
	}
	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return matches
}

// score averages the per-word scores, or returns 0 if any word misses.
func (idx *TitleIndex) score(i int, words []string, wordGrams []gramSet) float64 {
	title := idx.folded[i]
	var total float64
	for w, word := range words {
		contains := strings.Contains(title, word)
		if len([]rune(word)) <= 2 {
			if !contains {
				return 0
			}
			total++
			continue
		}
		c := coverage(wordGrams[w], idx.grams[i])
		if c < minCoverage {
			return 0
		}
		if contains {
			c += 0.5
		}
		total += c
	}
	return total / float64(len(words))
}

// foldTitle lowercases s, strips combining marks and punctuation, and
// collapses whitespace.
func foldTitle(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	s = nonWordRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// trigrams returns the trigrams of s padded with two spaces on each side,
// so prefixes and suffixes count. Blank trigrams are skipped.
func trigrams(s string) gramSet {
	if s == "" {
		return nil
	}
	runes := []rune("  " + s + "  ")
	set := make(gramSet, len(runes))
	for i := 0; i+3 <= len(runes); i++ {
		g := string(runes[i : i+3])
		if strings.TrimSpace(g) != "" {
			set[g] = struct{}{}
		}
	}
	return set
}

// coverage is |query ∩ title| / |query|.
func coverage(query, title gramSet) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for g := range query {
		if _, ok := title[g]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}
