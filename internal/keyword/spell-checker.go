package keyword

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Suggestion represents a spelling suggestion with its score.
type Suggestion struct {
	Term      string  // The suggested term
	Distance  int     // Edit distance from the original term
	Frequency int     // Document frequency (popularity)
	Score     float64 // Combined score for ranking
}

// SpellChecker suggests dictionary terms close to tokens that are not in the dictionary.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int
	distance       func(a, b string) int

	cacheMu    sync.RWMutex
	termsCache []string
	termSet    map[string]struct{}
	cacheValid bool
}

// SpellCheckerOption is a functional option for configuring SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency sets the minimum document frequency for suggestions.
// Terms with lower frequency are ignored (likely rare or noise).
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions to return per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// WithTranspositions counts a swap of adjacent characters as one edit.
func WithTranspositions(enabled bool) SpellCheckerOption {
	return func(s *SpellChecker) {
		if enabled {
			s.distance = DamerauLevenshteinDistance
		} else {
			s.distance = LevenshteinDistance
		}
	}
}

// NewSpellChecker creates a new SpellChecker with the given dictionary.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dictionary:     dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		distance:       LevenshteinDistance,
		termSet:        make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// RefreshCache reloads the term cache from the dictionary.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dictionary.GetAllTerms()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.termsCache = terms
	s.termSet = make(map[string]struct{}, len(terms))
	for _, t := range terms {
		s.termSet[strings.ToLower(t)] = struct{}{}
	}
	s.cacheValid = true

	return nil
}

func (s *SpellChecker) ensureCache() error {
	s.cacheMu.RLock()
	valid := s.cacheValid
	s.cacheMu.RUnlock()
	if valid {
		return nil
	}
	return s.RefreshCache()
}

// Suggest returns spelling suggestions for a single term, best first. Ties on score are
// broken by term so the output is deterministic.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	if err := s.ensureCache(); err != nil {
		return nil
	}

	termLower := strings.ToLower(term)
	termLen := utf8.RuneCountInString(termLower)
	suggestions := make([]Suggestion, 0)

	s.cacheMu.RLock()
	terms := s.termsCache
	s.cacheMu.RUnlock()

	for _, dictTerm := range terms {
		dictTermLower := strings.ToLower(dictTerm)
		if dictTermLower == termLower {
			continue
		}

		// a length difference above maxDistance cannot be within distance
		lenDiff := utf8.RuneCountInString(dictTermLower) - termLen
		if lenDiff < 0 {
			lenDiff = -lenDiff
		}
		if lenDiff > s.maxDistance {
			continue
		}

		distance := s.distance(termLower, dictTermLower)
		if distance > s.maxDistance {
			continue
		}
		freq, err := s.dictionary.GetTermFrequency(dictTerm)
		if err != nil || freq < s.minFreq {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			Term:      dictTerm,
			Distance:  distance,
			Frequency: freq,
			Score:     (1.0 / float64(distance+1)) * float64(freq),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Term < suggestions[j].Term
	})

	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}

	return suggestions
}

// IsMisspelled checks if a term is likely misspelled (not in dictionary).
func (s *SpellChecker) IsMisspelled(term string) bool {
	if err := s.ensureCache(); err != nil {
		return false
	}

	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()

	_, exists := s.termSet[strings.ToLower(term)]
	return !exists
}

// SuggestAll returns, for every misspelled token with at least one suggestion, the suggested
// terms best first. Tokens in the dictionary and tokens without suggestions are omitted.
func (s *SpellChecker) SuggestAll(tokens []string) map[string][]string {
	out := make(map[string][]string)
	for _, tok := range tokens {
		if _, done := out[tok]; done || !s.IsMisspelled(tok) {
			continue
		}
		suggestions := s.Suggest(tok)
		if len(suggestions) == 0 {
			continue
		}
		terms := make([]string, len(suggestions))
		for i, sg := range suggestions {
			terms[i] = sg.Term
		}
		out[tok] = terms
	}
	return out
}
