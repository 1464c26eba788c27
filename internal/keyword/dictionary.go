package keyword

import "sort"

// VocabularyDictionary is a TermDictionary over a fixed token -> document frequency table.
type VocabularyDictionary struct {
	freq  map[string]int
	terms []string
}

// NewVocabularyDictionary copies freq; terms are served in sorted order.
func NewVocabularyDictionary(freq map[string]int) *VocabularyDictionary {
	d := &VocabularyDictionary{
		freq:  make(map[string]int, len(freq)),
		terms: make([]string, 0, len(freq)),
	}
	for t, f := range freq {
		d.freq[t] = f
		d.terms = append(d.terms, t)
	}
	sort.Strings(d.terms)
	return d
}

// GetAllTerms implements TermDictionary.
func (d *VocabularyDictionary) GetAllTerms() ([]string, error) {
	out := make([]string, len(d.terms))
	copy(out, d.terms)
	return out, nil
}

// GetTermFrequency implements TermDictionary.
func (d *VocabularyDictionary) GetTermFrequency(term string) (int, error) {
	return d.freq[term], nil
}

// ContainsTerm implements TermDictionary.
func (d *VocabularyDictionary) ContainsTerm(term string) (bool, error) {
	_, ok := d.freq[term]
	return ok, nil
}
