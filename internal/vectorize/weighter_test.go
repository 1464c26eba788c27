package vectorize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ryori/internal/models"
)

func TestTermWeighter_NotFitted(t *testing.T) {
	w := NewTermWeighter()
	_, err := w.Weight("onion")
	assert.ErrorIs(t, err, models.ErrNotFitted)
	_, err = w.DefaultWeight()
	assert.ErrorIs(t, err, models.ErrNotFitted)
	assert.False(t, w.Fitted())
}

func TestTermWeighter_Fit(t *testing.T) {
	w := NewTermWeighter()
	corpus := [][]string{
		{"onion", "onion", "tomato"}, // onion counted once for df
		{"onion", "salt"},
		{"salt"},
		{"cumin"},
	}
	require.NoError(t, w.Fit(corpus))
	assert.Equal(t, 4, w.VocabularySize())

	n := 4.0
	idf := func(df float64) float64 { return math.Log((1+n)/(1+df)) + 1 }

	for token, df := range map[string]float64{"onion": 2, "salt": 2, "tomato": 1, "cumin": 1} {
		got, err := w.Weight(token)
		require.NoError(t, err)
		assert.InDelta(t, idf(df), got, 1e-12, token)
	}

	def, err := w.DefaultWeight()
	require.NoError(t, err)
	assert.InDelta(t, idf(1), def, 1e-12)

	unseen, err := w.Weight("saffron")
	require.NoError(t, err)
	assert.Equal(t, def, unseen)
}

func TestTermWeighter_MonotonicInDocumentFrequency(t *testing.T) {
	w := NewTermWeighter()
	require.NoError(t, w.Fit([][]string{{"a", "b", "c"}, {"a", "b"}, {"a"}}))
	a, _ := w.Weight("a")
	b, _ := w.Weight("b")
	c, _ := w.Weight("c")
	assert.Less(t, a, b)
	assert.Less(t, b, c)
	assert.GreaterOrEqual(t, a, 1.0)
}

func TestTermWeighter_EmptyCorpus(t *testing.T) {
	assert.ErrorIs(t, NewTermWeighter().Fit([][]string{}), models.ErrEmptyCorpus)
}

func TestTermWeighter_EmptyDocuments(t *testing.T) {
	w := NewTermWeighter()
	require.NoError(t, w.Fit([][]string{{}, {}}))
	got, err := w.Weight("onion")
	require.NoError(t, err)
	assert.InDelta(t, math.Log(3)+1, got, 1e-12)
}

func TestTermWeighter_WeightsIsCopy(t *testing.T) {
	w := NewTermWeighter()
	require.NoError(t, w.Fit([][]string{{"onion"}}))
	m := w.Weights()
	m["onion"] = 99
	got, _ := w.Weight("onion")
	assert.NotEqual(t, 99.0, got)
}
