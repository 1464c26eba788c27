package vectorize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ryori/internal/embedding"
	"github.com/hyperjump/ryori/internal/models"
)

func testStore(t *testing.T) *embedding.MemoryStore {
	t.Helper()
	s, err := embedding.NewMemoryStore(2, map[string][]float32{
		"onion":  {1, 0},
		"tomato": {0, 1},
		"salt":   {1, 1},
		"chili":  {-1, 0},
		"garlic": {2, 2},
	})
	require.NoError(t, err)
	return s
}

var testCorpus = [][]string{
	{"onion", "tomato"},
	{"onion", "salt"},
	{"chili", "salt"},
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func TestNew(t *testing.T) {
	store := testStore(t)
	for _, s := range Strategies {
		v, err := New(s, store)
		require.NoError(t, err)
		assert.Equal(t, s, v.Strategy())
		assert.Equal(t, 2, v.Dimensions())
	}
	_, err := New("bm25", store)
	assert.Error(t, err)
}

func TestStrategyFor(t *testing.T) {
	assert.Equal(t, StrategyMean, StrategyFor(true))
	assert.Equal(t, StrategyTFIDF, StrategyFor(false))
}

func TestMeanVectorizer_Scenario(t *testing.T) {
	v := NewMeanVectorizer(testStore(t))
	require.NoError(t, v.Fit(testCorpus))

	got, err := v.VectorizeBatch(testCorpus)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.5}, {1, 0.5}, {0, 0.5}}, got)

	q, err := v.Vectorize([]string{"onion", "tomato"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, q)
}

func TestMeanVectorizer_DuplicatesCountPerOccurrence(t *testing.T) {
	v := NewMeanVectorizer(testStore(t))
	got, err := v.Vectorize([]string{"onion", "onion", "tomato"})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, got[0], 1e-6)
	assert.InDelta(t, 1.0/3.0, got[1], 1e-6)
}

func TestMeanVectorizer_ZeroIffNoKnownToken(t *testing.T) {
	v := NewMeanVectorizer(testStore(t))
	docs := []struct {
		doc      []string
		wantZero bool
	}{
		{nil, true},
		{[]string{}, true},
		{[]string{"parsley"}, true},
		{[]string{"parsley", "Onion"}, true},
		{[]string{"parsley", "onion"}, false},
		{[]string{"salt"}, false},
	}
	for _, d := range docs {
		got, err := v.Vectorize(d.doc)
		require.NoError(t, err)
		assert.Len(t, got, 2, "doc %q", d.doc)
		assert.Equal(t, d.wantZero, isZero(got), "doc %q", d.doc)
	}
}

func TestMeanVectorizer_BatchMatchesSingle(t *testing.T) {
	v := NewMeanVectorizer(testStore(t))
	docs := [][]string{{"onion"}, {}, {"parsley", "salt"}, {"chili", "garlic", "tomato"}}
	batch, err := v.VectorizeBatch(docs)
	require.NoError(t, err)
	require.Len(t, batch, len(docs))
	for i, doc := range docs {
		single, err := v.Vectorize(doc)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestWeightedVectorizer_NotFitted(t *testing.T) {
	v := NewWeightedVectorizer(testStore(t))
	_, err := v.Vectorize([]string{"onion"})
	assert.ErrorIs(t, err, models.ErrNotFitted)
	_, err = v.VectorizeBatch(testCorpus)
	assert.ErrorIs(t, err, models.ErrNotFitted)
}

func TestWeightedVectorizer_EmptyCorpus(t *testing.T) {
	v := NewWeightedVectorizer(testStore(t))
	assert.ErrorIs(t, v.Fit(nil), models.ErrEmptyCorpus)
}

func TestWeightedVectorizer_MeanOfWeightedEmbeddings(t *testing.T) {
	v := NewWeightedVectorizer(testStore(t))
	require.NoError(t, v.Fit(testCorpus))

	idfCommon := math.Log(4.0/3.0) + 1 // df = 2 (onion, salt)
	idfRare := math.Log(2.0) + 1       // df = 1 (tomato, chili)

	got, err := v.Vectorize([]string{"onion", "tomato"})
	require.NoError(t, err)
	assert.InDelta(t, idfCommon/2, got[0], 1e-6)
	assert.InDelta(t, idfRare/2, got[1], 1e-6)

	// garlic is in the embeddings but not in the corpus: it takes the default (max) weight.
	got, err = v.Vectorize([]string{"garlic"})
	require.NoError(t, err)
	assert.InDelta(t, 2*idfRare, got[0], 1e-6)

	got, err = v.Vectorize([]string{"parsley"})
	require.NoError(t, err)
	assert.True(t, isZero(got))
	assert.Len(t, got, 2)
}

func TestWeightedVectorizer_FitDeterministic(t *testing.T) {
	a := NewWeightedVectorizer(testStore(t))
	b := NewWeightedVectorizer(testStore(t))
	require.NoError(t, a.Fit(testCorpus))
	require.NoError(t, b.Fit(testCorpus))
	assert.Equal(t, a.Weighter().Weights(), b.Weighter().Weights())

	va, err := a.VectorizeBatch(testCorpus)
	require.NoError(t, err)
	vb, err := b.VectorizeBatch(testCorpus)
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}
