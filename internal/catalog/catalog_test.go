package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ryori/internal/models"
)

func scenarioRecipes() []models.Recipe {
	return []models.Recipe{
		{Name: "Onion Tomato Curry", Ingredients: "tomato, onion", URL: "https://example.com/1"},
		{Name: "Salted Onion", Ingredients: "onion,salt", URL: "https://example.com/2"},
		{Name: "Chili Salt", Ingredients: "salt, chili", URL: "https://example.com/3"},
	}
}

func TestNew(t *testing.T) {
	c, err := New(scenarioRecipes())
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	assert.Len(t, c.Corpus(), c.Len())

	assert.Equal(t, [][]string{
		{"onion", "tomato"},
		{"onion", "salt"},
		{"chili", "salt"},
	}, c.Corpus())

	for i := 0; i < c.Len(); i++ {
		r, ok := c.Recipe(i)
		require.True(t, ok)
		assert.Equal(t, i, r.Index)
	}
	_, ok := c.Recipe(3)
	assert.False(t, ok)
	_, ok = c.Recipe(-1)
	assert.False(t, ok)
}

func TestNew_Empty(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.Is(err, models.ErrEmptyCorpus))
}

func TestNew_EmptyIngredientsKeepsAlignment(t *testing.T) {
	c, err := New([]models.Recipe{
		{Name: "Water", Ingredients: ""},
		{Name: "Salt", Ingredients: " , salt ,"},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{}, {"salt"}}, c.Corpus())
}

func TestCatalog_Fingerprint(t *testing.T) {
	a, err := New(scenarioRecipes())
	require.NoError(t, err)
	b, err := New(scenarioRecipes())
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	changed := scenarioRecipes()
	changed[2].Ingredients = "salt, chili, lime"
	c, err := New(changed)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestCatalog_Vocabulary(t *testing.T) {
	c, err := New(append(scenarioRecipes(), models.Recipe{Name: "Double Salt", Ingredients: "salt,salt"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"onion": 2, "tomato": 1, "salt": 3, "chili": 1}, c.Vocabulary())
}

func TestCatalog_RecipesIsCopy(t *testing.T) {
	c, err := New(scenarioRecipes())
	require.NoError(t, err)
	rs := c.Recipes()
	rs[0].Name = "changed"
	r, _ := c.Recipe(0)
	assert.Equal(t, "Onion Tomato Curry", r.Name)
}

type staticSource []models.Recipe

func (s staticSource) Load(context.Context) ([]models.Recipe, error) { return s, nil }

type failingSource struct{}

func (failingSource) Load(context.Context) ([]models.Recipe, error) {
	return nil, errors.New("boom")
}

func TestLoad(t *testing.T) {
	c, err := Load(context.Background(), staticSource(scenarioRecipes()))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	_, err = Load(context.Background(), failingSource{})
	assert.ErrorContains(t, err, "boom")

	_, err = Load(context.Background(), staticSource(nil))
	assert.ErrorIs(t, err, models.ErrEmptyCorpus)
}
