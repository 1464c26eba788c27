package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/ryori/internal/models"
)

func testRecipes() []models.Recipe {
	return []models.Recipe{
		{Index: 0, Name: "Tomato Onion Curry", Ingredients: "onion,tomato,salt"},
		{Index: 1, Name: "Masala Karela", Ingredients: "salt,amchur (dry mango powder),karela (bitter gourd/ pavakkai)"},
		{Index: 2, Name: "Spicy Rice", Ingredients: "rice,tomato,red chillies"},
		{Index: 3, Name: "Plain Rice", Ingredients: "rice,water"},
	}
}

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex("")
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := idx.Index(context.Background(), testRecipes()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	return idx
}

func TestBleveIndex_DocCount(t *testing.T) {
	idx := newTestIndex(t)
	n, err := idx.DocCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("DocCount = %d, want 4", n)
	}
}

func TestBleveIndex_SearchIngredients(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "karela", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Index != 1 {
		t.Fatalf("Search(karela) = %+v, want recipe 1", results)
	}
}

func TestBleveIndex_SearchName(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "curry", 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 || results[0].Index != 0 {
		t.Fatalf("Search(curry) = %+v, want recipe 0 first", results)
	}
}

func TestBleveIndex_NoStemming(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "chillies", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Index != 2 {
		t.Errorf("Search(chillies) = %+v", results)
	}
}

func TestBleveIndex_Limit(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	results, err := idx.Search(ctx, "rice", 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
	for _, limit := range []int{0, -1} {
		results, err := idx.Search(ctx, "rice", limit, nil)
		if err != nil || len(results) != 0 {
			t.Errorf("limit %d: %v, %d results", limit, err, len(results))
		}
	}
	results, err = idx.Search(ctx, "   ", 10, nil)
	if err != nil || len(results) != 0 {
		t.Errorf("blank query: %v, %d results", err, len(results))
	}
}

func TestBleveIndex_Fuzzy(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	exact, err := idx.Search(ctx, "tomatto", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(exact) != 0 {
		t.Errorf("exact search for a typo should not match, got %+v", exact)
	}

	fuzzy, err := idx.Search(ctx, "tomatto", 10, &SearchOptions{Fuzzy: true})
	if err != nil {
		t.Fatal(err)
	}
	found := map[int]bool{}
	for _, r := range fuzzy {
		found[r.Index] = true
	}
	if !found[0] || !found[2] {
		t.Errorf("fuzzy search should find the tomato recipes, got %+v", fuzzy)
	}
}

func TestBleveIndex_NameBoostAndCoverage(t *testing.T) {
	idx := newTestIndex(t)
	results, err := idx.Search(context.Background(), "rice tomato", 10, &SearchOptions{NameBoost: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) < 3 {
		t.Fatalf("expected at least 3 results, got %+v", results)
	}
	// recipe 2 is the only one with both terms
	if results[0].Index != 2 {
		t.Errorf("first result = %d, want 2 (%+v)", results[0].Index, results)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by score: %+v", results)
		}
	}
}

func TestBleveIndex_OnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.bleve")
	idx, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Index(context.Background(), testRecipes()); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewBleveIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	n, err := reopened.DocCount()
	if err != nil || n != 4 {
		t.Errorf("reopened DocCount = %d, %v", n, err)
	}
}

func TestTokenizeQuery(t *testing.T) {
	got := tokenizeQuery(" Onion,Tomato  salt ")
	want := []string{"onion", "tomato", "salt"}
	if len(got) != len(want) {
		t.Fatalf("tokenizeQuery = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}
