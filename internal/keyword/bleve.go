package keyword

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/ryori/internal/models"
)

const defaultFuzziness = 1

// recipeDoc is the indexed form of a recipe.
type recipeDoc struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
}

// BleveIndex implements RecipeIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path creates an in-memory
// index, which is what the recommendation engine uses: the catalog is rebuilt on every reload.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// standard analyzer: lowercase + tokenize, no stemming, so "chillies" does not collapse into "chilli"
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("ingredients", textFieldMapping)
	im.AddDocumentMapping("recipe", docMapping)
	im.DefaultType = "recipe"
	im.DefaultMapping = docMapping

	if path == "" {
		index, err := bleve.NewMemOnly(im)
		if err != nil {
			return nil, fmt.Errorf("failed to create Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// Index indexes recipes in a single batch, keyed by catalog index.
func (b *BleveIndex) Index(ctx context.Context, recipes []models.Recipe) error {
	batch := b.index.NewBatch()
	for _, r := range recipes {
		if err := batch.Index(strconv.Itoa(r.Index), recipeDoc{Name: r.Name, Ingredients: r.Ingredients}); err != nil {
			return fmt.Errorf("index recipe %d: %w", r.Index, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.index.Batch(batch)
}

// Search runs a match (or fuzzy) query and returns up to limit results ordered by score,
// ties broken by catalog index. With opts.NameBoost > 1 the name and ingredient fields are
// queried separately and merged additively, and multi-term queries favour recipes that match
// every term.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	if limit <= 0 || strings.TrimSpace(query) == "" {
		return []*Result{}, nil
	}
	nameBoost := 1.0
	fuzzy := false
	fuzziness := defaultFuzziness
	if opts != nil {
		if opts.NameBoost > 0 {
			nameBoost = opts.NameBoost
		}
		fuzzy = opts.Fuzzy
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	if nameBoost <= 1.0 {
		hits, err := b.run(ctx, buildQuery(query, fuzzy, fuzziness, ""), limit)
		if err != nil {
			return nil, err
		}
		return topResults(hits, limit), nil
	}
	return b.searchWithBoost(ctx, query, limit, nameBoost, fuzzy, fuzziness)
}

func (b *BleveIndex) searchWithBoost(ctx context.Context, query string, limit int, nameBoost float64, fuzzy bool, fuzziness int) ([]*Result, error) {
	// enough from each field that the merged top "limit" is correct
	reqSize := limit * 2
	if reqSize < 50 {
		reqSize = 50
	}

	nameHits, err := b.run(ctx, buildQuery(query, fuzzy, fuzziness, "name"), reqSize)
	if err != nil {
		return nil, err
	}
	ingredientHits, err := b.run(ctx, buildQuery(query, fuzzy, fuzziness, "ingredients"), reqSize)
	if err != nil {
		return nil, err
	}

	scores := make(map[int]float64, len(nameHits)+len(ingredientHits))
	for id, s := range nameHits {
		scores[id] += s * nameBoost
	}
	for id, s := range ingredientHits {
		scores[id] += s
	}

	terms := tokenizeQuery(query)
	if len(terms) > 1 {
		coverage, err := b.termCoverage(ctx, terms, reqSize, fuzzy, fuzziness)
		if err != nil {
			return nil, err
		}
		// (matched/total)^2 so recipes matching every term outrank partial matches
		for id := range scores {
			matched := coverage[id]
			if matched == 0 {
				matched = 1
			}
			c := float64(matched) / float64(len(terms))
			scores[id] *= c * c
		}
	}
	return topResults(scores, limit), nil
}

// run executes q and returns catalog index -> score.
func (b *BleveIndex) run(ctx context.Context, q blevequery.Query, size int) (map[int]float64, error) {
	req := bleve.NewSearchRequest(q)
	req.Size = size
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	hits := make(map[int]float64, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.Atoi(hit.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected document id %q", hit.ID)
		}
		hits[id] = hit.Score
	}
	return hits, nil
}

func (b *BleveIndex) termCoverage(ctx context.Context, terms []string, size int, fuzzy bool, fuzziness int) (map[int]int, error) {
	coverage := make(map[int]int)
	for _, term := range terms {
		hits, err := b.run(ctx, buildQuery(term, fuzzy, fuzziness, ""), size)
		if err != nil {
			return nil, err
		}
		for id := range hits {
			coverage[id]++
		}
	}
	return coverage, nil
}

func topResults(scores map[int]float64, limit int) []*Result {
	out := make([]*Result, 0, len(scores))
	for id, s := range scores {
		out = append(out, &Result{Index: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// tokenizeQuery splits query into lowercase terms on whitespace and commas.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// buildQuery creates a match query, or a disjunction of fuzzy queries (one per term) when
// fuzzy is set. An empty field searches all fields.
func buildQuery(query string, fuzzy bool, fuzziness int, field string) blevequery.Query {
	terms := tokenizeQuery(query)
	if !fuzzy || len(terms) == 0 {
		mq := bleve.NewMatchQuery(query)
		if field != "" {
			mq.SetField(field)
		}
		return mq
	}

	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		if field != "" {
			fq.SetField(field)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DocCount returns the total number of recipes in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
