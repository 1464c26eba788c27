package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/ryori/internal/models"
	"github.com/hyperjump/ryori/internal/recommend"
	"github.com/hyperjump/ryori/internal/storage"
)

// ingredientList accepts either a JSON array of ingredients or one comma-separated string.
type ingredientList []string

func (l *ingredientList) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*l = models.ParseIngredients(text)
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return errors.New("ingredients must be a string or a list of strings")
	}
	*l = items
	return nil
}

type recommendRequest struct {
	Ingredients ingredientList `json:"ingredients"`
	Limit       *int           `json:"limit,omitempty"`
	Mean        bool           `json:"mean"`
	WithScores  bool           `json:"with_scores"`
}

// predictRequest is the body of the /predict endpoint kept from the first version of the service.
type predictRequest struct {
	Ingredients string `json:"ingredients"`
	N           *int   `json:"N,omitempty"`
	Mean        bool   `json:"mean"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Hello, World!"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	n := models.DefaultTopN
	if req.N != nil {
		n = *req.N
	}
	query := models.RecommendQuery{
		Ingredients: models.ParseIngredients(req.Ingredients),
		TopN:        s.capLimit(n),
		UseMean:     req.Mean,
	}
	s.logger.Debug("predict request", zap.Strings("ingredients", query.Ingredients), zap.Int("n", query.TopN))
	resp, err := s.engine.Recommend(r.Context(), query)
	if err != nil {
		s.logger.Error("predict failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp.Records())
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	limit := s.config.Recommend.DefaultTopN
	if req.Limit != nil {
		limit = *req.Limit
	}
	query := models.RecommendQuery{
		Ingredients: req.Ingredients,
		TopN:        s.capLimit(limit),
		UseMean:     req.Mean,
		WithScores:  req.WithScores,
	}
	s.logger.Debug("recommend request",
		zap.Strings("ingredients", query.Ingredients),
		zap.Int("limit", query.TopN),
		zap.Bool("mean", query.UseMean),
	)
	resp, err := s.engine.Recommend(r.Context(), query)
	if err != nil {
		s.logger.Error("recommend failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearchRecipes(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := s.config.Recommend.DefaultTopN
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	fuzzy, ok := s.boolParam(w, r, "fuzzy")
	if !ok {
		return
	}
	results, err := s.engine.SearchRecipes(r.Context(), q, s.capLimit(limit), fuzzy)
	if err != nil {
		s.logger.Error("recipe search failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"results": results,
		"total":   len(results),
	})
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe index")
		return
	}
	recipe, ok := s.engine.Catalog().Recipe(index)
	if !ok {
		s.respondError(w, http.StatusNotFound, "recipe not found")
		return
	}
	s.respondJSON(w, http.StatusOK, recipe)
}

// handleListStoredRecipes pages through the recipe database, which may be ahead of the
// loaded catalog until the next reload.
func (s *Server) handleListStoredRecipes(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog database not configured")
		return
	}
	offset, ok := s.intParam(w, r, "offset", 0)
	if !ok {
		return
	}
	limit, ok := s.intParam(w, r, "limit", s.config.Recommend.DefaultTopN)
	if !ok {
		return
	}
	recipes, err := s.store.ListRecipes(r.Context(), offset, s.capLimit(limit))
	if err != nil {
		s.logger.Error("list stored recipes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.store.CountRecipes(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"recipes": recipes,
		"offset":  offset,
		"total":   total,
	})
}

func (s *Server) handleGetStoredRecipe(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.respondError(w, http.StatusNotImplemented, "catalog database not configured")
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe index")
		return
	}
	recipe, err := s.store.GetRecipe(r.Context(), index)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "recipe not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, recipe)
}

// intParam reads a non-negative integer query parameter, responding 400 when it is malformed.
func (s *Server) intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}

func (s *Server) handleSimilarRecipes(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid recipe index")
		return
	}
	limit, ok := s.intParam(w, r, "limit", s.config.Recommend.DefaultTopN)
	if !ok {
		return
	}
	mean, ok := s.boolParam(w, r, "mean")
	if !ok {
		return
	}
	withScores, ok := s.boolParam(w, r, "with_scores")
	if !ok {
		return
	}
	results, err := s.engine.SimilarRecipes(r.Context(), index, s.capLimit(limit), mean, withScores)
	if errors.Is(err, recommend.ErrRecipeNotFound) {
		s.respondError(w, http.StatusNotFound, "recipe not found")
		return
	}
	if err != nil {
		s.logger.Error("similar recipes failed", zap.Int("index", index), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"index":   index,
		"results": results,
		"total":   len(results),
	})
}

func (s *Server) boolParam(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid "+name)
		return false, false
	}
	return b, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.engine.Status()
	resp := map[string]interface{}{
		"engine": status,
	}

	cfg := s.config
	resp["config"] = map[string]interface{}{
		"catalog_source":   cfg.Catalog.Source,
		"catalog_path":     cfg.Catalog.Path,
		"model_path":       cfg.Embedding.ModelPath,
		"database_path":    cfg.Storage.DatabasePath,
		"vector_cache_dir": cfg.Storage.VectorCacheDir,
		"default_top_n":    cfg.Recommend.DefaultTopN,
		"max_top_n":        cfg.Recommend.MaxTopN,
		"watch_enabled":    cfg.Watch.Enabled,
	}
	diskBytes, err := storage.DiskUsageBytes(
		cfg.Storage.DatabasePath,
		cfg.Storage.VectorCacheDir,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	if s.store != nil {
		stats, err := storage.Stats(r.Context(), s.store)
		if err != nil {
			s.logger.Warn("failed to read catalog database stats", zap.Error(err))
		} else {
			resp["database"] = stats
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("reload requested")
	if err := s.engine.Reload(r.Context()); err != nil {
		if errors.Is(err, recommend.ErrNoLoader) {
			s.respondError(w, http.StatusNotImplemented, "reload not configured")
			return
		}
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "reloaded",
		"engine": s.engine.Status(),
	})
}

// capLimit bounds a requested result count by recommend.max_top_n.
func (s *Server) capLimit(n int) int {
	if limit := s.config.Recommend.MaxTopN; limit > 0 && n > limit {
		return limit
	}
	return n
}

func statusFor(err error) int {
	if errors.Is(err, models.ErrEmptyCorpus) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
