package matcher

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/internal/exercisedb"
	"github.com/2beens/rerack/internal/telemetry/tracing"
	"github.com/2beens/rerack/pkg"
)

type MatchResponse struct {
	Found bool   `json:"found"`
	Match *Match `json:"match,omitempty"`
}

type SearchResponse struct {
	Exercises []exercisedb.Exercise `json:"exercises"`
}

type Handler struct {
	matcher *Matcher
	catalog catalog
}

func NewHandler(matcher *Matcher, catalog catalog) *Handler {
	return &Handler{
		matcher: matcher,
		catalog: catalog,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/exercises/match", handler.HandleMatch).Methods("GET").Name("match-exercise")
	router.HandleFunc("/exercises/search", handler.HandleSearch).Methods("GET").Name("search-exercises")
}

// HandleMatch resolves ?name= to a catalog exercise. No match is reported
// with found=false, not as an error.
func (handler *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.matcher.match")
	defer span.End()

	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "error, name empty", http.StatusBadRequest)
		return
	}

	minConfidence := DefaultMinConfidence
	if minStr := r.URL.Query().Get("min"); minStr != "" {
		parsed, err := strconv.ParseFloat(minStr, 64)
		if err != nil || parsed < 0 || parsed > 1 {
			http.Error(w, "error, min must be a number between 0 and 1", http.StatusBadRequest)
			return
		}
		minConfidence = parsed
	}

	match, err := handler.matcher.ResolveWithVariations(ctx, name, minConfidence)
	if errors.Is(err, ErrNoMatch) {
		pkg.WriteJSON(w, MatchResponse{Found: false}, http.StatusOK)
		return
	} else if err != nil {
		log.Errorf("match exercise %s: %s", name, err)
		http.Error(w, "failed to match exercise", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, MatchResponse{Found: true, Match: match}, http.StatusOK)
}

func (handler *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.matcher.search")
	defer span.End()

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "error, q empty", http.StatusBadRequest)
		return
	}

	exercises, err := handler.catalog.Search(ctx, query)
	if err != nil {
		log.Warnf("catalog search %s: %s", query, err)
		http.Error(w, "exercise catalog unavailable", http.StatusBadGateway)
		return
	}

	pkg.WriteJSON(w, SearchResponse{Exercises: exercises}, http.StatusOK)
}
