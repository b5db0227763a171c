package aigen

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/internal/telemetry/tracing"
	"github.com/2beens/rerack/pkg"
)

const contentTypeNDJSON = "application/x-ndjson"

type StatusResponse struct {
	Configured bool `json:"configured"`
	InProgress bool `json:"inProgress"`
}

type Handler struct {
	generator *Generator
}

func NewHandler(generator *Generator) *Handler {
	return &Handler{
		generator: generator,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/ai/workouts", handler.HandleGenerate).Methods("POST", "OPTIONS").Name("generate-workout")
	router.HandleFunc("/ai/status", handler.HandleStatus).Methods("GET").Name("ai-status")
}

// HandleGenerate streams generation events as newline delimited JSON.
// ?fresh=true skips the result cache.
func (handler *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.aigen.generate")
	defer span.End()

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "error, expected application/json", http.StatusUnsupportedMediaType)
		return
	}

	var params Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, "error, invalid request body", http.StatusBadRequest)
		return
	}

	events, err := handler.generator.Generate(ctx, params, r.URL.Query().Get("fresh") == "true")
	switch {
	case errors.Is(err, ErrInvalidParams):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrNotConfigured):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	case errors.Is(err, ErrGenerationInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	case err != nil:
		log.Errorf("start ai generation: %s", err)
		http.Error(w, "failed to start generation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeNDJSON)
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)
	for event := range events {
		if err := encoder.Encode(event); err != nil {
			log.Errorf("write generation event: %s", err)
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (handler *Handler) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, StatusResponse{
		Configured: handler.generator.Configured(),
		InProgress: handler.generator.InProgress(),
	}, http.StatusOK)
}
