package storage

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/rerack/internal/auth"
	"github.com/2beens/rerack/internal/gymstats/workouts"
	"github.com/2beens/rerack/internal/syncqueue"
	"github.com/2beens/rerack/internal/telemetry/tracing"
	"github.com/2beens/rerack/pkg"
)

type connectivitySignal interface {
	Online() bool
	Set(online bool)
}

type SyncStatusResponse struct {
	Online       bool `json:"online"`
	RemoteActive bool `json:"remoteActive"`
	Pending      int  `json:"pending"`
}

type LocalDataResponse struct {
	HasLocalData bool `json:"hasLocalData"`
}

type MigrateResponse struct {
	MigrationResult
	Success bool `json:"success"`
	Purged  bool `json:"purged"`
}

type Handler struct {
	service      *Service
	connectivity connectivitySignal
}

func NewHandler(service *Service, connectivity connectivitySignal) *Handler {
	return &Handler{
		service:      service,
		connectivity: connectivity,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/workouts", handler.HandleListWorkouts).Methods("GET").Name("list-workouts")
	router.HandleFunc("/workouts", handler.HandleSaveWorkout).Methods("POST", "OPTIONS").Name("save-workout")
	router.HandleFunc("/workouts/finish", handler.HandleFinishWorkout).Methods("POST", "OPTIONS").Name("finish-workout")
	router.HandleFunc("/workouts/{id}", handler.HandleGetWorkout).Methods("GET").Name("get-workout")
	router.HandleFunc("/workouts/{id}", handler.HandleDeleteWorkout).Methods("DELETE", "OPTIONS").Name("delete-workout")

	router.HandleFunc("/profile", handler.HandleGetProfile).Methods("GET").Name("get-profile")
	router.HandleFunc("/profile", handler.HandleSaveProfile).Methods("PUT", "OPTIONS").Name("save-profile")
	router.HandleFunc("/profile/refresh", handler.HandleRefreshProfile).Methods("POST", "OPTIONS").Name("refresh-profile")

	router.HandleFunc("/records", handler.HandleListRecords).Methods("GET").Name("list-records")
	router.HandleFunc("/records", handler.HandleSaveRecord).Methods("POST", "OPTIONS").Name("save-record")
	router.HandleFunc("/records/{exerciseId}/best", handler.HandleBestRecord).Methods("GET").Name("best-record")

	router.HandleFunc("/templates", handler.HandleListTemplates).Methods("GET").Name("list-templates")
	router.HandleFunc("/templates", handler.HandleSaveTemplate).Methods("POST", "OPTIONS").Name("save-template")
	router.HandleFunc("/templates/{id}", handler.HandleDeleteTemplate).Methods("DELETE", "OPTIONS").Name("delete-template")

	router.HandleFunc("/sync", handler.HandleSync).Methods("POST", "OPTIONS").Name("sync")
	router.HandleFunc("/sync/status", handler.HandleSyncStatus).Methods("GET").Name("sync-status")
	router.HandleFunc("/connectivity", handler.HandleConnectivity).Methods("POST", "OPTIONS").Name("connectivity")
	router.HandleFunc("/migrate", handler.HandleMigrate).Methods("POST", "OPTIONS").Name("migrate")
	router.HandleFunc("/local-data", handler.HandleHasLocalData).Methods("GET").Name("has-local-data")
	router.HandleFunc("/local-data", handler.HandleClearLocalData).Methods("DELETE", "OPTIONS").Name("clear-local-data")
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Debugf("decode request body: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func (handler *Handler) HandleSaveWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.workouts.save")
	defer span.End()

	var workout workouts.Workout
	if !decodeJSONBody(w, r, &workout) {
		return
	}

	saved, err := handler.service.SaveWorkout(ctx, auth.SessionFromContext(ctx), workout)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, saved, http.StatusCreated)
}

func (handler *Handler) HandleFinishWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.workouts.finish")
	defer span.End()

	var workout workouts.Workout
	if !decodeJSONBody(w, r, &workout) {
		return
	}

	result, err := handler.service.FinishWorkout(ctx, auth.SessionFromContext(ctx), workout)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, result, http.StatusOK)
}

func (handler *Handler) HandleGetWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.workouts.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	workout, err := handler.service.GetWorkout(ctx, auth.SessionFromContext(ctx), id)
	if errors.Is(err, ErrWorkoutNotFound) {
		http.Error(w, "workout not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("get workout %s: %s", id, err)
		http.Error(w, "failed to get workout", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, workout, http.StatusOK)
}

func (handler *Handler) HandleListWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.workouts.list")
	defer span.End()

	pkg.WriteJSON(w, handler.service.GetAllWorkouts(ctx, auth.SessionFromContext(ctx)), http.StatusOK)
}

func (handler *Handler) HandleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.workouts.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	handler.service.DeleteWorkout(ctx, auth.SessionFromContext(ctx), id)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.profile.get")
	defer span.End()

	pkg.WriteJSON(w, handler.service.GetUserProfile(ctx, auth.SessionFromContext(ctx)), http.StatusOK)
}

func (handler *Handler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.profile.save")
	defer span.End()

	var profile workouts.UserProfile
	if !decodeJSONBody(w, r, &profile) {
		return
	}
	pkg.WriteJSON(w, handler.service.SaveUserProfile(ctx, auth.SessionFromContext(ctx), profile), http.StatusOK)
}

func (handler *Handler) HandleRefreshProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.profile.refresh")
	defer span.End()

	pkg.WriteJSON(w, handler.service.RefreshUserProfile(ctx, auth.SessionFromContext(ctx)), http.StatusOK)
}

func (handler *Handler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.records.list")
	defer span.End()

	pkg.WriteJSON(w, handler.service.GetAllPersonalRecords(ctx, auth.SessionFromContext(ctx)), http.StatusOK)
}

func (handler *Handler) HandleSaveRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.records.save")
	defer span.End()

	var pr workouts.PersonalRecord
	if !decodeJSONBody(w, r, &pr) {
		return
	}
	if pr.ExerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	handler.service.SavePersonalRecord(ctx, auth.SessionFromContext(ctx), pr)
	pkg.WriteJSON(w, pr, http.StatusCreated)
}

func (handler *Handler) HandleBestRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.records.best")
	defer span.End()

	exerciseID := mux.Vars(r)["exerciseId"]
	pr, err := handler.service.GetPersonalRecordForExercise(ctx, auth.SessionFromContext(ctx), exerciseID)
	if err != nil {
		http.Error(w, "no personal record", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, pr, http.StatusOK)
}

func (handler *Handler) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.templates.list")
	defer span.End()

	pkg.WriteJSON(w, handler.service.GetAllTemplates(ctx), http.StatusOK)
}

func (handler *Handler) HandleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.templates.save")
	defer span.End()

	var t workouts.Template
	if !decodeJSONBody(w, r, &t) {
		return
	}

	saved, err := handler.service.SaveTemplate(ctx, t)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pkg.WriteJSON(w, saved, http.StatusCreated)
}

func (handler *Handler) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.templates.delete")
	defer span.End()

	handler.service.DeleteTemplate(ctx, mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.sync")
	defer span.End()

	result, err := handler.service.SyncOfflineData(ctx, auth.SessionFromContext(ctx))
	switch {
	case errors.Is(err, syncqueue.ErrDrainInProgress):
		http.Error(w, "sync already in progress", http.StatusConflict)
		return
	case errors.Is(err, syncqueue.ErrNoSession), errors.Is(err, ErrRemoteUnavailable):
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
		return
	case err != nil:
		log.Errorf("sync offline data: %s", err)
		http.Error(w, "sync failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, result, http.StatusOK)
}

func (handler *Handler) HandleSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.sync.status")
	defer span.End()

	pending, err := handler.service.PendingSyncCount(ctx)
	if err != nil {
		log.Errorf("pending sync count: %s", err)
	}

	status := SyncStatusResponse{
		RemoteActive: handler.service.RemoteActive(auth.SessionFromContext(ctx)),
		Pending:      pending,
	}
	if handler.connectivity != nil {
		status.Online = handler.connectivity.Online()
	}
	pkg.WriteJSON(w, status, http.StatusOK)
}

// HandleConnectivity accepts an online/offline signal pushed by the client.
func (handler *Handler) HandleConnectivity(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.connectivity")
	defer span.End()

	if handler.connectivity == nil {
		http.Error(w, "connectivity signal not available", http.StatusNotImplemented)
		return
	}

	var req struct {
		Online bool `json:"online"`
	}
	if !decodeJSONBody(w, r, &req) {
		return
	}

	handler.connectivity.Set(req.Online)
	w.WriteHeader(http.StatusNoContent)
}

func (handler *Handler) HandleMigrate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.migrate")
	defer span.End()

	result, err := handler.service.MigrateLocalToCloud(ctx, auth.SessionFromContext(ctx))
	if errors.Is(err, ErrNoSession) || errors.Is(err, ErrRemoteUnavailable) {
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
		return
	} else if err != nil {
		log.Errorf("migrate local data: %s", err)
		http.Error(w, "migration failed", http.StatusInternalServerError)
		return
	}

	resp := MigrateResponse{
		MigrationResult: result,
		Success:         result.Success(),
	}
	if r.URL.Query().Get("purge") == "true" && result.Success() {
		if err := handler.service.ClearLocalData(ctx); err != nil {
			log.Errorf("purge local data after migration: %s", err)
		} else {
			resp.Purged = true
		}
	}
	pkg.WriteJSON(w, resp, http.StatusOK)
}

func (handler *Handler) HandleHasLocalData(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.localdata.has")
	defer span.End()

	has, err := handler.service.HasLocalData(ctx)
	if err != nil {
		log.Errorf("has local data: %s", err)
		http.Error(w, "failed to check local data", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, LocalDataResponse{HasLocalData: has}, http.StatusOK)
}

func (handler *Handler) HandleClearLocalData(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.storage.localdata.clear")
	defer span.End()

	if err := handler.service.ClearLocalData(ctx); err != nil {
		log.Errorf("clear local data: %s", err)
		http.Error(w, "failed to clear local data", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
