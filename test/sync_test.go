//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/2beens/rerack/internal/auth"
	"github.com/2beens/rerack/internal/gymstats/workouts"
	"github.com/2beens/rerack/internal/storage"
)

func (s *IntegrationTestSuite) doRequest(ctx context.Context, method, path, token string, body any) (int, []byte) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(auth.TokenHeader, token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, respBytes
}

func newWorkout(name string) workouts.Workout {
	return workouts.Workout{
		Name: name,
		Exercises: []workouts.WorkoutExercise{
			{
				ExerciseID: "barbell-bench-press",
				Sets: []workouts.ExerciseSet{
					{Reps: 5, Weight: 100, Completed: true},
					{Reps: 5, Weight: 102.5, Completed: true},
				},
			},
		},
	}
}

func (s *IntegrationTestSuite) listWorkouts(ctx context.Context, token string) []workouts.Workout {
	status, body := s.doRequest(ctx, http.MethodGet, "/api/workouts", token, nil)
	s.Require().Equal(http.StatusOK, status)
	var list []workouts.Workout
	s.Require().NoError(json.Unmarshal(body, &list))
	return list
}

func (s *IntegrationTestSuite) TestLocalOnlyThenMigrate() {
	ctx := testContext(s.T())

	name := gofakeit.Word()
	status, _ := s.doRequest(ctx, http.MethodPost, "/api/workouts", "", newWorkout(name))
	s.Require().Equal(http.StatusCreated, status)

	status, body := s.doRequest(ctx, http.MethodGet, "/api/local-data", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var local storage.LocalDataResponse
	s.Require().NoError(json.Unmarshal(body, &local))
	s.True(local.HasLocalData)

	// migration needs a session
	status, _ = s.doRequest(ctx, http.MethodPost, "/api/migrate", "", nil)
	s.Equal(http.StatusPreconditionFailed, status)

	userID := gofakeit.UUID()
	token := doLogin(ctx, s.T(), s.redisClient, userID)

	status, body = s.doRequest(ctx, http.MethodPost, "/api/migrate", token, nil)
	s.Require().Equal(http.StatusOK, status)
	var migrated storage.MigrateResponse
	s.Require().NoError(json.Unmarshal(body, &migrated))
	s.True(migrated.Success)
	s.GreaterOrEqual(migrated.Workouts, 1)
	s.Zero(migrated.Failed)

	var found bool
	for _, w := range s.listWorkouts(ctx, token) {
		if w.Name == name {
			found = true
			s.Equal(userID, w.UserID)
		}
	}
	s.True(found, "migrated workout %q not listed remotely", name)
}

func (s *IntegrationTestSuite) TestOfflineSaveReplayedOnSync() {
	ctx := testContext(s.T())

	token := doLogin(ctx, s.T(), s.redisClient, gofakeit.UUID())

	s.pauseRemote()
	resumed := false
	defer func() {
		if !resumed {
			s.resumeRemote()
		}
	}()

	name := gofakeit.Word()
	status, body := s.doRequest(ctx, http.MethodPost, "/api/workouts", token, newWorkout(name))
	s.Require().Equal(http.StatusCreated, status)
	var saved workouts.Workout
	s.Require().NoError(json.Unmarshal(body, &saved))
	s.Require().NotEmpty(saved.ID)

	status, body = s.doRequest(ctx, http.MethodGet, "/api/sync/status", token, nil)
	s.Require().Equal(http.StatusOK, status)
	var syncStatus storage.SyncStatusResponse
	s.Require().NoError(json.Unmarshal(body, &syncStatus))
	s.True(syncStatus.RemoteActive)
	s.GreaterOrEqual(syncStatus.Pending, 1)

	s.resumeRemote()
	resumed = true

	// the reconnect drain may race the explicit sync, either one empties the queue
	s.Eventually(func() bool {
		s.doRequest(ctx, http.MethodPost, "/api/sync", token, nil)
		status, body := s.doRequest(ctx, http.MethodGet, "/api/sync/status", token, nil)
		if status != http.StatusOK {
			return false
		}
		var st storage.SyncStatusResponse
		if err := json.Unmarshal(body, &st); err != nil {
			return false
		}
		return st.Pending == 0
	}, 30*time.Second, 500*time.Millisecond)

	status, body = s.doRequest(ctx, http.MethodGet, "/api/workouts/"+saved.ID, token, nil)
	s.Require().Equal(http.StatusOK, status)
	var remote workouts.Workout
	s.Require().NoError(json.Unmarshal(body, &remote))
	s.Equal(name, remote.Name)
}
