package exercisedb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchPressResponse = `{
	"data": [
		{
			"exerciseId": "EIeI8Vf",
			"name": "barbell bench press",
			"gifUrl": "https://static.exercisedb.dev/media/EIeI8Vf.gif",
			"targetMuscles": ["pectorals"],
			"bodyParts": ["chest"],
			"equipments": ["barbell"],
			"secondaryMuscles": ["triceps", "shoulders"],
			"instructions": ["Lie flat on the bench.", "Press the bar up."]
		}
	],
	"pagination": {"total": 1, "limit": 10, "offset": 0}
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, server.Client())
}

func TestClient_Search(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exercises", r.URL.Path)
		assert.Equal(t, "bench press", r.URL.Query().Get("search"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		fmt.Fprint(w, benchPressResponse)
	})

	exercises, err := client.Search(context.Background(), "bench press")
	require.NoError(t, err)
	require.Len(t, exercises, 1)
	assert.Equal(t, "EIeI8Vf", exercises[0].ExerciseID)
	assert.Equal(t, "barbell bench press", exercises[0].Name)
	assert.Equal(t, []string{"pectorals"}, exercises[0].TargetMuscles)
	assert.Equal(t, []string{"triceps", "shoulders"}, exercises[0].SecondaryMuscles)
	assert.Len(t, exercises[0].Instructions, 2)
}

func TestClient_FilterPaths(t *testing.T) {
	var gotPaths []string
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.EscapedPath())
		fmt.Fprint(w, `{"data": []}`)
	})
	ctx := context.Background()

	_, err := client.ByBodyPart(ctx, "upper arms")
	require.NoError(t, err)
	_, err = client.ByEquipment(ctx, "barbell")
	require.NoError(t, err)
	exercises, err := client.ByTargetMuscle(ctx, "biceps")
	require.NoError(t, err)
	assert.NotNil(t, exercises)
	assert.Empty(t, exercises)

	assert.Equal(t, []string{
		"/exercises/bodyPart/upper%20arms",
		"/exercises/equipment/barbell",
		"/exercises/target/biceps",
	}, gotPaths)
}

func TestClient_List(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "20", r.URL.Query().Get("offset"))
		fmt.Fprint(w, benchPressResponse)
	})

	resp, err := client.List(context.Background(), 10, 20)
	require.NoError(t, err)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 1, resp.Pagination.Total)
	assert.Len(t, resp.Data, 1)
}

func TestClient_Errors(t *testing.T) {
	t.Run("non 2xx", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "slow down", http.StatusTooManyRequests)
		})
		_, err := client.Search(context.Background(), "squat")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("bad json", func(t *testing.T) {
		client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data": [`)
		})
		_, err := client.Search(context.Background(), "squat")
		assert.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		client := NewClient(server.URL, server.Client())
		server.Close()
		_, err := client.Search(context.Background(), "squat")
		assert.Error(t, err)
	})
}

func TestClient_GifURL(t *testing.T) {
	client := NewClient("", http.DefaultClient)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, "https://static.exercisedb.dev/media/abc123.gif", client.GifURL("abc123"))
}
