package exercisedb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/rerack/internal/telemetry/tracing"
)

const (
	DefaultBaseURL  = "https://exercisedb-api.vercel.app/api/v1"
	DefaultMediaURL = "https://static.exercisedb.dev/media"
)

type Exercise struct {
	ExerciseID       string   `json:"exerciseId"`
	Name             string   `json:"name"`
	GifURL           string   `json:"gifUrl"`
	TargetMuscles    []string `json:"targetMuscles"`
	BodyParts        []string `json:"bodyParts"`
	Equipments       []string `json:"equipments"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
	Instructions     []string `json:"instructions"`
}

type Pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type Response struct {
	Data       []Exercise  `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Client is a read-only client of the exercise reference catalog.
type Client struct {
	baseURL    string
	mediaURL   string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		mediaURL:   DefaultMediaURL,
		httpClient: httpClient,
	}
}

func (c *Client) get(ctx context.Context, spanName, path string, query url.Values) (_ *Response, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, spanName)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	reqUrl := c.baseURL + path
	if len(query) > 0 {
		reqUrl += "?" + query.Encode()
	}
	span.SetAttributes(attribute.String("exercisedb.url", reqUrl))
	log.Tracef("calling exercisedb: %s", reqUrl)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("exercisedb api error: %d", resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read exercisedb response bytes: %w", err)
	}

	result := &Response{}
	if err := json.Unmarshal(respBytes, result); err != nil {
		return nil, fmt.Errorf("unmarshal exercisedb response: %w", err)
	}
	if result.Data == nil {
		result.Data = []Exercise{}
	}
	return result, nil
}

// Search finds exercises by free text name.
func (c *Client) Search(ctx context.Context, query string) ([]Exercise, error) {
	resp, err := c.get(ctx, "exercisedb.search", "/exercises", url.Values{"search": {query}})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ByBodyPart(ctx context.Context, bodyPart string) ([]Exercise, error) {
	resp, err := c.get(ctx, "exercisedb.byBodyPart", "/exercises/bodyPart/"+url.PathEscape(bodyPart), nil)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ByEquipment(ctx context.Context, equipment string) ([]Exercise, error) {
	resp, err := c.get(ctx, "exercisedb.byEquipment", "/exercises/equipment/"+url.PathEscape(equipment), nil)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ByTargetMuscle(ctx context.Context, target string) ([]Exercise, error) {
	resp, err := c.get(ctx, "exercisedb.byTargetMuscle", "/exercises/target/"+url.PathEscape(target), nil)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// List pages through the whole catalog.
func (c *Client) List(ctx context.Context, limit, offset int) (*Response, error) {
	return c.get(ctx, "exercisedb.list", "/exercises", url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	})
}

// GifURL builds the media URL for a catalog exercise id.
func (c *Client) GifURL(exerciseID string) string {
	return fmt.Sprintf("%s/%s.gif", c.mediaURL, exerciseID)
}
