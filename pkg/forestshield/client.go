package forestshield

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://localhost:3000"

// Client defines the Forest Shield backend REST operations.
type Client interface {
	ListRegions(ctx context.Context, filter RegionFilter) ([]Region, error)
	GetRegion(ctx context.Context, id string) (*Region, error)
	CreateRegion(ctx context.Context, dto CreateRegionDto) (*Region, error)
	UpdateRegion(ctx context.Context, id string, dto UpdateRegionDto) (*Region, error)
	DeleteRegion(ctx context.Context, id string) error
	RegionVisualizations(ctx context.Context, regionID string) ([]RegionVisualization, error)

	ListAlerts(ctx context.Context, filter AlertFilter) ([]Alert, error)
	AcknowledgeAlert(ctx context.Context, id string) error
	ListSubscriptions(ctx context.Context) ([]AlertSubscription, error)
	Subscribe(ctx context.Context, email string) (*AlertSubscription, error)
	Unsubscribe(ctx context.Context, email string) error

	Heatmap(ctx context.Context, q HeatmapQuery) (*HeatmapResponse, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]ActiveJob, error)
	TriggerAnalysis(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error)

	Stats(ctx context.Context) (*DashboardStats, error)
	ServiceMetrics(ctx context.Context) ([]ServiceMetric, error)
	Logs(ctx context.Context, q LogQuery) ([]LogEntry, error)
	Executions(ctx context.Context, limit int) ([]StepFunctionExecution, error)
	Cost(ctx context.Context, days int) (*CostReport, error)
	Health(ctx context.Context) (*SystemHealth, error)
	Activity(ctx context.Context, limit int) ([]ActivityItem, error)
}

// APIError is returned when the backend responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("forestshield: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("forestshield: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAPIKey sends the key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return func(c *httpClient) {
		c.apiKey = key
	}
}

// WithRateLimit caps outgoing requests at perSec with the given burst.
// A non-positive perSec disables limiting.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		if perSec <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new backend client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) ListRegions(ctx context.Context, filter RegionFilter) ([]Region, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	var out []Region
	if err := c.get(ctx, "/dashboard/regions", q, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: list regions")
	}
	return out, nil
}

func (c *httpClient) GetRegion(ctx context.Context, id string) (*Region, error) {
	var out Region
	if err := c.get(ctx, "/dashboard/regions/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, eris.Wrapf(err, "forestshield: get region %s", id)
	}
	return &out, nil
}

func (c *httpClient) CreateRegion(ctx context.Context, dto CreateRegionDto) (*Region, error) {
	var out Region
	if err := c.send(ctx, http.MethodPost, "/dashboard/regions", dto, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: create region")
	}
	return &out, nil
}

func (c *httpClient) UpdateRegion(ctx context.Context, id string, dto UpdateRegionDto) (*Region, error) {
	var out Region
	if err := c.send(ctx, http.MethodPut, "/dashboard/regions/"+url.PathEscape(id), dto, &out); err != nil {
		return nil, eris.Wrapf(err, "forestshield: update region %s", id)
	}
	return &out, nil
}

func (c *httpClient) DeleteRegion(ctx context.Context, id string) error {
	if err := c.send(ctx, http.MethodDelete, "/dashboard/regions/"+url.PathEscape(id), nil, nil); err != nil {
		return eris.Wrapf(err, "forestshield: delete region %s", id)
	}
	return nil
}

func (c *httpClient) RegionVisualizations(ctx context.Context, regionID string) ([]RegionVisualization, error) {
	var out []RegionVisualization
	if err := c.get(ctx, "/dashboard/regions/"+url.PathEscape(regionID)+"/visualizations", nil, &out); err != nil {
		return nil, eris.Wrapf(err, "forestshield: region visualizations %s", regionID)
	}
	return out, nil
}

func (c *httpClient) ListAlerts(ctx context.Context, filter AlertFilter) ([]Alert, error) {
	q := url.Values{}
	if filter.Level != "" {
		q.Set("level", string(filter.Level))
	}
	if filter.Acknowledged != nil {
		q.Set("acknowledged", strconv.FormatBool(*filter.Acknowledged))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	var out []Alert
	if err := c.get(ctx, "/dashboard/alerts", q, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: list alerts")
	}
	return out, nil
}

func (c *httpClient) AcknowledgeAlert(ctx context.Context, id string) error {
	if err := c.send(ctx, http.MethodPut, "/dashboard/alerts/"+url.PathEscape(id)+"/acknowledge", nil, nil); err != nil {
		return eris.Wrapf(err, "forestshield: acknowledge alert %s", id)
	}
	return nil
}

func (c *httpClient) ListSubscriptions(ctx context.Context) ([]AlertSubscription, error) {
	var out []AlertSubscription
	if err := c.get(ctx, "/dashboard/alerts/subscriptions", nil, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: list subscriptions")
	}
	return out, nil
}

func (c *httpClient) Subscribe(ctx context.Context, email string) (*AlertSubscription, error) {
	var out AlertSubscription
	body := map[string]string{"email": email}
	if err := c.send(ctx, http.MethodPost, "/dashboard/alerts/subscribe", body, &out); err != nil {
		return nil, eris.Wrapf(err, "forestshield: subscribe %s", email)
	}
	return &out, nil
}

func (c *httpClient) Unsubscribe(ctx context.Context, email string) error {
	if err := c.send(ctx, http.MethodDelete, "/dashboard/alerts/subscribe/"+url.PathEscape(email), nil, nil); err != nil {
		return eris.Wrapf(err, "forestshield: unsubscribe %s", email)
	}
	return nil
}

func (c *httpClient) Heatmap(ctx context.Context, hq HeatmapQuery) (*HeatmapResponse, error) {
	q := url.Values{}
	q.Set("north", formatFloat(hq.North))
	q.Set("south", formatFloat(hq.South))
	q.Set("east", formatFloat(hq.East))
	q.Set("west", formatFloat(hq.West))
	if hq.Days > 0 {
		q.Set("days", strconv.Itoa(hq.Days))
	}
	var out HeatmapResponse
	if err := c.get(ctx, "/dashboard/heatmap", q, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: heatmap")
	}
	return &out, nil
}

func (c *httpClient) ListJobs(ctx context.Context, filter JobFilter) ([]ActiveJob, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	var out []ActiveJob
	if err := c.get(ctx, "/dashboard/jobs", q, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: list jobs")
	}
	return out, nil
}

func (c *httpClient) TriggerAnalysis(ctx context.Context, req AnalysisRequest) (*AnalysisResponse, error) {
	var out AnalysisResponse
	if err := c.send(ctx, http.MethodPost, "/sentinel/step-functions/trigger", req, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: trigger analysis")
	}
	return &out, nil
}

func (c *httpClient) Stats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.get(ctx, "/dashboard/stats", nil, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: stats")
	}
	return &out, nil
}

func (c *httpClient) ServiceMetrics(ctx context.Context) ([]ServiceMetric, error) {
	var out []ServiceMetric
	if err := c.get(ctx, "/dashboard/aws/services", nil, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: service metrics")
	}
	return out, nil
}

func (c *httpClient) Logs(ctx context.Context, lq LogQuery) ([]LogEntry, error) {
	q := url.Values{}
	if lq.Service != "" {
		q.Set("service", lq.Service)
	}
	if lq.Level != "" {
		q.Set("level", lq.Level)
	}
	if lq.Limit > 0 {
		q.Set("limit", strconv.Itoa(lq.Limit))
	}
	var out []LogEntry
	if err := c.get(ctx, "/dashboard/aws/logs", q, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: logs")
	}
	return out, nil
}

func (c *httpClient) Executions(ctx context.Context, limit int) ([]StepFunctionExecution, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []StepFunctionExecution
	if err := c.get(ctx, "/dashboard/aws/step-functions/executions", q, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: executions")
	}
	return out, nil
}

func (c *httpClient) Cost(ctx context.Context, days int) (*CostReport, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}
	var out CostReport
	if err := c.get(ctx, "/dashboard/aws/costs", q, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: cost")
	}
	return &out, nil
}

func (c *httpClient) Health(ctx context.Context) (*SystemHealth, error) {
	var out SystemHealth
	if err := c.get(ctx, "/dashboard/health", nil, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: health")
	}
	return &out, nil
}

func (c *httpClient) Activity(ctx context.Context, limit int) ([]ActivityItem, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []ActivityItem
	if err := c.get(ctx, "/dashboard/activity", q, &out); err != nil {
		return nil, eris.Wrap(err, "forestshield: activity")
	}
	return out, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	return c.do(req, out)
}

func (c *httpClient) send(ctx context.Context, method, path string, body any, out any) error {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			Body:       string(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

// errorMessage extracts the "message" field of an error body. Validation
// failures carry it as a list of strings.
func errorMessage(data []byte) string {
	var body struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Message) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(body.Message, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(body.Message, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
