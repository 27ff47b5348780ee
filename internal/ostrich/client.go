// File: internal/ostrich/client.go
package ostrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/awnumar/memguard"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/assessment-export/api/schemas"
	"github.com/xkilldash9x/assessment-export/internal/config"
)

// maxErrorBody caps how much of a failed response is kept on an APIError.
const maxErrorBody = 4 << 10

// envelope is the wrapper every response body is delivered in.
type envelope struct {
	Response json.RawMessage `json:"response"`
}

// Client talks to the scoring service.
//
// Successful GET responses are memoized by request path for the lifetime of
// the Client. The cache is run-scoped: it is never persisted or invalidated.
// A Client is not safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *zap.Logger

	token string
	cache map[string]json.RawMessage
}

// NewClient builds a client for cfg.BaseURL. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(cfg config.APIConfig, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: cfg.UserAgent,
		logger:    logger.Named("ostrich"),
		cache:     make(map[string]json.RawMessage),
	}, nil
}

// Authenticate exchanges the API key held in key for a bearer token. The key
// is only decrypted for the duration of the request.
func (c *Client) Authenticate(ctx context.Context, key *memguard.Enclave) error {
	if key == nil {
		return fmt.Errorf("authenticate: no api key provided")
	}
	buf, err := key.Open()
	if err != nil {
		return fmt.Errorf("authenticate: failed to open api key enclave: %w", err)
	}
	body, err := json.Marshal(map[string]string{"apiKey": buf.String()})
	buf.Destroy()
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	defer memguard.WipeBytes(body)

	payload, err := c.do(ctx, http.MethodPost, "/v1/auth/token", body)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return fmt.Errorf("authenticate: decoding token: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("authenticate: %w", ErrUnauthenticated)
	}
	c.token = resp.Token
	return nil
}

// ListBusinessUnits returns the root forest of business units.
func (c *Client) ListBusinessUnits(ctx context.Context) ([]schemas.BusinessUnit, error) {
	var resp struct {
		BusinessUnits []schemas.BusinessUnit `json:"businessUnits"`
	}
	if err := c.get(ctx, "/v1/businessUnits/", &resp); err != nil {
		return nil, err
	}
	return resp.BusinessUnits, nil
}

// ListAssessments returns the assessments of one business unit in server order.
func (c *Client) ListAssessments(ctx context.Context, businessUnitID string) ([]schemas.Assessment, error) {
	var resp struct {
		Assessments []schemas.Assessment `json:"assessments"`
	}
	path := "/v1/businessUnits/" + url.PathEscape(businessUnitID) + "/assessments"
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Assessments, nil
}

// GetAssessmentScores returns the score set of one assessment.
func (c *Client) GetAssessmentScores(ctx context.Context, businessUnitID, assessmentID string) (*schemas.ScoreSet, error) {
	var set schemas.ScoreSet
	path := "/v1/businessUnits/" + url.PathEscape(businessUnitID) +
		"/assessments/" + url.PathEscape(assessmentID) + "/scores"
	if err := c.get(ctx, path, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// GetUser looks up a user record by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*schemas.User, error) {
	var user schemas.User
	if err := c.get(ctx, "/v1/users/"+url.PathEscape(userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CacheLen reports how many distinct GET responses are memoized.
func (c *Client) CacheLen() int {
	return len(c.cache)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if c.token == "" {
		return ErrUnauthenticated
	}

	payload, ok := c.cache[path]
	if ok {
		c.logger.Debug("Serving response from run cache", zap.String("path", path))
	} else {
		var err error
		if payload, err = c.do(ctx, http.MethodGet, path, nil); err != nil {
			return err
		}
		c.cache[path] = payload
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

// do performs one request and returns the unwrapped "response" payload.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		c.logger.Warn("Request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", apiErr.Body),
		)
		return nil, apiErr
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s %s: decoding response envelope: %w", method, path, err)
	}
	if len(env.Response) == 0 {
		return nil, fmt.Errorf("%s %s: response envelope is empty", method, path)
	}
	return env.Response, nil
}
