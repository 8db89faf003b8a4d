package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrUnexpectedStatus  = errors.New("openlibrary: unexpected status code")
	ErrMalformedResponse = errors.New("openlibrary: malformed response")
)

const DefaultBaseURL = "https://openlibrary.org"

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		baseURL:   strings.TrimRight(baseURL, "/"),
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// SubjectResponse matches subjects/{subject}.json
type SubjectResponse struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	WorkCount int    `json:"work_count"`
	Works     []Work `json:"works"`
}

type Author struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Work is one entry of a subject listing. Optional fields stay nil when the
// API omits them.
type Work struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	Authors          []Author `json:"authors"`
	FirstPublishYear *int     `json:"first_publish_year"`
	EditionCount     *int     `json:"edition_count"`
	CoverID          *int     `json:"cover_id"`
}

// FetchSubject performs the single listing request. There is no retry; a
// failure is returned as is.
func (c *Client) FetchSubject(ctx context.Context, subject string, limit int) (*SubjectResponse, error) {
	u := fmt.Sprintf("%s/subjects/%s.json?limit=%d", c.baseURL, url.PathEscape(subject), limit)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch subject %s: %w", subject, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var raw struct {
		SubjectResponse
		Works *[]Work `json:"works"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Works == nil {
		return nil, fmt.Errorf("%w: missing works", ErrMalformedResponse)
	}

	res := raw.SubjectResponse
	res.Works = *raw.Works
	return &res, nil
}
