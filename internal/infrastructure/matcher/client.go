package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/visualmatch/client/internal/domain"
)

// maxErrorBody caps how much of an error response is kept for diagnostics
const maxErrorBody = 512

// Client handles communication with the visual-similarity search service
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit throttles outbound searches to perSecond with the given burst
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.rateLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new search service client.
// The default HTTP client has no timeout; callers bound requests through the context.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Inf, 1),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchImage uploads the image as a single-part multipart form and returns the ranked matches
func (c *Client) SearchImage(ctx context.Context, req *domain.SearchRequest) ([]domain.MatchResult, error) {
	body, contentType, err := encodeUpload(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	c.logger.Debug("searching by image",
		zap.String("candidate_id", req.CandidateID),
		zap.String("media_type", req.MediaType),
		zap.Int("bytes", len(req.Content)),
	)

	return c.search(ctx, body, contentType)
}

// SearchURL asks the service to fetch and search an image by URL
func (c *Client) SearchURL(ctx context.Context, imageURL string) ([]domain.MatchResult, error) {
	payload, err := json.Marshal(urlSearchRequest{URL: imageURL})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	c.logger.Debug("searching by url", zap.String("url", imageURL))

	return c.search(ctx, bytes.NewReader(payload), "application/json")
}

// search executes one POST to {baseURL}/search. There are no retries.
func (c *Client) search(ctx context.Context, body io.Reader, contentType string) ([]domain.MatchResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrSearchAPIFailure, err)
	}

	resp, err := c.doRequest(ctx, body, contentType)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, domain.ErrNoMatches
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("search service error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrSearchAPIFailure, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	matches, err := decodeMatches(resp.Body)
	if err != nil {
		c.logger.Warn("search response decode failed", zap.Error(err))
		return nil, err
	}

	c.logger.Debug("search completed", zap.Int("matches", len(matches)))
	return matches, nil
}

// doRequest executes the HTTP POST with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "visualmatch/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("search request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchAPIFailure, err)
	}

	return resp, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeUpload frames the image bytes as one "image" file part
func encodeUpload(req *domain.SearchRequest) (io.Reader, string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadField, quoteEscaper.Replace(req.FileName)))
	header.Set("Content-Type", mediaType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Content); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}
