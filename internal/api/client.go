package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/auracli/aura/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Aura-CLI/1.0"

	sectionsPath     = "/api/mediaserver/sections"
	sectionItemsPath = "/api/mediaserver/sections/items"
)

// Options tunes the HTTP client
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables rate limiting
}

// Client implements domain.SectionRepository against the aura backend
type Client struct {
	baseURL    string
	token      string
	clientID   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new aura API client
func NewClient(baseURL, token, clientID string, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// doRequest performs an authenticated GET and returns the body of a 200 response
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.clientID != "" {
		req.Header.Set("X-Aura-Client-Identifier", c.clientID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("aura request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error("aura request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, domain.ErrAuthFailed
	}

	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
		c.logger.Error("aura request error", "status", resp.StatusCode, "message", apiErr.Message)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, apiErr.Message)
	}
	c.logger.Error("aura request error", "status", resp.StatusCode, "bodyLen", len(body))
	return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

// GetSections returns every library section configured on the backend
func (c *Client) GetSections(ctx context.Context) ([]domain.LibrarySection, error) {
	body, err := c.doRequest(ctx, sectionsPath, nil)
	if err != nil {
		return nil, err
	}

	var dtos []sectionDTO
	if err := json.Unmarshal(body, &dtos); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("failed to parse sections: %w", err)
	}

	return MapSections(dtos), nil
}

// GetSectionItems returns one page of a section's items starting at offset.
// Returns (items, totalSize, error)
// If limit=0 the backend picks its own page size.
func (c *Client) GetSectionItems(ctx context.Context, section domain.LibrarySection, offset, limit int) ([]*domain.MediaItem, int, error) {
	if section.ID == "" {
		return nil, 0, domain.ErrSectionNotFound
	}

	query := url.Values{}
	query.Set("sectionID", section.ID)
	query.Set("sectionTitle", section.Title)
	query.Set("sectionType", section.Type)
	query.Set("sectionStart", strconv.Itoa(offset))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	body, err := c.doRequest(ctx, sectionItemsPath, query)
	if err != nil {
		return nil, 0, err
	}

	var page sectionItemsResponse
	if err := json.Unmarshal(body, &page); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, 0, fmt.Errorf("failed to parse section items: %w", err)
	}

	return MapMediaItems(page.MediaItems, section), page.TotalSize, nil
}

// IsAuthError reports whether err means the backend rejected our credentials
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrAuthFailed)
}
