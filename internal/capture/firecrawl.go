package capture

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/uxaudit/internal/model"
)

// DefaultFirecrawlURL is the public Firecrawl API endpoint.
const DefaultFirecrawlURL = "https://api.firecrawl.dev"

// DefaultMaxScreenshotBytes caps a downloaded screenshot at 32MB.
const DefaultMaxScreenshotBytes int64 = 32 * 1024 * 1024

// maxAPIResponseBytes caps the scrape API response. Inline base64
// screenshots are larger than the decoded image, hence the headroom.
const maxAPIResponseBytes int64 = 64 * 1024 * 1024

// fullPageScreenshot is the Firecrawl format for a full-page capture.
const fullPageScreenshot = "screenshot@fullPage"

// FirecrawlCapturer captures screenshots through the Firecrawl scrape API.
type FirecrawlCapturer struct {
	// client is shared by the scrape request and the asset download.
	client *http.Client

	apiKey  string
	baseURL string

	// maxScreenshotBytes bounds the downloaded asset.
	maxScreenshotBytes int64

	// waitFor asks Firecrawl to wait before taking the screenshot.
	waitFor time.Duration
}

// FirecrawlOption configures a FirecrawlCapturer.
type FirecrawlOption func(*FirecrawlCapturer)

// WithHTTPClient sets the HTTP client used for the API and downloads.
func WithHTTPClient(client *http.Client) FirecrawlOption {
	return func(c *FirecrawlCapturer) {
		if client != nil {
			c.client = client
		}
	}
}

// WithBaseURL overrides the Firecrawl API base URL.
func WithBaseURL(baseURL string) FirecrawlOption {
	return func(c *FirecrawlCapturer) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithMaxScreenshotBytes sets the maximum accepted screenshot size.
func WithMaxScreenshotBytes(n int64) FirecrawlOption {
	return func(c *FirecrawlCapturer) {
		if n > 0 {
			c.maxScreenshotBytes = n
		}
	}
}

// WithWaitFor sets how long Firecrawl waits after load before capturing.
func WithWaitFor(d time.Duration) FirecrawlOption {
	return func(c *FirecrawlCapturer) {
		c.waitFor = d
	}
}

// NewFirecrawlCapturer creates a capturer authenticated with apiKey.
func NewFirecrawlCapturer(apiKey string, opts ...FirecrawlOption) *FirecrawlCapturer {
	c := &FirecrawlCapturer{
		client:             &http.Client{Timeout: 2 * time.Minute},
		apiKey:             apiKey,
		baseURL:            DefaultFirecrawlURL,
		maxScreenshotBytes: DefaultMaxScreenshotBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type scrapeRequest struct {
	URL     string   `json:"url"`
	Formats []string `json:"formats"`
	WaitFor int64    `json:"waitFor,omitempty"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    *struct {
		Screenshot string `json:"screenshot"`
		Metadata   struct {
			Title      string `json:"title"`
			StatusCode int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

// Capture requests a full-page screenshot of targetURL and downloads it.
func (c *FirecrawlCapturer) Capture(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := c.scrape(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil || strings.TrimSpace(resp.Data.Screenshot) == "" {
		if resp.Error != "" {
			return nil, newError(KindNoResult, fmt.Errorf("%w: %s", ErrNoScreenshot, resp.Error))
		}
		return nil, newError(KindNoResult, ErrNoScreenshot)
	}

	data, err := c.fetchScreenshot(ctx, strings.TrimSpace(resp.Data.Screenshot))
	if err != nil {
		return nil, err
	}
	img, err := model.NewRasterImage(data)
	if err != nil {
		return nil, newError(KindDownloadFailed, fmt.Errorf("screenshot is not a decodable image: %w", err))
	}

	return &Result{Image: img, Title: resp.Data.Metadata.Title}, nil
}

func (c *FirecrawlCapturer) scrape(ctx context.Context, targetURL string) (*scrapeResponse, error) {
	body, err := json.Marshal(scrapeRequest{
		URL:     targetURL,
		Formats: []string{fullPageScreenshot},
		WaitFor: c.waitFor.Milliseconds(),
	})
	if err != nil {
		return nil, newError(KindNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, newError(KindNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, newError(KindNetwork, fmt.Errorf("failed to read scrape response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(KindNetwork, fmt.Errorf("scrape request returned status %d", resp.StatusCode))
	}

	var out scrapeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, newError(KindNoResult, fmt.Errorf("failed to decode scrape response: %w", err))
	}
	return &out, nil
}

// fetchScreenshot resolves the screenshot reference, which is either an
// asset URL or an inline data URI.
func (c *FirecrawlCapturer) fetchScreenshot(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "data:") {
		return c.decodeDataURI(ref)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, newError(KindDownloadFailed, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, newError(KindDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindDownloadFailed, fmt.Errorf("screenshot download returned status %d", resp.StatusCode))
	}

	// Read one byte past the limit to tell "exactly at limit" from "over".
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxScreenshotBytes+1))
	if err != nil {
		return nil, newError(KindDownloadFailed, err)
	}
	if int64(len(data)) > c.maxScreenshotBytes {
		return nil, newError(KindDownloadFailed, ErrBodyTooLarge)
	}
	return data, nil
}

func (c *FirecrawlCapturer) decodeDataURI(ref string) ([]byte, error) {
	_, payload, ok := strings.Cut(ref, ",")
	if !ok {
		return nil, newError(KindNoResult, errors.New("malformed screenshot data URI"))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, newError(KindNoResult, fmt.Errorf("malformed screenshot data URI: %w", err))
	}
	if int64(len(data)) > c.maxScreenshotBytes {
		return nil, newError(KindDownloadFailed, ErrBodyTooLarge)
	}
	return data, nil
}
