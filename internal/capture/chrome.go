package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/nao1215/uxaudit/internal/model"
)

// ChromeCapturer captures screenshots with a local headless Chrome.
// Each capture starts its own browser so captures never share state.
type ChromeCapturer struct {
	width   int64
	height  int64
	quality int
	opts    []chromedp.ExecAllocatorOption
}

// ChromeOption configures a ChromeCapturer.
type ChromeOption func(*ChromeCapturer)

// WithViewport sets the browser viewport used before the full-page capture.
func WithViewport(width, height int64) ChromeOption {
	return func(c *ChromeCapturer) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}

// WithExecPath sets the Chrome executable.
func WithExecPath(path string) ChromeOption {
	return func(c *ChromeCapturer) {
		if path != "" {
			c.opts = append(c.opts, chromedp.ExecPath(path))
		}
	}
}

// NewChromeCapturer creates a capturer with a 1280x800 viewport.
func NewChromeCapturer(opts ...ChromeOption) *ChromeCapturer {
	c := &ChromeCapturer{
		width:   1280,
		height:  800,
		quality: 100,
		opts: append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("hide-scrollbars", true),
		),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capture navigates to targetURL and returns a full-page PNG screenshot.
func (c *ChromeCapturer) Capture(ctx context.Context, targetURL string) (*Result, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, c.opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var (
		buf   []byte
		title string
	)
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(c.width, c.height),
		chromedp.Navigate(targetURL),
		chromedp.Title(&title),
		chromedp.FullScreenshot(&buf, c.quality),
	)
	if err != nil {
		return nil, newError(KindNetwork, fmt.Errorf("browser capture of %s: %w", targetURL, err))
	}
	if len(buf) == 0 {
		return nil, newError(KindNoResult, ErrNoScreenshot)
	}

	img, err := model.NewRasterImage(buf)
	if err != nil {
		return nil, newError(KindNoResult, errors.Join(ErrNoScreenshot, err))
	}
	return &Result{Image: img, Title: title}, nil
}
