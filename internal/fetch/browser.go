package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// MinContentLength is the static text length below which a page is assumed to be script-rendered
// or hidden behind a consent wall.
const MinContentLength = 500

// DefaultBrowserTimeout bounds a single headless render.
const DefaultBrowserTimeout = 30 * time.Second

// settleDelay gives client-side rendering time to fill in the story body.
const settleDelay = 2 * time.Second

// dismissConsent clicks the first visible cookie or consent button, if any. News sites often cover
// the story with one.
const dismissConsent = `(() => {
  const labels = ["accept", "agree", "i agree", "accept all", "got it", "continue"];
  for (const b of document.querySelectorAll("button, [role=button]")) {
    const t = (b.innerText || "").trim().toLowerCase();
    if (labels.includes(t) && b.offsetParent !== null) { b.click(); return true; }
  }
  return false;
})()`

// ShouldUseBrowser reports whether extracted static text is too short to screen.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// browserOptions are the allocator flags for a throwaway headless Chrome.
func browserOptions() []chromedp.ExecAllocatorOption {
	return append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(DefaultUserAgent),
	)
}

// WithBrowser renders url in headless Chrome and returns the page HTML after scripts have run.
// Chrome or Chromium must be installed.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, logger *zap.SugaredLogger) (string, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, browserOptions()...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()

	start := time.Now()
	var (
		html      string
		dismissed bool
	)
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(dismissConsent, &dismissed),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	logger.Debugw("rendered page",
		"url", url,
		"bytes", len(html),
		"consent_dismissed", dismissed,
		"elapsed", time.Since(start))
	return html, nil
}
