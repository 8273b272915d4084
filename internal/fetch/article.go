package fetch

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Article is a fetched news story reduced to text.
type Article struct {
	URL      string
	Title    string
	Text     string
	Platform Platform
	Rendered bool // true when the text came from headless browser rendering
}

// ArticleOptions configures FetchArticle.
type ArticleOptions struct {
	Fetch *Options
	// Browser enables the headless fallback for pages whose static HTML has too little text.
	Browser        bool
	BrowserTimeout time.Duration
	Logger         *zap.SugaredLogger

	// render is replaced in tests.
	render func(ctx context.Context, url string, timeout time.Duration, logger *zap.SugaredLogger) (string, error)
}

// FetchArticle downloads urlStr and extracts the story text using platform-specific selectors.
// When the static text is shorter than MinContentLength and Browser is set, the page is rendered
// headlessly and re-extracted; a failed render keeps the static text.
func FetchArticle(ctx context.Context, urlStr string, opts ArticleOptions) (*Article, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	render := opts.render
	if render == nil {
		render = WithBrowser
	}

	result, err := URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		return nil, err
	}

	platform := DetectPlatform(urlStr)
	article := &Article{URL: urlStr, Platform: platform}
	if err := article.fill(result.HTML); err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to extract article text", Cause: err}
	}

	if opts.Browser && ShouldUseBrowser(article.Text) {
		logger.Infow("static article text too short, rendering in browser", "url", urlStr, "chars", len(article.Text))
		html, err := render(ctx, urlStr, opts.BrowserTimeout, logger)
		if err != nil {
			logger.Warnw("browser rendering failed, keeping static text", "url", urlStr, "error", err)
			return article, nil
		}
		rendered := &Article{URL: urlStr, Platform: platform, Rendered: true}
		if err := rendered.fill(html); err == nil && len(rendered.Text) > len(article.Text) {
			return rendered, nil
		}
	}
	return article, nil
}

func (a *Article) fill(html string) error {
	text, err := ExtractMainText(html, PlatformContentSelectors(a.Platform), PlatformNoiseSelectors(a.Platform)...)
	if err != nil {
		return err
	}
	a.Text = text
	a.Title = ExtractTitle(html)
	return nil
}
