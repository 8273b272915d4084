package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gurmeharsomal/media-screening-tool/internal/fetch"
	"github.com/gurmeharsomal/media-screening-tool/internal/observability"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
)

// maxArticleBytes bounds articles read from files or stdin.
const maxArticleBytes = 5 << 20

type screenOptions struct {
	name       string
	dob        string
	occupation string
	article    string
	url        string
	browser    bool
	jsonOutput bool
}

func newScreenCmd(a *app) *cobra.Command {
	opts := &screenOptions{}

	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Screen one article against a candidate",
		Long: "Screen an article against a candidate and print the verdict. The article is read from --article, " +
			"fetched from --url, or piped on stdin.",
		Example: `  screener screen --name "William Johnson" --dob 1980-04-02 --article story.txt
  curl -s https://example.com/story | screener screen --name "Jane Doe" --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runScreen(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Candidate full name (required)")
	cmd.Flags().StringVar(&opts.dob, "dob", "", "Candidate date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.occupation, "occupation", "", "Candidate occupation")
	cmd.Flags().StringVarP(&opts.article, "article", "a", "", "Path to article text file")
	cmd.Flags().StringVarP(&opts.url, "url", "u", "", "URL to fetch the article from")
	cmd.Flags().BoolVar(&opts.browser, "browser", false, "Render the page in a headless browser when static HTML has little text")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print the verdict as JSON")

	_ = cmd.MarkFlagRequired("name")
	cmd.MarkFlagsMutuallyExclusive("article", "url")
	return cmd
}

func (a *app) runScreen(ctx context.Context, opts *screenOptions, stdin io.Reader, out io.Writer) error {
	defer func() { _ = a.logger.Sync() }()

	document, err := a.readArticle(ctx, opts, stdin)
	if err != nil {
		return err
	}
	if strings.TrimSpace(document) == "" {
		return errors.New("article is empty")
	}

	p, err := buildPipeline(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	profile := types.CandidateProfile{Name: opts.name, DOB: opts.dob, Occupation: opts.occupation}
	verdict, err := p.orchestrator.Screen(ctx, profile, document)
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(verdict)
	}
	observability.NewPrinter(out).PrintVerdict(profile, verdict)
	return nil
}

// readArticle returns the article text from the first configured source.
func (a *app) readArticle(ctx context.Context, opts *screenOptions, stdin io.Reader) (string, error) {
	switch {
	case opts.article != "":
		data, err := os.ReadFile(opts.article)
		if err != nil {
			return "", fmt.Errorf("failed to read article: %w", err)
		}
		return fetch.CleanText(string(data)), nil

	case opts.url != "":
		article, err := fetch.FetchArticle(ctx, opts.url, fetch.ArticleOptions{
			Browser: opts.browser || a.cfg.UseBrowser,
			Logger:  a.logger,
		})
		if err != nil {
			return "", fmt.Errorf("failed to fetch article: %w", err)
		}
		a.logger.Debugw("article fetched",
			"url", article.URL,
			"title", article.Title,
			"platform", article.Platform,
			"rendered", article.Rendered,
			"chars", len(article.Text))
		return article.Text, nil

	case !isTerminal(stdin):
		data, err := io.ReadAll(io.LimitReader(stdin, maxArticleBytes))
		if err != nil {
			return "", fmt.Errorf("failed to read article from stdin: %w", err)
		}
		return fetch.CleanText(string(data)), nil

	default:
		return "", errors.New("no article provided: use --article, --url, or pipe text on stdin")
	}
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
