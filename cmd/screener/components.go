package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gurmeharsomal/media-screening-tool/internal/config"
	"github.com/gurmeharsomal/media-screening-tool/internal/conflict"
	"github.com/gurmeharsomal/media-screening-tool/internal/extract"
	"github.com/gurmeharsomal/media-screening-tool/internal/llm"
	"github.com/gurmeharsomal/media-screening-tool/internal/scoring"
	"github.com/gurmeharsomal/media-screening-tool/internal/screening"
	"github.com/gurmeharsomal/media-screening-tool/internal/validation"
	"github.com/gurmeharsomal/media-screening-tool/internal/variants"
)

// newLLMClient is replaced in tests.
var newLLMClient = llm.NewClient

// pipeline is the fully wired screening stack.
type pipeline struct {
	orchestrator *screening.Orchestrator
	client       llm.Client // nil when no API key is configured
}

// Close releases the LLM client, if any.
func (p *pipeline) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// loadGenerator builds the variant generator from the configured nickname dataset. A missing dataset
// falls back to the built-in table.
func loadGenerator(cfg *config.Config, logger *zap.SugaredLogger) *variants.Generator {
	nicknames, err := variants.LoadNicknamesOrDefault(cfg.NicknamesPath)
	if err != nil {
		logger.Warnw("using built-in nickname table", "path", cfg.NicknamesPath, "error", err)
	}
	logger.Debugw("nickname table loaded", "names", nicknames.Len())
	return variants.NewGenerator(nicknames)
}

// buildPipeline wires Stage 1, the Stage 2 validator and the orchestrator from cfg.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*pipeline, error) {
	table := conflict.DefaultTable()
	if cfg.OccupationsPath != "" {
		loaded, err := conflict.LoadTable(cfg.OccupationsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load occupations table: %w", err)
		}
		table = loaded
	}
	detector := conflict.NewDetector(table, conflict.WithContextWindow(cfg.OccupationWindow))

	p := &pipeline{}
	if key := cfg.APIKey(); key != "" {
		llmCfg, err := cfg.LLMConfig()
		if err != nil {
			return nil, err
		}
		client, err := newLLMClient(ctx, llmCfg, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		p.client = client
	}

	chain, err := buildExtractor(cfg, p.client, logger)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	var validator validation.Validator
	if p.client != nil {
		validator, err = validation.NewLLMValidator(p.client,
			validation.WithCacheSize(cfg.Stage2CacheSize),
			validation.WithMinConfidence(cfg.MinConfidence),
			validation.WithLogger(logger))
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to create validator: %w", err)
		}
	} else {
		logger.Warnw("no LLM API key configured; review cases will fail closed", "provider", cfg.LLMProvider)
		validator = validation.Unavailable{Reason: fmt.Sprintf("no API key configured for provider %q", cfg.LLMProvider)}
	}

	engine := scoring.NewEngine(loadGenerator(cfg, logger), chain, detector,
		scoring.WithThresholds(cfg.Thresholds),
		scoring.WithLogger(logger))

	p.orchestrator = screening.New(engine, validator,
		screening.WithAcceptConfidence(cfg.AcceptConfidence),
		screening.WithExcerptWindow(cfg.ExcerptWindow),
		screening.WithLogger(logger))
	return p, nil
}

// buildExtractor selects the primary person extractor; the regex heuristic is always the fallback.
func buildExtractor(cfg *config.Config, client llm.Client, logger *zap.SugaredLogger) (*extract.Chain, error) {
	regex := extract.NewRegexExtractor()
	switch cfg.NERProvider {
	case config.NERProse, "":
		return extract.NewChain(extract.NewProseExtractor(), regex, logger), nil
	case config.NERLLM:
		if client == nil {
			logger.Warnw("LLM person extraction requested without an API key; using prose")
			return extract.NewChain(extract.NewProseExtractor(), regex, logger), nil
		}
		return extract.NewChain(extract.NewLLMExtractor(client), regex, logger), nil
	case config.NERRegex:
		return extract.NewChain(regex, nil, logger), nil
	default:
		return nil, fmt.Errorf("unknown NER provider %q", cfg.NERProvider)
	}
}
