// Package validation implements Stage 2: an LLM judgment on borderline Stage 1 results.
//
// Validation always produces a result. Any failure along the way (provider error, malformed or
// off-schema response) yields a fail-closed no_match with confidence 0 and the error recorded.
package validation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gurmeharsomal/media-screening-tool/internal/llm"
	"github.com/gurmeharsomal/media-screening-tool/internal/prompts"
	"github.com/gurmeharsomal/media-screening-tool/internal/schemas"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
)

// Defaults for the LLM validator.
const (
	DefaultCacheSize     = 1000
	DefaultMinConfidence = 0.80
	DefaultTimeout       = 45 * time.Second
)

// Request is the evidence handed to Stage 2.
type Request struct {
	Profile             types.CandidateProfile
	Excerpt             string
	Stage1              types.Stage1Result
	ExtractedNames      []string
	DOBConflicts        string
	OccupationConflicts string
}

// Validator judges whether an excerpt is about the candidate.
type Validator interface {
	Validate(ctx context.Context, req Request) types.Stage2Result
}

// FailClosed returns the result used whenever validation cannot complete.
func FailClosed(err error) types.Stage2Result {
	msg := err.Error()
	return types.Stage2Result{
		Decision:         types.DecisionNoMatch,
		Confidence:       0,
		EvidenceSentence: "Error: " + msg,
		Reasons:          "LLM validation failed due to error: " + msg,
		Error:            msg,
	}
}

// Unavailable is a Validator used when no LLM provider is configured. It always fails closed.
type Unavailable struct {
	Reason string
}

// Validate implements Validator.
func (u Unavailable) Validate(context.Context, Request) types.Stage2Result {
	reason := u.Reason
	if reason == "" {
		reason = "no LLM provider configured"
	}
	return FailClosed(fmt.Errorf("stage 2 unavailable: %s", reason))
}

// LLMValidator validates through an llm.Client and memoizes successful results.
type LLMValidator struct {
	client        llm.Client
	tier          llm.ModelTier
	cache         *lru.Cache[string, types.Stage2Result]
	group         singleflight.Group
	minConfidence float64
	timeout       time.Duration
	systemPrompt  string
	userTemplate  *prompts.Template
	logger        *zap.SugaredLogger
}

// Option configures an LLMValidator.
type Option func(*settings)

type settings struct {
	cacheSize     int
	minConfidence float64
	timeout       time.Duration
	tier          llm.ModelTier
	logger        *zap.SugaredLogger
}

// WithCacheSize sets the number of memoized results kept.
func WithCacheSize(n int) Option {
	return func(s *settings) { s.cacheSize = n }
}

// WithMinConfidence sets the confidence below which a model "match" is turned into no_match.
func WithMinConfidence(c float64) Option {
	return func(s *settings) { s.minConfidence = c }
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithTier selects the model tier used for validation.
func WithTier(tier llm.ModelTier) Option {
	return func(s *settings) { s.tier = tier }
}

// WithLogger sets the validator logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *settings) { s.logger = logger }
}

// NewLLMValidator creates a validator backed by client.
func NewLLMValidator(client llm.Client, opts ...Option) (*LLMValidator, error) {
	if client == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	s := settings{
		cacheSize:     DefaultCacheSize,
		minConfidence: DefaultMinConfidence,
		timeout:       DefaultTimeout,
		tier:          llm.TierStandard,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}

	cache, err := lru.New[string, types.Stage2Result](s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage 2 cache: %w", err)
	}
	system, err := prompts.Get("validation.json", "stage2-system")
	if err != nil {
		return nil, err
	}
	user, err := prompts.Load("validation.json", "stage2-user")
	if err != nil {
		return nil, err
	}
	if _, err := user.Render(promptFields(Request{})); err != nil {
		return nil, err
	}

	return &LLMValidator{
		client:        client,
		tier:          s.tier,
		cache:         cache,
		minConfidence: s.minConfidence,
		timeout:       s.timeout,
		systemPrompt:  system,
		userTemplate:  user,
		logger:        s.logger,
	}, nil
}

// CacheLen returns the number of memoized results.
func (v *LLMValidator) CacheLen() int {
	return v.cache.Len()
}

// Validate implements Validator. Identical requests are answered from the cache and concurrent
// identical requests share a single model call. Failures are never cached.
func (v *LLMValidator) Validate(ctx context.Context, req Request) types.Stage2Result {
	if check := CheckInjection(req.Excerpt); !check.IsSafe {
		v.logger.Warnw("possible prompt injection in article excerpt", "reason", check.Reason())
	}

	prompt := v.BuildPrompt(req)
	key := v.cacheKey(prompt)

	if cached, ok := v.cache.Get(key); ok {
		v.logger.Debugw("stage 2 cache hit", "key", key[:12])
		return cached
	}

	// The shared call outlives any single caller; each caller only waits on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := v.group.DoChan(key, func() (interface{}, error) {
		result, err := v.call(shared, prompt)
		if err != nil {
			return nil, err
		}
		v.cache.Add(key, result)
		return result, nil
	})

	select {
	case <-ctx.Done():
		v.logger.Warnw("stage 2 validation abandoned", "error", ctx.Err())
		return FailClosed(fmt.Errorf("LLM generation failed: %w", ctx.Err()))
	case res := <-ch:
		if res.Err != nil {
			v.logger.Warnw("stage 2 validation failed closed", "error", res.Err)
			return FailClosed(res.Err)
		}
		return res.Val.(types.Stage2Result)
	}
}

type modelResponse struct {
	Decision         string  `json:"decision"`
	Confidence       float64 `json:"confidence"`
	EvidenceSentence string  `json:"evidence_sentence"`
	Reasons          string  `json:"reasons"`
}

func (v *LLMValidator) call(ctx context.Context, prompt string) (types.Stage2Result, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	raw, err := v.client.GenerateJSON(ctx, prompt, v.tier)
	if err != nil {
		return types.Stage2Result{}, fmt.Errorf("LLM generation failed: %w", err)
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.Stage2Response, cleaned); err != nil {
		return types.Stage2Result{}, fmt.Errorf("LLM response does not match schema: %w", err)
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return types.Stage2Result{}, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	result := types.Stage2Result{
		Decision:         resp.Decision,
		Confidence:       resp.Confidence,
		EvidenceSentence: resp.EvidenceSentence,
		Reasons:          resp.Reasons,
	}
	if result.Decision == types.DecisionMatch && result.Confidence < v.minConfidence {
		result.Decision = types.DecisionNoMatch
		result.Reasons = strings.TrimSpace(result.Reasons + fmt.Sprintf(
			" Confidence %.2f is below the %.2f required for a match.", result.Confidence, v.minConfidence))
	}

	v.logger.Debugw("stage 2 validated",
		"decision", result.Decision,
		"confidence", result.Confidence,
		"model", v.client.GetModel(v.tier))
	return result, nil
}

// BuildPrompt renders the full Stage 2 prompt for req.
func (v *LLMValidator) BuildPrompt(req Request) string {
	return v.systemPrompt + "\n\n" + prompts.Format(v.userTemplate.Text, promptFields(req))
}

// promptFields maps every placeholder of the user prompt to its value for req.
func promptFields(req Request) map[string]string {
	return map[string]string{
		"Profile":             formatProfile(req.Profile),
		"BestPerson":          orNone(req.Stage1.BestPerson),
		"CandidateVariant":    orNone(req.Stage1.CandidateVariant),
		"AllVariants":         orNone(req.Stage1.AllVariants),
		"Score":               strconv.Itoa(req.Stage1.Score),
		"Penalty":             strconv.Itoa(req.Stage1.Penalty),
		"Stage1Decision":      req.Stage1.Decision,
		"Stage1Reasons":       req.Stage1.Reasons,
		"ExtractedNames":      orDefault(strings.Join(req.ExtractedNames, ", "), "None found"),
		"DOBConflicts":        orDefault(req.DOBConflicts, "None detected"),
		"OccupationConflicts": orDefault(req.OccupationConflicts, "None detected"),
		"Excerpt":             QuoteExternalContent(req.Excerpt, "article excerpt"),
	}
}

func (v *LLMValidator) cacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(v.client.GetModel(v.tier) + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

func formatProfile(p types.CandidateProfile) string {
	return fmt.Sprintf("- Name: %s\n- Date of Birth: %s\n- Occupation: %s",
		strings.TrimSpace(p.Name), orNotProvided(p.DOB), orNotProvided(p.Occupation))
}

func orNone(s string) string {
	return orDefault(s, "None")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not provided"
	}
	return strings.TrimSpace(s)
}
