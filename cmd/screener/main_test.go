package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gurmeharsomal/media-screening-tool/internal/config"
	"github.com/gurmeharsomal/media-screening-tool/internal/llm"
	"github.com/gurmeharsomal/media-screening-tool/internal/observability"
	"github.com/gurmeharsomal/media-screening-tool/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reviewArticle = "Prosecutors said Bill Johnson, a 25-year-old clerk, was arrested on Tuesday."

// mockLLMClient is a mock implementation of llm.Client for testing
type mockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	closed           bool
}

func (m *mockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.GenerateJSON(ctx, prompt, tier)
}

func (m *mockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return `{"decision":"match","confidence":0.9,"evidence_sentence":"Bill Johnson was arrested.","reasons":"Same person."}`, nil
}

func (m *mockLLMClient) GetModel(llm.ModelTier) string { return "mock-model" }

func (m *mockLLMClient) Close() error {
	m.closed = true
	return nil
}

// isolateEnv clears the variables config.ApplyEnv reads so tests never pick up a developer's keys.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SCREENER_PORT", "LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL", "GEMINI_API_KEY", "OPENAI_API_KEY",
		"OCCUPATIONS_PATH", "STAGE2_CACHE_SIZE", "USE_BROWSER",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("NER_PROVIDER", config.NERRegex)
	t.Setenv("NICKNAMES_PATH", filepath.Join("..", "..", "data", "names.csv"))
}

func useMockLLM(t *testing.T, client *mockLLMClient) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-key")
	prev := newLLMClient
	newLLMClient = func(context.Context, *llm.Config, string) (llm.Client, error) { return client, nil }
	t.Cleanup(func() { newLLMClient = prev })
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeArticle(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "article.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

func decodeVerdict(t *testing.T, out string) types.FinalVerdict {
	t.Helper()
	var verdict types.FinalVerdict
	require.NoError(t, json.Unmarshal([]byte(out), &verdict), out)
	return verdict
}

func TestScreen_Stage1MatchFromFile(t *testing.T) {
	isolateEnv(t)
	path := writeArticle(t, "Bill Johnson was charged with fraud in federal court.")

	out, err := execute(t, "", "screen", "--name", "William Johnson", "--article", path, "--json")
	require.NoError(t, err)

	verdict := decodeVerdict(t, out)
	assert.Equal(t, types.DecisionMatch, verdict.Decision)
	assert.Equal(t, 1, verdict.Stage)
	assert.Equal(t, 100, verdict.Score)
	assert.Nil(t, verdict.Confidence)
	assert.Equal(t, "bill johnson", verdict.Details.Stage1.CandidateVariant)
}

func TestScreen_FromStdin(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "The weather today is sunny.", "screen", "--name", "Jane Doe", "--json")
	require.NoError(t, err)

	verdict := decodeVerdict(t, out)
	assert.Equal(t, types.DecisionNoMatch, verdict.Decision)
	assert.Equal(t, 0, verdict.Score)
	assert.Empty(t, verdict.Details.Stage1.BestPerson)
}

func TestScreen_ReviewWithoutKeyFailsClosed(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, reviewArticle, "screen", "--name", "William Johnson", "--dob", "1980-01-01", "--json")
	require.NoError(t, err)

	verdict := decodeVerdict(t, out)
	assert.Equal(t, types.DecisionNoMatch, verdict.Decision)
	assert.Equal(t, 2, verdict.Stage)
	require.NotNil(t, verdict.Details.Stage2)
	assert.True(t, verdict.Details.Stage2.Failed())
	assert.Contains(t, verdict.Details.Stage2.Error, "no API key configured")
}

func TestScreen_ReviewEscalatesToLLM(t *testing.T) {
	isolateEnv(t)
	client := &mockLLMClient{}
	useMockLLM(t, client)

	out, err := execute(t, reviewArticle, "screen", "--name", "William Johnson", "--dob", "1980-01-01", "--json")
	require.NoError(t, err)

	verdict := decodeVerdict(t, out)
	assert.Equal(t, types.DecisionMatch, verdict.Decision)
	assert.Equal(t, 2, verdict.Stage)
	assert.Equal(t, 70, verdict.Score)
	require.NotNil(t, verdict.Confidence)
	assert.InDelta(t, 0.9, *verdict.Confidence, 1e-9)
	assert.True(t, client.closed, "the LLM client is released after screening")
}

func TestScreen_PrettyOutput(t *testing.T) {
	isolateEnv(t)
	path := writeArticle(t, "Bill Johnson was charged with fraud in federal court.")

	out, err := execute(t, "", "screen", "--name", "William Johnson", "--article", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Verdict:")
	assert.Contains(t, out, "SCREENING VERDICT")
	assert.Contains(t, out, "STAGE 1")
}

func TestScreen_Errors(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr string
	}{
		{"missing name", "text", []string{"screen"}, `required flag(s) "name" not set`},
		{"empty article", "   ", []string{"screen", "--name", "Jane Doe"}, "article is empty"},
		{"missing file", "", []string{"screen", "--name", "Jane Doe", "--article", "/nonexistent/article.txt"}, "failed to read article"},
		{"article and url", "", []string{"screen", "--name", "Jane Doe", "--article", "a.txt", "--url", "https://example.com"}, "none of the others can be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			_, err := execute(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestVariants(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "", "variants", "--name", "William Johnson", "--json")
	require.NoError(t, err)

	var items []string
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Contains(t, items, "william johnson")
	assert.Contains(t, items, "bill johnson")
	assert.Contains(t, items, "johnson, william")
}

func TestVariants_Pretty(t *testing.T) {
	isolateEnv(t)

	out, err := execute(t, "", "variants", "--name", "Madonna")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME VARIANTS")
	assert.Contains(t, out, "madonna")
}

func TestConfigFlag(t *testing.T) {
	isolateEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"ner_provider": "bogus"}`), 0644))
	t.Setenv("NER_PROVIDER", "")

	_, err := execute(t, "", "--config", cfgPath, "variants", "--name", "Jane Doe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ner_provider")
}

func TestBuildExtractor(t *testing.T) {
	logger := observability.NopLogger()
	cfg := config.Default()

	for _, provider := range []string{config.NERProse, config.NERLLM, config.NERRegex} {
		cfg.NERProvider = provider
		chain, err := buildExtractor(cfg, nil, logger)
		require.NoError(t, err, provider)
		assert.NotNil(t, chain)
	}

	cfg.NERProvider = "spacy"
	_, err := buildExtractor(cfg, nil, logger)
	assert.Error(t, err)
}
