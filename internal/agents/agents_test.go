package agents

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/medflow-cli/internal/ai"
	"github.com/KaramelBytes/medflow-cli/internal/analysis"
	"github.com/KaramelBytes/medflow-cli/internal/parser"
)

// fakeRuntime echoes a canned answer per call and records every request.
type fakeRuntime struct {
	mu      sync.Mutex
	answers []string
	failAt  int // 1-based call that fails; 0 never
	reqs    []ai.GenerateRequest
}

func (f *fakeRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	n := len(f.reqs)
	if n == f.failAt {
		return nil, &ai.ServerError{APIError: &ai.APIError{StatusCode: 502}}
	}
	text := ""
	if n-1 < len(f.answers) {
		text = f.answers[n-1]
	}
	return &ai.GenerateResponse{
		Choices: []ai.Choice{{Message: ai.Message{Role: "assistant", Content: text}}},
		Usage:   ai.Usage{TotalTokens: 10},
	}, nil
}

func summary(t *testing.T) *analysis.Summary {
	t.Helper()
	rows := parser.Parse(`[{"supplier":"X","category":"Gloves","customer":"Y","qty":"10","date":"20240101"}]`).Rows
	return analysis.Summarize(rows, analysis.DefaultOptions())
}

func TestRender(t *testing.T) {
	got := Render("a {{data_summary}} b {{data_summary}} {{unknown}}", map[string]string{VarDataSummary: "S"})
	assert.Equal(t, "a S b S {{unknown}}", got)
}

func TestDefaultSpecsValid(t *testing.T) {
	specs := DefaultSpecs()
	require.Len(t, specs, 3)
	for _, s := range specs {
		require.NoError(t, s.Validate())
		assert.Equal(t, 0.2, s.Temperature)
		assert.Equal(t, 4000, s.MaxTokens)
	}
	assert.Equal(t, ProModel, specs[2].Model)
	assert.Contains(t, specs[2].UserPromptTemplate, "{{previous_output}}")
}

func TestPipelineChainsOutputs(t *testing.T) {
	rt := &fakeRuntime{answers: []string{"kpi report", "", "memo"}}
	in, err := NewInput(summary(t), 0)
	require.NoError(t, err)

	var steps []string
	p := &Pipeline{Runtime: rt, OnStep: func(o Output) { steps = append(steps, o.AgentID) }}
	run, err := p.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.NotEmpty(t, run.ID.String())
	assert.False(t, run.FinishedAt.Before(run.StartedAt))
	require.Len(t, run.Outputs, 3)
	assert.Equal(t, []string{"01_kpi_analyst", "02_anomaly_hunter", "03_exec_memo"}, steps)
	assert.Equal(t, "kpi report", run.Outputs[0].Text)
	assert.Equal(t, NoResponse, run.Outputs[1].Text)

	require.Len(t, rt.reqs, 3)
	assert.Contains(t, rt.reqs[0].Messages[1].Content, `"total_units":10`)
	assert.Contains(t, rt.reqs[1].Messages[1].Content, `"SupplierID":"X"`)
	assert.True(t, strings.HasSuffix(rt.reqs[2].Messages[1].Content, NoResponse))
	assert.Equal(t, "system", rt.reqs[0].Messages[0].Role)
	assert.Equal(t, ProModel, rt.reqs[2].Model)
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	rt := &fakeRuntime{answers: []string{"one"}, failAt: 2}
	p := &Pipeline{Runtime: rt, Model: "local/model"}
	run, err := p.Run(context.Background(), Input{Summary: "{}"})
	require.Error(t, err)
	var se *ai.ServerError
	assert.True(t, errors.As(err, &se))
	assert.Contains(t, err.Error(), "02_anomaly_hunter")

	assert.Equal(t, StatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
	require.Len(t, run.Outputs, 1)
	assert.Len(t, rt.reqs, 2)
	assert.Equal(t, "local/model", rt.reqs[0].Model)
}

func TestPipelineWithoutRuntime(t *testing.T) {
	run, err := (&Pipeline{}).Run(context.Background(), Input{})
	assert.ErrorIs(t, err, ErrNoRuntime)
	assert.Equal(t, StatusFailed, run.Status)
}

func TestPipelineLimiterHonorsContext(t *testing.T) {
	rt := &fakeRuntime{answers: []string{"a", "b", "c"}}
	p := &Pipeline{Runtime: rt, Limiter: NewLimiter(1)}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	run, err := p.Run(ctx, Input{})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	// the burst of one lets the first agent through
	assert.Len(t, run.Outputs, 1)
	assert.Nil(t, NewLimiter(0))
}

func TestRequestsForDryRun(t *testing.T) {
	p := &Pipeline{}
	reqs := p.Requests(Input{Summary: "SUM", Sample: "SAMPLE"})
	require.Len(t, reqs, 3)
	assert.Contains(t, reqs[0].Messages[1].Content, "SUM")
	assert.Contains(t, reqs[1].Messages[1].Content, "SAMPLE")
	assert.Contains(t, reqs[2].Messages[1].Content, previousPlaceholder)
}

func TestOneShotRequests(t *testing.T) {
	s := summary(t)
	req, err := InsightFor("", s)
	require.NoError(t, err)
	assert.Equal(t, FlashModel, req.Model)
	assert.Equal(t, 0.7, req.Temperature)
	assert.Equal(t, 100, req.MaxTokens)
	assert.Equal(t, "You are an insightful data scientist.", req.Messages[0].Content)
	assert.Contains(t, req.Messages[1].Content, `"top_suppliers"`)

	req, err = PredictionFor("m", s)
	require.NoError(t, err)
	assert.Equal(t, "m", req.Model)
	assert.Equal(t, 200, req.MaxTokens)
	assert.Contains(t, req.Messages[1].Content, `Data: [{"key":"Gloves","units":10}]`)

	text, err := Ask(context.Background(), &fakeRuntime{answers: []string{" surge in gloves "}}, req)
	require.NoError(t, err)
	assert.Equal(t, "surge in gloves", text)

	_, err = Ask(context.Background(), nil, req)
	assert.ErrorIs(t, err, ErrNoRuntime)
}

func TestLoadSpecs(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(list, []byte(`
- id: a
  name: A
  model: m1
  user_prompt_template: "hello {{data_summary}}"
  temperature: 0.5
  max_tokens: 100
`), 0o644))
	specs, err := LoadSpecs(list)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "m1", specs[0].Model)
	assert.Equal(t, 100, specs[0].MaxTokens)

	keyed := filepath.Join(dir, "keyed.yaml")
	require.NoError(t, os.WriteFile(keyed, []byte("agents:\n  - id: b\n    user_prompt_template: x\n"), 0o644))
	specs, err = LoadSpecs(keyed)
	require.NoError(t, err)
	assert.Equal(t, "b", specs[0].ID)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("- id: a\n  user_prompt_template: x\n- id: a\n  user_prompt_template: y\n"), 0o644))
	_, err = LoadSpecs(dup)
	assert.ErrorContains(t, err, "duplicate")

	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("- id: c\n"), 0o644))
	_, err = LoadSpecs(missing)
	assert.ErrorContains(t, err, "user_prompt_template")

	_, err = LoadSpecs(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}
