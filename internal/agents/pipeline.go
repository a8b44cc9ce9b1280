package agents

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/KaramelBytes/medflow-cli/internal/ai"
	"github.com/KaramelBytes/medflow-cli/internal/analysis"
	"github.com/KaramelBytes/medflow-cli/internal/logger"
	"github.com/KaramelBytes/medflow-cli/internal/utils"
)

// NoResponse replaces an empty completion.
const NoResponse = "No response generated."

// ErrNoRuntime is returned when a call is attempted without a runtime.
var ErrNoRuntime = errors.New("no generative runtime configured")

// previousPlaceholder stands in for chained output in dry runs.
const previousPlaceholder = "<output of the previous agent>"

// Status of a pipeline run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Input is the serialized context shared by every agent.
type Input struct {
	Summary string `json:"data_summary"`
	Sample  string `json:"data_sample"`
}

// NewInput serializes the summary and its sample rows to compact JSON. When
// maxTokens > 0 each part is cut to roughly that many tokens.
func NewInput(s *analysis.Summary, maxTokens int) (Input, error) {
	summary, err := utils.CompactJSON(s)
	if err != nil {
		return Input{}, errors.Wrap(err, "serialize summary")
	}
	sample, err := utils.CompactJSON(s.SampleRows)
	if err != nil {
		return Input{}, errors.Wrap(err, "serialize sample rows")
	}
	return Input{
		Summary: utils.TruncateToTokenLimit(summary, maxTokens),
		Sample:  utils.TruncateToTokenLimit(sample, maxTokens),
	}, nil
}

// Output is one agent's answer.
type Output struct {
	AgentID  string        `json:"agent_id"`
	Name     string        `json:"name"`
	Model    string        `json:"model"`
	Text     string        `json:"text"`
	Usage    ai.Usage      `json:"usage"`
	Duration time.Duration `json:"duration_ns"`
}

// Run records one pipeline execution. Outputs keep agent order.
type Run struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     Status    `json:"status"`
	Outputs    []Output  `json:"outputs"`
	Error      string    `json:"error,omitempty"`
}

// Pipeline runs agents one after another, each seeing the previous output.
type Pipeline struct {
	Runtime ai.Runtime
	Specs   []Spec
	// Model, when set, replaces every spec's model.
	Model string
	// Limiter throttles calls; nil means unthrottled.
	Limiter *rate.Limiter
	// OnStep is called after each successful agent.
	OnStep func(Output)
}

// NewLimiter allows perMinute calls per minute with no burst. Zero or less
// disables throttling.
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// Requests renders the prompt each agent would receive. Chained output is
// shown as a placeholder, so this never calls the runtime.
func (p *Pipeline) Requests(in Input) []ai.GenerateRequest {
	reqs := make([]ai.GenerateRequest, 0, len(p.Specs))
	for _, s := range p.specs() {
		reqs = append(reqs, p.request(s, in, previousPlaceholder))
	}
	return reqs
}

func (p *Pipeline) specs() []Spec {
	if len(p.Specs) == 0 {
		return DefaultSpecs()
	}
	return p.Specs
}

func (p *Pipeline) request(s Spec, in Input, previous string) ai.GenerateRequest {
	model := s.Model
	if p.Model != "" {
		model = p.Model
	}
	prompt := Render(s.UserPromptTemplate, map[string]string{
		VarDataSummary:    in.Summary,
		VarDataSample:     in.Sample,
		VarPreviousOutput: previous,
	})
	return ai.Prompt(model, s.SystemPrompt, prompt, s.Temperature, s.MaxTokens)
}

// Run executes the chain and stops at the first failure. The returned Run is
// never nil; on failure it carries StatusFailed and the outputs gathered so
// far, and the error is returned as well.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Run, error) {
	run := &Run{ID: uuid.New(), StartedAt: time.Now().UTC(), Status: StatusRunning}
	log := logger.Named("agents").With(logger.FieldRunID, run.ID.String())

	fail := func(err error) (*Run, error) {
		run.Status = StatusFailed
		run.Error = err.Error()
		run.FinishedAt = time.Now().UTC()
		log.Warnw("pipeline failed", logger.FieldError, err)
		return run, err
	}
	if p.Runtime == nil {
		return fail(ErrNoRuntime)
	}

	previous := ""
	for _, s := range p.specs() {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return fail(errors.Wrapf(err, "agent %s", s.ID))
			}
		}
		req := p.request(s, in, previous)
		start := time.Now()
		resp, err := p.Runtime.Generate(ctx, req)
		if err != nil {
			return fail(errors.Wrapf(err, "agent %s", s.ID))
		}
		out := Output{
			AgentID:  s.ID,
			Name:     s.Name,
			Model:    req.Model,
			Text:     textOrDefault(resp),
			Usage:    resp.Usage,
			Duration: time.Since(start),
		}
		run.Outputs = append(run.Outputs, out)
		previous = out.Text
		log.Infow("agent finished",
			logger.FieldAgent, s.ID,
			logger.FieldModel, req.Model,
			logger.FieldDuration, out.Duration.Milliseconds())
		if p.OnStep != nil {
			p.OnStep(out)
		}
	}
	run.Status = StatusCompleted
	run.FinishedAt = time.Now().UTC()
	return run, nil
}

func textOrDefault(resp *ai.GenerateResponse) string {
	if t := resp.Text(); t != "" {
		return t
	}
	return NoResponse
}
