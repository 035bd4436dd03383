package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"pitchforge/internal/llm"
	"pitchforge/internal/screenplay"
)

// Gateway is the slice of the model client the runner needs. The real
// implementation is llm.Client; tests substitute their own.
type Gateway interface {
	ChatJSON(ctx context.Context, req llm.Request, out any) (string, error)
}

// Budgets bounds how many characters of serialized input each stage
// prompt may carry, so a long script cannot blow the model's context.
type Budgets struct {
	ScriptExcerpt int
	StageInput    int
}

func DefaultBudgets() Budgets {
	return Budgets{ScriptExcerpt: 12000, StageInput: 6000}
}

// Runner drives the fixed generative stage sequence over one parsed
// script. Stages run strictly in order; each consumes only committed
// prior outputs and a failure anywhere is terminal for the run.
type Runner struct {
	gw      Gateway
	model   string
	budgets Budgets
	timeout time.Duration
	temp    float64
	log     *slog.Logger
}

type RunnerOption func(*Runner)

// WithBudgets overrides the serialization budgets.
func WithBudgets(b Budgets) RunnerOption {
	return func(r *Runner) {
		if b.ScriptExcerpt > 0 {
			r.budgets.ScriptExcerpt = b.ScriptExcerpt
		}
		if b.StageInput > 0 {
			r.budgets.StageInput = b.StageInput
		}
	}
}

// WithStageTimeout bounds each individual model call.
func WithStageTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithTemperature sets the sampling temperature for all stages.
func WithTemperature(t float64) RunnerOption {
	return func(r *Runner) {
		r.temp = t
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

func NewRunner(gw Gateway, model string, opts ...RunnerOption) *Runner {
	r := &Runner{
		gw:      gw,
		model:   model,
		budgets: DefaultBudgets(),
		timeout: 2 * time.Minute,
		temp:    0.7,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes core_elements through document_prep. progress, if
// non-nil, is called with each stage name as the stage begins. On
// failure the error is a *StageError naming the stage; no partial
// result is ever returned.
func (r *Runner) Run(ctx context.Context, doc *screenplay.ScriptDocument, std *screenplay.Standardized, ov Overrides, progress func(stage string)) (*Result, error) {
	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	excerpt := ScriptExcerpt(doc, r.budgets.ScriptExcerpt)

	report(StageCoreElements)
	var core CoreElements
	if err := r.call(ctx, StageCoreElements, buildCoreElementsPrompt(excerpt), &core); err != nil {
		return nil, err
	}
	core.normalize()
	coreJSON := clip(compactJSON(core), r.budgets.StageInput)

	report(StageCharacterBible)
	var bible characterBible
	biblePrompt := buildCharacterBiblePrompt(coreJSON, std.Characters, ScriptExcerpt(doc, r.budgets.ScriptExcerpt/2))
	if err := r.call(ctx, StageCharacterBible, biblePrompt, &bible); err != nil {
		return nil, err
	}
	bible.normalize()
	charactersJSON := clip(compactJSON(bible.Characters), r.budgets.StageInput)

	report(StageMarketAdaptation)
	var market MarketAdaptation
	if err := r.call(ctx, StageMarketAdaptation, buildMarketPrompt(coreJSON, charactersJSON, ov), &market); err != nil {
		return nil, err
	}
	market.normalize()
	marketJSON := clip(compactJSON(market), r.budgets.StageInput)

	report(StagePitchContent)
	var pitch PitchContent
	if err := r.call(ctx, StagePitchContent, buildPitchPrompt(coreJSON, marketJSON), &pitch); err != nil {
		return nil, err
	}
	pitch.normalize()

	report(StageVisualConcepts)
	var visual VisualConcepts
	if err := r.call(ctx, StageVisualConcepts, buildVisualPrompt(coreJSON, charactersJSON), &visual); err != nil {
		return nil, err
	}
	visual.normalize()

	report(StageDocumentPrep)
	res := documentPrep(core, bible.Characters, market, pitch, visual)
	res.Model = r.model
	r.log.Info("pipeline complete", "quality", res.Quality, "characters", len(res.Characters))
	return res, nil
}

// call runs one model-backed stage under its own timeout. Transport
// and retry handling live in the gateway; here a returned error or a
// schema violation is terminal for the stage.
func (r *Runner) call(ctx context.Context, stage, user string, out any) error {
	sctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	var payload json.RawMessage
	if _, err := r.gw.ChatJSON(sctx, llm.Request{
		Model:       r.model,
		System:      SystemPrompt,
		User:        user,
		Temperature: r.temp,
	}, &payload); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	if err := validateStagePayload(stage, payload); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &StageError{Stage: stage, Err: fmt.Errorf("decode stage output: %w", err)}
	}
	r.log.Debug("stage call complete", "stage", stage, "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}
