package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"pitchforge/internal/extract"
	"pitchforge/internal/screenplay"
	"pitchforge/internal/visual"
)

// PackageSaver persists finished pitch packages. The sqlite store
// implements it; tests substitute an in-memory fake.
type PackageSaver interface {
	SavePackage(ctx context.Context, pkg *PitchPackage) error
}

// JobRunner takes one job from upload bytes to a stored pitch package.
type JobRunner struct {
	runner     *Runner
	saver      PackageSaver
	briefs     *visual.Builder
	extractOpt extract.Options
	log        *slog.Logger
}

func NewJobRunner(runner *Runner, saver PackageSaver, briefs *visual.Builder, extractOpt extract.Options, log *slog.Logger) *JobRunner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &JobRunner{
		runner:     runner,
		saver:      saver,
		briefs:     briefs,
		extractOpt: extractOpt,
		log:        log,
	}
}

// Process runs the full job. Failures are recorded on the job; the
// method never panics the worker.
func (w *JobRunner) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.AdvanceTo(StageExtract)
	extracted := extract.Extract(ctx, job.Filename, job.FileData(), job.MimeType, w.extractOpt)
	job.AddWarnings(extracted.Warnings...)
	if strings.TrimSpace(extracted.Text) == "" {
		log.Error("extraction produced no text", "warnings", extracted.Warnings)
		job.Fail(StageExtract, errors.New("no text extracted from document"))
		return
	}
	log.Info("text extracted", "bytes", len(extracted.Text), "pages", extracted.PageCount)

	job.AdvanceTo(StageParse)
	doc := screenplay.Parse(extracted.Text)
	doc.Warnings = append(doc.Warnings, extracted.Warnings...)
	std := screenplay.Standardize(doc)
	job.SetScript(doc, std)
	log.Info("script parsed", "scenes", len(doc.Scenes), "characters", len(doc.Characters))

	result, err := w.runner.Run(ctx, doc, std, job.Overrides, job.AdvanceTo)
	if err != nil {
		stage := StageCoreElements
		cause := err
		var se *StageError
		if errors.As(err, &se) {
			stage = se.Stage
			cause = se.Err
		}
		log.Error("pipeline failed", "stage", stage, "error", cause)
		job.Fail(stage, cause)
		return
	}
	job.SetResult(result)

	var brief *visual.Brief
	if w.briefs != nil {
		b := w.briefs.BuildBrief(ctx, result.Visual.Mood, result.Visual.KeyImages, result.Visual.Palette)
		brief = &b
	}

	pkg := buildPackage(job, doc, result, brief)
	if w.saver != nil {
		if err := w.saver.SavePackage(ctx, pkg); err != nil {
			log.Error("package save failed", "error", err)
			job.Fail(StageDocumentPrep, err)
			return
		}
	}
	job.SetPackageID(pkg.ID)
	job.Complete()
	log.Info("job complete", "package_id", pkg.ID, "quality", result.Quality)
}

func buildPackage(job *Job, doc *screenplay.ScriptDocument, result *Result, brief *visual.Brief) *PitchPackage {
	title := doc.Title
	if title == "" {
		title = "Untitled Script"
	}
	return &PitchPackage{
		ID:        job.ID,
		Title:     title,
		Filename:  job.Filename,
		CreatedAt: time.Now().UTC(),
		Quality:   result.Quality,
		Script:    doc,
		Summary:   screenplay.Summarize(doc),
		Result:    result,
		Deck:      BuildDeck(doc, result),
		Brief:     brief,
		Warnings:  job.Warnings(),
	}
}
