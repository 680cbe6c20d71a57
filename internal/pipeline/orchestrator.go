package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cadence/internal/logging"
	"cadence/internal/store"
)

// recentArtifactLimit bounds the history fetched for style derivation.
const recentArtifactLimit = 10

// Orchestrator drives one generation run through its stages and assembles
// the resulting artifact.
type Orchestrator struct {
	prompt  Stage
	content Stage
	image   Stage
	repo    Repository
	logger  *slog.Logger
	now     func() time.Time
}

// OrchestratorOption customizes the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock overrides the orchestrator clock (useful for tests).
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator wires the standard stage sequence over the shared caller.
func NewOrchestrator(caller Caller, renderer Renderer, repo Repository, defaults Defaults, logger *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		prompt:  NewPromptStage(caller, logger),
		content: NewContentStage(caller, defaults, logger),
		image:   NewImageStage(caller, renderer, defaults, logger),
		repo:    repo,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate runs the pipeline for one request. Prompt and content failures
// are fatal and nothing is persisted; an image failure is logged and the
// artifact proceeds without a visual. Persistence is fire-and-forget: a save
// failure is logged and the in-memory artifact is still returned.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (*store.Artifact, error) {
	if req.UserID == "" {
		return nil, &PipelineError{Stage: "init", Err: errors.New("user id required")}
	}
	if !req.ContentType.Valid() {
		return nil, &PipelineError{Stage: "init", Err: errors.New("valid content type required")}
	}

	in := StageInput{Request: req, Fields: map[string]string{}}
	if recent, err := o.repo.ListArtifacts(ctx, req.UserID, recentArtifactLimit); err != nil {
		// Style derivation falls back to its defaults without history.
		o.logger.Warn("recent artifact lookup failed; using default style",
			logging.String(logging.FieldUserID, req.UserID),
			logging.Error(err),
		)
	} else {
		in.Recent = recent
	}

	for _, stage := range []Stage{o.prompt, o.content} {
		out, err := stage.Run(ctx, in)
		if err != nil {
			return nil, &PipelineError{Stage: stage.Name(), Err: err}
		}
		o.merge(&in, out)
	}

	if req.IncludeImage {
		if out, err := o.image.Run(ctx, in); err != nil {
			o.logger.Warn("image stage failed; continuing without visual",
				logging.String(logging.FieldStage, o.image.Name()),
				logging.String(logging.FieldUserID, req.UserID),
				logging.String(logging.FieldContentType, string(req.ContentType)),
				logging.Error(err),
			)
		} else {
			o.merge(&in, out)
		}
	}

	artifact := o.assemble(req, in)
	if err := o.repo.SaveArtifact(ctx, artifact); err != nil {
		o.logger.Error("artifact save failed; returning unsaved artifact",
			logging.String(logging.FieldArtifactID, artifact.ID),
			logging.String(logging.FieldUserID, req.UserID),
			logging.Error(err),
		)
	}

	o.logger.Info("generation run complete",
		logging.String(logging.FieldArtifactID, artifact.ID),
		logging.String(logging.FieldUserID, req.UserID),
		logging.String(logging.FieldContentType, string(req.ContentType)),
		logging.Int("engagement_score", artifact.Engagement.Score),
		logging.Bool("has_image", artifact.ImageRef != ""),
	)
	return artifact, nil
}

// merge folds a stage's output into the accumulated input. The last stage
// to emit hashtags or an engagement estimate wins.
func (o *Orchestrator) merge(in *StageInput, out StageOutput) {
	for key, value := range out.Fields {
		in.Fields[key] = value
	}
	if len(out.Hashtags) > 0 {
		in.hashtags = out.Hashtags
	}
	if out.Engagement != nil {
		in.engagement = out.Engagement
	}
}

func (o *Orchestrator) assemble(req Request, in StageInput) *store.Artifact {
	status := store.StatusDraft
	if req.ScheduledFor != nil {
		status = store.StatusScheduled
	}
	artifact := &store.Artifact{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		ContentType:  req.ContentType,
		Body:         in.Field(FieldText),
		Hashtags:     in.hashtags,
		CallToAction: in.Field(FieldCallToAction),
		ImageRef:     in.Field(FieldImageRef),
		Status:       status,
		ScheduledFor: req.ScheduledFor,
		CreatedAt:    o.now(),
	}
	if in.engagement != nil {
		artifact.Engagement = *in.engagement
	}
	return artifact
}
