// Package triage runs the two-step ticket triage: classify, then draft a reply.
//
// The steps fail independently. A failed step never aborts the run; its fields fall back
// to the supplied defaults (the ticket's previous values on retry) or to the static
// defaults in package domain, so every Outcome is complete enough to persist.
package triage

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/observability"
)

// Defaults are the values kept when a step fails. Zero fields use the package defaults.
type Defaults struct {
	Priority          domain.TicketPriority
	Category          domain.TicketCategory
	SuggestedResponse string
}

// Input describes the ticket to triage.
type Input struct {
	Subject     string
	Description string
	Defaults    *Defaults
}

// Outcome is the combined result of both steps.
type Outcome struct {
	Priority          domain.TicketPriority
	Category          domain.TicketCategory
	SuggestedResponse string
	Status            domain.TriageStatus
	Error             *string
	Duration          time.Duration
}

// Pipeline orchestrates the classifier and the drafter.
type Pipeline struct {
	classifier Classifier
	drafter    Drafter
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewPipeline wires a pipeline. metrics may be nil.
func NewPipeline(classifier Classifier, drafter Drafter, logger *zap.Logger, metrics *observability.Metrics) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{classifier: classifier, drafter: drafter, logger: logger, metrics: metrics}
}

// Run classifies the ticket, drafts a reply with the resolved classification and
// combines both results. It never returns an error.
func (p *Pipeline) Run(ctx context.Context, in Input) Outcome {
	start := time.Now()

	priority := domain.DefaultPriority
	category := domain.DefaultCategory
	fallbackReply := domain.FallbackSuggestedResponse
	if d := in.Defaults; d != nil {
		if d.Priority != "" {
			priority = d.Priority
		}
		if d.Category != "" {
			category = d.Category
		}
		if strings.TrimSpace(d.SuggestedResponse) != "" {
			fallbackReply = d.SuggestedResponse
		}
	}

	classificationFailed := false
	stepStart := time.Now()
	classification, err := p.classifier.Classify(ctx, in.Subject, in.Description)
	p.metrics.RecordLLMCall("classify", err, time.Since(stepStart))
	if err != nil {
		p.logger.Error("llm classification failed", zap.Error(err))
		classificationFailed = true
	} else {
		priority = classification.Priority
		category = classification.Category
	}

	responseFailed := false
	var reply string
	stepStart = time.Now()
	reply, err = p.drafter.DraftReply(ctx, Classification{Priority: priority, Category: category}, in.Subject)
	p.metrics.RecordLLMCall("draft", err, time.Since(stepStart))
	if err != nil {
		p.logger.Error("llm customer reply drafting failed", zap.Error(err))
		responseFailed = true
		reply = fallbackReply
	}

	out := Outcome{
		Priority:          priority,
		Category:          category,
		SuggestedResponse: strings.TrimSpace(reply),
		Status:            domain.TriageStatusSucceeded,
		Error:             combineErrors(classificationFailed, responseFailed),
		Duration:          time.Since(start),
	}
	if out.Error != nil {
		out.Status = domain.TriageStatusFailed
	}
	return out
}

func combineErrors(classificationFailed, responseFailed bool) *string {
	var code string
	switch {
	case classificationFailed && responseFailed:
		code = domain.TriageErrorClassificationAndResponse
	case classificationFailed:
		code = domain.TriageErrorClassification
	case responseFailed:
		code = domain.TriageErrorResponse
	default:
		return nil
	}
	return &code
}
