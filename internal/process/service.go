// Package process drives rule evaluation over stored records and
// applies the planned label mutations.
package process

import (
	"context"
	"log/slog"

	"github.com/vintas/mailman/internal/engine"
	"github.com/vintas/mailman/internal/mail"
	"github.com/vintas/mailman/internal/plan"
	"github.com/vintas/mailman/internal/rate"
	"github.com/vintas/mailman/internal/rules"
)

// Source supplies the records to evaluate.
type Source interface {
	All() ([]mail.Record, error)
}

// Spec configures one processing run.
type Spec struct {
	DryRun bool
}

// Summary reports what a run did.
type Summary struct {
	Records   int
	Matches   int
	Mutations int
	Failed    int
}

// Service evaluates every rule against every stored record and applies
// the resulting mutations. Failures applying one mutation never abort
// the rest of the batch.
type Service struct {
	Client    mail.Client
	Source    Source
	Evaluator *engine.Evaluator
	Planner   *plan.Planner
	Limiter   rate.Limiter
	Logger    *slog.Logger
}

// NewService wires a processing service from its collaborators.
func NewService(client mail.Client, source Source, evaluator *engine.Evaluator, planner *plan.Planner, limiter rate.Limiter, logger *slog.Logger) *Service {
	if limiter == nil {
		limiter = rate.None{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Client:    client,
		Source:    source,
		Evaluator: evaluator,
		Planner:   planner,
		Limiter:   limiter,
		Logger:    logger,
	}
}

// Run evaluates ruleset over every stored record.
func (s *Service) Run(ctx context.Context, ruleset []rules.Rule, spec Spec) (Summary, error) {
	var sum Summary

	records, err := s.Source.All()
	if err != nil {
		return sum, err
	}
	sum.Records = len(records)
	if len(records) == 0 || len(ruleset) == 0 {
		s.Logger.Info("nothing to process", "records", len(records), "rules", len(ruleset))
		return sum, nil
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		for _, rule := range ruleset {
			if !s.Evaluator.Evaluate(rec, rule) {
				continue
			}
			sum.Matches++
			s.Logger.Info("rule matched", "message", rec.ID, "rule", rule.Description)

			intent, ok := s.Planner.Plan(ctx, rec.ID, rule.Actions)
			if !ok {
				continue
			}
			if spec.DryRun {
				s.Logger.Info("dry-run, skipping mutation",
					"message", rec.ID, "add", intent.Add, "remove", intent.Remove)
				continue
			}
			if err := s.Limiter.Wait(ctx); err != nil {
				return sum, err
			}
			if err := s.Client.ModifyLabels(ctx, intent); err != nil {
				s.Logger.Warn("failed to apply mutation, continuing",
					"message", rec.ID, "rule", rule.Description, "error", err)
				sum.Failed++
				continue
			}
			sum.Mutations++
		}
	}

	s.Logger.Info("processing complete",
		"records", sum.Records, "matches", sum.Matches, "mutations", sum.Mutations, "failed", sum.Failed)
	return sum, nil
}
