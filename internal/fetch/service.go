// Package fetch pulls message records from the mailbox into the local
// store.
package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vintas/mailman/internal/mail"
	"github.com/vintas/mailman/internal/rate"
)

// Saver is the store surface the fetcher needs.
type Saver interface {
	Save(rec mail.Record) (created bool, err error)
	Has(id mail.MessageID) (bool, error)
}

// Spec configures one fetch run.
type Spec struct {
	Query    string // raw Gmail search, e.g. "in:inbox"
	Max      int    // stop after this many listed messages; 0 means no cap
	PageSize int64
}

// Summary reports what a run did.
type Summary struct {
	Listed  int
	Stored  int
	Skipped int
	Failed  int
}

// Service drives the list/get/store loop.
type Service struct {
	Client  mail.Client
	Store   Saver
	Limiter rate.Limiter
	Logger  *slog.Logger
}

// NewService constructs a fetch service.
func NewService(client mail.Client, store Saver, limiter rate.Limiter, logger *slog.Logger) *Service {
	if limiter == nil {
		limiter = rate.None{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Client: client, Store: store, Limiter: limiter, Logger: logger}
}

// Run lists messages matching the query and stores the ones not already
// present. A failure fetching one message is logged and skipped; only
// list and store-infrastructure errors abort the run.
func (s *Service) Run(ctx context.Context, spec Spec) (Summary, error) {
	if spec.PageSize <= 0 {
		spec.PageSize = 100
	}
	var sum Summary

	ids, err := s.listIDs(ctx, spec)
	if err != nil {
		return sum, err
	}
	sum.Listed = len(ids)

	for _, id := range ids {
		known, err := s.Store.Has(id)
		if err != nil {
			return sum, fmt.Errorf("check store for %s: %w", id, err)
		}
		if known {
			sum.Skipped++
			continue
		}
		if err := s.Limiter.Wait(ctx); err != nil {
			return sum, err
		}
		rec, err := s.Client.Get(ctx, id)
		if err != nil {
			s.Logger.Warn("failed to fetch message, skipping", "message", id, "error", err)
			sum.Failed++
			continue
		}
		created, err := s.Store.Save(rec)
		if err != nil {
			return sum, fmt.Errorf("store message %s: %w", id, err)
		}
		if created {
			sum.Stored++
		} else {
			sum.Skipped++
		}
	}

	s.Logger.Info("fetch complete",
		"listed", sum.Listed, "stored", sum.Stored, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum, nil
}

func (s *Service) listIDs(ctx context.Context, spec Spec) ([]mail.MessageID, error) {
	var ids []mail.MessageID
	token := ""
	for {
		if err := s.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
		page, err := s.Client.List(ctx, mail.Query{Raw: spec.Query}, token, spec.PageSize)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		ids = append(ids, page.IDs...)
		if spec.Max > 0 && len(ids) >= spec.Max {
			return ids[:spec.Max], nil
		}
		if page.NextToken == "" {
			return ids, nil
		}
		token = page.NextToken
	}
}
