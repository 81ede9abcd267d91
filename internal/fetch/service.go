// Package fetch mirrors Gmail message metadata into the local store.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	gc "github.com/joshsymonds/mailtriage/internal/gmail"
	"github.com/joshsymonds/mailtriage/internal/message"
)

// MessageWriter is the store surface the fetch pipeline needs.
type MessageWriter interface {
	UpsertMessages(ctx context.Context, msgs []message.Message) (int, error)
}

// Spec describes one fetch run.
type Spec struct {
	Query    string // Gmail search query; defaults to in:inbox
	Max      int    // stop after this many messages; 0 means no cap
	PageSize int
}

// Service lists matching message IDs, pulls per-message metadata
// concurrently, and writes the batch to the local store.
type Service struct {
	Source  gc.Source
	Store   MessageWriter
	Log     *slog.Logger
	Limiter *rate.Limiter
	Workers int
}

// NewService wires a fetch pipeline with sensible defaults.
func NewService(source gc.Source, store MessageWriter, limiter *rate.Limiter, log *slog.Logger) *Service {
	return &Service{
		Source:  source,
		Store:   store,
		Log:     log,
		Limiter: limiter,
		Workers: 4,
	}
}

// Run performs one mirror pass and returns the number of messages
// stored.
func (s *Service) Run(ctx context.Context, spec Spec) (int, error) {
	query := spec.Query
	if query == "" {
		query = "in:inbox"
	}
	pageSize := spec.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	ids, err := s.listIDs(ctx, gc.Query{Raw: query}, pageSize, spec.Max)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		s.Log.Info("no messages matched", "query", query)
		return 0, nil
	}

	msgs, err := s.getAll(ctx, ids)
	if err != nil {
		return 0, err
	}
	stored, err := s.Store.UpsertMessages(ctx, msgs)
	if err != nil {
		return 0, fmt.Errorf("store messages: %w", err)
	}
	s.Log.Info("mirrored messages", "query", query, "listed", len(ids), "stored", stored)
	return stored, nil
}

func (s *Service) listIDs(ctx context.Context, q gc.Query, pageSize, max int) ([]gc.MessageID, error) {
	var all []gc.MessageID
	pageToken := ""
	for {
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		page, err := s.Source.List(ctx, q, pageToken, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		all = append(all, page.IDs...)
		if max > 0 && len(all) >= max {
			return all[:max], nil
		}
		if page.NextToken == "" {
			return all, nil
		}
		pageToken = page.NextToken
	}
}

// getAll fetches metadata for every ID with a bounded worker pool.
// Order of the result is immaterial; the store keys by message ID.
func (s *Service) getAll(ctx context.Context, ids []gc.MessageID) ([]message.Message, error) {
	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}

	work := make(chan gc.MessageID)
	var mu sync.Mutex
	msgs := make([]message.Message, 0, len(ids))

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		defer close(work)
		for _, id := range ids {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case work <- id:
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		grp.Go(func() error {
			for id := range work {
				if err := s.wait(ctx); err != nil {
					return err
				}
				msg, err := s.Source.GetMessage(ctx, id)
				if err != nil {
					return fmt.Errorf("get message %s: %w", id, err)
				}
				mu.Lock()
				msgs = append(msgs, msg)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.Limiter == nil {
		return nil
	}
	return s.Limiter.Wait(ctx)
}
