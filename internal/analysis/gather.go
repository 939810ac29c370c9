package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"seqguard/internal/risk"
	"seqguard/internal/search"
	dErrors "seqguard/pkg/domain-errors"
	audit "seqguard/pkg/platform/audit"
)

// gather runs the local scan and both remote searches with shared
// cancellation: the first failure cancels the rest.
func (s *Service) gather(ctx context.Context, id, seq string) (*evidence, error) {
	deadline, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(deadline)
	ev := &evidence{}

	g.Go(func() error {
		start := time.Now()
		ev.matches = s.scanner.Scan(ctx, seq)
		ev.localRisk = risk.CalculateRiskScore(ev.matches, s.expiryClock(ctx))
		ev.latencies.LocalScan = time.Since(start)
		s.metrics.ObservePhase(PhaseLocalScan, ev.latencies.LocalScan)

		s.logger.DebugContext(ctx, "local scan complete",
			"analysis_id", id,
			"matches", len(ev.matches),
			"local_risk", ev.localRisk.RiskLevel,
		)
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		hits, err := s.searcher.Search(ctx, seq, search.DatabasePatent)
		ev.latencies.PatentSearch = time.Since(start)
		s.metrics.ObservePhase(PhasePatentSearch, ev.latencies.PatentSearch)
		if err != nil {
			return err
		}
		ev.patentHits = hits
		s.searchCompleted(ctx, id, search.DatabasePatent, len(hits))
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		hits, err := s.searcher.Search(ctx, seq, search.DatabaseNucleotide)
		ev.latencies.OrganismSearch = time.Since(start)
		s.metrics.ObservePhase(PhaseOrganismSearch, ev.latencies.OrganismSearch)
		if err != nil {
			return err
		}
		ev.organismHits = hits
		s.searchCompleted(ctx, id, search.DatabaseNucleotide, len(hits))
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(deadline.Err(), context.DeadlineExceeded) {
			return nil, errors.Join(err, context.DeadlineExceeded)
		}
		return nil, err
	}
	return ev, nil
}

func (s *Service) searchCompleted(ctx context.Context, id string, db search.Database, hits int) {
	s.logger.DebugContext(ctx, "remote search complete",
		"analysis_id", id,
		"database", db,
		"hits", hits,
	)
	s.emit(ctx, audit.Event{
		Action:   string(audit.EventSearchCompleted),
		Subject:  id,
		Decision: string(db),
		Reason:   fmt.Sprintf("hits=%d", hits),
	})
}

// mapSearchError turns a gather failure into the single coded error shown
// to the caller.
func mapSearchError(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "analysis was cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "analysis timed out waiting for remote search")
	}

	var pe *search.ProviderError
	if !errors.As(err, &pe) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "analysis failed")
	}

	if pe.Category == search.ErrorTimeout {
		return dErrors.Wrap(err, dErrors.CodeTimeout,
			fmt.Sprintf("remote search of %s timed out", pe.Database))
	}
	return dErrors.Wrap(err, dErrors.CodeUpstream,
		fmt.Sprintf("remote search of %s failed: %s", pe.Database, pe.Message))
}
