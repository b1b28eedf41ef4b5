// Package analysis orchestrates one analysis: detect the language, run the
// selected adapters concurrently and merge their findings.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/automaton-code/internal/application"
	"github.com/bryanwahyu/automaton-code/internal/application/detect"
	"github.com/bryanwahyu/automaton-code/internal/application/normalize"
	domain "github.com/bryanwahyu/automaton-code/internal/domain/analysis"
)

const DefaultTimeout = 10 * time.Second

// Observer receives per-run measurements. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveRun(d domain.Descriptor, status domain.RunStatus, elapsed time.Duration)
	ObserveReport(lang domain.LanguageTag, findings int)
}

type nopObserver struct{}

func (nopObserver) ObserveRun(domain.Descriptor, domain.RunStatus, time.Duration) {}
func (nopObserver) ObserveReport(domain.LanguageTag, int)                         {}

// Service runs analyses. It holds no per-request state and is safe for
// concurrent use.
type Service struct {
	Registry   *Registry
	Normalizer *normalize.Normalizer
	// Timeout bounds each adapter invocation.
	Timeout time.Duration
	// Workers caps concurrent adapter runs per request.
	Workers  int
	Log      *slog.Logger
	Observer Observer
	Clock    application.Clock
}

func (s *Service) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultTimeout
	}
	return s.Timeout
}

func (s *Service) workers() int {
	if s.Workers <= 0 {
		return runtime.NumCPU()
	}
	return s.Workers
}

func (s *Service) log() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

func (s *Service) observer() Observer {
	if s.Observer == nil {
		return nopObserver{}
	}
	return s.Observer
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

// Language returns the tag Analyze would use for sub.
func (s *Service) Language(sub domain.Submission) domain.LanguageTag {
	return detect.Detect(sub)
}

// Analyze never fails: adapter errors, timeouts and panics are logged and
// show up only as the adapter's status in the report. Empty content still
// gets a language from its filename but runs no adapters.
func (s *Service) Analyze(ctx context.Context, sub domain.Submission) domain.Report {
	lang := detect.Detect(sub)
	var adapters []domain.Adapter
	if s.Registry != nil && sub.Content != "" {
		adapters = s.Registry.Select(lang)
	}

	groups := make([]Group, len(adapters))
	var g errgroup.Group
	g.SetLimit(s.workers())
	for i, a := range adapters {
		g.Go(func() error {
			groups[i] = s.run(ctx, a, sub.Content)
			return nil
		})
	}
	_ = g.Wait()

	report := Aggregate(lang, groups)
	s.observer().ObserveReport(lang, len(report.Findings))
	s.log().Info("analysis complete",
		"language", lang,
		"analyzers", len(adapters),
		"findings", len(report.Findings),
	)
	return report
}

type runResult struct {
	raw domain.RawOutput
	err error
}

// run invokes one adapter under its own deadline. A panicking adapter is
// reported as crashed.
func (s *Service) run(ctx context.Context, a domain.Adapter, code string) Group {
	d := a.Descriptor()
	group := Group{Descriptor: d, Status: domain.RunOK}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	start := s.clock().Now()
	done := make(chan runResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- runResult{err: fmt.Errorf("%w: panic: %v", domain.ErrAnalyzerCrash, p)}
			}
		}()
		raw, err := a.Run(ctx, code)
		done <- runResult{raw: raw, err: err}
	}()

	var err error
	select {
	case res := <-done:
		err = res.err
		if err == nil {
			group.Findings = s.normalizer().Normalize(code, res.raw, d)
		} else if ctx.Err() != nil {
			err = fmt.Errorf("%w: %v", domain.ErrAnalyzerTimeout, err)
		} else if !errors.Is(err, domain.ErrAnalyzerCrash) {
			err = fmt.Errorf("%w: %v", domain.ErrAnalyzerCrash, err)
		}
	case <-ctx.Done():
		err = fmt.Errorf("%w after %s", domain.ErrAnalyzerTimeout, s.timeout())
	}
	elapsed := s.clock().Now().Sub(start)

	switch {
	case errors.Is(err, domain.ErrAnalyzerTimeout):
		group.Status = domain.RunTimeout
	case err != nil:
		group.Status = domain.RunFailed
	}
	if err != nil {
		group.Findings = nil
		s.log().Warn("analyzer failed",
			"analyzer", d.Name,
			"language", d.Language,
			"status", group.Status,
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		s.log().Debug("analyzer finished",
			"analyzer", d.Name,
			"findings", len(group.Findings),
			"elapsed", elapsed,
		)
	}
	s.observer().ObserveRun(d, group.Status, elapsed)
	return group
}

func (s *Service) normalizer() *normalize.Normalizer {
	if s.Normalizer == nil {
		return normalize.New(nil, s.log())
	}
	return s.Normalizer
}
