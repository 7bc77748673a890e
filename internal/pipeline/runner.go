// Package pipeline runs a batch: one strategy over a planned item list,
// strictly sequentially, persisting some result for every item it attempts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/dutyscrape/internal/coerce"
	"github.com/law-makers/dutyscrape/internal/extract"
	"github.com/law-makers/dutyscrape/internal/metrics"
	"github.com/law-makers/dutyscrape/pkg/models"
)

// DefaultWriteTimeout bounds a single store write
const DefaultWriteTimeout = 30 * time.Second

// Sink persists one coerced value
type Sink interface {
	Write(ctx context.Context, item models.Item, value *float64) error
	// Target names the destination for logs, e.g. backups."DDB"
	Target() string
}

// Progress is advanced once per finished item
type Progress interface {
	Add(n int) error
	Finish() error
}

type state int

const (
	statePending state = iota
	stateExtracting
	stateCoercing
	statePersisting
	stateDone
)

func (s state) String() string {
	return [...]string{"pending", "extracting", "coercing", "persisting", "done"}[s]
}

// Runner drives one batch
type Runner struct {
	strategy     extract.Strategy
	sink         Sink
	reporter     Reporter
	progress     Progress
	metrics      *metrics.Metrics
	runID        string
	writeTimeout time.Duration
	now          func() time.Time
}

// Option configures a Runner
type Option func(*Runner)

// WithReporter sets the per-item reporter
func WithReporter(r Reporter) Option {
	return func(rn *Runner) { rn.reporter = r }
}

// WithProgress sets a progress indicator
func WithProgress(p Progress) Option {
	return func(rn *Runner) { rn.progress = p }
}

// WithMetrics records item and write metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(rn *Runner) { rn.metrics = m }
}

// WithRunID tags the summary
func WithRunID(id string) Option {
	return func(rn *Runner) { rn.runID = id }
}

// WithWriteTimeout overrides DefaultWriteTimeout
func WithWriteTimeout(d time.Duration) Option {
	return func(rn *Runner) {
		if d > 0 {
			rn.writeTimeout = d
		}
	}
}

// NewRunner creates a runner for strategy writing into sink
func NewRunner(strategy extract.Strategy, sink Sink, opts ...Option) *Runner {
	r := &Runner{
		strategy:     strategy,
		sink:         sink,
		reporter:     Discard{},
		writeTimeout: DefaultWriteTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes items in order. It returns an error only when the strategy's
// one-time preparation fails; per-item failures are recorded in the summary.
// Cancelling ctx stops the batch before the next item.
func (r *Runner) Run(ctx context.Context, items []models.Item) (*Summary, error) {
	summary := &Summary{
		RunID:     r.runID,
		Strategy:  r.strategy.Name(),
		Target:    r.sink.Target(),
		Planned:   len(items),
		StartedAt: r.now(),
	}
	defer func() {
		summary.Elapsed = r.now().Sub(summary.StartedAt)
		summary.ElapsedMs = summary.Elapsed.Milliseconds()
		if r.progress != nil {
			_ = r.progress.Finish()
		}
	}()

	if err := extract.Prepare(ctx, r.strategy); err != nil {
		return summary, err
	}

	log.Info().
		Str("strategy", summary.Strategy).
		Str("target", summary.Target).
		Int("items", len(items)).
		Msg("Batch started")

	for i, item := range items {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		r.metrics.SetRemaining(len(items) - i)

		res, ok := r.process(ctx, item)
		if !ok {
			// cancelled mid-extraction; nothing was written for this item
			summary.Interrupted = true
			break
		}

		summary.add(res)
		r.reporter.Report(res)
		if r.progress != nil {
			_ = r.progress.Add(1)
		}
	}
	r.metrics.SetRemaining(0)

	ev := log.Info()
	if summary.Interrupted {
		ev = log.Warn()
	}
	ev.Str("strategy", summary.Strategy).
		Int("planned", summary.Planned).
		Int("processed", summary.Processed).
		Int("values", summary.Values).
		Int("absent", summary.Absent).
		Int("errors", summary.Errors).
		Int("write_failures", summary.WriteFailures).
		Bool("interrupted", summary.Interrupted).
		Msg("Batch finished")

	return summary, nil
}

// process moves one item through pending, extracting, coercing, persisting
// and done. ok is false when ctx was cancelled before a result existed.
func (r *Runner) process(ctx context.Context, item models.Item) (res models.Result, ok bool) {
	start := r.now()
	logger := log.With().Str("hsn", item.Code).Str("strategy", r.strategy.Name()).Logger()
	if item.Country != nil {
		logger = logger.With().Str("country", item.Country.Code).Str("column", item.Country.Column).Logger()
	}

	st := statePending
	advance := func(next state) {
		logger.Trace().Stringer("from", st).Stringer("to", next).Msg("Item state")
		st = next
	}

	advance(stateExtracting)
	outcome := r.extract(ctx, item)

	if outcome.Status == models.StatusError && ctx.Err() != nil {
		logger.Warn().Err(outcome.Err).Msg("Extraction interrupted")
		return models.Result{}, false
	}

	var value *float64
	switch outcome.Status {
	case models.StatusValue:
		advance(stateCoercing)
		value = coerce.RateString(outcome.Token)
		if value == nil {
			// a token with no leading number reads the same as no value
			logger.Info().Str("token", outcome.Token).Msg("Extracted text is not a number")
			outcome = models.Absent()
		}
	case models.StatusAbsent:
		logger.Info().Msg("No value found")
	default:
		logger.Warn().
			Str("code", string(extract.CodeOf(outcome.Err))).
			Err(outcome.Err).
			Msg("Extraction failed")
	}

	advance(statePersisting)
	writeErr := r.write(ctx, item, value)
	if writeErr != nil {
		logger.Error().Err(writeErr).Str("target", r.sink.Target()).Msg("Failed to save value")
	}

	advance(stateDone)
	elapsed := r.now().Sub(start)
	r.metrics.ObserveItem(r.strategy.Name(), string(outcome.Status), elapsed)

	res = models.Result{
		Item:       item,
		Key:        item.Key(),
		Status:     outcome.Status,
		Value:      value,
		Elapsed:    elapsed.Milliseconds(),
		FinishedAt: r.now(),
	}
	if writeErr != nil {
		res.WriteError = writeErr.Error()
	}

	logEvent(logger, outcome.Status).
		Str("value", coerce.Format(value)).
		Dur("elapsed", elapsed).
		Msg("Item done")

	return res, true
}

// extract runs the strategy, turning a panic into an extraction error
func (r *Runner) extract(ctx context.Context, item models.Item) (out models.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = models.Failed(extract.NewExtractError(extract.ErrCodePanic, fmt.Sprintf("%v", p), nil))
		}
	}()

	out = r.strategy.Extract(ctx, item)
	if out.Status == models.StatusError && out.Err == nil {
		out.Err = errors.New("extraction failed")
	}
	return out
}

// write persists value even if ctx has been cancelled since extraction
// finished, so an interrupted batch still saves its last item.
func (r *Runner) write(ctx context.Context, item models.Item, value *float64) (err error) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during write: %v", p)
		}
		r.metrics.ObserveWrite(r.sink.Target(), err)
	}()

	return r.sink.Write(wctx, item, value)
}

func logEvent(l zerolog.Logger, s models.Status) *zerolog.Event {
	if s == models.StatusValue {
		return l.Info()
	}
	return l.Debug()
}
