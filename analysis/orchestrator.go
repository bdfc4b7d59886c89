package analysis

import (
	"context"
	"sync"
	"time"

	"finance-advisor/api/llm"
	"finance-advisor/api/logger"
	"finance-advisor/api/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage names, also used in progress events.
const (
	StageSpendingRating = string(llm.PurposeSpendingRating)
	StageLongtermGoals  = string(llm.PurposeLongtermGoals)
	StageShorttermGoals = string(llm.PurposeShorttermGoals)
	StageGoodHabits     = string(llm.PurposeGoodHabits)
	StageBadHabits      = string(llm.PurposeBadHabits)
)

// Notifier receives progress events while a pipeline run is in flight.
type Notifier interface {
	StageUpdate(ev models.StageEvent)
	RunCompleted(ev models.RunCompletedEvent)
}

type nopNotifier struct{}

func (nopNotifier) StageUpdate(models.StageEvent)         {}
func (nopNotifier) RunCompleted(models.RunCompletedEvent) {}

// MultiNotifier fans progress events to several sinks.
type MultiNotifier []Notifier

func (m MultiNotifier) StageUpdate(ev models.StageEvent) {
	for _, n := range m {
		n.StageUpdate(ev)
	}
}

func (m MultiNotifier) RunCompleted(ev models.RunCompletedEvent) {
	for _, n := range m {
		n.RunCompleted(ev)
	}
}

// Orchestrator sequences the five analysis stages against one profile
// snapshot and merges the outcomes with the previously stored values.
type Orchestrator struct {
	gen      llm.Generator
	notifier Notifier

	// keepErrorPayloads preserves the legacy behavior of persisting a
	// normalizer's "no habits identified" placeholder as stage output.
	// When false such a stage falls back to its prior value instead.
	keepErrorPayloads bool
}

type Option func(*Orchestrator)

// WithNotifier attaches a progress event sink.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithKeepErrorPayloads keeps error-shaped habit payloads as run results
// instead of falling back to the prior stored value.
func WithKeepErrorPayloads() Option {
	return func(o *Orchestrator) { o.keepErrorPayloads = true }
}

func New(gen llm.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{gen: gen, notifier: nopNotifier{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// runOutcome is one stage slot: the value computed this run, or the reason
// it fell back.
type runOutcome[T any] struct {
	value T
	err   error
}

// Run executes the full pipeline against profile. The spending-rating stage
// resolves first; the goal stages consume its resolved value (this run's
// output if it succeeded, else the stored prior) and run concurrently with
// the two habit stages, which see only the original snapshot. Every stage
// failure is absorbed: the merged result falls back field-by-field to the
// profile's stored derived fields, so Run never returns an error.
func (o *Orchestrator) Run(ctx context.Context, profile *models.UserProfile) models.DerivedFields {
	runID := uuid.NewString()
	userID := profile.ID.Hex()
	prior := profile.DerivedFields

	logger.Get().Info("starting analysis run",
		zap.String("run_id", runID),
		zap.String("user_id", userID),
		zap.String("email", profile.Email))

	spend := runStage(o, ctx, runID, userID, StageSpendingRating, func(ctx context.Context) (*models.SpendAnalysis, error) {
		return o.SpendingRating(ctx, profile)
	})

	// Resolved spending analysis feeds both goal stages. A nil prior still
	// yields a usable (zero) payload; the goal prompts tolerate it.
	spendInput := spend.value
	if spend.err != nil {
		spendInput = prior.SpendAnalysis
	}
	if spendInput == nil {
		spendInput = &models.SpendAnalysis{}
	}

	var (
		wg        sync.WaitGroup
		longterm  runOutcome[[]string]
		shortterm runOutcome[[]string]
		good      runOutcome[[]models.Recommendation]
		bad       runOutcome[[]models.Recommendation]
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		longterm = runStage(o, ctx, runID, userID, StageLongtermGoals, func(ctx context.Context) ([]string, error) {
			return o.goals(ctx, llm.PurposeLongtermGoals, spendInput)
		})
	}()
	go func() {
		defer wg.Done()
		shortterm = runStage(o, ctx, runID, userID, StageShorttermGoals, func(ctx context.Context) ([]string, error) {
			return o.goals(ctx, llm.PurposeShorttermGoals, spendInput)
		})
	}()
	go func() {
		defer wg.Done()
		good = runStage(o, ctx, runID, userID, StageGoodHabits, func(ctx context.Context) ([]models.Recommendation, error) {
			return o.habits(ctx, llm.PurposeGoodHabits, profile)
		})
	}()
	go func() {
		defer wg.Done()
		bad = runStage(o, ctx, runID, userID, StageBadHabits, func(ctx context.Context) ([]models.Recommendation, error) {
			return o.habits(ctx, llm.PurposeBadHabits, profile)
		})
	}()
	wg.Wait()

	attempt := models.DerivedFields{
		SpendAnalysis: spend.value,
		Longterm:      longterm.value,
		Shortterm:     shortterm.value,
		GoodHabits:    good.value,
		BadHabits:     bad.value,
	}
	merged := Merge(attempt, prior)

	stageErrs := map[string]error{
		StageSpendingRating: spend.err,
		StageLongtermGoals:  longterm.err,
		StageShorttermGoals: shortterm.err,
		StageGoodHabits:     good.err,
		StageBadHabits:      bad.err,
	}
	o.notifier.RunCompleted(models.RunCompletedEvent{
		RunID:     runID,
		UserID:    userID,
		Succeeded: stageNames(stageErrs, false),
		FellBack:  stageNames(stageErrs, true),
		Timestamp: time.Now().Unix(),
	})

	return merged
}

// runStage wraps one stage attempt with progress events and failure logging.
func runStage[T any](o *Orchestrator, ctx context.Context, runID, userID, stage string, fn func(context.Context) (T, error)) runOutcome[T] {
	o.notifier.StageUpdate(models.StageEvent{
		RunID: runID, UserID: userID, Stage: stage,
		Status: models.StageStarted, Timestamp: time.Now().Unix(),
	})

	value, err := fn(ctx)
	if err != nil {
		logger.Get().Warn("analysis stage fell back to prior value",
			zap.String("run_id", runID),
			zap.String("user_id", userID),
			zap.String("stage", stage),
			zap.Error(err))
		o.notifier.StageUpdate(models.StageEvent{
			RunID: runID, UserID: userID, Stage: stage,
			Status: models.StageFellBack, Error: err.Error(), Timestamp: time.Now().Unix(),
		})
		return runOutcome[T]{err: err}
	}

	o.notifier.StageUpdate(models.StageEvent{
		RunID: runID, UserID: userID, Stage: stage,
		Status: models.StageSucceeded, Timestamp: time.Now().Unix(),
	})
	return runOutcome[T]{value: value}
}

func stageNames(errs map[string]error, failed bool) []string {
	var names []string
	for _, stage := range []string{StageSpendingRating, StageLongtermGoals, StageShorttermGoals, StageGoodHabits, StageBadHabits} {
		if (errs[stage] != nil) == failed {
			names = append(names, stage)
		}
	}
	return names
}

// Merge reconciles this run's stage outputs with the previously stored
// values: per field, take the run's value when it is non-empty, else keep
// the prior. A failed stage leaves a zero field in attempt and therefore
// keeps the prior value untouched.
func Merge(attempt, prior models.DerivedFields) models.DerivedFields {
	merged := prior
	if attempt.SpendAnalysis != nil {
		merged.SpendAnalysis = attempt.SpendAnalysis
	}
	if len(attempt.Longterm) > 0 {
		merged.Longterm = attempt.Longterm
	}
	if len(attempt.Shortterm) > 0 {
		merged.Shortterm = attempt.Shortterm
	}
	if len(attempt.GoodHabits) > 0 {
		merged.GoodHabits = attempt.GoodHabits
	}
	if len(attempt.BadHabits) > 0 {
		merged.BadHabits = attempt.BadHabits
	}
	return merged
}
