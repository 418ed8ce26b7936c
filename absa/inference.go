package absa

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/theimaginaryfoundation/dimabsa/absa/fileutils"
)

// Generator sends one prompt to a text-generation model and returns its raw text response.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Call outcomes recorded in the ledger.
const (
	StatusOK         = "ok"
	StatusCallError  = "call_error"
	StatusParseError = "parse_error"
)

// CallEvent is one model call outcome for one item.
type CallEvent struct {
	Profile         string
	ItemID          string
	Provider        string
	Model           string
	PromptTokens    int
	Status          string
	ResponseText    string
	ErrorMessage    string
	QuadrupletCount int
	CreatedAtUTC    time.Time
}

// Ledger persists call outcomes and serves earlier successful responses for resumed runs.
type Ledger interface {
	RecordCall(ctx context.Context, ev CallEvent) error
	LastOKResponse(ctx context.Context, profile, itemID string) (string, bool, error)
}

// RunStats summarizes a Runner pass.
type RunStats struct {
	Processed   int
	OK          int
	CallErrors  int
	ParseErrors int
	Resumed     int
	Quadruplets int

	// OffTaxonomy counts predicted categories that are not ENTITY#ATTRIBUTE over the profile's labels.
	// They are written unchanged.
	OffTaxonomy int

	Interrupted bool
}

// Runner drives the inference pipeline one item at a time.
type Runner struct {
	Generator Generator
	Profile   Profile

	// Provider and Model label ledger rows.
	Provider string
	Model    string

	// Delay is the pause between consecutive model calls.
	Delay time.Duration

	// Limit caps how many items are processed; 0 means all.
	Limit int

	Log zerolog.Logger

	// Ledger is optional. With Resume set, items that already have a successful response in the ledger
	// are not sent to the model again.
	Ledger Ledger
	Resume bool

	// Tokens is optional; when nil prompt sizes are not estimated.
	Tokens TokenCounter

	// Sleep defaults to a context-aware time.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run processes items in order and returns one prediction per processed item. A failed call or an
// unparseable response yields an empty prediction for that item and the run moves on. Cancelling ctx
// stops the loop; predictions accumulated so far are still returned.
func (r *Runner) Run(ctx context.Context, items []InferenceItem) ([]Prediction, RunStats) {
	var stats RunStats
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	total := len(items)
	if r.Limit > 0 && r.Limit < total {
		total = r.Limit
	}

	preds := make([]Prediction, 0, total)
	calledBefore := false
	for i, item := range items {
		if r.Limit > 0 && i >= r.Limit {
			r.Log.Info().Int("limit", r.Limit).Msg("limit reached, stopping inference")
			break
		}
		if ctx.Err() != nil {
			stats.Interrupted = true
			break
		}

		r.Log.Info().Str("id", item.ID).Msgf("progress quad-infer: %d/%d", i+1, total)

		prompt := BuildPrompt(r.Profile, item.Text)
		promptTokens := 0
		if r.Tokens != nil {
			promptTokens = r.Tokens.CountTokens(prompt)
		}

		if text, ok := r.resumedResponse(ctx, item); ok {
			pred, err := r.decode(item, text)
			if err == nil {
				stats.Processed++
				stats.Resumed++
				r.tally(&stats, pred)
				preds = append(preds, pred)
				continue
			}
		}

		if calledBefore && r.Delay > 0 {
			if err := sleep(ctx, r.Delay); err != nil {
				stats.Interrupted = true
				break
			}
		}
		calledBefore = true

		ev := CallEvent{
			Profile:      r.Profile.Name,
			ItemID:       item.ID,
			Provider:     r.Provider,
			Model:        r.Model,
			PromptTokens: promptTokens,
		}

		text, err := r.Generator.Generate(ctx, prompt)
		stats.Processed++
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				stats.Interrupted = true
			}
			stats.CallErrors++
			r.Log.Warn().Err(err).Str("id", item.ID).Msg("model call failed, writing empty result")
			preds = append(preds, FormatPrediction(item.ID, nil))
			ev.Status = StatusCallError
			ev.ErrorMessage = err.Error()
			r.record(ctx, ev)
			if stats.Interrupted {
				break
			}
			continue
		}
		ev.ResponseText = text
		r.Log.Debug().Str("id", item.ID).Str("response", fileutils.SanitizeNewlines(text)).Msg("raw model response")

		pred, err := r.decode(item, text)
		if err != nil {
			stats.ParseErrors++
			r.Log.Warn().Err(err).Str("id", item.ID).Msg("failed to decode model response, writing empty result")
			preds = append(preds, FormatPrediction(item.ID, nil))
			ev.Status = StatusParseError
			ev.ErrorMessage = err.Error()
			r.record(ctx, ev)
			continue
		}

		stats.OK++
		r.tally(&stats, pred)
		preds = append(preds, pred)
		ev.Status = StatusOK
		ev.QuadrupletCount = len(pred.Quadruplet)
		r.record(ctx, ev)
		r.Log.Debug().Str("id", item.ID).Int("quadruplets", len(pred.Quadruplet)).Msg("formatted prediction")
	}
	return preds, stats
}

func (r *Runner) decode(item InferenceItem, text string) (Prediction, error) {
	cands, err := DecodeCandidates(text)
	if err != nil {
		return Prediction{}, err
	}
	return FormatPrediction(item.ID, cands), nil
}

func (r *Runner) tally(stats *RunStats, pred Prediction) {
	stats.Quadruplets += len(pred.Quadruplet)
	for _, q := range pred.Quadruplet {
		if !r.Profile.InTaxonomy(q.Category) {
			stats.OffTaxonomy++
		}
	}
}

func (r *Runner) resumedResponse(ctx context.Context, item InferenceItem) (string, bool) {
	if !r.Resume || r.Ledger == nil {
		return "", false
	}
	text, ok, err := r.Ledger.LastOKResponse(ctx, r.Profile.Name, item.ID)
	if err != nil {
		r.Log.Warn().Err(err).Str("id", item.ID).Msg("ledger lookup failed")
		return "", false
	}
	return text, ok
}

func (r *Runner) record(ctx context.Context, ev CallEvent) {
	if r.Ledger == nil {
		return
	}
	if ev.CreatedAtUTC.IsZero() {
		ev.CreatedAtUTC = time.Now().UTC()
	}
	// A cancelled run still records the outcome of the item it was on.
	if err := r.Ledger.RecordCall(context.WithoutCancel(ctx), ev); err != nil {
		r.Log.Warn().Err(err).Str("id", ev.ItemID).Msg("ledger write failed")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
