package pipeline

import (
	"context"

	"go.uber.org/zap"

	"sheetflow/internal/model"
)

// Progress receives batch lifecycle events: "start", "result", "error",
// "done". Callbacks must never break execution — panics are swallowed.
type Progress func(event string, payload any)

// Batch runs an ordered queue of units against a shared source cache.
// Exactly one batch owns its cache and planned regions for the duration
// of a run, so no locking is needed anywhere in the pipeline.
type Batch struct {
	Loader     SourceLoader
	Store      DestStore
	Log        *zap.SugaredLogger
	OnProgress Progress
}

// RunAll executes units in queue order, fail-fast: the first failure
// stops the batch, but every earlier unit is already durably committed.
// The returned results cover exactly the prefix of the queue that was
// attempted. Cancelling ctx stops the batch between units.
func (b *Batch) RunAll(ctx context.Context, items []model.RunItem) model.RunReport {
	log := b.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	cache := NewSourceCache(b.Loader)
	regions := NewRegions()
	report := model.RunReport{OK: true}

	log.Infof("🚀 starting batch: %d unit(s)", len(items))

	for i, item := range items {
		if ctx.Err() != nil {
			log.Warnf("⏹ batch cancelled after %d unit(s)", i)
			break
		}

		b.emit("start", item)
		res := Run(item, cache, b.Store, regions)
		report.Results = append(report.Results, res)

		if res.Failed() {
			report.OK = false
			log.Errorw("❌ unit failed",
				"source", res.SourcePath,
				"sheet", res.SheetName,
				"code", res.ErrorCode,
				"error", res.ErrorMessage,
			)
			b.emit("error", res)
			break
		}

		log.Infof("✅ %s / %s: %d row(s) → %s!%s",
			res.RecipeName, res.SheetName, res.RowsWritten, res.DestFile, res.DestSheet)
		b.emit("result", res)
	}

	log.Infof("🏁 batch done: %d unit(s) processed, ok=%v", len(report.Results), report.OK)
	b.emit("done", report)
	return report
}

// RunAllAsync hands the batch to a single background worker and returns
// a channel that delivers the final report. The pipeline itself stays
// synchronous — this is the only suspension boundary.
func (b *Batch) RunAllAsync(ctx context.Context, items []model.RunItem) <-chan model.RunReport {
	out := make(chan model.RunReport, 1)
	go func() {
		defer close(out)
		out <- b.RunAll(ctx, items)
	}()
	return out
}

func (b *Batch) emit(event string, payload any) {
	if b.OnProgress == nil {
		return
	}
	defer func() { _ = recover() }()
	b.OnProgress(event, payload)
}
