package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/templify/internal/domain"
	"github.com/dgallion1/templify/internal/features"
	"github.com/dgallion1/templify/internal/intake"
	"github.com/dgallion1/templify/internal/match"
	"github.com/dgallion1/templify/internal/schema"
	"github.com/dgallion1/templify/internal/score"
	"github.com/dgallion1/templify/internal/workspace"
)

// Worker runs a single schema build job through the full pipeline:
// parse, feature extraction, domain scoring, role matching, aggregation,
// and finally persistence into the workspace.
type Worker struct {
	registry *domain.Registry
	store    *workspace.Store
	stats    *BuildStats
	log      *slog.Logger
	opts     score.Options
}

func NewWorker(registry *domain.Registry, store *workspace.Store, stats *BuildStats, log *slog.Logger, opts score.Options) *Worker {
	return &Worker{
		registry: registry,
		store:    store,
		stats:    stats,
		log:      log,
		opts:     opts,
	}
}

// Process runs the full build pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()
	defer func() {
		w.stats.Record(time.Since(start).Milliseconds())
	}()

	// Phase 1: Parse the exemplar document.
	job.SetStatus(StatusParsing, "parsing")
	units, err := intake.Docx(bytes.NewReader(job.FileData()))
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	if len(units) == 0 {
		log.Warn("document has no content")
		job.AddError("no structural units in document")
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	log.Info("parsed document", "units", len(units))

	// Phase 2: Feature extraction.
	job.SetStatus(StatusExtracting, "extracting features")
	vecs := features.ExtractAll(units, w.opts.WindowSize)

	// Phase 3: Domain scoring.
	job.SetStatus(StatusScoring, "scoring domains")
	ranking, err := score.Select(ctx, vecs, w.registry, w.opts)
	job.SetRanking(ranking)
	if errors.Is(err, score.ErrNoConfidentDomain) {
		log.Info("no confident domain", "best", ranking.Best().Domain, "score", ranking.Best().Score)
		job.SetStatus(StatusNoDomain, "scoring")
		return
	}
	if err != nil {
		log.Error("scoring failed", "error", err)
		job.AddError(fmt.Sprintf("score: %s", err))
		job.SetStatus(StatusFailed, "scoring")
		return
	}
	best := ranking.Best()
	log.Info("domain selected", "domain", best.Domain, "score", best.Score)

	pack, ok := w.registry.Get(best.Domain)
	if !ok {
		job.AddError(fmt.Sprintf("selected domain %q not registered", best.Domain))
		job.SetStatus(StatusFailed, "scoring")
		return
	}

	// Phase 4: Role matching.
	job.SetStatus(StatusMatching, "matching roles")
	res := match.Match(vecs, pack, w.opts)
	if len(res.MissingRequired) > 0 {
		log.Warn("required roles unmatched", "roles", res.MissingRequired)
	}

	// Phase 5: Aggregate into a schema.
	job.SetStatus(StatusAggregating, "aggregating")
	sc, err := schema.Aggregate(res, units, pack, best.Score)
	if err != nil {
		log.Error("aggregation failed", "error", err)
		job.AddError(fmt.Sprintf("aggregate: %s", err))
		job.SetStatus(StatusFailed, "aggregating")
		return
	}
	sc.ID = uuid.NewString()
	sc.BuiltAt = time.Now().UTC()

	if err := w.store.Save(sc); err != nil {
		log.Error("save failed", "error", err)
		job.AddError(fmt.Sprintf("save: %s", err))
		job.SetStatus(StatusFailed, "aggregating")
		return
	}

	job.SetResult(sc.ID, sc.Domain, sc.Confidence)
	job.SetStatus(StatusCompleted, "done")
	log.Info("schema built", "schema_id", sc.ID, "domain", sc.Domain, "slots", len(sc.Slots),
		"duration_ms", time.Since(start).Milliseconds())
}
