// Package score evaluates domain packs against a document's feature sequence
// and selects the best-fit domain. Scoring is pure: packs hold no mutable
// state, and every evaluation reads only immutable feature data.
package score

import (
	"context"
	"errors"
	"sort"

	"github.com/dgallion1/templify/internal/detect"
	"github.com/dgallion1/templify/internal/domain"
	"github.com/dgallion1/templify/internal/features"
	"golang.org/x/sync/errgroup"
)

// ErrNoConfidentDomain reports that no pack cleared the aggregate-score floor.
// It is a recoverable outcome: the ranking is still returned alongside it.
var ErrNoConfidentDomain = errors.New("no confident domain")

// Options tunes scoring. Zero values fall back to defaults.
type Options struct {
	// MinRoleConfidence is the floor below which a role counts as missing.
	MinRoleConfidence float64
	// MissingRolePenalty is subtracted from the aggregate per missing
	// required role.
	MissingRolePenalty float64
	// Floor is the minimum aggregate score a pack must clear for Select to
	// report a confident domain.
	Floor float64
	// WindowSize is the detector context window (units on each side).
	WindowSize int
	// Parallelism bounds concurrent pack evaluation in Select. Zero means
	// one goroutine per pack.
	Parallelism int
}

// DefaultOptions mirror the tuning the pipeline ships with.
func DefaultOptions() Options {
	return Options{
		MinRoleConfidence:  0.35,
		MissingRolePenalty: 0.15,
		Floor:              0.30,
		WindowSize:         2,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinRoleConfidence <= 0 {
		o.MinRoleConfidence = d.MinRoleConfidence
	}
	if o.MissingRolePenalty <= 0 {
		o.MissingRolePenalty = d.MissingRolePenalty
	}
	if o.Floor <= 0 {
		o.Floor = d.Floor
	}
	if o.WindowSize <= 0 {
		o.WindowSize = d.WindowSize
	}
	return o
}

// Candidate is one (domain, aggregate confidence) pair.
type Candidate struct {
	Domain  string  `json:"domain"`
	Score   float64 `json:"score"`
	Missing int     `json:"missing_required_roles"`

	priority int
}

// Ranking is the ordered outcome of Select, best first.
type Ranking []Candidate

// Best returns the top candidate. Only meaningful for a non-empty ranking.
func (r Ranking) Best() Candidate {
	if len(r) == 0 {
		return Candidate{}
	}
	return r[0]
}

// Window builds the detector context window for unit i.
func Window(seq []features.Vector, i, k int) detect.Window {
	lo := i - k
	if lo < 0 {
		lo = 0
	}
	hi := i + k + 1
	if hi > len(seq) {
		hi = len(seq)
	}
	return detect.Window{Prev: seq[lo:i], Next: seq[i+1 : hi]}
}

// RoleDetections runs one role's detector over the full sequence.
func RoleDetections(seq []features.Vector, role detect.Role, k int) []detect.Detection {
	det, ok := detect.Lookup(role)
	if !ok {
		return make([]detect.Detection, len(seq))
	}
	out := make([]detect.Detection, len(seq))
	for i, v := range seq {
		out[i] = det(v, Window(seq, i, k))
	}
	return out
}

// Score computes the aggregate fit of one pack against the feature sequence,
// in [0,1]. Required roles are matched greedily in expected order: each must
// occur after the previous required role's matched position, ties broken by
// earlier position. Optional and repeatable roles contribute their best
// confidence anywhere in the sequence. The aggregate is the weighted mean of
// per-role best confidences, minus a penalty per missing required role.
func Score(seq []features.Vector, pack domain.Pack, opts Options) float64 {
	agg, _ := scorePack(seq, pack, opts.withDefaults())
	return agg
}

func scorePack(seq []features.Vector, pack domain.Pack, opts Options) (float64, int) {
	if len(seq) == 0 || len(pack.Roles) == 0 {
		return 0, len(pack.Required())
	}

	var weightSum, confSum float64
	missing := 0
	lastRequiredPos := -1

	for _, rs := range pack.Roles {
		w := rs.Weight
		if w == 0 {
			w = 1
		}
		dets := RoleDetections(seq, rs.Role, opts.WindowSize)

		if rs.Cardinality == domain.One {
			// Monotonic ordinal matching: the candidate must sit after the
			// previously matched required role.
			best, pos := bestAfter(dets, lastRequiredPos)
			if pos < 0 || best < opts.MinRoleConfidence {
				missing++
				weightSum += w
				continue
			}
			lastRequiredPos = pos
			confSum += w * best
			weightSum += w
			continue
		}

		// Optional/repeatable: best anywhere; below-threshold optionals
		// simply contribute nothing rather than penalizing.
		best, pos := bestAfter(dets, -1)
		if pos < 0 || best < opts.MinRoleConfidence {
			continue
		}
		confSum += w * best
		weightSum += w
	}

	if weightSum == 0 {
		return 0, missing
	}
	agg := confSum/weightSum - float64(missing)*opts.MissingRolePenalty
	if pack.Ceiling > 0 && agg > pack.Ceiling {
		agg = pack.Ceiling
	}
	if agg < 0 {
		agg = 0
	}
	if agg > 1 {
		agg = 1
	}
	return agg, missing
}

// bestAfter returns the highest confidence strictly after position `after`,
// earliest position winning ties.
func bestAfter(dets []detect.Detection, after int) (float64, int) {
	best := 0.0
	pos := -1
	for i := after + 1; i < len(dets); i++ {
		if dets[i].Confidence > best {
			best = dets[i].Confidence
			pos = i
		}
	}
	return best, pos
}

// Select scores every pack against the sequence and returns the ranking, best
// first. Pack evaluation is independent, so it runs in parallel and results
// are merged by a simple sort. When no pack clears the floor the ranking is
// returned together with ErrNoConfidentDomain.
func Select(ctx context.Context, seq []features.Vector, reg *domain.Registry, opts Options) (Ranking, error) {
	opts = opts.withDefaults()
	packs := reg.All()
	ranking := make(Ranking, len(packs))

	g, _ := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i, p := range packs {
		i, p := i, p
		g.Go(func() error {
			agg, missing := scorePack(seq, p, opts)
			ranking[i] = Candidate{Domain: p.Name, Score: agg, Missing: missing, priority: p.Priority}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		a, b := ranking[i], ranking[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Missing != b.Missing {
			return a.Missing < b.Missing
		}
		return a.priority < b.priority
	})

	if ranking.Best().Score < opts.Floor {
		return ranking, ErrNoConfidentDomain
	}
	return ranking, nil
}
