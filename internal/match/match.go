// Package match assigns structural units to schema roles for the winning
// domain pack. Matching is greedy and backtracking-free: conflicts go to the
// strictly higher confidence, earlier roles win ties, and a displaced role
// re-searches after its previous match's position.
package match

import (
	"sort"

	"github.com/dgallion1/templify/internal/detect"
	"github.com/dgallion1/templify/internal/domain"
	"github.com/dgallion1/templify/internal/features"
	"github.com/dgallion1/templify/internal/score"
)

// Assignment binds one unit to exactly one role.
type Assignment struct {
	UnitIndex  int               `json:"unit_index"`
	Role       detect.Role       `json:"role"`
	Confidence float64           `json:"confidence"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// Result carries the ordered assignments plus the required roles that found
// no candidate. Missing required roles are a reported outcome, not an error.
type Result struct {
	Assignments     []Assignment
	MissingRequired []detect.Role
}

type claim struct {
	role     detect.Role
	conf     float64
	fields   map[string]string
	required bool
	specIdx  int // position in pack.Roles, for tie-breaks
}

// Match resolves the unit→role assignment for one pack. The returned
// assignment list is strictly increasing by unit index.
func Match(seq []features.Vector, pack domain.Pack, opts score.Options) Result {
	opts = applyDefaults(opts)
	if len(seq) == 0 {
		return Result{MissingRequired: requiredRoles(pack)}
	}

	dets := make(map[detect.Role][]detect.Detection, len(pack.Roles))
	for _, rs := range pack.Roles {
		dets[rs.Role] = score.RoleDetections(seq, rs.Role, opts.WindowSize)
	}

	claims := make([]*claim, len(seq))

	// Phase 1: required roles in expected order, monotonic by position.
	// Sequential claiming after the previous match means two required roles
	// can never compete for the same unit.
	reqPos := matchRequired(pack, dets, claims, opts)

	// Phase 2: optional and repeatable roles. Each unit goes to the
	// highest-confidence candidate; the earlier pack role wins ties. A
	// required claim is displaced only by a strictly higher confidence.
	displaced := matchFlexible(pack, dets, claims, opts)

	// Displaced required roles re-search inside their legal window so the
	// expected order of required slots is preserved.
	rematchDisplaced(pack, dets, claims, reqPos, displaced, opts)

	// Optional roles hold at most one unit: keep the best, hand the rest to
	// the runner-up candidate on that unit.
	enforceOptionalCardinality(pack, dets, claims, opts)

	return collect(pack, claims)
}

func applyDefaults(opts score.Options) score.Options {
	d := score.DefaultOptions()
	if opts.MinRoleConfidence <= 0 {
		opts.MinRoleConfidence = d.MinRoleConfidence
	}
	if opts.WindowSize <= 0 {
		opts.WindowSize = d.WindowSize
	}
	return opts
}

func requiredRoles(pack domain.Pack) []detect.Role {
	var out []detect.Role
	for _, rs := range pack.Required() {
		out = append(out, rs.Role)
	}
	return out
}

// matchRequired claims one unit per required role, in expected order, each
// strictly after the previous required match. Returns role→position for the
// matched ones.
func matchRequired(pack domain.Pack, dets map[detect.Role][]detect.Detection, claims []*claim, opts score.Options) map[detect.Role]int {
	reqPos := map[detect.Role]int{}
	prev := -1
	for specIdx, rs := range pack.Roles {
		if rs.Cardinality != domain.One {
			continue
		}
		pos, conf := bestUnclaimed(dets[rs.Role], claims, prev+1, len(claims), opts.MinRoleConfidence)
		if pos < 0 {
			continue
		}
		claims[pos] = &claim{
			role:     rs.Role,
			conf:     conf,
			fields:   dets[rs.Role][pos].Fields,
			required: true,
			specIdx:  specIdx,
		}
		reqPos[rs.Role] = pos
		prev = pos
	}
	return reqPos
}

// matchFlexible assigns optional/repeatable roles per unit and returns the
// required roles it displaced.
func matchFlexible(pack domain.Pack, dets map[detect.Role][]detect.Detection, claims []*claim, opts score.Options) []detect.Role {
	var displaced []detect.Role
	for i := range claims {
		bestConf := 0.0
		bestSpec := -1
		for specIdx, rs := range pack.Roles {
			if rs.Cardinality == domain.One {
				continue
			}
			c := dets[rs.Role][i].Confidence
			if c < opts.MinRoleConfidence {
				continue
			}
			if c > bestConf {
				bestConf = c
				bestSpec = specIdx
			}
		}
		if bestSpec < 0 {
			continue
		}
		rs := pack.Roles[bestSpec]
		if cur := claims[i]; cur != nil {
			// A required claim yields only to strictly higher confidence.
			if bestConf <= cur.conf {
				continue
			}
			if cur.required {
				displaced = append(displaced, cur.role)
			}
		}
		claims[i] = &claim{
			role:    rs.Role,
			conf:    bestConf,
			fields:  dets[rs.Role][i].Fields,
			specIdx: bestSpec,
		}
	}
	return displaced
}

// rematchDisplaced re-searches each displaced required role between its
// neighboring required matches.
func rematchDisplaced(pack domain.Pack, dets map[detect.Role][]detect.Detection, claims []*claim, reqPos map[detect.Role]int, displaced []detect.Role, opts score.Options) {
	for _, role := range displaced {
		delete(reqPos, role)
	}
	for _, role := range displaced {
		lo, hi := windowFor(pack, role, reqPos, len(claims))
		pos, conf := bestUnclaimed(dets[role], claims, lo, hi, opts.MinRoleConfidence)
		if pos < 0 {
			continue
		}
		specIdx := 0
		for i, rs := range pack.Roles {
			if rs.Role == role {
				specIdx = i
				break
			}
		}
		claims[pos] = &claim{
			role:     role,
			conf:     conf,
			fields:   dets[role][pos].Fields,
			required: true,
			specIdx:  specIdx,
		}
		reqPos[role] = pos
	}
}

// windowFor bounds a required role's legal positions by the required roles
// already matched before and after it in the pack's expected order.
func windowFor(pack domain.Pack, role detect.Role, reqPos map[detect.Role]int, n int) (int, int) {
	lo, hi := 0, n
	seen := false
	for _, rs := range pack.Roles {
		if rs.Cardinality != domain.One {
			continue
		}
		if rs.Role == role {
			seen = true
			continue
		}
		p, ok := reqPos[rs.Role]
		if !ok {
			continue
		}
		if !seen && p+1 > lo {
			lo = p + 1
		}
		if seen && p < hi {
			hi = p
		}
	}
	return lo, hi
}

// bestUnclaimed finds the highest-confidence unclaimed position in [lo, hi),
// earliest position winning ties.
func bestUnclaimed(dets []detect.Detection, claims []*claim, lo, hi int, min float64) (int, float64) {
	pos, best := -1, 0.0
	for i := lo; i < hi && i < len(dets); i++ {
		if claims[i] != nil {
			continue
		}
		if c := dets[i].Confidence; c >= min && c > best {
			pos, best = i, c
		}
	}
	return pos, best
}

// enforceOptionalCardinality trims optional roles down to their single best
// unit; demoted units fall to the next-best eligible role.
func enforceOptionalCardinality(pack domain.Pack, dets map[detect.Role][]detect.Detection, claims []*claim, opts score.Options) {
	for specIdx, rs := range pack.Roles {
		if rs.Cardinality != domain.Optional {
			continue
		}
		keep, best := -1, 0.0
		for i, c := range claims {
			if c == nil || c.role != rs.Role || c.required {
				continue
			}
			if c.conf > best {
				keep, best = i, c.conf
			}
		}
		for i, c := range claims {
			if c == nil || c.role != rs.Role || c.required || i == keep {
				continue
			}
			claims[i] = runnerUp(pack, dets, i, specIdx, opts)
		}
	}
}

// runnerUp picks the best repeatable-role candidate for a demoted unit, or
// nil when nothing clears the threshold.
func runnerUp(pack domain.Pack, dets map[detect.Role][]detect.Detection, i, excludeSpec int, opts score.Options) *claim {
	var out *claim
	for specIdx, rs := range pack.Roles {
		if specIdx == excludeSpec || rs.Cardinality != domain.Repeatable {
			continue
		}
		c := dets[rs.Role][i].Confidence
		if c < opts.MinRoleConfidence {
			continue
		}
		if out == nil || c > out.conf {
			out = &claim{role: rs.Role, conf: c, fields: dets[rs.Role][i].Fields, specIdx: specIdx}
		}
	}
	return out
}

// collect turns claims into the ordered result, applying adjacency rules and
// recording missing required roles.
func collect(pack domain.Pack, claims []*claim) Result {
	var res Result

	var prevRole detect.Role
	havePrev := false
	for i, c := range claims {
		if c == nil {
			continue
		}
		// Adjacency: a flexible assignment incompatible with its predecessor
		// is dropped; required assignments always stand.
		if havePrev && !c.required && !pack.Compatible(prevRole, c.role) {
			continue
		}
		res.Assignments = append(res.Assignments, Assignment{
			UnitIndex:  i,
			Role:       c.role,
			Confidence: c.conf,
			Fields:     c.fields,
		})
		prevRole = c.role
		havePrev = true
	}

	matched := map[detect.Role]bool{}
	for _, a := range res.Assignments {
		matched[a.Role] = true
	}
	for _, rs := range pack.Required() {
		if !matched[rs.Role] {
			res.MissingRequired = append(res.MissingRequired, rs.Role)
		}
	}

	sort.Slice(res.Assignments, func(i, j int) bool {
		return res.Assignments[i].UnitIndex < res.Assignments[j].UnitIndex
	})
	return res
}
