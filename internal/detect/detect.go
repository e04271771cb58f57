// Package detect holds the structural-role detectors. Each detector is a pure
// function from a feature vector (plus a small context window) to a confidence
// score with optional extracted fields. Detectors never consult each other's
// results; the matcher resolves conflicts.
package detect

import (
	"fmt"
	"sort"

	"github.com/dgallion1/templify/internal/features"
)

// Role names a structural role a unit can play. Role strings are domain-scoped
// by the pack that references them.
type Role string

const (
	RoleTitle        Role = "title"
	RoleHeading      Role = "heading"
	RoleBody         Role = "body"
	RoleBulletItem   Role = "bullet_item"
	RoleNumberedItem Role = "numbered_item"
	RoleContact      Role = "contact"
	RoleDate         Role = "date"
	RoleTableRow     Role = "table_row"
	RoleCallout      Role = "callout"
	RoleSignature    Role = "signature"
	RoleKVPair       Role = "kv_pair"
)

// Detection is the outcome of running one detector against one unit.
type Detection struct {
	Role       Role
	Confidence float64 // in [0,1]
	Fields     map[string]string
}

// Window carries up to k feature vectors on each side of the unit under
// inspection, in source order.
type Window struct {
	Prev []features.Vector
	Next []features.Vector
}

// Detector scores one unit for one role.
type Detector func(v features.Vector, ctx Window) Detection

var registry = map[Role]Detector{}

// Register adds a detector for a role. Adding a role is a registry entry, not
// a new type hierarchy. Duplicate registration is a programming error.
func Register(role Role, d Detector) {
	if _, ok := registry[role]; ok {
		panic(fmt.Sprintf("detect: role %q registered twice", role))
	}
	registry[role] = d
}

// Lookup returns the detector for a role.
func Lookup(role Role) (Detector, bool) {
	d, ok := registry[role]
	return d, ok
}

// Roles lists registered roles in stable order.
func Roles() []Role {
	out := make([]Role, 0, len(registry))
	for r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// clue is one weighted heuristic signal. Negative weights argue against the
// role.
type clue struct {
	name   string
	weight float64
	fires  func(v features.Vector) bool
}

// synergy adds a bonus when every named clue fired together.
type synergy struct {
	needs []string
	bonus float64
}

// scoreClues sums fired clue weights plus synergy bonuses, clamped to [0,1].
// Confidence is monotonic in corroborating clues: every positive clue can only
// raise the score.
func scoreClues(v features.Vector, clues []clue, synergies []synergy) float64 {
	score := 0.0
	fired := map[string]bool{}
	for _, c := range clues {
		if c.fires(v) {
			score += c.weight
			fired[c.name] = true
		}
	}
	for _, s := range synergies {
		all := true
		for _, n := range s.needs {
			if !fired[n] {
				all = false
				break
			}
		}
		if all {
			score += s.bonus
		}
	}
	return clamp01(score)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
