// Package schema defines the inferred document schema and the aggregator that
// builds it from matcher output. A Schema is immutable once aggregated; the
// runner only reads it.
package schema

import (
	"fmt"
	"time"

	"github.com/dgallion1/templify/internal/detect"
	"github.com/dgallion1/templify/internal/doctree"
	"github.com/dgallion1/templify/internal/domain"
	"github.com/dgallion1/templify/internal/match"
)

// Slot is one schema position: a role, its realized cardinality, and the
// style metadata captured verbatim from the matched unit.
type Slot struct {
	ID          string             `json:"id"`
	Role        detect.Role        `json:"role"`
	Cardinality domain.Cardinality `json:"cardinality"`
	Count       int                `json:"count"` // units matched to this slot
	Style       doctree.Style      `json:"style"`
	Ordinal     int                `json:"ordinal"` // source unit index of first match
	Confidence  float64            `json:"confidence"`
	Fields      map[string]string  `json:"fields,omitempty"`
}

// Schema is the ordered, styled slot sequence inferred for one document.
type Schema struct {
	ID         string    `json:"id,omitempty"`
	Domain     string    `json:"domain"`
	Confidence float64   `json:"confidence"`
	Slots      []Slot    `json:"slots"`
	BuiltAt    time.Time `json:"built_at,omitempty"`
}

// IntegrityError signals that the matcher produced output violating the
// schema invariants. It is a pipeline defect, never bad input, so it is
// fatal and never silently corrected.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "schema integrity: " + e.Reason
}

// Aggregate merges matcher assignments into the final schema. Repeatable
// roles fold consecutive assignments into one slot with a count; the style
// captured is the first matched unit's, verbatim. The ordering invariant is
// validated: ordinals strictly increase, and an exactly-one role never claims
// two slots.
func Aggregate(res match.Result, units []doctree.Unit, pack domain.Pack, confidence float64) (*Schema, error) {
	s := &Schema{
		Domain:     pack.Name,
		Confidence: confidence,
	}

	seen := map[detect.Role]bool{}
	lastOrdinal := -1

	for _, a := range res.Assignments {
		if a.UnitIndex < 0 || a.UnitIndex >= len(units) {
			return nil, &IntegrityError{Reason: fmt.Sprintf("assignment references unit %d outside document of %d units", a.UnitIndex, len(units))}
		}
		if a.UnitIndex <= lastOrdinal {
			return nil, &IntegrityError{Reason: fmt.Sprintf("non-monotonic ordinal %d after %d", a.UnitIndex, lastOrdinal)}
		}
		lastOrdinal = a.UnitIndex

		spec, ok := pack.Spec(a.Role)
		if !ok {
			return nil, &IntegrityError{Reason: fmt.Sprintf("role %q not declared by pack %q", a.Role, pack.Name)}
		}

		// Fold a repeatable run into the previous slot for the same role.
		if spec.Cardinality == domain.Repeatable && len(s.Slots) > 0 {
			last := &s.Slots[len(s.Slots)-1]
			if last.Role == a.Role {
				last.Count++
				if a.Confidence > last.Confidence {
					last.Confidence = a.Confidence
				}
				continue
			}
		}

		if seen[a.Role] && spec.Cardinality != domain.Repeatable {
			return nil, &IntegrityError{Reason: fmt.Sprintf("role %q with cardinality %q matched twice", a.Role, spec.Cardinality)}
		}
		seen[a.Role] = true

		unit := units[a.UnitIndex]
		s.Slots = append(s.Slots, Slot{
			ID:          fmt.Sprintf("slot-%03d-%s", len(s.Slots), a.Role),
			Role:        a.Role,
			Cardinality: spec.Cardinality,
			Count:       1,
			Style:       unit.Style,
			Ordinal:     a.UnitIndex,
			Confidence:  a.Confidence,
			Fields:      copyFields(a.Fields),
		})
	}

	return s, nil
}

func copyFields(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
