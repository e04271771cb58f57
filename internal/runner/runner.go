// Package runner maps new plaintext content onto a built schema, emitting
// styled output units. The runner never halts on missing or surplus content:
// both are reported in diagnostics, and no input text is ever dropped.
package runner

import (
	"github.com/dgallion1/templify/internal/doctree"
	"github.com/dgallion1/templify/internal/domain"
	"github.com/dgallion1/templify/internal/schema"
)

// Policy controls how repeatable slots consume content blocks.
type Policy struct {
	// SplitOnBlankLine ends a repeatable run at the first block preceded by a
	// blank line. When false, a repeatable slot consumes up to the number of
	// units it matched at schema-build time.
	SplitOnBlankLine bool
}

// DefaultPolicy splits repeatable runs on blank lines.
func DefaultPolicy() Policy {
	return Policy{SplitOnBlankLine: true}
}

// UnfilledSlot identifies a required slot that received no content.
type UnfilledSlot struct {
	SlotID string `json:"slot_id"`
	Role   string `json:"role"`
}

// Diagnostics is the machine-readable report attached to a run result.
type Diagnostics struct {
	Unfilled []UnfilledSlot `json:"unfilled,omitempty"`
	Overflow int            `json:"overflow_blocks,omitempty"`
}

// Result is the ordered output of one schema run.
type Result struct {
	Units       []doctree.RenderedUnit `json:"units"`
	Diagnostics Diagnostics            `json:"diagnostics"`
}

// Run walks schema slots in order, consuming content blocks. Required slots
// left without content render empty under their captured style and are
// flagged; leftover blocks are appended as unstyled overflow units.
func Run(s *schema.Schema, blocks []doctree.ContentBlock, policy Policy) *Result {
	res := &Result{}
	next := 0

	for _, slot := range s.Slots {
		switch slot.Cardinality {
		case domain.Repeatable:
			next = consumeRun(res, slot, blocks, next, policy)
		default:
			if next < len(blocks) {
				res.Units = append(res.Units, render(slot, blocks[next].Text))
				next++
			} else if slot.Cardinality == domain.One {
				// Required but out of content: emit the empty styled unit and
				// report it. Optional slots are simply omitted.
				res.Units = append(res.Units, render(slot, ""))
				res.Diagnostics.Unfilled = append(res.Diagnostics.Unfilled, UnfilledSlot{
					SlotID: slot.ID,
					Role:   string(slot.Role),
				})
			}
		}
	}

	// Overflow: whatever the schema had no slot for still comes out, as
	// unstyled trailing units.
	for ; next < len(blocks); next++ {
		res.Units = append(res.Units, doctree.RenderedUnit{
			Text:     blocks[next].Text,
			Style:    doctree.UnknownStyle(),
			Overflow: true,
		})
		res.Diagnostics.Overflow++
	}

	return res
}

// consumeRun feeds a repeatable slot. With blank-line splitting the run ends
// at the first explicit boundary after the first block; otherwise it consumes
// up to the slot's matched count.
func consumeRun(res *Result, slot schema.Slot, blocks []doctree.ContentBlock, next int, policy Policy) int {
	if next >= len(blocks) {
		return next
	}

	consumed := 0
	for next < len(blocks) {
		if consumed > 0 {
			if policy.SplitOnBlankLine && blocks[next].BoundaryBefore {
				break
			}
			if !policy.SplitOnBlankLine && consumed >= slot.Count {
				break
			}
		}
		res.Units = append(res.Units, render(slot, blocks[next].Text))
		next++
		consumed++
	}
	return next
}

func render(slot schema.Slot, text string) doctree.RenderedUnit {
	return doctree.RenderedUnit{
		Text:   text,
		Style:  slot.Style,
		SlotID: slot.ID,
		Role:   string(slot.Role),
	}
}
