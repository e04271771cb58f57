// Package domain defines domain packs: named templates of expected structural
// roles, their ordering and cardinality, for one document genre. Packs are
// plain values assembled at process start; there is no runtime discovery.
package domain

import (
	"fmt"
	"sort"

	"github.com/dgallion1/templify/internal/detect"
)

// Cardinality constrains how many units a role may claim.
type Cardinality string

const (
	One        Cardinality = "one"
	Optional   Cardinality = "optional"
	Repeatable Cardinality = "repeatable"
)

// RoleSpec is one expected role in a pack's section order.
type RoleSpec struct {
	Role        detect.Role `json:"role"`
	Cardinality Cardinality `json:"cardinality"`
	Weight      float64     `json:"weight,omitempty"` // scoring weight, 1.0 when zero
}

// Pack is a domain template. Role names are scoped to the pack: the same role
// string in two packs may mean different things, so evaluation never mixes
// packs.
type Pack struct {
	Name     string     `json:"name"`
	Priority int        `json:"priority"` // lower wins score ties
	Roles    []RoleSpec `json:"roles"`    // expected order

	// Ceiling caps the aggregate score a pack can reach. Fallback packs whose
	// roles match almost any document declare a ceiling so that a specific
	// domain outranks them whenever both fit. Zero means uncapped.
	Ceiling float64 `json:"ceiling,omitempty"`

	// Adjacency lists the roles allowed to immediately follow a given role in
	// the matched sequence. A role absent from the map allows any follower.
	Adjacency map[detect.Role][]detect.Role `json:"adjacency,omitempty"`
}

// Required returns the specs with cardinality One, in expected order.
func (p Pack) Required() []RoleSpec {
	var out []RoleSpec
	for _, rs := range p.Roles {
		if rs.Cardinality == One {
			out = append(out, rs)
		}
	}
	return out
}

// Spec returns the RoleSpec for a role, if the pack expects it.
func (p Pack) Spec(role detect.Role) (RoleSpec, bool) {
	for _, rs := range p.Roles {
		if rs.Role == role {
			return rs, true
		}
	}
	return RoleSpec{}, false
}

// Compatible reports whether role b may immediately follow role a. Roles not
// constrained by the adjacency map are compatible with everything.
func (p Pack) Compatible(a, b detect.Role) bool {
	allowed, ok := p.Adjacency[a]
	if !ok {
		return true
	}
	for _, r := range allowed {
		if r == b {
			return true
		}
	}
	return false
}

// Validate checks that every role the pack references has a registered
// detector.
func (p Pack) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("domain: pack has no name")
	}
	if len(p.Roles) == 0 {
		return fmt.Errorf("domain: pack %q declares no roles", p.Name)
	}
	seen := map[detect.Role]bool{}
	for _, rs := range p.Roles {
		if seen[rs.Role] {
			return fmt.Errorf("domain: pack %q declares role %q twice", p.Name, rs.Role)
		}
		seen[rs.Role] = true
		if _, ok := detect.Lookup(rs.Role); !ok {
			return fmt.Errorf("domain: pack %q references unknown role %q", p.Name, rs.Role)
		}
		switch rs.Cardinality {
		case One, Optional, Repeatable:
		default:
			return fmt.Errorf("domain: pack %q role %q has invalid cardinality %q", p.Name, rs.Role, rs.Cardinality)
		}
	}
	return nil
}

// Registry holds the packs available to the scorer.
type Registry struct {
	packs map[string]Pack
}

// NewRegistry builds a registry from explicit pack values, validating each.
func NewRegistry(packs ...Pack) (*Registry, error) {
	r := &Registry{packs: make(map[string]Pack, len(packs))}
	for _, p := range packs {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, ok := r.packs[p.Name]; ok {
			return nil, fmt.Errorf("domain: pack %q registered twice", p.Name)
		}
		r.packs[p.Name] = p
	}
	return r, nil
}

// Get returns a pack by name.
func (r *Registry) Get(name string) (Pack, bool) {
	p, ok := r.packs[name]
	return p, ok
}

// All returns every pack, sorted by priority then name for stable iteration.
func (r *Registry) All() []Pack {
	out := make([]Pack, 0, len(r.packs))
	for _, p := range r.packs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}
