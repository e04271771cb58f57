package domain

import (
	"testing"

	"github.com/dgallion1/templify/internal/detect"
)

func TestBuiltinPacksValidate(t *testing.T) {
	r := Builtin()
	packs := r.All()
	if len(packs) != 5 {
		t.Fatalf("expected 5 built-in packs, got %d", len(packs))
	}
	for _, p := range packs {
		if err := p.Validate(); err != nil {
			t.Errorf("pack %q failed validation: %v", p.Name, err)
		}
	}
	// Priority order must be stable: generic last.
	if packs[len(packs)-1].Name != "generic" {
		t.Errorf("expected generic pack last, got %q", packs[len(packs)-1].Name)
	}
}

func TestRegistryRejectsUnknownRole(t *testing.T) {
	_, err := NewRegistry(Pack{
		Name:  "broken",
		Roles: []RoleSpec{{Role: detect.Role("no_such_role"), Cardinality: One}},
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestRegistryRejectsDuplicatePack(t *testing.T) {
	p := Pack{Name: "dup", Roles: []RoleSpec{{Role: detect.RoleBody, Cardinality: One}}}
	_, err := NewRegistry(p, p)
	if err == nil {
		t.Fatal("expected error for duplicate pack name")
	}
}

func TestRequiredFiltersByCardinality(t *testing.T) {
	p := Pack{
		Name: "t",
		Roles: []RoleSpec{
			{Role: detect.RoleTitle, Cardinality: One},
			{Role: detect.RoleContact, Cardinality: Optional},
			{Role: detect.RoleBody, Cardinality: Repeatable},
			{Role: detect.RoleSignature, Cardinality: One},
		},
	}
	req := p.Required()
	if len(req) != 2 {
		t.Fatalf("expected 2 required roles, got %d", len(req))
	}
	if req[0].Role != detect.RoleTitle || req[1].Role != detect.RoleSignature {
		t.Errorf("required order wrong: %v", req)
	}
}

func TestCompatibleDefaultsToTrue(t *testing.T) {
	p := Pack{
		Name:  "t",
		Roles: []RoleSpec{{Role: detect.RoleBody, Cardinality: One}},
		Adjacency: map[detect.Role][]detect.Role{
			detect.RoleContact: {detect.RoleHeading},
		},
	}
	if !p.Compatible(detect.RoleBody, detect.RoleHeading) {
		t.Error("unconstrained role should be compatible with anything")
	}
	if !p.Compatible(detect.RoleContact, detect.RoleHeading) {
		t.Error("explicitly allowed follower rejected")
	}
	if p.Compatible(detect.RoleContact, detect.RoleSignature) {
		t.Error("disallowed follower accepted")
	}
}
