package domain

import "github.com/dgallion1/templify/internal/detect"

// Builtin returns the registry of built-in domain packs. Pack definitions are
// explicit data; adding a genre means adding an entry here.
func Builtin() *Registry {
	r, err := NewRegistry(
		resumePack(),
		contractPack(),
		letterPack(),
		reportPack(),
		genericPack(),
	)
	if err != nil {
		// Built-in packs are static; a failure here is a programming error.
		panic(err)
	}
	return r
}

func resumePack() Pack {
	return Pack{
		Name:     "resume",
		Priority: 10,
		Roles: []RoleSpec{
			{Role: detect.RoleTitle, Cardinality: One, Weight: 1.5},
			{Role: detect.RoleContact, Cardinality: Optional, Weight: 1.2},
			{Role: detect.RoleHeading, Cardinality: Repeatable, Weight: 1.0},
			{Role: detect.RoleKVPair, Cardinality: Optional},
			{Role: detect.RoleBody, Cardinality: Repeatable},
			{Role: detect.RoleBulletItem, Cardinality: Repeatable, Weight: 1.2},
		},
		Adjacency: map[detect.Role][]detect.Role{
			// Contact lines belong directly under the name line or each other.
			detect.RoleContact: {detect.RoleContact, detect.RoleHeading, detect.RoleKVPair, detect.RoleBody},
		},
	}
}

func contractPack() Pack {
	return Pack{
		Name:     "contract",
		Priority: 20,
		Roles: []RoleSpec{
			{Role: detect.RoleTitle, Cardinality: One, Weight: 1.2},
			{Role: detect.RoleDate, Cardinality: Optional},
			{Role: detect.RoleNumberedItem, Cardinality: Repeatable, Weight: 1.5},
			{Role: detect.RoleBody, Cardinality: Repeatable},
			{Role: detect.RoleSignature, Cardinality: One, Weight: 1.2},
		},
	}
}

func letterPack() Pack {
	return Pack{
		Name:     "letter",
		Priority: 30,
		Roles: []RoleSpec{
			{Role: detect.RoleDate, Cardinality: One, Weight: 1.2},
			{Role: detect.RoleContact, Cardinality: Optional},
			{Role: detect.RoleBody, Cardinality: Repeatable, Weight: 1.2},
			{Role: detect.RoleCallout, Cardinality: Optional},
			{Role: detect.RoleSignature, Cardinality: One, Weight: 1.3},
		},
	}
}

func reportPack() Pack {
	return Pack{
		Name:     "report",
		Priority: 40,
		Roles: []RoleSpec{
			{Role: detect.RoleTitle, Cardinality: One},
			{Role: detect.RoleHeading, Cardinality: Repeatable, Weight: 1.3},
			{Role: detect.RoleBody, Cardinality: Repeatable},
			{Role: detect.RoleTableRow, Cardinality: Repeatable, Weight: 1.2},
			{Role: detect.RoleCallout, Cardinality: Optional},
		},
	}
}

// genericPack is the fallback for unclassifiable prose. It has no strong
// required roles, so it only wins when nothing else fits.
func genericPack() Pack {
	return Pack{
		Name:     "generic",
		Priority: 100,
		Ceiling:  0.5,
		Roles: []RoleSpec{
			{Role: detect.RoleBody, Cardinality: One},
			{Role: detect.RoleHeading, Cardinality: Optional},
			{Role: detect.RoleBulletItem, Cardinality: Repeatable},
		},
	}
}
