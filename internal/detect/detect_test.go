package detect

import (
	"testing"

	"github.com/dgallion1/templify/internal/doctree"
	"github.com/dgallion1/templify/internal/features"
)

func vectorFor(t *testing.T, text string) features.Vector {
	t.Helper()
	units := []doctree.Unit{{
		Index: 0,
		Text:  text,
		Kind:  doctree.KindParagraph,
		Style: doctree.UnknownStyle(),
	}}
	return features.Extract(units, 0, 2)
}

func TestRegistryHasAllBuiltinRoles(t *testing.T) {
	want := []Role{
		RoleBody, RoleBulletItem, RoleCallout, RoleContact, RoleDate,
		RoleHeading, RoleKVPair, RoleNumberedItem, RoleSignature,
		RoleTableRow, RoleTitle,
	}
	got := Roles()
	if len(got) != len(want) {
		t.Fatalf("expected %d roles, got %d: %v", len(want), len(got), got)
	}
	for i, r := range want {
		if got[i] != r {
			t.Errorf("role %d: expected %q, got %q", i, r, got[i])
		}
		if _, ok := Lookup(r); !ok {
			t.Errorf("Lookup(%q) failed", r)
		}
	}
}

func TestDetectHeadingRanksHeadingsAboveProse(t *testing.T) {
	heading := vectorFor(t, "WORK EXPERIENCE")
	prose := vectorFor(t, "I spent five years maintaining billing infrastructure. It was mostly Go.")

	h := DetectHeading(heading, Window{})
	p := DetectHeading(prose, Window{})
	if h.Confidence <= p.Confidence {
		t.Errorf("heading %f should outscore prose %f", h.Confidence, p.Confidence)
	}
	if h.Confidence < 0.5 {
		t.Errorf("all-caps short line should score at least 0.5, got %f", h.Confidence)
	}
}

// Corroborating style evidence must only raise a detector's confidence.
func TestDetectHeadingMonotonicInCorroboratingFeatures(t *testing.T) {
	bare := vectorFor(t, "Professional Summary")

	styled := bare
	styled.StyleID = "Heading1"
	styled.Bold = true
	styled.SizeHalf = 32

	b := DetectHeading(bare, Window{})
	s := DetectHeading(styled, Window{})
	if s.Confidence < b.Confidence {
		t.Errorf("adding style evidence lowered confidence: %f -> %f", b.Confidence, s.Confidence)
	}
}

func TestDetectBulletItemExtractsGlyph(t *testing.T) {
	v := vectorFor(t, "• Kubernetes cluster operations")
	d := DetectBulletItem(v, Window{})
	if d.Confidence < 0.6 {
		t.Errorf("expected strong bullet confidence, got %f", d.Confidence)
	}
	if d.Fields["glyph"] != "•" {
		t.Errorf("expected glyph field •, got %q", d.Fields["glyph"])
	}

	plain := vectorFor(t, "No bullets in this sentence at all.")
	if dp := DetectBulletItem(plain, Window{}); dp.Confidence >= d.Confidence {
		t.Errorf("plain prose %f should not outscore a bullet %f", dp.Confidence, d.Confidence)
	}
}

func TestDetectDateExtractsField(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"January 5, 2024", "January 5, 2024"},
		{"2024-01-05", "2024-01-05"},
		{"01/05/2024", "01/05/2024"},
	}
	for _, tt := range tests {
		v := vectorFor(t, tt.text)
		d := DetectDate(v, Window{})
		if d.Confidence < 0.6 {
			t.Errorf("%q: expected strong date confidence, got %f", tt.text, d.Confidence)
		}
		if d.Fields["date"] != tt.want {
			t.Errorf("%q: expected date field %q, got %q", tt.text, tt.want, d.Fields["date"])
		}
	}

	none := vectorFor(t, "no date in this line")
	if d := DetectDate(none, Window{}); d.Fields != nil {
		t.Errorf("expected no date field, got %v", d.Fields)
	}
}

func TestDetectContactExtractsEmail(t *testing.T) {
	v := vectorFor(t, "jane.doe@example.com | (555) 867-5309 | Portland, OR")
	d := DetectContact(v, Window{})
	if d.Confidence < 0.6 {
		t.Errorf("expected strong contact confidence, got %f", d.Confidence)
	}
	if d.Fields["email"] != "jane.doe@example.com" {
		t.Errorf("expected email field, got %q", d.Fields["email"])
	}
}

func TestDetectSignatureUsesContextWindow(t *testing.T) {
	name := vectorFor(t, "Jane Doe")
	name.RelativePosition = 0.95

	signoff := vectorFor(t, "Sincerely,")

	bare := DetectSignature(name, Window{})
	after := DetectSignature(name, Window{Prev: []features.Vector{signoff}})
	if after.Confidence <= bare.Confidence {
		t.Errorf("a preceding sign-off should raise confidence: %f -> %f", bare.Confidence, after.Confidence)
	}
}

func TestDetectKVPairSplitsLabelValue(t *testing.T) {
	v := vectorFor(t, "Skills: Python, AWS, Terraform")
	d := DetectKVPair(v, Window{})
	if d.Fields["label"] != "Skills" {
		t.Errorf("expected label Skills, got %q", d.Fields["label"])
	}
	if d.Fields["value"] != "Python, AWS, Terraform" {
		t.Errorf("unexpected value %q", d.Fields["value"])
	}
}

func TestAllDetectorsStayInRange(t *testing.T) {
	texts := []string{
		"", "EXPERIENCE", "• bullet item", "1. numbered", "Sincerely,",
		"Note: check the appendix", "A long sentence about nothing in particular.",
		"jane@example.com", "March 3, 2021", "Name | Role | Team",
	}
	for _, role := range Roles() {
		d, _ := Lookup(role)
		for _, text := range texts {
			v := vectorFor(t, text)
			res := d(v, Window{})
			if res.Confidence < 0 || res.Confidence > 1 {
				t.Errorf("%s(%q): confidence %f out of range", role, text, res.Confidence)
			}
			if res.Role != role {
				t.Errorf("%s(%q): detection reports role %q", role, text, res.Role)
			}
		}
	}
}
