package detect

import (
	"regexp"
	"strings"

	"github.com/dgallion1/templify/internal/doctree"
	"github.com/dgallion1/templify/internal/features"
)

func init() {
	Register(RoleTitle, DetectTitle)
	Register(RoleHeading, DetectHeading)
	Register(RoleBody, DetectBody)
	Register(RoleBulletItem, DetectBulletItem)
	Register(RoleNumberedItem, DetectNumberedItem)
	Register(RoleContact, DetectContact)
	Register(RoleDate, DetectDate)
	Register(RoleTableRow, DetectTableRow)
	Register(RoleCallout, DetectCallout)
	Register(RoleSignature, DetectSignature)
	Register(RoleKVPair, DetectKVPair)
}

var (
	emailRe = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`(?:\+?\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)[\s.\-]?)?\d{3}[\s.\-]?\d{3,4}[\s.\-]?\d{0,4}\b`)

	// Dates: "January 5, 2024", "5 Jan 2024", "2024-01-05", "01/05/2024".
	monthNameRe = regexp.MustCompile(`(?i)\b(jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|may|jun(e)?|jul(y)?|aug(ust)?|sep(t(ember)?)?|oct(ober)?|nov(ember)?|dec(ember)?)\b`)
	dateRe      = regexp.MustCompile(`(?i)\b(?:\d{1,2}\s+)?(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)[a-z]*\.?\s+\d{1,2}?,?\s*\d{4}\b|\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{2,4}\b`)

	signoffRe = regexp.MustCompile(`(?i)^(sincerely|regards|best regards|kind regards|yours (truly|faithfully|sincerely)|respectfully|cordially|cheers)[,.]?$`)

	calloutLeadRe = regexp.MustCompile(`(?i)^(note|warning|caution|important|tip|nb)[:\s]`)
)

// Heading clue set, with synergy bonuses when independent signals corroborate.
var headingClues = []clue{
	{"all_caps", 0.55, func(v features.Vector) bool {
		return v.HasAllCapsWord && v.UppercaseRatio >= 0.9 && v.TokenCount <= 8 && v.TokenCount > 0
	}},
	{"title_case", 0.39, func(v features.Vector) bool {
		return v.TitlecaseRate >= 0.8 && v.TokenCount >= 1 && v.TokenCount <= 6 && !v.EndsWithPeriod
	}},
	{"trailing_colon", 0.25, func(v features.Vector) bool { return v.TrailingColon }},
	{"num_heading", 0.30, func(v features.Vector) bool {
		return v.NumberingPrefix != "" && !v.StartsWithBullet && v.SentenceCount == 0
	}},
	{"short_line", 0.10, func(v features.Vector) bool {
		return v.TokenCount > 0 && v.TokenCount <= 4 && v.SentenceCount == 0
	}},
	{"styled_heading", 0.45, func(v features.Vector) bool {
		return strings.HasPrefix(strings.ToLower(v.StyleID), "heading")
	}},
	{"bold", 0.10, func(v features.Vector) bool { return v.Bold }},
	{"large_font", 0.10, func(v features.Vector) bool { return v.SizeHalf >= 28 }},
	{"larger_than_prev", 0.10, func(v features.Vector) bool { return v.LargerThanPrev }},
	// Negative signals.
	{"bullet", -0.30, func(v features.Vector) bool { return v.StartsWithBullet }},
	{"toc_dots", -0.20, func(v features.Vector) bool { return v.HasLeaderDots }},
	{"long_prose", -0.40, func(v features.Vector) bool { return v.SentenceCount >= 2 || v.TokenCount > 14 }},
	{"in_table", -0.25, func(v features.Vector) bool { return v.InTable }},
}

var headingSynergies = []synergy{
	{[]string{"num_heading", "title_case"}, 0.25},
	{[]string{"trailing_colon", "title_case"}, 0.25},
	{[]string{"all_caps", "bold"}, 0.10},
}

// DetectHeading scores a unit as a section heading.
func DetectHeading(v features.Vector, _ Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleHeading}
	}
	return Detection{Role: RoleHeading, Confidence: scoreClues(v, headingClues, headingSynergies)}
}

// DetectTitle scores a unit as the document title. Titles look like headings
// but sit at the very top of the document, usually with the largest font.
func DetectTitle(v features.Vector, ctx Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleTitle}
	}
	clues := []clue{
		{"at_top", 0.45, func(v features.Vector) bool { return v.RelativePosition <= 0.05 || v.FirstUnit }},
		{"heading_shape", 0.30, func(v features.Vector) bool {
			return (v.TitlecaseRate >= 0.8 || v.UppercaseRatio >= 0.9) && v.TokenCount <= 8 && v.TokenCount > 0
		}},
		{"title_style", 0.35, func(v features.Vector) bool {
			id := strings.ToLower(v.StyleID)
			return id == "title" || id == "heading1"
		}},
		{"huge_font", 0.15, func(v features.Vector) bool { return v.SizeHalf >= 36 }},
		{"prose", -0.50, func(v features.Vector) bool { return v.SentenceCount >= 1 || v.TokenCount > 10 }},
		{"bullet", -0.40, func(v features.Vector) bool { return v.StartsWithBullet }},
		{"not_first_page", -0.45, func(v features.Vector) bool { return v.RelativePosition > 0.2 }},
	}
	return Detection{Role: RoleTitle, Confidence: scoreClues(v, clues, nil)}
}

// DetectBody scores a unit as running body prose.
func DetectBody(v features.Vector, _ Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleBody}
	}
	clues := []clue{
		{"sentences", 0.45, func(v features.Vector) bool { return v.SentenceCount >= 1 }},
		{"length", 0.25, func(v features.Vector) bool { return v.TokenCount >= 8 }},
		{"mixed_case", 0.15, func(v features.Vector) bool {
			return v.UppercaseRatio > 0 && v.UppercaseRatio < 0.3
		}},
		{"normal_style", 0.10, func(v features.Vector) bool {
			id := strings.ToLower(v.StyleID)
			return id == "normal" || id == "body" || id == "bodytext"
		}},
		{"short_fragment", 0.20, func(v features.Vector) bool {
			// Even short plain fragments are body-ish when nothing marks them
			// as structure.
			return v.TokenCount >= 3 && !v.StartsWithBullet && v.NumberingPrefix == "" &&
				!v.TrailingColon && v.TitlecaseRate < 0.8 && v.UppercaseRatio < 0.5
		}},
		{"bullet", -0.45, func(v features.Vector) bool { return v.StartsWithBullet }},
		{"numbered", -0.25, func(v features.Vector) bool { return v.NumberingPrefix != "" }},
		{"all_caps", -0.35, func(v features.Vector) bool { return v.UppercaseRatio >= 0.9 && v.HasAllCapsWord }},
		{"trailing_colon", -0.15, func(v features.Vector) bool { return v.TrailingColon }},
		{"in_table", -0.30, func(v features.Vector) bool { return v.InTable }},
	}
	return Detection{Role: RoleBody, Confidence: scoreClues(v, clues, nil)}
}

// DetectBulletItem scores a unit as one bulleted list item.
func DetectBulletItem(v features.Vector, _ Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleBulletItem}
	}
	clues := []clue{
		{"glyph", 0.65, func(v features.Vector) bool { return v.StartsWithBullet }},
		{"list_style", 0.35, func(v features.Vector) bool { return v.ListShape == doctree.ListBullet }},
		{"indented", 0.10, func(v features.Vector) bool { return v.IndentLevel > 0 }},
		{"short", 0.10, func(v features.Vector) bool { return v.TokenCount <= 16 }},
		{"numbered", -0.30, func(v features.Vector) bool { return v.NumberingPrefix != "" }},
	}
	d := Detection{Role: RoleBulletItem, Confidence: scoreClues(v, clues, nil)}
	if v.BulletGlyph != "" {
		d.Fields = map[string]string{"glyph": v.BulletGlyph}
	}
	return d
}

// DetectNumberedItem scores a unit as one ordered list item.
func DetectNumberedItem(v features.Vector, _ Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleNumberedItem}
	}
	clues := []clue{
		{"prefix", 0.60, func(v features.Vector) bool { return v.NumberingPrefix != "" }},
		{"list_style", 0.35, func(v features.Vector) bool { return v.ListShape == doctree.ListNumbered }},
		{"indented", 0.10, func(v features.Vector) bool { return v.IndentLevel > 0 }},
		{"heading_shape", -0.25, func(v features.Vector) bool {
			return v.TitlecaseRate >= 0.8 && v.TokenCount <= 5
		}},
		{"bullet_glyph", -0.40, func(v features.Vector) bool { return v.StartsWithBullet }},
	}
	d := Detection{Role: RoleNumberedItem, Confidence: scoreClues(v, clues, nil)}
	if v.NumberingPrefix != "" {
		d.Fields = map[string]string{"prefix": v.NumberingPrefix}
	}
	return d
}

// DetectContact scores a unit as a contact line and extracts email/phone.
func DetectContact(v features.Vector, _ Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleContact}
	}
	email := emailRe.FindString(v.TextNorm)
	hasPhone := v.DigitRatio >= 0.25 && phoneRe.MatchString(v.TextNorm)
	clues := []clue{
		{"email", 0.60, func(features.Vector) bool { return email != "" }},
		{"phone", 0.35, func(features.Vector) bool { return hasPhone }},
		{"url", 0.15, func(v features.Vector) bool { return v.ContainsURLLike }},
		{"separator_bar", 0.10, func(v features.Vector) bool { return v.ContainsBar }},
		{"near_top", 0.10, func(v features.Vector) bool { return v.RelativePosition <= 0.15 }},
		{"prose", -0.40, func(v features.Vector) bool { return v.SentenceCount >= 2 }},
	}
	d := Detection{Role: RoleContact, Confidence: scoreClues(v, clues, nil)}
	if email != "" || hasPhone {
		d.Fields = map[string]string{}
		if email != "" {
			d.Fields["email"] = email
		}
		if hasPhone {
			d.Fields["phone"] = strings.TrimSpace(phoneRe.FindString(v.TextNorm))
		}
	}
	return d
}

// DetectDate scores a unit as a date line and extracts the matched date.
func DetectDate(v features.Vector, _ Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleDate}
	}
	match := dateRe.FindString(v.TextNorm)
	clues := []clue{
		{"date_pattern", 0.65, func(features.Vector) bool { return match != "" }},
		{"month_name", 0.15, func(v features.Vector) bool { return monthNameRe.MatchString(v.TextNorm) }},
		{"short_line", 0.15, func(v features.Vector) bool { return v.TokenCount <= 5 }},
		{"digits", 0.05, func(v features.Vector) bool { return v.DigitRatio > 0.2 }},
		{"prose", -0.45, func(v features.Vector) bool { return v.SentenceCount >= 1 && v.TokenCount > 8 }},
	}
	d := Detection{Role: RoleDate, Confidence: scoreClues(v, clues, nil)}
	if match != "" {
		d.Fields = map[string]string{"date": match}
	}
	return d
}

// DetectTableRow scores a unit as tabular content.
func DetectTableRow(v features.Vector, _ Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleTableRow}
	}
	clues := []clue{
		{"in_table", 0.75, func(v features.Vector) bool { return v.InTable }},
		{"bar_separated", 0.40, func(v features.Vector) bool { return v.ContainsBar }},
		{"dense_digits", 0.10, func(v features.Vector) bool { return v.DigitRatio >= 0.3 }},
		{"prose", -0.35, func(v features.Vector) bool { return v.SentenceCount >= 2 }},
	}
	return Detection{Role: RoleTableRow, Confidence: scoreClues(v, clues, nil)}
}

// DetectCallout scores a unit as a note/quote callout.
func DetectCallout(v features.Vector, _ Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleCallout}
	}
	clues := []clue{
		{"lead_word", 0.55, func(v features.Vector) bool { return calloutLeadRe.MatchString(v.TextNorm) }},
		{"quote_style", 0.40, func(v features.Vector) bool {
			id := strings.ToLower(v.StyleID)
			return strings.Contains(id, "quote") || strings.Contains(id, "intense")
		}},
		{"quoted", 0.25, func(v features.Vector) bool {
			return strings.HasPrefix(v.TextNorm, "“") || strings.HasPrefix(v.TextNorm, "\"")
		}},
		{"italic", 0.15, func(v features.Vector) bool { return v.Italic }},
		{"indented", 0.10, func(v features.Vector) bool { return v.IndentLevel > 0 && !v.StartsWithBullet }},
		{"bullet", -0.30, func(v features.Vector) bool { return v.StartsWithBullet }},
	}
	return Detection{Role: RoleCallout, Confidence: scoreClues(v, clues, nil)}
}

// DetectSignature scores a unit as part of a closing signature block.
func DetectSignature(v features.Vector, ctx Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleSignature}
	}
	prevSignoff := false
	for _, p := range ctx.Prev {
		if signoffRe.MatchString(p.TextNorm) {
			prevSignoff = true
			break
		}
	}
	clues := []clue{
		{"signoff_word", 0.70, func(v features.Vector) bool { return signoffRe.MatchString(v.TextNorm) }},
		{"after_signoff", 0.45, func(features.Vector) bool { return prevSignoff }},
		{"near_bottom", 0.20, func(v features.Vector) bool { return v.RelativePosition >= 0.85 }},
		{"short_name", 0.10, func(v features.Vector) bool {
			return v.TokenCount <= 4 && v.TitlecaseRate >= 0.8 && v.SentenceCount == 0
		}},
		{"prose", -0.45, func(v features.Vector) bool { return v.SentenceCount >= 2 || v.TokenCount > 12 }},
		{"near_top", -0.40, func(v features.Vector) bool { return v.RelativePosition < 0.5 }},
	}
	return Detection{Role: RoleSignature, Confidence: scoreClues(v, clues, nil)}
}

// DetectKVPair scores a unit as a "Label: value" line and splits the pair.
func DetectKVPair(v features.Vector, _ Window) Detection {
	if v.TextNorm == "" {
		return Detection{Role: RoleKVPair}
	}
	idx := strings.Index(v.TextNorm, ":")
	interior := idx > 0 && idx < len(v.TextNorm)-1
	var label, value string
	if interior {
		label = strings.TrimSpace(v.TextNorm[:idx])
		value = strings.TrimSpace(v.TextNorm[idx+1:])
	}
	clues := []clue{
		{"interior_colon", 0.45, func(features.Vector) bool {
			return interior && label != "" && value != "" && len(strings.Fields(label)) <= 4
		}},
		{"label_case", 0.20, func(features.Vector) bool {
			return interior && (isTitleish(label) || strings.ToUpper(label) == label)
		}},
		{"short", 0.15, func(v features.Vector) bool { return v.TokenCount <= 10 }},
		{"prose", -0.40, func(v features.Vector) bool { return v.SentenceCount >= 2 }},
		{"url", -0.30, func(v features.Vector) bool { return v.ContainsURLLike }},
	}
	d := Detection{Role: RoleKVPair, Confidence: scoreClues(v, clues, nil)}
	if interior && label != "" && value != "" {
		d.Fields = map[string]string{"label": label, "value": value}
	}
	return d
}

func isTitleish(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	for _, f := range fields {
		r := []rune(f)[0]
		if r >= 'a' && r <= 'z' {
			return false
		}
	}
	return true
}
