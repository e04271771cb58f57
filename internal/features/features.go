package features

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/templify/internal/doctree"
)

// Vector is the flat feature set derived from one structural unit. Vectors are
// pure derived data: never mutated after extraction.
type Vector struct {
	// Source
	Text     string // raw unit text
	TextNorm string // trimmed, whitespace-collapsed

	// Shape
	TokenCount    int
	CharLen       int
	SentenceCount int

	// Ratios
	UppercaseRatio float64 // uppercase letters / letters
	TitlecaseRate  float64 // titlecase tokens / alpha tokens
	DigitRatio     float64 // digits / chars
	PunctDensity   float64 // punctuation chars / chars

	// Flags
	EndsWithPeriod   bool
	StartsWithBullet bool
	BulletGlyph      string
	NumberingPrefix  string // "1.", "1.1", "a)", "iv.)", "[1]"
	HasLeaderDots    bool
	TrailingColon    bool
	HasAllCapsWord   bool
	ContainsBar      bool
	ContainsEmdash   bool
	ContainsURLLike  bool

	// Style-derived
	StyleID     string
	Bold        bool
	Italic      bool
	Underline   bool
	SizeHalf    int
	IndentLevel int
	ListShape   doctree.ListShape
	InTable     bool

	// Positional (relative to the context window)
	Index            int
	RelativePosition float64 // index / (len-1), 0 for single-unit docs
	LargerThanPrev   bool    // font size strictly larger than previous unit
	FirstUnit        bool
	LastUnit         bool
}

// Bullets require a space after the glyph to avoid false positives on dashes
// inside sentences.
var bulletRe = regexp.MustCompile(`^\s*([•·∙●◦○▪▸▶\-–—\*])\s+`)

// Numbering prefixes: decimal, bracketed, roman, alpha, tried in that order.
var (
	decimalRe   = regexp.MustCompile(`^\s*((?:\d+\.)+\d+\.?|(?:\d+)[.)])\s+`)
	bracketedRe = regexp.MustCompile(`^\s*\[(\d+|[A-Za-z])\]\s+`)
	romanRe     = regexp.MustCompile(`^\s*(\(?[ivxlcdmIVXLCDM]+\)?[.)])\s+`)
	alphaRe     = regexp.MustCompile(`^\s*(([A-Za-z])[.)])\s+`)
)

// Leader dots typical of TOC lines: a long dot run then a page number.
var leaderDotsRe = regexp.MustCompile(`\.{3,}\s*\d+\s*$`)

// URL-ish detector, not a validator.
var urlLikeRe = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)

var sentenceRe = regexp.MustCompile(`[.!?](\s|$)`)

var wsRe = regexp.MustCompile(`\s+`)

const extraPunct = "—–…“”‘’·•∙◦▪"

// Extract computes the feature vector for units[i], consulting a window of k
// units on each side for relative features. It is deterministic and never
// fails: missing style data was already normalized to the unknown sentinel by
// intake.
func Extract(units []doctree.Unit, i, k int) Vector {
	u := units[i]
	norm := normalize(u.Text)
	tokens := strings.Fields(norm)

	var alphaTokens []string
	for _, t := range tokens {
		if hasAlpha(t) {
			alphaTokens = append(alphaTokens, t)
		}
	}

	v := Vector{
		Text:     u.Text,
		TextNorm: norm,

		TokenCount:    len(tokens),
		CharLen:       len([]rune(norm)),
		SentenceCount: len(sentenceRe.FindAllString(norm, -1)),

		UppercaseRatio: uppercaseRatio(norm),
		TitlecaseRate:  titlecaseRate(alphaTokens),
		DigitRatio:     digitRatio(norm),
		PunctDensity:   punctDensity(norm),

		EndsWithPeriod:  strings.HasSuffix(norm, "."),
		HasLeaderDots:   leaderDotsRe.MatchString(norm),
		TrailingColon:   strings.HasSuffix(norm, ":"),
		HasAllCapsWord:  hasAllCapsWord(tokens),
		ContainsBar:     strings.Contains(norm, "|"),
		ContainsEmdash:  strings.ContainsAny(norm, "—–"),
		ContainsURLLike: urlLikeRe.MatchString(norm),

		StyleID:     u.Style.StyleID,
		Bold:        u.Style.Bold,
		Italic:      u.Style.Italic,
		Underline:   u.Style.Underline,
		SizeHalf:    u.Style.SizeHalfPoints,
		IndentLevel: maxInt(u.Style.IndentLevel, u.ListLevel),
		ListShape:   u.Style.List,
		InTable:     u.Kind == doctree.KindTableCell || u.Table != nil,

		Index:     u.Index,
		FirstUnit: i == 0,
		LastUnit:  i == len(units)-1,
	}

	if len(units) > 1 {
		v.RelativePosition = float64(i) / float64(len(units)-1)
	}

	v.StartsWithBullet, v.BulletGlyph = detectBullet(norm)
	v.NumberingPrefix = detectNumbering(norm)

	// Window features: only size-vs-previous for now, bounded by k.
	if k > 0 && i > 0 {
		prev := units[i-1]
		if u.Style.SizeHalfPoints > 0 && prev.Style.SizeHalfPoints > 0 {
			v.LargerThanPrev = u.Style.SizeHalfPoints > prev.Style.SizeHalfPoints
		}
	}

	return v
}

// ExtractAll runs Extract over the whole unit sequence.
func ExtractAll(units []doctree.Unit, k int) []Vector {
	out := make([]Vector, len(units))
	for i := range units {
		out[i] = Extract(units, i, k)
	}
	return out
}

// normalize strips and collapses whitespace. No lowercasing: casing is a
// heading signal.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return wsRe.ReplaceAllString(s, " ")
}

func hasAlpha(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func uppercaseRatio(s string) float64 {
	var letters, ups int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				ups++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(ups) / float64(letters)
}

func titlecaseRate(alphaTokens []string) float64 {
	if len(alphaTokens) == 0 {
		return 0
	}
	tc := 0
	for _, t := range alphaTokens {
		if isTitlecaseWord(t) {
			tc++
		}
	}
	return float64(tc) / float64(len(alphaTokens))
}

func isTitlecaseWord(w string) bool {
	core := strings.TrimFunc(w, unicode.IsPunct)
	runes := []rune(core)
	if len(runes) < 2 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if unicode.IsLetter(r) && !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// hasAllCapsWord requires at least two letters, so "I" does not count.
func hasAllCapsWord(tokens []string) bool {
	for _, t := range tokens {
		core := strings.TrimFunc(t, unicode.IsPunct)
		letters := 0
		allUpper := true
		for _, r := range core {
			if unicode.IsLetter(r) {
				letters++
				if !unicode.IsUpper(r) {
					allUpper = false
					break
				}
			}
		}
		if letters >= 2 && allUpper {
			return true
		}
	}
	return false
}

func digitRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	d := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			d++
		}
	}
	return float64(d) / float64(len(runes))
}

func punctDensity(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	p := 0
	for _, r := range runes {
		if unicode.IsPunct(r) || strings.ContainsRune(extraPunct, r) {
			p++
		}
	}
	return float64(p) / float64(len(runes))
}

func detectBullet(s string) (bool, string) {
	m := bulletRe.FindStringSubmatch(s)
	if m == nil {
		return false, ""
	}
	glyph := m[1]
	// A hyphen before a number is more likely a negative value than a bullet.
	if strings.ContainsAny(glyph, "-–—*") {
		tail := strings.TrimLeft(s[len(m[0]):], " ")
		if tail != "" && unicode.IsDigit([]rune(tail)[0]) {
			return false, ""
		}
	}
	return true, glyph
}

func detectNumbering(s string) string {
	for _, re := range []*regexp.Regexp{decimalRe, bracketedRe, romanRe, alphaRe} {
		if m := re.FindStringSubmatch(s); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
