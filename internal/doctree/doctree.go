package doctree

// UnitKind distinguishes the structural origin of a unit.
type UnitKind string

const (
	KindParagraph UnitKind = "paragraph"
	KindTableCell UnitKind = "table_cell"
)

// ListShape classifies list membership of a unit.
type ListShape string

const (
	ListNone     ListShape = "none"
	ListBullet   ListShape = "bullet"
	ListNumbered ListShape = "numbered"
)

// Style is the captured visual metadata for one unit. It is copied verbatim
// into schema slots, so it must carry everything the runner needs to re-emit
// a unit without consulting the source document.
type Style struct {
	StyleID        string    `json:"style_id"`
	Font           string    `json:"font,omitempty"`
	SizeHalfPoints int       `json:"size_half_points,omitempty"`
	Bold           bool      `json:"bold,omitempty"`
	Italic         bool      `json:"italic,omitempty"`
	Underline      bool      `json:"underline,omitempty"`
	IndentLevel    int       `json:"indent_level,omitempty"`
	List           ListShape `json:"list,omitempty"`
	Alignment      string    `json:"alignment,omitempty"`

	// Table shape, zero for non-tabular units.
	TableRows int `json:"table_rows,omitempty"`
	TableCols int `json:"table_cols,omitempty"`
}

// UnknownStyleID is the sentinel used when a style reference cannot be
// resolved. Intake never fails on missing style data.
const UnknownStyleID = "unknown"

// UnknownStyle returns the sentinel style for unresolved references.
func UnknownStyle() Style {
	return Style{StyleID: UnknownStyleID, List: ListNone}
}

// IsUnknown reports whether the style is the unresolved sentinel.
func (s Style) IsUnknown() bool {
	return s.StyleID == UnknownStyleID || s.StyleID == ""
}

// TableRef identifies the table a cell unit belongs to.
type TableRef struct {
	Index int // table ordinal within the document
	Row   int
	Col   int
}

// Unit is one structural unit of the source document: a paragraph or a table
// cell, in stable source order. Units are immutable once produced by intake.
type Unit struct {
	Index     int       // sequence index, source order
	Text      string    // raw text
	Kind      UnitKind  // paragraph or table cell
	StyleRef  string    // source style reference (may be empty)
	Style     Style     // resolved style metadata
	ListLevel int       // nesting level, 0 for non-list units
	Table     *TableRef // nil for non-cell units
}

// ContentBlock is one unit of new plaintext to be mapped onto a schema slot.
type ContentBlock struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	// BoundaryBefore marks an explicit blank-line boundary preceding this
	// block in the source text. The runner uses it to end repeatable runs.
	BoundaryBefore bool `json:"boundary_before,omitempty"`
}

// RenderedUnit is one output unit: a content block's text wrapped in a
// schema slot's captured style.
type RenderedUnit struct {
	Text     string `json:"text"`
	Style    Style  `json:"style"`
	SlotID   string `json:"slot_id,omitempty"`
	Role     string `json:"role,omitempty"`
	Overflow bool   `json:"overflow,omitempty"`
}
