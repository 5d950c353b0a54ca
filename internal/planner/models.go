package planner

// ChecklistItem is one entry of a day's checklist.
type ChecklistItem struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
	Order   int    `json:"order"`
	Note    string `json:"note"`
}

// ScheduleMemo is a memo pinned to one hour of the day. Hours are not
// required to be unique.
type ScheduleMemo struct {
	Hour int    `json:"hour" validate:"min=0,max=23"`
	Text string `json:"text"`
}

// GridImage is the image metadata carried by an image block.
type GridImage struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// GridBlock is one positioned rectangle on the freeform annotation grid,
// holding either inline text or an image reference.
type GridBlock struct {
	ID    string     `json:"id"`
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	W     float64    `json:"w"`
	H     float64    `json:"h"`
	Type  string     `json:"type" validate:"oneof=text image"`
	Text  *string    `json:"text,omitempty"`
	Image *GridImage `json:"image,omitempty"`
}

// Grid is the full state of a day's annotation canvas.
type Grid struct {
	Cols   int         `json:"cols"`
	Rows   int         `json:"rows"`
	Blocks []GridBlock `json:"blocks" validate:"dive"`
}

// DayPayload is the external representation of one day entry.
type DayPayload struct {
	Date          string          `json:"date"`
	Checklist     []ChecklistItem `json:"checklist" validate:"dive"`
	DayNote       string          `json:"dayNote"`
	ScheduleMemos []ScheduleMemo  `json:"scheduleMemos" validate:"dive"`
	BoardMemo     string          `json:"boardMemo"`
	Grid          Grid            `json:"grid"`
	UpdatedAt     string          `json:"updatedAt"`
}

const (
	defaultGridCols = 24
	defaultGridRows = 24
)

func defaultGrid() Grid {
	return Grid{Cols: defaultGridCols, Rows: defaultGridRows, Blocks: []GridBlock{}}
}
