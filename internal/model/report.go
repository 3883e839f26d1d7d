package model

// Intent is what the interpreter derived from a free-text query.
type Intent struct {
	Symbols    []string
	Comparison bool
	// Warning is shown to the user instead of running the data pipeline.
	Warning string
}

// Table is a header plus rows of cells, as parsed from agent markdown.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// BlockKind names a render call understood by every UI shell.
type BlockKind string

const (
	BlockSubheader BlockKind = "subheader"
	BlockText      BlockKind = "text"
	BlockMarkdown  BlockKind = "markdown"
	BlockTable     BlockKind = "table"
	BlockChart     BlockKind = "chart"
	BlockImage     BlockKind = "image"
	BlockWarning   BlockKind = "warning"
	BlockError     BlockKind = "error"
)

// Block is a single piece of rendered output.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Table *Table    `json:"table,omitempty"`
	// HTML carries the interactive chart, or markdown already converted by the shell.
	HTML string `json:"html,omitempty"`
	// Path is the artifact location for image blocks.
	Path string `json:"path,omitempty"`
}

// SymbolStatus is the outcome of processing one symbol.
type SymbolStatus string

const (
	StatusOK     SymbolStatus = "OK"
	StatusNoData SymbolStatus = "NO_DATA"
	StatusFailed SymbolStatus = "FAILED"
)

// SymbolReport records what happened to one symbol in a submission.
type SymbolReport struct {
	Symbol   string
	Status   SymbolStatus
	Bars     int
	Summary  *TrendSummary
	PlotPath string
	Err      string
}
