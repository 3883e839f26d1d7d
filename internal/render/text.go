package render

import (
	"strings"

	"FinAgent/internal/model"
)

// BlocksText renders blocks as markdown for text-only shells. Interactive
// charts are dropped; images are referenced by path.
func BlocksText(blocks []model.Block) string {
	var b strings.Builder
	for _, blk := range blocks {
		switch blk.Kind {
		case model.BlockSubheader:
			b.WriteString("## " + blk.Text + "\n\n")
		case model.BlockTable:
			if blk.Table != nil {
				b.WriteString(TableMarkdown(blk.Table) + "\n")
			}
		case model.BlockChart:
			continue
		case model.BlockImage:
			b.WriteString("Chart: " + blk.Path + "\n\n")
		case model.BlockWarning:
			b.WriteString("> Warning: " + blk.Text + "\n\n")
		case model.BlockError:
			b.WriteString("> Error: " + blk.Text + "\n\n")
		default:
			b.WriteString(blk.Text + "\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}
