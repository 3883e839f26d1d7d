package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"FinAgent/internal/model"
	"FinAgent/internal/render"
)

// FormatReport formats the blocks of one run as a Telegram HTML message.
func FormatReport(title string, blocks []model.Block) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(title), time.Now().Format("2006-01-02 15:04")))

	for _, blk := range blocks {
		switch blk.Kind {
		case model.BlockSubheader:
			b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", html.EscapeString(blk.Text)))
		case model.BlockText, model.BlockMarkdown:
			b.WriteString(html.EscapeString(blk.Text) + "\n")
		case model.BlockTable:
			b.WriteString("<pre>" + html.EscapeString(render.TableMarkdown(blk.Table)) + "</pre>\n")
		case model.BlockChart:
			// Interactive charts only render in the dashboard.
		case model.BlockImage:
			b.WriteString("🖼 " + html.EscapeString(blk.Text) + "\n")
		case model.BlockWarning:
			b.WriteString("⚠️ " + html.EscapeString(blk.Text) + "\n")
		case model.BlockError:
			b.WriteString("❌ " + html.EscapeString(blk.Text) + "\n")
		}
	}
	return b.String()
}

// Photos returns the image artifacts referenced by blocks.
func Photos(blocks []model.Block) []string {
	var paths []string
	for _, blk := range blocks {
		if blk.Kind == model.BlockImage && blk.Path != "" {
			paths = append(paths, blk.Path)
		}
	}
	return paths
}

// FormatHelp lists the chat commands.
func FormatHelp(periods []model.Period) string {
	var b strings.Builder
	b.WriteString("🤖 <b>FinAgent</b>\n\n")
	b.WriteString("Send any question, e.g. <i>Compare NVDA and AAPL</i> or <i>latest news on TSLA</i>.\n")
	b.WriteString("Ticker symbols must be written in uppercase.\n\n")
	b.WriteString("Commands:\n")
	b.WriteString("• /report run the scheduled watchlist query now\n")
	b.WriteString("• /history show recent runs\n")
	b.WriteString("• /period &lt;p&gt; set the history period (")
	for i, p := range periods {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(p))
	}
	b.WriteString(")\n")
	b.WriteString("• /help show this message\n")
	return b.String()
}
