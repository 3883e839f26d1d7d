package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"FinAgent/internal/model"
)

// md never passes raw HTML or unsafe link schemes through; agent answers quote
// scraped web pages.
var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
)

// MalformedTableError is returned when text looks like a leading table but
// does not parse as one.
type MalformedTableError struct {
	Reason string
}

func (e *MalformedTableError) Error() string {
	return "malformed markdown table: " + e.Reason
}

// ExtractTable pulls a leading pipe table out of agent markdown.
//
// Leading blank lines are skipped. The text qualifies when its first line
// contains "| " and its second line contains "---". It returns the parsed
// table and the markdown that follows it. Text without a leading table yields
// a nil table, the unchanged input and no error.
func ExtractTable(markdown string) (*model.Table, string, error) {
	lines := strings.Split(strings.TrimLeft(markdown, " \t\r\n"), "\n")
	if len(lines) < 2 || !strings.Contains(lines[0], "| ") || !strings.Contains(lines[1], "---") {
		return nil, markdown, nil
	}

	end := 0
	for end < len(lines) && strings.Contains(lines[end], "|") {
		end++
	}
	block := strings.Join(lines[:end], "\n")
	rest := strings.TrimSpace(strings.Join(lines[end:], "\n"))

	table, err := parseTable([]byte(block))
	if err != nil {
		return nil, markdown, err
	}
	return table, rest, nil
}

func parseTable(src []byte) (*model.Table, error) {
	doc := md.Parser().Parse(text.NewReader(src))

	var node *extast.Table
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if t, ok := n.(*extast.Table); ok {
			node = t
			break
		}
	}
	if node == nil {
		return nil, &MalformedTableError{Reason: "no table found"}
	}

	table := &model.Table{}
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *extast.TableHeader:
			table.Header = cells(row, src)
		case *extast.TableRow:
			table.Rows = append(table.Rows, cells(row, src))
		}
	}
	if len(table.Header) == 0 {
		return nil, &MalformedTableError{Reason: "empty header"}
	}
	return table, nil
}

func cells(row ast.Node, src []byte) []string {
	var out []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if _, ok := cell.(*extast.TableCell); ok {
			out = append(out, strings.TrimSpace(inlineText(cell, src)))
		}
	}
	return out
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// MarkdownToHTML converts agent markdown for shells that display HTML.
func MarkdownToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// TableMarkdown renders a table back to pipe syntax for text-only shells.
func TableMarkdown(t *model.Table) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(t.Header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(t.Header)) + "\n")
	for _, row := range t.Rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}
