// Package markdown assembles the public extract documents. The platform
// renders a markdown dialect, so output sticks to constructs known to
// survive it: headings, blockquotes, pipe tables, and superscript.
package markdown

import "strings"

type Builder struct {
	sb strings.Builder
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) H3(text string) *Builder {
	b.sb.WriteString("### ")
	b.sb.WriteString(text)
	b.sb.WriteString("\n\n")
	return b
}

func (b *Builder) H5(text string) *Builder {
	b.sb.WriteString("##### ")
	b.sb.WriteString(text)
	b.sb.WriteString("\n\n")
	return b
}

func (b *Builder) Paragraph(text string) *Builder {
	b.sb.WriteString(text)
	b.sb.WriteString("\n\n")
	return b
}

// Blockquote quotes the text line by line, preserving interior newlines.
func (b *Builder) Blockquote(text string) *Builder {
	for _, line := range strings.Split(text, "\n") {
		b.sb.WriteString("> ")
		b.sb.WriteString(line)
		b.sb.WriteString("\n")
	}
	b.sb.WriteString("\n")
	return b
}

// Table writes a pipe table. Cell content containing pipes would break the
// rendering, so they are replaced.
func (b *Builder) Table(header []string, rows [][]string) *Builder {
	writeRow := func(cells []string) {
		b.sb.WriteString("|")
		for _, cell := range cells {
			b.sb.WriteString(" ")
			b.sb.WriteString(strings.ReplaceAll(cell, "|", "\\|"))
			b.sb.WriteString(" |")
		}
		b.sb.WriteString("\n")
	}

	writeRow(header)
	b.sb.WriteString("|")
	for range header {
		b.sb.WriteString("---|")
	}
	b.sb.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	b.sb.WriteString("\n")
	return b
}

func (b *Builder) HorizontalRule() *Builder {
	b.sb.WriteString("---\n\n")
	return b
}

// Superscript renders text in the platform's ^(...) superscript syntax.
func (b *Builder) Superscript(text string) *Builder {
	b.sb.WriteString("^(")
	b.sb.WriteString(text)
	b.sb.WriteString(")\n\n")
	return b
}

func (b *Builder) String() string {
	return strings.TrimRight(b.sb.String(), "\n") + "\n"
}
