// Package knowledge turns a directory of markdown documents into an
// in-memory retrieval index and exposes it through the Retriever port.
package knowledge

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunk is one retrievable window of a document.
type Chunk struct {
	Source  string
	Section string
	Index   int
	Text    string
}

// Splitter cuts markdown into heading-scoped windows of at most Size runes,
// consecutive windows sharing Overlap runes.
type Splitter struct {
	Size    int
	Overlap int
}

func (s Splitter) normalized() Splitter {
	if s.Size <= 0 {
		s.Size = DefaultChunkSize
	}
	if s.Overlap < 0 || s.Overlap >= s.Size {
		s.Overlap = 0
	}
	return s
}

type section struct {
	heading string
	body    []string
}

// Split parses src as markdown and returns its chunks in document order.
func (s Splitter) Split(source string, src []byte) []Chunk {
	s = s.normalized()

	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var sections []section
	cur := section{}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			if cur.heading != "" || len(cur.body) > 0 {
				sections = append(sections, cur)
			}
			cur = section{heading: strings.TrimSpace(blockText(h, src))}
			continue
		}
		if t := strings.TrimSpace(blockText(n, src)); t != "" {
			cur.body = append(cur.body, t)
		}
	}
	if cur.heading != "" || len(cur.body) > 0 {
		sections = append(sections, cur)
	}

	var chunks []Chunk
	for _, sec := range sections {
		body := strings.Join(sec.body, "\n\n")
		full := body
		if sec.heading != "" {
			full = strings.TrimSpace(sec.heading + "\n" + body)
		}
		for _, w := range window(full, s.Size, s.Overlap) {
			chunks = append(chunks, Chunk{
				Source:  source,
				Section: sec.heading,
				Index:   len(chunks),
				Text:    w,
			})
		}
	}
	return chunks
}

// blockText concatenates the raw lines of every leaf block under n.
func blockText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		if n.Type() == ast.TypeBlock {
			if lines := n.Lines(); lines != nil && lines.Len() > 0 {
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(src))
				}
				if !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte('\n')
				}
				return
			}
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// window splits s into pieces of at most size runes, preferring to break
// on whitespace in the second half of a window.
func window(s string, size, overlap int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		if t := strings.TrimSpace(s); t != "" {
			return []string{t}
		}
		return nil
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := min(start+size, len(runes))
		if end < len(runes) {
			for i := end; i > start+size/2; i-- {
				if runes[i-1] == ' ' || runes[i-1] == '\n' {
					end = i
					break
				}
			}
		}
		if t := strings.TrimSpace(string(runes[start:end])); t != "" {
			out = append(out, t)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}
