package parser

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/ragforge/ragcore/internal/chunker"
	"github.com/ragforge/ragcore/internal/core/domain"
	"github.com/ragforge/ragcore/internal/core/ports/driven"
)

var _ driven.Parser = (*HTMLParser)(nil)

// skippedTags never contribute text, even though the tokenizer walks
// into them (script/style bodies aren't prose).
var skippedTags = map[string]bool{
	"script": true,
	"style":  true,
	"noscript": true,
}

// blockTags force a paragraph break in the extracted text so two
// adjacent block elements don't run together into one sentence.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "table": true, "section": true, "article": true, "blockquote": true,
}

// HTMLParser extracts the visible text content of an HTML document
// using a real tokenizer rather than regex stripping, so malformed
// markup and entity-encoded text are handled correctly.
type HTMLParser struct{}

func (p *HTMLParser) Parse(name string, source []byte) (driven.ParseResult, error) {
	doc, err := html.Parse(strings.NewReader(string(source)))
	if err != nil {
		return driven.ParseResult{}, domain.NewError(domain.KindParse, "parser.HTMLParser.Parse", "malformed HTML", err)
	}

	var title string
	var sb strings.Builder
	var skip int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skippedTags[tag] {
				skip++
				defer func() { skip-- }()
			}
			if tag == "title" && title == "" {
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
			if blockTags[tag] && sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
		}
		if n.Type == html.TextNode && skip == 0 {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title == "" {
		title = titleFromName(name)
	}

	return driven.ParseResult{
		Content:   chunker.NormalizeWhitespace(sb.String()),
		MediaType: domain.DocumentTypeHTML,
		Title:     title,
		FileMetadata: domain.FileMetadata{
			"size_bytes": len(source),
			"mime_type":  "text/html",
		},
	}, nil
}

func (p *HTMLParser) SupportedTypes() []string {
	return []string{"text/html", ".html", ".htm"}
}
func (p *HTMLParser) Priority() int { return 5 }
