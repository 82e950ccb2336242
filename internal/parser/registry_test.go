package parser

import (
	"strings"
	"testing"
)

func TestRegistry_Get_ExactMatch(t *testing.T) {
	r := DefaultRegistry()

	p := r.Get(".md")
	if _, ok := p.(*MarkdownParser); !ok {
		t.Fatalf("expected *MarkdownParser for .md, got %T", p)
	}

	p = r.Get("application/pdf")
	if _, ok := p.(*PDFParser); !ok {
		t.Fatalf("expected *PDFParser for application/pdf, got %T", p)
	}
}

func TestRegistry_Get_UnknownFallsBackToText(t *testing.T) {
	r := DefaultRegistry()

	p := r.Get(".xyz-unknown")
	if _, ok := p.(*TextParser); !ok {
		t.Fatalf("expected fallback to *TextParser, got %T", p)
	}
}

func TestRegistry_Get_MIMEWithParameters(t *testing.T) {
	r := DefaultRegistry()

	p := r.Get("text/html; charset=utf-8")
	if _, ok := p.(*HTMLParser); !ok {
		t.Fatalf("expected *HTMLParser, got %T", p)
	}
}

func TestRegistry_List_IsSortedAndDeduplicated(t *testing.T) {
	r := DefaultRegistry()
	types := r.List()

	for i := 1; i < len(types); i++ {
		if types[i] < types[i-1] {
			t.Fatalf("List() not sorted: %v", types)
		}
	}
	seen := make(map[string]bool)
	for _, ty := range types {
		if seen[ty] {
			t.Fatalf("List() contains duplicate entry %q", ty)
		}
		seen[ty] = true
	}
}

func TestTextParser_Parse(t *testing.T) {
	p := &TextParser{}
	result, err := p.Parse("notes.txt", []byte("hello   world"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", result.Title)
	}
	if strings.Contains(result.Content, "  ") {
		t.Errorf("expected whitespace normalized, got %q", result.Content)
	}
}

func TestMarkdownParser_Parse_ExtractsH1Title(t *testing.T) {
	p := &MarkdownParser{}
	result, err := p.Parse("doc.md", []byte("# My Document\n\nSome body text."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "My Document" {
		t.Errorf("expected title %q, got %q", "My Document", result.Title)
	}
	if strings.Contains(result.Content, "# My Document") {
		t.Errorf("expected title line stripped from body, got %q", result.Content)
	}
}

func TestMarkdownParser_Parse_NoTitleFallsBackToFilename(t *testing.T) {
	p := &MarkdownParser{}
	result, err := p.Parse("release_notes.md", []byte("no heading here"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "release notes" {
		t.Errorf("expected title derived from filename, got %q", result.Title)
	}
}

func TestHTMLParser_Parse_ExtractsVisibleTextOnly(t *testing.T) {
	p := &HTMLParser{}
	html := `<html><head><title>Page Title</title><style>.x{color:red}</style></head>
<body><p>Hello <b>world</b></p><script>alert('x')</script></body></html>`

	result, err := p.Parse("page.html", []byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Title != "Page Title" {
		t.Errorf("expected title %q, got %q", "Page Title", result.Title)
	}
	if !strings.Contains(result.Content, "Hello") || !strings.Contains(result.Content, "world") {
		t.Errorf("expected visible text preserved, got %q", result.Content)
	}
	if strings.Contains(result.Content, "color:red") || strings.Contains(result.Content, "alert") {
		t.Errorf("expected script/style content stripped, got %q", result.Content)
	}
}

func TestDOCXParser_Parse_InvalidZipFails(t *testing.T) {
	p := &DOCXParser{}
	_, err := p.Parse("broken.docx", []byte("not a zip file"))
	if err == nil {
		t.Fatal("expected error for invalid zip container")
	}
}

func TestPDFParser_Parse_InvalidPDFFails(t *testing.T) {
	p := &PDFParser{}
	_, err := p.Parse("broken.pdf", []byte("%NOT-A-REAL-PDF"))
	if err == nil {
		t.Fatal("expected error for invalid PDF")
	}
}
