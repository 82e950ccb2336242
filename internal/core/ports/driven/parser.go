package driven

import "github.com/ragforge/ragcore/internal/core/domain"

// ParseResult is what a successful Parse call produces: the content
// to store, the media type actually detected, and system-derived
// file metadata (spec 4.1).
type ParseResult struct {
	Content      string
	MediaType    domain.DocumentType
	FileMetadata domain.FileMetadata
	Title        string
}

// Parser maps a source (path or byte blob) to a ParseResult, or fails
// with a domain.Error of KindParse.
type Parser interface {
	// Parse reads and extracts text/metadata from source bytes. name is
	// the original filename/extension hint used for dispatch.
	Parse(name string, source []byte) (ParseResult, error)

	// SupportedTypes returns the MIME types or extensions this parser
	// handles; wildcards like "text/*" are supported. Used by the
	// registry for extension-first, MIME-second dispatch (spec 4.1).
	SupportedTypes() []string

	// Priority breaks ties when more than one parser matches; higher wins.
	Priority() int
}

// ParserRegistry dispatches to the best-matching Parser for a source,
// falling back to plain text for unknown extensions (spec 4.1).
type ParserRegistry interface {
	Get(extensionOrMIME string) Parser
	Register(p Parser)
	List() []string
}
