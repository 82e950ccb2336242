package domain

// FieldSpec describes one field of a MetadataSchema: its expected
// kind and, for enum fields, the allowed values.
type FieldSpec struct {
	Name     string
	Required bool
	Enum     []string // non-empty for enum-constrained fields
	IsArray  bool
	MaxItems int // 0 means unbounded
}

// MetadataSchema enumerates the fields a document_type's AI-derived
// Metadata must/may contain, per spec 4.4.
type MetadataSchema struct {
	DocumentType DocumentType
	Fields       []FieldSpec
}

func (s MetadataSchema) fieldNames() map[string]FieldSpec {
	out := make(map[string]FieldSpec, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = f
	}
	return out
}

// RequiredFields returns the names of this schema's required fields.
func (s MetadataSchema) RequiredFields() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// Schemas is the table of metadata schemas keyed by document type,
// with required fields matching the illustrative table in spec 4.4.
var Schemas = map[DocumentType]MetadataSchema{
	DocumentTypeText: {
		DocumentType: DocumentTypeText,
		Fields: []FieldSpec{
			{Name: "summary", Required: true},
			{Name: "keywords", Required: true, IsArray: true, MaxItems: 10},
			{Name: "classification", Required: true, Enum: []string{
				"reference", "narrative", "technical", "conversational", "other",
			}},
			{Name: "tags", IsArray: true, MaxItems: 10},
			{Name: "language", },
		},
	},
	DocumentTypeImage: {
		DocumentType: DocumentTypeImage,
		Fields: []FieldSpec{
			{Name: "description", Required: true},
			{Name: "summary", Required: true},
			{Name: "scene_type", Required: true, Enum: []string{
				"photo", "diagram", "chart", "screenshot", "illustration", "other",
			}},
			{Name: "classification", Required: true},
			{Name: "tags", IsArray: true, MaxItems: 10},
		},
	},
	DocumentTypeAudio: {
		DocumentType: DocumentTypeAudio,
		Fields: []FieldSpec{
			{Name: "summary", Required: true},
			{Name: "content_type", Required: true, Enum: []string{
				"speech", "music", "mixed", "noise",
			}},
			{Name: "classification", Required: true},
			{Name: "keywords", IsArray: true, MaxItems: 10},
		},
	},
	DocumentTypePDF: {
		DocumentType: DocumentTypePDF,
		Fields: []FieldSpec{
			{Name: "summary", Required: true},
			{Name: "document_type", Required: true, Enum: []string{
				"report", "form", "manual", "article", "invoice", "other",
			}},
			{Name: "classification", Required: true},
			{Name: "keywords", IsArray: true, MaxItems: 10},
		},
	},
	DocumentTypeMixed: {
		DocumentType: DocumentTypeMixed,
		Fields: []FieldSpec{
			{Name: "summary", Required: true},
			{Name: "content_types", Required: true, IsArray: true},
			{Name: "primary_content_type", Required: true},
			{Name: "classification", Required: true},
			{Name: "keywords", IsArray: true, MaxItems: 10},
		},
	},
}

// SchemaFor maps a document type to its metadata schema, falling back
// to the TEXT schema for html/markdown/docx which share its shape.
func SchemaFor(dt DocumentType) MetadataSchema {
	switch dt {
	case DocumentTypeHTML, DocumentTypeMarkdown, DocumentTypeDOCX:
		return Schemas[DocumentTypeText]
	}
	if s, ok := Schemas[dt]; ok {
		return s
	}
	return Schemas[DocumentTypeText]
}

// ValidationWarning records a dropped-field or missing-required-field
// finding from metadata validation; it is logged, not raised.
type ValidationWarning struct {
	Field   string
	Reason  string
}

// Validate checks candidate against schema, returning the subset of
// fields that are valid (unknown/invalid fields dropped) plus warnings
// for drops and missing required fields, per spec 4.4: "unknown/invalid
// fields are dropped with a warning; missing required fields yield a
// validation error recorded in logs but do not discard valid fields."
func (s MetadataSchema) Validate(candidate Metadata) (Metadata, []ValidationWarning) {
	known := s.fieldNames()
	cleaned := Metadata{}
	var warnings []ValidationWarning

	for name, value := range candidate {
		spec, ok := known[name]
		if !ok {
			warnings = append(warnings, ValidationWarning{Field: name, Reason: "unknown field"})
			continue
		}
		if len(spec.Enum) > 0 {
			sv, isStr := value.(string)
			if !isStr || !containsStr(spec.Enum, sv) {
				warnings = append(warnings, ValidationWarning{Field: name, Reason: "value not in enum"})
				continue
			}
		}
		if spec.IsArray {
			arr, ok := toStringSlice(value)
			if !ok {
				warnings = append(warnings, ValidationWarning{Field: name, Reason: "expected array"})
				continue
			}
			if spec.MaxItems > 0 && len(arr) > spec.MaxItems {
				arr = arr[:spec.MaxItems]
			}
			cleaned[name] = arr
			continue
		}
		cleaned[name] = value
	}

	for _, req := range s.RequiredFields() {
		if _, ok := cleaned[req]; !ok {
			warnings = append(warnings, ValidationWarning{Field: req, Reason: "missing required field"})
		}
	}
	return cleaned, warnings
}

func containsStr(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func toStringSlice(v any) ([]string, bool) {
	switch vv := v.(type) {
	case []string:
		return vv, true
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
