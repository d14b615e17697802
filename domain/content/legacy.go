package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Schema identifies a generation of the wire format.
type Schema int

// Schema values. Zero means unknown and is resolved with Sniff.
const (
	// SchemaLegacy documents carry no discriminator. Field names are either
	// PascalCase (Title, Numbering, Level, Sections or Children, Content) or
	// camelCase (title, numbering, level, children or sections, content);
	// the root object decides which for the whole document.
	SchemaLegacy Schema = 1
	// SchemaTagged is the "$type" tagged format written by Encode.
	SchemaTagged Schema = 2

	CurrentSchema = SchemaTagged
)

// String returns the schema name.
func (s Schema) String() string {
	switch s {
	case SchemaLegacy:
		return "legacy"
	case SchemaTagged:
		return "tagged"
	default:
		return fmt.Sprintf("schema(%d)", int(s))
	}
}

// Sniff guesses the schema of a document. A root object carrying "$type" is
// tagged; everything else, including null and invalid JSON, is legacy.
func Sniff(data []byte) Schema {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return SchemaLegacy
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return SchemaLegacy
	}
	if _, ok := obj[discriminator]; ok {
		return SchemaTagged
	}
	return SchemaLegacy
}

// DecodeSchema decodes a document written in the given schema. A zero schema
// is sniffed. Errors have the same kinds and path semantics as Decode; legacy
// paths use the document's own keys, e.g. Sections[1] or children[1].
func DecodeSchema(data []byte, schema Schema, opts ...DecodeOption) (Node, error) {
	if schema == 0 {
		schema = Sniff(data)
	}
	switch schema {
	case SchemaTagged:
		return Decode(data, opts...)
	case SchemaLegacy:
		return decodeWith(data, legacyFields(data), newDecodeConfig(opts))
	default:
		return nil, fmt.Errorf("decode content: unsupported %s", schema)
	}
}

var legacySchema = wireSchema{
	title:     "Title",
	numbering: "Numbering",
	level:     "Level",
	children:  []string{"Sections", "Children"},
	content:   "Content",
	resolve:   inferVariant("Title", "Content"),
}

var legacyCamelSchema = wireSchema{
	title:     "title",
	numbering: "numbering",
	level:     "level",
	children:  []string{"children", "sections"},
	content:   "content",
	resolve:   inferVariant("title", "content"),
}

// legacyFields picks the field set from the root object's keys. Anything
// that is not a camelCase object falls back to PascalCase.
func legacyFields(data []byte) wireSchema {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return legacySchema
	}
	_, pascalTitle := obj["Title"]
	_, pascalContent := obj["Content"]
	if pascalTitle || pascalContent {
		return legacySchema
	}
	_, camelTitle := obj["title"]
	_, camelContent := obj["content"]
	if camelTitle || camelContent {
		return legacyCamelSchema
	}
	return legacySchema
}

// inferVariant resolves untagged nodes: a content field makes a text leaf and
// a title field makes a section.
func inferVariant(title, content string) func(map[string]json.RawMessage) (Variant, string) {
	return func(obj map[string]json.RawMessage) (Variant, string) {
		if _, ok := obj[content]; ok {
			return VariantText, ""
		}
		if _, ok := obj[title]; ok {
			return VariantSection, ""
		}
		return "", "cannot infer variant from fields"
	}
}
