package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pestline/pestline/domain/content"
)

// Document is the persisted form of a report's trees: a JSON array of
// {"name", "content"} entries in tree order, tagged with the schema of the
// content it holds.
type Document struct {
	schema content.Schema
	data   []byte
}

// NewDocument wraps stored bytes. A zero schema means the rows predate
// schema tracking and is sniffed on decode.
func NewDocument(schema content.Schema, data []byte) Document {
	return Document{schema: schema, data: data}
}

// Schema returns the content schema of the document.
func (d Document) Schema() content.Schema { return d.schema }

// Data returns the raw JSON.
func (d Document) Data() []byte { return d.data }

// IsEmpty reports whether the document holds no bytes.
func (d Document) IsEmpty() bool { return len(bytes.TrimSpace(d.data)) == 0 }

// TreeError locates a content decode failure within a named tree.
type TreeError struct {
	Tree string
	Err  error
}

func (e *TreeError) Error() string {
	return fmt.Sprintf("tree %q: %v", e.Tree, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *TreeError) Unwrap() error { return e.Err }

type treeJSON struct {
	Name    string          `json:"name"`
	Content json.RawMessage `json:"content"`
}

// EncodeDocument serializes trees with the current content schema.
func EncodeDocument(trees []Tree) (Document, error) {
	entries := make([]treeJSON, len(trees))
	for i, t := range trees {
		data, err := content.Encode(t.root)
		if err != nil {
			return Document{}, &TreeError{Tree: t.name, Err: err}
		}
		entries[i] = treeJSON{Name: t.name, Content: data}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return Document{}, fmt.Errorf("encode document: %w", err)
	}
	return Document{schema: content.CurrentSchema, data: bytes.TrimRight(buf.Bytes(), "\n")}, nil
}

// DecodeDocument parses a document back into trees. Each tree is decoded with
// the document's schema, or sniffed individually when it is unknown. A
// document holding a bare tree object decodes to a single DefaultTreeName tree.
func DecodeDocument(doc Document, opts ...content.DecodeOption) ([]Tree, error) {
	if doc.IsEmpty() {
		return []Tree{}, nil
	}

	trimmed := bytes.TrimSpace(doc.data)
	if trimmed[0] == '{' {
		root, err := content.DecodeSchema(trimmed, doc.schema, opts...)
		if err != nil {
			return nil, &TreeError{Tree: DefaultTreeName, Err: err}
		}
		return []Tree{NewTree(DefaultTreeName, root)}, nil
	}

	var entries []treeJSON
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	trees := make([]Tree, 0, len(entries))
	for _, e := range entries {
		raw := e.Content
		if raw == nil {
			raw = json.RawMessage("null")
		}
		root, err := content.DecodeSchema(raw, doc.schema, opts...)
		if err != nil {
			return nil, &TreeError{Tree: e.Name, Err: err}
		}
		trees = append(trees, NewTree(e.Name, root))
	}

	validated, err := NewTrees(trees...)
	if err != nil {
		return nil, errors.Join(ErrInvalidDocument, err)
	}
	return validated, nil
}
