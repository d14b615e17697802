package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Depth limits for Decode.
const (
	DefaultMaxDepth = 256
	MinMaxDepth     = 64
)

// discriminator is the JSON field naming a node's variant.
const discriminator = "$type"

// DecodeOption configures Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	maxDepth int
}

// WithMaxDepth sets the deepest nesting Decode accepts, counting the root as
// depth 1. Values below MinMaxDepth are raised to MinMaxDepth.
func WithMaxDepth(n int) DecodeOption {
	return func(c *decodeConfig) {
		if n < MinMaxDepth {
			n = MinMaxDepth
		}
		c.maxDepth = n
	}
}

func newDecodeConfig(opts []DecodeOption) decodeConfig {
	cfg := decodeConfig{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Encode serializes a tree to the tagged wire format. A nil root encodes to
// JSON null. Equal trees always encode to identical bytes.
func Encode(root Node) ([]byte, error) {
	var doc any
	if root = Deref(root); root != nil {
		v, err := toJSON(root)
		if err != nil {
			return nil, fmt.Errorf("encode content: %w", err)
		}
		doc = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode content: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses a tagged wire document into a tree. JSON null decodes to a
// nil Node. Failures are always a *DecodeError; no partial tree is returned.
func Decode(data []byte, opts ...DecodeOption) (Node, error) {
	return decodeWith(data, taggedSchema, newDecodeConfig(opts))
}

// JSON serialization types (private).

type sectionJSON struct {
	Type      Variant `json:"$type"`
	Title     string  `json:"title"`
	Numbering string  `json:"numbering"`
	Level     int     `json:"level"`
	Sections  []any   `json:"sections"`
}

type textJSON struct {
	Type    Variant `json:"$type"`
	Content string  `json:"content"`
}

func toJSON(n Node) (any, error) {
	switch v := Deref(n).(type) {
	case Section:
		kids := make([]any, len(v.children))
		for i, c := range v.children {
			kid, err := toJSON(c)
			if err != nil {
				return nil, err
			}
			kids[i] = kid
		}
		return sectionJSON{
			Type:      VariantSection,
			Title:     v.title,
			Numbering: v.numbering,
			Level:     v.level,
			Sections:  kids,
		}, nil
	case Text:
		return textJSON{Type: VariantText, Content: v.content}, nil
	default:
		return nil, fmt.Errorf("unsupported node %T", n)
	}
}

// wireSchema names the fields of one schema generation and how a node's
// variant is resolved from its raw fields.
type wireSchema struct {
	title     string
	numbering string
	level     string
	children  []string
	content   string
	resolve   func(obj map[string]json.RawMessage) (Variant, string)
}

var taggedSchema = wireSchema{
	title:     "title",
	numbering: "numbering",
	level:     "level",
	children:  []string{"sections"},
	content:   "content",
	resolve:   resolveTagged,
}

func resolveTagged(obj map[string]json.RawMessage) (Variant, string) {
	raw, ok := obj[discriminator]
	if !ok || isNull(raw) {
		return "", `missing discriminator "$type"`
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil {
		return "", `discriminator "$type" is not a string`
	}
	switch Variant(tag) {
	case VariantSection, VariantText:
		return Variant(tag), ""
	default:
		return "", fmt.Sprintf("%q is not a known variant", tag)
	}
}

func decodeWith(data []byte, schema wireSchema, cfg decodeConfig) (Node, error) {
	if !json.Valid(data) {
		return nil, &DecodeError{Kind: KindSyntax, Msg: "document is not valid JSON"}
	}
	if isNull(data) {
		return nil, nil
	}
	d := decoder{schema: schema, maxDepth: cfg.maxDepth}
	return d.node(data, Path{})
}

type decoder struct {
	schema   wireSchema
	maxDepth int
}

func (d decoder) node(raw json.RawMessage, path Path) (Node, error) {
	if path.Depth()+1 > d.maxDepth {
		return nil, &DecodeError{
			Kind: KindTooDeep,
			Path: path,
			Msg:  fmt.Sprintf("exceeds maximum depth %d", d.maxDepth),
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, &DecodeError{Kind: KindUnknownVariant, Path: path, Msg: "node is not a JSON object"}
	}

	variant, reason := d.schema.resolve(obj)
	switch variant {
	case VariantSection:
		return d.section(obj, path)
	case VariantText:
		text, err := d.str(obj, d.schema.content, path)
		if err != nil {
			return nil, err
		}
		return NewText(text), nil
	default:
		return nil, &DecodeError{Kind: KindUnknownVariant, Path: path, Msg: reason}
	}
}

func (d decoder) section(obj map[string]json.RawMessage, path Path) (Node, error) {
	title, err := d.str(obj, d.schema.title, path)
	if err != nil {
		return nil, err
	}
	numbering, err := d.str(obj, d.schema.numbering, path)
	if err != nil {
		return nil, err
	}
	level, err := d.level(obj, path)
	if err != nil {
		return nil, err
	}
	children, err := d.children(obj, path)
	if err != nil {
		return nil, err
	}
	return Section{title: title, numbering: numbering, level: level, children: children}, nil
}

func (d decoder) str(obj map[string]json.RawMessage, field string, path Path) (string, error) {
	raw, ok := obj[field]
	if !ok {
		return "", &DecodeError{Kind: KindMissingField, Path: path, Field: field}
	}
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", &DecodeError{Kind: KindMissingField, Path: path, Field: field, Msg: "not a string"}
	}
	return s, nil
}

func (d decoder) level(obj map[string]json.RawMessage, path Path) (int, error) {
	field := d.schema.level
	raw, ok := obj[field]
	if !ok {
		return 0, &DecodeError{Kind: KindMissingField, Path: path, Field: field}
	}
	n, ok := integral(raw)
	if !ok {
		return 0, &DecodeError{Kind: KindMissingField, Path: path, Field: field, Msg: "not a non-negative integer"}
	}
	return n, nil
}

// integral reads a non-negative JSON number with no fractional part. Writers
// that emit integers as floats (2.0, 2e0) are accepted; strings are not.
func integral(raw json.RawMessage) (int, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return 0, false
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err != nil || num == "" {
		return 0, false
	}
	if i, err := num.Int64(); err == nil {
		return int(i), i >= 0 && i <= math.MaxInt32
	}
	f, err := num.Float64()
	if err != nil || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// children decodes the child array. An absent or null array is an empty
// section; anything else that is not an array is malformed.
func (d decoder) children(obj map[string]json.RawMessage, path Path) ([]Node, error) {
	key, raw := "", json.RawMessage(nil)
	for _, k := range d.schema.children {
		if r, ok := obj[k]; ok {
			key, raw = k, r
			break
		}
	}
	if key == "" || isNull(raw) {
		return []Node{}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, &DecodeError{Kind: KindMalformedChildren, Path: path, Field: key, Msg: "not an array"}
	}

	out := make([]Node, 0, len(elems))
	for i, elem := range elems {
		childPath := path.Child(key, i)
		child, err := d.node(elem, childPath)
		if err != nil {
			return nil, wrapChild(err, childPath, key)
		}
		if child == nil {
			return nil, &DecodeError{Kind: KindMalformedChildren, Path: childPath, Field: key, Msg: "element is null"}
		}
		out = append(out, child)
	}
	return out, nil
}

// wrapChild reports a failed element as malformed children of its parent.
// Errors that already carry that kind, and depth failures, pass through so the
// deepest path is kept and the depth guard stays distinguishable.
func wrapChild(err error, path Path, key string) error {
	switch KindOf(err) {
	case KindMalformedChildren, KindTooDeep:
		return err
	}
	return &DecodeError{Kind: KindMalformedChildren, Path: path, Field: key, Err: err}
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// JSON adapts a tree to encoding/json so it can be embedded in larger
// documents such as API payloads. Unmarshal uses the default decode options.
type JSON struct {
	Node Node
}

// MarshalJSON implements json.Marshaler.
func (j JSON) MarshalJSON() ([]byte, error) {
	return Encode(j.Node)
}

// UnmarshalJSON implements json.Unmarshaler.
func (j *JSON) UnmarshalJSON(data []byte) error {
	n, err := Decode(data)
	if err != nil {
		return err
	}
	j.Node = n
	return nil
}
