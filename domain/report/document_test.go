package report

import (
	"errors"
	"testing"

	"github.com/pestline/pestline/domain/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDocument(t *testing.T) {
	trees := []Tree{
		NewTree("findings", content.NewSection("Findings", "1", 1, content.NewText("Termites"))),
		NewTree("notes", content.NewText("Gate code 1234")),
	}

	doc, err := EncodeDocument(trees)
	require.NoError(t, err)
	assert.Equal(t, content.CurrentSchema, doc.Schema())

	want := `[{"name":"findings","content":{"$type":"textBlock","title":"Findings","numbering":"1","level":1,"sections":[{"$type":"textArea","content":"Termites"}]}},` +
		`{"name":"notes","content":{"$type":"textArea","content":"Gate code 1234"}}]`
	assert.Equal(t, want, string(doc.Data()))

	back, err := DecodeDocument(doc)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "findings", back[0].Name())
	assert.True(t, content.Equal(trees[0].Root(), back[0].Root()))
	assert.True(t, content.Equal(trees[1].Root(), back[1].Root()))
}

func TestEncodeDocument_Empty(t *testing.T) {
	doc, err := EncodeDocument(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(doc.Data()))

	trees, err := DecodeDocument(doc)
	require.NoError(t, err)
	assert.Empty(t, trees)

	trees, err = DecodeDocument(NewDocument(0, nil))
	require.NoError(t, err)
	assert.Empty(t, trees)
}

func TestDecodeDocument_TreeError(t *testing.T) {
	doc := NewDocument(content.SchemaTagged, []byte(`[
		{"name":"a","content":{"$type":"textArea","content":"fine"}},
		{"name":"b","content":{"$type":"textBlock","title":"x","numbering":"","level":0,"sections":[{"$type":"nope"}]}}
	]`))

	_, err := DecodeDocument(doc)
	require.Error(t, err)

	var te *TreeError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "b", te.Tree)

	var de *content.DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "sections[0]", de.Path.String())
	assert.ErrorIs(t, err, content.ErrUnknownVariant)
}

func TestDecodeDocument_LegacyRows(t *testing.T) {
	doc := NewDocument(0, []byte(`[{"Name":"findings","Content":{"Title":"Findings","Numbering":"1","Level":1,"Children":[{"Content":"old"}]}}]`))

	trees, err := DecodeDocument(doc)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, "findings", trees[0].Name())

	want := content.NewSection("Findings", "1", 1, content.NewText("old"))
	assert.True(t, content.Equal(want, trees[0].Root()))
}

func TestDecodeDocument_BareTree(t *testing.T) {
	doc := NewDocument(0, []byte(`{"$type":"textArea","content":"solo"}`))

	trees, err := DecodeDocument(doc)
	require.NoError(t, err)
	require.Len(t, trees, 1)
	assert.Equal(t, DefaultTreeName, trees[0].Name())
}

func TestDecodeDocument_Invalid(t *testing.T) {
	_, err := DecodeDocument(NewDocument(content.SchemaTagged, []byte(`"nope"`)))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = DecodeDocument(NewDocument(content.SchemaTagged, []byte(`[{"name":"a","content":null},{"name":"a","content":null}]`)))
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.ErrorIs(t, err, ErrInvalidTree)
}

func TestDecodeDocument_DepthOption(t *testing.T) {
	doc, err := EncodeDocument([]Tree{NewTree("t", content.NewText("x"))})
	require.NoError(t, err)

	_, err = DecodeDocument(doc, content.WithMaxDepth(content.MinMaxDepth))
	assert.NoError(t, err)
}
