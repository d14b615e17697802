package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_PreOrder(t *testing.T) {
	var paths []string
	err := Walk(sampleTree(), func(path Path, _ Node) error {
		paths = append(paths, path.String())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"$",
		"sections[0]",
		"sections[1]",
		"sections[1].sections[0]",
		"sections[1].sections[1]",
		"sections[1].sections[1].sections[0]",
		"sections[2]",
	}, paths)
}

func TestWalk_SkipChildren(t *testing.T) {
	var titles []string
	err := Walk(sampleTree(), func(_ Path, n Node) error {
		s, ok := n.(Section)
		if !ok {
			return nil
		}
		titles = append(titles, s.Title())
		if s.Title() == "Findings" {
			return SkipChildren
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Inspection Report", "Findings", "Recommendations"}, titles)
}

func TestWalk_StopsOnError(t *testing.T) {
	stop := errors.New("stop")
	visited := 0
	err := Walk(sampleTree(), func(_ Path, _ Node) error {
		visited++
		if visited == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, visited)
}

func TestWalk_NilRoot(t *testing.T) {
	called := false
	require.NoError(t, Walk(nil, func(Path, Node) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(sampleTree(), sampleTree()))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(sampleTree(), nil))
	assert.False(t, Equal(NewText("a"), NewText("b")))
	assert.False(t, Equal(NewText("a"), NewSection("a", "", 0)))
	assert.False(t, Equal(
		NewSection("s", "", 0, NewText("a"), NewText("b")),
		NewSection("s", "", 0, NewText("b"), NewText("a")),
	))
	assert.False(t, Equal(NewSection("s", "1", 0), NewSection("s", "2", 0)))
}

func TestMeasure(t *testing.T) {
	st := Measure(sampleTree())
	assert.Equal(t, 4, st.Sections)
	assert.Equal(t, 3, st.Texts)
	assert.Equal(t, 7, st.Nodes())
	assert.Equal(t, 4, st.MaxDepth)

	assert.Equal(t, Stats{}, Measure(nil))
}

func TestNewSection(t *testing.T) {
	s := NewSection("t", "1", -3, nil, NewText("x"))
	assert.Equal(t, 0, s.Level())
	assert.Equal(t, 1, s.Len())

	kids := s.Children()
	kids[0] = NewText("changed")
	assert.Equal(t, NewText("x"), s.Child(0), "Children returns a copy")

	replaced := s.WithChildren(NewText("y"), NewText("z"))
	assert.Equal(t, 2, replaced.Len())
	assert.Equal(t, 1, s.Len())
}
