package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pestline/pestline/domain/content"
	"github.com/pestline/pestline/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport(t *testing.T, trees ...report.Tree) report.Report {
	t.Helper()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	return report.ReconstructReport(
		7, "INS-2026-0007", report.KindInspection, "Timber pest inspection",
		"Jane Smith", "12 Gum Tree Rd", date, trees, date, date,
	)
}

func findings() report.Tree {
	return report.NewTree("findings", content.NewSection("Findings", "1", 1,
		content.NewText("Activity **found** in the sub-floor."),
		content.NewSection("Sub-floor", "1.1", 2, content.NewText("Mud leads on bearers.")),
	))
}

func TestHTML_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewHTML().Render(&buf, sampleReport(t, findings())))
	out := buf.String()

	assert.Contains(t, out, "<title>Timber pest inspection</title>")
	assert.Contains(t, out, "<dt>Reference</dt><dd>INS-2026-0007</dd>")
	assert.Contains(t, out, "<dt>Service date</dt><dd>14 March 2026</dd>")
	assert.Contains(t, out, `<article data-tree="findings">`)
	assert.Contains(t, out, `<h2><span class="numbering">1</span> Findings</h2>`)
	assert.Contains(t, out, `<h3><span class="numbering">1.1</span> Sub-floor</h3>`)
	assert.Contains(t, out, "<strong>found</strong>")
	assert.Less(t, strings.Index(out, "Findings"), strings.Index(out, "Sub-floor"))
}

func TestHTML_Escaping(t *testing.T) {
	root := content.NewSection("<b>Roof</b>", "", 0,
		content.NewText("<script>alert(1)</script>"),
	)
	var buf bytes.Buffer
	require.NoError(t, NewHTML().Tree(&buf, root))
	out := buf.String()

	assert.Contains(t, out, "<h1>&lt;b&gt;Roof&lt;/b&gt;</h1>")
	assert.NotContains(t, out, "<script>")
}

func TestHTML_PointerRoot(t *testing.T) {
	text := content.NewText("Mud leads on bearers.")
	root := content.NewSection("Sub-floor", "1.1", 2, &text)

	var byValue, byPointer bytes.Buffer
	require.NoError(t, NewHTML().Tree(&byValue, root))
	require.NoError(t, NewHTML().Tree(&byPointer, &root))
	assert.Equal(t, byValue.String(), byPointer.String())
	assert.Contains(t, byPointer.String(), "Mud leads on bearers.")
}

func TestHTML_HeadingLevelClamped(t *testing.T) {
	root := content.NewSection("Deep", "", 9)
	var buf bytes.Buffer
	require.NoError(t, NewHTML().Tree(&buf, root))
	assert.Contains(t, buf.String(), "<h6>Deep</h6>")
}

func TestMarkdown_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdown().Render(&buf, sampleReport(t, findings())))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Timber pest inspection\n\n"))
	assert.Contains(t, out, "- **Client:** Jane Smith\n")
	assert.Contains(t, out, "### 1 Findings\n\nActivity **found** in the sub-floor.\n\n#### 1.1 Sub-floor\n")
}

func TestMarkdown_TreeRoundTrip(t *testing.T) {
	root := content.NewSection("Inspection", "", 0,
		content.NewText("Scope of the inspection."),
		content.NewSection("Findings", "1", 1,
			content.NewText("- termites\n- borers"),
			content.NewSection("Sub-floor", "1.1", 2, content.NewText("Mud leads.")),
		),
		content.NewSection("Recommendations", "2", 1, content.NewText("Treat within 30 days.")),
	)

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdownTree(&buf, root))

	got := ImportMarkdown(buf.Bytes(), "ignored")
	assert.True(t, content.Equal(root, got), "got %#v", got)
}

func TestDOCX_RenderImport(t *testing.T) {
	r := sampleReport(t, report.NewTree("main", content.NewSection("Findings", "1", 0,
		content.NewText("First paragraph.\n\nSecond paragraph."),
		content.NewSection("Roof void", "1.1", 1, content.NewText("Clear.")),
	)))

	var buf bytes.Buffer
	d := NewDOCX()
	require.NoError(t, d.Render(&buf, r))
	assert.Equal(t, report.FormatDOCX, d.Format())
	require.NotZero(t, buf.Len())

	root, err := ImportDOCX(buf.Bytes(), "Imported")
	require.NoError(t, err)

	sec, ok := root.(content.Section)
	require.True(t, ok)
	assert.Equal(t, "Imported", sec.Title(), "title and details are wrapped with the headings")

	var found content.Section
	for _, c := range sec.Children() {
		if s, ok := c.(content.Section); ok && s.Title() == "Findings" {
			found = s
		}
	}
	require.Equal(t, "Findings", found.Title())
	assert.Equal(t, "1", found.Numbering())
	assert.Equal(t, 1, found.Level())
	require.Equal(t, 2, found.Len())
	assert.Equal(t, content.NewText("First paragraph.\n\nSecond paragraph."), found.Child(0))

	sub, ok := found.Child(1).(content.Section)
	require.True(t, ok)
	assert.Equal(t, "Roof void", sub.Title())
	assert.Equal(t, "1.1", sub.Numbering())
	assert.Equal(t, 2, sub.Level())
}

func TestImportDOCX_Invalid(t *testing.T) {
	_, err := ImportDOCX([]byte("not a zip"), "x")
	assert.Error(t, err)
}
