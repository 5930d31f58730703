package schema_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpad/internal/domain"
	"blockpad/internal/schema"
)

// ─────────────────────────────────────────────────────────────
// Defaults
// ─────────────────────────────────────────────────────────────

func TestDefaultContent_PerType(t *testing.T) {
	heading := schema.DefaultContent(domain.BlockTypeHeading, 2)
	assert.Equal(t, "", heading.GetText())
	assert.Equal(t, 2, heading.GetHeadingLevel())

	todo := schema.DefaultContent(domain.BlockTypeTodo, 0)
	require.NotNil(t, todo.Checked)
	assert.False(t, *todo.Checked)

	code := schema.DefaultContent(domain.BlockTypeCode, 0)
	assert.Equal(t, "javascript", code.GetLanguage())
	require.NotNil(t, code.Code)
	assert.Nil(t, code.Text)

	video := schema.DefaultContent(domain.BlockTypeVideo, 0)
	require.NotNil(t, video.VideoURL)
	require.NotNil(t, video.Autoplay)

	table := schema.DefaultContent(domain.BlockTypeTable, 0)
	assert.Equal(t, [][]string{{"Header 1", "Header 2"}, {"", ""}}, table.Table)
}

func TestDefaultContent_HeadingLevelFallsBackToOne(t *testing.T) {
	assert.Equal(t, 1, schema.DefaultContent(domain.BlockTypeHeading, 0).GetHeadingLevel())
	assert.Equal(t, 1, schema.DefaultContent(domain.BlockTypeHeading, 7).GetHeadingLevel())
}

func TestDefaultContent_UnknownTypeIsParagraph(t *testing.T) {
	c := schema.DefaultContent(domain.BlockType("mystery"), 0)
	require.NotNil(t, c.Text)
	assert.Equal(t, "", *c.Text)
	assert.Nil(t, c.Checked)
}

func TestDefaultPatchForType_NeverTouchesText(t *testing.T) {
	for _, bt := range domain.BlockTypes {
		p := schema.DefaultPatchForType(bt)
		assert.Nil(t, p.Text, "type %s", bt)
	}
	assert.True(t, schema.DefaultPatchForType(domain.BlockTypeParagraph).IsEmpty())
	assert.True(t, schema.DefaultPatchForType(domain.BlockTypeHeading).IsEmpty())
}

func TestTemplateTable_ReturnsFreshGrid(t *testing.T) {
	a := schema.TemplateTable()
	a[0][0] = "changed"
	assert.Equal(t, "Header 1", schema.TemplateTable()[0][0])
}

func TestDescribe(t *testing.T) {
	assert.True(t, schema.Describe(domain.BlockTypeParagraph).BackspaceDeletes)
	assert.False(t, schema.Describe(domain.BlockTypeHeading).BackspaceDeletes)
	assert.True(t, schema.Describe(domain.BlockTypeTodo).EditsText)
	assert.False(t, schema.Describe(domain.BlockTypeCode).EditsText)
	assert.Equal(t, domain.BlockTypeParagraph, schema.Describe("weird").Type)
}

// ─────────────────────────────────────────────────────────────
// Tables
// ─────────────────────────────────────────────────────────────

func TestAddRow_UsesFirstRowWidth(t *testing.T) {
	grid := [][]string{{"a", "b"}, {"c", "d"}}
	out := schema.AddRow(grid)

	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"", ""}}, out)
	assert.Len(t, grid, 2, "input must not be modified")
}

func TestAddRow_EmptyGridUsesThreeColumns(t *testing.T) {
	assert.Equal(t, [][]string{{"", "", ""}}, schema.AddRow(nil))
	assert.Equal(t, [][]string{{"", "", ""}}, schema.AddRow([][]string{}))
}

func TestAddColumn(t *testing.T) {
	grid := [][]string{{"a"}, {"b"}}
	out := schema.AddColumn(grid)

	assert.Equal(t, [][]string{{"a", ""}, {"b", ""}}, out)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, grid)
}

func TestSetCell(t *testing.T) {
	grid := schema.TemplateTable()
	out, err := schema.SetCell(grid, 1, 1, "x")
	require.NoError(t, err)
	assert.Equal(t, "x", out[1][1])
	assert.Equal(t, "", grid[1][1])

	_, err = schema.SetCell(grid, 2, 0, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = schema.SetCell(grid, 0, -1, "x")
	require.Error(t, err)
}

func TestValidateTable(t *testing.T) {
	require.NoError(t, schema.ValidateTable(schema.TemplateTable()))

	cases := map[string][][]string{
		"nil":        nil,
		"no rows":    {},
		"no columns": {{}},
		"ragged":     {{"a", "b"}, {"c"}},
	}
	for name, grid := range cases {
		t.Run(name, func(t *testing.T) {
			err := schema.ValidateTable(grid)
			require.Error(t, err)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "table", verr.Field)
		})
	}
}

// ─────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────

func TestValidateTitle(t *testing.T) {
	title, err := schema.ValidateTitle("  Roadmap  ")
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", title)

	_, err = schema.ValidateTitle("   \t ")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = schema.ValidateTitle(strings.Repeat("é", 256))
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = schema.ValidateTitle(strings.Repeat("é", 255))
	require.NoError(t, err)
}

func TestValidateHeadingLevel(t *testing.T) {
	for _, lvl := range []int{1, 2, 3} {
		assert.NoError(t, schema.ValidateHeadingLevel(lvl))
	}
	assert.ErrorIs(t, schema.ValidateHeadingLevel(0), domain.ErrValidation)
	assert.ErrorIs(t, schema.ValidateHeadingLevel(4), domain.ErrValidation)
}

func TestValidateCodeLanguage(t *testing.T) {
	assert.NoError(t, schema.ValidateCodeLanguage("python"))
	assert.ErrorIs(t, schema.ValidateCodeLanguage("cobol"), domain.ErrValidation)
	assert.ErrorIs(t, schema.ValidateCodeLanguage(""), domain.ErrValidation)
}

func TestValidateType(t *testing.T) {
	assert.NoError(t, schema.ValidateType(domain.BlockTypePDF))
	assert.ErrorIs(t, schema.ValidateType("widget"), domain.ErrValidation)
}

// ─────────────────────────────────────────────────────────────
// Video
// ─────────────────────────────────────────────────────────────

func TestEmbedURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/embed/abc123",
		schema.EmbedURL("https://www.youtube.com/watch?v=abc123&t=10"))
	assert.Equal(t, "https://www.youtube.com/embed/xyz",
		schema.EmbedURL("https://youtu.be/xyz?si=foo"))
	assert.Equal(t, "https://vimeo.com/1", schema.EmbedURL("https://vimeo.com/1"))
}

func TestValidateContent(t *testing.T) {
	assert.NoError(t, schema.ValidateContent(domain.Content{}))
	assert.NoError(t, schema.ValidateContent(schema.DefaultContent(domain.BlockTypeTable, 0)))
	assert.ErrorIs(t, schema.ValidateContent(domain.Content{HeadingLevel: domain.Int(9)}), domain.ErrValidation)
	assert.ErrorIs(t, schema.ValidateContent(domain.Content{Language: domain.Str("perl")}), domain.ErrValidation)
	assert.ErrorIs(t, schema.ValidateContent(domain.Content{Table: [][]string{{"a"}, {}}}), domain.ErrValidation)
}
