package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpad/internal/domain"
)

func TestUpdateFields_OnlyPatchedContent(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	heading := domain.BlockTypeHeading

	set, err := updateFields(domain.BlockPatch{
		Type:    &heading,
		Content: &domain.Content{Text: domain.Str(""), HeadingLevel: domain.Int(2)},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "heading", set["type"])
	assert.Equal(t, now, set["updatedAt"])
	assert.Equal(t, "", set["content.text"])
	assert.EqualValues(t, 2, set["content.headingLevel"])
	assert.NotContains(t, set, "order")
	assert.NotContains(t, set, "content.checked")
	assert.NotContains(t, set, "content.table")
}

func TestUpdateFields_OrderOnly(t *testing.T) {
	order := 2.5
	set, err := updateFields(domain.BlockPatch{Order: &order}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2.5, set["order"])
	assert.Len(t, set, 2)
}

func TestUpdateFields_FalseBoolIsKept(t *testing.T) {
	set, err := updateFields(domain.BlockPatch{Content: &domain.Content{Checked: domain.Bool(false)}}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, false, set["content.checked"])
}

func TestDocs(t *testing.T) {
	parent := "root"
	p := pageDoc{ID: "p", Title: "T", ParentID: &parent}.page()
	assert.Equal(t, "root", *p.ParentID)

	b := blockDoc{ID: "b", PageID: "p", Type: "todo", Order: 3}.block()
	assert.Equal(t, domain.BlockTypeTodo, b.Type)
	assert.Equal(t, 3.0, b.Order)
}
