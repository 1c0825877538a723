package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+10))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, 8, LimitWithBuffer(7))
}

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), ID: uuid.New()}
	parsed, err := ParseCursor(EncodeCursor(c))
	require.NoError(t, err)
	assert.True(t, parsed.CreatedAt.Equal(c.CreatedAt))
	assert.Equal(t, c.ID, parsed.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseCursor("not-base64!")
	assert.Error(t, err)
}

func TestPageNormalizeAndSlice(t *testing.T) {
	p := Page{Page: 0, PerPage: 500}.Normalize(12, 48)
	assert.Equal(t, Page{Page: 1, PerPage: 48}, p)

	p = Page{Page: 2}.Normalize(0, 0)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 12, p.Offset())

	start, end := p.Slice(20)
	assert.Equal(t, 12, start)
	assert.Equal(t, 20, end)

	start, end = Page{Page: 5, PerPage: 12}.Slice(20)
	assert.Equal(t, 20, start)
	assert.Equal(t, 20, end)

	meta := NewPageMeta(p, 25)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(25), meta.Total)
}
