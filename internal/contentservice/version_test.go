package contentservice

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldSnapshot(t *testing.T) {
	base := func() *Article {
		return &Article{Content: Content{
			Title:   "Title",
			Body:    "Body",
			Excerpt: "Excerpt",
		}}
	}

	testCases := []struct {
		name     string
		prev     *Article
		mutate   func(a *Article)
		expected bool
	}{
		{
			name:     "new article never snapshots",
			prev:     nil,
			mutate:   func(a *Article) {},
			expected: false,
		},
		{
			name:     "no text change",
			prev:     base(),
			mutate:   func(a *Article) {},
			expected: false,
		},
		{
			name:     "title changed",
			prev:     base(),
			mutate:   func(a *Article) { a.Title = "New Title" },
			expected: true,
		},
		{
			name:     "body changed",
			prev:     base(),
			mutate:   func(a *Article) { a.Body = "New Body" },
			expected: true,
		},
		{
			name:     "excerpt changed",
			prev:     base(),
			mutate:   func(a *Article) { a.Excerpt = "New Excerpt" },
			expected: true,
		},
		{
			name:     "only metadata changed",
			prev:     base(),
			mutate:   func(a *Article) { a.CommentAge = 7; a.Slug = "other" },
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			next := base()
			tc.mutate(next)
			assert.Equal(t, tc.expected, ShouldSnapshot(tc.prev, next))
		})
	}
}

func TestAppendSnapshot(t *testing.T) {
	var history []Version

	for i := 1; i <= 8; i++ {
		history = AppendSnapshot(history, Version{Version: i, Title: fmt.Sprintf("rev %d", i)}, MaxVersionDepth)
		assert.LessOrEqual(t, len(history), MaxVersionDepth)
	}

	// After 8 appends with depth 5 only revisions 4..8 remain, oldest first.
	assert.Len(t, history, MaxVersionDepth)
	assert.Equal(t, 4, history[0].Version)
	assert.Equal(t, 8, history[len(history)-1].Version)
}

func TestAppendSnapshotUnderCap(t *testing.T) {
	var history []Version

	for i := 1; i <= 3; i++ {
		history = AppendSnapshot(history, Version{Version: i}, MaxVersionDepth)
	}

	assert.Len(t, history, 3)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, 3, history[2].Version)
}
