package contentservice

import (
	"testing"
	"time"

	"github.com/calliope-press/inkstone/internal/sectionservice"
	"github.com/stretchr/testify/assert"
)

func TestAcceptsComments(t *testing.T) {
	now := time.Date(2010, 6, 15, 12, 0, 0, 0, time.UTC)
	tenDaysAgo := now.Add(-10 * 24 * time.Hour)
	threeDaysAgo := now.Add(-3 * 24 * time.Hour)
	future := now.Add(24 * time.Hour)

	testCases := []struct {
		name        string
		publishedAt *time.Time
		commentAge  int
		expected    bool
	}{
		{
			name:        "pending article never accepts",
			publishedAt: nil,
			commentAge:  0,
			expected:    false,
		},
		{
			name:        "future-dated article never accepts",
			publishedAt: &future,
			commentAge:  0,
			expected:    false,
		},
		{
			name:        "disabled comments",
			publishedAt: &tenDaysAgo,
			commentAge:  CommentsDisabled,
			expected:    false,
		},
		{
			name:        "always open",
			publishedAt: &tenDaysAgo,
			commentAge:  0,
			expected:    true,
		},
		{
			name:        "window expired",
			publishedAt: &tenDaysAgo,
			commentAge:  7,
			expected:    false,
		},
		{
			name:        "inside window",
			publishedAt: &threeDaysAgo,
			commentAge:  7,
			expected:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := &Article{
				Content:    Content{PublishedAt: tc.publishedAt},
				CommentAge: tc.commentAge,
			}
			assert.Equal(t, tc.expected, a.AcceptsComments(now))
		})
	}
}

func TestCommentsExpireAt(t *testing.T) {
	now := time.Date(2010, 6, 15, 12, 0, 0, 0, time.UTC)
	publishedAt := time.Date(2010, 6, 10, 12, 0, 0, 0, time.UTC)

	a := &Article{
		Content:    Content{PublishedAt: &publishedAt},
		CommentAge: 7,
	}
	assert.Equal(t, publishedAt.Add(7*24*time.Hour), a.CommentsExpireAt(now))

	// An unpublished article measures the window from now.
	a.PublishedAt = nil
	assert.Equal(t, now.Add(7*24*time.Hour), a.CommentsExpireAt(now))
}

func TestHasSection(t *testing.T) {
	home := &sectionservice.Section{ID: 1, Path: "home"}
	about := &sectionservice.Section{ID: 2, Path: "about"}

	saved := &Article{Content: Content{ID: 10}, SectionIDs: []int{2}}
	assert.False(t, saved.HasSection(home))
	assert.True(t, saved.HasSection(about))

	// An unsaved article displays as a home member before any membership
	// rows exist.
	unsaved := &Article{}
	assert.True(t, unsaved.HasSection(home))
	assert.False(t, unsaved.HasSection(about))
}
