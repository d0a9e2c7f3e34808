package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple title",
			input:    "Hello World",
			expected: "hello-world",
		},
		{
			name:     "punctuation becomes separators",
			input:    "What's new in 2.0?",
			expected: "what-s-new-in-2-0",
		},
		{
			name:     "accented characters transliterate",
			input:    "Über Café!",
			expected: "uber-cafe",
		},
		{
			name:     "separator runs collapse",
			input:    "one --- two",
			expected: "one-two",
		},
		{
			name:     "leading and trailing noise trimmed",
			input:    "  !!Hello!!  ",
			expected: "hello",
		},
		{
			name:     "underscores survive",
			input:    "snake_case title",
			expected: "snake_case-title",
		},
		{
			name:     "no usable characters",
			input:    "!!!",
			expected: "",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Generate(tc.input))
		})
	}
}

// A slug is already in canonical form: generating from it again must be a
// no-op. Editors re-save articles with stored slugs in the title field of
// admin forms, so this property keeps slugs stable.
func TestGenerateIdempotent(t *testing.T) {
	inputs := []string{
		"Hello World",
		"What's new in 2.0?",
		"Über Café!",
		"already-a-slug",
	}

	for _, input := range inputs {
		s := Generate(input)
		assert.Equal(t, s, Generate(s))
	}
}

func TestGenerateCharset(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9_-]*$`)

	inputs := []string{
		"Hello World",
		"Über Café!",
		"100% natural",
		"C++ & Go: a comparison",
		"日本語のタイトル",
	}

	for _, input := range inputs {
		s := Generate(input)
		assert.True(t, valid.MatchString(s), "slug %q contains invalid characters", s)
	}
}

func TestGeneratePath(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single segment",
			input:    "About Us",
			expected: "about-us",
		},
		{
			name:     "nested path keeps slashes",
			input:    "About/Team Bios",
			expected: "about/team-bios",
		},
		{
			name:     "punctuation stripped",
			input:    "F.A.Q. (new)",
			expected: "f-a-q-new",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, GeneratePath(tc.input))
		})
	}
}
