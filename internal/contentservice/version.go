package contentservice

// MaxVersionDepth caps how many snapshots are retained per article.
// When the cap is exceeded the oldest snapshot is evicted first.
const MaxVersionDepth = 5

// ShouldSnapshot reports whether an edit warrants a history snapshot: true
// iff at least one of title, body or excerpt differs from the previous
// state. A brand-new article has no previous state and never snapshots.
func ShouldSnapshot(prev, next *Article) bool {
	if prev == nil {
		return false
	}
	return prev.Title != next.Title || prev.Body != next.Body || prev.Excerpt != next.Excerpt
}

// AppendSnapshot appends entry to history and evicts the oldest entries
// beyond maxDepth. History is kept oldest-first.
func AppendSnapshot(history []Version, entry Version, maxDepth int) []Version {
	history = append(history, entry)
	if len(history) > maxDepth {
		history = history[len(history)-maxDepth:]
	}
	return history
}
