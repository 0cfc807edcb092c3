package alert

import (
	"fmt"
	"strings"
	"time"

	"newswatch/internal/news"
)

// FormatDigest renders a batch as one Markdown message: one block per
// article, blocks separated by a blank line, batch order preserved.
func (p Policy) FormatDigest(batch []news.QueueRecord) string {
	blocks := make([]string, 0, len(batch))
	for _, rec := range batch {
		blocks = append(blocks, p.formatArticle(rec))
	}
	return strings.Join(blocks, "\n\n")
}

func (p Policy) formatArticle(rec news.QueueRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", strings.TrimSpace(rec.Title))
	fmt.Fprintf(&b, "Published: %s\n", formatPublished(rec.PublishedAt))
	fmt.Fprintf(&b, "Weight: %d source%s\n", rec.Weight, plural(rec.Weight))
	if p.KeywordMatch(rec.Article) {
		b.WriteString("_Keyword match: yes_\n")
	}
	fmt.Fprintf(&b, "[Read more](%s)", rec.URL)
	return b.String()
}

func formatPublished(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC1123)
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
