// Package alert runs the admission/notification side of the pipeline:
// select qualifying queue records, batch them and deliver rate-limited
// digests, recording alert state exactly once per article.
package alert

import (
	"strings"

	"newswatch/internal/news"
)

// Policy decides whether a queued article qualifies for notification.
//
// An article is admitted when enough distinct sources corroborated it, or
// when its text matches one of the configured keywords. The policy is fixed
// for the lifetime of a run; the evaluate-once exclusion of non-admitted
// articles relies on that.
type Policy struct {
	minWeight int
	keywords  []string // lower-cased
}

func NewPolicy(minWeight int, keywords []string) Policy {
	if minWeight < 1 {
		minWeight = 1
	}
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return Policy{minWeight: minWeight, keywords: kws}
}

// Admit reports whether the record qualifies for delivery.
func (p Policy) Admit(rec news.QueueRecord) bool {
	return rec.Weight >= p.minWeight || p.KeywordMatch(rec.Article)
}

// KeywordMatch reports whether any configured keyword appears in the
// article title or summary (case-insensitive substring).
func (p Policy) KeywordMatch(a news.Article) bool {
	if len(p.keywords) == 0 {
		return false
	}
	title := strings.ToLower(a.Title)
	summary := strings.ToLower(a.Summary)
	for _, kw := range p.keywords {
		if strings.Contains(title, kw) || strings.Contains(summary, kw) {
			return true
		}
	}
	return false
}
