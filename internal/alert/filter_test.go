package alert

import (
	"testing"

	"newswatch/internal/news"
)

func rec(title, summary string, weight int) news.QueueRecord {
	return news.QueueRecord{Article: news.Article{
		ID:      "id-" + title,
		Title:   title,
		Summary: summary,
		URL:     "https://example.com/" + title,
		Weight:  weight,
	}}
}

func TestAdmitByWeight(t *testing.T) {
	p := NewPolicy(2, nil)
	if p.Admit(rec("plain", "", 1)) {
		t.Fatalf("weight 1 admitted with min weight 2")
	}
	if !p.Admit(rec("corroborated", "", 2)) {
		t.Fatalf("weight 2 rejected with min weight 2")
	}
}

func TestAdmitByKeywordCaseInsensitive(t *testing.T) {
	p := NewPolicy(5, []string{"Halving", "  etf  "})
	if !p.Admit(rec("Bitcoin HALVING is near", "", 1)) {
		t.Fatalf("title keyword match missed")
	}
	if !p.Admit(rec("markets", "spot ETF inflows continue", 1)) {
		t.Fatalf("summary keyword match missed")
	}
	if p.Admit(rec("nothing to see", "quiet day", 1)) {
		t.Fatalf("admitted without weight or keyword")
	}
}

func TestEmptyKeywordSetNeverMatches(t *testing.T) {
	p := NewPolicy(1, []string{"", "   "})
	if p.KeywordMatch(rec("anything", "at all", 1).Article) {
		t.Fatalf("blank keywords matched")
	}
}
