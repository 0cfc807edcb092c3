package alert

import (
	"strings"
	"testing"
	"time"

	"newswatch/internal/news"
)

func TestFormatDigest(t *testing.T) {
	p := NewPolicy(2, []string{"halving"})

	a := rec("Three sources agree", "", 3)
	a.PublishedAt = time.Date(2025, 4, 20, 8, 30, 0, 0, time.UTC)
	b := rec("The halving cometh", "", 1)

	digest := p.FormatDigest([]news.QueueRecord{a, b})

	blocks := strings.Split(digest, "\n\n")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if !strings.HasPrefix(blocks[0], "*Three sources agree*") {
		t.Fatalf("first block out of order or unformatted: %q", blocks[0])
	}
	if !strings.Contains(blocks[0], "Weight: 3 sources") {
		t.Fatalf("missing pluralized weight: %q", blocks[0])
	}
	if strings.Contains(blocks[0], "Keyword match") {
		t.Fatalf("keyword annotation on non-matching article: %q", blocks[0])
	}
	if !strings.Contains(blocks[0], "Published: Sun, 20 Apr 2025 08:30:00 UTC") {
		t.Fatalf("missing published line: %q", blocks[0])
	}

	if !strings.Contains(blocks[1], "Weight: 1 source\n") {
		t.Fatalf("singular weight not rendered: %q", blocks[1])
	}
	if !strings.Contains(blocks[1], "_Keyword match: yes_") {
		t.Fatalf("missing keyword annotation: %q", blocks[1])
	}
	if !strings.Contains(blocks[1], "[Read more](https://example.com/The halving cometh)") {
		t.Fatalf("missing link: %q", blocks[1])
	}
	if !strings.Contains(blocks[1], "Published: unknown") {
		t.Fatalf("zero published time not rendered as unknown: %q", blocks[1])
	}
}
