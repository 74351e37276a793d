package internal

import (
	"strings"
	"testing"

	"github.com/chainthreads/go-threads-publisher/pkg/types"
)

func defaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		Limit:   types.TextLimit,
		Marker:  "...",
		Chained: true,
	}
}

func TestSplitContent_ShortTextSingleSegment(t *testing.T) {
	segs := SplitContent("hello world", nil, defaultSegmentConfig())
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Text != "hello world" {
		t.Errorf("unexpected segment text: %q", segs[0].Text)
	}
	if segs[0].Continued {
		t.Error("single segment must not be marked continued")
	}
}

func TestSplitContent_EmptyInput(t *testing.T) {
	if segs := SplitContent("", nil, defaultSegmentConfig()); segs != nil {
		t.Fatalf("expected no segments for empty input, got %d", len(segs))
	}
}

func TestSplitContent_EverySegmentWithinLimit(t *testing.T) {
	// 1000 characters with no whitespace near some boundaries forces both
	// word-boundary and hard cuts.
	text := strings.Repeat("abcdefghij", 50) + " " + strings.Repeat("klmnopqrst uvwxy ", 29)
	cfg := defaultSegmentConfig()

	segs := SplitContent(text, nil, cfg)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}

	for i, seg := range segs {
		if n := len([]rune(seg.Text)); n > cfg.Limit {
			t.Errorf("segment %d has %d chars, limit is %d", i, n, cfg.Limit)
		}
		if i < len(segs)-1 {
			if !seg.Continued {
				t.Errorf("segment %d should be marked continued", i)
			}
			if !strings.HasSuffix(seg.Text, cfg.Marker) {
				t.Errorf("segment %d missing continuation marker", i)
			}
		} else if seg.Continued {
			t.Error("final segment must not be marked continued")
		}
	}
}

func TestSplitContent_ReconstructsInput(t *testing.T) {
	words := make([]string, 0, 300)
	for i := 0; i < 300; i++ {
		words = append(words, "word")
	}
	text := strings.Join(words, " ")
	cfg := defaultSegmentConfig()

	segs := SplitContent(text, nil, cfg)

	var rebuilt []string
	for _, seg := range segs {
		body := strings.TrimSuffix(seg.Text, cfg.Marker)
		rebuilt = append(rebuilt, strings.TrimSpace(body))
	}
	if got := strings.Join(rebuilt, " "); got != text {
		t.Errorf("concatenated segments do not reconstruct input:\nwant %d chars\ngot  %d chars", len(text), len(got))
	}
}

func TestSplitContent_ThousandCharsLimit500(t *testing.T) {
	text := strings.Repeat("x", 1000)
	cfg := defaultSegmentConfig()

	segs := SplitContent(text, nil, cfg)

	total := 0
	for i, seg := range segs {
		if n := len([]rune(seg.Text)); n > 500 {
			t.Errorf("segment %d has %d chars", i, n)
		}
		total += len(strings.TrimSuffix(seg.Text, cfg.Marker))
	}
	if total != 1000 {
		t.Errorf("expected all 1000 chars to survive, got %d", total)
	}
	// No whitespace anywhere, so every non-final segment hard-cuts at 497.
	if got := len([]rune(segs[0].Text)); got != 500 {
		t.Errorf("expected first segment to fill the limit exactly, got %d", got)
	}
}

func TestSplitContent_WordBoundaryBackoff(t *testing.T) {
	// A space just inside the final fifth of the window should win over a
	// mid-word hard cut.
	cfg := SegmentConfig{Limit: 100, Marker: "...", Chained: true}
	text := strings.Repeat("a", 90) + " " + strings.Repeat("b", 50)

	segs := SplitContent(text, nil, cfg)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if want := strings.Repeat("a", 90) + "..."; segs[0].Text != want {
		t.Errorf("expected break at the space, got %q", segs[0].Text)
	}
	if segs[1].Text != strings.Repeat("b", 50) {
		t.Errorf("unexpected remainder: %q", segs[1].Text)
	}
}

func TestSplitContent_TagsOnFinalSegmentOnly(t *testing.T) {
	cfg := SegmentConfig{Limit: 100, Marker: "...", Chained: true}
	text := strings.Repeat("a", 150)

	segs := SplitContent(text, []string{"#a", "#b"}, cfg)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if strings.Contains(segs[0].Text, "#a") {
		t.Errorf("tag block leaked into segment 1: %q", segs[0].Text)
	}
	if !strings.HasSuffix(segs[1].Text, " #a #b") {
		t.Errorf("tag block missing from final segment: %q", segs[1].Text)
	}
	if segs[0].Tags != nil {
		t.Errorf("segment 1 should carry no tags, got %v", segs[0].Tags)
	}
}

func TestSplitContent_PersistTagsOnEverySegment(t *testing.T) {
	cfg := SegmentConfig{Limit: 100, Marker: "...", Chained: true, PersistTags: true}
	text := strings.Repeat("a", 150)

	segs := SplitContent(text, []string{"go"}, cfg)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}
	for i, seg := range segs {
		if !strings.Contains(seg.Text, "#go") {
			t.Errorf("segment %d missing persisted tag: %q", i, seg.Text)
		}
		if n := len([]rune(seg.Text)); n > cfg.Limit {
			t.Errorf("segment %d has %d chars, limit is %d", i, n, cfg.Limit)
		}
	}
}

func TestSplitContent_ExtractTrailingHashtags(t *testing.T) {
	cfg := defaultSegmentConfig()
	cfg.Mode = types.HashtagExtractTrailing

	segs := SplitContent("a fine morning #sunrise #coffee", nil, cfg)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Text != "a fine morning #sunrise #coffee" {
		t.Errorf("unexpected segment text: %q", segs[0].Text)
	}
	if len(segs[0].Tags) != 2 || segs[0].Tags[0] != "#sunrise" || segs[0].Tags[1] != "#coffee" {
		t.Errorf("unexpected extracted tags: %v", segs[0].Tags)
	}
}

func TestSplitContent_ExtractIfAbsentSkipsWhenBodyHasHashtag(t *testing.T) {
	cfg := defaultSegmentConfig()
	cfg.Mode = types.HashtagExtractIfAbsent

	segs := SplitContent("my #first post ever #tag", nil, cfg)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if len(segs[0].Tags) != 0 {
		t.Errorf("extraction should be skipped when body contains a hashtag, got tags %v", segs[0].Tags)
	}
	if segs[0].Text != "my #first post ever #tag" {
		t.Errorf("body should be untouched: %q", segs[0].Text)
	}
}

func TestSplitContent_ExplicitTagsDisableExtraction(t *testing.T) {
	cfg := defaultSegmentConfig()
	cfg.Mode = types.HashtagExtractTrailing

	segs := SplitContent("hello #trailing", []string{"#explicit"}, cfg)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Text != "hello #trailing #explicit" {
		t.Errorf("unexpected segment text: %q", segs[0].Text)
	}
}

func TestSplitContent_UnchainedTruncates(t *testing.T) {
	cfg := SegmentConfig{Limit: 100, Marker: "...", Chained: false}
	text := strings.Repeat("a", 250)

	segs := SplitContent(text, nil, cfg)
	if len(segs) != 1 {
		t.Fatalf("expected exactly 1 segment when chaining is disabled, got %d", len(segs))
	}
	if n := len([]rune(segs[0].Text)); n != 100 {
		t.Errorf("expected truncation to the limit, got %d chars", n)
	}
	if segs[0].Continued {
		t.Error("truncated segment must not carry a continuation marker")
	}
}

func TestSplitContent_UnchainedReservesTagBlock(t *testing.T) {
	cfg := SegmentConfig{Limit: 100, Marker: "...", Chained: false}
	text := strings.Repeat("a", 250)

	segs := SplitContent(text, []string{"#x"}, cfg)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if !strings.HasSuffix(segs[0].Text, " #x") {
		t.Errorf("tag block missing: %q", segs[0].Text)
	}
	if n := len([]rune(segs[0].Text)); n > 100 {
		t.Errorf("segment exceeds limit: %d chars", n)
	}
}
