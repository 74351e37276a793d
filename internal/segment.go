package internal

import (
	"regexp"
	"strings"

	"github.com/chainthreads/go-threads-publisher/pkg/types"
)

// SegmentConfig carries the segmenter's knobs. Limit and Marker always have
// concrete values by the time SplitContent runs.
type SegmentConfig struct {
	// Limit is the platform per-post character limit.
	Limit int
	// Marker is appended to every non-final segment when chaining is enabled.
	Marker string
	// Mode controls trailing-hashtag extraction when no explicit tags exist.
	Mode types.HashtagMode
	// PersistTags appends the tag block to every segment instead of only the last.
	PersistTags bool
	// Chained enables splitting; when false the text is truncated to one segment.
	Chained bool
}

// trailingTagsRe matches a maximal suffix of whitespace-separated hashtag
// tokens at the end of the body.
var trailingTagsRe = regexp.MustCompile(`(?:\s|^)(#[^\s#]+(?:\s+#[^\s#]+)*)\s*$`)

// wordBoundaryWindow is the fraction of a segment within which a whitespace
// break is preferred over a hard cut.
const wordBoundaryWindow = 0.2

// SplitContent splits raw text plus an optional tag list into an ordered
// sequence of platform-compliant segments. The returned slice is empty only
// when the input text is empty and no tags were extracted; callers pair
// segments with media batches and pad whichever sequence is shorter.
func SplitContent(text string, tags []string, cfg SegmentConfig) []*types.TextSegment {
	body := strings.TrimSpace(text)

	if len(tags) == 0 && cfg.Mode != types.HashtagOff {
		body, tags = extractTrailingTags(body, cfg.Mode)
	}
	tags = normalizeTags(tags)

	tagBlock := ""
	if len(tags) > 0 {
		tagBlock = " " + strings.Join(tags, " ")
	}

	if body == "" && tagBlock == "" {
		return nil
	}

	if !cfg.Chained {
		// Single post: excess content is silently discarded.
		limit := cfg.Limit - len([]rune(tagBlock))
		runes := []rune(body)
		if len(runes) > limit {
			runes = runes[:cut(runes, limit)]
		}
		return []*types.TextSegment{{
			Text: strings.TrimSpace(strings.TrimRight(string(runes), " \t\n") + tagBlock),
			Tags: tags,
		}}
	}

	var segments []*types.TextSegment
	remaining := []rune(body)
	marker := []rune(cfg.Marker)

	for len(segments) == 0 || len(remaining) > 0 {
		finalLimit := cfg.Limit - len([]rune(tagBlock))
		if len(remaining) <= finalLimit {
			// Final segment; the tag block always applies here.
			segments = append(segments, &types.TextSegment{
				Text: strings.TrimSpace(string(remaining) + tagBlock),
				Tags: tags,
			})
			break
		}

		limit := cfg.Limit - len(marker)
		segTags := []string(nil)
		segBlock := ""
		if cfg.PersistTags {
			limit -= len([]rune(tagBlock))
			segTags = tags
			segBlock = tagBlock
		}
		if limit < 1 {
			// Degenerate tag block; still make progress.
			limit = 1
		}

		n := cut(remaining, limit)
		segText := strings.TrimRight(string(remaining[:n]), " \t\n")
		segments = append(segments, &types.TextSegment{
			Text:      segText + cfg.Marker + segBlock,
			Tags:      segTags,
			Continued: true,
		})
		remaining = []rune(strings.TrimLeft(string(remaining[n:]), " \t\n"))
	}

	return segments
}

// cut returns how many runes of text fit in limit, backing off to the last
// whitespace when one exists within the final fifth of the window.
func cut(text []rune, limit int) int {
	if limit <= 0 {
		return 0
	}
	if len(text) <= limit {
		return len(text)
	}

	minBreak := limit - int(float64(limit)*wordBoundaryWindow)
	for i := limit; i > minBreak; i-- {
		if isSpace(text[i-1]) {
			return i - 1
		}
	}
	return limit
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// extractTrailingTags removes a trailing hashtag run from the body and
// returns it as a tag list. In the if-absent mode the run is left in place
// when the rest of the body already contains a hashtag.
func extractTrailingTags(body string, mode types.HashtagMode) (string, []string) {
	loc := trailingTagsRe.FindStringSubmatchIndex(body)
	if loc == nil {
		return body, nil
	}

	head := strings.TrimRight(body[:loc[2]], " \t\n")
	if mode == types.HashtagExtractIfAbsent && strings.Contains(head, "#") {
		return body, nil
	}

	return head, strings.Fields(body[loc[2]:loc[3]])
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, "#") {
			t = "#" + t
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
