package types

import (
	"time"
)

// Platform limits for the Threads graph API. A single post carries at most
// TextLimit characters of text and MediaLimit media children.
const (
	TextLimit  = 500
	MediaLimit = 20
)

// HashtagMode controls whether trailing hashtags are extracted from the
// post body and managed as a tag block by the segmenter.
type HashtagMode int

const (
	// HashtagOff leaves the body untouched.
	HashtagOff HashtagMode = iota
	// HashtagExtractTrailing always extracts a trailing run of #tags.
	HashtagExtractTrailing
	// HashtagExtractIfAbsent extracts a trailing run of #tags unless the
	// body already contains a hashtag elsewhere.
	HashtagExtractIfAbsent
)

// ReplyControl restricts who may reply to the published posts.
// Valid values mirror the platform's reply_control parameter.
type ReplyControl string

const (
	ReplyControlEveryone      ReplyControl = "everyone"
	ReplyControlFollowing     ReplyControl = "accounts_you_follow"
	ReplyControlMentionedOnly ReplyControl = "mentioned_only"
)

// PostRequest is the caller's input to Publish. It is treated as immutable
// once the pipeline starts.
type PostRequest struct {
	// Text is the raw post body. It may exceed the platform text limit;
	// the pipeline splits it into a reply chain.
	Text string

	// Tags is an explicit tag list (each entry with or without a leading
	// '#'). When empty and HashtagMode is enabled, trailing hashtags are
	// extracted from Text instead.
	Tags []string

	// HashtagMode controls trailing-hashtag extraction from Text.
	HashtagMode HashtagMode

	// PersistTags appends the tag block to every segment of the chain
	// instead of only the final one.
	PersistTags bool

	// Media lists the raw media references: public URLs, local file paths,
	// base64 payloads or raw bytes (via MediaBytes, matched by index).
	Media []string

	// MediaBytes optionally carries in-memory payloads. A non-nil entry at
	// index i takes precedence over Media[i].
	MediaBytes [][]byte

	// Captions is a parallel caption list for Media. Shorter lists are
	// padded with empty captions; longer lists are truncated.
	Captions []string

	// ReplyTo makes the first post of the chain a reply to an existing post.
	ReplyTo string

	// ReplyControl restricts who may reply. Empty means platform default.
	ReplyControl ReplyControl

	// CountryCodes geo-gates the posts to the listed ISO country codes.
	CountryCodes []string

	// QuotePostID quotes an existing post. Applied to the first link of the
	// chain only.
	QuotePostID string

	// LinkAttachment attaches a link preview. Applied to the first,
	// text-only link of the chain only.
	LinkAttachment string

	// Chained enables the reply-chain behavior for oversized content. When
	// false, excess text and media beyond the first post are silently
	// discarded.
	Chained bool
}

// TextSegment is one platform-compliant chunk of text, in publish order.
type TextSegment struct {
	// Text is the finished segment text including any continuation marker
	// and tag block. Always within the platform text limit.
	Text string

	// Tags are the tags attached to this segment, if any.
	Tags []string

	// Continued is true when the segment ends with a continuation marker
	// and more content follows in the chain.
	Continued bool
}

// MediaKind discriminates images from videos.
type MediaKind int

const (
	MediaImage MediaKind = iota
	MediaVideo
)

func (k MediaKind) String() string {
	if k == MediaVideo {
		return "video"
	}
	return "image"
}

// MediaSource records how a media reference was provided.
type MediaSource int

const (
	// SourceRemoteURL means the reference was already a public URL; no
	// staging is needed.
	SourceRemoteURL MediaSource = iota
	// SourceStaged means the item carries a payload that must be uploaded
	// to the temporary store before the platform can fetch it.
	SourceStaged
)

// MediaItem is one classified media reference. Immutable after
// classification except for URL, which is populated when a staged item's
// upload completes.
type MediaItem struct {
	Kind   MediaKind
	Source MediaSource

	// URL is the publicly reachable URL the platform will fetch. Set at
	// classification time for SourceRemoteURL, after staging otherwise.
	URL string

	// Payload holds the raw bytes for SourceStaged items.
	Payload []byte

	// Ext is the detected file extension including the dot (".jpg").
	Ext string

	// ContentType is the sniffed MIME type.
	ContentType string

	// Caption is the per-item alt text, if any.
	Caption string
}

// MediaBatch is an ordered group of at most MediaLimit items, aligned by
// index with a TextSegment.
type MediaBatch struct {
	Items []*MediaItem
}

// QuotaStatus is a read-only snapshot of the publishing allowance.
type QuotaStatus struct {
	// Used is the number of posts (or replies) consumed in the window.
	Used int
	// Total is the window allowance.
	Total int
	// ResetIn is the duration until the window resets.
	ResetIn time.Duration
}

// Remaining reports how many posts may still be published in the window.
func (q QuotaStatus) Remaining() int {
	if q.Total < q.Used {
		return 0
	}
	return q.Total - q.Used
}

// ContainerState is the lifecycle of a platform-side container.
type ContainerState int

const (
	// ContainerCreated is the initial state after a create call returned an id.
	ContainerCreated ContainerState = iota
	// ContainerPolling means the orchestrator is waiting for readiness.
	ContainerPolling
	// ContainerFinished is the terminal success state.
	ContainerFinished
	// ContainerErrored is the terminal failure state reported by the platform.
	ContainerErrored
	// ContainerTimedOut is synthesized locally when the wait budget is exceeded.
	ContainerTimedOut
)

func (s ContainerState) String() string {
	switch s {
	case ContainerCreated:
		return "created"
	case ContainerPolling:
		return "polling"
	case ContainerFinished:
		return "finished"
	case ContainerErrored:
		return "errored"
	case ContainerTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// PublishResult is the outcome of one Publish run. Chain holds the ids of
// the published posts in chain order; it is non-empty on a quota denial that
// interrupted a partially published chain.
type PublishResult struct {
	// Chain lists the published post ids, root first.
	Chain []string
}

// RootID returns the id of the first published post, or "" for an empty chain.
func (r *PublishResult) RootID() string {
	if r == nil || len(r.Chain) == 0 {
		return ""
	}
	return r.Chain[0]
}

// Post is a published Threads post, as returned by the read endpoints.
type Post struct {
	ID        string `json:"id"`
	MediaType string `json:"media_type"`
	Text      string `json:"text"`
	Permalink string `json:"permalink"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	ShortCode string `json:"shortcode"`
	IsQuote   bool   `json:"is_quote_post"`
	ReplyTo   string `json:"replied_to,omitempty"`
}
