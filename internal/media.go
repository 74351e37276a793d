package internal

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"

	pkgerrs "github.com/chainthreads/go-threads-publisher/pkg/errors"
	"github.com/chainthreads/go-threads-publisher/pkg/types"
)

// Prober answers what MIME type a remote URL serves, typically with a
// ranged GET that reads only the sniff window.
type Prober interface {
	Probe(ctx context.Context, url string) (contentType string, err error)
}

// publicURLRe matches public media references: optional scheme, a dotted
// domain or IP, optional port, optional path and query.
var publicURLRe = regexp.MustCompile(`^(?:https?://)?(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}(?::\d+)?(?:/[^\s]*)?$|^(?:https?://)?(?:\d{1,3}\.){3}\d{1,3}(?::\d+)?(?:/[^\s]*)?$`)

// minBinaryPayload is the smallest decoded base64 payload worth sniffing;
// anything shorter cannot carry a media signature.
const minBinaryPayload = 12

// ClassifyConfig carries the classifier's knobs.
type ClassifyConfig struct {
	// BatchLimit is the platform per-post media-count limit.
	BatchLimit int
	// Chained enables multi-batch output; when false only the first batch
	// is kept and the rest is silently discarded.
	Chained bool
}

// ClassifyMedia inspects each raw media reference in order, determines its
// kind and source, and groups the validated items into ordered batches.
// Payloads may be nil or shorter than refs; a non-nil entry takes precedence
// over the string reference at the same index.
func ClassifyMedia(ctx context.Context, refs []string, payloads [][]byte, captions []string, prober Prober, cfg ClassifyConfig) ([]*types.MediaBatch, error) {
	items := make([]*types.MediaItem, 0, len(refs))

	for i, ref := range refs {
		var payload []byte
		if i < len(payloads) {
			payload = payloads[i]
		}

		item, err := classifyOne(ctx, i, ref, payload, prober)
		if err != nil {
			return nil, err
		}
		if i < len(captions) {
			item.Caption = captions[i]
		}
		items = append(items, item)
	}

	return chunkBatches(items, cfg), nil
}

func classifyOne(ctx context.Context, index int, ref string, payload []byte, prober Prober) (*types.MediaItem, error) {
	if len(payload) > 0 {
		return classifyPayload(index, payload)
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &pkgerrs.MediaValidationError{Index: index, Reason: "empty media reference"}
	}

	// A schemeless name like "photo.jpg" matches both the URL pattern and a
	// local path; an existing file wins over the URL interpretation.
	hasScheme := strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
	isLocal := false
	if !hasScheme {
		if info, err := os.Stat(ref); err == nil && !info.IsDir() {
			isLocal = true
		}
	}

	if !isLocal && publicURLRe.MatchString(ref) {
		return classifyURL(ctx, index, ref, prober)
	}

	if decoded, ok := decodeBase64(ref); ok {
		return classifyPayload(index, decoded)
	}

	if isLocal {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, &pkgerrs.MediaValidationError{Index: index, Reason: "unreadable local file", Err: err}
		}
		return classifyPayload(index, data)
	}

	return nil, &pkgerrs.MediaValidationError{Index: index, Reason: "invalid reference at index " + strconv.Itoa(index)}
}

func classifyURL(ctx context.Context, index int, ref string, prober Prober) (*types.MediaItem, error) {
	url := ref
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	contentType, err := prober.Probe(ctx, url)
	if err != nil {
		return nil, &pkgerrs.MediaValidationError{Index: index, Reason: "unreachable URL", Err: err}
	}

	kind, ok := kindFromContentType(contentType)
	if !ok {
		return nil, &pkgerrs.MediaValidationError{Index: index, Reason: "URL serves non-media content type " + contentType}
	}

	return &types.MediaItem{
		Kind:        kind,
		Source:      types.SourceRemoteURL,
		URL:         url,
		Ext:         extFromContentType(contentType),
		ContentType: contentType,
	}, nil
}

func classifyPayload(index int, data []byte) (*types.MediaItem, error) {
	contentType := http.DetectContentType(data)
	kind, ok := kindFromContentType(contentType)
	if !ok {
		return nil, &pkgerrs.MediaValidationError{Index: index, Reason: "payload has non-media signature " + contentType}
	}

	return &types.MediaItem{
		Kind:        kind,
		Source:      types.SourceStaged,
		Payload:     data,
		Ext:         extFromContentType(contentType),
		ContentType: contentType,
	}, nil
}

// decodeBase64 reports whether ref is a decodable base64 string with a
// plausible binary payload. Data-URI prefixes are stripped first.
func decodeBase64(ref string) ([]byte, bool) {
	s := ref
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, false
		}
		s = s[comma+1:]
	}
	if len(s) < minBinaryPayload*4/3 || len(s)%4 != 0 {
		return nil, false
	}

	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(decoded) < minBinaryPayload {
		return nil, false
	}
	return decoded, true
}

func kindFromContentType(contentType string) (types.MediaKind, bool) {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return types.MediaImage, true
	case strings.HasPrefix(ct, "video/"):
		return types.MediaVideo, true
	default:
		return 0, false
	}
}

func extFromContentType(contentType string) string {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "video/webm":
		return ".webm"
	default:
		if i := strings.IndexByte(ct, '/'); i >= 0 && i+1 < len(ct) {
			return "." + ct[i+1:]
		}
		return ""
	}
}

func chunkBatches(items []*types.MediaItem, cfg ClassifyConfig) []*types.MediaBatch {
	if len(items) == 0 {
		return nil
	}

	limit := cfg.BatchLimit
	if limit < 1 {
		limit = types.MediaLimit
	}

	var batches []*types.MediaBatch
	for start := 0; start < len(items); start += limit {
		end := start + limit
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, &types.MediaBatch{Items: items[start:end]})
		if !cfg.Chained {
			// Single post: batches beyond the first are silently discarded.
			break
		}
	}
	return batches
}

// HTTPProber probes a URL with a ranged GET, falling back to the response
// Content-Type header when the body cannot be sniffed.
type HTTPProber struct {
	Client *http.Client
}

func (p *HTTPProber) Probe(ctx context.Context, url string) (string, error) {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Range", "bytes=0-511")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return "", &pkgerrs.APIError{StatusCode: resp.StatusCode, Message: "media probe failed"}
	}

	buf := make([]byte, 512)
	n, err := io.ReadFull(resp.Body, buf)
	if n > 0 {
		return http.DetectContentType(buf[:n]), nil
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", err
	}
	return resp.Header.Get("Content-Type"), nil
}
