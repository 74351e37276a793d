package threads

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chainthreads/go-threads-publisher/internal"
	pkgerrs "github.com/chainthreads/go-threads-publisher/pkg/errors"
	"github.com/chainthreads/go-threads-publisher/pkg/staging"
	"github.com/chainthreads/go-threads-publisher/pkg/types"
)

const (
	// DefaultBaseURL is the default Threads graph API base URL
	DefaultBaseURL = "https://graph.threads.net/v1.0/"
	// DefaultUserAgent is the default user agent string
	DefaultUserAgent = "go-threads-publisher/0.1"
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
	// DefaultPollInterval is the default container status poll interval
	DefaultPollInterval = 2 * time.Second
	// DefaultPollBudget is the default maximum wait for one container
	DefaultPollBudget = 5 * time.Minute
	// DefaultContinuationMarker is appended to non-final chain segments
	DefaultContinuationMarker = "..."

	// childWorkerCap bounds concurrent carousel-child container creation.
	childWorkerCap = 5
)

// Config holds the configuration for the Threads client.
//
// AccessToken and UserID are required; everything else has a sensible
// default. A staging store is only required when Publish is handed media
// that is not already publicly reachable.
type Config struct {
	// AccessToken is a Threads graph API access token with publishing scope.
	AccessToken string

	// UserID is the Threads user id the posts are published under.
	UserID string

	// BaseURL for the graph API.
	// Defaults to DefaultBaseURL if not specified. Usually doesn't need to be changed.
	BaseURL string

	// UserAgent string to identify your application.
	UserAgent string

	// HTTPClient to use for requests.
	// Defaults to a client with DefaultTimeout if not specified.
	HTTPClient *http.Client

	// Logger for structured diagnostics.
	// Optional. If provided, debug information will be logged during API calls.
	Logger *slog.Logger

	// RequestsPerMinute and Burst configure the client-side request
	// limiter. Zero values select the defaults (60 rpm, burst 10).
	RequestsPerMinute float64
	Burst             int

	// Staging is the temporary store used to obtain public URLs for local,
	// in-memory or base64 media. Required only when such media is published.
	Staging staging.Store

	// TextLimit and MediaLimit override the platform limits, mainly for
	// tests. Zero selects types.TextLimit / types.MediaLimit.
	TextLimit  int
	MediaLimit int

	// ContinuationMarker is appended to every non-final segment of a chain.
	// Defaults to DefaultContinuationMarker.
	ContinuationMarker string

	// PollInterval and PollBudget control container status polling.
	PollInterval time.Duration
	PollBudget   time.Duration

	// WaitOnQuota makes Publish block for the reported reset duration and
	// re-check once when the publishing quota is exhausted, instead of
	// failing immediately.
	WaitOnQuota bool
}

// apiClient is the behavior Publish needs from the HTTP layer. It exists so
// tests can substitute a fake transport.
type apiClient interface {
	NewRequest(ctx context.Context, method, path string, params url.Values) (*http.Request, error)
	Do(req *http.Request, v any) error
}

// Client is the Threads publishing client. It is stateless between calls;
// each Publish run is independent and isolated.
type Client struct {
	api    apiClient
	config *Config
	store  staging.Store
	logger *slog.Logger
	prober internal.Prober
	clock  internal.Clock
}

// NewClient validates the configuration, fills in defaults and returns a
// client ready for use. No network call is made.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, &pkgerrs.ValidationError{Message: "config cannot be nil"}
	}
	if config.AccessToken == "" {
		return nil, &pkgerrs.ValidationError{Message: "AccessToken is required"}
	}
	if config.UserID == "" {
		return nil, &pkgerrs.ValidationError{Message: "UserID is required"}
	}

	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	}
	if config.TextLimit == 0 {
		config.TextLimit = types.TextLimit
	}
	if config.MediaLimit == 0 {
		config.MediaLimit = types.MediaLimit
	}
	if config.ContinuationMarker == "" {
		config.ContinuationMarker = DefaultContinuationMarker
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.PollBudget == 0 {
		config.PollBudget = DefaultPollBudget
	}

	var rateCfg *internal.RateLimitConfig
	if config.RequestsPerMinute > 0 || config.Burst > 0 {
		rateCfg = &internal.RateLimitConfig{
			RequestsPerMinute: config.RequestsPerMinute,
			Burst:             config.Burst,
		}
	}

	api, err := internal.NewClient(
		config.HTTPClient,
		config.AccessToken,
		config.BaseURL,
		config.UserAgent,
		rateCfg,
		config.Logger,
	)
	if err != nil {
		return nil, &pkgerrs.ValidationError{Message: "invalid BaseURL: " + err.Error()}
	}

	return &Client{
		api:    api,
		config: config,
		store:  config.Staging,
		logger: config.Logger,
		prober: &internal.HTTPProber{Client: config.HTTPClient},
		clock:  internal.RealClock{},
	}, nil
}

// containerParams describes one container create call.
type containerParams struct {
	mediaType      string // TEXT, IMAGE, VIDEO or CAROUSEL
	text           string
	imageURL       string
	videoURL       string
	isCarouselItem bool
	altText        string
	children       []string
	replyTo        string
	replyControl   types.ReplyControl
	countryCodes   []string
	quotePostID    string
	linkAttachment string
}

// createContainer issues the platform create request and returns the new
// container id.
func (c *Client) createContainer(ctx context.Context, p containerParams) (string, error) {
	params := url.Values{}
	params.Set("media_type", p.mediaType)
	if p.text != "" {
		params.Set("text", p.text)
	}
	if p.imageURL != "" {
		params.Set("image_url", p.imageURL)
	}
	if p.videoURL != "" {
		params.Set("video_url", p.videoURL)
	}
	if p.isCarouselItem {
		params.Set("is_carousel_item", "true")
	}
	if p.altText != "" {
		params.Set("alt_text", p.altText)
	}
	if len(p.children) > 0 {
		params.Set("children", strings.Join(p.children, ","))
	}
	if p.replyTo != "" {
		params.Set("reply_to_id", p.replyTo)
	}
	if p.replyControl != "" {
		params.Set("reply_control", string(p.replyControl))
	}
	if len(p.countryCodes) > 0 {
		params.Set("allowlisted_country_codes", strings.Join(p.countryCodes, ","))
	}
	if p.quotePostID != "" {
		params.Set("quote_post_id", p.quotePostID)
	}
	if p.linkAttachment != "" {
		params.Set("link_attachment", p.linkAttachment)
	}

	req, err := c.api.NewRequest(ctx, http.MethodPost, c.config.UserID+"/threads", params)
	if err != nil {
		return "", &pkgerrs.ContainerError{Phase: "create", Err: err}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.api.Do(req, &created); err != nil {
		return "", &pkgerrs.ContainerError{Phase: "create", Err: err}
	}
	if created.ID == "" {
		return "", &pkgerrs.ContainerError{Phase: "create", Detail: "platform returned no container id"}
	}
	return created.ID, nil
}

// containerStatus maps the platform's status field onto the container state
// machine. EXPIRED counts as a platform-reported failure.
func (c *Client) containerStatus(ctx context.Context, containerID string) (types.ContainerState, string, error) {
	params := url.Values{}
	params.Set("fields", "status,error_message")

	req, err := c.api.NewRequest(ctx, http.MethodGet, containerID, params)
	if err != nil {
		return types.ContainerPolling, "", err
	}

	var status struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	}
	if err := c.api.Do(req, &status); err != nil {
		return types.ContainerPolling, "", err
	}

	switch status.Status {
	case "FINISHED", "PUBLISHED":
		return types.ContainerFinished, "", nil
	case "ERROR":
		detail := status.ErrorMessage
		if detail == "" {
			detail = "container entered ERROR state"
		}
		return types.ContainerErrored, detail, nil
	case "EXPIRED":
		return types.ContainerErrored, "container expired before publish", nil
	default:
		return types.ContainerPolling, "", nil
	}
}

// publishContainer publishes a finished container and returns the id of the
// resulting post.
func (c *Client) publishContainer(ctx context.Context, containerID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", containerID)

	req, err := c.api.NewRequest(ctx, http.MethodPost, c.config.UserID+"/threads_publish", params)
	if err != nil {
		return "", &pkgerrs.ContainerError{Phase: "publish", ContainerID: containerID, Err: err}
	}

	var published struct {
		ID string `json:"id"`
	}
	if err := c.api.Do(req, &published); err != nil {
		return "", &pkgerrs.ContainerError{Phase: "publish", ContainerID: containerID, Err: err}
	}
	if published.ID == "" {
		return "", &pkgerrs.ContainerError{Phase: "publish", ContainerID: containerID, Detail: "platform returned no post id"}
	}
	return published.ID, nil
}

// GetPublishingLimit returns the current publishing quota snapshot. With
// forReply it queries the reply quota instead of the post quota.
func (c *Client) GetPublishingLimit(ctx context.Context, forReply bool) (*types.QuotaStatus, error) {
	fields := "quota_usage,config"
	if forReply {
		fields = "reply_quota_usage,reply_config"
	}

	params := url.Values{}
	params.Set("fields", fields)

	req, err := c.api.NewRequest(ctx, http.MethodGet, c.config.UserID+"/threads_publishing_limit", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []struct {
			QuotaUsage int `json:"quota_usage"`
			Config     struct {
				QuotaTotal    int `json:"quota_total"`
				QuotaDuration int `json:"quota_duration"`
			} `json:"config"`
			ReplyQuotaUsage int `json:"reply_quota_usage"`
			ReplyConfig     struct {
				QuotaTotal    int `json:"quota_total"`
				QuotaDuration int `json:"quota_duration"`
			} `json:"reply_config"`
		} `json:"data"`
	}
	if err := c.api.Do(req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, &pkgerrs.APIError{Message: "publishing limit response contained no data"}
	}

	d := resp.Data[0]
	status := &types.QuotaStatus{
		Used:    d.QuotaUsage,
		Total:   d.Config.QuotaTotal,
		ResetIn: time.Duration(d.Config.QuotaDuration) * time.Second,
	}
	if forReply {
		status.Used = d.ReplyQuotaUsage
		status.Total = d.ReplyConfig.QuotaTotal
		status.ResetIn = time.Duration(d.ReplyConfig.QuotaDuration) * time.Second
	}
	return status, nil
}

// postFields is the field list requested by the read operations.
const postFields = "id,media_type,text,permalink,timestamp,username,shortcode,is_quote_post"

// GetPost retrieves a single published post.
func (c *Client) GetPost(ctx context.Context, postID string) (*types.Post, error) {
	if postID == "" {
		return nil, &pkgerrs.ValidationError{Message: "post id is required"}
	}

	params := url.Values{}
	params.Set("fields", postFields)

	req, err := c.api.NewRequest(ctx, http.MethodGet, postID, params)
	if err != nil {
		return nil, err
	}

	var post types.Post
	if err := c.api.Do(req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetReplies retrieves the direct replies to a post, oldest first.
func (c *Client) GetReplies(ctx context.Context, postID string) ([]*types.Post, error) {
	if postID == "" {
		return nil, &pkgerrs.ValidationError{Message: "post id is required"}
	}

	params := url.Values{}
	params.Set("fields", postFields)
	params.Set("reverse", "false")

	req, err := c.api.NewRequest(ctx, http.MethodGet, postID+"/replies", params)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data []*types.Post `json:"data"`
	}
	if err := c.api.Do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
