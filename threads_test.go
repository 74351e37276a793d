package threads

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pkgerrs "github.com/chainthreads/go-threads-publisher/pkg/errors"
	"github.com/chainthreads/go-threads-publisher/pkg/types"
)

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewClient(&Config{UserID: "u1"}); err == nil {
		t.Error("expected error for missing access token")
	}
	if _, err := NewClient(&Config{AccessToken: "tkn"}); err == nil {
		t.Error("expected error for missing user id")
	}

	var validationErr *pkgerrs.ValidationError
	_, err := NewClient(&Config{})
	if !errors.As(err, &validationErr) {
		t.Errorf("expected ValidationError, got %T", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	config := &Config{AccessToken: "tkn", UserID: "u1"}
	client, err := NewClient(config)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if config.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", config.BaseURL, DefaultBaseURL)
	}
	if config.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want %q", config.UserAgent, DefaultUserAgent)
	}
	if config.TextLimit != types.TextLimit {
		t.Errorf("TextLimit = %d, want %d", config.TextLimit, types.TextLimit)
	}
	if config.MediaLimit != types.MediaLimit {
		t.Errorf("MediaLimit = %d, want %d", config.MediaLimit, types.MediaLimit)
	}
	if config.ContinuationMarker != DefaultContinuationMarker {
		t.Errorf("ContinuationMarker = %q", config.ContinuationMarker)
	}
	if config.PollInterval != DefaultPollInterval || config.PollBudget != DefaultPollBudget {
		t.Errorf("poll defaults not applied: interval=%v budget=%v", config.PollInterval, config.PollBudget)
	}
	if config.HTTPClient == nil || config.HTTPClient.Timeout != DefaultTimeout {
		t.Error("HTTPClient default not applied")
	}
	if client.prober == nil || client.clock == nil {
		t.Error("prober and clock must be initialized")
	}
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	_, err := NewClient(&Config{AccessToken: "tkn", UserID: "u1", BaseURL: "://bad"})
	var validationErr *pkgerrs.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func newClientAgainst(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&Config{
		AccessToken:       "tkn",
		UserID:            testUserID,
		BaseURL:           server.URL + "/",
		HTTPClient:        server.Client(),
		RequestsPerMinute: 600000,
		Burst:             1000,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestGetPublishingLimit_PostQuota(t *testing.T) {
	var gotFields string
	client := newClientAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotFields = r.URL.Query().Get("fields")
		_, _ = w.Write([]byte(`{"data":[{"quota_usage":42,"config":{"quota_total":250,"quota_duration":86400}}]}`))
	})

	quota, err := client.GetPublishingLimit(context.Background(), false)
	if err != nil {
		t.Fatalf("GetPublishingLimit returned error: %v", err)
	}

	if gotFields != "quota_usage,config" {
		t.Errorf("fields = %q", gotFields)
	}
	if quota.Used != 42 || quota.Total != 250 {
		t.Errorf("quota = %d/%d, want 42/250", quota.Used, quota.Total)
	}
	if quota.ResetIn != 24*time.Hour {
		t.Errorf("ResetIn = %v, want 24h", quota.ResetIn)
	}
	if quota.Remaining() != 208 {
		t.Errorf("Remaining() = %d, want 208", quota.Remaining())
	}
}

func TestGetPublishingLimit_ReplyQuota(t *testing.T) {
	var gotFields string
	client := newClientAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotFields = r.URL.Query().Get("fields")
		_, _ = w.Write([]byte(`{"data":[{"reply_quota_usage":7,"reply_config":{"quota_total":1000,"quota_duration":3600}}]}`))
	})

	quota, err := client.GetPublishingLimit(context.Background(), true)
	if err != nil {
		t.Fatalf("GetPublishingLimit returned error: %v", err)
	}

	if gotFields != "reply_quota_usage,reply_config" {
		t.Errorf("fields = %q", gotFields)
	}
	if quota.Used != 7 || quota.Total != 1000 {
		t.Errorf("quota = %d/%d, want 7/1000", quota.Used, quota.Total)
	}
	if quota.ResetIn != time.Hour {
		t.Errorf("ResetIn = %v, want 1h", quota.ResetIn)
	}
}

func TestGetPublishingLimit_EmptyData(t *testing.T) {
	client := newClientAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	_, err := client.GetPublishingLimit(context.Background(), false)
	var apiErr *pkgerrs.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
}

func TestContainerStatus_StateMapping(t *testing.T) {
	tests := []struct {
		platform   string
		wantState  types.ContainerState
		wantDetail bool
	}{
		{"FINISHED", types.ContainerFinished, false},
		{"PUBLISHED", types.ContainerFinished, false},
		{"ERROR", types.ContainerErrored, true},
		{"EXPIRED", types.ContainerErrored, true},
		{"IN_PROGRESS", types.ContainerPolling, false},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			client := newClientAgainst(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"` + tt.platform + `","error_message":"bad media"}`))
			})

			state, detail, err := client.containerStatus(context.Background(), "c1")
			if err != nil {
				t.Fatalf("containerStatus returned error: %v", err)
			}
			if state != tt.wantState {
				t.Errorf("state = %v, want %v", state, tt.wantState)
			}
			if tt.wantDetail && detail == "" {
				t.Error("expected a failure detail")
			}
		})
	}
}

func TestGetPost(t *testing.T) {
	var gotPath string
	client := newClientAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"id":"p1","media_type":"TEXT","text":"hello","permalink":"https://www.threads.net/@u/post/X"}`))
	})

	post, err := client.GetPost(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPost returned error: %v", err)
	}
	if gotPath != "/p1" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if post.ID != "p1" || post.Text != "hello" {
		t.Errorf("unexpected post: %+v", post)
	}

	if _, err := client.GetPost(context.Background(), ""); err == nil {
		t.Error("expected error for empty post id")
	}
}

func TestGetReplies(t *testing.T) {
	var gotPath string
	client := newClientAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"data":[{"id":"r1","text":"one"},{"id":"r2","text":"two"}]}`))
	})

	replies, err := client.GetReplies(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetReplies returned error: %v", err)
	}
	if gotPath != "/p1/replies" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if len(replies) != 2 || replies[0].ID != "r1" || replies[1].ID != "r2" {
		t.Errorf("unexpected replies: %+v", replies)
	}

	if _, err := client.GetReplies(context.Background(), ""); err == nil {
		t.Error("expected error for empty post id")
	}
}
