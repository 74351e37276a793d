package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	threads "github.com/chainthreads/go-threads-publisher"
	"github.com/chainthreads/go-threads-publisher/pkg/staging"
	"github.com/chainthreads/go-threads-publisher/pkg/types"
)

func main() {
	// Credentials come from the environment; a .env file is honored too.
	_ = godotenv.Load()

	accessToken := os.Getenv("THREADS_ACCESS_TOKEN")
	userID := os.Getenv("THREADS_USER_ID")
	if accessToken == "" || userID == "" {
		log.Fatal("THREADS_ACCESS_TOKEN and THREADS_USER_ID environment variables are required")
	}

	// Route structured logs to stdout; adjust the level as needed.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Optional GitHub staging store for local media files.
	var store staging.Store
	if owner := os.Getenv("STAGING_GITHUB_OWNER"); owner != "" {
		gh, err := staging.NewGitHubStore(staging.GitHubConfig{
			Owner: owner,
			Repo:  os.Getenv("STAGING_GITHUB_REPO"),
			Token: os.Getenv("STAGING_GITHUB_TOKEN"),
		})
		if err != nil {
			log.Fatalf("Failed to configure staging: %v", err)
		}
		store = gh
	}

	client, err := threads.NewClient(&threads.Config{
		AccessToken: accessToken,
		UserID:      userID,
		UserAgent:   "example-publisher/1.0",
		Logger:      logger,
		Staging:     store,
		WaitOnQuota: true,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()

	// Check the remaining allowance before publishing.
	quota, err := client.GetPublishingLimit(ctx, false)
	if err != nil {
		log.Fatalf("Failed to query publishing limit: %v", err)
	}
	fmt.Printf("Quota: %d/%d used, resets in %s\n", quota.Used, quota.Total, quota.ResetIn)

	// A post longer than the 500-character limit; Publish splits it into a
	// reply chain automatically.
	text := strings.TrimSpace(os.Getenv("POST_TEXT"))
	if text == "" {
		text = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30) + "#golang #threads"
	}

	var media []string
	if paths := os.Getenv("POST_MEDIA"); paths != "" {
		media = strings.Split(paths, ",")
	}

	result, err := client.Publish(ctx, &types.PostRequest{
		Text:        text,
		HashtagMode: types.HashtagExtractTrailing,
		Media:       media,
		Chained:     true,
	})
	if err != nil {
		if result != nil && len(result.Chain) > 0 {
			log.Printf("Partial chain published: %v", result.Chain)
		}
		log.Fatalf("Publish failed: %v", err)
	}

	fmt.Printf("Published a chain of %d posts:\n", len(result.Chain))
	for i, id := range result.Chain {
		post, err := client.GetPost(ctx, id)
		if err != nil {
			fmt.Printf("%d. %s\n", i+1, id)
			continue
		}
		fmt.Printf("%d. %s %s\n", i+1, id, post.Permalink)
	}
}
