// Package threads publishes long-form, media-rich content to the Threads
// graph API, which caps every post at 500 characters and 20 media items and
// only accepts media by publicly reachable URL.
//
// The library turns one logical post into a reply chain of compliant posts:
// text is split into segments, media is grouped into carousel batches,
// non-public media is staged through a temporary store (GitHub repository,
// S3 or GCS) to obtain a URL, and each batch is driven through the
// platform's container create/poll/publish protocol. If the pipeline fails
// at any stage, every staged object is deleted before the error is returned.
//
// Basic usage:
//
//	store, err := staging.NewGitHubStore(staging.GitHubConfig{
//		Owner: "me", Repo: "media-staging", Token: os.Getenv("GITHUB_TOKEN"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := threads.NewClient(&threads.Config{
//		AccessToken: os.Getenv("THREADS_TOKEN"),
//		UserID:      os.Getenv("THREADS_USER_ID"),
//		Staging:     store,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Publish(ctx, &types.PostRequest{
//		Text:    veryLongText,
//		Media:   []string{"photo1.jpg", "https://example.com/photo2.jpg"},
//		Chained: true,
//	})
package threads
