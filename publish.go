package threads

import (
	"context"

	"github.com/chainthreads/go-threads-publisher/internal"
	pkgerrs "github.com/chainthreads/go-threads-publisher/pkg/errors"
	"github.com/chainthreads/go-threads-publisher/pkg/staging"
	"github.com/chainthreads/go-threads-publisher/pkg/types"
)

// Publish turns one logical post into a chain of platform posts.
//
// The request's text is split into platform-compliant segments and its media
// into carousel batches; the two sequences are paired by index and each pair
// is published as one post, replying to the previous pair's post. Media that
// is not already publicly reachable is staged through the configured store
// first.
//
// On full success the returned result lists every published post id in chain
// order and err is nil. On a quota denial partway through, the result still
// lists the posts published before the denial and err is a *errors.QuotaError;
// the partial chain is left standing. On any other failure every staged
// object that is not yet referenced by a published post is deleted and the
// original error is returned; the result then lists any posts published
// before the failure.
func (c *Client) Publish(ctx context.Context, req *types.PostRequest) (*types.PublishResult, error) {
	if req == nil {
		return nil, &pkgerrs.ValidationError{Message: "request cannot be nil"}
	}

	segments := internal.SplitContent(req.Text, req.Tags, internal.SegmentConfig{
		Limit:       c.config.TextLimit,
		Marker:      c.config.ContinuationMarker,
		Mode:        req.HashtagMode,
		PersistTags: req.PersistTags,
		Chained:     req.Chained,
	})

	batches, err := internal.ClassifyMedia(ctx, req.Media, req.MediaBytes, req.Captions, c.prober, internal.ClassifyConfig{
		BatchLimit: c.config.MediaLimit,
		Chained:    req.Chained,
	})
	if err != nil {
		return nil, err
	}

	pairs := len(segments)
	if len(batches) > pairs {
		pairs = len(batches)
	}
	if pairs == 0 {
		if req.QuotePostID == "" && req.LinkAttachment == "" {
			return nil, &pkgerrs.ValidationError{Message: "nothing to publish: no text, media, quote or link"}
		}
		// Quote or link attachment with no body still publishes one post.
		pairs = 1
	}

	registry := internal.NewRegistry(c.store)
	result := &types.PublishResult{}
	replyTo := req.ReplyTo

	for i := 0; i < pairs; i++ {
		var segment *types.TextSegment
		if i < len(segments) {
			segment = segments[i]
		}
		var batch *types.MediaBatch
		if i < len(batches) {
			batch = batches[i]
		}

		forReply := replyTo != ""
		if err := c.gateQuota(ctx, forReply); err != nil {
			registry.Compensate(ctx, c.logger)
			return result, err
		}

		if err := c.stageBatch(ctx, batch, registry); err != nil {
			registry.Compensate(ctx, c.logger)
			return result, err
		}

		publishedID, err := c.publishPair(ctx, segment, batch, replyTo, req, i == 0)
		if err != nil {
			registry.Compensate(ctx, c.logger)
			return result, err
		}

		// The pair's staged media is now referenced by a live post; it must
		// survive any later failure of this run.
		registry.Commit()

		result.Chain = append(result.Chain, publishedID)
		replyTo = publishedID

		if c.logger != nil {
			c.logger.Debug("chain link published", "index", i, "post_id", publishedID)
		}
	}

	return result, nil
}

// gateQuota consults the publishing-limit endpoint before a batch is
// submitted. When the quota is exhausted it either blocks once for the
// reported reset duration (WaitOnQuota) or denies the run.
func (c *Client) gateQuota(ctx context.Context, forReply bool) error {
	quota, err := c.GetPublishingLimit(ctx, forReply)
	if err != nil {
		return err
	}
	if quota.Remaining() > 0 {
		return nil
	}

	if c.config.WaitOnQuota {
		if c.logger != nil {
			c.logger.Debug("quota exhausted, waiting for reset", "reset_in", quota.ResetIn)
		}
		if err := c.clock.Sleep(ctx, quota.ResetIn); err != nil {
			return err
		}
		// One re-check after the wait; no retry loop.
		quota, err = c.GetPublishingLimit(ctx, forReply)
		if err != nil {
			return err
		}
		if quota.Remaining() > 0 {
			return nil
		}
	}

	return &pkgerrs.QuotaError{
		ForReply: forReply,
		Used:     quota.Used,
		Total:    quota.Total,
		ResetIn:  quota.ResetIn,
	}
}

// stageBatch uploads every item of the batch that is not already publicly
// reachable and resolves its URL. Each artifact is recorded before the
// upload result is acted on, so compensation covers it even if a later step
// never runs.
func (c *Client) stageBatch(ctx context.Context, batch *types.MediaBatch, registry *internal.Registry) error {
	if batch == nil {
		return nil
	}

	for _, item := range batch.Items {
		if item.Source != types.SourceStaged || item.URL != "" {
			continue
		}
		if c.store == nil {
			return &pkgerrs.StagingError{Provider: "none", Body: "media requires staging but no staging store is configured"}
		}

		name := staging.ObjectName(item.Ext)
		artifact, err := c.store.Put(ctx, name, item.Payload, item.ContentType)
		if err != nil {
			return err
		}
		registry.Record(artifact)
		item.URL = artifact.URL

		if c.logger != nil {
			c.logger.Debug("media staged", "store", c.store.Name(), "name", name, "url", artifact.URL)
		}
	}
	return nil
}

// publishPair creates, polls and publishes the containers for one
// (segment, batch) pair and returns the published post id.
func (c *Client) publishPair(ctx context.Context, segment *types.TextSegment, batch *types.MediaBatch, replyTo string, req *types.PostRequest, firstLink bool) (string, error) {
	text := ""
	if segment != nil {
		text = segment.Text
	}

	var items []*types.MediaItem
	if batch != nil {
		items = batch.Items
	}

	params := containerParams{
		text:         text,
		replyTo:      replyTo,
		replyControl: req.ReplyControl,
		countryCodes: req.CountryCodes,
	}
	// The platform allows one quote and one link attachment per post; both
	// ride on the first link of the chain.
	if firstLink {
		params.quotePostID = req.QuotePostID
		if len(items) == 0 {
			params.linkAttachment = req.LinkAttachment
		}
	}

	switch {
	case len(items) > 1:
		children, err := c.createChildren(ctx, items)
		if err != nil {
			return "", err
		}
		params.mediaType = "CAROUSEL"
		params.children = children
	case len(items) == 1:
		applyMedia(&params, items[0])
	default:
		params.mediaType = "TEXT"
	}

	containerID, err := c.createContainer(ctx, params)
	if err != nil {
		return "", err
	}
	if err := c.pollContainer(ctx, containerID); err != nil {
		return "", err
	}
	return c.publishContainer(ctx, containerID)
}

// createChildren creates one carousel-item container per media item with
// bounded parallelism and waits for all of them to finish processing.
// Items are independent, so order of creation does not matter; the returned
// ids preserve batch order.
func (c *Client) createChildren(ctx context.Context, items []*types.MediaItem) ([]string, error) {
	type result struct {
		index int
		id    string
		err   error
	}

	workers := len(items)
	if workers > childWorkerCap {
		workers = childWorkerCap
	}

	sem := make(chan struct{}, workers)
	resultChan := make(chan result, len(items))

	for i, item := range items {
		go func(index int, item *types.MediaItem) {
			sem <- struct{}{}
			defer func() { <-sem }()

			params := containerParams{isCarouselItem: true, altText: item.Caption}
			applyMedia(&params, item)

			id, err := c.createContainer(ctx, params)
			if err == nil {
				err = c.pollContainer(ctx, id)
			}
			resultChan <- result{index: index, id: id, err: err}
		}(i, item)
	}

	children := make([]string, len(items))
	var firstErr error
	for range items {
		res := <-resultChan
		if res.err != nil && firstErr == nil {
			firstErr = res.err
		}
		children[res.index] = res.id
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return children, nil
}

func applyMedia(params *containerParams, item *types.MediaItem) {
	if item.Kind == types.MediaVideo {
		params.mediaType = "VIDEO"
		params.videoURL = item.URL
	} else {
		params.mediaType = "IMAGE"
		params.imageURL = item.URL
	}
	if params.altText == "" {
		params.altText = item.Caption
	}
}

// pollContainer waits for a container to finish processing.
func (c *Client) pollContainer(ctx context.Context, containerID string) error {
	poller := &internal.Poller{
		Interval: c.config.PollInterval,
		Budget:   c.config.PollBudget,
		Clock:    c.clock,
		Logger:   c.logger,
	}
	return poller.Wait(ctx, containerID, func(ctx context.Context) (types.ContainerState, string, error) {
		return c.containerStatus(ctx, containerID)
	})
}
