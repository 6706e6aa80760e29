package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
	"golang.org/x/sync/errgroup"
)

// FetchPullRequest fetches one pull request and derives its metrics record.
func FetchPullRequest(ctx context.Context, source contract.PullRequestSource, ref schema.PullRequestRef) (schema.PullRequestRecord, error) {
	raw, err := source.FetchPullRequest(ctx, ref.Repository, ref.Number)
	if err != nil {
		return schema.PullRequestRecord{}, contract.WrapCancelled(ctx, err)
	}
	warnTruncatedConnections(ref, raw)
	return DerivePullRequest(raw)
}

// IngestPullRequest fetches, derives and upserts one pull request.
func IngestPullRequest(ctx context.Context, source contract.PullRequestSource, store contract.Store, ref schema.PullRequestRef) (schema.PullRequestRecord, error) {
	record, err := FetchPullRequest(ctx, source, ref)
	if err != nil {
		return schema.PullRequestRecord{}, err
	}
	if err := ctx.Err(); err != nil {
		return schema.PullRequestRecord{}, contract.WrapCancelled(ctx, err)
	}
	if err := store.UpsertPullRequest(ctx, record); err != nil {
		return schema.PullRequestRecord{}, contract.WrapCancelled(ctx, fmt.Errorf("failed to store %s: %w", ref, err))
	}
	return record, nil
}

// IngestPullRequests ingests many pull requests with at most limit requests in flight.
// Results keep the order of refs. A failing pull request does not stop the others;
// cancellation stops new work and is returned as schema.ErrOperationCancelled.
func IngestPullRequests(ctx context.Context, source contract.PullRequestSource, store contract.Store, refs []schema.PullRequestRef, limit int) ([]schema.IngestResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("concurrency limit must be greater than 0 (received %d)", limit)
	}

	results := make([]schema.IngestResult, len(refs))

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, ref := range refs {
		results[i].Ref = ref
		if err := ctx.Err(); err != nil {
			results[i].Err = contract.WrapCancelled(ctx, err)
			continue
		}
		g.Go(func() error {
			record, err := IngestPullRequest(ctx, source, store, ref)
			if err != nil {
				results[i].Err = err
				slog.Debug("Pull request ingestion failed", "ref", ref.String(), "err", err)
				return nil
			}
			results[i].Record = &record
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, contract.WrapCancelled(ctx, err)
	}
	return results, nil
}

// FailedIngestions joins the errors of failed results.
func FailedIngestions(results []schema.IngestResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Ref, r.Err))
		}
	}
	return errors.Join(errs...)
}

// warnTruncatedConnections logs connections that were cut at the first page.
// Derived counts use connection totals; per-node fields only see the first page.
func warnTruncatedConnections(ref schema.PullRequestRef, raw schema.RawRepository) {
	if raw.PullRequest == nil {
		return
	}
	pr := raw.PullRequest
	for name, info := range map[string]schema.PageInfo{
		"reviews":        pr.Reviews.PageInfo,
		"reviewRequests": pr.ReviewRequests.PageInfo,
		"timelineItems":  pr.TimelineItems.PageInfo,
	} {
		if info.HasNextPage {
			slog.Warn("Pull request has more items than one page; later items are ignored", "ref", ref.String(), "connection", name)
		}
	}
}
