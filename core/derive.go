package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/huangsam/sizeup/schema"
)

// DerivePullRequest converts one raw pull request description into its metrics record.
// It is a pure function and fails with schema.ErrMalformedPullRequestPayload when a
// required field is absent.
func DerivePullRequest(raw schema.RawRepository) (schema.PullRequestRecord, error) {
	if err := validateRawPullRequest(raw); err != nil {
		return schema.PullRequestRecord{}, err
	}
	pr := raw.PullRequest

	record := schema.PullRequestRecord{
		Repository:                      raw.NameWithOwner,
		Number:                          pr.Number,
		CreatedAt:                       pr.CreatedAt.UTC(),
		NumCommits:                      pr.NumCommits,
		NumIssueComments:                pr.NumComments,
		NumReviews:                      pr.Reviews.TotalCount,
		NumReviewComments:               sumReviewComments(pr.Reviews.Nodes),
		NumUnacknowledgedReviewRequests: countOpenReviewRequests(pr.ReviewRequests),
	}

	if pr.Closed && !pr.Merged {
		record.ClosedAt = utcPtr(pr.ClosedAt)
	}
	if pr.Merged {
		record.MergedAt = utcPtr(pr.MergedAt)
	}

	reviews := submittedReviews(pr.Reviews.Nodes)
	record.ReadyForReviewAt = readyForReviewAt(pr, reviews)
	record.ApprovedAt = approvedAt(reviews, record.ReadyForReviewAt)

	return record, nil
}

// validateRawPullRequest checks the fields every derivation depends on.
func validateRawPullRequest(raw schema.RawRepository) error {
	var missing string
	switch {
	case raw.PullRequest == nil:
		missing = "pullRequest"
	case raw.NameWithOwner == "":
		missing = "nameWithOwner"
	case raw.PullRequest.Number <= 0:
		missing = "pullRequest.number"
	case raw.PullRequest.CreatedAt.IsZero():
		missing = "pullRequest.createdAt"
	default:
		return nil
	}
	payload, _ := json.Marshal(raw)
	return fmt.Errorf("%w: missing %s in %s", schema.ErrMalformedPullRequestPayload, missing, payload)
}

// submittedReviews returns reviews with a submission time, in submission order.
// Pending reviews have no submission time and are skipped.
func submittedReviews(nodes []schema.RawReview) []schema.RawReview {
	reviews := make([]schema.RawReview, 0, len(nodes))
	for _, r := range nodes {
		if r.SubmittedAt != nil {
			reviews = append(reviews, r)
		}
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].SubmittedAt.Before(*reviews[j].SubmittedAt)
	})
	return reviews
}

// readyForReviewAt picks the ready-for-review event most relevant to review timing.
// With a first review, only events strictly after it qualify; without one, any
// event does. The earliest qualifying event wins and createdAt is the fallback.
func readyForReviewAt(pr *schema.RawPullRequest, reviews []schema.RawReview) time.Time {
	created := pr.CreatedAt.UTC()

	var firstReview *time.Time
	if len(reviews) > 0 {
		firstReview = reviews[0].SubmittedAt
	}

	var chosen *time.Time
	for _, event := range pr.TimelineItems.Nodes {
		if event.Typename != schema.ReadyForReviewEventType || event.CreatedAt == nil {
			continue
		}
		if firstReview != nil && !event.CreatedAt.After(*firstReview) {
			continue
		}
		if chosen == nil || event.CreatedAt.Before(*chosen) {
			chosen = event.CreatedAt
		}
	}

	if chosen == nil || chosen.Before(created) {
		return created
	}
	return chosen.UTC()
}

// approvedAt returns the first approving review submitted at or after ready.
func approvedAt(reviews []schema.RawReview, ready time.Time) *time.Time {
	for _, r := range reviews {
		if r.State != schema.ApprovedReview || r.SubmittedAt.Before(ready) {
			continue
		}
		return utcPtr(r.SubmittedAt)
	}
	return nil
}

// sumReviewComments adds up per-review comment counts.
func sumReviewComments(reviews []schema.RawReview) int {
	total := 0
	for _, r := range reviews {
		total += r.NumComments
	}
	return total
}

// countOpenReviewRequests counts open review requests. Individuals and teams both
// count as one request each; the connection total covers requests past the first page.
func countOpenReviewRequests(conn schema.RawReviewRequestConnection) int {
	if conn.TotalCount > len(conn.Nodes) {
		return conn.TotalCount
	}
	return len(conn.Nodes)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
