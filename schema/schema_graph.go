package schema

import "time"

// RawRepository is the repository node returned by the pull request graph query.
type RawRepository struct {
	NameWithOwner string          `json:"nameWithOwner"`
	PullRequest   *RawPullRequest `json:"pullRequest"`
}

// RawPullRequest is the graph-shaped description of a single pull request.
type RawPullRequest struct {
	Number         int                        `json:"number"`
	AuthorLogin    string                     `json:"authorLogin"`
	CreatedAt      time.Time                  `json:"createdAt"`
	Closed         bool                       `json:"closed"`
	ClosedAt       *time.Time                 `json:"closedAt"`
	Merged         bool                       `json:"merged"`
	MergedAt       *time.Time                 `json:"mergedAt"`
	NumCommits     int                        `json:"commitsTotalCount"`
	NumComments    int                        `json:"commentsTotalCount"`
	Reviews        RawReviewConnection        `json:"reviews"`
	ReviewRequests RawReviewRequestConnection `json:"reviewRequests"`
	TimelineItems  RawTimelineConnection      `json:"timelineItems"`
}

// PageInfo carries the cursor fields of a connection.
type PageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// RawReviewConnection is the first page of reviews.
type RawReviewConnection struct {
	TotalCount int         `json:"totalCount"`
	PageInfo   PageInfo    `json:"pageInfo"`
	Nodes      []RawReview `json:"nodes"`
}

// RawReview is one review on a pull request.
type RawReview struct {
	State       ReviewState `json:"state"`
	SubmittedAt *time.Time  `json:"submittedAt"`
	AuthorLogin string      `json:"authorLogin"`
	NumComments int         `json:"commentsTotalCount"`
}

// RawReviewRequestConnection is the first page of open review requests.
type RawReviewRequestConnection struct {
	TotalCount int                `json:"totalCount"`
	PageInfo   PageInfo           `json:"pageInfo"`
	Nodes      []ReviewerIdentity `json:"nodes"`
}

// ReviewerIdentity is a requested reviewer, either an individual or a team.
type ReviewerIdentity struct {
	Kind       ReviewerKind `json:"kind"`
	Identifier string       `json:"identifier"`
}

// RawTimelineConnection is the first page of filtered timeline items.
type RawTimelineConnection struct {
	PageInfo PageInfo           `json:"pageInfo"`
	Nodes    []RawTimelineEvent `json:"nodes"`
}

// RawTimelineEvent is a timeline item. Only ready-for-review markers carry a timestamp.
type RawTimelineEvent struct {
	Typename  string     `json:"__typename"`
	CreatedAt *time.Time `json:"createdAt"`
}
