// Package github fetches pull request graphs from the GitHub GraphQL API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	graphql "github.com/cli/shurcooL-graphql"
	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
)

// Options configures a Client.
type Options struct {
	Host      string            // GitHub host, "github.com" when empty
	Token     string            // API token sent as a bearer credential
	Timeout   time.Duration     // Per-request timeout, none when zero
	Transport http.RoundTripper // Optional transport override
}

// Client wraps the GitHub GraphQL API client.
type Client struct {
	gql *api.GraphQLClient
}

var _ contract.PullRequestSource = &Client{} // Compile-time check

// NewClient creates a GraphQL client for the host in opts.
func NewClient(opts Options) (*Client, error) {
	if opts.Token == "" {
		return nil, errors.New("a GitHub token is required")
	}
	host := opts.Host
	if host == "" {
		host = contract.DefaultGitHubHost
	}

	gql, err := api.NewGraphQLClient(api.ClientOptions{
		AuthToken: opts.Token,
		Host:      host,
		Timeout:   opts.Timeout,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL client: %w", err)
	}
	return &Client{gql: gql}, nil
}

// pullRequestQuery mirrors the repository/pullRequest graph needed for derivation.
type pullRequestQuery struct {
	Repository struct {
		NameWithOwner string
		PullRequest   *struct {
			Author struct {
				Login string
			}
			Number    int
			CreatedAt string
			Closed    bool
			ClosedAt  string
			Merged    bool
			MergedAt  string
			Commits   struct {
				TotalCount int
			}
			Comments struct {
				TotalCount int
			}
			Reviews struct {
				TotalCount int
				PageInfo   pageInfo
				Nodes      []struct {
					State       string
					SubmittedAt string
					Author      struct {
						Login string
					}
					Comments struct {
						TotalCount int
					}
				}
			} `graphql:"reviews(first: 100)"`
			ReviewRequests struct {
				TotalCount int
				PageInfo   pageInfo
				Nodes      []struct {
					RequestedReviewer struct {
						Typename string `graphql:"__typename"`
						User     struct {
							Login string
						} `graphql:"... on User"`
						Team struct {
							Name string
						} `graphql:"... on Team"`
					}
				}
			} `graphql:"reviewRequests(first: 100)"`
			TimelineItems struct {
				PageInfo pageInfo
				Nodes    []struct {
					Typename       string `graphql:"__typename"`
					ReadyForReview struct {
						CreatedAt string
					} `graphql:"... on ReadyForReviewEvent"`
				}
			} `graphql:"timelineItems(first: 100, itemTypes: [READY_FOR_REVIEW_EVENT, PULL_REQUEST_REVIEW])"`
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

type pageInfo struct {
	HasNextPage bool
	EndCursor   string
}

// FetchPullRequest runs the pull request query for one pull request.
func (c *Client) FetchPullRequest(ctx context.Context, repository string, number int) (schema.RawRepository, error) {
	owner, name, err := schema.SplitRepository(repository)
	if err != nil {
		return schema.RawRepository{}, err
	}

	var q pullRequestQuery
	variables := map[string]any{
		"owner":  graphql.String(owner),
		"name":   graphql.String(name),
		"number": graphql.Int(number),
	}
	if err := c.gql.QueryWithContext(ctx, "PullRequest", &q, variables); err != nil {
		return schema.RawRepository{}, classifyError(ctx, repository, number, err)
	}

	if q.Repository.PullRequest == nil {
		body, _ := json.Marshal(q)
		return schema.RawRepository{}, fmt.Errorf("%w: unexpected response while fetching %s#%d: %s",
			schema.ErrMalformedPullRequestPayload, repository, number, body)
	}
	return convertQuery(q)
}

// statusPattern extracts the status code from the GraphQL transport's non-200 error.
var statusPattern = regexp.MustCompile(`non-200 OK status code: (\d{3})`)

// classifyError maps client failures onto the error taxonomy.
func classifyError(ctx context.Context, repository string, number int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return contract.WrapCancelled(ctx, err)
	}

	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		return fmt.Errorf("%w: http %d: %s", schema.ErrTransport, httpErr.StatusCode,
			strings.ToLower(http.StatusText(httpErr.StatusCode)))
	}
	if m := statusPattern.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return fmt.Errorf("%w: http %d: %s", schema.ErrTransport, code, strings.ToLower(http.StatusText(code)))
	}
	var gqlErr *api.GraphQLError
	if errors.As(err, &gqlErr) {
		return fmt.Errorf("%w: graphql errors while fetching %s#%d: %s",
			schema.ErrMalformedPullRequestPayload, repository, number, gqlErr.Error())
	}
	return fmt.Errorf("%w: %s", schema.ErrTransport, strings.ToLower(err.Error()))
}

// convertQuery maps the decoded query onto the raw graph records.
func convertQuery(q pullRequestQuery) (schema.RawRepository, error) {
	pr := q.Repository.PullRequest

	createdAt, err := parseTimestamp("createdAt", pr.CreatedAt)
	if err != nil {
		return schema.RawRepository{}, err
	}
	raw := &schema.RawPullRequest{
		Number:      pr.Number,
		AuthorLogin: pr.Author.Login,
		Closed:      pr.Closed,
		Merged:      pr.Merged,
		NumCommits:  pr.Commits.TotalCount,
		NumComments: pr.Comments.TotalCount,
	}
	if createdAt != nil {
		raw.CreatedAt = *createdAt
	}
	if raw.ClosedAt, err = parseTimestamp("closedAt", pr.ClosedAt); err != nil {
		return schema.RawRepository{}, err
	}
	if raw.MergedAt, err = parseTimestamp("mergedAt", pr.MergedAt); err != nil {
		return schema.RawRepository{}, err
	}

	raw.Reviews = schema.RawReviewConnection{
		TotalCount: pr.Reviews.TotalCount,
		PageInfo:   schema.PageInfo(pr.Reviews.PageInfo),
	}
	for _, node := range pr.Reviews.Nodes {
		submittedAt, err := parseTimestamp("reviews.submittedAt", node.SubmittedAt)
		if err != nil {
			return schema.RawRepository{}, err
		}
		raw.Reviews.Nodes = append(raw.Reviews.Nodes, schema.RawReview{
			State:       schema.ReviewState(node.State),
			SubmittedAt: submittedAt,
			AuthorLogin: node.Author.Login,
			NumComments: node.Comments.TotalCount,
		})
	}

	raw.ReviewRequests = schema.RawReviewRequestConnection{
		TotalCount: pr.ReviewRequests.TotalCount,
		PageInfo:   schema.PageInfo(pr.ReviewRequests.PageInfo),
	}
	for _, node := range pr.ReviewRequests.Nodes {
		reviewer := node.RequestedReviewer
		switch reviewer.Typename {
		case "User":
			raw.ReviewRequests.Nodes = append(raw.ReviewRequests.Nodes,
				schema.ReviewerIdentity{Kind: schema.IndividualReviewer, Identifier: reviewer.User.Login})
		case "Team":
			raw.ReviewRequests.Nodes = append(raw.ReviewRequests.Nodes,
				schema.ReviewerIdentity{Kind: schema.TeamReviewer, Identifier: reviewer.Team.Name})
		}
	}

	raw.TimelineItems = schema.RawTimelineConnection{PageInfo: schema.PageInfo(pr.TimelineItems.PageInfo)}
	for _, node := range pr.TimelineItems.Nodes {
		createdAt, err := parseTimestamp("timelineItems.createdAt", node.ReadyForReview.CreatedAt)
		if err != nil {
			return schema.RawRepository{}, err
		}
		raw.TimelineItems.Nodes = append(raw.TimelineItems.Nodes,
			schema.RawTimelineEvent{Typename: node.Typename, CreatedAt: createdAt})
	}

	return schema.RawRepository{NameWithOwner: q.Repository.NameWithOwner, PullRequest: raw}, nil
}

// parseTimestamp parses an optional ISO-8601 API timestamp. Empty means absent.
func parseTimestamp(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a timestamp: %q", schema.ErrMalformedPullRequestPayload, field, value)
	}
	t = t.UTC()
	return &t, nil
}
