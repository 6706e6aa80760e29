package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/huangsam/sizeup/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rewriteTransport sends every request to the test server.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)
	client, err := NewClient(Options{Token: "test-token", Transport: rewriteTransport{target: target}})
	require.NoError(t, err)
	return client
}

const fullResponse = `{
  "data": {
    "repository": {
      "nameWithOwner": "lerebear/sizeup",
      "pullRequest": {
        "author": {"login": "lerebear"},
        "number": 12,
        "createdAt": "2024-06-01T09:00:00Z",
        "closed": true,
        "closedAt": "2024-06-03T09:00:00Z",
        "merged": true,
        "mergedAt": "2024-06-03T09:00:00Z",
        "commits": {"totalCount": 4},
        "comments": {"totalCount": 2},
        "reviews": {
          "totalCount": 2,
          "pageInfo": {"hasNextPage": false, "endCursor": "Y3Vyc29yOjI="},
          "nodes": [
            {"state": "COMMENTED", "submittedAt": "2024-06-01T12:00:00Z", "author": {"login": "octocat"}, "comments": {"totalCount": 3}},
            {"state": "APPROVED", "submittedAt": "2024-06-02T12:00:00Z", "author": {"login": "hubot"}, "comments": {"totalCount": 0}}
          ]
        },
        "reviewRequests": {
          "totalCount": 2,
          "pageInfo": {"hasNextPage": false, "endCursor": null},
          "nodes": [
            {"requestedReviewer": {"__typename": "User", "login": "monalisa"}},
            {"requestedReviewer": {"__typename": "Team", "name": "platform"}}
          ]
        },
        "timelineItems": {
          "pageInfo": {"hasNextPage": false, "endCursor": null},
          "nodes": [
            {"__typename": "ReadyForReviewEvent", "createdAt": "2024-06-01T10:00:00Z"},
            {"__typename": "PullRequestReview"}
          ]
        }
      }
    }
  }
}`

func TestFetchPullRequest(t *testing.T) {
	var got graphQLRequest
	var auth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fullResponse))
	})

	raw, err := client.FetchPullRequest(context.Background(), "lerebear/sizeup", 12)
	require.NoError(t, err)

	assert.Contains(t, auth, "test-token")
	assert.Equal(t, "lerebear", got.Variables["owner"])
	assert.Equal(t, "sizeup", got.Variables["name"])
	assert.EqualValues(t, 12, got.Variables["number"])
	assert.Contains(t, got.Query, "timelineItems(first: 100, itemTypes: [READY_FOR_REVIEW_EVENT, PULL_REQUEST_REVIEW])")
	assert.Contains(t, got.Query, "... on ReadyForReviewEvent")

	assert.Equal(t, "lerebear/sizeup", raw.NameWithOwner)
	pr := raw.PullRequest
	require.NotNil(t, pr)
	assert.Equal(t, 12, pr.Number)
	assert.Equal(t, "lerebear", pr.AuthorLogin)
	assert.Equal(t, time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC), pr.CreatedAt)
	assert.True(t, pr.Merged)
	require.NotNil(t, pr.MergedAt)
	assert.Equal(t, 4, pr.NumCommits)
	assert.Equal(t, 2, pr.NumComments)

	require.Len(t, pr.Reviews.Nodes, 2)
	assert.Equal(t, schema.ApprovedReview, pr.Reviews.Nodes[1].State)
	assert.Equal(t, 3, pr.Reviews.Nodes[0].NumComments)
	assert.Equal(t, "Y3Vyc29yOjI=", pr.Reviews.PageInfo.EndCursor)

	assert.Equal(t, []schema.ReviewerIdentity{
		{Kind: schema.IndividualReviewer, Identifier: "monalisa"},
		{Kind: schema.TeamReviewer, Identifier: "platform"},
	}, pr.ReviewRequests.Nodes)

	require.Len(t, pr.TimelineItems.Nodes, 2)
	assert.Equal(t, schema.ReadyForReviewEventType, pr.TimelineItems.Nodes[0].Typename)
	require.NotNil(t, pr.TimelineItems.Nodes[0].CreatedAt)
	assert.Nil(t, pr.TimelineItems.Nodes[1].CreatedAt)
}

func TestFetchPullRequest_MissingPullRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"repository": {"nameWithOwner": "lerebear/sizeup", "pullRequest": null}}}`))
	})

	_, err := client.FetchPullRequest(context.Background(), "lerebear/sizeup", 404)
	require.ErrorIs(t, err, schema.ErrMalformedPullRequestPayload)
	assert.Contains(t, err.Error(), "lerebear/sizeup#404")
	assert.Contains(t, err.Error(), `"NameWithOwner":"lerebear/sizeup"`)
}

func TestFetchPullRequest_GraphQLErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"repository": {"pullRequest": null}},
			"errors": [{"type": "NOT_FOUND", "path": ["repository", "pullRequest"],
			"message": "Could not resolve to a PullRequest with the number of 404."}]}`))
	})

	_, err := client.FetchPullRequest(context.Background(), "lerebear/sizeup", 404)
	require.ErrorIs(t, err, schema.ErrMalformedPullRequestPayload)
	assert.Contains(t, err.Error(), "Could not resolve to a PullRequest")
}

func TestFetchPullRequest_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message": "Server Error"}`))
	})

	_, err := client.FetchPullRequest(context.Background(), "lerebear/sizeup", 12)
	require.ErrorIs(t, err, schema.ErrTransport)
	assert.Contains(t, err.Error(), "http 502: bad gateway")
}

func TestFetchPullRequest_Cancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(fullResponse))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchPullRequest(ctx, "lerebear/sizeup", 12)
	assert.ErrorIs(t, err, schema.ErrOperationCancelled)
}

func TestFetchPullRequest_InvalidRepository(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})
	_, err := client.FetchPullRequest(context.Background(), "sizeup", 12)
	assert.ErrorIs(t, err, schema.ErrInvalidPullRequestRef)
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	ts, err := parseTimestamp("createdAt", "")
	require.NoError(t, err)
	assert.Nil(t, ts)

	ts, err = parseTimestamp("createdAt", "2024-06-01T09:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 1, 7, 0, 0, 0, time.UTC), *ts)

	_, err = parseTimestamp("createdAt", "yesterday")
	assert.ErrorIs(t, err, schema.ErrMalformedPullRequestPayload)
}
