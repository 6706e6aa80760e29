package schema

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SplitRepository splits an "owner/name" repository into its parts.
func SplitRepository(repository string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(repository), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: repository must be in owner/name form, got %q", ErrInvalidPullRequestRef, repository)
	}
	return owner, name, nil
}

// ParsePullRequestURL parses URLs like https://github.com/owner/repo/pull/1.
func ParsePullRequestURL(raw string) (PullRequestRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return PullRequestRef{}, fmt.Errorf("%w: %q is not a pull request url", ErrInvalidPullRequestRef, raw)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "pull" {
		return PullRequestRef{}, fmt.Errorf("%w: %q is not a pull request url", ErrInvalidPullRequestRef, raw)
	}
	number, err := strconv.Atoi(parts[3])
	if err != nil || number <= 0 {
		return PullRequestRef{}, fmt.Errorf("%w: %q has no valid pull request number", ErrInvalidPullRequestRef, raw)
	}
	return PullRequestRef{Repository: parts[0] + "/" + parts[1], Number: number}, nil
}

// ParsePullRequestRefs turns CLI arguments into refs. The first argument is either
// a repository followed by numbers, or every argument is a pull request URL.
func ParsePullRequestRefs(args []string) ([]PullRequestRef, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: no pull requests given", ErrInvalidPullRequestRef)
	}

	if strings.Contains(args[0], "://") {
		refs := make([]PullRequestRef, 0, len(args))
		for _, arg := range args {
			ref, err := ParsePullRequestURL(arg)
			if err != nil {
				return nil, err
			}
			refs = append(refs, ref)
		}
		return refs, nil
	}

	if _, _, err := SplitRepository(args[0]); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return nil, fmt.Errorf("%w: no pull request numbers given for %s", ErrInvalidPullRequestRef, args[0])
	}
	refs := make([]PullRequestRef, 0, len(args)-1)
	for _, arg := range args[1:] {
		number, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
		if err != nil || number <= 0 {
			return nil, fmt.Errorf("%w: %q is not a pull request number", ErrInvalidPullRequestRef, arg)
		}
		refs = append(refs, PullRequestRef{Repository: args[0], Number: number})
	}
	return refs, nil
}

// String renders the ref as owner/name#number.
func (r PullRequestRef) String() string {
	return fmt.Sprintf("%s#%d", r.Repository, r.Number)
}
