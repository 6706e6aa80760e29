package core

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
)

// evaluationColumns is the header of an evaluation CSV file.
var evaluationColumns = []string{
	"repository",
	"pull_request_number",
	"pull_request_is_in_draft",
	"pull_request_author_has_opted_in",
	"score",
	"category",
	"evaluated_at",
}

// ReadEvaluations decodes evaluation records in the given format.
func ReadEvaluations(r io.Reader, format schema.EvaluationFormat) ([]schema.EvaluationRecord, error) {
	var records []schema.EvaluationRecord
	switch format {
	case schema.JSONFormat:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode evaluations JSON: %w", err)
		}
	case schema.CSVFormat:
		var err error
		if records, err = readEvaluationsCSV(r); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid format '%s'. must be csv, json", format)
	}

	for i, rec := range records {
		if err := validateEvaluation(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return records, nil
}

// readEvaluationsCSV parses a header-first CSV document. Columns may appear in any order.
func readEvaluationsCSV(r io.Reader) ([]schema.EvaluationRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range evaluationColumns {
		if _, ok := index[col]; !ok && col != "category" {
			return nil, fmt.Errorf("CSV header is missing column %q", col)
		}
	}

	var records []schema.EvaluationRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		rec, err := parseEvaluationRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseEvaluationRow(row []string, index map[string]int) (schema.EvaluationRecord, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	number, err := strconv.Atoi(field("pull_request_number"))
	if err != nil {
		return schema.EvaluationRecord{}, fmt.Errorf("invalid pull_request_number: %w", err)
	}
	draft, err := strconv.ParseBool(field("pull_request_is_in_draft"))
	if err != nil {
		return schema.EvaluationRecord{}, fmt.Errorf("invalid pull_request_is_in_draft: %w", err)
	}
	optedIn, err := strconv.ParseBool(field("pull_request_author_has_opted_in"))
	if err != nil {
		return schema.EvaluationRecord{}, fmt.Errorf("invalid pull_request_author_has_opted_in: %w", err)
	}
	score, err := strconv.ParseFloat(field("score"), 64)
	if err != nil {
		return schema.EvaluationRecord{}, fmt.Errorf("invalid score: %w", err)
	}
	evaluatedAt, err := time.Parse(time.RFC3339Nano, field("evaluated_at"))
	if err != nil {
		return schema.EvaluationRecord{}, fmt.Errorf("invalid evaluated_at: %w", err)
	}

	rec := schema.EvaluationRecord{
		Repository:                  field("repository"),
		PullRequestNumber:           number,
		PullRequestIsInDraft:        draft,
		PullRequestAuthorHasOptedIn: optedIn,
		Score:                       score,
		EvaluatedAt:                 evaluatedAt.UTC(),
	}
	if category := field("category"); category != "" {
		rec.Category = &category
	}
	return rec, nil
}

func validateEvaluation(rec schema.EvaluationRecord) error {
	if _, _, err := schema.SplitRepository(rec.Repository); err != nil {
		return err
	}
	if rec.PullRequestNumber <= 0 {
		return fmt.Errorf("pull_request_number must be positive (received %d)", rec.PullRequestNumber)
	}
	if rec.EvaluatedAt.IsZero() {
		return errors.New("evaluated_at is required")
	}
	return nil
}

// ImportEvaluations appends every record, counting duplicates instead of failing on them.
func ImportEvaluations(ctx context.Context, store contract.Store, records []schema.EvaluationRecord) (schema.ImportSummary, error) {
	summary := schema.ImportSummary{Read: len(records)}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, contract.WrapCancelled(ctx, err)
		}
		err := store.AppendEvaluation(ctx, rec)
		switch {
		case err == nil:
			summary.Appended++
		case errors.Is(err, schema.ErrDuplicateEvaluation):
			summary.Duplicates++
		default:
			return summary, contract.WrapCancelled(ctx, fmt.Errorf("failed to append evaluation for %s#%d: %w", rec.Repository, rec.PullRequestNumber, err))
		}
	}
	return summary, nil
}

// DistinctPullRequests returns each pull request referenced by records once, in first-seen order.
func DistinctPullRequests(records []schema.EvaluationRecord) []schema.PullRequestRef {
	seen := make(map[schema.PullRequestRef]struct{}, len(records))
	var refs []schema.PullRequestRef
	for _, rec := range records {
		ref := schema.PullRequestRef{Repository: rec.Repository, Number: rec.PullRequestNumber}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}
