package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/huangsam/sizeup/internal/contract"
	"github.com/huangsam/sizeup/schema"
)

// RoutinesFor expands a stat type into the routines it runs, in order.
func RoutinesFor(statType schema.StatType) ([]schema.StatType, error) {
	switch statType {
	case schema.AllStats:
		return schema.AllStatTypes, nil
	case schema.ReviewEngagementStat, schema.DeliveryStat, schema.EffectivenessStat:
		return []schema.StatType{statType}, nil
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrInvalidStatType, statType)
	}
}

// RoutineCharts returns the fixed charts of one routine for a repository and window.
func RoutineCharts(statType schema.StatType, repository string, dr schema.DateRange) ([]schema.ChartSpec, error) {
	cohort := func(filters []schema.CohortFilter, alias string, dims ...schema.DimensionSpec) schema.CohortQuerySpec {
		return schema.CohortQuerySpec{
			Repository:   repository,
			Range:        dr,
			Filters:      filters,
			Dimensions:   dims,
			PrimaryAlias: alias,
		}
	}

	switch statType {
	case schema.ReviewEngagementStat:
		return []schema.ChartSpec{
			{
				Title:  "comments vs. diff size",
				Kind:   schema.ScatterChart,
				Cohort: cohort(nil, "", schema.DimensionSpec{Dimension: schema.CommentsDimension, Alias: "number of comments"}),
			},
			{
				Title:  "reviews vs. diff size",
				Kind:   schema.ScatterChart,
				Cohort: cohort(nil, "", schema.DimensionSpec{Dimension: schema.ReviewsDimension, Alias: "number of reviews"}),
			},
			{
				Title: "unacknowledged reviews vs. diff size",
				Kind:  schema.ScatterChart,
				Cohort: cohort(nil, "", schema.DimensionSpec{
					Dimension: schema.UnacknowledgedRequestsDimension,
					Alias:     "number of unacknowledged review requests",
				}),
			},
		}, nil
	case schema.DeliveryStat:
		return []schema.ChartSpec{
			{
				Title:  "time to approval vs. diff size",
				Kind:   schema.ScatterChart,
				Cohort: cohort(nil, "", schema.DimensionSpec{Dimension: schema.TimeToApprovalDimension, Alias: "time to approval (days)"}),
			},
			{
				Title:  "time to merge vs. diff size",
				Kind:   schema.ScatterChart,
				Cohort: cohort(nil, "", schema.DimensionSpec{Dimension: schema.TimeToMergeDimension, Alias: "time to merge (days)"}),
			},
		}, nil
	case schema.EffectivenessStat:
		return []schema.ChartSpec{
			{
				Title:  "diff size distribution",
				Kind:   schema.HistogramChart,
				Cohort: cohort(nil, ""),
			},
			{
				Title:  "diff size for sizeup-action participants",
				Kind:   schema.BoxplotChart,
				Cohort: cohort([]schema.CohortFilter{schema.OptedInFilter}, "participating"),
			},
			{
				Title:  "diff size for sizeup-action non-participants",
				Kind:   schema.BoxplotChart,
				Cohort: cohort([]schema.CohortFilter{schema.NotOptedInFilter}, "not participating"),
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrInvalidStatType, statType)
	}
}

// CollectChartData runs the cohort query behind one chart.
func CollectChartData(ctx context.Context, store contract.Store, chart schema.ChartSpec) (schema.ChartData, error) {
	query, err := BuildCohortQuery(store.Backend(), chart.Cohort)
	if err != nil {
		return schema.ChartData{}, err
	}
	slog.Debug("Running cohort query", "chart", chart.Title, "sql", query.SQL, "args", query.Args)

	rs, err := store.QueryRows(ctx, query)
	if err != nil {
		return schema.ChartData{}, contract.WrapCancelled(ctx, fmt.Errorf("failed to query %q: %w", chart.Title, err))
	}
	return schema.ChartData{Title: chart.Title, Kind: chart.Kind, Columns: rs.Columns, Rows: rs.Rows}, nil
}

// CollectReportData returns the data behind every chart of a stat type without rendering.
func CollectReportData(ctx context.Context, store contract.Store, statType schema.StatType, repository string, dr schema.DateRange) ([]schema.ChartData, error) {
	routines, err := RoutinesFor(statType)
	if err != nil {
		return nil, err
	}

	var data []schema.ChartData
	for _, routine := range routines {
		charts, err := RoutineCharts(routine, repository, dr)
		if err != nil {
			return nil, err
		}
		for _, chart := range charts {
			cd, err := CollectChartData(ctx, store, chart)
			if err != nil {
				return nil, err
			}
			data = append(data, cd)
		}
	}
	return data, nil
}

// RunReport dispatches a stat type to its routines and streams each chart through
// the renderer into out. It fails before any routine runs when the renderer is
// unavailable. Under schema.AllStats a failing routine does not stop the others;
// their errors are joined.
func RunReport(ctx context.Context, store contract.Store, renderer contract.Renderer, out io.Writer, statType schema.StatType, repository string, dr schema.DateRange) error {
	if err := renderer.Available(); err != nil {
		return err
	}
	routines, err := RoutinesFor(statType)
	if err != nil {
		return err
	}

	var errs []error
	for _, routine := range routines {
		if err := ctx.Err(); err != nil {
			return contract.WrapCancelled(ctx, err)
		}

		_, _ = contract.HeadingColor.Fprintf(out, "📊 %s for %s\n", routine, repository)
		err := runRoutine(ctx, store, renderer, out, routine, repository, dr)
		if err == nil {
			continue
		}
		if errors.Is(err, schema.ErrOperationCancelled) {
			return err
		}
		if statType != schema.AllStats {
			return err
		}
		slog.Warn("Report routine failed", "routine", routine, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", routine, err))
	}
	return errors.Join(errs...)
}

// runRoutine renders the charts of one routine in order, stopping at the first failure.
func runRoutine(ctx context.Context, store contract.Store, renderer contract.Renderer, out io.Writer, routine schema.StatType, repository string, dr schema.DateRange) error {
	charts, err := RoutineCharts(routine, repository, dr)
	if err != nil {
		return err
	}

	for _, chart := range charts {
		data, err := CollectChartData(ctx, store, chart)
		if err != nil {
			return err
		}
		payload, err := EncodeCSV(data.Columns, data.Rows)
		if err != nil {
			return err
		}
		if err := renderer.Render(ctx, chart, bytes.NewReader(payload), out); err != nil {
			return contract.WrapCancelled(ctx, fmt.Errorf("failed to render %q: %w", chart.Title, err))
		}
	}
	return nil
}

// EncodeCSV writes a header row followed by the rows, comma-delimited.
func EncodeCSV(columns []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return buf.Bytes(), nil
}
