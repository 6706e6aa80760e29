package iocache

import (
	"fmt"
	"io"
	"sort"

	"github.com/huangsam/sizeup/schema"
)

// PrintStoreStatus prints store status information.
func PrintStoreStatus(w io.Writer, status schema.StoreStatus) {
	_, _ = fmt.Fprintf(w, "Store Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Pull Requests: %d\n", status.TotalPullRequests)
	_, _ = fmt.Fprintf(w, "Evaluations: %d\n", status.TotalEvaluations)
	_, _ = fmt.Fprintf(w, "Repositories Tracked: %d\n", status.RepositoriesTracked)
	if status.TotalEvaluations > 0 {
		_, _ = fmt.Fprintf(w, "Oldest Evaluation: %s\n", status.OldestEvaluatedAt.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Latest Evaluation: %s\n", status.LatestEvaluatedAt.Format("2006-01-02 15:04:05"))
	}
	if status.DatabaseSizeBytes > 0 {
		_, _ = fmt.Fprintf(w, "Database Size: %d bytes\n", status.DatabaseSizeBytes)
	}

	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
