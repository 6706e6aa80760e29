package schema

// Custom string types for type safety.
type (
	// DatabaseBackend represents the SQL engine behind the persistent store.
	DatabaseBackend string

	// StatType represents a family of report routines.
	StatType string

	// ChartKind represents the shape of a rendered chart.
	ChartKind string

	// RendererKind represents the chart renderer implementation.
	RendererKind string

	// ReviewState represents the state of a submitted review.
	ReviewState string

	// ReviewerKind distinguishes the two shapes of a requested reviewer.
	ReviewerKind string

	// CohortFilter is a boolean predicate drawn from a closed set.
	CohortFilter string

	// Dimension is a projected reporting metric drawn from a closed set.
	Dimension string

	// EvaluationFormat represents the file format of imported evaluations.
	EvaluationFormat string
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
)

// All stat types supported.
const (
	ReviewEngagementStat StatType = "review-engagement"
	DeliveryStat         StatType = "delivery"
	EffectivenessStat    StatType = "effectiveness"
	AllStats             StatType = "all" // default
)

// All chart kinds supported.
const (
	ScatterChart   ChartKind = "scatter"
	HistogramChart ChartKind = "histogram"
	BoxplotChart   ChartKind = "boxplot"
)

// All renderers supported.
const (
	UPlotRenderer RendererKind = "uplot" // default
	TableRenderer RendererKind = "table"
)

// Review states reported by the hosting API.
const (
	ApprovedReview         ReviewState = "APPROVED"
	ChangesRequestedReview ReviewState = "CHANGES_REQUESTED"
	CommentedReview        ReviewState = "COMMENTED"
	DismissedReview        ReviewState = "DISMISSED"
	PendingReview          ReviewState = "PENDING"
)

// Requested reviewer shapes.
const (
	IndividualReviewer ReviewerKind = "individual"
	TeamReviewer       ReviewerKind = "team"
)

// Cohort filters supported by the query builder.
const (
	OptedInFilter    CohortFilter = "opted-in"
	NotOptedInFilter CohortFilter = "not-opted-in"
	DraftFilter      CohortFilter = "draft"
	NotDraftFilter   CohortFilter = "not-draft"
)

// Dimensions supported by the query builder.
const (
	CommentsDimension               Dimension = "comments"
	ReviewsDimension                Dimension = "reviews"
	UnacknowledgedRequestsDimension Dimension = "unacknowledged-requests"
	TimeToApprovalDimension         Dimension = "time-to-approval"
	TimeToMergeDimension            Dimension = "time-to-merge"
)

// Evaluation import formats.
const (
	CSVFormat  EvaluationFormat = "csv" // default
	JSONFormat EvaluationFormat = "json"
)

// ReadyForReviewEventType is the timeline typename of a ready-for-review marker.
const ReadyForReviewEventType = "ReadyForReviewEvent"

// DefaultPrimaryAlias labels the score column when no override is given.
const DefaultPrimaryAlias = "sizeup score"

// AllStatTypes returns the routine-backed stat types in execution order.
var AllStatTypes = []StatType{ReviewEngagementStat, DeliveryStat, EffectivenessStat}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
}

// ValidStatTypes lists all valid stat types.
var ValidStatTypes = map[StatType]struct{}{
	ReviewEngagementStat: {},
	DeliveryStat:         {},
	EffectivenessStat:    {},
	AllStats:             {},
}

// ValidRendererKinds lists all valid renderers.
var ValidRendererKinds = map[RendererKind]struct{}{
	UPlotRenderer: {},
	TableRenderer: {},
}

// ValidEvaluationFormats lists all valid import formats.
var ValidEvaluationFormats = map[EvaluationFormat]struct{}{
	CSVFormat:  {},
	JSONFormat: {},
}
