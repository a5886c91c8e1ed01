package domain

// Operator is a filter comparison operator. The set is closed: anything
// else coming back from the language model is dropped during validation.
type Operator string

const (
	OpEq    Operator = "eq"
	OpGt    Operator = "gt"
	OpGte   Operator = "gte"
	OpLt    Operator = "lt"
	OpLte   Operator = "lte"
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
)

// ValidOperator reports whether op is one of the closed operator set.
func ValidOperator(op Operator) bool {
	switch op {
	case OpEq, OpGt, OpGte, OpLt, OpLte, OpLike, OpILike:
		return true
	}
	return false
}

// AggType is an aggregation kind. Closed enum, same rule as Operator.
type AggType string

const (
	AggCount         AggType = "count"
	AggCountDistinct AggType = "countDistinct"
	AggSum           AggType = "sum"
	AggAvg           AggType = "avg"
)

// ValidAggType reports whether t is one of the closed aggregation set.
func ValidAggType(t AggType) bool {
	switch t {
	case AggCount, AggCountDistinct, AggSum, AggAvg:
		return true
	}
	return false
}

// Filter is one predicate of a plan: column op value.
type Filter struct {
	Column string   `json:"column"`
	Op     Operator `json:"operator"`
	Value  string   `json:"value"`
}

// Ordering describes the requested sort.
type Ordering struct {
	Column    string `json:"column"`
	Ascending bool   `json:"ascending"`
}

// Aggregation describes an aggregate request. GroupBy is empty for
// ungrouped aggregates.
type Aggregation struct {
	Type    AggType `json:"type"`
	Column  string  `json:"column"`
	GroupBy string  `json:"groupBy"`
}

// Plan is the validated, structured description of one query, derived
// from a natural-language question. It is built fresh per request and
// discarded once the answer is produced.
type Plan struct {
	Select      []string     `json:"select"` // nil means all columns
	Filters     []Filter     `json:"filters"`
	Order       *Ordering    `json:"order"`
	Random      bool         `json:"random"`
	Limit       int          `json:"limit"`
	Aggregation *Aggregation `json:"aggregation"`
}

const (
	// DefaultPlanLimit is the limit of the fallback plan used when the
	// model output cannot be parsed.
	DefaultPlanLimit = 20
	// DefaultLimit applies when a parsed plan carries no usable limit.
	DefaultLimit = 50
	// MaxResultRows caps every final result set.
	MaxResultRows = 100
)

// DefaultPlan returns the permissive fallback plan: select everything,
// no filters, a small limit. It is the recovery path for any malformed
// planner output.
func DefaultPlan() Plan {
	return Plan{Limit: DefaultPlanLimit}
}
