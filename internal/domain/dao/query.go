package dao

// Operator is a comparison used in a Condition.
type Operator string

const (
	OpEq    Operator = "$eq"
	OpNe    Operator = "$ne"
	OpIn    Operator = "$in"
	OpNotIn Operator = "$nin"
	OpGt    Operator = "$gt"
	OpGte   Operator = "$gte"
	OpLt    Operator = "$lt"
	OpLte   Operator = "$lte"
)

// Condition restricts a single field.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// SortField orders results by Field.
type SortField struct {
	Field      string
	Descending bool
}

// Query is a conjunction of conditions with ordering and pagination.
// A nil *Query matches every document.
type Query struct {
	Conditions []Condition
	Sort       []SortField
	Limit      int
	Offset     int
}

// NewQuery creates an empty query.
func NewQuery() *Query {
	return &Query{}
}

// Where appends a condition.
func (q *Query) Where(field string, op Operator, value any) *Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: op, Value: value})
	return q
}

// Eq matches field == value.
func (q *Query) Eq(field string, value any) *Query {
	return q.Where(field, OpEq, value)
}

// Ne matches field != value.
func (q *Query) Ne(field string, value any) *Query {
	return q.Where(field, OpNe, value)
}

// In matches field against a set of values. Callers must not pass an empty
// set; see HasEmptyMembership.
func (q *Query) In(field string, values []string) *Query {
	return q.Where(field, OpIn, values)
}

// NotIn excludes a set of values.
func (q *Query) NotIn(field string, values []string) *Query {
	return q.Where(field, OpNotIn, values)
}

// OrderBy appends a sort key.
func (q *Query) OrderBy(field string, descending bool) *Query {
	q.Sort = append(q.Sort, SortField{Field: field, Descending: descending})
	return q
}

// WithLimit caps the number of results. Zero means unlimited.
func (q *Query) WithLimit(n int) *Query {
	q.Limit = n
	return q
}

// WithOffset skips the first n results.
func (q *Query) WithOffset(n int) *Query {
	q.Offset = n
	return q
}

// HasEmptyMembership reports whether an $in condition has no values, in
// which case the query can match nothing and should not be sent.
func (q *Query) HasEmptyMembership() bool {
	if q == nil {
		return false
	}
	for _, c := range q.Conditions {
		if c.Op != OpIn {
			continue
		}
		if values, ok := c.Value.([]string); ok && len(values) == 0 {
			return true
		}
	}
	return false
}
