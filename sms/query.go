package sms

import "strings"

const (
	// MinLimit is the smallest row limit a query is built with.
	MinLimit = 1
	// MaxLimit is the largest row limit a query is built with.
	MaxLimit = 100
)

// Field names a filterable message column.
type Field string

const (
	FieldBody    Field = "body"
	FieldAddress Field = "address"
	FieldDate    Field = "date"
)

// Predicate is a substring match: Field LIKE %Value%.
type Predicate struct {
	Field Field
	Value string
}

// Pattern returns the LIKE pattern for the predicate.
func (p Predicate) Pattern() string {
	return "%" + p.Value + "%"
}

// Order is the row ordering of a query.
type Order struct {
	Field      Field
	Descending bool
}

// QuerySpec is a fully specified, bounded provider query.
//
// Predicates are ANDed in slice order. Limit is always within
// [MinLimit, MaxLimit].
type QuerySpec struct {
	Box        Box
	Predicates []Predicate
	Order      Order
	Limit      int
}

// Where renders the predicates as a SQL condition with positional bind
// parameters. It returns an empty condition when there are no predicates.
func (q QuerySpec) Where() (string, []any) {
	if len(q.Predicates) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(q.Predicates))
	args := make([]any, 0, len(q.Predicates))
	for _, p := range q.Predicates {
		clauses = append(clauses, string(p.Field)+" LIKE ?")
		args = append(args, p.Pattern())
	}
	return strings.Join(clauses, " AND "), args
}

// BuildQuery turns a filter and a requested row count into a QuerySpec.
//
// It never fails: unknown boxes read the inbox and the count is clamped to
// [MinLimit, MaxLimit].
func BuildQuery(filter Filter, count int) QuerySpec {
	spec := QuerySpec{
		Box:   ParseBox(string(filter.Box)),
		Order: Order{Field: FieldDate, Descending: true},
		Limit: clampLimit(count),
	}
	if filter.Search != "" {
		spec.Predicates = append(spec.Predicates, Predicate{Field: FieldBody, Value: filter.Search})
	}
	if filter.Address != "" {
		spec.Predicates = append(spec.Predicates, Predicate{Field: FieldAddress, Value: filter.Address})
	}
	return spec
}

func clampLimit(count int) int {
	if count < MinLimit {
		return MinLimit
	}
	if count > MaxLimit {
		return MaxLimit
	}
	return count
}
