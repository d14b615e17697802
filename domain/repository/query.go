// Package repository provides the query options and store contracts shared by
// the domain packages.
package repository

import "fmt"

// Option applies a modification to a Query.
type Option func(Query) Query

// Query holds the filters, ordering and paging of a store lookup.
type Query struct {
	conditions []Condition
	orders     []Order
	limit      int
	offset     int
}

// Build creates a Query from a set of options.
func Build(options ...Option) Query {
	var q Query
	for _, opt := range options {
		q = opt(q)
	}
	return q
}

// Conditions returns a copy of the query conditions.
func (q Query) Conditions() []Condition { return append([]Condition(nil), q.conditions...) }

// Orders returns a copy of the ordering, first key first.
func (q Query) Orders() []Order { return append([]Order(nil), q.orders...) }

// LimitValue returns the limit. Zero means no limit.
func (q Query) LimitValue() int { return q.limit }

// OffsetValue returns the number of rows to skip.
func (q Query) OffsetValue() int { return q.offset }

// Operator is the comparison a Condition applies.
type Operator int

// Operator values.
const (
	OpEqual Operator = iota
	OpIn
	OpContains
	OpGreaterOrEqual
	OpLess
)

var operatorSQL = map[Operator]string{
	OpEqual:          "=",
	OpIn:             "IN",
	OpContains:       "LIKE",
	OpGreaterOrEqual: ">=",
	OpLess:           "<",
}

// String returns the SQL form of the operator.
func (o Operator) String() string {
	if s, ok := operatorSQL[o]; ok {
		return s
	}
	return "="
}

// Condition compares one column against a value.
type Condition struct {
	field string
	op    Operator
	value any
}

// Field returns the column name.
func (c Condition) Field() string { return c.field }

// Operator returns the comparison applied.
func (c Condition) Operator() Operator { return c.op }

// Value returns the operand. For OpIn it is a slice.
func (c Condition) Value() any { return c.value }

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.field, c.op, c.value)
}

// Order is one sort key.
type Order struct {
	field     string
	ascending bool
}

// Field returns the column name.
func (o Order) Field() string { return o.field }

// Ascending reports whether the key sorts ascending.
func (o Order) Ascending() bool { return o.ascending }

func where(field string, op Operator, value any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{field: field, op: op, value: value})
		return q
	}
}

func orderBy(field string, ascending bool) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, Order{field: field, ascending: ascending})
		return q
	}
}

// WithCondition adds a field = value condition. Domain packages build their
// typed options on it.
func WithCondition(field string, value any) Option { return where(field, OpEqual, value) }

// WithConditionIn adds a field IN (values) condition.
func WithConditionIn(field string, values any) Option { return where(field, OpIn, values) }

// WithContains adds a case-sensitive substring match on a text field.
func WithContains(field, substr string) Option { return where(field, OpContains, substr) }

// WithFrom adds a field >= value condition.
func WithFrom(field string, value any) Option { return where(field, OpGreaterOrEqual, value) }

// WithBefore adds a field < value condition.
func WithBefore(field string, value any) Option { return where(field, OpLess, value) }

// WithID filters by the "id" column.
func WithID(id int64) Option { return WithCondition("id", id) }

// WithOrderAsc sorts ascending on field after any earlier keys.
func WithOrderAsc(field string) Option { return orderBy(field, true) }

// WithOrderDesc sorts descending on field after any earlier keys.
func WithOrderDesc(field string) Option { return orderBy(field, false) }

// WithLimit sets the maximum number of results.
func WithLimit(n int) Option {
	return func(q Query) Query {
		q.limit = n
		return q
	}
}

// WithOffset sets the number of results to skip.
func WithOffset(n int) Option {
	return func(q Query) Query {
		q.offset = n
		return q
	}
}

// WithPagination returns limit and offset options.
func WithPagination(limit, offset int) []Option {
	return []Option{WithLimit(limit), WithOffset(offset)}
}
