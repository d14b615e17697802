package repository

// Page defaults.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// WithPage returns limit and offset options for a 1-based page number.
// Out-of-range values fall back to the first page and DefaultPageSize;
// sizes above MaxPageSize are capped.
func WithPage(page, size int) []Option {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return WithPagination(size, (page-1)*size)
}

// WithNewestFirst orders by the "created_at" column, newest first, with
// "id" as a tie breaker.
func WithNewestFirst() []Option {
	return []Option{WithOrderDesc("created_at"), WithOrderDesc("id")}
}

// ConditionsOnly keeps only the condition-carrying options of a query, so a
// paginated listing can be counted with the same filters.
func ConditionsOnly(options ...Option) Option {
	q := Build(options...)
	return func(dst Query) Query {
		dst.conditions = append(dst.conditions, q.conditions...)
		return dst
	}
}
