package report

import (
	"time"

	"github.com/pestline/pestline/domain/repository"
)

// WithKind filters by the "kind" column.
func WithKind(kind Kind) repository.Option {
	return repository.WithCondition("kind", string(kind))
}

// WithReference filters by the "reference" column.
func WithReference(reference string) repository.Option {
	return repository.WithCondition("reference", reference)
}

// WithClientName matches reports whose client name contains name.
func WithClientName(name string) repository.Option {
	return repository.WithContains("client_name", name)
}

// WithServicedFrom filters reports serviced on or after t.
func WithServicedFrom(t time.Time) repository.Option {
	return repository.WithFrom("service_date", t.UTC())
}

// WithServicedBefore filters reports serviced before t.
func WithServicedBefore(t time.Time) repository.Option {
	return repository.WithBefore("service_date", t.UTC())
}
