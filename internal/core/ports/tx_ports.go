package ports

import "context"

// Transactor runs fn inside a store transaction. Repositories called with
// the context passed to fn take part in that transaction; it commits only if
// fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
