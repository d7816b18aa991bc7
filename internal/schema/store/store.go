package store

import (
	"context"

	id "veriform/pkg/domain"
)

// Source provides raw schema text per service. Implementations return
// sentinel.ErrNotFound when no schema row exists for the service; a row with
// broken JSON is the registry's problem, not the source's.
type Source interface {
	Fetch(ctx context.Context, serviceID id.ServiceID) (string, error)
	Services(ctx context.Context) ([]id.ServiceID, error)
}
