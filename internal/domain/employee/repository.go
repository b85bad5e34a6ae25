package employee

import "context"

// Repository is read-only here: employee CRUD belongs to the profile
// collaborator, the engine only resolves identity and timezone.
type Repository interface {
	GetByID(ctx context.Context, id string) (Employee, error)

	// ListActive returns every active employee, ordered by id ascending.
	ListActive(ctx context.Context) ([]Employee, error)

	// Search finds active employees whose name or code contains the query,
	// case-insensitively. An empty query matches nothing.
	Search(ctx context.Context, query string) ([]Employee, error)
}
