// Package service contains the application use cases: authentication,
// projects, tasks, notes and attachments. It orchestrates domain objects and
// the store interfaces defined in internal/store.
//
// Every operation takes the acting user's ID as an explicit argument. Access
// decisions use the pure predicates in internal/domain; a false result becomes
// ErrAccessDenied. Operations that check access and then mutate run inside
// store.RunInTransaction and read the checked rows with a ...ForUpdate method,
// so the decision and the write see the same locked state.
//
// Errors from the store keep their sentinel identity (store.ErrNotFound,
// store.ErrDuplicate, domain.ErrValidation) through %w wrapping; the API layer
// maps them to HTTP status codes.
package service
