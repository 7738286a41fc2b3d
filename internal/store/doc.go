// Package store defines the persistence interfaces and sentinel errors used
// by the service and API layers. Implementations live under
// internal/platform; callers depend only on these interfaces so stores can
// be swapped for fakes in tests.
package store
