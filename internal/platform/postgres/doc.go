// Package postgres implements the store interfaces on PostgreSQL via
// database/sql with the pgx stdlib driver.
package postgres
