// Package postgres implements the store interfaces against PostgreSQL
// using database/sql over the pgx driver.
package postgres
