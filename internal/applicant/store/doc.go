// Package store holds the applicant registry implementations: in-memory,
// Postgres, and a Redis read-through cache that fronts either.
package store
