// Package storage defines the user record consulted during authentication
// and the UserStore contract implemented by the storage adapters.
//
// Adapters (memory, postgres) live in subpackages. Lookups are
// exact-match on the username; the authentication gate never creates or
// mutates users, only the registration command does.
package storage
