// Package api defines the wire types of the accolade authentication API:
// login and registration requests, the user views returned to clients,
// the fixed-shape failure body, request validation, and user key
// generation.
//
// The package performs no I/O. All types produce camelCase JSON.
package api
