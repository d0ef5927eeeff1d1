// Package authz enforces the caller identity and role gate at the HTTP
// boundary.
//
// Identity resolves the session key header to a user once per request;
// RequireRole checks the user's role against an allowed set before any
// domain logic executes. Services below the boundary trust the acting user
// id they receive and never re-derive permissions.
package authz
