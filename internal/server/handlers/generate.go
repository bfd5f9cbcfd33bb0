// Package handlers provides HTTP request handlers for the jwpedit API.
//
// Handlers are organized by domain:
//
//   - sessions.go: sign-in and sign-out
//   - rows.go: the agency-scoped view and save
//   - admin.go: full table, audit log, CSV export and cache control
//   - health.go: liveness and readiness checks
//   - realtime.go: Server-Sent Events
//
// Handlers receive every dependency through the Handlers struct.
package handlers

//go:generate gomarkdoc --output README.md .
