// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing normalized requests (messages, tool parts,
// generation config). These helpers are intentionally minimal and not
// intended for production usage.
package testutil
