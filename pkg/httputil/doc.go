// Package httputil provides the HTTP plumbing shared by all handlers:
// JSON response helpers, query parsing, and the logging / recovery /
// request-id middleware chain.
package httputil
