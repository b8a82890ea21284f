// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It adapts the operator cycle trigger and the
// member group endpoints onto the matching and membership services.
package api
