// Package common provides shared types and utilities used across SRouterTools.
package common

import (
	"net/http"
)

// Middleware is a function that wraps an http.Handler.
// Middlewares run around the router's dispatch, outside of any route handler,
// and can be chained together with MiddlewareChain.
type Middleware func(http.Handler) http.Handler
