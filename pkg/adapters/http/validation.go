package http

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
)

// validated checks the request against the operation declared for path in
// the OpenAPI document before calling next.
func (s *Server) validated(path string, next http.HandlerFunc) http.HandlerFunc {
	item := s.doc.Paths.Value(path)
	return func(w http.ResponseWriter, r *http.Request) {
		if item == nil {
			next(w, r)
			return
		}
		op := item.GetOperation(r.Method)
		if op == nil {
			next(w, r)
			return
		}

		params := make(map[string]string)
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				params[key] = rctx.URLParams.Values[i]
			}
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route: &routers.Route{
				Spec:      s.doc,
				Path:      path,
				PathItem:  item,
				Method:    r.Method,
				Operation: op,
			},
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			s.logger.Warn("request rejected", "path", path, "method", r.Method, "err", err)
			writeError(w, http.StatusBadRequest, fmt.Errorf("request validation failed: %w", err))
			return
		}
		next(w, r)
	}
}
