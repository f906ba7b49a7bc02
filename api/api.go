// Package api embeds the OpenAPI description of the backend endpoints
// consumed by the client and validates requests against it.
package api

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

//go:embed backend.yaml
var document []byte

// Raw returns the embedded OpenAPI document.
func Raw() []byte {
	out := make([]byte, len(document))
	copy(out, document)
	return out
}

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}

// Validator checks incoming requests against the backend contract.
type Validator struct {
	router routers.Router
}

// NewValidator builds a Validator over the embedded document.
func NewValidator(ctx context.Context) (*Validator, error) {
	doc, err := Load(ctx)
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}
	return &Validator{router: router}, nil
}

// Validate returns an error if req is not a valid call of a documented operation.
// The request body is restored so handlers can still read it.
func (v *Validator) Validate(req *http.Request) error {
	route, params, err := v.router.FindRoute(req)
	if err != nil {
		return fmt.Errorf("undocumented request %s %s: %w", req.Method, req.URL.Path, err)
	}
	input := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: params,
		Route:      route,
	}
	if err := openapi3filter.ValidateRequest(req.Context(), input); err != nil {
		return fmt.Errorf("request %s %s violates contract: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
