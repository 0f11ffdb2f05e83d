package httpadapter

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

//go:embed openapi.yaml
var openAPISpec []byte

// Contract is the loaded API description used to validate JSON requests.
type Contract struct {
	doc    *openapi3.T
	router routers.Router
	raw    []byte
}

func LoadContract(ctx context.Context) (*Contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi contract: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build openapi router: %w", err)
	}
	return &Contract{doc: doc, router: router, raw: openAPISpec}, nil
}

func (c *Contract) Version() string {
	return c.doc.Info.Version
}

func (c *Contract) serveSpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.raw)
}

// validateRequest checks the request against its operation. Requests for
// paths the contract does not describe pass through.
func (c *Contract) validateRequest(r *http.Request) error {
	route, pathParams, err := c.router.FindRoute(r)
	if err != nil {
		return nil
	}
	return openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	})
}

func (c *Contract) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := c.validateRequest(r); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request does not match API contract: " + err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}
