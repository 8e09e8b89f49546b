package httpadapter

import (
	"context"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/kirillkom/bank-statement-extractor/api"
)

var (
	openAPIOnce sync.Once
	openAPIJSON []byte
	openAPIErr  error
)

// LoadOpenAPIDocument parses and validates the embedded API description.
// Called once at startup so a malformed document fails the boot instead of
// the first /openapi.json request.
func LoadOpenAPIDocument(ctx context.Context) error {
	openAPIOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(api.OpenAPISpec)
		if err != nil {
			openAPIErr = err
			return
		}
		if err := doc.Validate(ctx); err != nil {
			openAPIErr = err
			return
		}
		openAPIJSON, openAPIErr = doc.MarshalJSON()
	})
	return openAPIErr
}

func (rt *Router) openAPIDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := LoadOpenAPIDocument(r.Context()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIJSON)
}
