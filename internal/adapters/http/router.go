package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
	"github.com/kirillkom/bank-statement-extractor/internal/observability/metrics"
)

type Router struct {
	service    string
	adminToken string

	extractUC  ports.StatementExtractor
	bulkUC     ports.BulkExtractor
	templates  ports.TemplateAdmin
	feedbackUC ports.FeedbackService

	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	service string,
	adminToken string,
	extractUC ports.StatementExtractor,
	bulkUC ports.BulkExtractor,
	templates ports.TemplateAdmin,
	feedbackUC ports.FeedbackService,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		service:    service,
		adminToken: adminToken,
		extractUC:  extractUC,
		bulkUC:     bulkUC,
		templates:  templates,
		feedbackUC: feedbackUC,
		metrics:    serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/openapi.json", rt.openAPIDocument)
	mux.HandleFunc("/v1/statements/extract", rt.extractStatements)
	mux.HandleFunc("/v1/feedback", rt.submitFeedback)

	admin := http.NewServeMux()
	admin.HandleFunc("/v1/admin/templates", rt.listTemplates)
	admin.HandleFunc("/v1/admin/templates/", rt.deleteTemplate)
	admin.HandleFunc("/v1/admin/feedback", rt.listFeedback)
	admin.HandleFunc("/v1/admin/feedback/", rt.feedbackAction)
	mux.Handle("/v1/admin/", rt.adminAuthMiddleware(admin))

	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeJSONError(w, mapErrorToHTTPStatus(err), err.Error())
}
