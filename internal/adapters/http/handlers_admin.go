package httpadapter

import (
	"net/http"
	"strings"
)

func (rt *Router) listTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	templates, err := rt.templates.ListTemplates(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (rt *Router) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/admin/templates/")
	if id == "" || strings.Contains(id, "/") {
		writeJSONError(w, http.StatusBadRequest, "template id is required")
		return
	}
	if err := rt.templates.DeleteTemplate(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (rt *Router) listFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	reports, err := rt.feedbackUC.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

// feedbackAction dispatches POST /v1/admin/feedback/{id}/{analyze|resolve|dismiss}.
func (rt *Router) feedbackAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/v1/admin/feedback/")
	id, action, ok := strings.Cut(rest, "/")
	if !ok || id == "" {
		writeJSONError(w, http.StatusBadRequest, "expected /v1/admin/feedback/{id}/{action}")
		return
	}

	switch action {
	case "analyze":
		if err := rt.feedbackUC.RequestAnalysis(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "analysis_queued"})
	case "resolve":
		template, err := rt.feedbackUC.Resolve(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if rt.metrics != nil {
			rt.metrics.RecordFeedback(rt.service, "resolved")
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "template": template})
	case "dismiss":
		if err := rt.feedbackUC.Dismiss(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		if rt.metrics != nil {
			rt.metrics.RecordFeedback(rt.service, "dismissed")
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "DISMISSED"})
	default:
		writeJSONError(w, http.StatusNotFound, "unknown action")
	}
}
