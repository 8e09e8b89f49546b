package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

type feedbackRequest struct {
	FileName  string `json:"fileName"`
	Issue     string `json:"issue"`
	PDFBase64 string `json:"pdfBase64"`
}

func (rt *Router) submitFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Issue) == "" {
		writeJSONError(w, http.StatusBadRequest, "issue is required")
		return
	}

	pdfBytes, err := base64.StdEncoding.DecodeString(req.PDFBase64)
	if err != nil || len(pdfBytes) == 0 {
		writeJSONError(w, http.StatusBadRequest, "pdfBase64 is not valid base64")
		return
	}

	report, err := rt.feedbackUC.Submit(r.Context(), req.FileName, req.Issue, pdfBytes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordFeedback(rt.service, "submitted")
	}
	writeJSON(w, http.StatusAccepted, report)
}
