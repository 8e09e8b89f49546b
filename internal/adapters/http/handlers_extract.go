package httpadapter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
	"github.com/kirillkom/bank-statement-extractor/internal/export/excel"
)

type extractFilePayload struct {
	FileName  string `json:"fileName"`
	PDFBase64 string `json:"pdfBase64"`
}

type extractRequest struct {
	extractFilePayload
	Files    []extractFilePayload `json:"files"`
	Password string               `json:"password"`
}

// extractStatements handles both single-file and batch extraction. A request
// carrying a "files" array is processed as a batch; otherwise the top-level
// fileName/pdfBase64 pair is treated as a single document. ?format=xlsx
// returns the batch result as a spreadsheet instead of JSON.
func (rt *Router) extractStatements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if len(req.Files) == 0 {
		if req.PDFBase64 == "" {
			writeJSONError(w, http.StatusBadRequest, "either 'files' or 'pdfBase64' is required")
			return
		}
		req.Files = []extractFilePayload{req.extractFilePayload}
	}

	files := make([]ports.BatchFile, 0, len(req.Files))
	for i, f := range req.Files {
		pdfBytes, err := base64.StdEncoding.DecodeString(f.PDFBase64)
		if err != nil || len(pdfBytes) == 0 {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("files[%d]: pdfBase64 is not valid base64", i))
			return
		}
		files = append(files, ports.BatchFile{FileName: f.FileName, PDFBytes: pdfBytes})
	}

	start := time.Now()
	batch := rt.bulkUC.ExtractBatch(r.Context(), files, req.Password)
	rt.recordExtractionMetrics(batch, time.Since(start))

	if r.URL.Query().Get("format") == "xlsx" {
		rt.writeXLSX(w, batch)
		return
	}

	if len(files) == 1 && len(batch.Results) == 1 {
		writeJSON(w, http.StatusOK, batch.Results[0])
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (rt *Router) writeXLSX(w http.ResponseWriter, batch *domain.BatchResult) {
	workbook, err := excel.BuildWorkbook(batch)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer workbook.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="statements.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_ = workbook.Write(w)
}

func (rt *Router) recordExtractionMetrics(batch *domain.BatchResult, elapsed time.Duration) {
	if rt.metrics == nil {
		return
	}
	perDoc := elapsed
	if len(batch.Results) > 0 {
		perDoc = elapsed / time.Duration(len(batch.Results))
	}
	for _, res := range batch.Results {
		transactions := 0
		if res.Statement != nil {
			transactions = len(res.Statement.Transactions)
		}
		rt.metrics.RecordExtraction(rt.service, string(res.ExtractionMethod), res.Success, transactions, perDoc)
		if res.Validation == nil {
			continue
		}
		if !res.Validation.Balance.Passed {
			rt.metrics.RecordValidationFailure(rt.service, "balance")
		}
		if !res.Validation.DateContinuity.Passed {
			rt.metrics.RecordValidationFailure(rt.service, "date_continuity")
		}
		if !res.Validation.PageContinuity.Passed {
			rt.metrics.RecordValidationFailure(rt.service, "page_continuity")
		}
	}
}
