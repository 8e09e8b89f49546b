package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
)

// A document with more text than this that still yields zero transactions
// from the template path is escalated to the VLM.
const substantialTextChars = 200

// ExtractUseCase sequences one PDF through parse, bank identification,
// template-vs-VLM routing, validation, and template persistence. Newly
// learned templates are the only durable output; statement content never is.
type ExtractUseCase struct {
	parser    ports.DocumentParser
	templates *TemplateManager
	extractor *TemplateExtractor
	validator *Validator
	vision    ports.VisionExtractor
}

func NewExtractUseCase(
	parser ports.DocumentParser,
	templates *TemplateManager,
	extractor *TemplateExtractor,
	validator *Validator,
	vision ports.VisionExtractor,
) *ExtractUseCase {
	return &ExtractUseCase{
		parser:    parser,
		templates: templates,
		extractor: extractor,
		validator: validator,
		vision:    vision,
	}
}

// Extract never returns an error: any failure, including a panic anywhere in
// the pipeline, becomes a failure result. One bad input must not take the
// process down.
func (uc *ExtractUseCase) Extract(ctx context.Context, pdfBytes []byte, fileName, password string) (result *domain.ExtractionResult) {
	started := time.Now()
	result = &domain.ExtractionResult{FileName: fileName, Errors: []string{}}
	defer func() {
		result.ElapsedMS = time.Since(started).Milliseconds()
		if r := recover(); r != nil {
			slog.Error("extraction_panic", "file", fileName, "panic", r)
			result.Success = false
			result.Statement = nil
			result.Errors = []string{fmt.Sprintf("internal error: %v", r)}
		}
	}()

	doc, err := uc.parser.Parse(ctx, pdfBytes, password)
	switch {
	case domain.IsKind(err, domain.ErrPDFEncrypted):
		result.Errors = append(result.Errors, domain.ErrPDFEncrypted.Error())
		return result
	case domain.IsKind(err, domain.ErrDecryptionFailed):
		result.Errors = append(result.Errors, domain.ErrDecryptionFailed.Error())
		return result
	case err != nil:
		// No structured data; the VLM path can still read the raw bytes.
		slog.Warn("pdf_parse_failed", "file", fileName, "error", err)
		doc = nil
	}

	var (
		statement *domain.ExtractedStatement
		method    domain.ExtractionMethod
		tpl       *domain.Template
	)

	if doc != nil {
		if bank := IdentifyBank(doc.FullText, nil); bank != nil {
			tpl, err = uc.templates.Find(ctx, *bank, "")
			if err != nil {
				slog.Warn("template_lookup_failed", "bank", *bank, "error", err)
				tpl = nil
			}
		}
		if tpl != nil {
			candidate := uc.extractor.Extract(doc, tpl)
			if len(candidate.Transactions) == 0 && len(doc.FullText) > substantialTextChars {
				// Implausible yield on a non-trivial document: escalate.
				candidate = nil
			}
			if candidate != nil {
				statement = candidate
				method = domain.MethodTemplate
			}
		}
	}

	templateID := ""
	if tpl != nil {
		templateID = tpl.ID
	}

	if statement == nil {
		vis, visErr := uc.vision.Extract(ctx, pdfBytes, "")
		if visErr != nil || vis == nil || vis.Statement == nil {
			msg := "extraction failed: no template matched and all vision models were exhausted"
			if visErr != nil {
				msg = fmt.Sprintf("extraction failed: %v", visErr)
			}
			result.Errors = append(result.Errors, msg)
			return result
		}
		statement = vis.Statement
		method = domain.MethodVLM
		if doc != nil && statement.RawText == "" {
			statement.RawText = doc.FullText
		}
		if statement.BankName != nil {
			accountType := ""
			if statement.AccountType != nil {
				accountType = *statement.AccountType
			}
			// Best effort: the response does not depend on the template save.
			saved, saveErr := uc.templates.Save(ctx, *statement.BankName, accountType, vis.Patterns, vis.Mapping)
			if saveErr != nil {
				slog.Warn("template_save_failed", "bank", *statement.BankName, "error", saveErr)
			} else {
				templateID = saved.ID
			}
		}
	}

	pageCount := 0
	if doc != nil {
		pageCount = doc.PageCount
	}
	validation := uc.validator.Validate(statement, pageCount)

	if templateID != "" {
		uc.templates.RecordUsage(ctx, templateID, validation.Balance.Passed)
	}

	statement.RawText = ""
	result.Success = true
	result.Statement = statement
	result.Validation = validation
	result.ExtractionMethod = method
	result.TemplateID = templateID
	return result
}
