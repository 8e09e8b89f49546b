package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
)

// TemplateManager is the CRUD + fuzzy-match layer over persisted templates,
// keyed by the normalized (uppercased, trimmed) bank name and an optional
// account type.
type TemplateManager struct {
	repo ports.TemplateRepository
}

func NewTemplateManager(repo ports.TemplateRepository) *TemplateManager {
	return &TemplateManager{repo: repo}
}

// Save upserts a template for (bank, account type): on a second call for the
// same key the patterns and column mapping are overwritten and updatedAt
// refreshed, never duplicated.
func (m *TemplateManager) Save(ctx context.Context, bankName, accountType string, patterns domain.TemplatePatterns, mapping domain.ColumnMapping) (*domain.Template, error) {
	key := domain.NormalizeBankName(bankName)
	if key == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "save template", fmt.Errorf("empty bank name"))
	}
	tpl, err := m.repo.Upsert(ctx, key, accountType, patterns, mapping)
	if err != nil {
		return nil, fmt.Errorf("upsert template: %w", err)
	}
	return tpl, nil
}

// Find resolves a template for a bank in four stages: exact (bank, account
// type), then (bank, no account type), then the most-used template for that
// bank, then a fuzzy pass accepting the first stored bank name whose
// normalized form contains or is contained by the query. Returns nil when
// every stage misses.
func (m *TemplateManager) Find(ctx context.Context, bankName, accountType string) (*domain.Template, error) {
	key := domain.NormalizeBankName(bankName)
	if key == "" {
		return nil, nil
	}

	if accountType != "" {
		tpl, err := m.repo.Find(ctx, key, accountType)
		if err != nil && !domain.IsKind(err, domain.ErrTemplateNotFound) {
			return nil, err
		}
		if tpl != nil {
			return tpl, nil
		}
	}

	tpl, err := m.repo.Find(ctx, key, "")
	if err != nil && !domain.IsKind(err, domain.ErrTemplateNotFound) {
		return nil, err
	}
	if tpl != nil {
		return tpl, nil
	}

	candidates, err := m.repo.FindByBank(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.TimesUsed > best.TimesUsed {
				best = c
			}
		}
		return &best, nil
	}

	return m.fuzzyFind(ctx, key)
}

func (m *TemplateManager) fuzzyFind(ctx context.Context, key string) (*domain.Template, error) {
	all, err := m.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, tpl := range all {
		stored := domain.NormalizeBankName(tpl.BankName)
		if stored == "" {
			continue
		}
		if strings.Contains(stored, key) || strings.Contains(key, stored) {
			t := tpl
			return &t, nil
		}
	}
	return nil, nil
}

// RecordUsage folds one success/failure observation into a template's running
// success rate: newRate = (rate*used + s) / (used+1), then increments the
// usage counter. Old and new evidence weigh equally by count.
func (m *TemplateManager) RecordUsage(ctx context.Context, id string, success bool) {
	if err := m.repo.UpdateStats(ctx, id, success); err != nil {
		slog.Warn("template_stats_update_failed", "template_id", id, "error", err)
	}
}

// ListTemplates returns every stored template for the admin surface.
func (m *TemplateManager) ListTemplates(ctx context.Context) ([]domain.Template, error) {
	return m.repo.ListAll(ctx)
}

// DeleteTemplate removes a template by id.
func (m *TemplateManager) DeleteTemplate(ctx context.Context, id string) error {
	return m.repo.Delete(ctx, id)
}
