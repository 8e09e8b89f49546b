package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
	"github.com/kirillkom/bank-statement-extractor/internal/core/ports"
)

// BulkUseCase runs the orchestrator over many files with a small concurrency
// cap and checks closing-to-opening balance continuity per account. Grouping
// re-sorts by statement start date, so interleaved completion order is fine.
type BulkUseCase struct {
	extract     ports.StatementExtractor
	concurrency int
}

func NewBulkUseCase(extract ports.StatementExtractor, concurrency int) *BulkUseCase {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &BulkUseCase{extract: extract, concurrency: concurrency}
}

func (uc *BulkUseCase) ExtractBatch(ctx context.Context, files []ports.BatchFile, password string) *domain.BatchResult {
	results := make([]domain.ExtractionResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, f := range files {
		g.Go(func() error {
			results[i] = *uc.extract.Extract(gctx, f.PDFBytes, f.FileName, password)
			return nil
		})
	}
	// Workers never return errors; failures are per-file results.
	_ = g.Wait()

	batch := &domain.BatchResult{Results: results, Groups: []domain.AccountGroup{}}
	for i := range results {
		if results[i].Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}

	groups := groupByAccount(results)
	for _, key := range sortedGroupKeys(groups) {
		idxs := groups[key]
		batch.Groups = append(batch.Groups, domain.AccountGroup{
			BankName:      key.bank,
			AccountNumber: key.account,
			Count:         len(idxs),
		})
		annotateContinuity(results, idxs)
	}
	return batch
}

type groupKey struct {
	bank    string
	account string
}

func groupByAccount(results []domain.ExtractionResult) map[groupKey][]int {
	groups := map[groupKey][]int{}
	for i := range results {
		r := &results[i]
		if !r.Success || r.Statement == nil || r.Statement.BankName == nil || r.Statement.AccountNumber == nil {
			continue
		}
		key := groupKey{
			bank:    domain.NormalizeBankName(*r.Statement.BankName),
			account: *r.Statement.AccountNumber,
		}
		groups[key] = append(groups[key], i)
	}
	return groups
}

func sortedGroupKeys(groups map[groupKey][]int) []groupKey {
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].bank != keys[j].bank {
			return keys[i].bank < keys[j].bank
		}
		return keys[i].account < keys[j].account
	})
	return keys
}

// annotateContinuity sorts one account's statements by period start and, for
// each adjacent pair, appends a warning to the LATER statement's error list
// when the previous closing balance does not match the current opening
// balance. A warning annotation, not an extraction failure.
func annotateContinuity(results []domain.ExtractionResult, idxs []int) {
	sorted := make([]int, len(idxs))
	copy(sorted, idxs)
	sort.SliceStable(sorted, func(a, b int) bool {
		fa := results[sorted[a]].Statement.StatementPeriod.From
		fb := results[sorted[b]].Statement.StatementPeriod.From
		if fa == nil {
			return false
		}
		if fb == nil {
			return true
		}
		return fa.Before(*fb)
	})

	for i := 1; i < len(sorted); i++ {
		prev := results[sorted[i-1]].Statement
		cur := results[sorted[i]].Statement
		if math.Abs(prev.ClosingBalance-cur.OpeningBalance) > balanceTolerance {
			results[sorted[i]].Errors = append(results[sorted[i]].Errors, fmt.Sprintf(
				"opening balance %.2f does not match previous closing balance %.2f",
				cur.OpeningBalance, prev.ClosingBalance,
			))
		}
	}
}
