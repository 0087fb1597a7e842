package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"infinicraft-backend/domain/core/entities"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// SeedRow is one line of a combination seed table. Each side is a
// "<symbol> <name>" label.
type SeedRow struct {
	Element1 string `json:"element1" yaml:"element1"`
	Element2 string `json:"element2" yaml:"element2"`
	Result   string `json:"result" yaml:"result"`
}

// SeedReport summarizes one Seed run
type SeedReport struct {
	Rows            int      `json:"rows"`
	Inserted        int      `json:"inserted"`
	Existing        int      `json:"existing"`
	Skipped         int      `json:"skipped"`
	ElementsCreated int      `json:"elements_created"`
	Problems        []string `json:"problems,omitempty"`
}

// Seed loads a combination table. Every distinct (name, symbol) is resolved
// or created once per run and entries are inserted only when absent, so
// running it again changes nothing. Malformed rows are skipped and reported.
func (x *CombinationIndex) Seed(ctx context.Context, rows []SeedRow) (*SeedReport, error) {
	report := &SeedReport{Rows: len(rows)}
	memo := make(map[entities.NameSymbolKey]*entities.Element)

	resolve := func(label string) (*entities.Element, error) {
		key, err := entities.ParseLabel(label)
		if err != nil {
			return nil, err
		}
		if element, ok := memo[key]; ok {
			return element, nil
		}
		element, created, err := x.catalog.GetOrCreate(ctx, key.Name, key.Symbol)
		if err != nil {
			return nil, err
		}
		if created {
			report.ElementsCreated++
		}
		memo[key] = element
		return element, nil
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		labels := [3]string{row.Element1, row.Element2, row.Result}
		var resolved [3]*entities.Element
		var rowErr error
		for j, label := range labels {
			resolved[j], rowErr = resolve(label)
			if rowErr != nil {
				break
			}
		}
		if rowErr != nil {
			if isRowError(rowErr) {
				report.Skipped++
				report.Problems = append(report.Problems, fmt.Sprintf("row %d: %v", i+1, rowErr))
				continue
			}
			return report, rowErr
		}

		_, inserted, err := x.Insert(ctx, resolved[0].ID(), resolved[1].ID(), resolved[2].ID(), entities.SourceSeed)
		if err != nil {
			if isRowError(err) {
				report.Skipped++
				report.Problems = append(report.Problems, fmt.Sprintf("row %d: %v", i+1, err))
				continue
			}
			return report, err
		}
		if inserted {
			report.Inserted++
		} else {
			report.Existing++
		}
	}

	x.metrics.RecordSeed(report.ElementsCreated, report.Inserted, report.Skipped)
	x.logger.Info("Combination table seeded",
		zap.Int("rows", report.Rows),
		zap.Int("inserted", report.Inserted),
		zap.Int("existing", report.Existing),
		zap.Int("skipped", report.Skipped),
		zap.Int("elementsCreated", report.ElementsCreated),
	)
	return report, nil
}

// isRowError reports problems local to one row, as opposed to store faults
func isRowError(err error) bool {
	return pkgerrors.IsValidation(err)
}
