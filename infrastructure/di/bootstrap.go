package di

import (
	"context"

	"go.uber.org/zap"

	"infinicraft-backend/application/services"
	"infinicraft-backend/infrastructure/seeddata"
)

// Bootstrap seeds the base elements and, when configured, the combination
// table. With SeedWatch set it keeps re-applying the seed file on change
// until the returned stop function is called.
func (c *Container) Bootstrap(ctx context.Context) (stop func(), err error) {
	stop = func() {}

	base, err := c.CraftingService.SeedBaseElements(ctx)
	if err != nil {
		return stop, err
	}
	c.Logger.Info("Base elements ready", zap.Int("count", len(base)))

	if c.Config.SeedFile == "" {
		return stop, nil
	}

	if err := c.applySeedFile(ctx); err != nil {
		return stop, err
	}

	if !c.Config.SeedWatch {
		return stop, nil
	}

	watcher, err := seeddata.NewWatcher(c.Config.SeedFile, c.applyRows, c.Logger)
	if err != nil {
		return stop, err
	}
	watcher.Start(ctx)
	return watcher.Stop, nil
}

func (c *Container) applySeedFile(ctx context.Context) error {
	rows, err := seeddata.Load(c.Config.SeedFile)
	if err != nil {
		return err
	}
	return c.applyRows(ctx, rows)
}

func (c *Container) applyRows(ctx context.Context, rows []services.SeedRow) error {
	report, err := c.CraftingService.SeedCombinations(ctx, rows)
	if err != nil {
		return err
	}

	c.Logger.Info("Combination table applied",
		zap.String("file", c.Config.SeedFile),
		zap.Int("rows", report.Rows),
		zap.Int("inserted", report.Inserted),
		zap.Int("existing", report.Existing),
		zap.Int("skipped", report.Skipped),
		zap.Int("elementsCreated", report.ElementsCreated),
	)
	for _, problem := range report.Problems {
		c.Logger.Warn("Seed row skipped", zap.String("problem", problem))
	}
	return nil
}
