package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// DefaultGenerationTimeout bounds a single call to the text generator
const DefaultGenerationTimeout = 30 * time.Second

// Fabrication is the outcome of a generated combination
type Fabrication struct {
	Element        *entities.Element
	Combination    *entities.Combination
	ElementCreated bool
	Inserted       bool
}

// Generator fabricates new elements for pairs the index does not know
type Generator struct {
	text    ports.TextGenerator
	catalog *Catalog
	index   *CombinationIndex
	timeout time.Duration
	metrics ports.Metrics
	logger  *zap.Logger

	flights singleflight.Group
}

// NewGenerator creates a generator adapter. A nil text generator disables
// fabrication; every request then fails with GeneratorDisabled.
func NewGenerator(
	text ports.TextGenerator,
	catalog *Catalog,
	index *CombinationIndex,
	timeout time.Duration,
	metrics ports.Metrics,
	logger *zap.Logger,
) *Generator {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Generator{
		text:    text,
		catalog: catalog,
		index:   index,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// Enabled reports whether a text generator is configured
func (g *Generator) Enabled() bool {
	return g.text != nil
}

// Fabricate produces the result of combining a and b and records it in the
// index. Concurrent calls for the same pair share one generation.
func (g *Generator) Fabricate(ctx context.Context, a, b *entities.Element) (*Fabrication, error) {
	if g.text == nil {
		return nil, pkgerrors.NewGenerationFailedError("no text generator configured", nil).
			WithCode(pkgerrors.CodeGeneratorDisabled)
	}

	key, err := valueobjects.NewPairKey(a.ID(), b.ID())
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	v, err, shared := g.flights.Do(key.String(), func() (interface{}, error) {
		return g.fabricate(context.WithoutCancel(ctx), a, b)
	})
	if err != nil {
		return nil, err
	}
	fab := v.(*Fabrication)
	if shared {
		g.logger.Debug("Shared in-flight generation", zap.String("pair", key.String()))
	}
	return fab, nil
}

func (g *Generator) fabricate(ctx context.Context, a, b *entities.Element) (*Fabrication, error) {
	// A previous flight for this pair may have finished before we started
	if existing, err := g.index.Lookup(ctx, a.ID(), b.ID()); err != nil {
		return nil, err
	} else if existing != nil {
		element, err := g.catalog.GetByID(ctx, existing.ResultID())
		if err != nil {
			return nil, err
		}
		return &Fabrication{Element: element, Combination: existing}, nil
	}

	start := time.Now()
	reply, err := g.generate(ctx, a, b)
	if err != nil {
		g.metrics.RecordGeneration("failed", time.Since(start))
		return nil, err
	}

	name, symbol, err := ParseReply(reply)
	if err != nil {
		g.metrics.RecordGeneration("unparseable", time.Since(start))
		return nil, err
	}
	g.metrics.RecordGeneration("ok", time.Since(start))

	element, created, err := g.catalog.GetOrCreate(ctx, name, symbol)
	if err != nil {
		if pkgerrors.IsValidation(err) {
			return nil, pkgerrors.NewGenerationFailedError("reply is not a valid element", err)
		}
		return nil, err
	}

	stored, inserted, err := g.index.Insert(ctx, a.ID(), b.ID(), element.ID(), entities.SourceGenerated)
	if err != nil {
		return nil, err
	}

	fab := &Fabrication{
		Element:        element,
		Combination:    stored,
		ElementCreated: created,
		Inserted:       inserted,
	}
	if !inserted && !stored.ResultID().Equals(element.ID()) {
		// Another writer recorded this pair first; its result wins and ours stays an orphan
		winner, err := g.catalog.GetByID(ctx, stored.ResultID())
		if err != nil {
			return nil, err
		}
		fab.Element = winner
		fab.ElementCreated = false
	}

	g.logger.Info("Element fabricated",
		zap.String("pair", stored.Key().String()),
		zap.String("name", fab.Element.Name()),
		zap.String("symbol", fab.Element.Symbol()),
		zap.Bool("elementCreated", fab.ElementCreated),
		zap.Bool("inserted", inserted),
	)
	return fab, nil
}

func (g *Generator) generate(ctx context.Context, a, b *entities.Element) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.text.GenerateText(ctx, SystemPrompt, UserMessage(a, b))
	if err != nil {
		reason := "text generation request failed"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "text generation timed out"
		}
		g.logger.Warn("Text generation failed",
			zap.String("left", a.Label()),
			zap.String("right", b.Label()),
			zap.Error(err),
		)
		return "", pkgerrors.NewGenerationFailedError(reason, err)
	}
	return reply, nil
}
