package services

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	"infinicraft-backend/domain/events"
	pkgerrors "infinicraft-backend/pkg/errors"
)

// Combine result messages
const (
	MessageElementsNotFound  = "elements not found"
	MessageCannotCombine     = "cannot combine"
	MessageNewDiscovery      = "new discovery"
	MessageAlreadyDiscovered = "already discovered"
)

// DefaultUserID is used when a caller does not identify the user
const DefaultUserID = "default"

// CombineResult is the game-level outcome of a combine request.
// Game failures are reported here with Success false, never as errors.
type CombineResult struct {
	Success bool
	Result  *entities.Element
	Message string
	IsNew   bool
}

// CraftingService orchestrates combine requests across the catalog, the
// combination index, the generator and the discovery tracker.
type CraftingService struct {
	catalog   *Catalog
	index     *CombinationIndex
	generator *Generator
	tracker   *DiscoveryTracker
	publisher ports.EventPublisher
	metrics   ports.Metrics
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewCraftingService creates a new crafting service
func NewCraftingService(
	catalog *Catalog,
	index *CombinationIndex,
	generator *Generator,
	tracker *DiscoveryTracker,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	logger *zap.Logger,
) *CraftingService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &CraftingService{
		catalog:   catalog,
		index:     index,
		generator: generator,
		tracker:   tracker,
		publisher: publisher,
		metrics:   metrics,
		tracer:    otel.Tracer("infinicraft-backend/crafting"),
		logger:    logger,
	}
}

// Combine resolves a + b for userID and records the discovery.
// Only store faults are returned as errors.
func (s *CraftingService) Combine(ctx context.Context, a, b valueobjects.ElementID, userID string) (result *CombineResult, err error) {
	userID = normalizeUserID(userID)
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "crafting.Combine",
		trace.WithAttributes(
			attribute.String("element.a", a.String()),
			attribute.String("element.b", b.String()),
			attribute.String("user.id", userID),
		),
	)
	defer func() {
		outcome := "error"
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			outcome = outcomeOf(result)
			span.SetAttributes(attribute.String("combine.outcome", outcome))
		}
		s.metrics.RecordCombine(outcome, time.Since(start))
		span.End()
	}()

	// 1. resolve both operands
	left, right, err := s.resolvePair(ctx, a, b)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return &CombineResult{Message: MessageElementsNotFound}, nil
		}
		return nil, err
	}

	// 2-3. existing combination, otherwise fabricate one
	resultElement, fab, err := s.resolveResult(ctx, left, right)
	if err != nil {
		if pkgerrors.IsGenerationFailed(err) {
			s.logger.Info("Cannot combine",
				zap.String("left", left.Label()),
				zap.String("right", right.Label()),
				zap.Error(err),
			)
			return &CombineResult{Message: MessageCannotCombine}, nil
		}
		return nil, err
	}

	// 4-5. discovery state is only touched once the result is known
	if _, err := s.tracker.GetOrInit(ctx, userID); err != nil {
		return nil, err
	}
	isNew, err := s.tracker.AddDiscovery(ctx, userID, resultElement.ID())
	if err != nil {
		return nil, err
	}
	s.metrics.RecordDiscovery(isNew)

	s.publishCombineEvents(ctx, userID, resultElement, fab, isNew)

	message := MessageAlreadyDiscovered
	if isNew {
		message = MessageNewDiscovery
	}
	return &CombineResult{
		Success: true,
		Result:  resultElement,
		Message: message,
		IsNew:   isNew,
	}, nil
}

func (s *CraftingService) resolvePair(ctx context.Context, a, b valueobjects.ElementID) (*entities.Element, *entities.Element, error) {
	var left, right *entities.Element

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		left, err = s.catalog.GetByID(gctx, a)
		return err
	})
	g.Go(func() error {
		var err error
		right, err = s.catalog.GetByID(gctx, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (s *CraftingService) resolveResult(ctx context.Context, left, right *entities.Element) (*entities.Element, *Fabrication, error) {
	ctx, span := s.tracer.Start(ctx, "crafting.ResolveResult")
	defer span.End()

	combination, err := s.index.Lookup(ctx, left.ID(), right.ID())
	if err != nil {
		return nil, nil, err
	}
	if combination != nil {
		span.SetAttributes(attribute.Bool("index.hit", true))
		element, err := s.catalog.GetByID(ctx, combination.ResultID())
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				return nil, nil, pkgerrors.NewInternalError("combination result element missing").
					WithDetails(map[string]interface{}{"pair": combination.Key().String()})
			}
			return nil, nil, err
		}
		return element, nil, nil
	}

	span.SetAttributes(attribute.Bool("index.hit", false))
	fab, err := s.generator.Fabricate(ctx, left, right)
	if err != nil {
		return nil, nil, err
	}
	return fab.Element, fab, nil
}

func (s *CraftingService) publishCombineEvents(ctx context.Context, userID string, element *entities.Element, fab *Fabrication, isNew bool) {
	if s.publisher == nil {
		return
	}

	now := time.Now().UTC()
	var batch []events.DomainEvent
	if fab != nil && fab.Inserted {
		batch = append(batch, events.NewElementFabricated(
			element.ID(), element.Name(), element.Symbol(), fab.Combination.Key(), fab.ElementCreated, now,
		))
	}
	if isNew {
		batch = append(batch, events.NewElementDiscovered(userID, element.ID(), element.Name(), now))
	}
	if len(batch) == 0 {
		return
	}

	if err := s.publisher.PublishBatch(ctx, batch); err != nil {
		s.logger.Warn("Failed to publish crafting events", zap.Int("count", len(batch)), zap.Error(err))
	}
}

// ListBaseElements returns the four base elements
func (s *CraftingService) ListBaseElements(ctx context.Context) ([]*entities.Element, error) {
	return s.catalog.BaseElements(ctx)
}

// ListDiscovered returns the user's discovered elements in discovery order.
// Ids that no longer resolve are skipped.
func (s *CraftingService) ListDiscovered(ctx context.Context, userID string) ([]*entities.Element, error) {
	set, err := s.tracker.GetOrInit(ctx, normalizeUserID(userID))
	if err != nil {
		return nil, err
	}
	return s.catalog.Resolve(ctx, set.IDs())
}

// ListAllElements returns every element in the catalog
func (s *CraftingService) ListAllElements(ctx context.Context) ([]*entities.Element, error) {
	return s.catalog.All(ctx)
}

// ResetUser restores the user's discoveries to the base set
func (s *CraftingService) ResetUser(ctx context.Context, userID string) error {
	userID = normalizeUserID(userID)
	previous, err := s.tracker.Reset(ctx, userID)
	if err != nil {
		return err
	}

	if s.publisher != nil {
		event := events.NewProgressReset(userID, previous, time.Now().UTC())
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish reset event", zap.String("userID", userID), zap.Error(err))
		}
	}
	return nil
}

// GetProgress returns the user's discovery progress
func (s *CraftingService) GetProgress(ctx context.Context, userID string) (*ProgressSummary, error) {
	return s.tracker.Summarize(ctx, normalizeUserID(userID))
}

// SeedBaseElements seeds the base set
func (s *CraftingService) SeedBaseElements(ctx context.Context) ([]*entities.Element, error) {
	return s.catalog.SeedBaseElements(ctx)
}

// SeedCombinations seeds the base set and then the combination table
func (s *CraftingService) SeedCombinations(ctx context.Context, rows []SeedRow) (*SeedReport, error) {
	if _, err := s.catalog.SeedBaseElements(ctx); err != nil {
		return nil, err
	}
	return s.index.Seed(ctx, rows)
}

// CombinationCount returns the number of known combinations
func (s *CraftingService) CombinationCount(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}

func normalizeUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return DefaultUserID
	}
	return userID
}

func outcomeOf(r *CombineResult) string {
	switch r.Message {
	case MessageNewDiscovery:
		return "new"
	case MessageAlreadyDiscovered:
		return "known"
	case MessageElementsNotFound:
		return "not_found"
	default:
		return "cannot_combine"
	}
}
