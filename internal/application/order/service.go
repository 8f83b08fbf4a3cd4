package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	domcatalog "github.com/alxiri/fulfillment/internal/domain/catalog"
	domledger "github.com/alxiri/fulfillment/internal/domain/ledger"
	domain "github.com/alxiri/fulfillment/internal/domain/order"
	domoutbox "github.com/alxiri/fulfillment/internal/domain/outbox"
	"github.com/alxiri/fulfillment/internal/domain/rbac"
	"github.com/alxiri/fulfillment/internal/observability"
	"github.com/alxiri/fulfillment/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	componentEngine    = "order_engine"
	useCasePlaceOrder  = "order.place"
	useCaseAdvance     = "order.advance"
	useCaseDeliver     = "order.deliver"
	spanPrefix         = "UC."
	outcomeSuccess     = "success"
	outcomeError       = "error"
)

// Service is the order workflow engine. It validates purchase requests against
// the catalog and the ledger, debits funds and stock as one unit, and drives
// orders through the fixed stage pipeline under role checks.
//
// A single mutex serializes every mutating operation so no two placements can
// interleave their stock-check-then-decrement steps.
type Service struct {
	mu        sync.Mutex
	repo      domain.Repository
	catalog   CatalogPort
	ledger    domledger.Ledger
	auth      rbac.Authorizer
	publisher domoutbox.Publisher
	tel       observability.Telemetry

	// identity is the engine's own account: the treasury that receives funds
	// and the caller identity used against the catalog's role table.
	identity string

	log observability.Logger
}

func NewService(
	repo domain.Repository,
	catalogPort CatalogPort,
	ledgerPort domledger.Ledger,
	auth rbac.Authorizer,
	publisher domoutbox.Publisher,
	tel observability.Telemetry,
	identity string,
) *Service {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Service{
		repo:      repo,
		catalog:   catalogPort,
		ledger:    ledgerPort,
		auth:      auth,
		publisher: publisher,
		tel:       tel,
		identity:  identity,
		log:       tel.Logger().With(observability.F("component", componentEngine)),
	}
}

// Identity returns the engine's treasury account.
func (s *Service) Identity() string { return s.identity }

type PlaceOrderInput struct {
	Product         string
	Quantity        int
	DeliveryAddress string
}

type PlaceOrderResult struct {
	OrderID int64
	Stage   domain.Stage
	Amount  int64
}

// PlaceOrder validates the request, debits cost from the buyer into the
// treasury, decrements stock and stores the new order. The fund transfer and
// the stock decrement succeed or fail together: when the decrement is refused
// (the engine itself lacking PRODUCT on the catalog, or a concurrent sell-out)
// the debit is compensated before the error is returned.
func (s *Service) PlaceOrder(ctx context.Context, buyer string, input PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCasePlaceOrder))

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCasePlaceOrder),
		attribute.String("order.buyer", buyer),
		attribute.String("order.product", input.Product),
		attribute.Int("order.quantity", input.Quantity),
	)
	start := time.Now()
	outcome := outcomeSuccess

	defer func() {
		if err != nil {
			outcome = outcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		span.End()

		s.tel.Counter(observability.MUsecaseRequests).Add(1,
			observability.L("use_case", useCasePlaceOrder),
			observability.L("outcome", outcome),
		)
		s.tel.Histogram(observability.MUsecaseDuration).Observe(time.Since(start).Seconds(),
			observability.L("use_case", useCasePlaceOrder),
		)

		fields := []observability.Field{
			observability.F("buyer", buyer),
			observability.F("product", input.Product),
			observability.F("quantity", input.Quantity),
			observability.F("outcome", outcome),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("place_order_done", fields...)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := s.catalog.GetDetail(ctx, input.Product)
	if err != nil {
		return nil, err
	}

	if input.Quantity <= 0 || input.Quantity > product.Total {
		return nil, fmt.Errorf("%w: requested %d of %q, %d available",
			domcatalog.ErrInsufficientStock, input.Quantity, product.Name, product.Total)
	}

	cost := int64(input.Quantity) * product.Price

	allowance, err := s.ledger.Allowance(ctx, buyer, s.identity)
	if err != nil {
		return nil, fmt.Errorf("order: allowance lookup: %w", err)
	}
	if allowance < cost {
		return nil, fmt.Errorf("%w: approved %d, order costs %d", domledger.ErrInsufficientAllowance, allowance, cost)
	}

	balance, err := s.ledger.BalanceOf(ctx, buyer)
	if err != nil {
		return nil, fmt.Errorf("order: balance lookup: %w", err)
	}
	if balance < cost {
		return nil, fmt.Errorf("%w: balance %d, order costs %d", domledger.ErrInsufficientFunds, balance, cost)
	}

	if err := s.ledger.TransferFrom(ctx, s.identity, buyer, s.identity, cost); err != nil {
		return nil, err
	}

	if err := s.catalog.DecrementStock(ctx, s.identity, input.Product, input.Quantity); err != nil {
		s.compensateDebit(ctx, buyer, cost, logger)
		return nil, err
	}

	entity, err := domain.New(buyer, input.Product, input.DeliveryAddress, input.Quantity, cost)
	if err != nil {
		s.compensateDebit(ctx, buyer, cost, logger)
		return nil, err
	}

	id, err := s.repo.Insert(ctx, entity)
	if err != nil {
		s.compensateDebit(ctx, buyer, cost, logger)
		return nil, fmt.Errorf("order: insert: %w", err)
	}

	span.SetAttributes(attribute.Int64("order.id", id))
	s.tel.Counter(observability.MOrdersPlaced).Add(1, observability.L("product", input.Product))

	s.publish(ctx, domain.NewOrderPlacedEvent(entity), logger)

	return &PlaceOrderResult{OrderID: id, Stage: entity.Stage, Amount: cost}, nil
}

// AdvanceOrder moves an order exactly one intermediate stage forward. The
// caller must hold WORKFLOW on the engine's role table. Orders at despacho or
// beyond are rejected; reaching the customer is the courier's call alone.
func (s *Service) AdvanceOrder(ctx context.Context, caller string, id int64) (*domain.Order, error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseAdvance))

	if err := rbac.Require(ctx, s.auth, rbac.RoleWorkflow, caller); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entity, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	change, err := entity.Advance()
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, fmt.Errorf("order: update %d: %w", id, err)
	}

	s.tel.Counter(observability.MOrderStageTransitions).Add(1,
		observability.L("from", string(change.From)),
		observability.L("to", string(change.To)),
	)
	logger.Info("order_advanced",
		observability.F("order_id", id),
		observability.F("from", change.From),
		observability.F("to", change.To),
	)

	s.publish(ctx, domain.NewStageAdvancedEvent(entity, change), logger)

	return entity, nil
}

// DeliverToCustomer closes the order from despacho. The caller must hold
// COURIER. Delivered orders are immutable from then on.
func (s *Service) DeliverToCustomer(ctx context.Context, caller string, id int64) (*domain.Order, error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseDeliver))

	if err := rbac.Require(ctx, s.auth, rbac.RoleCourier, caller); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entity, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	change, err := entity.Deliver()
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, entity); err != nil {
		return nil, fmt.Errorf("order: update %d: %w", id, err)
	}

	s.tel.Counter(observability.MOrderStageTransitions).Add(1,
		observability.L("from", string(change.From)),
		observability.L("to", string(change.To)),
	)
	logger.Info("order_delivered",
		observability.F("order_id", id),
		observability.F("buyer", entity.Buyer),
	)

	s.publish(ctx, domain.NewDeliveredEvent(entity, change), logger)

	return entity, nil
}

// TrackOrder returns the order's current stage and summary, including its
// transition history.
func (s *Service) TrackOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.Get(ctx, id)
}

// compensateDebit undoes the TransferFrom after a later placement step failed:
// the buyer gets the funds back and the allowance the transfer consumed is
// restored, so an aborted placement leaves no observable state change. A
// compensation failure is logged loudly: it means the treasury kept funds
// without a matching order.
func (s *Service) compensateDebit(ctx context.Context, buyer string, amount int64, logger observability.Logger) {
	if err := s.ledger.Transfer(ctx, s.identity, buyer, amount); err != nil {
		logger.Error("debit_compensation_failed",
			observability.F("buyer", buyer),
			observability.F("amount", amount),
			observability.F("error", err.Error()),
		)
		return
	}
	if err := s.ledger.IncreaseAllowance(ctx, buyer, s.identity, amount); err != nil {
		logger.Error("allowance_compensation_failed",
			observability.F("buyer", buyer),
			observability.F("amount", amount),
			observability.F("error", err.Error()),
		)
	}
}

func (s *Service) publish(ctx context.Context, e domoutbox.Event, logger observability.Logger) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.tel.Counter(observability.MEventPublishFailures).Add(1, observability.L("event", e.EventName()))
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}
