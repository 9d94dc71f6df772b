package aggregate

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-bff/internal/domain/commerce"
	"github.com/yungbote/neurobridge-bff/internal/domain/dashboard"
	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
	"github.com/yungbote/neurobridge-bff/internal/upstream"
)

const (
	fallbackLookupFailed = "lookup_failed"
	fallbackPanic        = "panic"
)

type Options struct {
	Services upstream.Services
	Log      *logger.Logger
	Metrics  *observability.Metrics
}

// Aggregator fans out to the upstream services and shapes the result per
// client profile. It holds no per-request state.
type Aggregator struct {
	users    upstream.UserService
	orders   upstream.OrderService
	products upstream.ProductService
	log      *logger.Logger
	metrics  *observability.Metrics
}

func New(opts Options) (*Aggregator, error) {
	if opts.Services.Users == nil || opts.Services.Orders == nil || opts.Services.Products == nil {
		return nil, errors.New("aggregate: user, order and product services are required")
	}
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Aggregator{
		users:    opts.Services.Users,
		orders:   opts.Services.Orders,
		products: opts.Services.Products,
		log:      log.With("component", "aggregator"),
		metrics:  opts.Metrics,
	}, nil
}

// MobileDashboard loads the user and their orders concurrently and projects
// them to the compact mobile shape. The first upstream failure aborts the call.
func (a *Aggregator) MobileDashboard(ctx context.Context, userID int) (out dashboard.MobileDashboard, err error) {
	ctx, span := a.start(ctx, "aggregate.mobile_dashboard", userID)
	defer func() { endSpan(span, err) }()

	user, orders, err := a.userAndOrders(ctx, userID)
	if err != nil {
		return dashboard.MobileDashboard{}, err
	}

	summaries := make([]dashboard.OrderSummary, 0, len(orders))
	for _, o := range orders {
		summaries = append(summaries, dashboard.OrderSummary{ID: o.ID, Total: o.Total, Status: o.Status, Date: o.Date})
	}
	return dashboard.MobileDashboard{
		User:    dashboard.MobileUser{ID: user.ID, Name: user.Name, Avatar: user.Avatar},
		Orders:  summaries,
		Summary: summarize(orders),
	}, nil
}

// WebDashboard loads user, orders and popular products concurrently, then
// enriches every order with product details. Product lookups never fail the
// request; see enrichOrder.
func (a *Aggregator) WebDashboard(ctx context.Context, userID int) (out dashboard.WebDashboard, err error) {
	ctx, span := a.start(ctx, "aggregate.web_dashboard", userID)
	defer func() { endSpan(span, err) }()

	var (
		user    commerce.User
		orders  []commerce.Order
		popular []commerce.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = a.users.UserByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = a.orders.OrdersByUserID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		popular, err = a.products.PopularProducts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return dashboard.WebDashboard{}, err
	}
	if popular == nil {
		popular = []commerce.Product{}
	}

	enriched := Settle(ctx, len(orders), func(ctx context.Context, i int) (dashboard.EnrichedOrder, error) {
		return dashboard.EnrichedOrder{Order: orders[i], Products: a.enrichOrder(ctx, orders[i])}, nil
	})
	list := make([]dashboard.EnrichedOrder, 0, len(enriched))
	for i, r := range enriched {
		if r.Err != nil {
			// enrichOrder recovers its own panics; this is the last line.
			a.fallback(ctx, fallbackPanic, "order enrichment failed", "order_id", orders[i].ID, "error", r.Err)
			r.Value = dashboard.EnrichedOrder{Order: orders[i], Products: []dashboard.ProductRef{}}
		}
		list = append(list, r.Value)
	}

	return dashboard.WebDashboard{
		User:            user,
		Orders:          list,
		PopularProducts: popular,
		Statistics:      statistics(orders),
	}, nil
}

// enrichOrder resolves every product id of the order concurrently. A failed
// lookup becomes an "Unknown" placeholder; a panic anywhere in the step empties
// the order's product list.
func (a *Aggregator) enrichOrder(ctx context.Context, order commerce.Order) (products []dashboard.ProductRef) {
	defer func() {
		if r := recover(); r != nil {
			a.fallback(ctx, fallbackPanic, "order enrichment panicked", "order_id", order.ID, "error", fmt.Sprint(r))
			products = []dashboard.ProductRef{}
		}
	}()

	results := Settle(ctx, len(order.ProductIDs), func(ctx context.Context, i int) (commerce.Product, error) {
		return a.products.ProductByID(ctx, order.ProductIDs[i])
	})
	products = make([]dashboard.ProductRef, 0, len(results))
	for i, r := range results {
		id := order.ProductIDs[i]
		if r.Err != nil {
			var pe *PanicError
			if errors.As(r.Err, &pe) {
				panic(pe.Value)
			}
			a.fallback(ctx, fallbackLookupFailed, "product lookup failed, using placeholder",
				"order_id", order.ID, "product_id", id, "error", r.Err)
			products = append(products, dashboard.UnknownProduct(id))
			continue
		}
		products = append(products, dashboard.ProductRef{ID: r.Value.ID, Name: r.Value.Name, Price: r.Value.Price})
	}
	return products
}

// MobileUser is a single user lookup projected to the mobile profile card.
func (a *Aggregator) MobileUser(ctx context.Context, userID int) (out dashboard.MobileProfile, err error) {
	ctx, span := a.start(ctx, "aggregate.mobile_user", userID)
	defer func() { endSpan(span, err) }()

	user, err := a.users.UserByID(ctx, userID)
	if err != nil {
		return dashboard.MobileProfile{}, err
	}
	return dashboard.MobileProfile{ID: user.ID, Name: user.Name, Email: user.Email, Phone: user.Phone}, nil
}

// WebUser returns the full user record with order history and totals.
func (a *Aggregator) WebUser(ctx context.Context, userID int) (out dashboard.WebProfile, err error) {
	ctx, span := a.start(ctx, "aggregate.web_user", userID)
	defer func() { endSpan(span, err) }()

	user, orders, err := a.userAndOrders(ctx, userID)
	if err != nil {
		return dashboard.WebProfile{}, err
	}
	return dashboard.WebProfile{User: user, OrderHistory: orders, Stats: summarize(orders)}, nil
}

func (a *Aggregator) userAndOrders(ctx context.Context, userID int) (commerce.User, []commerce.Order, error) {
	var (
		user   commerce.User
		orders []commerce.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = a.users.UserByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = a.orders.OrdersByUserID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return commerce.User{}, nil, err
	}
	if orders == nil {
		orders = []commerce.Order{}
	}
	return user, orders, nil
}

func (a *Aggregator) fallback(ctx context.Context, reason, msg string, kv ...interface{}) {
	a.metrics.IncEnrichmentFallback(reason)
	a.log.Warn(msg, append(kv, ctxutil.LogFields(ctx)...)...)
}

func (a *Aggregator) start(ctx context.Context, name string, userID int) (context.Context, trace.Span) {
	return observability.Tracer().Start(ctx, name, trace.WithAttributes(attribute.Int("user.id", userID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
