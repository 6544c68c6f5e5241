// Package pricing turns item references and a fulfillment into a priced
// quote, and filters the catalog for search.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Mindburn-Labs/ondc-bpp/pkg/catalog"
	"github.com/Mindburn-Labs/ondc-bpp/pkg/protocol"
)

// TaxRate is the flat GST rate applied to the subtotal.
var TaxRate = decimal.New(18, -2)

// Line is one resolved order line.
type Line struct {
	Item      catalog.Item
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// Quote is the priced result. Total always equals
// Subtotal + Delivery + Tax after rounding each to two places.
type Quote struct {
	Lines    []Line
	Subtotal decimal.Decimal
	Delivery decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Currency string
}

// Engine prices orders against a catalog repository.
type Engine struct {
	repo     catalog.Repository
	currency string
	logger   *slog.Logger
}

// NewEngine creates an Engine. The currency tag defaults to INR.
func NewEngine(repo catalog.Repository, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:     repo,
		currency: catalog.DefaultCurrency,
		logger:   logger.With("component", "pricing"),
	}
}

// Quote resolves refs and computes subtotal, delivery, tax and total.
// Lookup never fails the quote: unknown ids and store errors resolve to the
// zero-priced placeholder with the requested quantity.
func (e *Engine) Quote(ctx context.Context, refs []protocol.ItemRef, f *protocol.FulfillmentRef) Quote {
	q := Quote{
		Lines:    make([]Line, 0, len(refs)),
		Subtotal: decimal.Zero,
		Currency: e.currency,
	}

	for _, ref := range refs {
		item := e.resolve(ctx, ref.ID)
		qty := decimal.NewFromInt(int64(ref.Quantity))
		line := Line{
			Item:      item,
			Quantity:  ref.Quantity,
			UnitPrice: item.Price,
			Total:     item.Price.Mul(qty).Round(2),
		}
		q.Lines = append(q.Lines, line)
		q.Subtotal = q.Subtotal.Add(line.Total)
	}

	q.Subtotal = q.Subtotal.Round(2)
	q.Delivery = DeliveryCharge(f).Round(2)
	q.Tax = q.Subtotal.Mul(TaxRate).Round(2)
	q.Total = q.Subtotal.Add(q.Delivery).Add(q.Tax)
	return q
}

func (e *Engine) resolve(ctx context.Context, id string) catalog.Item {
	item, err := e.repo.Lookup(ctx, id)
	switch {
	case err == nil:
		if item.Currency == "" {
			item.Currency = e.currency
		}
		return item
	case errors.Is(err, catalog.ErrNotFound):
		e.logger.InfoContext(ctx, "unknown item, using placeholder", "item_id", id)
	default:
		e.logger.WarnContext(ctx, "catalog lookup failed, using placeholder", "item_id", id, "error", err)
	}
	return catalog.Placeholder(id)
}

// Search returns the catalog items matching the search filters. Empty
// filters pass everything through.
func (e *Engine) Search(ctx context.Context, p protocol.SearchParams) ([]catalog.Item, error) {
	items, err := e.repo.Filter(ctx, catalog.Filter{Category: p.Category, City: p.City})
	if err != nil {
		return nil, fmt.Errorf("filter catalog: %w", err)
	}
	e.logger.DebugContext(ctx, "search filtered", "category", p.Category, "city", p.City, "matches", len(items))
	return items, nil
}

// Format renders an amount with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
