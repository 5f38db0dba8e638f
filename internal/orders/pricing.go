package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleanmatch/cleanmatch-backend/pkg/db/models"
	"github.com/cleanmatch/cleanmatch-backend/pkg/types"
)

// Quote is the server-side price of an order's items.
type Quote struct {
	Total      decimal.Decimal
	Verified   bool
	Unresolved []string
}

// itemIDs returns the parseable service ids referenced by items.
func itemIDs(items types.ItemQuantities) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, key := range items.Keys() {
		if id, err := uuid.Parse(key); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// PriceItems sums price*quantity over items using the shop's catalog. The quote
// is verified only when every item resolves to a service of that shop.
func PriceItems(items types.ItemQuantities, catalog map[uuid.UUID]models.Service) Quote {
	quote := Quote{Total: decimal.Zero}
	for _, key := range items.Keys() {
		id, err := uuid.Parse(key)
		if err != nil {
			quote.Unresolved = append(quote.Unresolved, key)
			continue
		}
		svc, ok := catalog[id]
		if !ok {
			quote.Unresolved = append(quote.Unresolved, key)
			continue
		}
		quote.Total = quote.Total.Add(svc.Price.Mul(decimal.NewFromInt(int64(items[key]))))
	}
	quote.Total = quote.Total.Round(2)
	quote.Verified = len(items) > 0 && len(quote.Unresolved) == 0
	return quote
}
