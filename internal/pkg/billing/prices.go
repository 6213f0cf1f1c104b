package billing

import "context"

// ListPrices returns the remote catalog of active prices with their
// products expanded. Callers are expected to cache the result.
func (s *Service) ListPrices(ctx context.Context) ([]PriceInfo, error) {
	_ = ctx
	prices, err := s.api.ListActivePrices()
	if err != nil {
		return nil, err
	}

	infos := make([]PriceInfo, 0, len(prices))
	for _, p := range prices {
		info := PriceInfo{
			ID:         p.ID,
			Currency:   string(p.Currency),
			UnitAmount: ToMajorUnits(p.UnitAmount),
		}
		if p.Recurring != nil {
			info.Interval = string(p.Recurring.Interval)
		}
		if p.Product != nil {
			info.ProductID = p.Product.ID
			info.ProductName = p.Product.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}
