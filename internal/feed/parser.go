package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"parts-bot/internal/domain"
)

// record mirrors one row of the JSON feed. Prices and stock arrive as
// text because the upstream export does not type its columns.
type record struct {
	Article   string `json:"article"`
	Name      string `json:"name"`
	Wholesale string `json:"wholesale"`
	Retail    string `json:"retail"`
	Photo     string `json:"photo"`
	Stock     string `json:"stock"`
	Model     string `json:"model"`
}

// Parse decodes the raw feed bytes into product records. Rows with an
// empty article code are skipped; numeric cells that fail to parse
// clamp to zero rather than failing the whole load.
func Parse(raw []byte) ([]domain.Product, error) {
	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	products := make([]domain.Product, 0, len(records))
	for _, r := range records {
		code := strings.TrimSpace(r.Article)
		if code == "" {
			continue
		}

		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = code
		}

		products = append(products, domain.Product{
			Code:           code,
			Name:           name,
			WholesaleText:  strings.TrimSpace(r.Wholesale),
			RetailText:     strings.TrimSpace(r.Retail),
			WholesalePrice: domain.ParsePrice(r.Wholesale),
			ImageRef:       strings.TrimSpace(r.Photo),
			Stock:          domain.ParseStock(r.Stock),
			Model:          strings.TrimSpace(r.Model),
		})
	}

	return products, nil
}
