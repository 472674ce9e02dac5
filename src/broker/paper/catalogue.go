package paper

import (
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/shioaji-mcp/src/eventmodels"
)

//go:embed catalogue.yaml
var defaultCatalogue []byte

type catalogueEntryYAML struct {
	Code      string `yaml:"code"`
	Name      string `yaml:"name"`
	Exchange  string `yaml:"exchange"`
	Category  string `yaml:"category"`
	Unit      int64  `yaml:"unit"`
	DayTrade  string `yaml:"day_trade"`
	Reference string `yaml:"reference"`
}

type catalogueYAML struct {
	Contracts []catalogueEntryYAML `yaml:"contracts"`
}

// LoadCatalogue parses a YAML contract listing. Daily limits are derived from
// the reference price at ±10%, rounded inward to the tick grid.
func LoadCatalogue(data []byte) ([]eventmodels.Contract, error) {
	var doc catalogueYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("LoadCatalogue: failed to unmarshal yaml: %w", err)
	}

	seen := make(map[eventmodels.StockCode]struct{}, len(doc.Contracts))
	contracts := make([]eventmodels.Contract, 0, len(doc.Contracts))
	for i, entry := range doc.Contracts {
		code, err := eventmodels.NewStockCode(entry.Code)
		if err != nil {
			return nil, fmt.Errorf("LoadCatalogue: entry %d: %w", i, err)
		}

		if _, found := seen[code]; found {
			return nil, fmt.Errorf("LoadCatalogue: duplicate code %s", code)
		}
		seen[code] = struct{}{}

		exchange := eventmodels.Exchange(entry.Exchange)
		if err := exchange.Validate(); err != nil {
			return nil, fmt.Errorf("LoadCatalogue: %s: %w", code, err)
		}

		reference, err := decimal.NewFromString(entry.Reference)
		if err != nil {
			return nil, fmt.Errorf("LoadCatalogue: %s: invalid reference price %q: %w", code, entry.Reference, err)
		}

		unit := entry.Unit
		if unit <= 0 {
			unit = 1000
		}

		contracts = append(contracts, eventmodels.Contract{
			Code:      code,
			Symbol:    fmt.Sprintf("%s%s", exchange, code),
			Name:      entry.Name,
			Exchange:  exchange,
			Category:  entry.Category,
			Unit:      unit,
			Reference: reference,
			LimitUp:   floorToTick(reference.Mul(decimal.RequireFromString("1.1"))),
			LimitDown: ceilToTick(reference.Mul(decimal.RequireFromString("0.9"))),
			DayTrade:  entry.DayTrade,
		})
	}

	return contracts, nil
}
