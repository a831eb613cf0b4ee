package replay

import (
	"fmt"
	"math/big"
	"sort"

	"liquidityCore/internal/model"
)

// OwnerTotals aggregates one owner's mints across a journal.
type OwnerTotals struct {
	Owner     string   `json:"owner"`
	MintCount uint64   `json:"mint_count"`
	Liquidity *big.Int `json:"liquidity"`
	Amount0   *big.Int `json:"amount0"`
	Amount1   *big.Int `json:"amount1"`
}

// Summary holds journal-wide aggregates.
type Summary struct {
	MintCount      uint64   `json:"mint_count"`
	TotalLiquidity *big.Int `json:"total_liquidity"`
	TotalAmount0   *big.Int `json:"total_amount0"`
	TotalAmount1   *big.Int `json:"total_amount1"`

	Owners []OwnerTotals `json:"owners"`
}

// Summarize folds a mint journal into per-owner and global totals.
func Summarize(records []model.MintRecord) (Summary, error) {
	summary := Summary{
		TotalLiquidity: big.NewInt(0),
		TotalAmount0:   big.NewInt(0),
		TotalAmount1:   big.NewInt(0),
	}

	byOwner := make(map[string]*OwnerTotals)
	for _, record := range records {
		liquidity, err := parseBigInt(record.Amount)
		if err != nil {
			return Summary{}, fmt.Errorf("record %d: %w", record.Sequence, err)
		}
		amount0, err := parseBigInt(record.Amount0)
		if err != nil {
			return Summary{}, fmt.Errorf("record %d: %w", record.Sequence, err)
		}
		amount1, err := parseBigInt(record.Amount1)
		if err != nil {
			return Summary{}, fmt.Errorf("record %d: %w", record.Sequence, err)
		}

		totals, ok := byOwner[record.Owner]
		if !ok {
			totals = &OwnerTotals{
				Owner:     record.Owner,
				Liquidity: big.NewInt(0),
				Amount0:   big.NewInt(0),
				Amount1:   big.NewInt(0),
			}
			byOwner[record.Owner] = totals
		}

		totals.MintCount++
		totals.Liquidity.Add(totals.Liquidity, liquidity)
		totals.Amount0.Add(totals.Amount0, amount0)
		totals.Amount1.Add(totals.Amount1, amount1)

		summary.MintCount++
		summary.TotalLiquidity.Add(summary.TotalLiquidity, liquidity)
		summary.TotalAmount0.Add(summary.TotalAmount0, amount0)
		summary.TotalAmount1.Add(summary.TotalAmount1, amount1)
	}

	summary.Owners = make([]OwnerTotals, 0, len(byOwner))
	for _, totals := range byOwner {
		summary.Owners = append(summary.Owners, *totals)
	}
	sort.Slice(summary.Owners, func(i, j int) bool {
		return summary.Owners[i].Owner < summary.Owners[j].Owner
	})

	return summary, nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}
