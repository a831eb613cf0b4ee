package model

// PoolSnapshot captures the pool's accounting state for storage.
type PoolSnapshot struct {
	Address      string `json:"address"`
	Token0       string `json:"token0"`
	Token1       string `json:"token1"`
	SqrtPriceX96 string `json:"sqrt_price_x96"`
	Tick         int32  `json:"tick"`
	Liquidity    string `json:"liquidity"`
	TakenAt      string `json:"taken_at"`
}

// PositionRow is one position as persisted alongside a snapshot.
type PositionRow struct {
	PoolAddress string `json:"pool_address"`
	Key         string `json:"key"`
	Owner       string `json:"owner"`
	TickLower   int32  `json:"tick_lower"`
	TickUpper   int32  `json:"tick_upper"`
	Liquidity   string `json:"liquidity"`
}

// TickRow is one initialized tick as persisted alongside a snapshot.
type TickRow struct {
	PoolAddress string `json:"pool_address"`
	TickIndex   int32  `json:"tick_index"`
	Initialized bool   `json:"initialized"`
	Liquidity   string `json:"liquidity"`
}
