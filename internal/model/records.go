package model

// MintInstruction is one requested deposit read from the instruction
// journal. Big values are decimal strings.
type MintInstruction struct {
	Sender    string `json:"sender"`
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
}

// MintRecord is the journal entry written after a mint commits.
type MintRecord struct {
	Sequence  uint64 `json:"sequence"`
	Sender    string `json:"sender"`
	Owner     string `json:"owner"`
	TickLower int32  `json:"tick_lower"`
	TickUpper int32  `json:"tick_upper"`
	Amount    string `json:"amount"`
	Amount0   string `json:"amount0"`
	Amount1   string `json:"amount1"`
	AppliedAt string `json:"applied_at"`
}
