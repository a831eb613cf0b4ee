package storage

import "liquidityCore/internal/model"

// Journal defines a sink for committed mint records.
type Journal interface {
	AppendMints(records []model.MintRecord) error
}
