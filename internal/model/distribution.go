package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DistributionReport summarises one run of the return distribution sweep.
type DistributionReport struct {
	Scanned       int             `json:"scanned"`
	Credited      int             `json:"credited"`
	Skipped       int             `json:"skipped"`
	Failed        int             `json:"failed"`
	TotalCredited decimal.Decimal `json:"totalCredited"`
	StartedAt     time.Time       `json:"startedAt"`
	FinishedAt    time.Time       `json:"finishedAt"`
}
