package store

import (
	"time"

	"github.com/lib/pq"
)

// QuoteRecord is one served quote request, kept for offline analysis of
// provider coverage and pricing quality.
type QuoteRecord struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	CreatedAt   time.Time `gorm:"index;not null"`
	FromChainID uint64    `gorm:"index:idx_quote_record_route"`
	ToChainID   uint64    `gorm:"index:idx_quote_record_route"`
	FromToken   string    `gorm:"type:varchar(64)"`
	ToToken     string    `gorm:"type:varchar(64)"`
	// Amounts are stored as decimal strings; token amounts overflow bigint.
	FromAmount   string `gorm:"type:varchar(96)"`
	BestProvider string `gorm:"type:varchar(32);index"`
	BestToAmount string `gorm:"type:varchar(96)"`
	// Succeeded and Failed list provider names by outcome for the request.
	Succeeded pq.StringArray `gorm:"type:text[]"`
	Failed    pq.StringArray `gorm:"type:text[]"`
	LatencyMs int64
}

func (QuoteRecord) TableName() string {
	return "quote_record"
}
