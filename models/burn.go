package models

import "time"

// BurnRecord is the durable proof that a transaction hash has been counted.
// The unique index on TxHash doubles as the concurrency control: the loser
// of a duplicate race fails its insert and gets reported as already counted.
// Rows are never updated or deleted.
type BurnRecord struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	WalletAddress string    `gorm:"type:varchar(42);index;not null" json:"wallet_address"`
	TxHash        string    `gorm:"type:varchar(66);uniqueIndex;not null" json:"tx_hash"` // canonical lowercase, dedup key
	PointsAwarded int64     `gorm:"not null" json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}
