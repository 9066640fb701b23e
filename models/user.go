package models

import "time"

// User is the per-wallet MAGMA points ledger row.
// Created lazily on the wallet's first verified burn.
type User struct {
	WalletAddress        string `gorm:"primaryKey;type:varchar(42)" json:"wallet_address"` // canonical lowercase hex
	MagmaPointsTotal     int64  `gorm:"not null;default:0" json:"magma_points_total"`
	ReferralPointsEarned int64  `gorm:"not null;default:0" json:"referral_points_earned"` // earned as a referrer, separate from burn points
	ReferralCount        int64  `gorm:"not null;default:0" json:"referral_count"`         // distinct referred users whose first burn credited us

	// Set at most once (first referrer wins), never the user's own address.
	ReferredByWallet *string `gorm:"type:varchar(42);index" json:"referred_by_wallet,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
