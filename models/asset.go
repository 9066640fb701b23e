// models/asset.go
package models

import "time"

// AssetHolding mirrors one token position from the external holdings indexer.
// Purely presentation data for the front-end asset dropdown; ledger
// correctness never depends on this table.
type AssetHolding struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	WalletAddress   string    `gorm:"type:varchar(42);not null;index;uniqueIndex:uk_wallet_token,priority:1" json:"wallet_address"`
	ContractAddress string    `gorm:"type:varchar(42);not null;uniqueIndex:uk_wallet_token,priority:2" json:"contract_address"`
	TokenID         string    `gorm:"type:varchar(78);not null;default:'';uniqueIndex:uk_wallet_token,priority:3" json:"token_id,omitempty"` // empty for fungibles
	TokenType       string    `gorm:"type:varchar(16);not null" json:"token_type"`                                                           // erc20 | erc721 | erc1155
	Symbol          string    `gorm:"type:varchar(64)" json:"symbol"`
	Balance         string    `gorm:"type:varchar(128);not null" json:"balance"` // human-readable, as reported by the indexer
	LastRefreshedAt time.Time `gorm:"not null;index" json:"last_refreshed_at"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
