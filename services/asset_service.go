// services/asset_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Guglielmo15/base-incinerator-dapp/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssetService fetches a wallet's token holdings from the external holdings
// indexer and mirrors them into asset_holdings. The front-end asset dropdown
// reads from here; nothing in the ledger depends on this data.
type AssetService struct {
	BaseURL    string
	Network    string
	APIKey     string
	HTTPClient *http.Client
	DB         *gorm.DB
	CacheTTL   time.Duration
}

func NewAssetService(db *gorm.DB, baseURL, network, apiKey string) *AssetService {
	return &AssetService{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: network,
		APIKey:  apiKey,
		DB:      db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		CacheTTL: 2 * time.Minute,
	}
}

// indexerHolding matches the JSON shape of the holdings indexer response.
type indexerHolding struct {
	TokenType       string `json:"token_type"`
	ContractAddress string `json:"contract_address"`
	TokenID         string `json:"token_id,omitempty"`
	Symbol          string `json:"symbol"`
	Balance         string `json:"balance"`
}

func (s *AssetService) fetchHoldings(ctx context.Context, wallet string) ([]models.AssetHolding, error) {
	url := fmt.Sprintf("%s/api/v1/wallets/%s/tokens?network=%s", s.BaseURL, wallet, s.Network)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.APIKey != "" {
		req.Header.Set("X-Api-Key", s.APIKey)
	}

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call holdings indexer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("holdings indexer returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Holdings []indexerHolding `json:"holdings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode holdings response: %w", err)
	}

	now := time.Now().UTC()
	out := make([]models.AssetHolding, 0, len(response.Holdings))
	for _, h := range response.Holdings {
		out = append(out, models.AssetHolding{
			ID:              uuid.NewString(),
			WalletAddress:   wallet,
			ContractAddress: strings.ToLower(h.ContractAddress),
			TokenID:         h.TokenID,
			TokenType:       strings.ToLower(h.TokenType),
			Symbol:          h.Symbol,
			Balance:         h.Balance,
			LastRefreshedAt: now,
		})
	}
	return out, nil
}

// RefreshWallet pulls fresh holdings and upserts them into the mirror table.
func (s *AssetService) RefreshWallet(ctx context.Context, wallet string) ([]models.AssetHolding, error) {
	holdings, err := s.fetchHoldings(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		// Wallet emptied out; drop whatever we had mirrored.
		if err := s.DB.Where("wallet_address = ?", wallet).Delete(&models.AssetHolding{}).Error; err != nil {
			return nil, err
		}
		return holdings, nil
	}

	if err := s.DB.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{
				{Name: "wallet_address"},
				{Name: "contract_address"},
				{Name: "token_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"token_type",
				"symbol",
				"balance",
				"last_refreshed_at",
				"updated_at",
			}),
		},
	).Create(&holdings).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert %d holding(s): %w", len(holdings), err)
	}

	return holdings, nil
}

// GetHoldings returns the wallet's holdings, serving the mirror when it is
// fresh enough and falling back to stale rows if the indexer is down.
func (s *AssetService) GetHoldings(ctx context.Context, wallet string) ([]models.AssetHolding, error) {
	var cached []models.AssetHolding
	err := s.DB.Where("wallet_address = ?", wallet).
		Order("contract_address ASC, token_id ASC").
		Find(&cached).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if len(cached) > 0 {
		newest := cached[0].LastRefreshedAt
		for _, h := range cached {
			if h.LastRefreshedAt.After(newest) {
				newest = h.LastRefreshedAt
			}
		}
		if time.Since(newest) < s.CacheTTL {
			return cached, nil
		}
	}

	fresh, err := s.RefreshWallet(ctx, wallet)
	if err != nil {
		if len(cached) > 0 {
			log.Printf("⚠️  Holdings refresh failed for %s, serving stale mirror: %v", wallet, err)
			return cached, nil
		}
		return nil, err
	}
	return fresh, nil
}
