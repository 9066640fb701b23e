package workers

import (
	"context"
	"log"
	"time"

	"github.com/Guglielmo15/base-incinerator-dapp/models"
	"github.com/Guglielmo15/base-incinerator-dapp/services"
)

// PollStaleHoldings keeps the asset mirror warm: every tick it picks wallets
// whose mirrored holdings have gone stale and re-fetches them from the
// indexer. Front-end requests then mostly hit a fresh cache.
func PollStaleHoldings(ctx context.Context, svc *services.AssetService, pollInterval time.Duration) {
	log.Println("Starting asset holdings refresh worker...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Asset holdings refresh worker stopped.")
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-svc.CacheTTL)

			var wallets []string
			if err := svc.DB.Model(&models.AssetHolding{}).
				Where("last_refreshed_at < ?", cutoff).
				Distinct("wallet_address").
				Limit(20).
				Pluck("wallet_address", &wallets).Error; err != nil {
				log.Printf("❌ Failed to list stale wallets: %v", err)
				continue
			}

			if len(wallets) == 0 {
				continue
			}
			log.Printf("📥 Refreshing holdings for %d stale wallet(s)", len(wallets))

			for _, w := range wallets {
				if _, err := svc.RefreshWallet(ctx, w); err != nil {
					// Stale rows keep serving until the indexer recovers.
					log.Printf("❌ Holdings refresh failed for %s: %v", w, err)
				}
			}
		}
	}
}
