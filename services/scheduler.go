// services/scheduler.go
package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/Guglielmo15/base-incinerator-dapp/utils"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
)

// StartSnapshotScheduler exports a daily leaderboard snapshot to R2.
// Only started when R2 is configured.
func (s *ProfileService) StartSnapshotScheduler(network string) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(func() {
			if err := s.ExportSnapshot(network); err != nil {
				log.Printf("[Scheduler] snapshot export failed: %v", err)
			}
		}),
	)
}

// ExportSnapshot uploads the current top-100 leaderboard as JSON.
func (s *ProfileService) ExportSnapshot(network string) error {
	entries, err := s.GetLeaderboard(100)
	if err != nil {
		return fmt.Errorf("failed to build leaderboard snapshot: %w", err)
	}

	var totalUsers int64
	if err := s.DB.Table("users").Count(&totalUsers).Error; err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"network":      network,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"total_users":  totalUsers,
		"entries":      entries,
	})
	if err != nil {
		return err
	}

	key := fmt.Sprintf("snapshots/%s/%s.json", slug.Make(network), time.Now().UTC().Format("2006-01-02"))
	url, err := utils.UploadBytesToR2(payload, key, "application/json")
	if err != nil {
		return err
	}

	log.Printf("✅ Leaderboard snapshot uploaded: %s (%d entries)", url, len(entries))
	return nil
}
