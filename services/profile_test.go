package services

import (
	"fmt"
	"testing"

	"github.com/Guglielmo15/base-incinerator-dapp/models"
)

func seedUsers(t *testing.T, svc *ProfileService, totals map[string]int64) {
	t.Helper()
	for wallet, total := range totals {
		if err := svc.DB.Create(&models.User{WalletAddress: wallet, MagmaPointsTotal: total}).Error; err != nil {
			t.Fatalf("failed to seed %s: %v", wallet, err)
		}
	}
}

func TestGetProfileUnknownWallet(t *testing.T) {
	svc := NewProfileService(openTestDB(t))
	seedUsers(t, svc, map[string]int64{walletB: 300})

	p, err := svc.GetProfile(walletA)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.MagmaPointsTotal != 0 || p.ReferralCount != 0 || p.ReferredByWallet != nil {
		t.Errorf("unknown wallet not zeroed: %+v", p)
	}
	if p.Rank != nil {
		t.Errorf("unknown wallet has rank %d, want null", *p.Rank)
	}
	if p.TotalUsers != 1 {
		t.Errorf("total_users = %d, want 1", p.TotalUsers)
	}
}

func TestGetProfileRankTies(t *testing.T) {
	svc := NewProfileService(openTestDB(t))
	seedUsers(t, svc, map[string]int64{
		walletA: 300,
		walletB: 300,
		walletC: 100,
	})

	for _, wallet := range []string{walletA, walletB} {
		p, err := svc.GetProfile(wallet)
		if err != nil {
			t.Fatalf("GetProfile(%s) failed: %v", wallet, err)
		}
		if p.Rank == nil || *p.Rank != 1 {
			t.Errorf("%s rank = %v, want 1 (ties share)", wallet, p.Rank)
		}
	}

	p, err := svc.GetProfile(walletC)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Rank == nil || *p.Rank != 3 {
		t.Errorf("rank = %v, want 3", p.Rank)
	}
	if p.TotalUsers != 3 {
		t.Errorf("total_users = %d, want 3", p.TotalUsers)
	}
}

func TestGetLeaderboard(t *testing.T) {
	svc := NewProfileService(openTestDB(t))
	seedUsers(t, svc, map[string]int64{
		walletA: 300,
		walletB: 300,
		walletC: 100,
	})

	entries, err := svc.GetLeaderboard(10)
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	wantRanks := []int64{1, 1, 3}
	for i, e := range entries {
		if e.Rank != wantRanks[i] {
			t.Errorf("entry %d rank = %d, want %d", i, e.Rank, wantRanks[i])
		}
	}
	if entries[0].MagmaPointsTotal != 300 || entries[2].MagmaPointsTotal != 100 {
		t.Errorf("ordering wrong: %+v", entries)
	}
}

func TestGetLeaderboardClampsLimit(t *testing.T) {
	svc := NewProfileService(openTestDB(t))
	totals := make(map[string]int64, 30)
	for i := 1; i <= 30; i++ {
		totals[fmt.Sprintf("0x%040x", i)] = int64(i * 10)
	}
	seedUsers(t, svc, totals)

	// A limit beyond the cap clamps to 100, it does not reset to the default.
	entries, err := svc.GetLeaderboard(100000)
	if err != nil {
		t.Fatalf("oversized limit rejected: %v", err)
	}
	if len(entries) != 30 {
		t.Errorf("oversized limit returned %d entries, want all 30", len(entries))
	}

	entries, err = svc.GetLeaderboard(-5)
	if err != nil {
		t.Fatalf("negative limit rejected: %v", err)
	}
	if len(entries) != 25 {
		t.Errorf("negative limit returned %d entries, want default 25", len(entries))
	}

	entries, err = svc.GetLeaderboard(10)
	if err != nil {
		t.Fatalf("in-range limit rejected: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("limit 10 returned %d entries", len(entries))
	}
}
