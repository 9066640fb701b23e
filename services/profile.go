// services/profile.go
package services

import (
	"errors"

	"github.com/Guglielmo15/base-incinerator-dapp/models"

	"gorm.io/gorm"
)

// ProfileService serves read-only aggregations over the points ledger.
// Reads are not transactionally tied to in-flight burns; momentarily stale
// ranks and totals are fine.
type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

type Profile struct {
	WalletAddress        string  `json:"wallet_address"`
	MagmaPointsTotal     int64   `json:"magma_points_total"`
	ReferralPointsEarned int64   `json:"referral_points_earned"`
	ReferralCount        int64   `json:"referral_count"`
	ReferredByWallet     *string `json:"referred_by_wallet"`
	Rank                 *int64  `json:"rank"` // null until the wallet has activity
	TotalUsers           int64   `json:"total_users"`
}

// GetProfile returns the wallet's ledger view. An unknown wallet is not an
// error: it just has no activity yet, so everything is zeroed and rank is
// null. TotalUsers is reported either way.
func (s *ProfileService) GetProfile(wallet string) (*Profile, error) {
	p := &Profile{WalletAddress: wallet}

	if err := s.DB.Model(&models.User{}).Count(&p.TotalUsers).Error; err != nil {
		return nil, err
	}

	var user models.User
	err := s.DB.Where("wallet_address = ?", wallet).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	p.MagmaPointsTotal = user.MagmaPointsTotal
	p.ReferralPointsEarned = user.ReferralPointsEarned
	p.ReferralCount = user.ReferralCount
	p.ReferredByWallet = user.ReferredByWallet

	// Dense ranking: 1 + number of strictly greater totals. Ties share a rank.
	var greater int64
	if err := s.DB.Model(&models.User{}).
		Where("magma_points_total > ?", user.MagmaPointsTotal).
		Count(&greater).Error; err != nil {
		return nil, err
	}
	rank := greater + 1
	p.Rank = &rank

	return p, nil
}

type LeaderboardEntry struct {
	Rank             int64  `json:"rank"`
	WalletAddress    string `json:"wallet_address"`
	MagmaPointsTotal int64  `json:"magma_points_total"`
	ReferralCount    int64  `json:"referral_count"`
}

// GetLeaderboard returns the top wallets by points. Ranks follow the same
// strictly-greater rule as GetProfile, so equal totals share a number.
func (s *ProfileService) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 25
	} else if limit > 100 {
		limit = 100
	}

	var users []models.User
	if err := s.DB.Order("magma_points_total DESC, wallet_address ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(users))
	var prevScore int64
	var prevRank int64
	for i, u := range users {
		rank := int64(i + 1)
		if i > 0 && u.MagmaPointsTotal == prevScore {
			rank = prevRank
		}
		entries[i] = LeaderboardEntry{
			Rank:             rank,
			WalletAddress:    u.WalletAddress,
			MagmaPointsTotal: u.MagmaPointsTotal,
			ReferralCount:    u.ReferralCount,
		}
		prevScore = u.MagmaPointsTotal
		prevRank = rank
	}
	return entries, nil
}
