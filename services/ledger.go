// services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Guglielmo15/base-incinerator-dapp/models"
	"github.com/Guglielmo15/base-incinerator-dapp/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidInput: malformed wallet or tx hash; the caller must fix it.
	ErrInvalidInput = errors.New("invalid wallet address or transaction hash")
	// ErrInvalidBurn: on-chain facts don't match the claim; never retry the
	// same hash. The wrapped message carries the observed from/to/status.
	ErrInvalidBurn = errors.New("transaction is not a valid burn")
)

// PointWeights define award sizes (overridable via env)
type PointWeights struct {
	BurnAward     int64
	ReferralBonus int64
}

var DefaultPointWeights = PointWeights{
	BurnAward:     100,
	ReferralBonus: 10,
}

// LoadPointWeights reads BURN_AWARD_POINTS / REFERRAL_BONUS_POINTS,
// falling back to the defaults.
func LoadPointWeights() PointWeights {
	w := DefaultPointWeights
	if v := os.Getenv("BURN_AWARD_POINTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			w.BurnAward = n
		} else {
			log.Printf("⚠️  Ignoring invalid BURN_AWARD_POINTS=%q", v)
		}
	}
	if v := os.Getenv("REFERRAL_BONUS_POINTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			w.ReferralBonus = n
		} else {
			log.Printf("⚠️  Ignoring invalid REFERRAL_BONUS_POINTS=%q", v)
		}
	}
	return w
}

// LedgerService is the authoritative writer of MAGMA points. All award state
// lives in the DB; correctness under concurrent calls comes from the unique
// index on burn_records.tx_hash, not from any in-process lock.
type LedgerService struct {
	DB          *gorm.DB
	Oracle      TxOracle
	Incinerator string // canonical lowercase incinerator contract address
	Weights     PointWeights
}

func NewLedgerService(db *gorm.DB, oracle TxOracle, incineratorAddress string, weights PointWeights) (*LedgerService, error) {
	incinerator, ok := utils.NormalizeAddress(incineratorAddress)
	if !ok {
		return nil, fmt.Errorf("invalid incinerator contract address: %q", incineratorAddress)
	}
	return &LedgerService{
		DB:          db,
		Oracle:      oracle,
		Incinerator: incinerator,
		Weights:     weights,
	}, nil
}

// BurnResult is the outcome of a successful (or idempotent) RecordBurn call.
type BurnResult struct {
	AlreadyCounted        bool
	WalletAddress         string
	MagmaPointsTotal      int64
	AwardedPoints         int64
	ReferralPointsAwarded int64
	IsNewUser             bool
}

// RecordBurn validates a claimed burn transaction against the chain oracle
// and applies point awards exactly once per tx hash.
//
// Order matters: normalize → dedup check → oracle verification → one DB
// transaction for all mutations. The upfront dedup check only short-circuits
// cheap duplicates; the race between two concurrent calls for the same hash
// is decided by the unique index at insert time.
func (s *LedgerService) RecordBurn(ctx context.Context, walletClaim, txHashClaim, referrerClaim string) (*BurnResult, error) {
	wallet, ok := utils.NormalizeAddress(walletClaim)
	if !ok {
		return nil, fmt.Errorf("%w: bad wallet %q", ErrInvalidInput, walletClaim)
	}
	txHash, ok := utils.NormalizeTxHash(txHashClaim)
	if !ok {
		return nil, fmt.Errorf("%w: bad tx hash %q", ErrInvalidInput, txHashClaim)
	}

	// A malformed or self-pointing referrer is dropped silently; the burn
	// itself still counts.
	referrer := ""
	if strings.TrimSpace(referrerClaim) != "" {
		if norm, ok := utils.NormalizeAddress(referrerClaim); ok && norm != wallet {
			referrer = norm
		}
	}

	// Cheap duplicate check before paying for an oracle round-trip.
	if res, dup, err := s.duplicateResult(wallet, txHash); err != nil {
		return nil, err
	} else if dup {
		log.Printf("♻️  Duplicate burn submission for tx %s (wallet %s)", txHash, wallet)
		return res, nil
	}

	info, err := s.Oracle.FetchTransaction(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if info.From != wallet || info.To != s.Incinerator || !info.StatusOK {
		return nil, fmt.Errorf("%w: observed from=%s to=%s status_ok=%t (expected from=%s to=%s)",
			ErrInvalidBurn, info.From, info.To, info.StatusOK, wallet, s.Incinerator)
	}

	result := &BurnResult{
		WalletAddress: wallet,
		AwardedPoints: s.Weights.BurnAward,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var burner models.User
		err := tx.Where("wallet_address = ?", wallet).First(&burner).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result.IsNewUser = true
			burner = models.User{
				WalletAddress:    wallet,
				MagmaPointsTotal: s.Weights.BurnAward,
			}
			if referrer != "" {
				burner.ReferredByWallet = &referrer
			}
			if err := tx.Create(&burner).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			// Increments happen in SQL, not on the values read above:
			// a concurrent burn for the same wallet (different hash) commits
			// between our read and write under READ COMMITTED, and a full-row
			// write would silently erase its award. COALESCE keeps whichever
			// referrer landed first.
			updates := map[string]interface{}{
				"magma_points_total": gorm.Expr("magma_points_total + ?", s.Weights.BurnAward),
			}
			if referrer != "" {
				updates["referred_by_wallet"] = gorm.Expr("COALESCE(referred_by_wallet, ?)", referrer)
			}
			if err := tx.Model(&models.User{}).
				Where("wallet_address = ?", wallet).
				Updates(updates).Error; err != nil {
				return err
			}
			// Re-read for the authoritative total and referrer; our UPDATE
			// holds the row lock, so this is stable until commit.
			if err := tx.Where("wallet_address = ?", wallet).First(&burner).Error; err != nil {
				return err
			}
		}

		// The effective referrer is whatever ended up on the row, which may
		// be an earlier claim overriding this call's one.
		effective := ""
		if burner.ReferredByWallet != nil {
			effective = *burner.ReferredByWallet
		}

		if effective != "" && effective != wallet {
			// Headcount only moves on the burner's first-ever recorded burn;
			// repeat burns keep paying points without inflating it.
			headcount := int64(0)
			if result.IsNewUser {
				headcount = 1
			}
			ref := models.User{
				WalletAddress:        effective,
				MagmaPointsTotal:     s.Weights.ReferralBonus,
				ReferralPointsEarned: s.Weights.ReferralBonus,
				ReferralCount:        headcount,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "wallet_address"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"magma_points_total":     gorm.Expr("users.magma_points_total + ?", s.Weights.ReferralBonus),
					"referral_points_earned": gorm.Expr("users.referral_points_earned + ?", s.Weights.ReferralBonus),
					"referral_count":         gorm.Expr("users.referral_count + ?", headcount),
					"updated_at":             time.Now(),
				}),
			}).Create(&ref).Error; err != nil {
				return err
			}
			result.ReferralPointsAwarded = s.Weights.ReferralBonus
		}

		burn := models.BurnRecord{
			ID:            uuid.NewString(),
			WalletAddress: wallet,
			TxHash:        txHash,
			PointsAwarded: s.Weights.BurnAward,
		}
		if err := tx.Create(&burn).Error; err != nil {
			return err
		}

		result.MagmaPointsTotal = burner.MagmaPointsTotal
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race. The whole transaction rolled back, so nothing was
			// double-credited; report the winner's outcome if the burn record
			// is there. A duplicate-key on the users row without a committed
			// burn record is a genuine conflict: surface it, retry is safe.
			if res, dup, lookupErr := s.duplicateResult(wallet, txHash); lookupErr == nil && dup {
				log.Printf("♻️  Concurrent duplicate for tx %s resolved as already counted", txHash)
				return res, nil
			}
			return nil, fmt.Errorf("conflicting concurrent write for wallet %s: %w", wallet, err)
		}
		return nil, err
	}

	log.Printf("🔥 Burn recorded: wallet=%s tx=%s +%d points (referral +%d, new_user=%t)",
		wallet, txHash, result.AwardedPoints, result.ReferralPointsAwarded, result.IsNewUser)
	return result, nil
}

// duplicateResult reports whether txHash has already been counted, and if so
// builds the idempotent success response (zero new points, current total).
func (s *LedgerService) duplicateResult(wallet, txHash string) (*BurnResult, bool, error) {
	var burn models.BurnRecord
	err := s.DB.Where("tx_hash = ?", txHash).First(&burn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var total int64
	var user models.User
	err = s.DB.Where("wallet_address = ?", wallet).First(&user).Error
	if err == nil {
		total = user.MagmaPointsTotal
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	return &BurnResult{
		AlreadyCounted:   true,
		WalletAddress:    wallet,
		MagmaPointsTotal: total,
	}, true, nil
}
