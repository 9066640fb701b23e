// handlers/burn_routes.go
package handlers

import (
	"errors"

	"github.com/Guglielmo15/base-incinerator-dapp/services"

	"github.com/gofiber/fiber/v2"
)

func SetupBurnRoutes(app *fiber.App, ledger *services.LedgerService) {
	// Called by the front-end once its burn transaction is confirmed.
	// Duplicate submissions (double-click, client retry after timeout) come
	// back as 200 with already_counted=true; that is success, not an error.
	app.Post("/api/v1/burns", func(c *fiber.Ctx) error {
		var req struct {
			WalletAddress string  `json:"wallet_address"`
			TxHash        string  `json:"tx_hash"`
			Referrer      *string `json:"referrer"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		referrer := ""
		if req.Referrer != nil {
			referrer = *req.Referrer
		}

		res, err := ledger.RecordBurn(c.Context(), req.WalletAddress, req.TxHash, referrer)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidInput):
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error":   "invalid wallet address or transaction hash",
					"details": err.Error(),
				})
			case errors.Is(err, services.ErrInvalidBurn):
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error":   "transaction is not a valid burn",
					"details": err.Error(),
				})
			case errors.Is(err, services.ErrOracleUnavailable):
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error":   "chain oracle unavailable, try again later",
					"details": err.Error(),
				})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to record burn",
					"cause": err.Error(),
				})
			}
		}

		return c.JSON(fiber.Map{
			"success":                 true,
			"already_counted":         res.AlreadyCounted,
			"wallet_address":          res.WalletAddress,
			"magma_points_total":      res.MagmaPointsTotal,
			"awarded_points":          res.AwardedPoints,
			"referral_points_awarded": res.ReferralPointsAwarded,
			"is_new_user":             res.IsNewUser,
		})
	})
}
