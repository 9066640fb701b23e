// handlers/asset_routes.go
package handlers

import (
	"github.com/Guglielmo15/base-incinerator-dapp/services"
	"github.com/Guglielmo15/base-incinerator-dapp/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupAssetRoutes(app *fiber.App, assetService *services.AssetService) {
	// Populates the front-end token dropdown. Cached-or-fresh; a dead indexer
	// with a warm mirror still answers.
	app.Get("/api/v1/assets", func(c *fiber.Ctx) error {
		wallet, ok := utils.NormalizeAddress(c.Query("wallet"))
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid wallet address",
			})
		}

		holdings, err := assetService.GetHoldings(c.Context(), wallet)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "failed to load token holdings",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"wallet_address": wallet,
			"holdings":       holdings,
		})
	})
}
