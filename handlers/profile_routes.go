// handlers/profile_routes.go
package handlers

import (
	"strconv"

	"github.com/Guglielmo15/base-incinerator-dapp/middleware"
	"github.com/Guglielmo15/base-incinerator-dapp/services"
	"github.com/Guglielmo15/base-incinerator-dapp/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupProfileRoutes(app *fiber.App, profileService *services.ProfileService, snapshotNetwork string, snapshotEnabled bool) {
	app.Get("/api/v1/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/api/v1/profile", func(c *fiber.Ctx) error {
		wallet, ok := utils.NormalizeAddress(c.Query("wallet"))
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid wallet address",
			})
		}

		profile, err := profileService.GetProfile(wallet)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load profile",
				"cause": err.Error(),
			})
		}
		return c.JSON(profile)
	})

	app.Get("/api/v1/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "25"))
		entries, err := profileService.GetLeaderboard(limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"entries": entries,
		})
	})

	// Admin endpoints
	adminGroup := app.Group("/api/v1/admin", middleware.ServiceAuthMiddleware())

	adminGroup.Post("/snapshot", func(c *fiber.Ctx) error {
		if !snapshotEnabled {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "snapshot export not configured (R2 credentials missing)",
			})
		}
		if err := profileService.ExportSnapshot(snapshotNetwork); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "snapshot export failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message": "snapshot exported",
		})
	})
}
