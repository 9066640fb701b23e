package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Guglielmo15/base-incinerator-dapp/handlers"
	"github.com/Guglielmo15/base-incinerator-dapp/models"
	"github.com/Guglielmo15/base-incinerator-dapp/services"
	"github.com/Guglielmo15/base-incinerator-dapp/utils"
	"github.com/Guglielmo15/base-incinerator-dapp/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024, // 1MB, JSON API only
	})

	// CORS for the dApp front-end
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOriginsString,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With",
		MaxAge:       86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError so the duplicate tx-hash race surfaces as
	// gorm.ErrDuplicatedKey and the ledger can turn it into already_counted.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.BurnRecord{},
		&models.AssetHolding{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	// --- Chain oracle (burn verification) ---
	oracleURL := os.Getenv("ORACLE_API_URL")
	if oracleURL == "" {
		log.Fatal("ORACLE_API_URL environment variable not set")
	}
	incineratorAddress := os.Getenv("INCINERATOR_ADDRESS")
	if incineratorAddress == "" {
		log.Fatal("INCINERATOR_ADDRESS environment variable not set")
	}
	network := os.Getenv("CHAIN_NETWORK")
	if network == "" {
		log.Println("⚠️  CHAIN_NETWORK not set, defaulting to base-mainnet")
		network = "base-mainnet"
	}

	oracle := services.NewOracleClient(oracleURL, network, os.Getenv("ORACLE_API_KEY"))

	ledgerService, err := services.NewLedgerService(db, oracle, incineratorAddress, services.LoadPointWeights())
	if err != nil {
		log.Fatal("failed to initialize ledger:", err)
	}
	profileService := services.NewProfileService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Asset inventory mirror (optional: front-end dropdown data) ---
	assetAPIURL := os.Getenv("ASSET_API_URL")
	if assetAPIURL != "" {
		assetService := services.NewAssetService(db, assetAPIURL, network, os.Getenv("ASSET_API_KEY"))
		handlers.SetupAssetRoutes(app, assetService)
		go workers.PollStaleHoldings(ctx, assetService, 30*time.Second)
	} else {
		log.Println("⚠️  ASSET_API_URL not set — asset inventory routes disabled")
	}

	// --- Leaderboard snapshot export (optional: needs R2 credentials) ---
	snapshotEnabled := os.Getenv("CLOUDFLARE_ACCOUNT_ID") != ""
	if snapshotEnabled {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		profileService.StartSnapshotScheduler(network)
	} else {
		log.Println("⚠️  R2 not configured — leaderboard snapshot export disabled")
	}

	handlers.SetupBurnRoutes(app, ledgerService)
	handlers.SetupProfileRoutes(app, profileService, network, snapshotEnabled)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Printf("✅ Incinerator: %s on %s", ledgerService.Incinerator, network)
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
