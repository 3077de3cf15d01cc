// Package routes wires repositories, services and handlers onto the fiber
// application.
package routes

import (
	"fundlink/internal/config"
	"fundlink/internal/gateway"
	"fundlink/internal/handlers"
	"fundlink/internal/locks"
	"fundlink/internal/middleware"
	"fundlink/internal/repositories"
	"fundlink/internal/repositories/cache"
	"fundlink/internal/services/account"
	"fundlink/internal/services/ledger"
	"fundlink/internal/services/pin"
	"fundlink/internal/services/transfer"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRoutes builds the service graph and registers all routes. redisClient
// may be nil; the balance cache and distributed locking then degrade to
// in-process equivalents.
func SetupRoutes(app *fiber.App, db *gorm.DB, redisClient *redis.Client, collector transfer.MetricsCollector, logger *zap.Logger) {
	accountRepo := repositories.NewAccountRepository(db)
	ledgerRepo := repositories.NewLedgerRepository(db)
	userRepo := repositories.NewUserRepository(db)
	transferRepo := repositories.NewTransferRepository(db)

	guard := pin.NewGuard()
	gw := gateway.NewBreaker(gateway.NewSimulated(config.GatewayFromEnv(), logger), logger)

	var balanceCache *cache.BalanceCache
	var locker locks.Locker = locks.NewKeyedLocker()
	if redisClient != nil {
		balanceCache = cache.NewBalanceCache(redisClient)
		locker = locks.NewRedisLocker(redisClient)
	}

	var accountCache account.BalanceCache
	var invalidator transfer.BalanceInvalidator
	if balanceCache != nil {
		accountCache = balanceCache
		invalidator = balanceCache
	}

	accountService := account.NewService(accountRepo, ledgerRepo, userRepo, gw, guard, accountCache, logger)
	ledgerService := ledger.NewService(ledgerRepo, accountRepo)
	transferService := transfer.NewEngine(transferRepo, guard, gw, locker, invalidator, collector, logger)

	paymentHandler := handlers.NewPaymentHandler(accountService, transferService, ledgerService, logger)
	healthHandler := handlers.NewHealthHandler(db, redisClient)

	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api", middleware.Auth())

	payments := api.Group("/payments")
	payments.Post("/link", paymentHandler.LinkAccount)
	payments.Get("/accounts", paymentHandler.GetAccounts)
	payments.Delete("/accounts/:id", paymentHandler.DeleteAccount)
	payments.Post("/accounts/:id/primary", paymentHandler.SetPrimaryAccount)
	payments.Post("/check-balance", paymentHandler.CheckBalance)
	payments.Post("/transfer", paymentHandler.Transfer)
	payments.Post("/transfer-external", paymentHandler.TransferExternal)
	payments.Get("/history", paymentHandler.GetHistory)
	payments.Get("/banks", paymentHandler.GetSupportedBanks)
	payments.Get("/search", paymentHandler.SearchRecipient)
	payments.Delete("/reset", middleware.AdminOnly, paymentHandler.ResetMoneyData)

	admin := api.Group("/admin", middleware.AdminOnly)
	admin.Get("/reconcile/:id", paymentHandler.Reconcile)
}
