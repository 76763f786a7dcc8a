package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"swap-route.backend/internal/config"
	"swap-route.backend/internal/infrastructure/blockchain"
	"swap-route.backend/internal/infrastructure/jobs"
	"swap-route.backend/internal/infrastructure/repositories"
	"swap-route.backend/internal/infrastructure/swapnet"
	"swap-route.backend/internal/interfaces/http/handlers"
	"swap-route.backend/internal/interfaces/http/middleware"
	"swap-route.backend/internal/usecases"
	"swap-route.backend/pkg/jwt"
	"swap-route.backend/pkg/keyvault"
	"swap-route.backend/pkg/logger"
	"swap-route.backend/pkg/redis"
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	openChain = func(rpcURL string) (*blockchain.EVMClient, error) {
		return blockchain.NewEVMClient(rpcURL)
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	// Load .env file
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := loadCfg()

	// Initialize Logger
	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "Logger initialized", zap.String("env", cfg.Server.Env))

	// Initialize Redis
	if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
		logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "Redis initialized")

	// Set Gin mode
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database using GORM
	dsn := cfg.Database.URL()
	db, err := openDB(dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Printf("⚠️ Database not available: %v (endpoints will return errors)", err)
	} else {
		log.Println("✅ Connected to PostgreSQL via GORM")
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	// Initialize key vault for ephemeral companion wallets
	vault, err := keyvault.NewVault(cfg.Security.KeyVaultEncryptionKey)
	if err != nil {
		return fmt.Errorf("failed to initialize key vault: %w", err)
	}

	// Initialize repositories
	intentRepo := repositories.NewPaymentIntentRepository(db)
	eventRepo := repositories.NewIntentEventRepository(db)
	planRepo := repositories.NewCompanionPlanRepository(db)

	// Initialize swap network gateway
	gateway := swapnet.NewClient(cfg.SwapNetwork.BaseURL, cfg.SwapNetwork.APIKey, cfg.SwapNetwork.Timeout)

	// Initialize chain client
	chainClient, err := openChain(cfg.Chain.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to connect to chain RPC: %w", err)
	}
	defer chainClient.Close()

	// Initialize usecases
	companionRouter := usecases.NewCompanionRouter(
		planRepo,
		eventRepo,
		gateway,
		vault,
		cfg.Companion.IntermediateAsset,
		cfg.Companion.FeeMultiplier,
		cfg.Companion.KeyTTL,
		cfg.SwapNetwork.SlippageBps,
	)
	depositUsecase := usecases.NewDepositUsecase(
		intentRepo,
		eventRepo,
		gateway,
		companionRouter,
		cfg.SwapNetwork.DepositDeadline,
		cfg.SwapNetwork.SlippageBps,
	)

	// Initialize handlers
	depositHandler := handlers.NewDepositHandler(depositUsecase)

	// Create auth middleware
	authMiddleware := middleware.AuthMiddleware(jwtService, cfg.Security.APITokenHash)

	// Start background reconcilers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	locks := redis.NewLockManager()

	intentReconciler := jobs.NewIntentReconciler(
		intentRepo,
		eventRepo,
		gateway,
		locks,
		cfg.Reconciler.Interval,
		cfg.Reconciler.LockTTL,
		cfg.Reconciler.Retention,
		cfg.Reconciler.BatchLimit,
	)
	go intentReconciler.Start(ctx)

	companionReconciler := jobs.NewCompanionReconciler(
		planRepo,
		eventRepo,
		gateway,
		chainClient,
		vault,
		locks,
		cfg.Reconciler.CompanionInterval,
		cfg.Reconciler.LockTTL,
		cfg.Reconciler.Retention,
		cfg.Reconciler.BatchLimit,
		cfg.SwapNetwork.SlippageBps,
		cfg.Companion.DustWei,
	)
	go companionReconciler.Start(ctx)

	// Initialize router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r)
	registerAPIV1Routes(r, routeDeps{
		depositHandler: depositHandler,
		authMiddleware: authMiddleware,
	})

	// Graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("🛑 Shutting down server...")
		intentReconciler.Stop()
		companionReconciler.Stop()
		cancel()
	}()

	// Start server
	log.Printf("🚀 Swap-Route Backend starting on port %s", cfg.Server.Port)
	log.Printf("📚 API: http://localhost:%s/api/v1", cfg.Server.Port)
	log.Printf("❤️ Health: http://localhost:%s/health", cfg.Server.Port)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
