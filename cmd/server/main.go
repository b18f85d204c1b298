package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/entity"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/handler"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/repository"
	"github.com/Adams-ibr/Commodity-sub003/internal/commodity/service"
	"github.com/Adams-ibr/Commodity-sub003/internal/config"
	"github.com/Adams-ibr/Commodity-sub003/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting commodity service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 自动迁移商品域表
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate tables", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis(收货幂等快路径,未配置时降级为仅数据库判重)
	rdb := initRedis(cfg.Redis, zapLogger)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, rdb)
	handlers := handler.NewHandlers(services)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "commodity"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "commodity"})
	})

	// 版本信息
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "commodity",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func registerRoutes(router *gin.Engine, handlers *handler.Handlers, cfg *config.Config) {
	v1 := router.Group("/api/v1/commodity")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 仓库
		warehouses := v1.Group("/warehouses")
		{
			warehouses.GET("", handlers.Warehouse.List)
			warehouses.GET("/:id", handlers.Warehouse.Get)
			// 主数据变更仅限管理员
			warehouses.POST("", middleware.RequireRole("warehouse_admin"), handlers.Warehouse.Create)
			warehouses.POST("/:id/deactivate", middleware.RequireRole("warehouse_admin"), handlers.Warehouse.Deactivate)
		}

		// 供应商
		suppliers := v1.Group("/suppliers")
		{
			suppliers.GET("", handlers.Supplier.List)
			suppliers.GET("/:id", handlers.Supplier.Get)
			suppliers.POST("", middleware.RequireRole("supplier_admin"), handlers.Supplier.Create)
			suppliers.PUT("/:id/status", middleware.RequireRole("supplier_admin"), handlers.Supplier.UpdateStatus)
		}

		// 采购合同
		contracts := v1.Group("/contracts")
		{
			contracts.GET("", handlers.Contract.List)
			contracts.POST("", handlers.Contract.Create)
			contracts.GET("/:id", handlers.Contract.Get)
			contracts.POST("/:id/transition", handlers.Contract.Transition)
		}

		// 批次
		batches := v1.Group("/batches")
		{
			batches.GET("", handlers.Batch.List)
			batches.POST("/receive", handlers.Batch.Receive)
			batches.GET("/:id", handlers.Batch.Get)
			batches.POST("/:id/approve", handlers.Batch.Approve)
			batches.POST("/:id/reject", handlers.Batch.Reject)
			batches.GET("/:id/lineage", handlers.Batch.Lineage)
			batches.POST("/:id/transfer", handlers.Batch.Transfer)
			batches.GET("/:id/movements", handlers.Batch.Movements)
		}

		// 加工单
		orders := v1.Group("/processing-orders")
		{
			orders.GET("", handlers.Processing.List)
			orders.POST("", handlers.Processing.Create)
			orders.GET("/:id", handlers.Processing.Get)
			orders.POST("/:id/start", handlers.Processing.Start)
			orders.POST("/:id/complete", handlers.Processing.Complete)
			orders.POST("/:id/cancel", handlers.Processing.Cancel)
		}

		// 报表导出
		reports := v1.Group("/reports")
		{
			reports.GET("/batches", handlers.Report.ExportBatches)
			reports.GET("/movements", handlers.Report.ExportMovements)
		}
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}

func initRedis(cfg config.RedisConfig, zapLogger *zap.Logger) *redis.Client {
	if cfg.Host == "" {
		zapLogger.Warn("Redis not configured, receipt idempotency uses database only")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}
