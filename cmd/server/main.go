package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"school-portal/backend/config"
	"school-portal/backend/internal/api/handler"
	"school-portal/backend/internal/api/middleware"
	"school-portal/backend/internal/api/router"
	"school-portal/backend/internal/realtime"
	"school-portal/backend/internal/repository"
	"school-portal/backend/internal/service"
	"school-portal/backend/pkg/database"
	"school-portal/backend/pkg/jwt"
	applogger "school-portal/backend/pkg/logger"
	"school-portal/backend/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	// 以接口变量承接，避免 nil *Client 被包装成非 nil 接口
	var (
		blacklist service.TokenBlacklist
		limiter   middleware.RateLimiter
		broker    realtime.Broker
	)
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败：Token 黑名单、限流与跨实例推送不可用", zap.Error(err))
	} else {
		blacklist, limiter, broker = rdb, rdb, rdb
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 实时推送 Hub
	rootCtx, stopHub := context.WithCancel(context.Background())
	hub := realtime.NewHub(realtime.OptionsFromConfig(&cfg.Realtime), broker, logger)
	go hub.Run(rootCtx)

	// 7. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, hub, logger)
	h := handler.NewHandler(svc, jwtMgr, blacklist, hub)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, router.Deps{
		JWT:        jwtMgr,
		Revocation: blacklist,
		Limiter:    limiter,
		DB:         db,
	}, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	// WebSocket 长连接不受 WriteTimeout 影响：升级后连接由 Hub 自行管理读写期限
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 断开全部 WebSocket 连接
	stopHub()

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
