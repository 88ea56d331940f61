package main

import (
	"MoirServer/apps/friend/internal/delivery"
	"MoirServer/apps/friend/internal/greeting"
	"MoirServer/apps/friend/internal/repository"
	"MoirServer/apps/friend/internal/router"
	v1 "MoirServer/apps/friend/internal/router/v1"
	"MoirServer/apps/friend/internal/service"
	"MoirServer/config"
	"MoirServer/model"
	"MoirServer/pkg/async"
	"MoirServer/pkg/ctxmeta"
	pkgkafka "MoirServer/pkg/kafka"
	"MoirServer/pkg/logger"
	pkgmysql "MoirServer/pkg/mysql"
	pkgredis "MoirServer/pkg/redis"
	"MoirServer/pkg/util"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认在当前及上级目录查找 config.yaml）")
	flag.Parse()

	ctx := ctxmeta.WithTraceID(context.Background(), "0")

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	l, err := logger.Build(cfg.Logger)
	if err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	logger.ReplaceGlobal(l)
	defer func() {
		// Sync 对 stdout 可能返回错误，忽略
		_ = logger.L().Sync()
	}()

	logger.Info(ctx, "Friend 服务初始化中...")

	// 3. 基础组件：ID 生成、协程池、令牌校验
	if err := util.InitSnowflake(cfg.Server.NodeID); err != nil {
		logger.Fatal(ctx, "初始化雪花算法失败", logger.ErrorField("error", err))
	}
	if err := async.Init(cfg.Async); err != nil {
		logger.Fatal(ctx, "初始化协程池失败", logger.ErrorField("error", err))
	}
	async.SetContextPropagator(ctxmeta.Detach)
	util.SetJWTConfig(cfg.JWT)

	// 4. 初始化 MySQL
	db, err := pkgmysql.Build(cfg.MySQL)
	if err != nil {
		logger.Fatal(ctx, "初始化 MySQL 失败", logger.ErrorField("error", err))
	}
	pkgmysql.ReplaceGlobal(db)
	if cfg.MySQL.AutoMigrate {
		if err := db.AutoMigrate(&model.FriendRequest{}, &model.Chat{}, &model.Notification{}, &model.UserInfo{}); err != nil {
			logger.Fatal(ctx, "自动建表失败", logger.ErrorField("error", err))
		}
	}
	logger.Info(ctx, "MySQL 初始化成功", logger.String("host", cfg.MySQL.Host))

	// 5. 初始化 Redis（失败不阻塞启动：未读计数退化为直接 COUNT，限流退化为进程内）
	var redisClient *redis.Client
	redisClient, err = pkgredis.Build(cfg.Redis)
	if err != nil {
		logger.Error(ctx, "初始化 Redis 失败，降级运行", logger.ErrorField("error", err))
		redisClient = nil
	} else {
		pkgredis.ReplaceGlobal(redisClient)
		logger.Info(ctx, "Redis 初始化成功", logger.String("addr", cfg.Redis.Addr))
	}

	// 6. 初始化 Kafka 生产者（通知推送）
	producer := pkgkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic,
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithLogger(l),
	)
	logger.Info(ctx, "Kafka 生产者初始化完成",
		logger.Strings("brokers", cfg.Kafka.Brokers),
		logger.String("topic", producer.Topic()),
	)

	// 7. 招呼语生成（未配置地址时只用默认文本）
	var generator greeting.MessageGenerator
	if cfg.Greeting.Endpoint != "" {
		generator = greeting.NewHTTPGenerator(cfg.Greeting, nil)
		logger.Info(ctx, "招呼语生成服务已启用", logger.String("endpoint", cfg.Greeting.Endpoint))
	}
	greeter := greeting.WithFallback(generator, cfg.Greeting.Fallback, cfg.Greeting.Timeout)

	// 8. Repository / Service / Handler（依赖注入）
	requestRepo := repository.NewFriendRequestRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db, redisClient)
	userRepo := repository.NewUserRepository(db)

	chats := service.NewChatProvisioner(chatRepo)
	dispatcher := service.NewNotificationDispatcher(notificationRepo, userRepo, delivery.NewKafkaChannel(producer), cfg.Kafka.WriteTimeout)
	friendService := service.NewFriendService(requestRepo, userRepo, chats, dispatcher, greeter)
	notificationService := service.NewNotificationService(notificationRepo)

	friendHandler := v1.NewFriendHandler(friendService)
	notificationHandler := v1.NewNotificationHandler(notificationService)

	// 9. 初始化路由
	gin.SetMode(cfg.Server.GinMode)
	r := router.InitRouter(friendHandler, notificationHandler, router.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.RateLimit,
		RedisClient:    redisClient,
	})

	srv := &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 最大请求头 1MB
	}

	// 10. 启动服务器
	go func() {
		logger.Info(ctx, "Friend 服务器启动中", logger.String("address", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "服务器启动失败", logger.ErrorField("error", err))
		}
	}()

	// 11. 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info(ctx, "收到关闭信号，开始优雅停机...", logger.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "服务器强制关闭", logger.ErrorField("error", err))
	}

	// 先等异步推送任务结束，再关闭生产者
	if err := async.Release(); err != nil {
		logger.Warn(ctx, "协程池释放超时", logger.ErrorField("error", err))
	}
	if err := producer.Close(); err != nil {
		logger.Error(ctx, "关闭 Kafka 生产者失败", logger.ErrorField("error", err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info(ctx, "Friend 服务已优雅退出")
}
