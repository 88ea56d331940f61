package main

import (
	"MoirServer/apps/connect/internal/consumer"
	"MoirServer/apps/connect/internal/handler"
	"MoirServer/apps/connect/internal/manager"
	"MoirServer/apps/connect/internal/server"
	"MoirServer/apps/connect/internal/svc"
	"MoirServer/config"
	"MoirServer/pkg/ctxmeta"
	pkgkafka "MoirServer/pkg/kafka"
	"MoirServer/pkg/logger"
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

	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	ctx := ctxmeta.WithTraceID(context.Background(), "0")

	// 1) 配置与日志
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	l, err := logger.Build(cfg.Logger)
	if err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	logger.ReplaceGlobal(l)
	defer func() {
		_ = l.Sync()
	}()
	util.SetJWTConfig(cfg.JWT)

	// 2) Redis：不可用时降级为仅 JWT 校验、不记录设备活跃时间
	var redisClient *redis.Client
	redisClient, err = pkgredis.Build(cfg.Redis)
	if err != nil {
		logger.Warn(ctx, "Connect 服务 Redis 初始化失败，降级为无 Redis 模式", logger.ErrorField("error", err))
		redisClient = nil
	} else {
		pkgredis.ReplaceGlobal(redisClient)
	}

	connManager := manager.NewConnectionManager()
	connectSvc := svc.NewConnectService(redisClient)
	srv := server.New(cfg.Server, handler.NewWSHandler(connManager, connectSvc))

	// 3) 通知消费：每个实例每次启动独立消费组，收全量推送且不补推停机期间的消息
	hostname, _ := os.Hostname()
	groupID := consumer.InstanceGroupID(cfg.Kafka.ConsumerConfig.GroupID, hostname)
	notifyConsumer := pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.NotificationTopic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.ConsumerConfig.MinBytes,
		MaxBytes:       cfg.Kafka.ConsumerConfig.MaxBytes,
		CommitInterval: cfg.Kafka.ConsumerConfig.CommitInterval,
	}, l)
	logger.Info(ctx, "通知消费组", logger.String("group_id", groupID))

	consumeCtx, stopConsume := context.WithCancel(ctx)
	consumeDone := make(chan struct{})
	go func() {
		defer close(consumeDone)
		if err := notifyConsumer.Run(consumeCtx, consumer.NewNotificationConsumer(connManager).Handle); err != nil {
			logger.Error(ctx, "通知消费退出", logger.ErrorField("error", err))
		}
	}()

	// 4) HTTP 监听
	go func() {
		logger.Info(ctx, "Connect 服务启动中", logger.String("addr", cfg.Server.ConnectAddr))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "Connect 服务启动失败", logger.ErrorField("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// 5) 优雅停机：先停消费，再断开连接，最后关闭 HTTP
	logger.Info(ctx, "Connect 服务开始优雅停机")
	stopConsume()
	<-consumeDone
	if err := notifyConsumer.Close(); err != nil {
		logger.Warn(ctx, "关闭 Kafka 消费者失败", logger.ErrorField("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownWait)
	defer cancel()

	connManager.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Connect 服务优雅停机失败", logger.ErrorField("error", err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info(ctx, "Connect 服务已退出")
}
