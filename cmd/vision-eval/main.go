package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/vision-eval/internal/config"
	"github.com/ashwinyue/vision-eval/internal/database"
	"github.com/ashwinyue/vision-eval/internal/handler"
	"github.com/ashwinyue/vision-eval/internal/repository"
	"github.com/ashwinyue/vision-eval/internal/router"
	"github.com/ashwinyue/vision-eval/internal/service"
)

func main() {
	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connected: driver=%s", cfg.Database.Driver)

	// 初始化明细文档存储
	details, err := repository.NewDetailStore(cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("Failed to init detail store: %v", err)
	}

	// Redis 明细缓存，默认关闭
	var cache *repository.DetailCache
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		cache = repository.NewDetailCache(redisClient, time.Duration(cfg.Redis.TTL)*time.Second)
		log.Printf("Redis detail cache enabled: %s", cfg.Redis.GetAddr())
	}

	// 初始化各层
	repos := repository.NewRepositories(db.DB, details, cache)
	services := service.NewServices(repos, cfg)
	handlers := handler.NewHandlers(services)

	// 初始化路由
	r := router.Setup(cfg, handlers)

	// 创建 HTTP 服务器
	srv := &http.Server{
		Addr:         cfg.Server.GetAddr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// 启动服务器
	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
