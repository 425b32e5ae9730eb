package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	configs "task_service/config"
	"task_service/internal/domain"
	"task_service/internal/idempotency"
	"task_service/internal/notify"
	"task_service/internal/repository"
	"task_service/internal/server/taskhttp"
	"task_service/internal/service"
	"task_service/pkg/db"
	"task_service/pkg/kafka"
	"task_service/pkg/logger"

	_ "github.com/lib/pq"
)

func main() {
	log := logger.New()

	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbConfig := db.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	}

	pg, err := db.NewPostgres(dbConfig)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	taskRepo := repository.NewTaskRepository(pg.DB())
	roleRepo := repository.NewRoleRepository(pg.DB())

	kafkaProducer, err := kafka.NewProducer(kafka.Config{
		Brokers: cfg.Kafka.Brokers,
	})
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer kafkaProducer.Close()

	clock := domain.SystemClock{}
	sink := notify.NewKafkaSink(kafkaProducer, cfg.Kafka.Topic, clock)

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})
	defer rdb.Close()
	guard := idempotency.NewRedisGuard(rdb, cfg.Redis.LockTTL)

	taskService := service.NewTaskService(
		taskRepo,
		roleRepo,
		sink,
		guard,
		clock,
		log,
	)

	handler := taskhttp.NewTaskHandler(taskService)

	router := chi.NewRouter()
	router.Use(taskhttp.NewLoggingMiddleware(log))
	handler.RegisterRoutes(router, taskhttp.NewAuthMiddleware())

	server := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: cfg.HTTP.Timeout,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	worker := NewReminderWorker(
		taskRepo,
		sink,
		clock,
		log,
		cfg.Reminder.Interval,
		cfg.Reminder.Lookahead,
	)
	go worker.Start(workerCtx)

	go func() {
		log.Infof("Starting HTTP server on %s", cfg.HTTP.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP server shutdown: %v", err)
	}
	log.Info("Server stopped")
}
