package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"repairdesk/config"
	"repairdesk/handler"
	"repairdesk/middleware"
	"repairdesk/notification"
	"repairdesk/repository"
	"repairdesk/routes"
	"repairdesk/schema"
	"repairdesk/service"
	"repairdesk/worker"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := config.LoadConfig()
	if cfg.OTP.DevMode {
		log.Printf("[OTP] DEV MODE enabled: codes are returned as debug_otp when delivery is unavailable")
	}

	// Initialize database connection (UTC for consistent timestamps)
	db, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Database connection established")

	// Create missing tables, then refuse to start on schema lag
	schema.InitializeDatabase(db)
	schema.ValidateRequiredColumns(db, nil)

	// OTP codes and cooldowns live in Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("Failed to ping redis at %s: %v", cfg.Redis.Address, err)
	}
	cancel()
	log.Println("Redis connection established")

	// Delivery channels; only configured ones are registered
	dispatcher := notification.NewDispatcher()
	if sms := notification.NewSMSSender(cfg.SMS); sms != nil {
		dispatcher.Register(sms)
	}
	if email := notification.NewEmailSender(cfg.Email); email != nil {
		dispatcher.Register(email)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	otpStore := repository.NewRedisOTPStore(redisClient)

	// Initialize services
	otpService := service.NewOTPService(otpStore, dispatcher, cfg.OTP)
	authService := service.NewAuthService(userRepo, otpService, cfg.Auth)
	complaintService := service.NewComplaintService(complaintRepo, userRepo)

	gaugeWorker := worker.NewStatusGaugeWorker(complaintRepo, 30*time.Second)
	gaugeWorker.Start()
	defer gaugeWorker.Stop()

	// Setup routes
	router := routes.SetupRoutes(
		authService,
		otpService,
		complaintService,
		handler.NewHealthHandler(db, redisClient),
		cfg.Auth,
		cfg.Server,
	)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           middleware.CORS(cfg.Server.AllowedOrigins)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down server...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
