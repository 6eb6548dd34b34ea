package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repairshop-backend/internal/auth"
	"repairshop-backend/internal/cache"
	"repairshop-backend/internal/config"
	"repairshop-backend/internal/database"
	"repairshop-backend/internal/db"
	"repairshop-backend/internal/handlers"
	"repairshop-backend/internal/health"
	h "repairshop-backend/internal/http"
	"repairshop-backend/internal/mailer"
	"repairshop-backend/internal/middleware"
	"repairshop-backend/internal/realtime"
	"repairshop-backend/internal/reports"
	"repairshop-backend/internal/repositories"
	"repairshop-backend/internal/services"
	"repairshop-backend/internal/storage"
	"repairshop-backend/internal/timeutil"
	"repairshop-backend/migrations"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	migrateOnly := flag.Bool("migrate", false, "Apply database migrations and exit")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	timeutil.SetZone(cfg.Shop.Timezone)

	pool := db.Connect(cfg)
	defer pool.Close()

	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool, migrations.FS)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migrator.RunMigrations(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	cancel()
	if *migrateOnly {
		return
	}

	if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (using in-memory cache)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}
	defer cache.Close()

	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	hub := realtime.NewHub(cache.GetClient())
	go hub.Run(appCtx)

	var objectStore storage.Store
	if cfg.StorageEnabled() {
		s3Store, err := storage.NewS3Store(appCtx, cfg)
		if err != nil {
			log.Printf("[Storage] Disabled: %v", err)
		} else if s3Store != nil {
			objectStore = s3Store
			log.Printf("[Storage] Using bucket %s", cfg.Storage.Bucket)
		}
	} else {
		log.Println("[Storage] Not configured: photo uploads and export archives are disabled")
	}

	var payments services.PaymentVerifier
	if rp := services.NewRazorpayService(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret); rp != nil {
		payments = rp
		log.Println("[Razorpay] Payment verification enabled")
	}

	mail := mailer.New(cfg)
	jwtManager := auth.NewJWTManager(cfg)

	shop := reports.ShopInfo{
		Name:     cfg.Shop.Name,
		Address:  cfg.Shop.Address,
		Phone:    cfg.Shop.Phone,
		Currency: cfg.Shop.Currency,
	}
	account := services.AccountSettings{
		PublicURL:   cfg.Server.PublicURL,
		ShopName:    cfg.Shop.Name,
		RecentLogin: time.Duration(cfg.JWT.RecentLoginMinutes) * time.Minute,
	}

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	inviteRepo := repositories.NewInviteRepository(pool)
	orderRepo := repositories.NewOrderRepository(pool)
	productRepo := repositories.NewProductRepository(pool)
	priceRepo := repositories.NewServicePriceRepository(pool)
	payrollRepo := repositories.NewPayrollRepository(pool)
	proofRepo := repositories.NewProofOfWorkRepository(pool)
	issueRepo := repositories.NewIssueReportRepository(pool)

	// Services
	authService := services.NewAuthService(userRepo, jwtManager, mail, hub, account)
	staffService := services.NewStaffService(userRepo, hub)
	inviteService := services.NewInviteService(inviteRepo, userRepo, jwtManager, mail, account)
	orderService := services.NewOrderService(orderRepo, productRepo, priceRepo, payments, hub, shop)
	inventoryService := services.NewInventoryService(productRepo, hub, cfg.Shop.LowStockThreshold)
	priceService := services.NewServicePriceService(priceRepo, hub)
	payrollService := services.NewPayrollService(payrollRepo, userRepo, orderRepo, hub, shop)
	reportService := services.NewReportService(orderRepo, productRepo, userRepo, objectStore, cfg.Shop.LowStockThreshold)
	proofService := services.NewProofOfWorkService(proofRepo, orderRepo, objectStore, hub)
	issueService := services.NewIssueService(issueRepo, hub)

	metricsCollector := services.NewMetricsCollector(pool, reportService)
	metricsCollector.Start()
	defer metricsCollector.Stop()

	// HTTP
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	authLimiter := middleware.NewRateLimiter(cfg.Server.LoginRatePerMinute)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				authLimiter.Cleanup(10 * time.Minute)
			case <-appCtx.Done():
				return
			}
		}
	}()

	router := h.NewRouter(h.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Users:     handlers.NewUserHandler(staffService),
		Invites:   handlers.NewInviteHandler(inviteService),
		Orders:    handlers.NewOrderHandler(orderService),
		Inventory: handlers.NewInventoryHandler(inventoryService),
		Prices:    handlers.NewServicePriceHandler(priceService),
		Payroll:   handlers.NewPayrollHandler(payrollService),
		Reports:   handlers.NewReportHandler(reportService),
		Photos:    handlers.NewProofOfWorkHandler(proofService),
		Issues:    handlers.NewIssueHandler(issueService),
		WS:        handlers.NewWSHandler(hub),
		Health:    handlers.NewHealthHandler(health.NewHealthChecker(pool, hub.ClientCount)),
	}, authMiddleware, authLimiter)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(corsMiddleware(router))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	stopApp()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
