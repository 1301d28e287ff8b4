package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bookingPageHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/booking_page"
	createBookingHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_available_slots"
	healthHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/health"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	outboxRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/outbox"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	termRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/term"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/postmark"
	"github.com/m04kA/SMC-AppointmentService/internal/service/notifications"
	createBookingUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")

	// Инициализируем метрики (если включены).
	// Методы *metrics.Metrics безопасны для nil, поэтому компоненты получают его в любом случае.
	var (
		metricsCollector *metrics.Metrics
		recorder         dbmetrics.Recorder
	)
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		recorder = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, recorder, stopMetricsCh)

	// Инициализируем репозитории и менеджер транзакций
	slotRepository := slotRepo.NewRepository(wrappedDB)
	termRepository := termRepo.NewRepository(wrappedDB)
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	outboxRepository := outboxRepo.NewRepository(wrappedDB)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем почтовый клиент и сервис уведомлений
	mailTimeout := time.Duration(cfg.Mail.TimeoutSeconds) * time.Second
	mailClient := postmark.NewClient(cfg.Mail.BaseURL, cfg.Mail.APIKey, mailTimeout, log)
	if cfg.Mail.APIKey == "" {
		log.Warn("POSTMARK_API_KEY is not set, confirmation emails will fail and be recorded in the outbox")
	}
	log.Info("Mail client initialized (base_url=%s, timeout=%ds)", cfg.Mail.BaseURL, cfg.Mail.TimeoutSeconds)

	notificationSvc := notifications.NewService(
		mailClient,
		outboxRepository,
		metricsCollector,
		log,
		notifications.Settings{
			SiteName:         cfg.Display.SiteName,
			AdminEmail:       cfg.Mail.AdminEmail,
			AdminName:        cfg.Mail.AdminName,
			MeetingLink:      cfg.Mail.MeetingLink,
			VisitorSubject:   cfg.Mail.VisitorSubject,
			AdminSubject:     cfg.Mail.AdminSubject,
			VisitorZoneLabel: cfg.Display.VisitorZoneLabel,
			AdminZoneLabel:   cfg.Display.AdminZoneLabel,
		},
		mailTimeout,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		slotRepository,
		termRepository,
		appointmentRepository,
		outboxRepository,
		notificationSvc,
		txMgr,
		metricsCollector,
		createBookingUC.Settings{
			VisitorZone: cfg.Display.VisitorZone,
			AdminZone:   cfg.Display.AdminZone,
			Timeout:     time.Duration(cfg.Booking.TimeoutSeconds) * time.Second,
		},
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		slotRepository,
		termRepository,
		appointmentRepository,
		txMgr,
		getAvailableSlotsUC.Settings{
			SlotDurationMinutes: cfg.Booking.SlotDurationMinutes,
			VisitorZone:         cfg.Display.VisitorZone,
			VisitorZoneLabel:    cfg.Display.VisitorZoneLabel,
		},
		log,
	)

	// Инициализируем handlers
	bookingPage := bookingPageHandler.NewHandler(
		createBookingUseCase,
		getAvailableSlotsUseCase,
		bookingPageHandler.Settings{
			SiteName:            cfg.Display.SiteName,
			SlotDurationMinutes: cfg.Booking.SlotDurationMinutes,
			TimeZoneLabel:       cfg.Display.VisitorZoneLabel,
		},
		log,
	)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	health := healthHandler.NewHandler(wrappedDB, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r.HandleFunc("/health", health.Handle).Methods(http.MethodGet)

	// Отправки формы и JSON бронирования проходят через лимитер
	booking := r.NewRoute().Subrouter()
	if cfg.RateLimit.Enabled {
		trustedProxies, err := cfg.RateLimit.TrustedProxyPrefixes()
		if err != nil {
			log.Fatal("Invalid trusted proxies: %v", err)
		}
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, trustedProxies, log)
		booking.Use(limiter.Middleware)
		log.Info("Rate limit enabled: %d requests/min, burst %d", cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	// Страница записи
	booking.HandleFunc("/", bookingPage.Handle).Methods(http.MethodGet, http.MethodPost)

	// API prefix
	api := booking.PathPrefix("/api/v1").Subrouter()

	// Доступные слоты
	api.HandleFunc("/slots/available", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Создание записи
	api.HandleFunc("/appointments", createBooking.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
