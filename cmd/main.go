package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	checkDailyLimitsHandler "github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers/check_daily_limits"
	createAppointmentHandler "github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers/create_appointment"
	getAppointmentHandler "github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers/get_appointment"
	getAvailableSlotsHandler "github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers/get_available_slots"
	updateAppointmentStatusHandler "github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers/update_appointment_status"
	validateAppointmentHandler "github.com/fixwellinc/household-services-platform-sub009/internal/api/handlers/validate_appointment"
	"github.com/fixwellinc/household-services-platform-sub009/internal/api/middleware"
	"github.com/fixwellinc/household-services-platform-sub009/internal/config"
	serviceTypeCache "github.com/fixwellinc/household-services-platform-sub009/internal/infra/cache/servicetype"
	appointmentRepo "github.com/fixwellinc/household-services-platform-sub009/internal/infra/storage/appointment"
	serviceTypeRepo "github.com/fixwellinc/household-services-platform-sub009/internal/infra/storage/servicetype"
	appointmentsService "github.com/fixwellinc/household-services-platform-sub009/internal/service/appointments"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/rules"
	"github.com/fixwellinc/household-services-platform-sub009/internal/service/scheduling"
	createAppointmentUC "github.com/fixwellinc/household-services-platform-sub009/internal/usecase/create_appointment"
	getAvailableSlotsUC "github.com/fixwellinc/household-services-platform-sub009/internal/usecase/get_available_slots"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/logger"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/metrics"
	"github.com/fixwellinc/household-services-platform-sub009/pkg/txmanager"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML config")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
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

	log.Info("Starting scheduling service...")
	log.Info("Configuration loaded from %s", *configPath)

	// Инициализируем метрики (если включены); nil-метрики безопасны для всех потребителей
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName, nil)
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
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancelPing()
	if err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	metricsCollector.RegisterDBStats(db, cfg.Database.DBName)

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(db)
	serviceTypeRepository := serviceTypeRepo.NewRepository(db)
	txMgr := txmanager.NewTransactionManager(db, cfg.Scheduling.CommitRetries)

	// Кэш типов услуг в Redis (опционально)
	var serviceTypes rules.ServiceTypeRepository = serviceTypeRepository
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// Кэш деградирует до прямого чтения из БД при каждой ошибке Redis
			log.Warn("Redis is not reachable at %s: %v", cfg.Redis.Addr, err)
		}
		cancelPing()

		serviceTypes = serviceTypeCache.NewCache(
			serviceTypeRepository,
			redisClient,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second,
			log,
		)
		log.Info("Service type cache enabled (addr=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.TTLSeconds)
	}

	// Инициализируем сервисы
	ruleService := rules.NewService(serviceTypes, appointmentRepository, &rules.RealTimeProvider{}, log)

	schedulingConfig := scheduling.Config{
		BusinessOpen:    cfg.Scheduling.BusinessOpen,
		BusinessClose:   cfg.Scheduling.BusinessClose,
		SlotStepMinutes: cfg.Scheduling.SlotStepMinutes,
		Timeout:         time.Duration(cfg.Scheduling.ValidationTimeoutSeconds) * time.Second,
	}

	validator := scheduling.NewValidator(
		ruleService,
		appointmentRepository,
		&scheduling.RealTimeProvider{},
		metricsCollector,
		schedulingConfig,
		log,
	)

	// Перепроверка при сохранении читает типы услуг из БД в транзакции, минуя кэш
	commitChecker := scheduling.NewValidator(
		rules.NewService(serviceTypeRepository, appointmentRepository, &rules.RealTimeProvider{}, log),
		appointmentRepository,
		&scheduling.RealTimeProvider{},
		metricsCollector,
		schedulingConfig,
		log,
	)

	appointmentSvc := appointmentsService.NewService(appointmentRepository, txMgr, log)

	// Инициализируем use cases
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		validator,
		commitChecker,
		appointmentRepository,
		txMgr,
		metricsCollector,
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		ruleService,
		validator.Slots(),
		validator,
		log,
	)

	// Инициализируем handlers
	validateAppointment := validateAppointmentHandler.NewHandler(validator, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentSvc, log)
	updateAppointmentStatus := updateAppointmentStatusHandler.NewHandler(appointmentSvc, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	checkDailyLimits := checkDailyLimitsHandler.NewHandler(validator, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.AccessLog(log))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты типа услуги на день
	api.HandleFunc("/service-types/{serviceTypeId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// Дневная квота типа услуги
	api.HandleFunc("/service-types/{serviceTypeId}/daily-limits",
		checkDailyLimits.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// Проверка записи без сохранения
	protected.HandleFunc("/appointments/validate", validateAppointment.Handle).Methods(http.MethodPost)

	// Создание записи
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)

	// Получение записи по ID
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)

	// Смена статуса записи
	protected.HandleFunc("/appointments/{appointmentId}/status", updateAppointmentStatus.Handle).Methods(http.MethodPatch)

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

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}
