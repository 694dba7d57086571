package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onboarding-api/internal/config"
	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/handler"
	"github.com/onboarding-api/internal/repository"
	"github.com/onboarding-api/internal/search"
	"github.com/onboarding-api/internal/service"
	"github.com/onboarding-api/internal/vector"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func main() {
	// Инициализация логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg := config.Load()

	// Подключение к БД
	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("failed to get sql.DB", slog.Any("error", err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Запуск миграций
	if err := migrate(db, cfg.Database.Driver); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Векторный индекс
	metric, err := vector.ParseMetric(cfg.Vector.Metric)
	if err != nil {
		logger.Error("invalid vector metric", slog.Any("error", err))
		os.Exit(1)
	}

	index, err := vector.New(vector.Config{
		Dim:    cfg.Vector.Dim,
		Metric: metric,
	})
	if err != nil {
		logger.Error("failed to create vector index", slog.Any("error", err))
		os.Exit(1)
	}

	// Координатор держит реляционную запись и индекс согласованными.
	// Неудачное восстановление индекса не валит процесс: поиск деградирует
	// до точного скана, остальной API работает.
	coordinator := repository.NewCoordinator(db, index, logger)
	if err := coordinator.Rebuild(context.Background()); err != nil {
		logger.Warn("vector index rebuild failed, search degraded to exact scan", slog.Any("error", err))
	}

	// Инициализация репозиториев
	txm := repository.NewTxManager(db)
	deptRepo := repository.NewDepartmentRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskTemplateRepository(db)
	userTaskRepo := repository.NewUserTaskRepository(db)
	resourceRepo := repository.NewResourceRepository(db)

	// Инициализация сервисов
	planner := search.NewPlanner(resourceRepo, index, metric, logger)
	searchBudget := time.Duration(cfg.Vector.SearchBudgetMS) * time.Millisecond

	deptService := service.NewDepartmentService(deptRepo, txm)
	roleService := service.NewRoleService(roleRepo, deptRepo, txm)
	userService := service.NewUserService(userRepo, roleRepo, txm)
	taskService := service.NewTaskService(taskRepo, userTaskRepo, userRepo, roleRepo, txm)
	resourceService := service.NewResourceService(resourceRepo, coordinator, planner, searchBudget)

	// Инициализация хендлеров
	deptHandler := handler.NewDepartmentHandler(deptService, roleService, logger)
	roleHandler := handler.NewRoleHandler(roleService, taskService, logger)
	userHandler := handler.NewUserHandler(userService, taskService, logger)
	taskHandler := handler.NewTaskHandler(taskService, logger)
	resourceHandler := handler.NewResourceHandler(resourceService, logger)

	// Настройка роутера
	router := handler.NewRouter(deptHandler, roleHandler, userHandler, taskHandler, resourceHandler, logger)
	httpHandler := router.Setup()

	// Настройка HTTP сервера
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("could not gracefully shutdown the server", slog.Any("error", err))
		}
		close(done)
	}()

	logger.Info("server is starting", slog.String("port", cfg.Server.Port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("could not listen on port", slog.String("port", cfg.Server.Port), slog.Any("error", err))
		os.Exit(1)
	}

	<-done
	logger.Info("server stopped")
}

func connectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	}

	if cfg.Driver == "sqlite" {
		return gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
	}

	var db *gorm.DB
	var err error

	for range 30 {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
		if err == nil {
			sqlDB, _ := db.DB()
			if sqlDB.Ping() == nil {
				return db, nil
			}
		}
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("failed to connect to database after 30 attempts: %w", err)
}

// migrate применяет схему: goose для PostgreSQL, AutoMigrate для SQLite
// (в локальной разработке и тестах)
func migrate(db *gorm.DB, driver string) error {
	if driver == "sqlite" {
		return db.AutoMigrate(
			&domain.Department{},
			&domain.Role{},
			&domain.User{},
			&domain.OnboardingTask{},
			&domain.UserTask{},
			&domain.Resource{},
		)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return runMigrations(sqlDB)
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
