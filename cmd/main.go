package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/SaintsFlow/booking-calendar/internal/cache"
	"github.com/SaintsFlow/booking-calendar/internal/config"
	"github.com/SaintsFlow/booking-calendar/internal/db"
	"github.com/SaintsFlow/booking-calendar/internal/event"
	"github.com/SaintsFlow/booking-calendar/internal/logger"
	"github.com/SaintsFlow/booking-calendar/internal/model"
	"github.com/SaintsFlow/booking-calendar/internal/mq"
	"github.com/SaintsFlow/booking-calendar/internal/repository"
	"github.com/SaintsFlow/booking-calendar/internal/service"
)

func main() {
	// 1. .env опционален: в контейнере конфиг приходит из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "booking-calendar",
	})

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(cfg.DB)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("sql DB: %v", err)
	}
	defer sqlDB.Close()

	// 4. Репозитории (реализации на GORM).
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	userRepo := repository.NewGormUserRepository(gormDB)
	clientRepo := repository.NewGormClientRepository(gormDB)
	workplaceRepo := repository.NewGormWorkplaceRepository(gormDB)
	serviceRepo := repository.NewGormServiceRepository(gormDB)
	statusRepo := repository.NewGormStatusRepository(gormDB)
	vacationRepo := repository.NewGormVacationRepository(gormDB)

	// 5. Кеш слотов: без Redis методы кеша превращаются в no-op.
	var slotCache *cache.SlotCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		slotCache = cache.NewSlotCache(rdb, time.Duration(cfg.Redis.SlotTTLSec)*time.Second)
		logg.Info("slot cache enabled", "addr", cfg.Redis.Addr)
	}

	// 6. Шина событий: AMQP либо лог-заглушка.
	var publisher event.Publisher
	if cfg.AMQP.Enabled {
		amqpPub, err := mq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatalf("init amqp publisher: %v", err)
		}
		defer amqpPub.Close()
		publisher = amqpPub
		logg.Info("amqp publisher enabled", "exchange", cfg.AMQP.Exchange)
	} else {
		publisher = &event.LogPublisher{Log: logg}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := event.NewDispatcher(publisher, logg, event.DispatcherConfig{})
	go dispatcher.Run(ctx)

	// 7. Сервисы.
	scheduleSvc := service.NewScheduleService(userRepo, workplaceRepo, vacationRepo, bookingRepo, slotCache, logg)
	core := service.Core{
		Schedule:   scheduleSvc,
		Bookings:   service.NewBookingService(gormDB, bookingRepo, userRepo, clientRepo, serviceRepo, statusRepo, scheduleSvc, dispatcher, slotCache, logg),
		Duplicates: service.NewDuplicateService(bookingRepo, logg),
	}
	_ = core // ядро забирает транспорт-шлюз, см. service.Core

	logg.Info("booking core started")

	// 8. Грейсфул-шатдаун по сигналу: останавливаем приём событий
	// и даём диспетчеру дорассылать буфер.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logg.Info("shutting down...")
	cancel()

	select {
	case <-dispatcher.Done():
	case <-time.After(5 * time.Second):
		logg.Warn("dispatcher drain timed out")
	}
}
