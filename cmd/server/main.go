package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"numerom/internal/api"
	"numerom/internal/config"
	"numerom/internal/progress"
	"numerom/internal/storage"
)

func main() {
	log.SetFlags(log.Ltime | log.Lmsgprefix)
	log.SetPrefix("")

	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🔢 NUMEROM - система обучения, запуск")
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	// Флаги командной строки
	configPath := flag.String("config", "", "путь к файлу конфигурации (.json, .yaml)")
	port := flag.String("port", "", "порт сервера (переопределяет конфигурацию)")
	flag.Parse()

	// Конфигурация
	log.Println("📋 Загрузка конфигурации...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}
	if *port != "" {
		cfg.ServerPort = *port
	}
	log.Printf("   ✓ Конфигурация загружена")

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	// Хранилище
	log.Println("💾 Инициализация базы данных...")
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Ошибка инициализации базы данных: %v", err)
	}
	defer store.Close()
	log.Printf("   ✓ База данных: %s", cfg.DatabasePath)

	if n, err := store.CountLessons(false); err == nil {
		log.Printf("   ✓ Уроков в базе: %d", n)
	}

	svc := progress.NewService(store, cfg.Scoring)
	handler := api.NewHandler(store, svc, cfg)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Корректное завершение
	done := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("")
		log.Println("⏹️  Остановка сервера...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
		close(done)
	}()

	log.Println("")
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("✅ Сервер запущен: http://localhost:%s", cfg.ServerPort)
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("🌐 Разрешённые источники: %v", cfg.AllowedOrigins)
	log.Printf("💓 Интервал пульса: %d с", cfg.HeartbeatIntervalSeconds)
	log.Println("💡 Нажмите Ctrl+C для остановки")
	log.Println("")

	slog.Info("server starting", "addr", server.Addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Ошибка сервера: %v", err)
	}
	<-done
	slog.Info("server stopped")
}
