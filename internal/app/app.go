package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/listenroom/server/internal/controller"
	"github.com/listenroom/server/internal/repository/connection/inmemory"
	roomRedis "github.com/listenroom/server/internal/repository/room/redis"
	"github.com/listenroom/server/internal/service/room"
	"github.com/listenroom/server/pkg/ctxlogger"
	"github.com/listenroom/server/pkg/mediameta"
	"github.com/listenroom/server/pkg/redisclient"
)

type AppConfig struct {
	Secret            string        `json:"-"`
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	LogLevel          string        `json:"log_level"`
	LogPath           string        `json:"log_path"`
	MembersLimit      int           `json:"members_limit"`
	QueueLimit        int           `json:"queue_limit"`
	RoomTTL           time.Duration `json:"room_ttl"`
	SyncGuard         time.Duration `json:"sync_guard"`
	PresenceThreshold time.Duration `json:"presence_threshold"`
	RedisPort         int           `json:"redis_port"`
	RedisHost         string        `json:"redis_host"`
	RedisPassword     string        `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return fmt.Errorf("secret must be set")
	}
	if cfg.MembersLimit < 1 {
		return fmt.Errorf("members limit must be greater than 0")
	}
	if cfg.QueueLimit < 1 {
		return fmt.Errorf("queue limit must be greater than 0")
	}
	if cfg.RoomTTL <= 0 {
		return fmt.Errorf("room ttl must be positive")
	}
	if cfg.SyncGuard < 0 {
		return fmt.Errorf("sync guard must not be negative")
	}
	if cfg.PresenceThreshold <= 0 {
		return fmt.Errorf("presence threshold must be positive")
	}
	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOutput = f
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomRepo := roomRedis.NewRepo(rc, cfg.RoomTTL)
	connectionRepo := inmemory.NewRepo()
	resolver := mediameta.NewResolver(10 * time.Second)
	roomService := room.NewService(roomRepo, connectionRepo, resolver, &room.Config{
		Secret:            cfg.Secret,
		MembersLimit:      cfg.MembersLimit,
		QueueLimit:        cfg.QueueLimit,
		RoomIdLength:      8,
		SyncGuard:         cfg.SyncGuard,
		PresenceThreshold: cfg.PresenceThreshold,
	}, logger)
	controller := controller.NewController(roomService, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: controller.GetMux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
