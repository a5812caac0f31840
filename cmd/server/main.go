package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/listenroom/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
	}
	logPath = configVar[string]{
		envKey:       "SERVER_LOG_PATH",
		flagKey:      "log-path",
		defaultValue: "",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 80,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 9,
	}
	queueLimit = configVar[int]{
		envKey:       "SERVER_QUEUE_LIMIT",
		flagKey:      "queue-limit",
		defaultValue: 25,
	}
	roomTTL = configVar[time.Duration]{
		envKey:       "SERVER_ROOM_TTL",
		flagKey:      "room-ttl",
		defaultValue: 10 * time.Hour,
	}
	syncGuard = configVar[time.Duration]{
		envKey:       "SERVER_SYNC_GUARD",
		flagKey:      "sync-guard",
		defaultValue: 1500 * time.Millisecond,
	}
	presenceThreshold = configVar[time.Duration]{
		envKey:       "SERVER_PRESENCE_THRESHOLD",
		flagKey:      "presence-threshold",
		defaultValue: 15 * time.Second,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(secret.flagKey, secret.defaultValue, "Server secret")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(logPath.flagKey, logPath.defaultValue, "Log file path, empty for stdout")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of members in a room")
	pflag.Int(queueLimit.flagKey, queueLimit.defaultValue, "Maximum number of tracks in the queue")
	pflag.Duration(roomTTL.flagKey, roomTTL.defaultValue, "Sliding room expiration")
	pflag.Duration(syncGuard.flagKey, syncGuard.defaultValue, "Window after a control action during which host reports are discarded")
	pflag.Duration(presenceThreshold.flagKey, presenceThreshold.defaultValue, "Silence after which a member is evicted")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(secret.flagKey, secret.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(logPath.flagKey, logPath.envKey)
	viper.BindEnv(membersLimit.flagKey, membersLimit.envKey)
	viper.BindEnv(queueLimit.flagKey, queueLimit.envKey)
	viper.BindEnv(roomTTL.flagKey, roomTTL.envKey)
	viper.BindEnv(syncGuard.flagKey, syncGuard.envKey)
	viper.BindEnv(presenceThreshold.flagKey, presenceThreshold.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(secret.flagKey, secret.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(logPath.flagKey, logPath.defaultValue)
	viper.SetDefault(membersLimit.flagKey, membersLimit.defaultValue)
	viper.SetDefault(queueLimit.flagKey, queueLimit.defaultValue)
	viper.SetDefault(roomTTL.flagKey, roomTTL.defaultValue)
	viper.SetDefault(syncGuard.flagKey, syncGuard.defaultValue)
	viper.SetDefault(presenceThreshold.flagKey, presenceThreshold.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	config := &app.AppConfig{
		Secret:            viper.GetString(secret.flagKey),
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		LogPath:           viper.GetString(logPath.flagKey),
		MembersLimit:      viper.GetInt(membersLimit.flagKey),
		QueueLimit:        viper.GetInt(queueLimit.flagKey),
		RoomTTL:           viper.GetDuration(roomTTL.flagKey),
		SyncGuard:         viper.GetDuration(syncGuard.flagKey),
		PresenceThreshold: viper.GetDuration(presenceThreshold.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
