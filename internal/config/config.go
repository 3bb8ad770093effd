package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"9091"`
	Redis      Redis  `yaml:"redis"`
	Game       Game   `yaml:"game"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Game struct {
	TurnTimeoutSeconds    int `yaml:"turn-timeout-seconds" env-default:"30"`
	FinishedGraceSeconds  int `yaml:"finished-grace-seconds" env-default:"60"`
	UnstartedRoomTTLHours int `yaml:"unstarted-room-ttl-hours" env-default:"12"`
	JanitorIntervalSecs   int `yaml:"janitor-interval-seconds" env-default:"60"`
	ChatHistorySize       int `yaml:"chat-history-size" env-default:"50"`
	RoomPageSize          int `yaml:"room-page-size" env-default:"10"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Game) TurnTimeout() time.Duration {
	return time.Duration(that.TurnTimeoutSeconds) * time.Second
}

func (that *Game) FinishedGrace() time.Duration {
	return time.Duration(that.FinishedGraceSeconds) * time.Second
}

func (that *Game) UnstartedRoomTTL() time.Duration {
	return time.Duration(that.UnstartedRoomTTLHours) * time.Hour
}

func (that *Game) JanitorInterval() time.Duration {
	return time.Duration(that.JanitorIntervalSecs) * time.Second
}
