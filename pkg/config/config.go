// pkg/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config хранит параметры приложения из переменных окружения.
type Config struct {
	ProjectID string `envconfig:"GOOGLE_CLOUD_PROJECT"`
	RedisAddr string `envconfig:"REDIS_ADDRESS"`

	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `envconfig:"TELEGRAM_CHAT_ID"`

	YouTubeClientID     string `envconfig:"YOUTUBE_CLIENT_ID"`
	YouTubeClientSecret string `envconfig:"YOUTUBE_CLIENT_SECRET"`

	SearchLimit     int           `envconfig:"SEARCH_LIMIT" default:"5"`
	AddAttempts     int           `envconfig:"ADD_ATTEMPTS" default:"3"`
	AddRetryDelay   time.Duration `envconfig:"ADD_RETRY_DELAY" default:"500ms"`
	PlaylistSuffix  string        `envconfig:"PLAYLIST_SUFFIX" default:" (from Spotify)"`
	PlaylistPrivacy string        `envconfig:"PLAYLIST_PRIVACY" default:"private"`

	PubSubTopic        string `envconfig:"PUBSUB_TOPIC" default:"playlist-tasks"`
	PubSubSubscription string `envconfig:"PUBSUB_SUBSCRIPTION" default:"playlist-tasks-sub"`
	Workers            int    `envconfig:"WORKERS" default:"5"`
	Port               string `envconfig:"PORT" default:"8080"`

	ChoiceTimeout time.Duration `envconfig:"CHOICE_TIMEOUT" default:"10m"`
}

// Load читает окружение и проверяет значения.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch {
	case c.SearchLimit <= 0 || c.SearchLimit > 10:
		return fmt.Errorf("SEARCH_LIMIT должен быть в диапазоне 1..10, получено %d", c.SearchLimit)
	case c.AddAttempts <= 0:
		return fmt.Errorf("ADD_ATTEMPTS должен быть положительным, получено %d", c.AddAttempts)
	case c.AddRetryDelay < 0:
		return fmt.Errorf("ADD_RETRY_DELAY не может быть отрицательным")
	case c.Workers <= 0:
		return fmt.Errorf("WORKERS должен быть положительным, получено %d", c.Workers)
	}
	return nil
}

// TelegramEnabled сообщает, можно ли выбирать треки через бота.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
