package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/YaroslavMestkovsky/Extractor/internal/entity"
)

// Config holds the application configuration
type Config struct {
	Site    SiteConfig      `yaml:"site"`
	Logging LoggingConfig   `yaml:"logging"`
	Actions []entity.Action `yaml:"actions"`
	Other   OtherConfig     `yaml:"other"`

	// Секреты — не из yaml, а из окружения/.env
	BitrixWebhookURL string `yaml:"-"`
	PostgresDSN      string `yaml:"-"`

	// Сырое дерево конфига для подстановок вида ${site.url}.
	raw map[string]any
}

type SiteConfig struct {
	URL                         string `yaml:"url"`
	CloseBrowserAfterCompletion *bool  `yaml:"close_browser_after_completion"`
	DownloadStrategy            string `yaml:"download_strategy"` // network | event
}

// CloseAfterCompletion — по умолчанию браузер закрываем.
func (s SiteConfig) CloseAfterCompletion() bool {
	return s.CloseBrowserAfterCompletion == nil || *s.CloseBrowserAfterCompletion
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	LogInFile bool   `yaml:"log_in_file"`
}

type OtherConfig struct {
	Sleep float64 `yaml:"sleep"` // сколько держать браузер открытым, сек
}

// LoadConfig loads configuration from config.yaml, .env file and environment variables
func LoadConfig(path string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// If .env file doesn't exist, that's fine, we'll use environment variables
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать конфиг %s: %w", path, err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("не удалось разобрать конфиг %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config.raw); err != nil {
		return nil, fmt.Errorf("не удалось разобрать конфиг %s: %w", path, err)
	}

	config.BitrixWebhookURL = getEnvOrDefault("BITRIX_WEBHOOK_URL", "")
	config.PostgresDSN = getEnvOrDefault("POSTGRES_DSN", "")

	// Validate required fields
	if config.Site.URL == "" {
		return nil, fmt.Errorf("site.url is required but not set in %s", path)
	}

	return config, nil
}

// Resolve выполняет поиск по дереву конфига по точечному пути:
// "site.url" -> config["site"]["url"]. Любой отсутствующий сегмент — ошибка.
func (c *Config) Resolve(path string) (string, error) {
	var cur any = c.raw

	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", fmt.Errorf("подстановка %q: сегмент %q не является объектом", path, key)
		}
		cur, ok = m[key]
		if !ok {
			return "", fmt.Errorf("подстановка %q: сегмент %q отсутствует в конфиге", path, key)
		}
	}

	s, ok := cur.(string)
	if !ok {
		return fmt.Sprintf("%v", cur), nil
	}
	return s, nil
}

// getEnvOrDefault retrieves an environment variable or returns a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
