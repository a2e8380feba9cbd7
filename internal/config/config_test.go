package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/YaroslavMestkovsky/Extractor/internal/entity"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleConfig = `
site:
  url: https://portal.example/login
  close_browser_after_completion: false
logging:
  level: INFO
  file: app.log
  log_in_file: true
actions:
  - type: click
    selector: "#login-btn"
    description: Войти
  - type: input
    selector: ["#date-from", "input[name=from]"]
    value: yesterday
    wait_for: false
    time_to_proceed: 90000
    description: Дата с
other:
  sleep: 3
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Site.URL != "https://portal.example/login" {
		t.Errorf("site.url: %s", cfg.Site.URL)
	}
	if cfg.Site.CloseAfterCompletion() {
		t.Error("close_browser_after_completion: false должен отключать закрытие")
	}
	if !cfg.Logging.LogInFile || cfg.Logging.File != "app.log" {
		t.Errorf("logging: %+v", cfg.Logging)
	}
	if cfg.Other.Sleep != 3 {
		t.Errorf("other.sleep: %v", cfg.Other.Sleep)
	}

	if len(cfg.Actions) != 2 {
		t.Fatalf("Ожидалось 2 действия, загружено %d", len(cfg.Actions))
	}

	// Скалярный селектор превращается в список из одного элемента
	first := cfg.Actions[0]
	if first.Type != entity.ActionClick {
		t.Errorf("Тип первого действия: %s", first.Type)
	}
	if len(first.Selector) != 1 || first.Selector[0] != "#login-btn" {
		t.Errorf("Селектор первого действия: %v", first.Selector)
	}
	if !first.ShouldWaitFor() {
		t.Error("wait_for по умолчанию должен быть включен")
	}

	// Список селекторов сохраняет порядок
	second := cfg.Actions[1]
	if len(second.Selector) != 2 || second.Selector[0] != "#date-from" {
		t.Errorf("Селекторы второго действия: %v", second.Selector)
	}
	if second.ShouldWaitFor() {
		t.Error("wait_for: false должен отключать ожидание")
	}
	if second.TimeToProceed != 90000 {
		t.Errorf("time_to_proceed: %d", second.TimeToProceed)
	}
}

func TestLoadConfig_RequiresSiteURL(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "logging:\n  level: INFO\n")); err == nil {
		t.Fatal("Конфиг без site.url должен отклоняться")
	}
}

func TestResolve(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	got, err := cfg.Resolve("site.url")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "https://portal.example/login" {
		t.Errorf("Resolve(site.url): %s", got)
	}
}

func TestResolve_MissingSegment(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := cfg.Resolve("site.password"); err == nil {
		t.Error("Отсутствующий сегмент должен быть ошибкой")
	}
	if _, err := cfg.Resolve("nothing.here"); err == nil {
		t.Error("Отсутствующий корень должен быть ошибкой")
	}
}
