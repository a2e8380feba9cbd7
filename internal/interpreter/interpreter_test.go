package interpreter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/YaroslavMestkovsky/Extractor/internal/browser"
	"github.com/YaroslavMestkovsky/Extractor/internal/config"
)

// fakeDriver записывает вызовы примитивов в порядке поступления.
type fakeDriver struct {
	calls        []string
	failDownload bool
}

func (d *fakeDriver) Click(selectors []string, waitFor bool, timeToProceed time.Duration) error {
	d.calls = append(d.calls, "click:"+strings.Join(selectors, ","))
	return nil
}

func (d *fakeDriver) Fill(selectors []string, text string, waitFor bool, isDatetime bool) error {
	d.calls = append(d.calls, fmt.Sprintf("fill:%s:%s:datetime=%v", strings.Join(selectors, ","), text, isDatetime))
	return nil
}

func (d *fakeDriver) Download(selectors []string, waitFor bool, filename string) (string, error) {
	d.calls = append(d.calls, "download:"+strings.Join(selectors, ","))
	if d.failDownload {
		return "", browser.ErrNoDownload
	}
	return "/tmp/" + filename, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func loadTestConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("Не удалось загрузить тестовый конфиг: %v", err)
	}
	return cfg
}

func TestRun_InvokesActionsInDeclarationOrder(t *testing.T) {
	cfg := loadTestConfig(t, `
site:
  url: https://portal.example/login
actions:
  - type: click
    selector: "#login"
    description: Открыть форму входа
  - type: input
    selector: "#url-field"
    value: ${site.url}
    description: Ввести адрес
  - type: click
    selector: ["#export", ".export-btn"]
    description: Запросить выгрузку
  - type: download
    selector: "#confirm"
    filename: Specialists
    description: Скачать отчет
`)

	driver := &fakeDriver{}
	it := New(cfg, testLogger(), driver, nil)

	if err := it.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{
		"click:#login",
		"fill:#url-field:https://portal.example/login:datetime=false",
		"click:#export,.export-btn",
		"download:#confirm",
	}
	if len(driver.calls) != len(want) {
		t.Fatalf("Ожидалось %d вызовов, было %d: %v", len(want), len(driver.calls), driver.calls)
	}
	for i := range want {
		if driver.calls[i] != want[i] {
			t.Errorf("Вызов %d: ожидался %q, был %q", i, want[i], driver.calls[i])
		}
	}
}

func TestRun_UnknownActionTypeFails(t *testing.T) {
	cfg := loadTestConfig(t, `
site:
  url: https://portal.example
actions:
  - type: hover
    selector: "#menu"
    description: Нет такого действия
`)

	it := New(cfg, testLogger(), &fakeDriver{}, nil)

	err := it.Run(context.Background())
	if err == nil {
		t.Fatal("Ожидалась ошибка на неизвестном типе действия")
	}
	if !strings.Contains(err.Error(), "hover") {
		t.Errorf("Ошибка должна называть виновный тип: %v", err)
	}
}

func TestResolveValue_DateKeyword(t *testing.T) {
	cfg := loadTestConfig(t, "site:\n  url: https://portal.example\n")
	it := New(cfg, testLogger(), &fakeDriver{}, nil)

	value, isDatetime, err := it.resolveValue("yesterday")
	if err != nil {
		t.Fatalf("resolveValue: %v", err)
	}
	if !isDatetime {
		t.Error("Ключевое слово даты должно помечать поле как датовое")
	}

	want := time.Now().AddDate(0, 0, -1).Format("02.01.2006")
	if value != want {
		t.Errorf("Ожидалась дата %s, получено %s", want, value)
	}
}

func TestResolveValue_UnknownKeyword(t *testing.T) {
	cfg := loadTestConfig(t, "site:\n  url: https://portal.example\n")
	it := New(cfg, testLogger(), &fakeDriver{}, nil)

	if _, _, err := it.resolveValue("tomorrow"); err == nil {
		t.Fatal("Неизвестное ключевое слово даты должно быть ошибкой")
	}
}

func TestResolveValue_MissingConfigPath(t *testing.T) {
	cfg := loadTestConfig(t, "site:\n  url: https://portal.example\n")
	it := New(cfg, testLogger(), &fakeDriver{}, nil)

	if _, _, err := it.resolveValue("${site.password}"); err == nil {
		t.Fatal("Отсутствующий путь в конфиге должен быть ошибкой")
	}
}

func TestRun_DownloadFailureIsNotFatal(t *testing.T) {
	cfg := loadTestConfig(t, `
site:
  url: https://portal.example
actions:
  - type: download
    selector: "#export"
    description: Провальная выгрузка
  - type: click
    selector: "#next"
    description: Следующий шаг
`)

	driver := &fakeDriver{failDownload: true}
	it := New(cfg, testLogger(), driver, nil)

	if err := it.Run(context.Background()); err != nil {
		t.Fatalf("Провал скачивания не должен валить прогон: %v", err)
	}
	if driver.calls[len(driver.calls)-1] != "click:#next" {
		t.Errorf("Следующее действие должно выполниться: %v", driver.calls)
	}
}
