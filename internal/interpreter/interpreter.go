// Package interpreter последовательно исполняет действия из config.yaml.
// Никакого параллелизма: действия на странице зависят от её текущего
// состояния, поэтому порядок объявления — это и порядок выполнения.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/YaroslavMestkovsky/Extractor/internal/browser"
	"github.com/YaroslavMestkovsky/Extractor/internal/config"
	"github.com/YaroslavMestkovsky/Extractor/internal/entity"
)

// ErrUnknownAction — в конфиге опечатка или неподдерживаемый тип шага.
// Молча пропускать такое нельзя: дальше сценарий поедет вслепую.
var ErrUnknownAction = errors.New("неизвестный тип действия")

// Driver — примитивы работы со страницей, которые дергает интерпретатор.
// За интерфейсом живет BrowserService; в тестах — запоминающая заглушка.
type Driver interface {
	Click(selectors []string, waitFor bool, timeToProceed time.Duration) error
	Fill(selectors []string, text string, waitFor bool, isDatetime bool) error
	Download(selectors []string, waitFor bool, filename string) (string, error)
}

// FileHandler получает путь к скачанному файлу для дальнейшей обработки.
type FileHandler func(ctx context.Context, path string) error

// Interpreter — явный контекст исполнения: конфиг, логгер и драйвер
// передаются сюда один раз и дальше протаскиваются через все шаги.
type Interpreter struct {
	cfg    *config.Config
	logger *slog.Logger
	driver Driver
	onFile FileHandler

	// Ключевые слова дат считаются один раз на старте процесса.
	datesMap map[string]time.Time

	// Подменяется в тестах, чтобы не спать по-настоящему.
	now func() time.Time
}

func New(cfg *config.Config, logger *slog.Logger, driver Driver, onFile FileHandler) *Interpreter {
	now := time.Now()

	return &Interpreter{
		cfg:    cfg,
		logger: logger,
		driver: driver,
		onFile: onFile,
		datesMap: map[string]time.Time{
			"yesterday":          now.AddDate(0, 0, -1),
			"three_weeks_before": now.AddDate(0, 0, -31),
			"today":              now,
		},
		now: time.Now,
	}
}

// Run выполняет все действия в порядке объявления.
func (it *Interpreter) Run(ctx context.Context) error {
	for i, action := range it.cfg.Actions {
		if !action.Type.Known() {
			return fmt.Errorf("действие #%d (%s): %w: %q", i+1, action.Description, ErrUnknownAction, action.Type)
		}

		it.logger.Info("Выполнение действия", "description", action.Description, "type", string(action.Type))

		if action.Wait > 0 {
			if err := pause(ctx, action.Wait); err != nil {
				return err
			}
		}

		if err := it.execute(ctx, action); err != nil {
			return fmt.Errorf("действие #%d (%s): %w", i+1, action.Description, err)
		}

		if action.Timeout > 0 {
			if err := pause(ctx, action.Timeout); err != nil {
				return err
			}
		}
	}
	return nil
}

func (it *Interpreter) execute(ctx context.Context, action entity.Action) error {
	switch action.Type {
	case entity.ActionClick:
		if len(action.Selector) == 0 {
			return nil // клик без селектора в старых конфигах — пустой шаг
		}
		return it.driver.Click(action.Selector, action.ShouldWaitFor(), time.Duration(action.TimeToProceed)*time.Millisecond)

	case entity.ActionInput:
		if len(action.Selector) == 0 {
			return nil
		}
		value, isDatetime, err := it.resolveValue(action.Value)
		if err != nil {
			return err
		}
		return it.driver.Fill(action.Selector, value, action.ShouldWaitFor(), isDatetime)

	case entity.ActionDownload:
		return it.download(ctx, action)

	case entity.ActionWait:
		// Пауза целиком задается полями wait/timeout вокруг шага.
		return nil
	}
	return nil
}

func (it *Interpreter) download(ctx context.Context, action entity.Action) error {
	base := action.Filename
	if base == "" {
		base = "downloaded_file"
	}
	filename := fmt.Sprintf("%s_%s.csv", base, it.now().Format("2006-01-02 15_04"))

	it.logger.Info("Начинаем скачивание файла", "filename", filename)

	path, err := it.driver.Download(action.Selector, action.ShouldWaitFor(), filename)
	if err != nil {
		if errors.Is(err, browser.ErrNoDownload) {
			// Нет файла — не авария прогона: логируем и едем дальше
			it.logger.Error("Не удалось скачать файл")
			return nil
		}
		return err
	}

	it.logger.Info("Файл успешно скачан", "path", path)

	if it.onFile == nil {
		return nil
	}
	return it.onFile(ctx, path)
}

// resolveValue превращает значение шага input в текст для ввода.
// ${site.url} — подстановка из конфига по точечному пути; всё остальное
// обязано быть ключевым словом даты и помечает поле как "Дата и время".
func (it *Interpreter) resolveValue(value string) (string, bool, error) {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		resolved, err := it.cfg.Resolve(value[2 : len(value)-1])
		if err != nil {
			return "", false, err
		}
		return resolved, false, nil
	}

	date, ok := it.datesMap[value]
	if !ok {
		return "", false, fmt.Errorf("неизвестное ключевое слово даты: %q", value)
	}
	return date.Format("02.01.2006"), true, nil
}

func pause(ctx context.Context, seconds float64) error {
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
