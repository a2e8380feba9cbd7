package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/YaroslavMestkovsky/Extractor/internal/browser"
	"github.com/YaroslavMestkovsky/Extractor/internal/config"
	"github.com/YaroslavMestkovsky/Extractor/internal/interpreter"
	"github.com/YaroslavMestkovsky/Extractor/internal/logging"
	"github.com/YaroslavMestkovsky/Extractor/internal/sink"
)

func Run(ctx context.Context, configPath string) error {
	// 1. Загружаем конфигурацию
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	// 2. Логгер по настройкам из конфига, run_id для склейки логов прогона
	logger, closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer closeLog()
	logger = logger.With("run_id", uuid.NewString())

	logger.Info("🚀 Инициализация системы...", "site", cfg.Site.URL, "actions", len(cfg.Actions))

	// 3. Приемники данных — только те, для которых заданы секреты.
	// Нужен ли каждый из них, выяснится по типу скачанного файла.
	processor := &FileProcessor{logger: logger}

	if cfg.BitrixWebhookURL != "" {
		processor.bitrix = sink.NewBitrixSink(cfg.BitrixWebhookURL, logger)
	}
	if cfg.PostgresDSN != "" {
		pg, err := sink.NewPostgresSink(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
		defer pg.Close()
		processor.postgres = pg
	}

	// 4. Запускаем браузер
	logger.Info("🔌 Запускаем браузер...")
	browserSvc, err := browser.NewBrowserService(ctx, logger, false, "Downloads")
	if err != nil {
		return fmt.Errorf("browser launch error: %w", err)
	}
	// Закрытие на всех путях выхода, включая ошибки ниже
	defer browserSvc.Close()

	if cfg.Site.DownloadStrategy != "" {
		browserSvc.Strategy = cfg.Site.DownloadStrategy
	}

	// 5. Стартовая страница портала
	if err := browserSvc.Navigate(cfg.Site.URL); err != nil {
		return err
	}
	logger.Info("Переход на страницу", "url", cfg.Site.URL)

	// 6. Прогоняем сценарий
	runner := interpreter.New(cfg, logger, browserSvc, processor.Process)
	if err := runner.Run(ctx); err != nil {
		logger.Error("Произошла ошибка", "err", err)
		return err
	}

	// 7. По настройке держим браузер открытым еще немного
	if cfg.Site.CloseAfterCompletion() {
		logger.Info("Закрытие браузера после выполнения всех действий")
	} else {
		logger.Info("Браузер оставлен открытым на некоторое время после выполнения всех действий")
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(cfg.Other.Sleep * float64(time.Second))):
		}
	}

	logger.Info("✨ Все действия выполнены")
	return nil
}
