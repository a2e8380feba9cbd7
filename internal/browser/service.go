package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// BrowserService управляет браузером и страницей портала.
// Сессия монопольная: один запуск — один браузер, никакого
// конкурентного доступа к странице.
type BrowserService struct {
	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	logger  *slog.Logger

	downloadsDir string

	// Стратегия скачивания: StrategyNetwork (по умолчанию) или StrategyEvent.
	Strategy string
}

// Стратегии получения файла, обе наблюдались на портале.
const (
	StrategyNetwork = "network" // перехват запроса + скачивание мимо браузера
	StrategyEvent   = "event"   // нативное событие загрузки браузера
)

// NewBrowserService создает браузер.
func NewBrowserService(ctx context.Context, logger *slog.Logger, headless bool, downloadsDir string) (*BrowserService, error) {
	// Директория для загрузок, если её ещё нет
	if err := os.MkdirAll(downloadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию загрузок %s: %w", downloadsDir, err)
	}

	// 1. Настройка лаунчера
	launch := launcher.New().
		Leakless(true).
		Headless(headless).
		UserDataDir("user_data")

	controlURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("не удалось запустить браузер: %w", err)
	}

	// 2. Подключение
	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		launch.Kill()
		return nil, fmt.Errorf("не удалось подключиться: %w", err)
	}

	// 3. Создание STEALTH страницы (портал режет headless-браузеры)
	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		launch.Kill()
		return nil, fmt.Errorf("ошибка создания stealth страницы: %w", err)
	}
	scale := 1.0

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
		Scale:  &scale,
		Mobile: false,
	}); err != nil {
		// Не критично, можно логировать
		logger.Warn("не удалось выставить viewport", "err", err)
	}

	logger.Info("🚀 Браузер успешно инициализирован")

	return &BrowserService{
		launch:       launch,
		browser:      browser,
		page:         page,
		logger:       logger,
		downloadsDir: downloadsDir,
	}, nil
}

// Navigate — переход на страницу.
func (s *BrowserService) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("ошибка навигации на %s: %w", url, err)
	}

	s.safeWaitLoad(5 * time.Second)
	return nil
}

// DownloadsDir — куда складываются скачанные файлы.
func (s *BrowserService) DownloadsDir() string {
	return s.downloadsDir
}

func (s *BrowserService) safeWaitLoad(timeout time.Duration) {
	done := make(chan bool, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warn("паника при ожидании загрузки", "panic", r)
			}
			done <- true
		}()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.page.Context(ctx).WaitLoad()
	}()

	select {
	case <-done:
	case <-time.After(timeout + 1*time.Second):
		s.logger.Warn("таймаут загрузки страницы, продолжаю")
	}
}

// Close освобождает ресурсы строго в обратном порядке захвата:
// страница -> браузер -> процесс движка.
func (s *BrowserService) Close() {
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			s.logger.Error("ошибка при закрытии страницы", "err", err)
		}
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			s.logger.Error("ошибка при закрытии браузера", "err", err)
		}
		s.browser = nil
	}
	if s.launch != nil {
		s.launch.Kill()
		s.launch = nil
	}
	s.logger.Info("Все ресурсы успешно освобождены")
}
