package browser

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Маркер в URL, по которому узнаем запрос выгрузки файла.
const downloadMarker = "/download/"

// Сколько портал может формировать отчет до того, как отдаст ссылку.
const defaultDownloadTimeout = 360 * time.Second

const downloadPollInterval = 1 * time.Second

// ErrNoDownload — файл получить не удалось; для вызывающего это
// "файла нет", а не авария всего прогона.
var ErrNoDownload = errors.New("файл для скачивания не получен")

// captureState — состояние ожидания ссылки на файл.
type captureState int

const (
	stateWaiting captureState = iota
	stateCaptured
	stateTimedOut
)

// downloadWatcher перехватывает URL выгрузки. Захватывается только
// первый подходящий запрос; все последующие совпадения абортятся,
// не затирая захваченный URL.
type downloadWatcher struct {
	marker string

	mu  sync.Mutex
	url string
}

// Offer сообщает, нужно ли абортить запрос. Любое совпадение с маркером
// абортится, но URL запоминается только у первого.
func (w *downloadWatcher) Offer(u string) bool {
	if !strings.Contains(u, w.marker) {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.url == "" {
		w.url = u
	}
	return true
}

// URL возвращает захваченный адрес, если он уже есть.
func (w *downloadWatcher) URL() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.url, w.url != ""
}

// clock отделяет цикл ожидания от реального времени,
// чтобы его можно было гонять в тестах без минутных пауз.
type clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// awaitCapture крутит цикл опроса, пока URL не будет захвачен
// или не истечет таймаут. Один тик — одна секунда.
func awaitCapture(w *downloadWatcher, timeout time.Duration, clk clock, progress func(remaining time.Duration)) captureState {
	start := clk.Now()

	for {
		if _, ok := w.URL(); ok {
			return stateCaptured
		}

		elapsed := clk.Now().Sub(start)
		if elapsed >= timeout {
			return stateTimedOut
		}

		if progress != nil {
			progress(timeout - elapsed)
		}
		clk.Sleep(downloadPollInterval)
	}
}

// Download получает файл выгрузки. Если задан селектор — сначала клик,
// инициирующий формирование отчета. Возвращает путь к файлу либо
// ErrNoDownload; наружу ошибки скачивания не «взрываются».
func (s *BrowserService) Download(selectors []string, waitFor bool, filename string) (string, error) {
	if s.Strategy == StrategyEvent {
		return s.downloadViaEvent(selectors, waitFor, filename)
	}
	return s.downloadViaNetwork(selectors, waitFor, filename)
}

// downloadViaNetwork — стратегия (a): перехватываем запрос выгрузки,
// абортим его и скачиваем файл мимо браузера с куками сессии.
func (s *BrowserService) downloadViaNetwork(selectors []string, waitFor bool, filename string) (string, error) {
	watcher := &downloadWatcher{marker: downloadMarker}

	router := s.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		if watcher.Offer(h.Request.URL().String()) {
			// Отменяем автоматическое скачивание браузером
			h.Response.Fail(proto.NetworkErrorReasonAborted)
			return
		}
		// Все остальные запросы пропускаем без изменений
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return "", fmt.Errorf("не удалось установить перехват запросов: %w", err)
	}

	go router.Run()
	defer func() {
		if err := router.Stop(); err != nil {
			s.logger.Warn("не удалось снять перехват запросов", "err", err)
		}
	}()

	// Клик, инициирующий скачивание
	if len(selectors) > 0 {
		if err := s.Click(selectors, waitFor, 0); err != nil {
			return "", err
		}
	}

	start := time.Now()
	state := awaitCapture(watcher, defaultDownloadTimeout, realClock{}, func(remaining time.Duration) {
		fmt.Printf("\rОжидание URL для скачивания... Осталось %d сек", int(remaining.Seconds()))
	})
	fmt.Println()

	elapsed := int(time.Since(start).Seconds())
	if state != stateCaptured {
		s.logger.Error("URL не найден", "elapsed_sec", elapsed)
		return "", ErrNoDownload
	}

	url, _ := watcher.URL()
	s.logger.Info("Найден URL для скачивания", "url", url, "elapsed_sec", elapsed)

	path := filepath.Join(s.downloadsDir, filename)
	if err := s.fetchFile(url, path); err != nil {
		s.logger.Error("ошибка при скачивании файла", "err", err)
		return "", ErrNoDownload
	}

	s.logger.Info("Файл успешно сохранен", "path", path)
	return path, nil
}

// fetchFile скачивает URL напрямую, притворяясь сессией браузера:
// те же куки, user agent и referer. Ответ пишется на диск потоково.
func (s *BrowserService) fetchFile(url, path string) error {
	cookies, err := s.page.Cookies([]string{})
	if err != nil {
		return fmt.Errorf("не удалось получить cookies: %w", err)
	}

	res, err := s.page.Eval(`() => navigator.userAgent`)
	if err != nil {
		return fmt.Errorf("не удалось получить user agent: %w", err)
	}
	userAgent := res.Value.String()

	info, err := s.page.Info()
	if err != nil {
		return fmt.Errorf("не удалось получить адрес страницы: %w", err)
	}

	// Портал ходит с самоподписанным сертификатом
	client := resty.New().SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})

	req := client.R().
		SetHeader("User-Agent", userAgent).
		SetHeader("Referer", info.URL).
		SetOutput(path)

	for _, c := range cookies {
		req.SetCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}

	resp, err := req.Get(url)
	if err != nil {
		return fmt.Errorf("запрос файла не удался: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ошибка при скачивании файла: HTTP %d", resp.StatusCode())
	}

	return nil
}

// downloadViaEvent — стратегия (b): подписываемся на нативное событие
// загрузки и сохраняем файл под предложенным браузером именем
// (либо под именем с меткой времени, если браузер имя не прислал).
func (s *BrowserService) downloadViaEvent(selectors []string, waitFor bool, filename string) (string, error) {
	wait := s.browser.WaitDownload(s.downloadsDir)

	if len(selectors) > 0 {
		if err := s.Click(selectors, waitFor, 0); err != nil {
			return "", err
		}
	}

	done := make(chan *proto.PageDownloadWillBegin, 1)
	go func() { done <- wait() }()

	var begin *proto.PageDownloadWillBegin
	select {
	case begin = <-done:
	case <-time.After(defaultDownloadTimeout):
		s.logger.Error("событие загрузки так и не пришло", "timeout", defaultDownloadTimeout)
		return "", ErrNoDownload
	}

	name := begin.SuggestedFilename
	if name == "" {
		name = filename
	}

	src := filepath.Join(s.downloadsDir, begin.GUID)
	dst := filepath.Join(s.downloadsDir, name)
	if err := os.Rename(src, dst); err != nil {
		s.logger.Error("не удалось сохранить скачанный файл", "err", err)
		return "", ErrNoDownload
	}

	s.logger.Info("Файл успешно сохранен", "path", dst)
	return dst, nil
}
