package browser

import (
	"testing"
	"time"
)

// fakeClock продвигает время только через Sleep — никакого реального ожидания.
type fakeClock struct {
	now time.Time
	// вызывается на каждом тике, чтобы тест мог подбросить событие
	onSleep func(tick int)
	ticks   int
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.ticks++
	if c.onSleep != nil {
		c.onSleep(c.ticks)
	}
}

func TestWatcher_CapturesOnlyFirstMatch(t *testing.T) {
	w := &downloadWatcher{marker: downloadMarker}

	if w.Offer("https://portal.example/static/logo.png") {
		t.Error("Запрос без маркера не должен абортиться")
	}

	if !w.Offer("https://portal.example/download/report-1.csv") {
		t.Error("Первый запрос с маркером должен абортиться")
	}
	// Повторный запрос выгрузки тоже абортится, но URL не затирает
	if !w.Offer("https://portal.example/download/report-2.csv") {
		t.Error("Повторный запрос с маркером тоже должен абортиться")
	}

	url, ok := w.URL()
	if !ok {
		t.Fatal("URL должен быть захвачен")
	}
	if url != "https://portal.example/download/report-1.csv" {
		t.Errorf("Захвачен не первый URL: %s", url)
	}
}

func TestAwaitCapture_Captured(t *testing.T) {
	w := &downloadWatcher{marker: downloadMarker}
	clk := &fakeClock{now: time.Unix(0, 0)}

	// Событие прилетает на третьем тике опроса
	clk.onSleep = func(tick int) {
		if tick == 3 {
			w.Offer("https://portal.example/download/report.csv")
		}
	}

	state := awaitCapture(w, defaultDownloadTimeout, clk, nil)

	if state != stateCaptured {
		t.Fatalf("Ожидалось stateCaptured, получено %v", state)
	}
	if clk.ticks != 3 {
		t.Errorf("Ожидалось 3 тика опроса, было %d", clk.ticks)
	}
}

func TestAwaitCapture_TimedOut(t *testing.T) {
	w := &downloadWatcher{marker: downloadMarker}
	clk := &fakeClock{now: time.Unix(0, 0)}

	var reported []time.Duration
	state := awaitCapture(w, 5*time.Second, clk, func(remaining time.Duration) {
		reported = append(reported, remaining)
	})

	if state != stateTimedOut {
		t.Fatalf("Ожидалось stateTimedOut, получено %v", state)
	}
	// 5 тиков по секунде, обратный отсчет 5..1
	if len(reported) != 5 {
		t.Fatalf("Ожидалось 5 отчетов о прогрессе, было %d", len(reported))
	}
	if reported[0] != 5*time.Second || reported[4] != 1*time.Second {
		t.Errorf("Неверный обратный отсчет: %v", reported)
	}
}

func TestTryEach_OrderAndFallback(t *testing.T) {
	var attempted []string
	fail := map[string]bool{"a": true, "b": true}

	err := tryEach([]string{"a", "b", "c"}, func(sel string) error {
		attempted = append(attempted, sel)
		if fail[sel] {
			return ErrAllSelectorsFailed // любая ошибка, важен сам факт
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Ожидался успех на селекторе c: %v", err)
	}
	if len(attempted) != 3 || attempted[0] != "a" || attempted[1] != "b" || attempted[2] != "c" {
		t.Errorf("Неверный порядок попыток: %v", attempted)
	}
}

func TestTryEach_AllFail(t *testing.T) {
	var attempted []string

	err := tryEach([]string{"x", "y"}, func(sel string) error {
		attempted = append(attempted, sel)
		return ErrNoDownload // имитация любой ошибки клика
	})

	if err == nil {
		t.Fatal("Ожидалась ошибка, когда все селекторы провалились")
	}
	if len(attempted) != 2 {
		t.Errorf("Ожидалось 2 попытки, было %d", len(attempted))
	}
}
