package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Таймаут поиска элемента по умолчанию, как на портале: страницы тяжелые.
const defaultElementTimeout = 30 * time.Second

// ErrAllSelectorsFailed — ни один селектор из списка не сработал.
var ErrAllSelectorsFailed = errors.New("ни один из селекторов не сработал")

// tryEach перебирает селекторы по порядку, пока один не сработает.
// Если не сработал ни один — возвращает ErrAllSelectorsFailed вместе
// со всеми накопленными ошибками. Порядок попыток строго как в списке.
func tryEach(selectors []string, attempt func(sel string) error) error {
	if len(selectors) == 0 {
		return fmt.Errorf("пустой список селекторов")
	}

	var failures []error
	for _, sel := range selectors {
		if err := attempt(sel); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", sel, err))
			continue
		}
		return nil
	}

	return errors.Join(ErrAllSelectorsFailed, errors.Join(failures...))
}

// waitForElement ждет появления хотя бы одного селектора из списка.
// Первый появившийся побеждает, проверка в порядке списка.
func (s *BrowserService) waitForElement(selectors []string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultElementTimeout
	}

	err := tryEach(selectors, func(sel string) error {
		_, err := s.page.Timeout(timeout).Element(sel)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("\tЭлемент успешно загружен")
	return nil
}

// Click — нажатие на элемент.
// timeToProceed > 0 означает, что предыдущий шаг запустил долгую
// операцию на портале и элемент стоит ждать дольше обычного.
func (s *BrowserService) Click(selectors []string, waitFor bool, timeToProceed time.Duration) error {
	if waitFor {
		if timeToProceed > 0 {
			s.logger.Info("Ожидание завершения операции", "timeout", timeToProceed)
		}
		if err := s.waitForElement(selectors, timeToProceed); err != nil {
			return err
		}
	}

	err := tryEach(selectors, func(sel string) error {
		ctx, cancel := context.WithTimeout(context.Background(), defaultElementTimeout)
		defer cancel()

		el, err := s.page.Context(ctx).Element(sel)
		if err != nil {
			return err
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
	if err != nil {
		return fmt.Errorf("не удалось кликнуть ни по одному из селекторов %v: %w", selectors, err)
	}

	s.logger.Info("\tВыполнено нажатие на элемент")
	return nil
}

// Fill — ввод текста в поле.
// Поля типа "Дата и время" не принимают значение целиком, поэтому для
// них после клика и паузы текст набирается посимвольно.
func (s *BrowserService) Fill(selectors []string, text string, waitFor bool, isDatetime bool) error {
	if waitFor {
		if err := s.waitForElement(selectors, 0); err != nil {
			return err
		}
	}

	err := tryEach(selectors, func(sel string) error {
		ctx, cancel := context.WithTimeout(context.Background(), defaultElementTimeout)
		defer cancel()

		el, err := s.page.Context(ctx).Element(sel)
		if err != nil {
			return err
		}

		if isDatetime {
			return s.typeSlow(el, text)
		}
		return s.fillBulk(el, text)
	})
	if err != nil {
		return fmt.Errorf("не удалось ввести текст ни в один из селекторов %v: %w", selectors, err)
	}

	s.logger.Info("\tВведен текст в элемент", "text", text)
	return nil
}

func (s *BrowserService) fillBulk(el *rod.Element, text string) error {
	// Выделяем весь текст (чтобы заменить)
	if err := el.SelectAllText(); err != nil {
		s.logger.Warn("не удалось выделить текст", "err", err)
	}
	return el.Input(text)
}

func (s *BrowserService) typeSlow(el *rod.Element, text string) error {
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}

	// Даем календарю портала раскрыться
	time.Sleep(1 * time.Second)

	if err := el.Focus(); err != nil {
		return err
	}
	for _, r := range text {
		if err := s.page.InsertText(string(r)); err != nil {
			return fmt.Errorf("ошибка посимвольного ввода: %w", err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	return nil
}
