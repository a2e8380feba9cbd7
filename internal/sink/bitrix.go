package sink

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"

	"github.com/YaroslavMestkovsky/Extractor/internal/entity"
	"github.com/YaroslavMestkovsky/Extractor/internal/transform"
)

// Методы REST-вебхука Bitrix24.
const (
	bitrixListMethod = "crm.deal.list"
	bitrixAddMethod  = "crm.deal.add"
)

// BitrixSink грузит пользовательские записи сделками в Bitrix24.
// Политика отказов — fail-open: ошибка по одной сделке логируется,
// остальные грузятся дальше; дедупликация делает повтор безопасным.
type BitrixSink struct {
	client     *resty.Client
	webhookURL string
	logger     *slog.Logger
}

func NewBitrixSink(webhookURL string, logger *slog.Logger) *BitrixSink {
	return &BitrixSink{
		client:     resty.New().SetHeader("Content-Type", "application/json").SetHeader("Accept", "application/json"),
		webhookURL: webhookURL,
		logger:     logger,
	}
}

type bitrixListRequest struct {
	Select []string          `json:"SELECT"`
	Filter map[string]any    `json:"FILTER"`
	Order  map[string]string `json:"ORDER"`
	Start  int               `json:"start"`
}

type bitrixListResponse struct {
	Result []map[string]any `json:"result"`
	Error  string           `json:"error"`
}

type bitrixAddResponse struct {
	Result           any    `json:"result"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Upload переименовывает колонки под поля сделки, отсеивает уже
// загруженные рег. номера и создает по сделке на каждую новую запись.
func (b *BitrixSink) Upload(ctx context.Context, records []entity.Record) error {
	mapped := make([]entity.Record, 0, len(records))
	for _, rec := range records {
		mapped = append(mapped, transform.RenameColumns(rec, transform.BitrixNameToField))
	}

	regNums := Keys(mapped, transform.BitrixRegNumField)
	existing := b.existingRegNums(ctx, regNums)

	toUpload := FilterNew(mapped, transform.BitrixRegNumField, existing)

	uploaded := 0
	for _, rec := range toUpload {
		if b.addDeal(ctx, rec) {
			uploaded++
		}
	}

	b.logger.Info("Загружено записей в Bitrix", "count", uploaded, "skipped", len(mapped)-len(toUpload))
	return nil
}

// existingRegNums спрашивает у Bitrix, какие рег. номера из батча уже
// загружены. Любая ошибка здесь — пустой результат: хуже дубля сделки
// только молча потерянный батч.
func (b *BitrixSink) existingRegNums(ctx context.Context, regNums []string) map[string]struct{} {
	existing := make(map[string]struct{})
	if len(regNums) == 0 {
		return existing
	}

	body := bitrixListRequest{
		Select: []string{transform.BitrixRegNumField},
		Filter: map[string]any{"@" + transform.BitrixRegNumField: regNums},
		Order:  map[string]string{"DATE_CREATE": "ASC"},
		Start:  0,
	}

	var result bitrixListResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(b.webhookURL + bitrixListMethod)
	if err != nil {
		b.logger.Error("Произошла ошибка при выполнении запроса", "method", bitrixListMethod, "err", err)
		return existing
	}
	if resp.IsError() {
		b.logger.Error("Ошибка при отправке запроса", "method", bitrixListMethod, "status", resp.StatusCode())
		return existing
	}
	if result.Error != "" {
		b.logger.Error("Bitrix вернул ошибку", "method", bitrixListMethod, "error", result.Error)
		return existing
	}

	for _, rec := range result.Result {
		if num, ok := rec[transform.BitrixRegNumField].(string); ok && num != "" {
			existing[num] = struct{}{}
		}
	}

	b.logger.Info("Уже загружено рег. номеров", "count", len(existing))
	return existing
}

// addDeal создает одну сделку. Ошибка не останавливает батч.
func (b *BitrixSink) addDeal(ctx context.Context, rec entity.Record) bool {
	var result bitrixAddResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"fields": rec}).
		SetResult(&result).
		Post(b.webhookURL + bitrixAddMethod)
	if err != nil {
		b.logger.Error("Произошла ошибка при выполнении запроса", "method", bitrixAddMethod, "err", err)
		return false
	}
	if resp.IsError() {
		b.logger.Error("Ошибка при отправке запроса", "method", bitrixAddMethod, "status", resp.StatusCode(), "body", resp.String())
		return false
	}
	if result.Error != "" {
		b.logger.Warn("Ошибка при создании сделки", "error", result.Error, "description", result.ErrorDescription)
		return false
	}
	return true
}
