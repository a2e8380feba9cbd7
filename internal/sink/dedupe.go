// Package sink — выгрузка подготовленных записей во внешние хранилища:
// сделки в Bitrix24 и строки в PostgreSQL. Оба приемника перед вставкой
// отсеивают уже загруженное по бизнес-ключу.
package sink

import "github.com/YaroslavMestkovsky/Extractor/internal/entity"

// FilterNew отсеивает записи, чей ключ уже есть в хранилище.
// Записи без ключа считаются новыми только на стороне Bitrix
// (в базе ключ обязателен), поэтому решение и тут одно: без ключа —
// не грузим, проверить повторную загрузку нечем.
func FilterNew(records []entity.Record, keyField string, existing map[string]struct{}) []entity.Record {
	out := make([]entity.Record, 0, len(records))
	for _, rec := range records {
		key, ok := rec.Get(keyField)
		if !ok {
			continue
		}
		if _, dup := existing[key]; dup {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Keys собирает непустые значения ключевого поля батча.
func Keys(records []entity.Record, keyField string) []string {
	keys := make([]string, 0, len(records))
	for _, rec := range records {
		if key, ok := rec.Get(keyField); ok {
			keys = append(keys, key)
		}
	}
	return keys
}
