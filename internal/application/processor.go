package application

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/YaroslavMestkovsky/Extractor/internal/sink"
	"github.com/YaroslavMestkovsky/Extractor/internal/transform"
)

// FileProcessor доводит скачанный CSV до приемника: классификация,
// разбор, конвертация в xlsx (с удалением CSV) и выгрузка.
type FileProcessor struct {
	logger   *slog.Logger
	bitrix   *sink.BitrixSink
	postgres *sink.PostgresSink
}

// Process вызывается интерпретатором на каждый успешно скачанный файл.
func (p *FileProcessor) Process(ctx context.Context, path string) error {
	name := filepath.Base(path)
	cls := transform.Classify(name)

	p.logger.Info("Обработка файла", "file", name, "kind", cls.Kind.String())

	header, records, err := transform.ReadCSV(path, cls.SkipRows, cls.DropLast)
	if err != nil {
		return err
	}

	xlsxPath, err := transform.ConvertToXLSX(path, header, records)
	if err != nil {
		return err
	}
	p.logger.Info("Файл сконвертирован", "xlsx", xlsxPath, "records", len(records))

	if cls.ToBitrix {
		if p.bitrix == nil {
			return fmt.Errorf("файл %s предназначен для CRM, но BITRIX_WEBHOOK_URL не задан", name)
		}
		p.logger.Info("Выгрузка информации в Bitrix")
		return p.bitrix.Upload(ctx, records)
	}

	if p.postgres == nil {
		return fmt.Errorf("файл %s предназначен для базы, но POSTGRES_DSN не задан", name)
	}
	p.logger.Info("Загрузка информации в PostgreSQL")
	return p.postgres.Upload(ctx, cls.Kind, records)
}
