package transform

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/YaroslavMestkovsky/Extractor/internal/entity"
)

// ReadCSV читает выгрузку портала: cp1251, разделитель ';'.
// skipRows служебных строк пропускается до заголовка, dropLast
// отбрасывает итоговую строку в конце. Пустые значения в запись
// не попадают — отсутствие ключа и есть NULL.
func ReadCSV(path string, skipRows int, dropLast bool) ([]string, []entity.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось открыть файл %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(charmap.Windows1251.NewDecoder().Reader(f))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1 // портал не гарантирует ровные строки

	for i := 0; i < skipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, nil, fmt.Errorf("файл %s короче ожидаемой шапки (%d строк): %w", path, skipRows, err)
		}
	}

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось прочитать заголовок %s: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []entity.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
		}

		rec := entity.Record{}
		for i, value := range row {
			if i >= len(header) {
				break
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			rec[header[i]] = value
		}
		records = append(records, rec)
	}

	if dropLast && len(records) > 0 {
		records = records[:len(records)-1]
	}

	return header, records, nil
}
