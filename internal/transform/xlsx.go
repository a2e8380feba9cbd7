package transform

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/YaroslavMestkovsky/Extractor/internal/entity"
)

// ConvertToXLSX сохраняет разобранную выгрузку в xlsx рядом с CSV
// и удаляет исходный CSV. Возвращает путь к xlsx.
// Первая колонка — порядковый индекс строки, как в исходных отчетах.
func ConvertToXLSX(csvPath string, header []string, records []entity.Record) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	headerRow := make([]interface{}, 0, len(header)+1)
	headerRow = append(headerRow, "")
	for _, h := range header {
		headerRow = append(headerRow, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return "", fmt.Errorf("не удалось записать заголовок xlsx: %w", err)
	}

	for i, rec := range records {
		row := make([]interface{}, 0, len(header)+1)
		row = append(row, i)
		for _, h := range header {
			if value, ok := rec[h]; ok {
				row = append(row, value)
			} else {
				row = append(row, nil)
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return "", fmt.Errorf("не удалось записать строку %d: %w", i, err)
		}
	}

	xlsxPath := strings.TrimSuffix(csvPath, ".csv") + ".xlsx"
	if err := f.SaveAs(xlsxPath); err != nil {
		return "", fmt.Errorf("не удалось сохранить %s: %w", xlsxPath, err)
	}

	if err := os.Remove(csvPath); err != nil {
		return "", fmt.Errorf("не удалось удалить исходный CSV %s: %w", csvPath, err)
	}

	return xlsxPath, nil
}
