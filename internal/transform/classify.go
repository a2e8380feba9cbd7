// Package transform превращает сырые CSV-выгрузки портала в записи
// для загрузки: классификация по имени файла, срезка служебных строк,
// переименование колонок и приведение отдельных полей.
package transform

import (
	"strings"

	"github.com/YaroslavMestkovsky/Extractor/internal/entity"
)

// Classification — как именно читать и куда грузить конкретный файл.
type Classification struct {
	Kind     entity.ReportKind
	SkipRows int  // служебная шапка перед строкой заголовков
	DropLast bool // итоговая строка в конце файла
	ToBitrix bool
}

// Classify определяет тип отчета по подстроке в имени файла.
// Порядок проверок важен: Analytics раньше Specialists, всё прочее —
// пользовательский отчет для Bitrix.
func Classify(filename string) Classification {
	switch {
	case strings.Contains(filename, "Analytics"):
		return Classification{Kind: entity.ReportAnalytics, SkipRows: 3, DropLast: true}
	case strings.Contains(filename, "Specialists"):
		return Classification{Kind: entity.ReportSpecialists, SkipRows: 2}
	default:
		return Classification{Kind: entity.ReportUsers, DropLast: true, ToBitrix: true}
	}
}
