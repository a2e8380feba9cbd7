package transform

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/YaroslavMestkovsky/Extractor/internal/entity"
)

// Поле рег. номера сделки в Bitrix — по нему дедупликация.
const BitrixRegNumField = "UF_CRM_REG_NUMBER"

// BitrixNameToField — колонка выгрузки -> поле сделки Bitrix.
// Колонки, которых здесь нет, в CRM не уезжают.
var BitrixNameToField = map[string]string{
	"ФИО": "TITLE",
	"Регистрационный номер": BitrixRegNumField,
	"Дата регистрации":      "UF_CRM_REG_DATE",
	"Телефон":               "UF_CRM_PHONE",
	"Электронная почта":     "UF_CRM_EMAIL",
	"Город":                 "UF_CRM_CITY",
}

// SpecialistColumns — колонка выгрузки -> колонка таблицы specialists.
// В оригинале соответствие снято с комментариев к колонкам схемы.
var SpecialistColumns = map[string]string{
	"Номер материала": "material_number",
	"Возраст":         "patient_age",
	"ФИО специалиста": "specialist_name",
	"Дата приема":     "appointment_date",
	"Услуга":          "service_name",
	"Сумма":           "amount",
}

// AnalyticColumns — колонка выгрузки -> колонка таблицы analytics.
var AnalyticColumns = map[string]string{
	"Показатель": "metric",
	"Значение":   "value",
	"Период":     "period",
	"Отделение":  "department",
}

// RenameColumns переименовывает колонки записи по словарю.
// Колонки без соответствия отбрасываются; отсутствующие целевые
// колонки не заводятся (NULL остается NULL-ом).
func RenameColumns(rec entity.Record, mapping map[string]string) entity.Record {
	out := entity.Record{}
	for label, value := range rec {
		if target, ok := mapping[strings.TrimSpace(label)]; ok {
			out[target] = value
		}
	}
	return out
}

// InverseMapping разворачивает словарь target -> source.
func InverseMapping(mapping map[string]string) map[string]string {
	inv := make(map[string]string, len(mapping))
	for label, target := range mapping {
		inv[target] = label
	}
	return inv
}

var digitRun = regexp.MustCompile(`\d+`)

// CoerceAge выдергивает из строки возраста первую цифровую серию:
// "45 лет" -> 45, "37г" -> 37. Нет цифр — нет значения.
func CoerceAge(raw string) (int, bool) {
	match := digitRun.FindString(raw)
	if match == "" {
		return 0, false
	}
	age, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return age, true
}

var pureNumber = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)

// CoerceAmount принимает сумму только если строка — чистое число
// (запятая как десятичный разделитель допустима). Всё прочее — NULL.
func CoerceAmount(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if !pureNumber.MatchString(raw) {
		return 0, false
	}
	amount, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}
