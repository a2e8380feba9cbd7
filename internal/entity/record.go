package entity

// Record — одна строка выгрузки: имя колонки -> значение.
// Отсутствие ключа означает явное "нет значения" (NULL).
type Record map[string]string

// Get возвращает значение и признак его наличия.
func (r Record) Get(key string) (string, bool) {
	v, ok := r[key]
	return v, ok
}

// ReportKind — тип скачанного отчета, определяется по имени файла.
type ReportKind int

const (
	ReportUsers ReportKind = iota // всё прочее уходит в Bitrix
	ReportAnalytics
	ReportSpecialists
)

func (k ReportKind) String() string {
	switch k {
	case ReportAnalytics:
		return "analytics"
	case ReportSpecialists:
		return "specialists"
	default:
		return "users"
	}
}
