package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YaroslavMestkovsky/Extractor/internal/entity"
	"github.com/YaroslavMestkovsky/Extractor/internal/transform"
)

// Порядок колонок фиксированный, чтобы SQL не зависел от обхода map.
var specialistInsertColumns = []string{
	"material_number", "patient_age", "specialist_name",
	"appointment_date", "service_name", "amount",
}

var analyticInsertColumns = []string{"metric", "value", "period", "department"}

// PostgresSink грузит специалистов и аналитики в базу.
// Политика отказов — fail-closed: батч вставляется одной транзакцией,
// любая ошибка вставки откатывает всё и уходит наверх.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresSink(ctx context.Context, dsn string, logger *slog.Logger) (*PostgresSink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к базе: %w", err)
	}
	return &PostgresSink{pool: pool, logger: logger}, nil
}

func (p *PostgresSink) Close() {
	p.pool.Close()
}

// Upload направляет записи в нужную таблицу по типу отчета.
func (p *PostgresSink) Upload(ctx context.Context, kind entity.ReportKind, records []entity.Record) error {
	switch kind {
	case entity.ReportAnalytics:
		return p.uploadAnalytics(ctx, records)
	case entity.ReportSpecialists:
		return p.uploadSpecialists(ctx, records)
	}
	return fmt.Errorf("отчет %s в базу не грузится", kind)
}

// uploadSpecialists отсеивает уже загруженные номера материалов
// и вставляет остальное одной транзакцией.
func (p *PostgresSink) uploadSpecialists(ctx context.Context, records []entity.Record) error {
	mapped := make([]entity.Record, 0, len(records))
	for _, rec := range records {
		mapped = append(mapped, transform.RenameColumns(rec, transform.SpecialistColumns))
	}

	existing, err := p.existingMaterialNumbers(ctx)
	if err != nil {
		return err
	}

	toInsert := FilterNew(mapped, "material_number", existing)
	if len(toInsert) == 0 {
		p.logger.Info("Нет новых записей для загрузки")
		return nil
	}

	err = p.insertAll(ctx, "specialists", specialistInsertColumns, toInsert, specialistValues)
	if err != nil {
		p.logger.Error("Ошибка при загрузке данных", "err", err)
		return err
	}

	p.logger.Info("Успешно загружены новые записи специалистов", "count", len(toInsert))
	return nil
}

// uploadAnalytics вставляет без проверки на дубли: у аналитик нет
// надежного бизнес-ключа в выгрузке.
func (p *PostgresSink) uploadAnalytics(ctx context.Context, records []entity.Record) error {
	mapped := make([]entity.Record, 0, len(records))
	for _, rec := range records {
		mapped = append(mapped, transform.RenameColumns(rec, transform.AnalyticColumns))
	}

	if len(mapped) == 0 {
		p.logger.Info("Нет новых записей для загрузки")
		return nil
	}

	err := p.insertAll(ctx, "analytics", analyticInsertColumns, mapped, analyticValues)
	if err != nil {
		p.logger.Error("Ошибка при загрузке данных", "err", err)
		return err
	}

	p.logger.Info("Успешно загружены записи аналитик", "count", len(mapped))
	return nil
}

func (p *PostgresSink) existingMaterialNumbers(ctx context.Context) (map[string]struct{}, error) {
	rows, err := p.pool.Query(ctx, `SELECT material_number FROM specialists`)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить существующие номера материалов: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var num string
		if err := rows.Scan(&num); err != nil {
			return nil, err
		}
		existing[num] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	p.logger.Info("Уже загружено номеров материалов", "count", len(existing))
	return existing, nil
}

// insertAll — одна транзакция на весь батч, откат при любой ошибке.
func (p *PostgresSink) insertAll(ctx context.Context, table string, columns []string, records []entity.Record, values func(entity.Record) []any) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("не удалось открыть транзакцию: %w", err)
	}
	defer tx.Rollback(ctx)

	query := insertQuery(table, columns)
	for _, rec := range records {
		if _, err := tx.Exec(ctx, query, values(rec)...); err != nil {
			return fmt.Errorf("вставка в %s не удалась: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("не удалось зафиксировать транзакцию: %w", err)
	}
	return nil
}

func insertQuery(table string, columns []string) string {
	placeholders := ""
	cols := ""
	for i, col := range columns {
		if i > 0 {
			placeholders += ", "
			cols += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
		cols += col
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, cols, placeholders)
}

// specialistValues собирает аргументы вставки: возраст и сумма
// приводятся к числам, непригодные значения уходят NULL-ом.
func specialistValues(rec entity.Record) []any {
	args := make([]any, 0, len(specialistInsertColumns))
	for _, col := range specialistInsertColumns {
		value, ok := rec.Get(col)
		if !ok {
			args = append(args, nil)
			continue
		}

		switch col {
		case "patient_age":
			if age, ok := transform.CoerceAge(value); ok {
				args = append(args, age)
			} else {
				args = append(args, nil)
			}
		case "amount":
			if amount, ok := transform.CoerceAmount(value); ok {
				args = append(args, amount)
			} else {
				args = append(args, nil)
			}
		default:
			args = append(args, value)
		}
	}
	return args
}

func analyticValues(rec entity.Record) []any {
	args := make([]any, 0, len(analyticInsertColumns))
	for _, col := range analyticInsertColumns {
		if value, ok := rec.Get(col); ok {
			args = append(args, value)
		} else {
			args = append(args, nil)
		}
	}
	return args
}
