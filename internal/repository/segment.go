package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fleetgazer/internal/models"
)

// SegmentRepository 运营段数据仓库
type SegmentRepository struct {
	db *DB
}

// NewSegmentRepository 创建运营段仓库
func NewSegmentRepository(db *DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

var segmentColumns = []string{
	"bus", "date", "activity_type", "start_time", "end_time",
	"duration_hours", "mileage_miles", "energy_used_kwh", "average_temperature_f",
	"traction_energy_kwh", "regen_energy_kwh", "electric_heater_energy_kwh",
	"rear_hvac_energy_kwh", "air_compressor_energy_kwh", "lv_access_energy_kwh",
}

// ReplaceAll 整表替换：单事务内清空并批量写入，
// 并发读方只会看到完整的旧集或完整的新集
func (r *SegmentRepository) ReplaceAll(ctx context.Context, segments []models.OperationalSegment) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM operational_segments`); err != nil {
		return fmt.Errorf("clear operational segments: %w", err)
	}

	if len(segments) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"operational_segments"},
			segmentColumns,
			pgx.CopyFromSlice(len(segments), func(i int) ([]any, error) {
				s := segments[i]
				return []any{
					s.Bus, s.Date, s.ActivityType, s.StartTime, s.EndTime,
					s.DurationHours, s.MileageMiles, s.EnergyUsedKWh, s.AverageTemperatureF,
					s.TractionEnergyKWh, s.RegenEnergyKWh, s.ElectricHeaterEnergyKWh,
					s.RearHVACEnergyKWh, s.AirCompressorEnergyKWh, s.LVAccessEnergyKWh,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy operational segments: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// List 按日期范围（含边界，可空）读取运营段，保持入库顺序
func (r *SegmentRepository) List(ctx context.Context, start, end *time.Time) ([]models.OperationalSegment, error) {
	query := `
		SELECT id, bus, date, activity_type, start_time, end_time,
			duration_hours, mileage_miles, energy_used_kwh, average_temperature_f,
			traction_energy_kwh, regen_energy_kwh, electric_heater_energy_kwh,
			rear_hvac_energy_kwh, air_compressor_energy_kwh, lv_access_energy_kwh
		FROM operational_segments
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date <= $2)
		ORDER BY id
	`
	rows, err := r.db.Pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("list operational segments: %w", err)
	}
	defer rows.Close()

	var segments []models.OperationalSegment
	for rows.Next() {
		var s models.OperationalSegment
		err := rows.Scan(
			&s.ID, &s.Bus, &s.Date, &s.ActivityType, &s.StartTime, &s.EndTime,
			&s.DurationHours, &s.MileageMiles, &s.EnergyUsedKWh, &s.AverageTemperatureF,
			&s.TractionEnergyKWh, &s.RegenEnergyKWh, &s.ElectricHeaterEnergyKWh,
			&s.RearHVACEnergyKWh, &s.AirCompressorEnergyKWh, &s.LVAccessEnergyKWh,
		)
		if err != nil {
			return nil, fmt.Errorf("scan operational segment: %w", err)
		}
		segments = append(segments, s)
	}

	return segments, rows.Err()
}

// ListBuses 库内全部车辆编号，按首次出现顺序
// 排名并列时的稳定顺序以该序为准
func (r *SegmentRepository) ListBuses(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT bus FROM operational_segments GROUP BY bus ORDER BY MIN(id)`)
	if err != nil {
		return nil, fmt.Errorf("list buses: %w", err)
	}
	defer rows.Close()

	var buses []string
	for rows.Next() {
		var bus string
		if err := rows.Scan(&bus); err != nil {
			return nil, fmt.Errorf("scan bus: %w", err)
		}
		buses = append(buses, bus)
	}

	return buses, rows.Err()
}
