package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/fleetgazer/internal/models"
)

// ChargingRepository 充电记录数据仓库
type ChargingRepository struct {
	db *DB
}

// NewChargingRepository 创建充电记录仓库
func NewChargingRepository(db *DB) *ChargingRepository {
	return &ChargingRepository{db: db}
}

var chargingColumns = []string{
	"bus", "date", "duration_hours",
	"soc_start_percent", "soc_end_percent", "soc_change_percent",
	"soc_kwh_added", "soc_based_charge_power_kw", "average_charging_power_kw",
	"energy_transferred_kwh",
}

// ReplaceAll 整表替换，语义同运营段仓库
func (r *ChargingRepository) ReplaceAll(ctx context.Context, sessions []models.ChargingSession) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM charging_sessions`); err != nil {
		return fmt.Errorf("clear charging sessions: %w", err)
	}

	if len(sessions) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"charging_sessions"},
			chargingColumns,
			pgx.CopyFromSlice(len(sessions), func(i int) ([]any, error) {
				s := sessions[i]
				return []any{
					s.Bus, s.Date, s.DurationHours,
					s.SOCStartPercent, s.SOCEndPercent, s.SOCChangePercent,
					s.SOCKWhAdded, s.SOCBasedChargePowerKW, s.AvgChargingPowerKW,
					s.EnergyTransferredKWh,
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy charging sessions: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// List 按日期范围（含边界，可空）读取充电记录
func (r *ChargingRepository) List(ctx context.Context, start, end *time.Time) ([]models.ChargingSession, error) {
	query := `
		SELECT id, bus, date, duration_hours,
			soc_start_percent, soc_end_percent, soc_change_percent,
			soc_kwh_added, soc_based_charge_power_kw, average_charging_power_kw,
			energy_transferred_kwh
		FROM charging_sessions
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date <= $2)
		ORDER BY id
	`
	rows, err := r.db.Pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("list charging sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ChargingSession
	for rows.Next() {
		var s models.ChargingSession
		err := rows.Scan(
			&s.ID, &s.Bus, &s.Date, &s.DurationHours,
			&s.SOCStartPercent, &s.SOCEndPercent, &s.SOCChangePercent,
			&s.SOCKWhAdded, &s.SOCBasedChargePowerKW, &s.AvgChargingPowerKW,
			&s.EnergyTransferredKWh,
		)
		if err != nil {
			return nil, fmt.Errorf("scan charging session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}
