package repository

import (
	"context"
	"fmt"

	"github.com/langchou/fleetgazer/internal/models"
)

// ParamsRepository 车队参数仓库（单行）
type ParamsRepository struct {
	db *DB
}

// NewParamsRepository 创建车队参数仓库
func NewParamsRepository(db *DB) *ParamsRepository {
	return &ParamsRepository{db: db}
}

// Get 读取车队参数
func (r *ParamsRepository) Get(ctx context.Context) (*models.BusParameters, error) {
	query := `
		SELECT ess_capacity_kwh, avg_energy_use_kw, low_soc_warning_percent, critical_soc_warning_percent
		FROM bus_parameters WHERE id = 1
	`
	p := &models.BusParameters{}
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&p.ESSCapacityKWh,
		&p.AvgEnergyUseKW,
		&p.LowSOCWarningPercent,
		&p.CriticalSOCWarningPercent,
	)
	if err != nil {
		return nil, fmt.Errorf("get bus parameters: %w", err)
	}
	return p, nil
}

// Update 整行替换车队参数
func (r *ParamsRepository) Update(ctx context.Context, p *models.BusParameters) error {
	query := `
		UPDATE bus_parameters SET
			ess_capacity_kwh = $1,
			avg_energy_use_kw = $2,
			low_soc_warning_percent = $3,
			critical_soc_warning_percent = $4
		WHERE id = 1
	`
	_, err := r.db.Pool.Exec(ctx, query,
		p.ESSCapacityKWh,
		p.AvgEnergyUseKW,
		p.LowSOCWarningPercent,
		p.CriticalSOCWarningPercent,
	)
	if err != nil {
		return fmt.Errorf("update bus parameters: %w", err)
	}
	return nil
}
