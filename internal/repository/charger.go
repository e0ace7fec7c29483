package repository

import (
	"context"
	"fmt"

	"github.com/langchou/fleetgazer/internal/models"
)

// ChargerRepository 充电桩仓库
type ChargerRepository struct {
	db *DB
}

// NewChargerRepository 创建充电桩仓库
func NewChargerRepository(db *DB) *ChargerRepository {
	return &ChargerRepository{db: db}
}

// List 获取全部充电桩
func (r *ChargerRepository) List(ctx context.Context) ([]models.Charger, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name, rate_kw FROM chargers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list chargers: %w", err)
	}
	defer rows.Close()

	var chargers []models.Charger
	for rows.Next() {
		var c models.Charger
		if err := rows.Scan(&c.ID, &c.Name, &c.RateKW); err != nil {
			return nil, fmt.Errorf("scan charger: %w", err)
		}
		chargers = append(chargers, c)
	}

	return chargers, rows.Err()
}

// Create 新建充电桩
func (r *ChargerRepository) Create(ctx context.Context, c *models.Charger) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO chargers (name, rate_kw) VALUES ($1, $2) RETURNING id`,
		c.Name, c.RateKW,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert charger: %w", err)
	}
	return nil
}

// Update 更新充电桩；不存在时返回 false
func (r *ChargerRepository) Update(ctx context.Context, c *models.Charger) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE chargers SET name = $1, rate_kw = $2 WHERE id = $3`,
		c.Name, c.RateKW, c.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update charger: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete 删除充电桩；不存在时返回 false
func (r *ChargerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM chargers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete charger: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
