package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateOperationalSegments,
		migrationCreateChargingSessions,
		migrationCreateBusParameters,
		migrationCreateChargers,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateOperationalSegments = `
CREATE TABLE IF NOT EXISTS operational_segments (
    id BIGSERIAL PRIMARY KEY,
    bus VARCHAR(50) NOT NULL,
    date DATE NOT NULL,
    activity_type VARCHAR(10) NOT NULL,
    start_time VARCHAR(20),
    end_time VARCHAR(20),
    duration_hours DOUBLE PRECISION,
    mileage_miles DOUBLE PRECISION,
    energy_used_kwh DOUBLE PRECISION,
    average_temperature_f DOUBLE PRECISION,
    traction_energy_kwh DOUBLE PRECISION,
    regen_energy_kwh DOUBLE PRECISION,
    electric_heater_energy_kwh DOUBLE PRECISION,
    rear_hvac_energy_kwh DOUBLE PRECISION,
    air_compressor_energy_kwh DOUBLE PRECISION,
    lv_access_energy_kwh DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_operational_segments_bus ON operational_segments(bus);
CREATE INDEX IF NOT EXISTS idx_operational_segments_date ON operational_segments(date);
`

const migrationCreateChargingSessions = `
CREATE TABLE IF NOT EXISTS charging_sessions (
    id BIGSERIAL PRIMARY KEY,
    bus VARCHAR(50) NOT NULL,
    date DATE NOT NULL,
    duration_hours DOUBLE PRECISION,
    soc_start_percent DOUBLE PRECISION,
    soc_end_percent DOUBLE PRECISION,
    soc_change_percent DOUBLE PRECISION,
    soc_kwh_added DOUBLE PRECISION,
    soc_based_charge_power_kw DOUBLE PRECISION,
    average_charging_power_kw DOUBLE PRECISION,
    energy_transferred_kwh DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_charging_sessions_bus ON charging_sessions(bus);
CREATE INDEX IF NOT EXISTS idx_charging_sessions_date ON charging_sessions(date);
`

// 单行表，默认参数来自车队运营方的经验配置
const migrationCreateBusParameters = `
CREATE TABLE IF NOT EXISTS bus_parameters (
    id INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    ess_capacity_kwh DOUBLE PRECISION NOT NULL DEFAULT 435,
    avg_energy_use_kw DOUBLE PRECISION NOT NULL DEFAULT 55,
    low_soc_warning_percent DOUBLE PRECISION NOT NULL DEFAULT 20,
    critical_soc_warning_percent DOUBLE PRECISION NOT NULL DEFAULT 10
);
INSERT INTO bus_parameters (id) VALUES (1) ON CONFLICT (id) DO NOTHING;
`

const migrationCreateChargers = `
CREATE TABLE IF NOT EXISTS chargers (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    rate_kw DOUBLE PRECISION NOT NULL
);
`
