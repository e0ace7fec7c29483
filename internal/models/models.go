package models

import "time"

// 运营段活动类型
const (
	ActivityDriving = "DRIVING"
	ActivityIdle    = "IDLE"
)

// OperationalSegment 一段连续的车辆活动记录（行驶或怠速）
type OperationalSegment struct {
	ID                  int64     `json:"id" db:"id"`
	Bus                 string    `json:"bus" db:"bus"`
	Date                time.Time `json:"date" db:"date"`
	ActivityType        string    `json:"activity_type" db:"activity_type"`
	StartTime           *string   `json:"start_time,omitempty" db:"start_time"`
	EndTime             *string   `json:"end_time,omitempty" db:"end_time"`
	DurationHours       *float64  `json:"duration_hours" db:"duration_hours"`
	MileageMiles        *float64  `json:"mileage_miles" db:"mileage_miles"`
	EnergyUsedKWh       *float64  `json:"energy_used_kwh" db:"energy_used_kwh"`
	AverageTemperatureF *float64  `json:"average_temperature_f" db:"average_temperature_f"`

	// 分系统能耗，源表可能缺列，均可为空
	TractionEnergyKWh       *float64 `json:"traction_energy_kwh" db:"traction_energy_kwh"`
	RegenEnergyKWh          *float64 `json:"regen_energy_kwh" db:"regen_energy_kwh"`
	ElectricHeaterEnergyKWh *float64 `json:"electric_heater_energy_kwh" db:"electric_heater_energy_kwh"`
	RearHVACEnergyKWh       *float64 `json:"rear_hvac_energy_kwh" db:"rear_hvac_energy_kwh"`
	AirCompressorEnergyKWh  *float64 `json:"air_compressor_energy_kwh" db:"air_compressor_energy_kwh"`
	LVAccessEnergyKWh       *float64 `json:"lv_access_energy_kwh" db:"lv_access_energy_kwh"`
}

// ChargingSession 一次充电事件
type ChargingSession struct {
	ID                   int64     `json:"id" db:"id"`
	Bus                  string    `json:"bus" db:"bus"`
	Date                 time.Time `json:"date" db:"date"`
	DurationHours        *float64  `json:"duration_hours" db:"duration_hours"`
	SOCStartPercent      *float64  `json:"soc_start_percent" db:"soc_start_percent"`
	SOCEndPercent        *float64  `json:"soc_end_percent" db:"soc_end_percent"`
	EnergyTransferredKWh *float64  `json:"energy_transferred_kwh" db:"energy_transferred_kwh"`

	// 派生字段，入库前计算，缺输入时为空
	SOCChangePercent      *float64 `json:"soc_change_percent" db:"soc_change_percent"`
	SOCKWhAdded           *float64 `json:"soc_kwh_added" db:"soc_kwh_added"`
	SOCBasedChargePowerKW *float64 `json:"soc_based_charge_power_kw" db:"soc_based_charge_power_kw"`
	AvgChargingPowerKW    *float64 `json:"average_charging_power_kw" db:"average_charging_power_kw"`
}

// BusParameters 全车队参数（单行）
type BusParameters struct {
	ESSCapacityKWh            float64 `json:"ess_capacity_kwh" db:"ess_capacity_kwh"`
	AvgEnergyUseKW            float64 `json:"avg_energy_use_kw" db:"avg_energy_use_kw"`
	LowSOCWarningPercent      float64 `json:"low_soc_warning_percent" db:"low_soc_warning_percent"`
	CriticalSOCWarningPercent float64 `json:"critical_soc_warning_percent" db:"critical_soc_warning_percent"`
}

// Charger 充电桩定义
type Charger struct {
	ID     int64   `json:"id" db:"id"`
	Name   string  `json:"name" db:"name"`
	RateKW float64 `json:"rate_kw" db:"rate_kw"`
}

// Float64Ptr 构造可空数值字段的便捷函数
func Float64Ptr(v float64) *float64 { return &v }
