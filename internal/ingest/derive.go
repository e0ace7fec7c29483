package ingest

import "github.com/langchou/fleetgazer/internal/models"

// ClassifyActivity 按里程推断段的活动类型
// 里程缺失视为未行驶，归为 IDLE
func ClassifyActivity(mileageMiles *float64, thresholdMiles float64) string {
	if mileageMiles != nil && *mileageMiles > thresholdMiles {
		return models.ActivityDriving
	}
	return models.ActivityIdle
}

// ClassifySegments 对整个拼接后的运营数据集做活动分类
func ClassifySegments(segments []models.OperationalSegment, thresholdMiles float64) {
	for i := range segments {
		segments[i].ActivityType = ClassifyActivity(segments[i].MileageMiles, thresholdMiles)
	}
}

// DeriveChargingFields 在充电记录上计算派生字段
// 三个 SOC 派生字段始终存在（可能为空），下游聚合统一按空值过滤：
//   - soc_change_percent = soc_end - soc_start
//   - soc_kwh_added      = soc_change / 100 * 电池容量
//   - soc_based_charge_power_kw = soc_kwh_added / duration，
//     仅当 duration > 0 且 soc_change > 0 时有值，
//     放电或零时长的记录不得表现为负的或零的充电功率
func DeriveChargingFields(s *models.ChargingSession, essCapacityKWh float64) {
	if s.SOCStartPercent != nil && s.SOCEndPercent != nil {
		change := *s.SOCEndPercent - *s.SOCStartPercent
		s.SOCChangePercent = &change

		added := change / 100.0 * essCapacityKWh
		s.SOCKWhAdded = &added

		if s.DurationHours != nil && *s.DurationHours > 0 && change > 0 {
			power := added / *s.DurationHours
			s.SOCBasedChargePowerKW = &power
		}
	}

	// 充电桩上报能量口径的平均充电功率（与 SOC 口径并列保留）
	if s.EnergyTransferredKWh != nil && s.DurationHours != nil && *s.DurationHours > 0 {
		avg := *s.EnergyTransferredKWh / *s.DurationHours
		s.AvgChargingPowerKW = &avg
	}
}
