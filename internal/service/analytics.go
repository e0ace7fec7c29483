package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/config"
	"github.com/langchou/fleetgazer/internal/models"
	"github.com/langchou/fleetgazer/internal/repository"
)

// Filter 聚合查询的通用过滤条件
// 温度与日期区间均为闭区间；未设置的边界不限制
// 设置了温度边界时，缺温度的段不参与统计
type Filter struct {
	TempMin   *float64
	TempMax   *float64
	DateStart *time.Time
	DateEnd   *time.Time
	Buses     []string
}

func (f *Filter) matchSegment(s *models.OperationalSegment) bool {
	if f.TempMin != nil || f.TempMax != nil {
		if s.AverageTemperatureF == nil {
			return false
		}
		if f.TempMin != nil && *s.AverageTemperatureF < *f.TempMin {
			return false
		}
		if f.TempMax != nil && *s.AverageTemperatureF > *f.TempMax {
			return false
		}
	}
	if f.DateStart != nil && s.Date.Before(*f.DateStart) {
		return false
	}
	if f.DateEnd != nil && s.Date.After(*f.DateEnd) {
		return false
	}
	if len(f.Buses) > 0 {
		found := false
		for _, b := range f.Buses {
			if b == s.Bus {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// drivingWithDuration 快照/分箱/时序共用的段筛选口径
func drivingWithDuration(s *models.OperationalSegment) bool {
	return s.ActivityType == models.ActivityDriving &&
		s.DurationHours != nil && *s.DurationHours > 0
}

// safeDiv 除零归零，结果不允许出现 Inf/NaN
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// 分系统能耗的规范名称
const (
	SubsystemTraction       = "traction"
	SubsystemRegen          = "regen"
	SubsystemElectricHeater = "electric_heater"
	SubsystemRearHVAC       = "rear_hvac"
	SubsystemAirCompressor  = "air_compressor"
	SubsystemLVAccess       = "lv_access"
)

// VehicleKPI 单车聚合指标
type VehicleKPI struct {
	Bus                  string             `json:"bus"`
	SegmentCount         int                `json:"segment_count"`
	TotalEnergyKWh       float64            `json:"total_energy_kwh"`
	TotalDurationHours   float64            `json:"total_duration_hours"`
	TotalMileageMiles    float64            `json:"total_mileage_miles"`
	AvgPowerKW           float64            `json:"avg_power_kw"`
	AvgEconomyKWhPerMile float64            `json:"avg_economy_kwh_per_mile"`
	RegenOffsetPercent   float64            `json:"regen_offset_percent"`
	SubsystemAvgPowerKW  map[string]float64 `json:"subsystem_avg_power_kw"`
}

// FleetRanking 车队排名，仅统计 avg_power_kw > 0 的车辆
// best 为指标最小值（耗电越少越好），worst 为最大值
type FleetRanking struct {
	QualifiedCount         int      `json:"qualified_count"`
	MeanAvgPowerKW         *float64 `json:"mean_avg_power_kw"`
	MeanEconomyKWhPerMile  *float64 `json:"mean_economy_kwh_per_mile"`
	BestPowerBus           *string  `json:"best_power_bus"`
	BestPowerKW            *float64 `json:"best_power_kw"`
	WorstPowerBus          *string  `json:"worst_power_bus"`
	WorstPowerKW           *float64 `json:"worst_power_kw"`
	BestEconomyBus         *string  `json:"best_economy_bus"`
	BestEconomyKWhPerMile  *float64 `json:"best_economy_kwh_per_mile"`
	WorstEconomyBus        *string  `json:"worst_economy_bus"`
	WorstEconomyKWhPerMile *float64 `json:"worst_economy_kwh_per_mile"`
}

// FleetSnapshot 快照结果：完整车辆名册 + 单车指标 + 车队排名
type FleetSnapshot struct {
	Buses    []string               `json:"buses"`
	Vehicles map[string]*VehicleKPI `json:"vehicles"`
	Fleet    *FleetRanking          `json:"fleet"`
}

type vehicleTotals struct {
	energy, duration, mileage float64
	count                     int
	subsystems                map[string]float64
}

// BuildSnapshot 对过滤后的 DRIVING 段（duration > 0）做单车汇总与车队排名
// 名册中的每辆车都会出现在结果里，没有匹配数据时各指标为零
func BuildSnapshot(buses []string, segments []models.OperationalSegment, f Filter) *FleetSnapshot {
	totals := make(map[string]*vehicleTotals, len(buses))
	roster := make([]string, 0, len(buses))
	for _, bus := range buses {
		if _, ok := totals[bus]; ok {
			continue
		}
		totals[bus] = &vehicleTotals{subsystems: make(map[string]float64)}
		roster = append(roster, bus)
	}

	for i := range segments {
		s := &segments[i]
		if !drivingWithDuration(s) || !f.matchSegment(s) {
			continue
		}
		t, ok := totals[s.Bus]
		if !ok {
			// 名册之外出现的车辆追加到末尾
			t = &vehicleTotals{subsystems: make(map[string]float64)}
			totals[s.Bus] = t
			roster = append(roster, s.Bus)
		}
		t.count++
		t.energy += deref(s.EnergyUsedKWh)
		t.duration += *s.DurationHours
		t.mileage += deref(s.MileageMiles)
		t.subsystems[SubsystemTraction] += deref(s.TractionEnergyKWh)
		t.subsystems[SubsystemRegen] += deref(s.RegenEnergyKWh)
		t.subsystems[SubsystemElectricHeater] += deref(s.ElectricHeaterEnergyKWh)
		t.subsystems[SubsystemRearHVAC] += deref(s.RearHVACEnergyKWh)
		t.subsystems[SubsystemAirCompressor] += deref(s.AirCompressorEnergyKWh)
		t.subsystems[SubsystemLVAccess] += deref(s.LVAccessEnergyKWh)
	}

	snapshot := &FleetSnapshot{
		Buses:    roster,
		Vehicles: make(map[string]*VehicleKPI, len(roster)),
	}
	for _, bus := range roster {
		t := totals[bus]
		kpi := &VehicleKPI{
			Bus:                  bus,
			SegmentCount:         t.count,
			TotalEnergyKWh:       t.energy,
			TotalDurationHours:   t.duration,
			TotalMileageMiles:    t.mileage,
			AvgPowerKW:           safeDiv(t.energy, t.duration),
			AvgEconomyKWhPerMile: safeDiv(t.energy, t.mileage),
			RegenOffsetPercent:   safeDiv(t.subsystems[SubsystemRegen], t.subsystems[SubsystemTraction]) * 100,
			SubsystemAvgPowerKW:  make(map[string]float64, len(t.subsystems)),
		}
		for name, sum := range t.subsystems {
			kpi.SubsystemAvgPowerKW[name] = safeDiv(sum, t.duration)
		}
		snapshot.Vehicles[bus] = kpi
	}

	snapshot.Fleet = rankFleet(roster, snapshot.Vehicles)
	return snapshot
}

// rankFleet 车队均值与最好/最差车辆
// 零功率车辆整体排除，避免无数据的车占据榜首；并列按名册顺序取先出现者
func rankFleet(roster []string, vehicles map[string]*VehicleKPI) *FleetRanking {
	ranking := &FleetRanking{}

	var qualified []*VehicleKPI
	for _, bus := range roster {
		if kpi := vehicles[bus]; kpi.AvgPowerKW > 0 {
			qualified = append(qualified, kpi)
		}
	}
	ranking.QualifiedCount = len(qualified)
	if len(qualified) == 0 {
		return ranking
	}

	var sumPower, sumEconomy float64
	bestPower, worstPower := qualified[0], qualified[0]
	bestEconomy, worstEconomy := qualified[0], qualified[0]
	for _, kpi := range qualified {
		sumPower += kpi.AvgPowerKW
		sumEconomy += kpi.AvgEconomyKWhPerMile
		if kpi.AvgPowerKW < bestPower.AvgPowerKW {
			bestPower = kpi
		}
		if kpi.AvgPowerKW > worstPower.AvgPowerKW {
			worstPower = kpi
		}
		if kpi.AvgEconomyKWhPerMile < bestEconomy.AvgEconomyKWhPerMile {
			bestEconomy = kpi
		}
		if kpi.AvgEconomyKWhPerMile > worstEconomy.AvgEconomyKWhPerMile {
			worstEconomy = kpi
		}
	}

	meanPower := sumPower / float64(len(qualified))
	meanEconomy := sumEconomy / float64(len(qualified))
	ranking.MeanAvgPowerKW = &meanPower
	ranking.MeanEconomyKWhPerMile = &meanEconomy
	ranking.BestPowerBus = &bestPower.Bus
	ranking.BestPowerKW = &bestPower.AvgPowerKW
	ranking.WorstPowerBus = &worstPower.Bus
	ranking.WorstPowerKW = &worstPower.AvgPowerKW
	ranking.BestEconomyBus = &bestEconomy.Bus
	ranking.BestEconomyKWhPerMile = &bestEconomy.AvgEconomyKWhPerMile
	ranking.WorstEconomyBus = &worstEconomy.Bus
	ranking.WorstEconomyKWhPerMile = &worstEconomy.AvgEconomyKWhPerMile
	return ranking
}

// rollingWindow 时序平滑的滚动窗口长度（按天）
const rollingWindow = 7

// DailyPoint 单车单日指标
type DailyPoint struct {
	Date              string   `json:"date"`
	SegmentCount      int      `json:"segment_count"`
	AvgPowerKW        float64  `json:"avg_power_kw"`
	RollingAvgPowerKW float64  `json:"rolling_avg_power_kw"`
	AvgTemperatureF   *float64 `json:"avg_temperature_f"`
}

// BuildTimeSeries 按（车辆, 日期）分组计算日均功率与平均气温，
// 再对日均功率做截尾滚动均值：窗口最长 7 期，序列开头窗口收窄（最少 1 期），
// 保留两位小数
func BuildTimeSeries(segments []models.OperationalSegment, f Filter) map[string][]DailyPoint {
	type dayTotals struct {
		energy, duration float64
		tempSum          float64
		tempCount        int
		count            int
	}
	byBus := make(map[string]map[string]*dayTotals)

	for i := range segments {
		s := &segments[i]
		if !drivingWithDuration(s) || !f.matchSegment(s) {
			continue
		}
		day := s.Date.Format("2006-01-02")
		if byBus[s.Bus] == nil {
			byBus[s.Bus] = make(map[string]*dayTotals)
		}
		t := byBus[s.Bus][day]
		if t == nil {
			t = &dayTotals{}
			byBus[s.Bus][day] = t
		}
		t.count++
		t.energy += deref(s.EnergyUsedKWh)
		t.duration += *s.DurationHours
		if s.AverageTemperatureF != nil {
			t.tempSum += *s.AverageTemperatureF
			t.tempCount++
		}
	}

	result := make(map[string][]DailyPoint, len(byBus))
	for bus, days := range byBus {
		dates := make([]string, 0, len(days))
		for day := range days {
			dates = append(dates, day)
		}
		sort.Strings(dates)

		points := make([]DailyPoint, 0, len(dates))
		for _, day := range dates {
			t := days[day]
			p := DailyPoint{
				Date:         day,
				SegmentCount: t.count,
				AvgPowerKW:   safeDiv(t.energy, t.duration),
			}
			if t.tempCount > 0 {
				avgTemp := t.tempSum / float64(t.tempCount)
				p.AvgTemperatureF = &avgTemp
			}
			points = append(points, p)
		}

		for i := range points {
			lo := i - rollingWindow + 1
			if lo < 0 {
				lo = 0
			}
			var sum float64
			for j := lo; j <= i; j++ {
				sum += points[j].AvgPowerKW
			}
			points[i].RollingAvgPowerKW = round2(sum / float64(i-lo+1))
		}

		result[bus] = points
	}
	return result
}

// tempBinDef 固定温度分箱，lo 含、hi 不含
type tempBinDef struct {
	label  string
	lo, hi float64
}

var tempBinDefs = []tempBinDef{
	{"Below 30°F", math.Inf(-1), 30},
	{"30-39°F", 30, 40},
	{"40-49°F", 40, 50},
	{"50-59°F", 50, 60},
	{"60-69°F", 60, 70},
	{"70-79°F", 70, 80},
	{"80°F+", 80, math.Inf(1)},
}

// TempBin 一个有数据的温度分箱
type TempBin struct {
	Label        string  `json:"label"`
	MinTempF     float64 `json:"min_temp_f"`
	SegmentCount int     `json:"segment_count"`
	AvgPowerKW   float64 `json:"avg_power_kw"`
}

// BuildTemperatureBins 按固定温度区间对 DRIVING 段分箱求 Σ能耗/Σ时长，
// 结果按各箱实际观测到的最低温度升序排列，不按标签字典序
func BuildTemperatureBins(segments []models.OperationalSegment, f Filter) []TempBin {
	type binTotals struct {
		energy, duration, minTemp float64
		count                     int
	}
	totals := make([]*binTotals, len(tempBinDefs))

	for i := range segments {
		s := &segments[i]
		if !drivingWithDuration(s) || !f.matchSegment(s) || s.AverageTemperatureF == nil {
			continue
		}
		temp := *s.AverageTemperatureF
		for bi, def := range tempBinDefs {
			if temp >= def.lo && temp < def.hi {
				t := totals[bi]
				if t == nil {
					t = &binTotals{minTemp: temp}
					totals[bi] = t
				} else if temp < t.minTemp {
					t.minTemp = temp
				}
				t.count++
				t.energy += deref(s.EnergyUsedKWh)
				t.duration += *s.DurationHours
				break
			}
		}
	}

	var bins []TempBin
	for bi, t := range totals {
		if t == nil {
			continue
		}
		bins = append(bins, TempBin{
			Label:        tempBinDefs[bi].label,
			MinTempF:     t.minTemp,
			SegmentCount: t.count,
			AvgPowerKW:   safeDiv(t.energy, t.duration),
		})
	}
	sort.SliceStable(bins, func(i, j int) bool {
		return bins[i].MinTempF < bins[j].MinTempF
	})
	return bins
}

// PlausibilityBounds 充电记录合理性过滤边界
type PlausibilityBounds struct {
	MinDurationHours    float64
	MinSOCChangePercent float64
	MaxPowerKW          float64
}

// ChargingSummary 充电统计；没有合格记录时 count 为 0、均值为空
type ChargingSummary struct {
	SessionCount      int      `json:"session_count"`
	MeanChargePowerKW *float64 `json:"mean_charge_power_kw"`
}

// BuildChargingSummary 过滤掉疑似数据伪影的充电记录后求平均充电功率
// 过滤条件：时长与 SOC 增量超过下限、派生功率非空且落在 (0, 上限) 区间
func BuildChargingSummary(sessions []models.ChargingSession, bounds PlausibilityBounds) *ChargingSummary {
	summary := &ChargingSummary{}
	var sum float64
	for i := range sessions {
		s := &sessions[i]
		if s.DurationHours == nil || *s.DurationHours <= bounds.MinDurationHours {
			continue
		}
		if s.SOCChangePercent == nil || *s.SOCChangePercent <= bounds.MinSOCChangePercent {
			continue
		}
		p := s.SOCBasedChargePowerKW
		if p == nil || *p <= 0 || *p >= bounds.MaxPowerKW {
			continue
		}
		summary.SessionCount++
		sum += *p
	}
	if summary.SessionCount > 0 {
		mean := sum / float64(summary.SessionCount)
		summary.MeanChargePowerKW = &mean
	}
	return summary
}

// AnalyticsService 聚合引擎：从规范库读数，在内存中计算
type AnalyticsService struct {
	cfg      *config.Config
	logger   *zap.Logger
	segments *repository.SegmentRepository
	charging *repository.ChargingRepository
}

// NewAnalyticsService 创建聚合服务
func NewAnalyticsService(cfg *config.Config, logger *zap.Logger, segments *repository.SegmentRepository, charging *repository.ChargingRepository) *AnalyticsService {
	return &AnalyticsService{
		cfg:      cfg,
		logger:   logger,
		segments: segments,
		charging: charging,
	}
}

// Snapshot 单车快照 + 车队排名
func (a *AnalyticsService) Snapshot(ctx context.Context, f Filter) (*FleetSnapshot, error) {
	buses, err := a.segments.ListBuses(ctx)
	if err != nil {
		return nil, err
	}
	segments, err := a.segments.List(ctx, f.DateStart, f.DateEnd)
	if err != nil {
		return nil, err
	}
	return BuildSnapshot(buses, segments, f), nil
}

// TimeSeries 按车辆的日功率时序（含滚动均值）
func (a *AnalyticsService) TimeSeries(ctx context.Context, f Filter) (map[string][]DailyPoint, error) {
	segments, err := a.segments.List(ctx, f.DateStart, f.DateEnd)
	if err != nil {
		return nil, err
	}
	return BuildTimeSeries(segments, f), nil
}

// TemperatureBins 温度分箱 KPI
func (a *AnalyticsService) TemperatureBins(ctx context.Context, f Filter) ([]TempBin, error) {
	segments, err := a.segments.List(ctx, f.DateStart, f.DateEnd)
	if err != nil {
		return nil, err
	}
	return BuildTemperatureBins(segments, f), nil
}

// ChargingStats 充电统计
func (a *AnalyticsService) ChargingStats(ctx context.Context, f Filter) (*ChargingSummary, error) {
	sessions, err := a.charging.List(ctx, f.DateStart, f.DateEnd)
	if err != nil {
		return nil, err
	}
	bounds := PlausibilityBounds{
		MinDurationHours:    a.cfg.MinChargeDurationHours,
		MinSOCChangePercent: a.cfg.MinSOCChangePercent,
		MaxPowerKW:          a.cfg.MaxChargePowerKW,
	}
	return BuildChargingSummary(sessions, bounds), nil
}

// Buses 车辆名册
func (a *AnalyticsService) Buses(ctx context.Context) ([]string, error) {
	return a.segments.ListBuses(ctx)
}
