package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/config"
	"github.com/langchou/fleetgazer/internal/models"
	"github.com/langchou/fleetgazer/internal/normalize"
	"github.com/langchou/fleetgazer/internal/state"
)

// 文件名路由关键字
// charge 关键字必须先于更宽泛的 summary 检查，否则充电文件会被误路由到运营管线
const (
	chargeFileKeyword = "charge_summary"
	opsFileKeyword    = "summary"
)

// FileKind 路由结果
type FileKind int

const (
	KindUnknown FileKind = iota
	KindOperational
	KindCharging
)

// ClassifyFile 按文件名约定判断源文件类型
func ClassifyFile(filename string) FileKind {
	name := strings.ToLower(filepath.Base(filename))
	if strings.Contains(name, chargeFileKeyword) {
		return KindCharging
	}
	if strings.Contains(name, opsFileKeyword) {
		return KindOperational
	}
	return KindUnknown
}

// SegmentWriter 运营段写入端
type SegmentWriter interface {
	ReplaceAll(ctx context.Context, segments []models.OperationalSegment) error
}

// ChargingWriter 充电记录写入端
type ChargingWriter interface {
	ReplaceAll(ctx context.Context, sessions []models.ChargingSession) error
}

// ParamsReader 车队参数读取端（派生计算需要电池容量）
type ParamsReader interface {
	Get(ctx context.Context) (*models.BusParameters, error)
}

// Service 采集编排器：发现源文件、归一化、派生、整表替换入库
type Service struct {
	cfg        *config.Config
	logger     *zap.Logger
	segments   SegmentWriter
	charging   ChargingWriter
	params     ParamsReader
	machine    *state.Machine
	onComplete func()
}

// NewService 创建采集服务
func NewService(cfg *config.Config, logger *zap.Logger, segments SegmentWriter, charging ChargingWriter, params ParamsReader) *Service {
	return &Service{
		cfg:      cfg,
		logger:   logger,
		segments: segments,
		charging: charging,
		params:   params,
		machine:  state.NewMachine(),
	}
}

// OnComplete 注册任务成功后的回调（用于通知前端刷新）
func (s *Service) OnComplete(fn func()) {
	s.onComplete = fn
}

// Status 当前状态与最近一次执行报告
func (s *Service) Status() (string, *state.RunReport) {
	return s.machine.Current(), s.machine.LastRun()
}

// Run 执行一次完整采集。并发调用时第二个调用方直接收到错误。
// 单个坏文件只跳过不中断；某一类数据为空时对应表仍然被替换为空集。
func (s *Service) Run(ctx context.Context) (*state.RunReport, error) {
	if err := s.machine.Begin(); err != nil {
		return nil, err
	}

	report := &state.RunReport{StartedAt: time.Now()}
	defer func() {
		report.FinishedAt = time.Now()
		s.machine.Finish(report)
	}()

	params, err := s.params.Get(ctx)
	if err != nil {
		report.Err = err.Error()
		return report, fmt.Errorf("load bus parameters: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(s.cfg.DataDir, "*.csv"))
	if err != nil {
		report.Err = err.Error()
		return report, fmt.Errorf("scan data dir: %w", err)
	}
	s.logger.Info("Ingestion run started",
		zap.String("data_dir", s.cfg.DataDir),
		zap.Int("candidate_files", len(files)))

	// 对照应到的月度报表审计数据目录，结果随报告暴露给状态接口
	if s.cfg.AuditStartYear > 0 {
		auditStart := time.Date(s.cfg.AuditStartYear, time.Month(s.cfg.AuditStartMonth), 1, 0, 0, 0, 0, time.UTC)
		report.Coverage = AuditCoverage(files, auditStart, time.Now())
		if len(report.Coverage.Missing) > 0 {
			s.logger.Warn("Data directory has missing monthly reports",
				zap.Int("expected", report.Coverage.ExpectedSignatures),
				zap.Int("found", report.Coverage.FoundSignatures),
				zap.Strings("missing", report.Coverage.Missing))
		}
	}

	var allSegments []models.OperationalSegment
	var allSessions []models.ChargingSession

	for _, path := range files {
		name := filepath.Base(path)
		kind := ClassifyFile(name)
		if kind == KindUnknown {
			s.logger.Warn("Skipping file with unknown type", zap.String("file", name))
			report.FilesSkipped = append(report.FilesSkipped, name)
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			s.logger.Warn("Skipping unreadable file", zap.String("file", name), zap.Error(err))
			report.FilesSkipped = append(report.FilesSkipped, name)
			continue
		}

		switch kind {
		case KindCharging:
			sessions, err := ProcessChargingFile(f, params.ESSCapacityKWh)
			if err != nil {
				s.logger.Warn("Skipping bad charging file", zap.String("file", name), zap.Error(err))
				report.FilesSkipped = append(report.FilesSkipped, name)
			} else {
				allSessions = append(allSessions, sessions...)
				report.FilesProcessed++
				s.logger.Info("Processed charging file", zap.String("file", name), zap.Int("rows", len(sessions)))
			}
		case KindOperational:
			segments, err := ProcessOperationalFile(f)
			if err != nil {
				s.logger.Warn("Skipping bad operational file", zap.String("file", name), zap.Error(err))
				report.FilesSkipped = append(report.FilesSkipped, name)
			} else {
				allSegments = append(allSegments, segments...)
				report.FilesProcessed++
				s.logger.Info("Processed operational file", zap.String("file", name), zap.Int("rows", len(segments)))
			}
		}
		f.Close()
	}

	// 活动分类在全量拼接后的数据集上统一执行
	ClassifySegments(allSegments, s.cfg.DrivingMileageThresholdMiles)

	if err := s.segments.ReplaceAll(ctx, allSegments); err != nil {
		report.Err = err.Error()
		return report, fmt.Errorf("replace operational segments: %w", err)
	}
	if err := s.charging.ReplaceAll(ctx, allSessions); err != nil {
		report.Err = err.Error()
		return report, fmt.Errorf("replace charging sessions: %w", err)
	}

	report.SegmentRows = len(allSegments)
	report.ChargingRows = len(allSessions)

	s.logger.Info("Ingestion run finished",
		zap.Int("files_processed", report.FilesProcessed),
		zap.Int("files_skipped", len(report.FilesSkipped)),
		zap.Int("segment_rows", report.SegmentRows),
		zap.Int("charging_rows", report.ChargingRows))

	if s.onComplete != nil {
		s.onComplete()
	}
	return report, nil
}

// ProcessOperationalFile 解析一个运营数据文件
// 文件级契约：必须有 date 列；日期解析失败的行静默丢弃
func ProcessOperationalFile(r io.Reader) ([]models.OperationalSegment, error) {
	table, err := normalize.ReadTable(r)
	if err != nil {
		return nil, err
	}
	if !table.HasColumn("date") {
		return nil, fmt.Errorf("missing required column %q", "date")
	}

	var segments []models.OperationalSegment
	for _, row := range table.Rows {
		date, ok := normalize.ParseDate(row.String("date"))
		if !ok {
			continue // 没有有效日期的行无法按日期聚合，丢弃
		}

		seg := models.OperationalSegment{
			Bus:                 row.String("bus"),
			Date:                date,
			DurationHours:       row.DurationHours("duration"),
			MileageMiles:        row.Float("mileage_miles"),
			EnergyUsedKWh:       row.Float("energy_used_kwh"),
			AverageTemperatureF: row.Float("average_temperature_f"),

			TractionEnergyKWh:       row.Float("traction_energy_kwh"),
			RegenEnergyKWh:          row.Float("regen_energy_kwh"),
			ElectricHeaterEnergyKWh: row.Float("electric_heater_energy_kwh"),
			RearHVACEnergyKWh:       row.Float("rear_hvac_energy_kwh"),
			AirCompressorEnergyKWh:  row.Float("air_compressor_energy_kwh"),
			LVAccessEnergyKWh:       row.Float("lv_access_energy_kwh"),
		}
		if v := row.String("start_time"); v != "" {
			seg.StartTime = &v
		}
		if v := row.String("end_time"); v != "" {
			seg.EndTime = &v
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// ProcessChargingFile 解析一个充电汇总文件并计算派生字段
func ProcessChargingFile(r io.Reader, essCapacityKWh float64) ([]models.ChargingSession, error) {
	table, err := normalize.ReadTable(r)
	if err != nil {
		return nil, err
	}
	if !table.HasColumn("date") {
		return nil, fmt.Errorf("missing required column %q", "date")
	}

	var sessions []models.ChargingSession
	for _, row := range table.Rows {
		date, ok := normalize.ParseDate(row.String("date"))
		if !ok {
			continue
		}

		sess := models.ChargingSession{
			Bus:                  row.String("bus"),
			Date:                 date,
			DurationHours:        row.DurationHours("duration"),
			SOCStartPercent:      row.Float("soc_start_percent"),
			SOCEndPercent:        row.Float("soc_end_percent"),
			EnergyTransferredKWh: row.Float("energy_transferred_kwh"),
		}
		DeriveChargingFields(&sess, essCapacityKWh)
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
