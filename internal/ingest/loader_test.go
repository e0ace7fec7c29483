package ingest

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/config"
	"github.com/langchou/fleetgazer/internal/models"
)

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		filename string
		want     FileKind
	}{
		// charge 关键字必须先于 summary 命中
		{"November_2022_Charge_Summary.csv", KindCharging},
		{"november_2022_charge_summary.csv", KindCharging},
		{"November_2022_Summary.csv", KindOperational},
		{"January_2023_Summary_v2.csv", KindOperational},
		{"fleet_notes.csv", KindUnknown},
		{"readme.csv", KindUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyFile(tt.filename); got != tt.want {
			t.Errorf("ClassifyFile(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

const opsCSV = `Bus,Date,Duration,Mileage [Miles],Energy Used [kWh],Average Temperature [°F],Traction Energy [kWh],Regen Energy [kWh]
1201,2023-01-15,8:30:00,120.4,210.8,28.5,180.2,-35.1
1202,2023-01-15,6:00:00,0.05,12.2,30.1,8.0,-0.4
1203,bad-date,1:00:00,50,80,40,60,-10
`

func TestProcessOperationalFile(t *testing.T) {
	segments, err := ProcessOperationalFile(strings.NewReader(opsCSV))
	if err != nil {
		t.Fatalf("ProcessOperationalFile: %v", err)
	}

	// 坏日期的行被丢弃
	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}

	s := segments[0]
	if s.Bus != "1201" {
		t.Errorf("bus = %q, want 1201", s.Bus)
	}
	if s.Date.Format("2006-01-02") != "2023-01-15" {
		t.Errorf("date = %s", s.Date)
	}
	if s.DurationHours == nil || *s.DurationHours != 8.5 {
		t.Errorf("duration = %v, want 8.5", s.DurationHours)
	}
	if s.MileageMiles == nil || *s.MileageMiles != 120.4 {
		t.Errorf("mileage = %v, want 120.4", s.MileageMiles)
	}
	if s.RegenEnergyKWh == nil || *s.RegenEnergyKWh != -35.1 {
		t.Errorf("regen = %v, want -35.1", s.RegenEnergyKWh)
	}
}

func TestProcessOperationalFileMissingDateColumn(t *testing.T) {
	csv := "Bus,Duration,Mileage [Miles]\n1201,8:00:00,100\n"
	if _, err := ProcessOperationalFile(strings.NewReader(csv)); err == nil {
		t.Fatal("expected error for file without date column")
	}
}

func TestProcessChargingFile(t *testing.T) {
	csv := `Bus,Date,Duration,SOC Start [%],SOC End [%],Energy Transferred [kWh]
1201,2023-01-15,2:00:00,50,80,140
1202,2023-01-15,1:00:00,80,70,0
`
	sessions, err := ProcessChargingFile(strings.NewReader(csv), 435)
	if err != nil {
		t.Fatalf("ProcessChargingFile: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}

	charge := sessions[0]
	if charge.SOCBasedChargePowerKW == nil || *charge.SOCBasedChargePowerKW != 65.25 {
		t.Errorf("charge power = %v, want 65.25", charge.SOCBasedChargePowerKW)
	}
	if charge.AvgChargingPowerKW == nil || *charge.AvgChargingPowerKW != 70 {
		t.Errorf("avg charging power = %v, want 70", charge.AvgChargingPowerKW)
	}

	discharge := sessions[1]
	if discharge.SOCBasedChargePowerKW != nil {
		t.Errorf("discharge power = %v, want nil", *discharge.SOCBasedChargePowerKW)
	}
}

// 记录替换调用的假存储
type fakeSegmentStore struct {
	replaced [][]models.OperationalSegment
}

func (f *fakeSegmentStore) ReplaceAll(_ context.Context, segments []models.OperationalSegment) error {
	f.replaced = append(f.replaced, segments)
	return nil
}

type fakeChargingStore struct {
	replaced [][]models.ChargingSession
}

func (f *fakeChargingStore) ReplaceAll(_ context.Context, sessions []models.ChargingSession) error {
	f.replaced = append(f.replaced, sessions)
	return nil
}

type fakeParamsStore struct{}

func (fakeParamsStore) Get(context.Context) (*models.BusParameters, error) {
	return &models.BusParameters{ESSCapacityKWh: 435}, nil
}

func newTestService(t *testing.T, dataDir string) (*Service, *fakeSegmentStore, *fakeChargingStore) {
	t.Helper()
	cfg := &config.Config{
		DataDir:                      dataDir,
		DrivingMileageThresholdMiles: config.DefaultDrivingMileageThresholdMiles,
		AuditStartYear:               2023,
		AuditStartMonth:              1,
	}
	segs := &fakeSegmentStore{}
	charges := &fakeChargingStore{}
	return NewService(cfg, zap.NewNop(), segs, charges, fakeParamsStore{}), segs, charges
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestServiceRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "January_2023_Summary.csv", opsCSV)
	writeFile(t, dir, "January_2023_Charge_Summary.csv",
		"Bus,Date,Duration,SOC Start [%],SOC End [%]\n1201,2023-01-16,1:00:00,40,70\n")
	writeFile(t, dir, "January_2023_Summary_broken.csv", "Bus,Duration\n1201,1:00:00\n") // 缺 date 列
	writeFile(t, dir, "unrelated.csv", "a,b\n1,2\n")

	svc, segs, charges := newTestService(t, dir)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.FilesProcessed != 2 {
		t.Errorf("files_processed = %d, want 2", report.FilesProcessed)
	}
	if len(report.FilesSkipped) != 2 {
		t.Errorf("files_skipped = %v, want 2 entries", report.FilesSkipped)
	}
	if report.SegmentRows != 2 || report.ChargingRows != 1 {
		t.Errorf("rows = (%d, %d), want (2, 1)", report.SegmentRows, report.ChargingRows)
	}

	if len(segs.replaced) != 1 || len(charges.replaced) != 1 {
		t.Fatal("each table should be replaced exactly once per run")
	}

	// 活动分类在拼接后的全量数据上执行
	loaded := segs.replaced[0]
	if loaded[0].ActivityType != models.ActivityDriving {
		t.Errorf("segment 0 activity = %q, want DRIVING", loaded[0].ActivityType)
	}
	if loaded[1].ActivityType != models.ActivityIdle {
		t.Errorf("segment 1 activity = %q, want IDLE", loaded[1].ActivityType)
	}

	// 覆盖审计随报告返回；已到的月度报表不得出现在缺失列表里
	if report.Coverage == nil {
		t.Fatal("report should carry a coverage audit")
	}
	for _, sig := range report.Coverage.Missing {
		if sig == "January_2023_Summary" || sig == "January_2023_Charge_Summary" {
			t.Errorf("%s reported missing despite being present", sig)
		}
	}

	if svc.machine.Current() != "idle" {
		t.Errorf("machine state = %q, want idle after run", svc.machine.Current())
	}
}

func TestServiceRunEmptyDirStillReplaces(t *testing.T) {
	svc, segs, charges := newTestService(t, t.TempDir())

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.SegmentRows != 0 || report.ChargingRows != 0 {
		t.Errorf("rows = (%d, %d), want (0, 0)", report.SegmentRows, report.ChargingRows)
	}

	// 空结果也要替换掉旧表，这是有意设计的行为
	if len(segs.replaced) != 1 || len(charges.replaced) != 1 {
		t.Fatal("empty run must still replace both tables")
	}
}

func TestServiceRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "March_2023_Summary.csv", opsCSV)

	svc, segs, _ := newTestService(t, dir)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(segs.replaced) != 2 {
		t.Fatalf("replaced %d times, want 2", len(segs.replaced))
	}
	if !reflect.DeepEqual(segs.replaced[0], segs.replaced[1]) {
		t.Error("re-running ingestion on the same input must produce an identical table")
	}
}
