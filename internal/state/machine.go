package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 采集任务状态常量
const (
	StateIdle    = "idle"
	StateRunning = "running"
)

// 事件常量
const (
	EventStart  = "start"
	EventFinish = "finish"
)

// Coverage 数据目录的月度覆盖审计结果
// 应到签名 = 自配置起始月起每个月的 Summary 与 Charge_Summary 报表
type Coverage struct {
	ExpectedSignatures int      `json:"expected_signatures"`
	FoundSignatures    int      `json:"found_signatures"`
	Missing            []string `json:"missing,omitempty"`
}

// RunReport 最近一次采集任务的执行报告
type RunReport struct {
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	FilesProcessed int       `json:"files_processed"`
	FilesSkipped   []string  `json:"files_skipped"`
	SegmentRows    int       `json:"segment_rows"`
	ChargingRows   int       `json:"charging_rows"`
	Coverage       *Coverage `json:"coverage,omitempty"`
	Err            string    `json:"error,omitempty"`
}

// Machine 采集任务状态机，拒绝并发执行
type Machine struct {
	mu      sync.RWMutex
	fsm     *fsm.FSM
	lastRun *RunReport
}

// NewMachine 创建状态机
func NewMachine() *Machine {
	m := &Machine{}
	m.fsm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: EventStart, Src: []string{StateIdle}, Dst: StateRunning},
			{Name: EventFinish, Src: []string{StateRunning}, Dst: StateIdle},
		},
		fsm.Callbacks{},
	)
	return m
}

// Current 获取当前状态
func (m *Machine) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// Begin 尝试进入 running 状态；已有任务在跑时返回错误
func (m *Machine) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fsm.Event(context.Background(), EventStart); err != nil {
		return fmt.Errorf("ingestion already running: %w", err)
	}
	return nil
}

// Finish 回到 idle 并记录执行报告
func (m *Machine) Finish(report *RunReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fsm.Event(context.Background(), EventFinish); err == nil {
		m.lastRun = report
	}
}

// LastRun 最近一次执行报告，尚未执行过时返回 nil
func (m *Machine) LastRun() *RunReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastRun == nil {
		return nil
	}
	reportCopy := *m.lastRun
	return &reportCopy
}
