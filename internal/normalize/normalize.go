package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// unitReplacements 表头单位标注 → 规范后缀
// 顺序敏感：带括号的单位标注必须先于裸 % 替换
var unitReplacements = [][2]string{
	{"[%]", "percent"},
	{"[kwh]", "kwh"},
	{"[kwh/mile]", "kwh_per_mile"},
	{"[miles]", "miles"},
	{"[mph]", "mph"},
	{"[kw]", "kw"},
	{"[°f]", "f"},
	{"�f", "f"}, // 乱码的华氏度符号
	{"%", "percent"},
	{" ", "_"},
	{".", ""},
	{"/", "_"},
}

// CleanColumnName 把任意来源表头归一化为规范字段名
func CleanColumnName(name string) string {
	s := strings.ToLower(name)
	for _, r := range unitReplacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	s = strings.TrimSuffix(s, "_")
	return s
}

// ParseDurationHours 把 "H:MM:SS" 格式的时长转换为小时数
// 格式不合法或为空时返回 nil，不报错
func ParseDurationHours(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return nil
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	s, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	hours := float64(h) + float64(m)/60.0 + float64(s)/3600.0
	return &hours
}

// ParseFloat 宽松数值解析：空或非数值返回 nil
func ParseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	// 去掉千分位逗号
	raw = strings.ReplaceAll(raw, ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

// 接受的日期格式，按尝试顺序
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
	time.RFC3339,
}

// ParseDate 宽松日期解析，解析失败返回零值和 false
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			// 只保留日期部分
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Record 一行已归一化的数据，按规范字段名取值
type Record map[string]string

// Has 判断该行是否带有某个规范列
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// String 取原始文本值
func (r Record) String(key string) string {
	return strings.TrimSpace(r[key])
}

// Float 取可空数值
func (r Record) Float(key string) *float64 {
	return ParseFloat(r[key])
}

// DurationHours 取可空时长（小时）
func (r Record) DurationHours(key string) *float64 {
	return ParseDurationHours(r[key])
}

// Table 一个已归一化表头的平面文件
type Table struct {
	Columns []string
	Rows    []Record
}

// HasColumn 判断表级别是否存在某个规范列
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ReadTable 读取带表头的 CSV，表头归一化为规范字段名
// 列数不一致的行按位置截断对齐，不报错
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // 允许列数不一致
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = CleanColumnName(h)
	}

	t := &Table{Columns: cols}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// 坏行按行丢弃，不中断整个文件
			continue
		}
		rec := make(Record, len(cols))
		for i, c := range cols {
			if i < len(row) {
				rec[c] = row[i]
			}
		}
		t.Rows = append(t.Rows, rec)
	}

	return t, nil
}
