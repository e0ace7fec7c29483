package ingest

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/langchou/fleetgazer/internal/state"
)

// 每个月应到的报表类型，签名形如 "November_2022_Charge_Summary"
var auditFileTypes = []string{"Summary", "Charge_Summary"}

// AuditCoverage 对照应到的月度文件签名审计数据目录
// 自 start 所在月起到 end 所在月止，每个月的每种报表都视为应到；
// 文件名匹配大小写不敏感，按子串命中。缺失列表按签名字典序排列
func AuditCoverage(filenames []string, start, end time.Time) *state.Coverage {
	var expected []string
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for month := first; !month.After(last); month = month.AddDate(0, 1, 0) {
		for _, fileType := range auditFileTypes {
			expected = append(expected, fmt.Sprintf("%s_%d_%s", month.Month(), month.Year(), fileType))
		}
	}

	lowered := make([]string, len(filenames))
	for i, f := range filenames {
		lowered[i] = strings.ToLower(filepath.Base(f))
	}

	cov := &state.Coverage{ExpectedSignatures: len(expected)}
	for _, sig := range expected {
		pattern := strings.ToLower(sig)
		found := false
		for _, name := range lowered {
			if strings.Contains(name, pattern) {
				found = true
				break
			}
		}
		if found {
			cov.FoundSignatures++
		} else {
			cov.Missing = append(cov.Missing, sig)
		}
	}
	sort.Strings(cov.Missing)
	return cov
}
