package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/langchou/fleetgazer/internal/service"
)

// parseFilter 从查询参数解析聚合过滤条件
// 非法参数返回错误，调用方应以 400 拒绝，不执行任何查询
func parseFilter(c *gin.Context) (service.Filter, error) {
	var f service.Filter

	if raw := c.Query("temp_min"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, fmt.Errorf("invalid temp_min %q", raw)
		}
		f.TempMin = &v
	}
	if raw := c.Query("temp_max"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, fmt.Errorf("invalid temp_max %q", raw)
		}
		f.TempMax = &v
	}
	if raw := c.Query("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, fmt.Errorf("invalid start_date %q, expected YYYY-MM-DD", raw)
		}
		f.DateStart = &t
	}
	if raw := c.Query("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return f, fmt.Errorf("invalid end_date %q, expected YYYY-MM-DD", raw)
		}
		f.DateEnd = &t
	}
	if raw := c.Query("buses"); raw != "" {
		for _, bus := range strings.Split(raw, ",") {
			if bus = strings.TrimSpace(bus); bus != "" {
				f.Buses = append(f.Buses, bus)
			}
		}
	}

	return f, nil
}
