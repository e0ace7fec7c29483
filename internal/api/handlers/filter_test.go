package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func filterContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/fleet/snapshot?"+query, nil)
	return c
}

func TestParseFilter(t *testing.T) {
	c := filterContext(t, "temp_min=30&temp_max=40.5&start_date=2023-01-01&end_date=2023-06-30&buses=701,%20702,,703")

	f, err := parseFilter(c)
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if f.TempMin == nil || *f.TempMin != 30 {
		t.Errorf("temp_min = %v, want 30", f.TempMin)
	}
	if f.TempMax == nil || *f.TempMax != 40.5 {
		t.Errorf("temp_max = %v, want 40.5", f.TempMax)
	}
	if f.DateStart == nil || f.DateStart.Format("2006-01-02") != "2023-01-01" {
		t.Errorf("start_date = %v", f.DateStart)
	}
	if f.DateEnd == nil || f.DateEnd.Format("2006-01-02") != "2023-06-30" {
		t.Errorf("end_date = %v", f.DateEnd)
	}
	if len(f.Buses) != 3 || f.Buses[0] != "701" || f.Buses[1] != "702" || f.Buses[2] != "703" {
		t.Errorf("buses = %v, want [701 702 703]", f.Buses)
	}
}

func TestParseFilterEmpty(t *testing.T) {
	f, err := parseFilter(filterContext(t, ""))
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if f.TempMin != nil || f.TempMax != nil || f.DateStart != nil || f.DateEnd != nil || f.Buses != nil {
		t.Errorf("empty query must yield zero filter, got %+v", f)
	}
}

func TestParseFilterInvalid(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"bad temp_min", "temp_min=cold"},
		{"bad temp_max", "temp_max=40f"},
		{"bad start_date", "start_date=01/02/2023"},
		{"bad end_date", "end_date=2023-13-99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFilter(filterContext(t, tt.query)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
