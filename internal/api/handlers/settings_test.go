package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func jsonContext(t *testing.T, method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

// 校验失败必须在触达存储之前以 400 拒绝，所以这里不需要假仓库
func TestUpdateBusParametersRejectsInvalidBody(t *testing.T) {
	h := &Handler{logger: zap.NewNop()}

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"zero capacity", `{"ess_capacity_kwh":0,"avg_energy_use_kw":55,"low_soc_warning_percent":20,"critical_soc_warning_percent":10}`},
		{"negative capacity", `{"ess_capacity_kwh":-435,"avg_energy_use_kw":55,"low_soc_warning_percent":20,"critical_soc_warning_percent":10}`},
		{"critical above low", `{"ess_capacity_kwh":435,"avg_energy_use_kw":55,"low_soc_warning_percent":20,"critical_soc_warning_percent":30}`},
		{"low above 100", `{"ess_capacity_kwh":435,"avg_energy_use_kw":55,"low_soc_warning_percent":120,"critical_soc_warning_percent":10}`},
		{"negative critical", `{"ess_capacity_kwh":435,"avg_energy_use_kw":55,"low_soc_warning_percent":20,"critical_soc_warning_percent":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := jsonContext(t, http.MethodPut, "/api/bus-parameters", tt.body)
			h.UpdateBusParameters(c)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestCreateChargerRejectsInvalidBody(t *testing.T) {
	h := &Handler{logger: zap.NewNop()}

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing name", `{"name":"","rate_kw":150}`},
		{"zero rate", `{"name":"Depot A","rate_kw":0}`},
		{"negative rate", `{"name":"Depot A","rate_kw":-50}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := jsonContext(t, http.MethodPost, "/api/chargers", tt.body)
			h.CreateCharger(c)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestUpdateChargerRejectsBadID(t *testing.T) {
	h := &Handler{logger: zap.NewNop()}

	c, w := jsonContext(t, http.MethodPut, "/api/chargers/abc", `{"name":"Depot A","rate_kw":150}`)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.UpdateCharger(c)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
