package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetFleetSnapshot 单车 KPI 快照 + 车队排名
func (h *Handler) GetFleetSnapshot(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := h.analytics.Snapshot(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to build fleet snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build fleet snapshot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": snapshot})
}

// GetTimeSeries 按车辆的日均功率时序
func (h *Handler) GetTimeSeries(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	series, err := h.analytics.TimeSeries(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to build time series", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build time series"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": series})
}

// GetTemperatureBins 温度分箱 KPI
func (h *Handler) GetTemperatureBins(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bins, err := h.analytics.TemperatureBins(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to build temperature bins", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build temperature bins"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": bins})
}

// ListBuses 车辆名册
func (h *Handler) ListBuses(c *gin.Context) {
	buses, err := h.analytics.Buses(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list buses", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list buses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": buses})
}

// GetChargingSummary 充电统计
func (h *Handler) GetChargingSummary(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.analytics.ChargingStats(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to build charging summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build charging summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
