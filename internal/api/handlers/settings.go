package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/models"
)

// GetBusParameters 获取车队参数
func (h *Handler) GetBusParameters(c *gin.Context) {
	params, err := h.paramsRepo.Get(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get bus parameters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get bus parameters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": params})
}

// UpdateBusParameters 整行替换车队参数
func (h *Handler) UpdateBusParameters(c *gin.Context) {
	var params models.BusParameters
	if err := c.BindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if params.ESSCapacityKWh <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ess_capacity_kwh must be positive"})
		return
	}
	if params.CriticalSOCWarningPercent < 0 || params.LowSOCWarningPercent > 100 ||
		params.CriticalSOCWarningPercent > params.LowSOCWarningPercent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "SOC warning thresholds must satisfy 0 <= critical <= low <= 100"})
		return
	}

	if err := h.paramsRepo.Update(c.Request.Context(), &params); err != nil {
		h.logger.Error("Failed to update bus parameters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update bus parameters"})
		return
	}

	h.logger.Info("Bus parameters updated", zap.Float64("ess_capacity_kwh", params.ESSCapacityKWh))
	c.JSON(http.StatusOK, gin.H{"data": params})
}

// ListChargers 获取充电桩列表
func (h *Handler) ListChargers(c *gin.Context) {
	chargers, err := h.chargerRepo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list chargers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list chargers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": chargers})
}

// CreateCharger 新建充电桩
func (h *Handler) CreateCharger(c *gin.Context) {
	var charger models.Charger
	if err := c.BindJSON(&charger); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if charger.Name == "" || charger.RateKW <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required and rate_kw must be positive"})
		return
	}

	if err := h.chargerRepo.Create(c.Request.Context(), &charger); err != nil {
		h.logger.Error("Failed to create charger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create charger"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": charger})
}

// UpdateCharger 更新充电桩
func (h *Handler) UpdateCharger(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid charger ID"})
		return
	}

	var charger models.Charger
	if err := c.BindJSON(&charger); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if charger.Name == "" || charger.RateKW <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required and rate_kw must be positive"})
		return
	}
	charger.ID = id

	found, err := h.chargerRepo.Update(c.Request.Context(), &charger)
	if err != nil {
		h.logger.Error("Failed to update charger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update charger"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Charger not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": charger})
}

// DeleteCharger 删除充电桩
func (h *Handler) DeleteCharger(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid charger ID"})
		return
	}

	found, err := h.chargerRepo.Delete(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to delete charger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete charger"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Charger not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Charger deleted", "id": id})
}
