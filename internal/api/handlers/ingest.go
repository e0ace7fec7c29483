package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RunIngestion 触发一次采集；已有任务在跑时返回 409
// 运行在请求协程内同步完成，数据集有界，耗时可接受
func (h *Handler) RunIngestion(c *gin.Context) {
	report, err := h.ingestSvc.Run(c.Request.Context())
	if err != nil {
		if report == nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Ingestion run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "data": report})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// GetIngestStatus 当前采集状态与最近一次执行报告
func (h *Handler) GetIngestStatus(c *gin.Context) {
	current, lastRun := h.ingestSvc.Status()
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"state":    current,
			"last_run": lastRun,
		},
	})
}
