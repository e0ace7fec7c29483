package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/fleetgazer/internal/ingest"
	"github.com/langchou/fleetgazer/internal/repository"
	"github.com/langchou/fleetgazer/internal/service"
	"github.com/langchou/fleetgazer/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger      *zap.Logger
	analytics   *service.AnalyticsService
	ingestSvc   *ingest.Service
	paramsRepo  *repository.ParamsRepository
	chargerRepo *repository.ChargerRepository
	wsHub       *ws.Hub
	upgrader    websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	analytics *service.AnalyticsService,
	ingestSvc *ingest.Service,
	paramsRepo *repository.ParamsRepository,
	chargerRepo *repository.ChargerRepository,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:      logger,
		analytics:   analytics,
		ingestSvc:   ingestSvc,
		paramsRepo:  paramsRepo,
		chargerRepo: chargerRepo,
		wsHub:       wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 仪表盘与服务端不同源部署
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 聚合查询
		api.GET("/fleet/snapshot", h.GetFleetSnapshot)
		api.GET("/fleet/timeseries", h.GetTimeSeries)
		api.GET("/fleet/temperature-bins", h.GetTemperatureBins)
		api.GET("/charging/summary", h.GetChargingSummary)
		api.GET("/buses", h.ListBuses)

		// 车队配置
		api.GET("/bus-parameters", h.GetBusParameters)
		api.PUT("/bus-parameters", h.UpdateBusParameters)
		api.GET("/chargers", h.ListChargers)
		api.POST("/chargers", h.CreateCharger)
		api.PUT("/chargers/:id", h.UpdateCharger)
		api.DELETE("/chargers/:id", h.DeleteCharger)

		// 采集
		api.POST("/ingest/run", h.RunIngestion)
		api.GET("/ingest/status", h.GetIngestStatus)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}
