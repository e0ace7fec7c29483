package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/fleetgazer/internal/config"
	"github.com/langchou/fleetgazer/internal/ingest"
	"github.com/langchou/fleetgazer/internal/repository"
)

// 离线批量采集入口：扫描数据目录，归一化并整表替换入库后退出
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	ctx := context.Background()

	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	segmentRepo := repository.NewSegmentRepository(db)
	chargingRepo := repository.NewChargingRepository(db)
	paramsRepo := repository.NewParamsRepository(db)

	svc := ingest.NewService(cfg, logger, segmentRepo, chargingRepo, paramsRepo)
	report, err := svc.Run(ctx)
	if err != nil {
		logger.Fatal("Ingestion run failed", zap.Error(err))
	}

	logger.Info("Ingestion completed",
		zap.Int("files_processed", report.FilesProcessed),
		zap.Strings("files_skipped", report.FilesSkipped),
		zap.Int("segment_rows", report.SegmentRows),
		zap.Int("charging_rows", report.ChargingRows))
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}
