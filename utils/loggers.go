package utils

import (
	"go.uber.org/zap"
)

// Logger is the process-wide structured logger. InitLogger must run before
// anything uses it; the nop default keeps tests quiet without setup.
var Logger = zap.NewNop().Sugar()

func InitLogger(env string) error {
	var (
		logger *zap.Logger
		err    error
	)
	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	Logger = logger.Sugar()
	return nil
}

func SyncLogger() {
	_ = Logger.Sync()
}
