package httpapi

import (
	"context"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/fortress/pkg/player"
)

// ZapOperationLogger adapts zap to the player service's operation callback.
type ZapOperationLogger struct {
	logger *zap.Logger
}

// NewZapOperationLogger wires the adapter.
func NewZapOperationLogger(logger *zap.Logger) *ZapOperationLogger {
	return &ZapOperationLogger{logger: logger}
}

// LogOperation records one ledger operation outcome. Dropped optional fields
// surface at warn level so silently ignored updates stay visible to
// operators.
func (operationLogger *ZapOperationLogger) LogOperation(_ context.Context, entry player.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("handle", entry.Handle.String()),
		zap.String("status", entry.Status),
	}
	if entry.ItemID != "" {
		fields = append(fields, zap.String("item_id", entry.ItemID))
	}
	if entry.Category != "" {
		fields = append(fields, zap.String("category", entry.Category.String()))
	}
	if entry.Amount != 0 {
		fields = append(fields, zap.Int64("amount", entry.Amount))
	}
	if entry.Detail != "" {
		fields = append(fields, zap.String("detail", entry.Detail))
	}
	switch {
	case entry.Error != nil:
		fields = append(fields, zap.Error(entry.Error))
		operationLogger.logger.Error("player operation failed", fields...)
	case entry.Detail != "":
		operationLogger.logger.Warn("player operation partially applied", fields...)
	default:
		operationLogger.logger.Info("player operation", fields...)
	}
}
