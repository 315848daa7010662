package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"jobboard/internal/tasks"
)

// objectDeleter 是清理任务依赖的最小存储接口。
type objectDeleter interface {
	DeleteObject(ctx context.Context, objectKey string) error
}

// StorageCleanupHandler 负责消费存储清理任务，删除被替换的简历/Logo 对象。
type StorageCleanupHandler struct {
	storage objectDeleter
	logger  *slog.Logger
}

// NewStorageCleanupHandler 创建任务处理器。
func NewStorageCleanupHandler(storage objectDeleter, logger *slog.Logger) *StorageCleanupHandler {
	return &StorageCleanupHandler{
		storage: storage,
		logger:  logger,
	}
}

// ProcessTask 实现 asynq.Handler。对象不存在时视为成功。
func (h *StorageCleanupHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.StorageCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("object_key", payload.ObjectKey),
	)

	if err := h.storage.DeleteObject(ctx, payload.ObjectKey); err != nil {
		log.Error("delete storage object failed", slog.Any("error", err))
		return err
	}

	log.Info("storage object cleaned up")
	return nil
}
