package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeStorageCleanup = "storage:cleanup"
)

// StorageCleanupPayload 描述待删除的存储对象。
// 资料更新替换掉旧简历/Logo 后，旧对象由 worker 异步清理。
type StorageCleanupPayload struct {
	ObjectKey     string `json:"object_key"`
	CorrelationID string `json:"correlation_id"`
}

// NewStorageCleanupTask 构造一个存储清理任务。
func NewStorageCleanupTask(objectKey, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(StorageCleanupPayload{
		ObjectKey:     objectKey,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeStorageCleanup, payload), nil
}
