package errcode

// 错误种类约定，随错误响应一并返回，便于前端做稳定匹配：
// - VALIDATION：请求缺少必填字段或格式非法（400）
// - NOT_FOUND：引用的实体不存在（404）
// - CONFLICT：唯一约束冲突，例如重复投递（409）
// - PERSISTENCE：其余存储层错误（500）
const (
	Validation  = "VALIDATION"
	NotFound    = "NOT_FOUND"
	Conflict    = "CONFLICT"
	Persistence = "PERSISTENCE"
)
