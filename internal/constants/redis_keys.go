package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "resume-analyzer"

	// RateLimitModulePrefix 限流模块
	RateLimitModulePrefix = "ratelimit"

	// EntityQPMWindow 每分钟计数窗口
	EntityQPMWindow = "qpm"

	// KeyModelQPMWindow 模型每分钟调用计数 (STRING, INCR + EXPIRE)
	// 格式: resume-analyzer:ratelimit:qpm:{model}:{unixMinute}
	KeyModelQPMWindow = AppPrefix + ":" + RateLimitModulePrefix + ":" + EntityQPMWindow + ":%s:%d"
)

const (
	// SearchModulePrefix 网页搜索模块
	SearchModulePrefix = "search"

	// KeySearchCache 搜索结果缓存 (STRING, JSON 数组, 带TTL)
	// 格式: resume-analyzer:search:cache:{provider}:{sha1(query|limit)}
	KeySearchCache = AppPrefix + ":" + SearchModulePrefix + ":cache:%s:%s"
)
