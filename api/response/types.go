/*
Package response - API 层统一响应处理

原则:
 1. HTTP 状态码映射放在 API 层，领域层和应用层只返回错误
 2. 错误响应不暴露内部细节，堆栈只进日志
 3. 所有响应携带 RequestID 用于日志追踪

响应格式:

	成功: { success: true, data: {...}, message: "...", code: 200, request_id: "..." }
	失败: { success: false, error: "ERROR_CODE", message: "用户可见消息", code: 4xx/5xx, request_id: "..." }
*/
package response

// RequestIDKey 是 gin context 中保存请求 ID 的键。
const RequestIDKey = "request_id"

// Response 是统一响应结构。
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"` // 错误码，不是错误详情
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// PaginatedResponse 是分页响应结构。
type PaginatedResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
	Message    string      `json:"message"`
	Code       int         `json:"code"`
	RequestID  string      `json:"request_id,omitempty"`
}

// Pagination 表示分页信息。TotalItems 是过滤后的总条数。
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
