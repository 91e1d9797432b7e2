package vo

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Response 后端统一响应信封 {success, message, data}
// data的具体结构由各调用方按需解码
type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  *FieldErrors    `json:"errors,omitempty"`
}

// FieldErrors 服务端校验失败时的结构化错误
type FieldErrors struct {
	NonFieldErrors []string            `json:"non_field_errors,omitempty"`
	FieldErrors    map[string][]string `json:"field_errors,omitempty"`
}

// DecodeData 将data解码到目标结构
func (r *Response) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return errors.New("response data is empty")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return errors.Wrap(err, "failed to decode response data")
	}
	return nil
}

// DecodeList 将data解码为列表
// 部分端点会多包一层 {"data": [...]}，此处对两种结构都做解码尝试
func (r *Response) DecodeList(v any) error {
	if len(r.Data) == 0 {
		return errors.New("response data is empty")
	}
	if err := json.Unmarshal(r.Data, v); err == nil {
		return nil
	}

	var nested struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Data, &nested); err != nil {
		return errors.Wrap(err, "failed to decode nested response data")
	}
	if len(nested.Data) == 0 {
		return errors.New("nested response data is empty")
	}
	if err := json.Unmarshal(nested.Data, v); err != nil {
		return errors.Wrap(err, "failed to decode response list")
	}
	return nil
}

// ErrorMessage 按优先级提取用户可见的错误消息：
// non_field_errors > 首个field_error > message > 兜底文案
func (r *Response) ErrorMessage(fallback string) string {
	if r.Errors != nil {
		if len(r.Errors.NonFieldErrors) > 0 {
			return r.Errors.NonFieldErrors[0]
		}
		for _, msgs := range r.Errors.FieldErrors {
			if len(msgs) > 0 {
				return msgs[0]
			}
		}
	}
	if r.Message != "" {
		return r.Message
	}
	return fallback
}
