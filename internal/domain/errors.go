package domain

import (
	"errors"
	"fmt"
)

// Kind 是错误分类（稳定字符串，直接写入 report 的 error_code）。
type Kind string

const (
	// KindInvalidInput 表示参数形态不对（例如空路径、nil source）。
	KindInvalidInput Kind = "invalid_input"
	// KindInvalidValue 表示取值不合法（空集合、year_min > year_max、非正截断长度）。
	KindInvalidValue Kind = "invalid_value"
	// KindNotFound 表示输入文件不存在。
	KindNotFound Kind = "not_found"
	// KindInvalidState 表示操作先于其前置步骤被调用（例如未加载就清洗）。
	KindInvalidState Kind = "invalid_state"
	// KindIOFailed 表示读写失败（非 not_found）。
	KindIOFailed Kind = "io_failed"
)

// Error 是各组件共用的结构化错误。
type Error struct {
	Kind Kind
	Op   string // 例如 "tmdb.Load"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf 构造一个带分类的错误；格式化后的消息作为 Err。
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf 从 error 中提取 Kind；若不是 *Error 则返回空串。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
