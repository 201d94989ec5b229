package json

import (
	"encoding/json"
)

// RawMessage 是 encoding/json.RawMessage 的别名，
// 用于延迟解析：先保留原始字节，等确定具体类型后再解码。
type RawMessage = json.RawMessage

// Number 是 encoding/json.Number 的别名。
type Number = json.Number
