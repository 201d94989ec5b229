//go:build (amd64 || arm64) && !std_json

package json

import (
	"github.com/bytedance/sonic"
)

// api 使用 sonic 的标准库兼容配置。
// 这里必须与 encoding/json 的行为保持一致，否则记录（record）在
// 不同平台之间编解码时会出现不兼容。
var api = sonic.ConfigStd

// Marshal 将对象编码为 JSON 字节序列。
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// Unmarshal 将 JSON 字节序列解码到目标对象。
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// MarshalIndent 将对象编码为带缩进的 JSON 字节序列。
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}
