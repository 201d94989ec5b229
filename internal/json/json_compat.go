//go:build !(amd64 || arm64) || std_json

package json

import (
	jsoniter "github.com/json-iterator/go"
)

// 非 amd64/arm64 平台上 sonic 没有汇编加速实现，
// 退回到 json-iterator 的标准库兼容模式。
var api = jsoniter.ConfigCompatibleWithStandardLibrary

func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}
