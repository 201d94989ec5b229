package record

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/delegate-garden-go/internal/delegate"
	"github.com/lk2023060901/delegate-garden-go/internal/json"
	"github.com/lk2023060901/delegate-garden-go/internal/serializer"
	"github.com/lk2023060901/delegate-garden-go/pkg/metrics"
	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

// 基础类型在线格式中的类型标记。
const (
	wireNil     = "nil"
	wireString  = "string"
	wireBool    = "bool"
	wireInt     = "int"
	wireInt64   = "int64"
	wireFloat64 = "float64"
)

// wireMember 是成员的线格式。Value 先保留原始字节，
// 等 Type 确定具体类型后再解码。
type wireMember struct {
	Key   string          `json:"key"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type wireRecord struct {
	Type    string       `json:"type"`
	Members []wireMember `json:"members"`
}

// Codec 负责 Record 与字节序列之间的互转。
//
// 非基础类型的成员按注册表里的“程序集/类型名”标记类型，
// 解码时通过注册表还原；因此参与传输的成员类型必须先注册。
// 解码得到的结构体成员一律为指针形式。
type Codec struct {
	s serializer.Serializer
}

// NewCodec 创建一个 Codec，s 为 nil 时使用 JSON 序列化。
func NewCodec(s serializer.Serializer) *Codec {
	if s == nil {
		s = serializer.JSONSerializer{}
	}
	return &Codec{s: s}
}

// Marshal 将记录编码为字节序列，保持成员顺序。
func (c *Codec) Marshal(r *Record) ([]byte, error) {
	members := r.Members()
	wire := wireRecord{
		Type:    r.TypeTag(),
		Members: make([]wireMember, 0, len(members)),
	}
	for _, m := range members {
		tk, raw, err := c.encodeValue(m.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "encode record member %q", m.Key)
		}
		wire.Members = append(wire.Members, wireMember{Key: m.Key, Type: tk, Value: raw})
	}

	data, err := c.s.Marshal(wire)
	if err != nil {
		return nil, err
	}
	metrics.RecordBytes.Observe(float64(len(data)))
	return data, nil
}

// Unmarshal 从字节序列还原记录。
func (c *Codec) Unmarshal(data []byte) (*Record, error) {
	var wire wireRecord
	if err := c.s.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	r := New()
	r.SetType(wire.Type)
	for _, m := range wire.Members {
		v, err := c.decodeValue(m.Type, m.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "decode record member %q", m.Key)
		}
		if err := r.AddValue(m.Key, v, nil); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (c *Codec) encodeValue(v any) (string, json.RawMessage, error) {
	var tk string
	switch v.(type) {
	case nil:
		tk = wireNil
	case string:
		tk = wireString
	case bool:
		tk = wireBool
	case int:
		tk = wireInt
	case int64:
		tk = wireInt64
	case float64:
		tk = wireFloat64
	default:
		asm, name, err := delegate.LookupTypeRef(reflect.TypeOf(v))
		if err != nil {
			return "", nil, err
		}
		tk = asm + "/" + name
	}

	raw, err := c.s.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return tk, raw, nil
}

func (c *Codec) decodeValue(tk string, raw json.RawMessage) (any, error) {
	switch tk {
	case wireNil:
		return nil, nil
	case wireString:
		var v string
		err := c.s.Unmarshal(raw, &v)
		return v, err
	case wireBool:
		var v bool
		err := c.s.Unmarshal(raw, &v)
		return v, err
	case wireInt:
		var v int
		err := c.s.Unmarshal(raw, &v)
		return v, err
	case wireInt64:
		var v int64
		err := c.s.Unmarshal(raw, &v)
		return v, err
	case wireFloat64:
		var v float64
		err := c.s.Unmarshal(raw, &v)
		return v, err
	}

	asm, name, ok := strings.Cut(tk, "/")
	if !ok {
		return nil, merr.WrapErrParameterInvalidMsg("malformed wire type %q", tk)
	}
	h, err := delegate.Resolve(asm, name)
	if err != nil {
		return nil, err
	}
	rtype := h.Type()
	if rtype == nil {
		return nil, merr.WrapErrTypeNotRegistered(asm, name)
	}
	pv := reflect.New(rtype)
	if err := c.s.Unmarshal(raw, pv.Interface()); err != nil {
		return nil, err
	}
	return pv.Interface(), nil
}
