package record

import (
	"reflect"

	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

// Member 是记录中的一个具名成员。
type Member struct {
	Key   string
	Value any
}

// Record 是一条有序的具名值记录，充当对象图引擎的值容器。
//
// 成员按插入顺序保存，编解码均保持该顺序。依赖方（委托代理）
// 据此保证：顶层具名值先于引用它们的结构完成解析。
type Record struct {
	typeTag string
	members []Member
	index   map[string]int
}

// New 创建一条空记录。
func New() *Record {
	return &Record{
		index: make(map[string]int),
	}
}

// SetType 设置记录的类型标签。
func (r *Record) SetType(tag string) {
	r.typeTag = tag
}

// TypeTag 返回记录的类型标签。
func (r *Record) TypeTag() string {
	return r.typeTag
}

// AddValue 追加一个具名成员。
//
// key 重复会返回 ErrRecordDuplicateKey；当 expected 不为 nil 时，
// value 必须可赋值给 expected。
func (r *Record) AddValue(key string, value any, expected reflect.Type) error {
	if key == "" {
		return merr.WrapErrParameterMissing("key")
	}
	if _, ok := r.index[key]; ok {
		return merr.WrapErrRecordDuplicateKey(key)
	}
	if expected != nil && value != nil {
		if vt := reflect.TypeOf(value); !vt.AssignableTo(expected) {
			return merr.WrapErrRecordFieldMismatch(key, expected.String(), vt.String())
		}
	}
	r.index[key] = len(r.members)
	r.members = append(r.members, Member{Key: key, Value: value})
	return nil
}

// GetValue 按名读取成员，成员不存在或类型不符时返回错误。
func (r *Record) GetValue(key string, expected reflect.Type) (any, error) {
	i, ok := r.index[key]
	if !ok {
		return nil, merr.WrapErrRecordFieldMissing(key)
	}
	value := r.members[i].Value
	if expected != nil && value != nil {
		if vt := reflect.TypeOf(value); !vt.AssignableTo(expected) {
			return nil, merr.WrapErrRecordFieldMismatch(key, expected.String(), vt.String())
		}
	}
	return value, nil
}

// GetValueNoThrow 按名读取成员。
// 成员不存在或类型不符时返回 ok=false，不区分两种情况。
func (r *Record) GetValueNoThrow(key string, expected reflect.Type) (any, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	value := r.members[i].Value
	if expected != nil && value != nil {
		if vt := reflect.TypeOf(value); !vt.AssignableTo(expected) {
			return nil, false
		}
	}
	return value, true
}

// MemberCount 返回当前成员个数。
func (r *Record) MemberCount() int {
	return len(r.members)
}

// Members 返回所有成员的副本，顺序与插入顺序一致。
func (r *Record) Members() []Member {
	members := make([]Member, len(r.members))
	copy(members, r.members)
	return members
}
