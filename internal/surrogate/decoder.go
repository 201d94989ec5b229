package surrogate

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/lk2023060901/delegate-garden-go/internal/delegate"
	"github.com/lk2023060901/delegate-garden-go/internal/record"
	"github.com/lk2023060901/delegate-garden-go/pkg/log"
	"github.com/lk2023060901/delegate-garden-go/pkg/metrics"
	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

// Format 标识记录使用的编码格式。
type Format int

const (
	// FormatCurrent 为当前格式：Delegate 键下挂链头，旁路键携带
	// 接收者与方法描述符。
	FormatCurrent Format = iota
	// FormatLegacy 为旧格式：六个平铺字段，单节点，无描述符。
	FormatLegacy
)

func (f Format) String() string {
	switch f {
	case FormatCurrent:
		return metrics.FormatCurrent
	case FormatLegacy:
		return metrics.FormatLegacy
	default:
		return "unknown"
	}
}

var (
	entryType      = reflect.TypeOf((*Entry)(nil))
	descriptorType = reflect.TypeOf((*delegate.MethodDescriptor)(nil))
	stringType     = reflect.TypeOf("")
)

// Decode 解析一条记录，返回可重建委托的 Holder。
//
// 先尝试从 Delegate 键读取链头；读不到（键缺失或类型不符）时
// 静默退回旧格式。格式判定本身不向外抛错，其余任何解码失败
// 都会向上传播。
func Decode(rec *record.Record) (h *Holder, err error) {
	format := FormatCurrent
	defer func() {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusFail
		}
		metrics.DecodeTotal.WithLabelValues(format.String(), status).Inc()
	}()

	if rec == nil {
		return nil, merr.WrapErrParameterMissing("record")
	}

	v, ok := rec.GetValueNoThrow(keyDelegate, entryType)
	if !ok {
		format = FormatLegacy
		return decodeLegacy(rec)
	}
	head := v.(*Entry)

	// 逐节点解析旁路接收者。Target 为 string 即为旁路键，
	// 键缺失说明记录被截断。
	count := 0
	for e := head; e != nil; e = e.Next {
		if e.MethodName == "" {
			return nil, merr.WrapErrInsufficientState("chain entry has no method name")
		}
		if key, isKey := e.Target.(string); isKey {
			target, err := rec.GetValue(key, nil)
			if err != nil {
				return nil, err
			}
			e.Target = target
		}
		count++
	}

	// 描述符数组要么全量要么没有。任何一个索引缺失就整体放弃，
	// 重建时全部退回按名解析。
	descriptors := make([]*delegate.MethodDescriptor, 0, count)
	for i := 0; i < count; i++ {
		d, ok := rec.GetValueNoThrow(keyMethod(i), descriptorType)
		if !ok {
			descriptors = nil
			break
		}
		descriptors = append(descriptors, d.(*delegate.MethodDescriptor))
	}

	metrics.ChainLength.Observe(float64(count))
	return &Holder{
		head:        head,
		descriptors: descriptors,
		format:      FormatCurrent,
	}, nil
}

// decodeLegacy 读取六个平铺字段并合成单节点链。
// 旧格式没有旁路解析，接收者直接内联在 Target 字段中。
func decodeLegacy(rec *record.Record) (*Holder, error) {
	typeName, err := rec.GetValue(keyLegacyDelegateType, stringType)
	if err != nil {
		return nil, err
	}
	assemblyName, err := rec.GetValue(keyLegacyDelegateAssembly, stringType)
	if err != nil {
		return nil, err
	}
	target, err := rec.GetValue(keyLegacyTarget, nil)
	if err != nil {
		return nil, err
	}
	targetAssembly, err := rec.GetValue(keyLegacyTargetAssembly, stringType)
	if err != nil {
		return nil, err
	}
	targetTypeName, err := rec.GetValue(keyLegacyTargetTypeName, stringType)
	if err != nil {
		return nil, err
	}
	methodName, err := rec.GetValue(keyLegacyMethodName, stringType)
	if err != nil {
		return nil, err
	}

	log.Debug("record decoded via legacy flat format",
		zap.Any("delegateType", typeName),
		zap.Any("methodName", methodName))
	metrics.ChainLength.Observe(1)

	return &Holder{
		head: &Entry{
			DeclaringTypeName:     typeName.(string),
			DeclaringAssemblyName: assemblyName.(string),
			Target:                target,
			MethodOwnerAssembly:   targetAssembly.(string),
			MethodOwnerTypeName:   targetTypeName.(string),
			MethodName:            methodName.(string),
		},
		format: FormatLegacy,
	}, nil
}
