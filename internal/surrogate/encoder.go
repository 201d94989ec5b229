package surrogate

import (
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/lk2023060901/delegate-garden-go/internal/delegate"
	"github.com/lk2023060901/delegate-garden-go/internal/record"
	"github.com/lk2023060901/delegate-garden-go/pkg/log"
	"github.com/lk2023060901/delegate-garden-go/pkg/metrics"
	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

// Capability 授权编码非公开方法。
//
// 当方法与其声明类型都不是导出标识符时，编码器要求调用方提供
// 能放行该方法的 Capability，否则返回权限错误。
type Capability interface {
	Allow(method *delegate.Method) bool
}

// CapabilityFunc 把函数适配为 Capability。
type CapabilityFunc func(method *delegate.Method) bool

func (f CapabilityFunc) Allow(method *delegate.Method) bool {
	return f(method)
}

// Encoder 把委托链节点写入记录。
type Encoder struct {
	capability Capability
}

type EncoderOption func(*Encoder)

// WithCapability 设置编码非公开方法所需的授权。
func WithCapability(c Capability) EncoderOption {
	return func(e *Encoder) {
		e.capability = c
	}
}

func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// countMethodMembers 返回记录中已写入的方法描述符个数，
// 即下一个应当使用的链索引。
func countMethodMembers(rec *record.Record) int {
	n := 0
	for _, m := range rec.Members() {
		if strings.HasPrefix(m.Key, keyMethodPrefix) {
			n++
		}
	}
	return n
}

// Encode 把链上第 chainIndex 个节点写入记录并返回对应的 Entry。
//
// 接收者（若有）写入旁路键 target{i}，Entry.Target 置为该键名；
// 方法描述符无条件写入 method{i}。对同一条记录的首次调用还会
// 设置记录类型标签，并把头节点挂到 Delegate 键下。
//
// chainIndex 必须等于记录中已有的方法描述符个数，即编码顺序
// 必须与链序一致，乱序调用返回参数错误。
func (e *Encoder) Encode(rec *record.Record, declType reflect.Type, target any, method *delegate.Method, chainIndex int) (entry *Entry, err error) {
	defer func() {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusFail
		}
		metrics.EncodeTotal.WithLabelValues(status).Inc()
	}()

	if rec == nil {
		return nil, merr.WrapErrParameterMissing("record")
	}
	if method == nil {
		return nil, merr.WrapErrParameterMissing("method")
	}
	if declType == nil || !delegate.IsDelegateType(declType) {
		return nil, merr.WrapErrDelegateTypeInvalid(typeString(declType),
			"declaring type is not a registered delegate type")
	}
	if !method.HasDeclaringType() {
		return nil, merr.WrapErrDelegateNoDeclaringType(method.Name(),
			"free functions cannot be re-resolved by the receiver")
	}
	if !method.Public() && !method.OwnerPublic() {
		if e.capability == nil || !e.capability.Allow(method) {
			return nil, merr.WrapErrPrivilegeNotPermitted(method.OwnerType() + "." + method.Name())
		}
		log.Debug("encoding non-public method under capability",
			zap.String("owner", method.OwnerType()),
			zap.String("method", method.Name()))
	}
	if want := countMethodMembers(rec); chainIndex != want {
		return nil, merr.WrapErrParameterInvalid(want, chainIndex, "chain index must follow encode order")
	}

	declAsm, declName, err := delegate.LookupTypeRef(declType)
	if err != nil {
		return nil, err
	}

	first := rec.MemberCount() == 0

	entry = &Entry{
		DeclaringTypeName:     declName,
		DeclaringAssemblyName: declAsm,
		MethodOwnerAssembly:   method.Assembly(),
		MethodOwnerTypeName:   method.OwnerType(),
		MethodName:            method.Name(),
	}
	if target != nil {
		key := keyTarget(chainIndex)
		if err = rec.AddValue(key, target, nil); err != nil {
			return nil, err
		}
		entry.Target = key
	}
	if err = rec.AddValue(keyMethod(chainIndex), method.Descriptor(), nil); err != nil {
		return nil, err
	}
	if first {
		rec.SetType(HolderTypeTag)
		if err = rec.AddValue(keyDelegate, entry, nil); err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// EncodeInvoker 把一个委托实例整体写入记录，逐节点编码并串链，
// 返回链头。多播委托按调用顺序展开。
func (e *Encoder) EncodeInvoker(rec *record.Record, inv delegate.Invoker) (*Entry, error) {
	if inv == nil {
		return nil, merr.WrapErrParameterMissing("invoker")
	}

	var nodes []*delegate.Bound
	switch v := inv.(type) {
	case *delegate.Bound:
		nodes = []*delegate.Bound{v}
	case *delegate.Multicast:
		nodes = v.Nodes()
	default:
		return nil, merr.WrapErrParameterInvalidMsg("cannot encode invoker of type %T", inv)
	}

	base := countMethodMembers(rec)
	var head, prev *Entry
	for i, node := range nodes {
		entry, err := e.Encode(rec, inv.Type(), node.Target(), node.Method(), base+i)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			prev.Next = entry
		} else {
			head = entry
		}
		prev = entry
	}
	return head, nil
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
