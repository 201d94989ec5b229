package surrogate

import (
	"fmt"
	"reflect"

	"github.com/lk2023060901/delegate-garden-go/internal/delegate"
	"github.com/lk2023060901/delegate-garden-go/internal/record"
	"github.com/lk2023060901/delegate-garden-go/pkg/log"
	"github.com/lk2023060901/delegate-garden-go/pkg/metrics"
	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

// Holder 是一次解码的结果，持有已解析的链头与可选的描述符数组。
//
// Holder 只用于重建，本身不可再序列化：重建后的持有者已经丢弃了
// 还原记录所需的信息，再次序列化应当对重建出的委托实例进行。
type Holder struct {
	head        *Entry
	descriptors []*delegate.MethodDescriptor
	format      Format
}

// Head 返回链头节点。
func (h *Holder) Head() *Entry {
	return h.head
}

// Format 返回解码时识别出的格式。
func (h *Holder) Format() Format {
	return h.format
}

// Descriptors 返回描述符数组的副本，不完整时为 nil。
func (h *Holder) Descriptors() []*delegate.MethodDescriptor {
	if h.descriptors == nil {
		return nil
	}
	descriptors := make([]*delegate.MethodDescriptor, len(h.descriptors))
	copy(descriptors, h.descriptors)
	return descriptors
}

// Reconstruct 把链重建为可调用的委托。
//
// 描述符数组完整时按描述符绑定，精确还原编码端的绑定选择；
// 否则每个节点都按名解析：在 MethodOwnerAssembly/MethodOwnerTypeName
// 下查找 MethodName，有接收者时在接收者运行时类型的方法集上查找，
// 没有时查静态函数表。单节点链重建为普通委托，多节点为多播委托，
// 调用顺序与链序一致。
func (h *Holder) Reconstruct() (inv delegate.Invoker, err error) {
	binding := metrics.BindingName
	if h.descriptors != nil {
		binding = metrics.BindingDescriptor
	}
	defer func() {
		status := metrics.StatusSuccess
		if err != nil {
			status = metrics.StatusFail
		}
		metrics.ReconstructTotal.WithLabelValues(binding, status).Inc()
	}()

	if h.head == nil {
		return nil, merr.WrapErrInsufficientState("holder has no chain")
	}

	declType, err := h.resolveDeclaringType()
	if err != nil {
		return nil, err
	}

	if h.descriptors == nil && h.format == FormatCurrent && h.head.ChainLen() > 0 {
		log.RatedWarn(60, "method descriptors incomplete, falling back to name-based resolution")
	}

	invokers := make([]delegate.Invoker, 0, h.head.ChainLen())
	i := 0
	for e := h.head; e != nil; e, i = e.Next, i+1 {
		var m *delegate.Method
		if h.descriptors != nil {
			m, err = h.descriptors[i].Resolve()
		} else {
			m, err = h.resolveByName(e)
		}
		if err != nil {
			return nil, err
		}
		b, err := delegate.BindMethod(declType, m, e.Target)
		if err != nil {
			return nil, merr.WrapErrInsufficientState(
				fmt.Sprintf("bind %s.%s: %v", e.MethodOwnerTypeName, e.MethodName, err))
		}
		invokers = append(invokers, b)
	}
	return delegate.Combine(invokers...)
}

// resolveDeclaringType 按名解析出链头声明的委托类型。
func (h *Holder) resolveDeclaringType() (reflect.Type, error) {
	handle, err := delegate.Resolve(h.head.DeclaringAssemblyName, h.head.DeclaringTypeName)
	if err != nil {
		return nil, merr.WrapErrInsufficientState(
			fmt.Sprintf("resolve delegate type %s/%s: %v",
				h.head.DeclaringAssemblyName, h.head.DeclaringTypeName, err))
	}
	declType := handle.Type()
	if declType == nil || !delegate.IsDelegateType(declType) {
		return nil, merr.WrapErrInsufficientState(
			fmt.Sprintf("%s/%s is not a delegate type",
				h.head.DeclaringAssemblyName, h.head.DeclaringTypeName))
	}
	return declType, nil
}

// resolveByName 按名字把一个链节点解析为方法引用。
func (h *Holder) resolveByName(e *Entry) (*delegate.Method, error) {
	handle, err := delegate.Resolve(e.MethodOwnerAssembly, e.MethodOwnerTypeName)
	if err != nil {
		return nil, merr.WrapErrInsufficientState(
			fmt.Sprintf("resolve method owner %s/%s: %v",
				e.MethodOwnerAssembly, e.MethodOwnerTypeName, err))
	}
	m, err := handle.FindMethod(e.MethodName, e.Target)
	if err != nil {
		return nil, merr.WrapErrInsufficientState(
			fmt.Sprintf("resolve method %s on %s/%s: %v",
				e.MethodName, e.MethodOwnerAssembly, e.MethodOwnerTypeName, err))
	}
	return m, nil
}

// EncodeTo 拒绝对已重建的持有者再序列化。
func (h *Holder) EncodeTo(rec *record.Record) error {
	return merr.WrapErrOperationNotSupported("re-serialize a reconstructed delegate holder",
		"encode the live delegate instead")
}
