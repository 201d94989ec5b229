package delegate

import (
	"reflect"

	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

// Invoker 是可直接调用的委托实例。
//
// 单节点委托由 *Bound 实现，多播委托由 *Multicast 实现。
type Invoker interface {
	// Invoke 以给定参数调用委托，返回方法的返回值。
	Invoke(args ...any) ([]any, error)

	// Type 返回委托的具名签名类型，未声明时为 nil。
	Type() reflect.Type
}

// Bound 是绑定了接收者的单个委托节点。
type Bound struct {
	declType reflect.Type  // 具名委托类型，可为 nil
	target   any           // 原始接收者对象
	recv     reflect.Value // 实际用于调用的接收者，静态方法为零值
	method   *Method
}

var _ Invoker = (*Bound)(nil)

func (b *Bound) Target() any     { return b.target }
func (b *Bound) Method() *Method { return b.method }

func (b *Bound) Type() reflect.Type {
	return b.declType
}

// signatureType 返回绑定后的调用签名（不含接收者）。
func (b *Bound) signatureType() reflect.Type {
	ft := b.method.fn.Type()
	if !b.recv.IsValid() {
		return ft
	}
	in := make([]reflect.Type, 0, ft.NumIn()-1)
	for i := 1; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}
	out := make([]reflect.Type, 0, ft.NumOut())
	for i := 0; i < ft.NumOut(); i++ {
		out = append(out, ft.Out(i))
	}
	return reflect.FuncOf(in, out, ft.IsVariadic())
}

// Invoke 调用绑定的方法。
func (b *Bound) Invoke(args ...any) ([]any, error) {
	ft := b.method.fn.Type()

	in := make([]reflect.Value, 0, len(args)+1)
	if b.recv.IsValid() {
		in = append(in, b.recv)
	}
	offset := len(in)

	if !ft.IsVariadic() && len(args)+offset != ft.NumIn() {
		return nil, merr.WrapErrParameterInvalid(ft.NumIn()-offset, len(args), "argument count mismatch")
	}
	for i, arg := range args {
		if arg == nil {
			in = append(in, reflect.Zero(ft.In(i+offset)))
			continue
		}
		in = append(in, reflect.ValueOf(arg))
	}

	out := b.method.fn.Call(in)
	results := make([]any, 0, len(out))
	for _, v := range out {
		results = append(results, v.Interface())
	}
	return results, nil
}

// Multicast 是按顺序调用的委托链。
// Invoke 依次调用每个节点，返回最后一个节点的返回值。
type Multicast struct {
	declType reflect.Type
	nodes    []*Bound
}

var _ Invoker = (*Multicast)(nil)

func (m *Multicast) Type() reflect.Type {
	return m.declType
}

// Nodes 返回链上所有节点的副本，顺序与调用顺序一致。
func (m *Multicast) Nodes() []*Bound {
	nodes := make([]*Bound, len(m.nodes))
	copy(nodes, m.nodes)
	return nodes
}

func (m *Multicast) Len() int {
	return len(m.nodes)
}

func (m *Multicast) Invoke(args ...any) ([]any, error) {
	var results []any
	for _, node := range m.nodes {
		out, err := node.Invoke(args...)
		if err != nil {
			return nil, err
		}
		results = out
	}
	return results, nil
}

// Combine 把若干委托合并为一个多播委托，保持参数顺序。
// 入参中的多播委托会被展开。只有一个节点时返回该节点本身。
func Combine(invokers ...Invoker) (Invoker, error) {
	var declType reflect.Type
	nodes := make([]*Bound, 0, len(invokers))
	for _, inv := range invokers {
		switch v := inv.(type) {
		case *Bound:
			nodes = append(nodes, v)
		case *Multicast:
			nodes = append(nodes, v.nodes...)
		default:
			return nil, merr.WrapErrParameterInvalidMsg("cannot combine invoker of type %T", inv)
		}
		if declType == nil {
			declType = inv.Type()
		} else if inv.Type() != nil && inv.Type() != declType {
			return nil, merr.WrapErrSignatureMismatch(declType.String(), inv.Type().String(),
				"combined delegates must share one declared type")
		}
	}
	if len(nodes) == 0 {
		return nil, merr.WrapErrParameterMissing("invokers")
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return &Multicast{declType: declType, nodes: nodes}, nil
}

// MethodOf 在 target 的运行时类型上查找方法并生成方法引用。
// target 的类型必须已注册，否则对端无法识别。
func MethodOf(target any, name string) (*Method, error) {
	if target == nil {
		return nil, merr.WrapErrParameterMissing("target")
	}
	rt := reflect.TypeOf(target)
	m, ok := rt.MethodByName(name)
	if !ok {
		return nil, merr.WrapErrMethodNotFound(rt.String(), name)
	}
	asm, typeName, err := LookupTypeRef(rt)
	if err != nil {
		return nil, err
	}
	return &Method{
		assembly:  asm,
		ownerType: typeName,
		name:      name,
		fn:        m.Func,
		recv:      rt,
	}, nil
}

// MethodOfType 在指定声明类型上查找方法并生成方法引用。
//
// 与 MethodOf 不同，接收者类型固定为声明类型本身；绑定时 target
// 可以是内嵌了声明类型的外层类型。用于方法被遮蔽时仍按声明类型调用。
func MethodOfType(declared reflect.Type, name string) (*Method, error) {
	base := skipPtr(declared)
	if base == nil {
		return nil, merr.WrapErrParameterMissing("declared")
	}
	asm, typeName, err := LookupTypeRef(base)
	if err != nil {
		return nil, err
	}
	m, ok := base.MethodByName(name)
	if !ok {
		m, ok = reflect.PointerTo(base).MethodByName(name)
	}
	if !ok {
		return nil, merr.WrapErrMethodNotFound(base.String(), name)
	}
	return &Method{
		assembly:  asm,
		ownerType: typeName,
		name:      name,
		fn:        m.Func,
		recv:      m.Func.Type().In(0),
	}, nil
}

// FunctionOf 返回注册在 (assembly, typeName) 下的静态函数引用。
func FunctionOf(assemblyName, typeName, name string) (*Method, error) {
	h, err := Resolve(assemblyName, typeName)
	if err != nil {
		return nil, err
	}
	return h.FindMethod(name, nil)
}

// FreeFunction 把一个没有注册归属的函数包装为方法引用。
// 这类方法没有声明类型，编码器会拒绝序列化它。
func FreeFunction(name string, fn any) *Method {
	return &Method{
		name:   name,
		static: true,
		fn:     reflect.ValueOf(fn),
	}
}

// Bind 把 target 上名为 methodName 的方法绑定为 declType 类型的委托。
func Bind(declType reflect.Type, target any, methodName string) (*Bound, error) {
	m, err := MethodOf(target, methodName)
	if err != nil {
		return nil, err
	}
	return bindChecked(declType, m, target)
}

// BindType 按声明类型查找方法后绑定，用于内嵌/遮蔽场景。
func BindType(declType reflect.Type, declared reflect.Type, target any, methodName string) (*Bound, error) {
	m, err := MethodOfType(declared, methodName)
	if err != nil {
		return nil, err
	}
	return bindChecked(declType, m, target)
}

// BindFunction 把静态函数绑定为 declType 类型的委托。
func BindFunction(declType reflect.Type, assemblyName, typeName, funcName string) (*Bound, error) {
	m, err := FunctionOf(assemblyName, typeName, funcName)
	if err != nil {
		return nil, err
	}
	return bindChecked(declType, m, nil)
}

// BindMethod 把已解析出的方法引用绑定为 declType 类型的委托。
// declType 为 nil 时跳过签名校验。
func BindMethod(declType reflect.Type, m *Method, target any) (*Bound, error) {
	if m == nil {
		return nil, merr.WrapErrParameterMissing("method")
	}
	return bindChecked(declType, m, target)
}

func bindChecked(declType reflect.Type, m *Method, target any) (*Bound, error) {
	b, err := m.Bind(target)
	if err != nil {
		return nil, err
	}
	if declType != nil {
		if sig := b.signatureType(); !sig.AssignableTo(declType) {
			return nil, merr.WrapErrSignatureMismatch(declType.String(), sig.String())
		}
		b.declType = declType
	}
	return b, nil
}
