package delegate

import (
	"go/token"
	"reflect"

	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

// Method 表示一个尚未绑定接收者的方法引用。
//
// 实例方法的 fn 是展开形式：第一个参数为接收者。
// 静态方法（注册在类型名下的函数）的 fn 就是函数本身。
type Method struct {
	assembly  string
	ownerType string
	name      string
	static    bool
	fn        reflect.Value
	recv      reflect.Type // 声明接收者类型，静态方法为 nil
}

func (m *Method) Assembly() string  { return m.assembly }
func (m *Method) OwnerType() string { return m.ownerType }
func (m *Method) Name() string      { return m.name }
func (m *Method) Static() bool      { return m.static }

// HasDeclaringType 判断方法是否有声明类型。
// 自由函数没有声明类型，无法在接收端按名重新解析。
func (m *Method) HasDeclaringType() bool {
	return m.ownerType != ""
}

// Public 判断方法名是否对外可见（导出）。
func (m *Method) Public() bool {
	return token.IsExported(m.name)
}

// OwnerPublic 判断方法声明类型名是否对外可见（导出）。
func (m *Method) OwnerPublic() bool {
	return token.IsExported(m.ownerType)
}

// Descriptor 生成方法的完整描述符。
func (m *Method) Descriptor() *MethodDescriptor {
	return &MethodDescriptor{
		Assembly:  m.assembly,
		OwnerType: m.ownerType,
		Name:      m.name,
		Signature: m.fn.Type().String(),
		Static:    m.static,
	}
}

// Bind 将方法绑定到给定接收者，得到可调用的委托节点。
//
// 当 target 的运行时类型与声明接收者类型不一致时，会在 target 中
// 逐层查找内嵌的声明类型字段并以其为接收者。这覆盖了方法被外层
// 类型遮蔽（shadowing）时仍按声明类型调用的场景。
func (m *Method) Bind(target any) (*Bound, error) {
	if m.static {
		if target != nil {
			return nil, merr.WrapErrSignatureMismatch("nil target", reflect.TypeOf(target).String(),
				"static method cannot bind a target")
		}
		return &Bound{method: m}, nil
	}

	if target == nil {
		return nil, merr.WrapErrParameterMissing("target")
	}

	rv := reflect.ValueOf(target)
	if rv.Type().AssignableTo(m.recv) {
		return &Bound{target: target, recv: rv, method: m}, nil
	}

	recv, ok := findEmbedded(rv, m.recv)
	if !ok {
		return nil, merr.WrapErrSignatureMismatch(m.recv.String(), rv.Type().String(),
			"target does not contain declaring type")
	}
	return &Bound{target: target, recv: recv, method: m}, nil
}

// findEmbedded 在 v 中查找类型为 want 的内嵌（匿名）字段。
func findEmbedded(v reflect.Value, want reflect.Type) (reflect.Value, bool) {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		fv := v.Field(i)
		if f.Type.AssignableTo(want) {
			return fv, true
		}
		if fv.CanAddr() && reflect.PointerTo(f.Type).AssignableTo(want) {
			return fv.Addr(), true
		}
		if sub, ok := findEmbedded(fv, want); ok {
			return sub, true
		}
	}
	return reflect.Value{}, false
}

// MethodDescriptor 是方法的全保真描述。
//
// 除按名识别所需的字段外还携带完整签名，保证接收端还原出与
// 编码端完全一致的绑定，而不是按 target 运行时类型重新挑选。
type MethodDescriptor struct {
	Assembly  string `json:"assembly"`
	OwnerType string `json:"owner_type"`
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Static    bool   `json:"static"`
}

// Resolve 把描述符解析回方法引用。
// 解析出的方法签名必须与描述符记录的签名一致。
func (d *MethodDescriptor) Resolve() (*Method, error) {
	h, err := Resolve(d.Assembly, d.OwnerType)
	if err != nil {
		return nil, err
	}

	if d.Static {
		m, err := h.FindMethod(d.Name, nil)
		if err != nil {
			return nil, err
		}
		if got := m.fn.Type().String(); got != d.Signature {
			return nil, merr.WrapErrSignatureMismatch(d.Signature, got)
		}
		return m, nil
	}

	rtype := h.Type()
	if rtype == nil {
		return nil, merr.WrapErrTypeNotRegistered(d.Assembly, d.OwnerType)
	}

	// 值接收者的方法挂在 T 上，指针接收者的方法挂在 *T 上。
	m, ok := rtype.MethodByName(d.Name)
	if !ok {
		m, ok = reflect.PointerTo(rtype).MethodByName(d.Name)
	}
	if !ok {
		return nil, merr.WrapErrMethodNotFound(typeKey(d.Assembly, d.OwnerType), d.Name)
	}
	if got := m.Func.Type().String(); got != d.Signature {
		return nil, merr.WrapErrSignatureMismatch(d.Signature, got)
	}
	return &Method{
		assembly:  d.Assembly,
		ownerType: d.OwnerType,
		name:      d.Name,
		fn:        m.Func,
		recv:      m.Func.Type().In(0),
	}, nil
}

// Bind 解析描述符并绑定接收者。
func (d *MethodDescriptor) Bind(target any) (*Bound, error) {
	m, err := d.Resolve()
	if err != nil {
		return nil, err
	}
	return m.Bind(target)
}
