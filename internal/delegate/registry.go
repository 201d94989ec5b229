package delegate

import (
	"reflect"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
	"github.com/lk2023060901/delegate-garden-go/pkg/util/typeutil"
)

// 注册表把“程序集 + 类型名”映射到运行时类型与静态函数。
//
// 委托记录在传输时只携带名字（程序集名、类型名、方法名），
// 接收端必须能把这些名字重新解析成可调用的运行时对象。
// Go 没有全局的按名反射入口，因此所有参与跨端传输的类型、
// 委托类型与静态函数都要先在这里注册，通常在 init() 中完成。
type registry struct {
	mu         sync.RWMutex
	assemblies map[string]*assembly
	refs       map[reflect.Type]typeRef
}

// assembly 是一个逻辑代码单元，对应记录里的 assembly 名。
type assembly struct {
	name  string
	types map[string]reflect.Type
	funcs map[string]map[string]reflect.Value // 类型名 -> 函数名 -> 函数
}

type typeRef struct {
	assembly string
	typeName string
}

var global = &registry{
	assemblies: make(map[string]*assembly),
	refs:       make(map[reflect.Type]typeRef),
}

// delegateTypes 记录哪些已注册类型是委托类型（具名函数类型）。
var delegateTypes = typeutil.NewConcurrentSet[string]()

func typeKey(assemblyName, typeName string) string {
	return assemblyName + "/" + typeName
}

func skipPtr(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func (r *registry) ensureLocked(name string) *assembly {
	asm, ok := r.assemblies[name]
	if !ok {
		asm = &assembly{
			name:  name,
			types: make(map[string]reflect.Type),
			funcs: make(map[string]map[string]reflect.Value),
		}
		r.assemblies[name] = asm
	}
	return asm
}

// RegisterType 将具名类型注册到给定程序集下。
// 指针类型会先退化为元素类型。重复注册同一类型是幂等的；
// 同名但不同类型会返回 ErrTypeAlreadyRegistered。
func RegisterType(assemblyName string, t reflect.Type) error {
	t = skipPtr(t)
	if t == nil || t.Name() == "" {
		return merr.WrapErrParameterInvalidMsg("cannot register unnamed type %v", t)
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	asm := global.ensureLocked(assemblyName)
	if exist, ok := asm.types[t.Name()]; ok {
		if exist == t {
			return nil
		}
		return merr.WrapErrTypeAlreadyRegistered(assemblyName, t.Name())
	}
	asm.types[t.Name()] = t
	global.refs[t] = typeRef{assembly: assemblyName, typeName: t.Name()}
	return nil
}

// MustRegisterType 与 RegisterType 相同，失败时 panic。
// 仅应在 init() 中使用。
func MustRegisterType(assemblyName string, t reflect.Type) {
	if err := RegisterType(assemblyName, t); err != nil {
		panic(err)
	}
}

// RegisterDelegateType 注册一个委托类型（具名函数类型）。
// 只有通过这里注册的类型才会被编码器认可为委托。
func RegisterDelegateType(assemblyName string, t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Func || t.Name() == "" {
		return merr.WrapErrDelegateTypeInvalid(typeString(t))
	}
	if err := RegisterType(assemblyName, t); err != nil {
		return err
	}
	delegateTypes.Insert(typeKey(assemblyName, t.Name()))
	return nil
}

// MustRegisterDelegateType 与 RegisterDelegateType 相同，失败时 panic。
func MustRegisterDelegateType(assemblyName string, t reflect.Type) {
	if err := RegisterDelegateType(assemblyName, t); err != nil {
		panic(err)
	}
}

// RegisterFunction 把一个静态函数注册到 (assembly, typeName) 之下。
// typeName 充当函数的宿主类型名，不要求对应已注册的运行时类型。
func RegisterFunction(assemblyName, typeName, funcName string, fn any) error {
	if fn == nil {
		return merr.WrapErrParameterMissing("fn")
	}
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return merr.WrapErrParameterInvalid("func", fv.Kind().String())
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	asm := global.ensureLocked(assemblyName)
	fns, ok := asm.funcs[typeName]
	if !ok {
		fns = make(map[string]reflect.Value)
		asm.funcs[typeName] = fns
	}
	if exist, ok := fns[funcName]; ok {
		if exist.Pointer() == fv.Pointer() {
			return nil
		}
		return merr.WrapErrTypeAlreadyRegistered(assemblyName, typeName+"."+funcName)
	}
	fns[funcName] = fv
	return nil
}

// MustRegisterFunction 与 RegisterFunction 相同，失败时 panic。
func MustRegisterFunction(assemblyName, typeName, funcName string, fn any) {
	if err := RegisterFunction(assemblyName, typeName, funcName, fn); err != nil {
		panic(err)
	}
}

// LookupTypeRef 反查一个运行时类型注册时使用的程序集名与类型名。
func LookupTypeRef(t reflect.Type) (assemblyName string, typeName string, err error) {
	t = skipPtr(t)

	global.mu.RLock()
	defer global.mu.RUnlock()

	ref, ok := global.refs[t]
	if !ok {
		return "", "", merr.WrapErrTypeNotRegistered("", typeString(t))
	}
	return ref.assembly, ref.typeName, nil
}

// IsDelegateType 判断给定类型是否被注册为委托类型。
func IsDelegateType(t reflect.Type) bool {
	if t == nil || t.Kind() != reflect.Func {
		return false
	}
	asm, name, err := LookupTypeRef(t)
	if err != nil {
		return false
	}
	return delegateTypes.Contain(typeKey(asm, name))
}

// TypeHandle 是一次按名解析的结果。
type TypeHandle struct {
	assembly string
	name     string
	rtype    reflect.Type             // 为 nil 表示该名字下只注册了静态函数
	funcs    map[string]reflect.Value // 静态函数快照
}

// Resolve 按程序集名与类型名解析类型。
func Resolve(assemblyName, typeName string) (TypeHandle, error) {
	global.mu.RLock()
	defer global.mu.RUnlock()

	asm, ok := global.assemblies[assemblyName]
	if !ok {
		return TypeHandle{}, merr.WrapErrAssemblyNotFound(assemblyName)
	}

	h := TypeHandle{assembly: assemblyName, name: typeName}
	t, hasType := asm.types[typeName]
	if hasType {
		h.rtype = t
	}
	if fns, ok := asm.funcs[typeName]; ok {
		h.funcs = make(map[string]reflect.Value, len(fns))
		maps.Copy(h.funcs, fns)
	}
	if !hasType && h.funcs == nil {
		return TypeHandle{}, merr.WrapErrTypeNotRegistered(assemblyName, typeName)
	}
	return h, nil
}

// Type 返回句柄对应的运行时类型，可能为 nil。
func (h TypeHandle) Type() reflect.Type {
	return h.rtype
}

// FindMethod 按名字查找方法。
//
// target 不为 nil 时在 target 运行时类型的方法集上查找实例方法；
// target 为 nil 时在静态函数表中查找。
func (h TypeHandle) FindMethod(name string, target any) (*Method, error) {
	if target != nil {
		rt := reflect.TypeOf(target)
		m, ok := rt.MethodByName(name)
		if !ok {
			return nil, merr.WrapErrMethodNotFound(rt.String(), name)
		}
		return &Method{
			assembly:  h.assembly,
			ownerType: h.name,
			name:      name,
			fn:        m.Func,
			recv:      rt,
		}, nil
	}

	fn, ok := h.funcs[name]
	if !ok {
		return nil, merr.WrapErrMethodNotFound(typeKey(h.assembly, h.name), name)
	}
	return &Method{
		assembly:  h.assembly,
		ownerType: h.name,
		name:      name,
		static:    true,
		fn:        fn,
	}, nil
}

// Assemblies 返回所有已注册的程序集名，按字典序排序。
func Assemblies() []string {
	global.mu.RLock()
	defer global.mu.RUnlock()

	names := maps.Keys(global.assemblies)
	slices.Sort(names)
	return names
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
