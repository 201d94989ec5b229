package delegate

import "reflect"

// SystemAssembly 是内建类型所在的程序集名。
// 参与跨端传输的框架自身类型都注册在这个程序集下。
const SystemAssembly = "system"

func init() {
	MustRegisterType(SystemAssembly, reflect.TypeOf(MethodDescriptor{}))
}
