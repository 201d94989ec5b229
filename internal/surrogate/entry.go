package surrogate

import (
	"reflect"
	"strconv"

	"github.com/lk2023060901/delegate-garden-go/internal/delegate"
)

// HolderTypeTag 是当前格式记录的类型标签。
const HolderTypeTag = "DelegateSerializationHolder"

// 当前格式在记录中使用的键名。
// 链头挂在 Delegate 之下，第 i 个节点的接收者与方法描述符
// 分别挂在 target{i} 与 method{i} 之下。
const (
	keyDelegate     = "Delegate"
	keyTargetPrefix = "target"
	keyMethodPrefix = "method"
)

// 旧格式的六个平铺键。旧格式没有链，也没有方法描述符。
const (
	keyLegacyDelegateType     = "DelegateType"
	keyLegacyDelegateAssembly = "DelegateAssembly"
	keyLegacyTarget           = "Target"
	keyLegacyTargetAssembly   = "TargetTypeAssembly"
	keyLegacyTargetTypeName   = "TargetTypeName"
	keyLegacyMethodName       = "MethodName"
)

func keyTarget(i int) string {
	return keyTargetPrefix + strconv.Itoa(i)
}

func keyMethod(i int) string {
	return keyMethodPrefix + strconv.Itoa(i)
}

// Entry 是多播委托链上的一个节点。
//
// Target 的取值分三个阶段：无接收者时为 nil；编码后、旁路解析前
// 是 string 类型的旁路键；解析后是接收者对象本身。解码器正是
// 依靠 string 类型来区分“待解析的键”与旧格式里直接内联的对象。
type Entry struct {
	DeclaringTypeName     string `json:"declaring_type_name"`
	DeclaringAssemblyName string `json:"declaring_assembly_name"`
	Target                any    `json:"target,omitempty"`
	MethodOwnerAssembly   string `json:"method_owner_assembly"`
	MethodOwnerTypeName   string `json:"method_owner_type_name"`
	MethodName            string `json:"method_name"`
	Next                  *Entry `json:"next,omitempty"`
}

// ChainLen 返回从当前节点到链尾的节点数。
func (e *Entry) ChainLen() int {
	n := 0
	for ; e != nil; e = e.Next {
		n++
	}
	return n
}

func init() {
	delegate.MustRegisterType(delegate.SystemAssembly, reflect.TypeOf(Entry{}))
}
