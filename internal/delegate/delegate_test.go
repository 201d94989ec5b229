package delegate

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

const testAssembly = "delegatetest"

// Adder 是测试用的委托类型。
type Adder func(n int) int

type Counter struct {
	Total int `json:"total"`
}

func (c *Counter) Add(n int) int {
	c.Total += n
	return c.Total
}

type Probe struct {
	ID   string `json:"id"`
	sink *[]string
}

func (p *Probe) Mark(n int) int {
	*p.sink = append(*p.sink, p.ID)
	return n
}

type Base struct {
	Tag string `json:"tag"`
}

func (b *Base) Describe() string { return "base" }

type Derived struct {
	Base
}

func (d *Derived) Describe() string { return "derived" }

func add10(n int) int { return n + 10 }

var adderType = reflect.TypeOf(Adder(nil))

func init() {
	MustRegisterDelegateType(testAssembly, adderType)
	MustRegisterType(testAssembly, reflect.TypeOf(Counter{}))
	MustRegisterType(testAssembly, reflect.TypeOf(Probe{}))
	MustRegisterType(testAssembly, reflect.TypeOf(Base{}))
	MustRegisterType(testAssembly, reflect.TypeOf(Derived{}))
	MustRegisterFunction(testAssembly, "MathUtil", "Add10", add10)
}

func TestBindInvoke(t *testing.T) {
	c := &Counter{}
	b, err := Bind(adderType, c, "Add")
	require.NoError(t, err)
	assert.Same(t, c, b.Target())
	assert.Equal(t, adderType, b.Type())

	out, err := b.Invoke(3)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0])

	out, err = b.Invoke(4)
	require.NoError(t, err)
	assert.Equal(t, 7, out[0])
}

func TestBindSignatureMismatch(t *testing.T) {
	type Stringer func() string
	stringerType := reflect.TypeOf(Stringer(nil))

	_, err := Bind(stringerType, &Counter{}, "Add")
	assert.ErrorIs(t, err, merr.ErrSignatureMismatch)
}

func TestInvokeArgumentCount(t *testing.T) {
	b, err := Bind(adderType, &Counter{}, "Add")
	require.NoError(t, err)

	_, err = b.Invoke(1, 2)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestBindFunction(t *testing.T) {
	b, err := BindFunction(adderType, testAssembly, "MathUtil", "Add10")
	require.NoError(t, err)
	assert.True(t, b.Method().Static())

	out, err := b.Invoke(5)
	require.NoError(t, err)
	assert.Equal(t, 15, out[0])
}

func TestCombineOrder(t *testing.T) {
	var calls []string
	p1 := &Probe{ID: "first", sink: &calls}
	p2 := &Probe{ID: "second", sink: &calls}
	p3 := &Probe{ID: "third", sink: &calls}

	b1, err := Bind(adderType, p1, "Mark")
	require.NoError(t, err)
	b2, err := Bind(adderType, p2, "Mark")
	require.NoError(t, err)
	b3, err := Bind(adderType, p3, "Mark")
	require.NoError(t, err)

	inner, err := Combine(b1, b2)
	require.NoError(t, err)
	combined, err := Combine(inner, b3)
	require.NoError(t, err)

	mc, ok := combined.(*Multicast)
	require.True(t, ok)
	assert.Equal(t, 3, mc.Len())

	out, err := mc.Invoke(9)
	require.NoError(t, err)
	assert.Equal(t, 9, out[0])
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}

func TestCombineSingle(t *testing.T) {
	b, err := Bind(adderType, &Counter{}, "Add")
	require.NoError(t, err)

	inv, err := Combine(b)
	require.NoError(t, err)
	assert.Same(t, b, inv)
}

func TestCombineEmpty(t *testing.T) {
	_, err := Combine()
	assert.ErrorIs(t, err, merr.ErrParameterMissing)
}

func TestShadowedMethod(t *testing.T) {
	d := &Derived{Base: Base{Tag: "x"}}

	// 按运行时类型查找，取到外层的遮蔽方法。
	byTarget, err := MethodOf(d, "Describe")
	require.NoError(t, err)
	b, err := byTarget.Bind(d)
	require.NoError(t, err)
	out, err := b.Invoke()
	require.NoError(t, err)
	assert.Equal(t, "derived", out[0])

	// 按声明类型查找，穿透遮蔽取到内嵌类型的方法。
	byDecl, err := MethodOfType(reflect.TypeOf(Base{}), "Describe")
	require.NoError(t, err)
	b, err = byDecl.Bind(d)
	require.NoError(t, err)
	out, err = b.Invoke()
	require.NoError(t, err)
	assert.Equal(t, "base", out[0])
}

func TestDescriptorResolve(t *testing.T) {
	m, err := MethodOf(&Counter{}, "Add")
	require.NoError(t, err)

	desc := m.Descriptor()
	assert.Equal(t, testAssembly, desc.Assembly)
	assert.Equal(t, "Counter", desc.OwnerType)
	assert.Equal(t, "Add", desc.Name)
	assert.False(t, desc.Static)

	resolved, err := desc.Resolve()
	require.NoError(t, err)
	assert.Equal(t, m.Name(), resolved.Name())

	c := &Counter{}
	b, err := resolved.Bind(c)
	require.NoError(t, err)
	out, err := b.Invoke(2)
	require.NoError(t, err)
	assert.Equal(t, 2, out[0])
}

func TestDescriptorSignatureMismatch(t *testing.T) {
	m, err := MethodOf(&Counter{}, "Add")
	require.NoError(t, err)

	desc := m.Descriptor()
	desc.Signature = "func(*delegate.Counter, string) int"
	_, err = desc.Resolve()
	assert.ErrorIs(t, err, merr.ErrSignatureMismatch)
}

func TestDescriptorStaticResolve(t *testing.T) {
	m, err := FunctionOf(testAssembly, "MathUtil", "Add10")
	require.NoError(t, err)

	resolved, err := m.Descriptor().Resolve()
	require.NoError(t, err)

	b, err := resolved.Bind(nil)
	require.NoError(t, err)
	out, err := b.Invoke(1)
	require.NoError(t, err)
	assert.Equal(t, 11, out[0])
}

func TestFreeFunction(t *testing.T) {
	m := FreeFunction("add10", add10)
	assert.False(t, m.HasDeclaringType())

	b, err := m.Bind(nil)
	require.NoError(t, err)
	out, err := b.Invoke(2)
	require.NoError(t, err)
	assert.Equal(t, 12, out[0])
}
