package delegate

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

func TestRegisterTypeIdempotent(t *testing.T) {
	assert.NoError(t, RegisterType(testAssembly, reflect.TypeOf(Counter{})))
	assert.NoError(t, RegisterType(testAssembly, reflect.TypeOf(&Counter{})))
}

func TestRegisterUnnamedType(t *testing.T) {
	err := RegisterType(testAssembly, reflect.TypeOf(struct{ X int }{}))
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestRegisterDelegateTypeRejectsNonFunc(t *testing.T) {
	err := RegisterDelegateType(testAssembly, reflect.TypeOf(Counter{}))
	assert.ErrorIs(t, err, merr.ErrDelegateTypeInvalid)
}

func TestRegisterFunctionConflict(t *testing.T) {
	assert.NoError(t, RegisterFunction(testAssembly, "MathUtil", "Add10", add10))

	err := RegisterFunction(testAssembly, "MathUtil", "Add10", func(n int) int { return n })
	assert.ErrorIs(t, err, merr.ErrTypeAlreadyRegistered)
}

func TestLookupTypeRef(t *testing.T) {
	asm, name, err := LookupTypeRef(reflect.TypeOf(&Counter{}))
	require.NoError(t, err)
	assert.Equal(t, testAssembly, asm)
	assert.Equal(t, "Counter", name)

	type loner struct{}
	_, _, err = LookupTypeRef(reflect.TypeOf(loner{}))
	assert.ErrorIs(t, err, merr.ErrTypeNotRegistered)
}

func TestIsDelegateType(t *testing.T) {
	assert.True(t, IsDelegateType(adderType))
	assert.False(t, IsDelegateType(reflect.TypeOf(Counter{})))
	assert.False(t, IsDelegateType(reflect.TypeOf(func() {})))
	assert.False(t, IsDelegateType(nil))
}

func TestResolve(t *testing.T) {
	h, err := Resolve(testAssembly, "Counter")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(Counter{}), h.Type())

	_, err = Resolve("ghost", "Counter")
	assert.ErrorIs(t, err, merr.ErrAssemblyNotFound)

	_, err = Resolve(testAssembly, "Ghost")
	assert.ErrorIs(t, err, merr.ErrTypeNotRegistered)
}

func TestResolveFunctionHost(t *testing.T) {
	// MathUtil 只有静态函数，没有对应的运行时类型。
	h, err := Resolve(testAssembly, "MathUtil")
	require.NoError(t, err)
	assert.Nil(t, h.Type())

	m, err := h.FindMethod("Add10", nil)
	require.NoError(t, err)
	assert.True(t, m.Static())

	_, err = h.FindMethod("Ghost", nil)
	assert.ErrorIs(t, err, merr.ErrMethodNotFound)
}

func TestFindMethodOnTarget(t *testing.T) {
	h, err := Resolve(testAssembly, "Counter")
	require.NoError(t, err)

	m, err := h.FindMethod("Add", &Counter{})
	require.NoError(t, err)
	assert.Equal(t, "Add", m.Name())
	assert.False(t, m.Static())

	_, err = h.FindMethod("Ghost", &Counter{})
	assert.ErrorIs(t, err, merr.ErrMethodNotFound)
}

func TestAssemblies(t *testing.T) {
	names := Assemblies()
	assert.Contains(t, names, testAssembly)
	assert.Contains(t, names, SystemAssembly)
	assert.True(t, sortedStrings(names))
}

func sortedStrings(names []string) bool {
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			return false
		}
	}
	return true
}
