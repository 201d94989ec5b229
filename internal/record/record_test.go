package record

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

func TestRecordAddGet(t *testing.T) {
	r := New()
	r.SetType("TestRecord")

	require.NoError(t, r.AddValue("name", "counter", nil))
	require.NoError(t, r.AddValue("count", 3, reflect.TypeOf(0)))
	require.NoError(t, r.AddValue("none", nil, nil))

	assert.Equal(t, "TestRecord", r.TypeTag())
	assert.Equal(t, 3, r.MemberCount())

	v, err := r.GetValue("name", reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Equal(t, "counter", v)

	v, err = r.GetValue("none", reflect.TypeOf(""))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRecordMemberOrder(t *testing.T) {
	r := New()
	keys := []string{"target0", "method0", "target1", "method1", "Delegate"}
	for i, key := range keys {
		require.NoError(t, r.AddValue(key, i, nil))
	}

	members := r.Members()
	require.Len(t, members, len(keys))
	for i, m := range members {
		assert.Equal(t, keys[i], m.Key)
		assert.Equal(t, i, m.Value)
	}
}

func TestRecordDuplicateKey(t *testing.T) {
	r := New()
	require.NoError(t, r.AddValue("key", 1, nil))
	err := r.AddValue("key", 2, nil)
	assert.ErrorIs(t, err, merr.ErrRecordDuplicateKey)
}

func TestRecordEmptyKey(t *testing.T) {
	r := New()
	err := r.AddValue("", 1, nil)
	assert.ErrorIs(t, err, merr.ErrParameterMissing)
}

func TestRecordFieldMissing(t *testing.T) {
	r := New()
	_, err := r.GetValue("absent", nil)
	assert.ErrorIs(t, err, merr.ErrRecordFieldMissing)
}

func TestRecordFieldMismatch(t *testing.T) {
	r := New()
	err := r.AddValue("count", "three", reflect.TypeOf(0))
	assert.ErrorIs(t, err, merr.ErrRecordFieldMismatch)

	require.NoError(t, r.AddValue("name", 42, nil))
	_, err = r.GetValue("name", reflect.TypeOf(""))
	assert.ErrorIs(t, err, merr.ErrRecordFieldMismatch)
}

func TestRecordGetValueNoThrow(t *testing.T) {
	r := New()
	require.NoError(t, r.AddValue("name", "counter", nil))

	v, ok := r.GetValueNoThrow("name", reflect.TypeOf(""))
	assert.True(t, ok)
	assert.Equal(t, "counter", v)

	_, ok = r.GetValueNoThrow("absent", nil)
	assert.False(t, ok)

	_, ok = r.GetValueNoThrow("name", reflect.TypeOf(0))
	assert.False(t, ok)
}
