package record

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/delegate-garden-go/internal/delegate"
	"github.com/lk2023060901/delegate-garden-go/pkg/util/merr"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type unregistered struct {
	Name string `json:"name"`
}

func init() {
	delegate.MustRegisterType("recordtest", reflect.TypeOf(payload{}))
}

func TestCodecRoundTrip(t *testing.T) {
	r := New()
	r.SetType("TestRecord")
	require.NoError(t, r.AddValue("name", "counter", nil))
	require.NoError(t, r.AddValue("enabled", true, nil))
	require.NoError(t, r.AddValue("count", 3, nil))
	require.NoError(t, r.AddValue("total", int64(1<<40), nil))
	require.NoError(t, r.AddValue("ratio", 0.5, nil))
	require.NoError(t, r.AddValue("none", nil, nil))
	require.NoError(t, r.AddValue("payload", &payload{Name: "p", Count: 7}, nil))

	c := NewCodec(nil)
	data, err := c.Marshal(r)
	require.NoError(t, err)

	got, err := c.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, "TestRecord", got.TypeTag())
	require.Equal(t, r.MemberCount(), got.MemberCount())

	want := r.Members()
	for i, m := range got.Members() {
		assert.Equal(t, want[i].Key, m.Key)
	}

	v, err := got.GetValue("name", nil)
	require.NoError(t, err)
	assert.Equal(t, "counter", v)

	v, err = got.GetValue("count", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = got.GetValue("total", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), v)

	v, err = got.GetValue("none", nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = got.GetValue("payload", reflect.TypeOf(&payload{}))
	require.NoError(t, err)
	assert.Equal(t, &payload{Name: "p", Count: 7}, v)
}

func TestCodecUnregisteredType(t *testing.T) {
	r := New()
	require.NoError(t, r.AddValue("payload", &unregistered{Name: "p"}, nil))

	c := NewCodec(nil)
	_, err := c.Marshal(r)
	assert.ErrorIs(t, err, merr.ErrTypeNotRegistered)
}

func TestCodecMalformedWireType(t *testing.T) {
	c := NewCodec(nil)
	_, err := c.decodeValue("no-slash", []byte(`{}`))
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}
