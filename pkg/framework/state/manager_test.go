package state

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibrationalforce/echoelcore/pkg/framework/param"
)

func newTestRegistry() *param.Registry {
	r := param.NewRegistry()
	r.Add(
		param.New(1, "Cutoff").Range(20, 20000).Default(1000).Build(),
		param.New(2, "Resonance").Range(0, 1).Default(0.3).Build(),
		param.New(3, "Mix").Range(0, 100).Default(50).Build(),
	)
	return r
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r := newTestRegistry()
	r.Get(1).SetValue(0.8)
	r.Get(2).SetValue(0.1)
	r.Get(3).SetValue(0.9)

	var buf bytes.Buffer
	require.NoError(t, NewManager(r).Save(&buf))

	// Load into a fresh registry with defaults.
	r2 := newTestRegistry()
	require.NoError(t, NewManager(r2).Load(&buf))

	assert.Equal(t, 0.8, r2.Get(1).GetValue())
	assert.Equal(t, 0.1, r2.Get(2).GetValue())
	assert.Equal(t, 0.9, r2.Get(3).GetValue())
}

func TestLoadRejectsBadMagic(t *testing.T) {
	r := newTestRegistry()
	err := NewManager(r).Load(bytes.NewReader([]byte("NOPE\x00\x00\x00\x00")))
	assert.Error(t, err)
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(Magic)
	binary.Write(&buf, binary.LittleEndian, uint32(99))
	binary.Write(&buf, binary.LittleEndian, int32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(0))

	err := NewManager(newTestRegistry()).Load(&buf)
	assert.Error(t, err)
}

func TestLoadSkipsUnknownIDs(t *testing.T) {
	// Blob written by a registry with an extra parameter.
	writer := newTestRegistry()
	writer.Add(param.New(42, "Future").Build())
	writer.Get(42).SetValue(0.7)
	writer.Get(1).SetValue(0.25)

	var buf bytes.Buffer
	require.NoError(t, NewManager(writer).Save(&buf))

	reader := newTestRegistry()
	require.NoError(t, NewManager(reader).Load(&buf))

	assert.Equal(t, 0.25, reader.Get(1).GetValue(), "known IDs load")
	assert.Nil(t, reader.Get(42), "unknown IDs are skipped without error")
}

func TestSaveWithCustomState(t *testing.T) {
	r := newTestRegistry()
	m := NewManager(r)
	m.SetCustomStateFunc(func(w io.Writer) error {
		_, err := w.Write([]byte{0xAB})
		return err
	})

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))
	assert.Equal(t, byte(0xAB), buf.Bytes()[buf.Len()-1])
}
