// Package state persists engine presets as a compact binary blob over
// the parameter registry.
package state

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vibrationalforce/echoelcore/pkg/framework/param"
)

// Magic identifies a preset blob.
const Magic = "ECHO"

// Version is the current preset format version.
const Version uint32 = 1

// Manager saves and loads the registry's parameter values. The format is
// magic, version, count, then id/value pairs; unknown IDs are skipped on
// load so presets survive parameter additions.
type Manager struct {
	version  uint32
	registry *param.Registry
	custom   CustomStateFunc
}

// CustomStateFunc appends extra state beyond parameters.
type CustomStateFunc func(w io.Writer) error

// NewManager creates a state manager over a registry.
func NewManager(registry *param.Registry) *Manager {
	return &Manager{
		version:  Version,
		registry: registry,
	}
}

// SetCustomStateFunc sets a function for saving custom state.
func (m *Manager) SetCustomStateFunc(fn CustomStateFunc) {
	m.custom = fn
}

// Save writes the preset blob.
func (m *Manager) Save(w io.Writer) error {
	if _, err := w.Write([]byte(Magic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.version); err != nil {
		return err
	}

	paramCount := m.registry.Count()
	if err := binary.Write(w, binary.LittleEndian, paramCount); err != nil {
		return err
	}

	for _, p := range m.registry.All() {
		if err := binary.Write(w, binary.LittleEndian, p.ID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, p.GetValue()); err != nil {
			return err
		}
	}

	if m.custom != nil {
		if err := binary.Write(w, binary.LittleEndian, uint32(1)); err != nil {
			return err
		}
		return m.custom(w)
	}
	return binary.Write(w, binary.LittleEndian, uint32(0))
}

// Load reads a preset blob into the registry. Values for IDs the
// registry doesn't know are discarded.
func (m *Manager) Load(r io.Reader) error {
	header := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	if string(header) != Magic {
		return fmt.Errorf("invalid preset format")
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version > m.version {
		return fmt.Errorf("preset version %d is newer than supported version %d", version, m.version)
	}

	var paramCount int32
	if err := binary.Read(r, binary.LittleEndian, &paramCount); err != nil {
		return err
	}

	for i := int32(0); i < paramCount; i++ {
		var id uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return err
		}
		var value float64
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return err
		}
		if p := m.registry.Get(id); p != nil {
			p.SetValue(value)
		}
	}

	var hasCustom uint32
	if err := binary.Read(r, binary.LittleEndian, &hasCustom); err != nil {
		// Older writers may omit the trailer.
		if err == io.EOF {
			return nil
		}
		return err
	}
	if hasCustom != 0 && m.custom == nil {
		return fmt.Errorf("preset carries custom state but no loader is set")
	}

	return nil
}
