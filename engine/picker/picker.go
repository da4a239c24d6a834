// Package picker encodes and decodes the 64-bit identifiers written into the picker attachment.
//
// The high 32 bits hold the target kind tag and the low 32 bits a kind specific payload. A value of 0 means that
// nothing was drawn under the picker position.
package picker

// Tags stored in the high word of an encoded target.
const (
	tagNone uint32 = iota
	tagTile
	tagEntity
	tagObjectMarker
	tagLightSourceMarker
	tagSoundSourceMarker
	tagEffectSourceMarker
	tagParticleMarker
	tagEntityMarker
)

// Target is anything the picker can resolve to. The set of implementations is closed.
type Target interface {
	encode() (tag uint32, payload uint32)
}

// Tile is a map tile addressed by its grid coordinate.
type Tile struct {
	X uint16
	Y uint16
}

// Entity is a world entity addressed by its id.
type Entity uint32

// ObjectMarker is the debug marker of a map object.
type ObjectMarker uint32

// LightSourceMarker is the debug marker of a light source.
type LightSourceMarker uint32

// SoundSourceMarker is the debug marker of a sound source.
type SoundSourceMarker uint32

// EffectSourceMarker is the debug marker of an effect source.
type EffectSourceMarker uint32

// ParticleMarker is the debug marker of a single particle of an effect source.
type ParticleMarker struct {
	Source uint16
	Index  uint16
}

// EntityMarker is the debug marker of an entity.
type EntityMarker uint32

func (t Tile) encode() (uint32, uint32)               { return tagTile, uint32(t.X)<<16 | uint32(t.Y) }
func (e Entity) encode() (uint32, uint32)             { return tagEntity, uint32(e) }
func (m ObjectMarker) encode() (uint32, uint32)       { return tagObjectMarker, uint32(m) }
func (m LightSourceMarker) encode() (uint32, uint32)  { return tagLightSourceMarker, uint32(m) }
func (m SoundSourceMarker) encode() (uint32, uint32)  { return tagSoundSourceMarker, uint32(m) }
func (m EffectSourceMarker) encode() (uint32, uint32) { return tagEffectSourceMarker, uint32(m) }
func (m ParticleMarker) encode() (uint32, uint32) {
	return tagParticleMarker, uint32(m.Source)<<16 | uint32(m.Index)
}
func (m EntityMarker) encode() (uint32, uint32) { return tagEntityMarker, uint32(m) }

// Encode packs a target into its picker value.
//
// Parameters:
//   - target: the target to encode
//
// Returns:
//   - uint64: tag in the high word, payload in the low word
func Encode(target Target) uint64 {
	tag, payload := target.encode()
	return uint64(tag)<<32 | uint64(payload)
}

// Decode unpacks a picker value.
//
// Parameters:
//   - value: the value read back from the picker attachment
//
// Returns:
//   - Target: the decoded target
//   - bool: false if the value is 0 or carries an unknown tag
func Decode(value uint64) (Target, bool) {
	tag := uint32(value >> 32)
	payload := uint32(value)
	switch tag {
	case tagTile:
		return Tile{X: uint16(payload >> 16), Y: uint16(payload)}, true
	case tagEntity:
		return Entity(payload), true
	case tagObjectMarker:
		return ObjectMarker(payload), true
	case tagLightSourceMarker:
		return LightSourceMarker(payload), true
	case tagSoundSourceMarker:
		return SoundSourceMarker(payload), true
	case tagEffectSourceMarker:
		return EffectSourceMarker(payload), true
	case tagParticleMarker:
		return ParticleMarker{Source: uint16(payload >> 16), Index: uint16(payload)}, true
	case tagEntityMarker:
		return EntityMarker(payload), true
	default:
		return nil, false
	}
}

// Split returns the low and high 32-bit words of an encoded target, the layout used by instance buffers.
func Split(value uint64) (low, high uint32) {
	return uint32(value), uint32(value >> 32)
}
