package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"lautenbacher.net/golight/color"
)

var (
	// ErrErased means the page was never written.
	ErrErased = errors.New("flash page is erased")
	// ErrCorrupt means the page holds something that is not a valid state.
	ErrCorrupt = errors.New("flash page is corrupt")
)

const erased = 0xFFFFFFFF

// Codec converts a State to the bytes of a flash page and back.
type Codec interface {
	Name() string
	// Size is the number of bytes Encode produces.
	Size() int
	Encode(State) []byte
	Decode([]byte) (State, error)
}

// ParseCodec maps the configuration names "packed" and "record".
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "record":
		return Record{}, nil
	case "packed":
		return Packed{}, nil
	}
	return nil, fmt.Errorf("unknown storage format %q", name)
}

func packWord(c color.HSV) uint32 {
	return uint32(c.H)<<16 | uint32(c.S)<<8 | uint32(c.V)
}

// unpackWord repairs a word read from flash: a hue out of
// range restarts at red, saturation and value saturate.
func unpackWord(w uint32) color.HSV {
	h := uint16(w >> 16)
	s := uint8(w >> 8)
	v := uint8(w)
	if h > color.MaxHue {
		h = 0
	}
	if s > color.MaxSV {
		s = color.MaxSV
	}
	if v > color.MaxSV {
		v = color.MaxSV
	}
	return color.HSV{H: h, S: s, V: v}
}

// Packed stores only the active color in a single 32 bit word. Presets are
// not persisted in this format and start empty after every boot.
type Packed struct{}

func (Packed) Name() string { return "packed" }

func (Packed) Size() int { return 4 }

func (Packed) Encode(s State) []byte {
	return binary.LittleEndian.AppendUint32(nil, packWord(s.Active))
}

func (Packed) Decode(b []byte) (State, error) {
	if len(b) < 4 {
		return State{}, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(b))
	}
	w := binary.LittleEndian.Uint32(b)
	if w == erased {
		return State{}, ErrErased
	}
	return State{Active: unpackWord(w)}, nil
}

const (
	slotNameLen = NameLen + 1
	slotLen     = slotNameLen + 4
	recordLen   = 8 + Capacity*slotLen
)

// Record stores the active color, the preset count and all ten preset slots:
//
//	0   active color word
//	4   count
//	8   10 x { name [12]byte NUL padded, color word }
type Record struct{}

func (Record) Name() string { return "record" }

func (Record) Size() int { return recordLen }

func (Record) Encode(s State) []byte {
	b := make([]byte, recordLen)
	binary.LittleEndian.PutUint32(b[0:], packWord(s.Active))
	n := min(len(s.Presets), Capacity)
	binary.LittleEndian.PutUint32(b[4:], uint32(n))
	for i, e := range s.Presets[:n] {
		slot := b[8+i*slotLen:]
		copy(slot[:NameLen], TruncateName(e.Name))
		binary.LittleEndian.PutUint32(slot[slotNameLen:], packWord(e.Color))
	}
	return b
}

func (Record) Decode(b []byte) (State, error) {
	if len(b) >= 4 && binary.LittleEndian.Uint32(b) == erased {
		return State{}, ErrErased
	}
	if len(b) < recordLen {
		return State{}, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(b))
	}
	count := binary.LittleEndian.Uint32(b[4:])
	if count > Capacity {
		return State{}, fmt.Errorf("%w: preset count %d", ErrCorrupt, count)
	}
	s := State{
		Active:  unpackWord(binary.LittleEndian.Uint32(b)),
		Presets: make([]Entry, 0, count),
	}
	for i := range int(count) {
		slot := b[8+i*slotLen:]
		name := slot[:NameLen]
		if end := indexNUL(name); end >= 0 {
			name = name[:end]
		}
		s.Presets = append(s.Presets, Entry{
			Name:  string(name),
			Color: unpackWord(binary.LittleEndian.Uint32(slot[slotNameLen:])),
		})
	}
	return s, nil
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

// TruncateName cuts name to NameLen bytes without splitting a character.
func TruncateName(name string) string {
	if len(name) <= NameLen {
		return name
	}
	cut := NameLen
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}
