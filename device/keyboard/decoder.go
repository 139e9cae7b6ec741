// Package keyboard reads raw scancodes from the PS/2 controller and turns
// them into key events and characters.
package keyboard

import "bibos/kernel"

// KeyState indicates whether a key was pressed or released.
type KeyState uint8

// The supported key states.
const (
	KeyUp KeyState = iota
	KeyDown
)

// KeyEvent is a decoded key transition.
type KeyEvent struct {
	Code  KeyCode
	State KeyState
}

// DecodedKey is the result of processing a key event: either a Unicode
// character or, for keys that do not produce one, the raw key code.
type DecodedKey struct {
	Rune rune
	Code KeyCode
}

// IsUnicode returns true if the key produced a character.
func (k DecodedKey) IsUnicode() bool {
	return k.Rune != 0
}

// Decoder is implemented by stateful scancode decoders.
type Decoder interface {
	// AddByte feeds a raw scancode byte to the decoder. It returns a key
	// event and true once a complete scancode sequence has been received.
	AddByte(b byte) (KeyEvent, bool, *kernel.Error)

	// ProcessKeyEvent updates the modifier state using ev and returns the
	// key it produces, if any. Key releases never produce a key.
	ProcessKeyEvent(ev KeyEvent) (DecodedKey, bool)
}

const (
	extendedPrefix = 0xe0
	pausePrefix    = 0xe1
	releaseBit     = 0x80
)

var (
	errUnknownScancode = &kernel.Error{Module: "keyboard", Message: "unknown scancode"}
	errUnsupported     = &kernel.Error{Module: "keyboard", Message: "unsupported scancode sequence"}

	// set1 maps scancode set 1 make codes to keys.
	set1 = [0x59]KeyCode{
		0x01: KeyEscape, 0x02: Key1, 0x03: Key2, 0x04: Key3, 0x05: Key4,
		0x06: Key5, 0x07: Key6, 0x08: Key7, 0x09: Key8, 0x0a: Key9,
		0x0b: Key0, 0x0c: KeyMinus, 0x0d: KeyEquals, 0x0e: KeyBackspace,
		0x0f: KeyTab, 0x10: KeyQ, 0x11: KeyW, 0x12: KeyE, 0x13: KeyR,
		0x14: KeyT, 0x15: KeyY, 0x16: KeyU, 0x17: KeyI, 0x18: KeyO,
		0x19: KeyP, 0x1a: KeyBracketLeft, 0x1b: KeyBracketRight,
		0x1c: KeyEnter, 0x1d: KeyLeftControl, 0x1e: KeyA, 0x1f: KeyS,
		0x20: KeyD, 0x21: KeyF, 0x22: KeyG, 0x23: KeyH, 0x24: KeyJ,
		0x25: KeyK, 0x26: KeyL, 0x27: KeySemicolon, 0x28: KeyQuote,
		0x29: KeyBacktick, 0x2a: KeyLeftShift, 0x2b: KeyBackslash,
		0x2c: KeyZ, 0x2d: KeyX, 0x2e: KeyC, 0x2f: KeyV, 0x30: KeyB,
		0x31: KeyN, 0x32: KeyM, 0x33: KeyComma, 0x34: KeyPeriod,
		0x35: KeySlash, 0x36: KeyRightShift, 0x37: KeyNumpadStar,
		0x38: KeyLeftAlt, 0x39: KeySpace, 0x3a: KeyCapsLock, 0x3b: KeyF1,
		0x3c: KeyF2, 0x3d: KeyF3, 0x3e: KeyF4, 0x3f: KeyF5, 0x40: KeyF6,
		0x41: KeyF7, 0x42: KeyF8, 0x43: KeyF9, 0x44: KeyF10,
		0x45: KeyNumLock, 0x46: KeyScrollLock, 0x47: KeyNumpad7,
		0x48: KeyNumpad8, 0x49: KeyNumpad9, 0x4a: KeyNumpadMinus,
		0x4b: KeyNumpad4, 0x4c: KeyNumpad5, 0x4d: KeyNumpad6,
		0x4e: KeyNumpadPlus, 0x4f: KeyNumpad1, 0x50: KeyNumpad2,
		0x51: KeyNumpad3, 0x52: KeyNumpad0, 0x53: KeyNumpadPeriod,
		0x57: KeyF11, 0x58: KeyF12,
	}

	// set1Extended maps make codes that follow the 0xE0 prefix.
	set1Extended = [0x5e]KeyCode{
		0x1c: KeyNumpadEnter, 0x1d: KeyRightControl, 0x35: KeyNumpadSlash,
		0x38: KeyRightAlt, 0x47: KeyHome, 0x48: KeyArrowUp, 0x49: KeyPageUp,
		0x4b: KeyArrowLeft, 0x4d: KeyArrowRight, 0x4f: KeyEnd,
		0x50: KeyArrowDown, 0x51: KeyPageDown, 0x52: KeyInsert,
		0x53: KeyDelete, 0x5b: KeyLeftWin, 0x5c: KeyRightWin, 0x5d: KeyApps,
	}
)

// US104Set1 decodes scancode set 1 sequences using the US 104-key layout.
// Control key combinations are ignored and decode like the plain key.
type US104Set1 struct {
	extended bool

	leftShift  bool
	rightShift bool
	capsLock   bool
	numLock    bool
}

// NewUS104Set1 returns a decoder with num lock enabled.
func NewUS104Set1() *US104Set1 {
	return &US104Set1{numLock: true}
}

// AddByte implements Decoder.
func (d *US104Set1) AddByte(b byte) (KeyEvent, bool, *kernel.Error) {
	switch b {
	case extendedPrefix:
		d.extended = true
		return KeyEvent{}, false, nil
	case pausePrefix:
		d.extended = false
		return KeyEvent{}, false, errUnsupported
	}

	ev := KeyEvent{State: KeyDown}
	if b&releaseBit != 0 {
		ev.State = KeyUp
	}

	makeCode := b &^ releaseBit
	if d.extended {
		d.extended = false
		if int(makeCode) < len(set1Extended) {
			ev.Code = set1Extended[makeCode]
		}
	} else if int(makeCode) < len(set1) {
		ev.Code = set1[makeCode]
	}

	if ev.Code == KeyUnknown {
		return KeyEvent{}, false, errUnknownScancode
	}

	return ev, true, nil
}

// ProcessKeyEvent implements Decoder.
func (d *US104Set1) ProcessKeyEvent(ev KeyEvent) (DecodedKey, bool) {
	down := ev.State == KeyDown

	switch ev.Code {
	case KeyLeftShift:
		d.leftShift = down
		return DecodedKey{}, false
	case KeyRightShift:
		d.rightShift = down
		return DecodedKey{}, false
	case KeyCapsLock:
		if down {
			d.capsLock = !d.capsLock
		}
		return DecodedKey{}, false
	case KeyNumLock:
		if down {
			d.numLock = !d.numLock
		}
		return DecodedKey{}, false
	}

	if !down || ev.Code == KeyUnknown || ev.Code >= keyCount {
		return DecodedKey{}, false
	}

	info := keyTable[ev.Code]
	if info.lower == 0 || (ev.Code.isNumpad() && !d.numLock) {
		return DecodedKey{Code: ev.Code}, true
	}

	shift := d.leftShift || d.rightShift
	if ev.Code.isLetter() && d.capsLock {
		shift = !shift
	}

	if shift {
		return DecodedKey{Rune: info.upper, Code: ev.Code}, true
	}
	return DecodedKey{Rune: info.lower, Code: ev.Code}, true
}
