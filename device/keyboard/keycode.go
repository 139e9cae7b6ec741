package keyboard

// KeyCode identifies a physical key independently of the active layout.
type KeyCode uint8

// The keys of a US 104-key keyboard.
const (
	KeyUnknown KeyCode = iota
	KeyEscape
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	Key0
	KeyMinus
	KeyEquals
	KeyBackspace
	KeyTab
	KeyQ
	KeyW
	KeyE
	KeyR
	KeyT
	KeyY
	KeyU
	KeyI
	KeyO
	KeyP
	KeyBracketLeft
	KeyBracketRight
	KeyEnter
	KeyLeftControl
	KeyA
	KeyS
	KeyD
	KeyF
	KeyG
	KeyH
	KeyJ
	KeyK
	KeyL
	KeySemicolon
	KeyQuote
	KeyBacktick
	KeyLeftShift
	KeyBackslash
	KeyZ
	KeyX
	KeyC
	KeyV
	KeyB
	KeyN
	KeyM
	KeyComma
	KeyPeriod
	KeySlash
	KeyRightShift
	KeyNumpadStar
	KeyLeftAlt
	KeySpace
	KeyCapsLock
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyNumLock
	KeyScrollLock
	KeyNumpad7
	KeyNumpad8
	KeyNumpad9
	KeyNumpadMinus
	KeyNumpad4
	KeyNumpad5
	KeyNumpad6
	KeyNumpadPlus
	KeyNumpad1
	KeyNumpad2
	KeyNumpad3
	KeyNumpad0
	KeyNumpadPeriod
	KeyF11
	KeyF12
	KeyNumpadEnter
	KeyRightControl
	KeyNumpadSlash
	KeyRightAlt
	KeyHome
	KeyArrowUp
	KeyPageUp
	KeyArrowLeft
	KeyArrowRight
	KeyEnd
	KeyArrowDown
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyLeftWin
	KeyRightWin
	KeyApps

	keyCount
)

// keyInfo describes the name of a key and the characters it produces on a
// US layout without and with shift. Keys that do not produce a character
// have zero runes.
type keyInfo struct {
	name         string
	lower, upper rune
}

var keyTable = [keyCount]keyInfo{
	KeyUnknown:      {"Unknown", 0, 0},
	KeyEscape:       {"Escape", 0x1b, 0x1b},
	Key1:            {"Key1", '1', '!'},
	Key2:            {"Key2", '2', '@'},
	Key3:            {"Key3", '3', '#'},
	Key4:            {"Key4", '4', '$'},
	Key5:            {"Key5", '5', '%'},
	Key6:            {"Key6", '6', '^'},
	Key7:            {"Key7", '7', '&'},
	Key8:            {"Key8", '8', '*'},
	Key9:            {"Key9", '9', '('},
	Key0:            {"Key0", '0', ')'},
	KeyMinus:        {"Minus", '-', '_'},
	KeyEquals:       {"Equals", '=', '+'},
	KeyBackspace:    {"Backspace", 0x08, 0x08},
	KeyTab:          {"Tab", '\t', '\t'},
	KeyQ:            {"Q", 'q', 'Q'},
	KeyW:            {"W", 'w', 'W'},
	KeyE:            {"E", 'e', 'E'},
	KeyR:            {"R", 'r', 'R'},
	KeyT:            {"T", 't', 'T'},
	KeyY:            {"Y", 'y', 'Y'},
	KeyU:            {"U", 'u', 'U'},
	KeyI:            {"I", 'i', 'I'},
	KeyO:            {"O", 'o', 'O'},
	KeyP:            {"P", 'p', 'P'},
	KeyBracketLeft:  {"BracketLeft", '[', '{'},
	KeyBracketRight: {"BracketRight", ']', '}'},
	KeyEnter:        {"Enter", '\n', '\n'},
	KeyLeftControl:  {"LeftControl", 0, 0},
	KeyA:            {"A", 'a', 'A'},
	KeyS:            {"S", 's', 'S'},
	KeyD:            {"D", 'd', 'D'},
	KeyF:            {"F", 'f', 'F'},
	KeyG:            {"G", 'g', 'G'},
	KeyH:            {"H", 'h', 'H'},
	KeyJ:            {"J", 'j', 'J'},
	KeyK:            {"K", 'k', 'K'},
	KeyL:            {"L", 'l', 'L'},
	KeySemicolon:    {"Semicolon", ';', ':'},
	KeyQuote:        {"Quote", '\'', '"'},
	KeyBacktick:     {"Backtick", '`', '~'},
	KeyLeftShift:    {"LeftShift", 0, 0},
	KeyBackslash:    {"Backslash", '\\', '|'},
	KeyZ:            {"Z", 'z', 'Z'},
	KeyX:            {"X", 'x', 'X'},
	KeyC:            {"C", 'c', 'C'},
	KeyV:            {"V", 'v', 'V'},
	KeyB:            {"B", 'b', 'B'},
	KeyN:            {"N", 'n', 'N'},
	KeyM:            {"M", 'm', 'M'},
	KeyComma:        {"Comma", ',', '<'},
	KeyPeriod:       {"Period", '.', '>'},
	KeySlash:        {"Slash", '/', '?'},
	KeyRightShift:   {"RightShift", 0, 0},
	KeyNumpadStar:   {"NumpadStar", '*', '*'},
	KeyLeftAlt:      {"LeftAlt", 0, 0},
	KeySpace:        {"Space", ' ', ' '},
	KeyCapsLock:     {"CapsLock", 0, 0},
	KeyF1:           {"F1", 0, 0},
	KeyF2:           {"F2", 0, 0},
	KeyF3:           {"F3", 0, 0},
	KeyF4:           {"F4", 0, 0},
	KeyF5:           {"F5", 0, 0},
	KeyF6:           {"F6", 0, 0},
	KeyF7:           {"F7", 0, 0},
	KeyF8:           {"F8", 0, 0},
	KeyF9:           {"F9", 0, 0},
	KeyF10:          {"F10", 0, 0},
	KeyNumLock:      {"NumLock", 0, 0},
	KeyScrollLock:   {"ScrollLock", 0, 0},
	KeyNumpad7:      {"Numpad7", '7', '7'},
	KeyNumpad8:      {"Numpad8", '8', '8'},
	KeyNumpad9:      {"Numpad9", '9', '9'},
	KeyNumpadMinus:  {"NumpadMinus", '-', '-'},
	KeyNumpad4:      {"Numpad4", '4', '4'},
	KeyNumpad5:      {"Numpad5", '5', '5'},
	KeyNumpad6:      {"Numpad6", '6', '6'},
	KeyNumpadPlus:   {"NumpadPlus", '+', '+'},
	KeyNumpad1:      {"Numpad1", '1', '1'},
	KeyNumpad2:      {"Numpad2", '2', '2'},
	KeyNumpad3:      {"Numpad3", '3', '3'},
	KeyNumpad0:      {"Numpad0", '0', '0'},
	KeyNumpadPeriod: {"NumpadPeriod", '.', '.'},
	KeyF11:          {"F11", 0, 0},
	KeyF12:          {"F12", 0, 0},
	KeyNumpadEnter:  {"NumpadEnter", '\n', '\n'},
	KeyRightControl: {"RightControl", 0, 0},
	KeyNumpadSlash:  {"NumpadSlash", '/', '/'},
	KeyRightAlt:     {"RightAlt", 0, 0},
	KeyHome:         {"Home", 0, 0},
	KeyArrowUp:      {"ArrowUp", 0, 0},
	KeyPageUp:       {"PageUp", 0, 0},
	KeyArrowLeft:    {"ArrowLeft", 0, 0},
	KeyArrowRight:   {"ArrowRight", 0, 0},
	KeyEnd:          {"End", 0, 0},
	KeyArrowDown:    {"ArrowDown", 0, 0},
	KeyPageDown:     {"PageDown", 0, 0},
	KeyInsert:       {"Insert", 0, 0},
	KeyDelete:       {"Delete", 0x7f, 0x7f},
	KeyLeftWin:      {"LeftWin", 0, 0},
	KeyRightWin:     {"RightWin", 0, 0},
	KeyApps:         {"Apps", 0, 0},
}

// String returns the name of the key.
func (k KeyCode) String() string {
	if k >= keyCount {
		return keyTable[KeyUnknown].name
	}
	return keyTable[k].name
}

func (k KeyCode) isNumpad() bool {
	return k >= KeyNumpad7 && k <= KeyNumpadPeriod && k != KeyNumpadMinus && k != KeyNumpadPlus
}

func (k KeyCode) isLetter() bool {
	lower := keyTable[k].lower
	return lower >= 'a' && lower <= 'z'
}
