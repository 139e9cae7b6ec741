package main

const (
	scancodeLeftShift = 0x2a
	releaseBit        = 0x80
)

// keyRow lists the characters produced by consecutive set 1 make codes
// starting at first, without and with shift.
type keyRow struct {
	first        byte
	lower, upper string
}

var (
	keyRows = []keyRow{
		{0x02, "1234567890-=", "!@#$%^&*()_+"},
		{0x10, "qwertyuiop[]", "QWERTYUIOP{}"},
		{0x1e, "asdfghjkl;'`", "ASDFGHJKL:\"~"},
		{0x2b, "\\zxcvbnm,./", "|ZXCVBNM<>?"},
	}

	controlKeys = map[rune]byte{
		0x1b: 0x01, // escape
		0x08: 0x0e, // backspace
		0x7f: 0x0e,
		'\t': 0x0f,
		'\r': 0x1c, // enter
		'\n': 0x1c,
		' ':  0x39,
	}

	keyMap = buildKeyMap()
)

type keyStroke struct {
	code  byte
	shift bool
}

func buildKeyMap() map[rune]keyStroke {
	m := make(map[rune]keyStroke)
	for _, row := range keyRows {
		for i := 0; i < len(row.lower); i++ {
			m[rune(row.lower[i])] = keyStroke{code: row.first + byte(i)}
			m[rune(row.upper[i])] = keyStroke{code: row.first + byte(i), shift: true}
		}
	}
	for r, code := range controlKeys {
		m[r] = keyStroke{code: code}
	}
	return m
}

// scancodes returns the set 1 make and break sequence that types r on a US
// keyboard or nil if r cannot be typed.
func scancodes(r rune) []byte {
	ks, ok := keyMap[r]
	if !ok {
		return nil
	}

	if ks.shift {
		return []byte{scancodeLeftShift, ks.code, ks.code | releaseBit, scancodeLeftShift | releaseBit}
	}
	return []byte{ks.code, ks.code | releaseBit}
}
