package weave

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// EventType tags a decoded terminal event.
type EventType uint8

const (
	EventKey EventType = iota
	EventMouse
	EventPaste
	EventResize
)

// Event is one decoded terminal event flowing through the filter chain into
// the dispatchers.
type Event struct {
	Type  EventType
	Text  string
	Key   Key
	Mouse MouseEvent
	Paste string

	Width, Height int // EventResize
}

func keyEvent(k Key) Event { return Event{Type: EventKey, Key: k, Text: charFromKey(k)} }

// decodeInput parses raw terminal bytes into events, returning any trailing
// incomplete escape sequence as the remainder for the next read.
func decodeInput(data []byte) ([]Event, []byte) {
	var events []Event
	for len(data) > 0 {
		ev, consumed, incomplete := decodeOne(data)
		if incomplete {
			// A lone ESC at the end of a read could be the start of a
			// sequence; wait for more bytes.
			return events, data
		}
		if consumed == 0 {
			consumed = 1
		}
		if ev != nil {
			events = append(events, *ev)
		}
		data = data[consumed:]
	}
	return events, nil
}

// decodeOne decodes the first event in data. incomplete means the bytes
// look like a prefix of a longer sequence.
func decodeOne(data []byte) (ev *Event, consumed int, incomplete bool) {
	b := data[0]

	if b == 0x1b {
		return decodeEscape(data)
	}

	// Control characters.
	switch {
	case b == '\r' || b == '\n':
		e := keyEvent(newKey(KeyEnter, 0, 0, MediaNone, false, false, false, false))
		return &e, 1, false
	case b == '\t':
		e := keyEvent(newKey(KeyTab, 0, 0, MediaNone, false, false, false, false))
		return &e, 1, false
	case b == 0x7f || b == 0x08:
		e := keyEvent(newKey(KeyBackspace, 0, 0, MediaNone, false, false, false, false))
		return &e, 1, false
	case b < 0x20:
		// Ctrl+letter: 0x01..0x1a map back to 'a'..'z'.
		e := keyEvent(newKey(KeyChar, rune('a'+b-1), 0, MediaNone, true, false, false, false))
		return &e, 1, false
	}

	r, size := utf8.DecodeRune(data)
	if r == utf8.RuneError && size == 1 && !utf8.FullRune(data) {
		return nil, 0, true
	}
	e := keyEvent(newKey(KeyChar, r, 0, MediaNone, false, false, false, false))
	return &e, size, false
}

// decodeEscape handles ESC-led sequences: CSI keys, SS3 function keys, SGR
// mouse, bracketed paste, and alt+char.
func decodeEscape(data []byte) (*Event, int, bool) {
	if len(data) == 1 {
		return nil, 0, true
	}

	switch data[1] {
	case '[':
		return decodeCSI(data)
	case 'O':
		if len(data) < 3 {
			return nil, 0, true
		}
		// SS3: F1-F4.
		if fn := int(data[2] - 'P' + 1); fn >= 1 && fn <= 4 {
			e := keyEvent(newKey(KeyFunction, 0, uint8(fn), MediaNone, false, false, false, false))
			return &e, 3, false
		}
		return nil, 3, false
	default:
		// Alt+char (including alt+ctrl via the control byte).
		ev, consumed, incomplete := decodeOne(data[1:])
		if incomplete {
			return nil, 0, true
		}
		if ev != nil && ev.Type == EventKey {
			ev.Key.Alt = true
			e := *ev
			return &e, consumed + 1, false
		}
		// Lone ESC.
		e := keyEvent(newKey(KeyEscape, 0, 0, MediaNone, false, false, false, false))
		return &e, 1, false
	}
}

// decodeCSI parses ESC [ sequences.
func decodeCSI(data []byte) (*Event, int, bool) {
	// Find the final byte (0x40-0x7e).
	end := -1
	for i := 2; i < len(data); i++ {
		if data[i] >= 0x40 && data[i] <= 0x7e {
			end = i
			break
		}
	}
	if end < 0 {
		if len(data) > 32 {
			// Garbage; drop the ESC and resync.
			return nil, 1, false
		}
		return nil, 0, true
	}

	body := data[2:end]
	final := data[end]
	consumed := end + 1

	// SGR mouse: ESC [ < b ; x ; y (M|m)
	if len(body) > 0 && body[0] == '<' && (final == 'M' || final == 'm') {
		if ev := decodeSGRMouse(body[1:], final == 'M'); ev != nil {
			return ev, consumed, false
		}
		return nil, consumed, false
	}

	// Bracketed paste: ESC [ 200 ~ ... ESC [ 201 ~
	if final == '~' && string(body) == "200" {
		terminator := []byte("\x1b[201~")
		rest := data[consumed:]
		idx := bytes.Index(rest, terminator)
		if idx < 0 {
			return nil, 0, true
		}
		e := Event{Type: EventPaste, Paste: string(rest[:idx])}
		return &e, consumed + idx + len(terminator), false
	}

	params := parseCSIParams(body)
	ctrl, shift, alt, meta := csiModifiers(params)

	mk := func(code KeyCode, fn uint8) (*Event, int, bool) {
		e := keyEvent(newKey(code, 0, fn, MediaNone, ctrl, shift, alt, meta))
		return &e, consumed, false
	}

	switch final {
	case 'A':
		return mk(KeyUp, 0)
	case 'B':
		return mk(KeyDown, 0)
	case 'C':
		return mk(KeyRight, 0)
	case 'D':
		return mk(KeyLeft, 0)
	case 'H':
		return mk(KeyHome, 0)
	case 'F':
		return mk(KeyEnd, 0)
	case 'Z':
		e := keyEvent(newKey(KeyBackTab, 0, 0, MediaNone, ctrl, true, alt, meta))
		return &e, consumed, false
	case 'P', 'Q', 'R', 'S':
		return mk(KeyFunction, uint8(final-'P'+1))
	case '~':
		if len(params) == 0 {
			return nil, consumed, false
		}
		switch params[0] {
		case 1, 7:
			return mk(KeyHome, 0)
		case 2:
			return mk(KeyInsert, 0)
		case 3:
			return mk(KeyDelete, 0)
		case 4, 8:
			return mk(KeyEnd, 0)
		case 5:
			return mk(KeyPageUp, 0)
		case 6:
			return mk(KeyPageDown, 0)
		case 11, 12, 13, 14, 15:
			return mk(KeyFunction, uint8(params[0]-10))
		case 17, 18, 19, 20, 21:
			return mk(KeyFunction, uint8(params[0]-11))
		case 23, 24:
			return mk(KeyFunction, uint8(params[0]-12))
		}
		return nil, consumed, false
	}
	return nil, consumed, false
}

// parseCSIParams splits a semicolon-separated numeric parameter list.
func parseCSIParams(body []byte) []int {
	if len(body) == 0 {
		return nil
	}
	var params []int
	for _, part := range bytes.Split(body, []byte{';'}) {
		n, err := strconv.Atoi(string(part))
		if err != nil {
			continue
		}
		params = append(params, n)
	}
	return params
}

// csiModifiers extracts xterm modifier encoding: the second parameter is
// 1 + bitfield(shift=1, alt=2, ctrl=4, meta=8).
func csiModifiers(params []int) (ctrl, shift, alt, meta bool) {
	if len(params) < 2 {
		return
	}
	m := params[1] - 1
	return m&4 != 0, m&1 != 0, m&2 != 0, m&8 != 0
}

// decodeSGRMouse parses the body of an SGR 1006 mouse report.
func decodeSGRMouse(body []byte, press bool) *Event {
	params := parseCSIParams(body)
	if len(params) < 3 {
		return nil
	}
	btn := params[0]
	ev := MouseEvent{
		X:      params[1] - 1,
		Y:      params[2] - 1,
		Button: btn & 0x3,
		Press:  press,
		Motion: btn&32 != 0,
	}
	if btn&64 != 0 {
		if btn&1 == 0 {
			ev.WheelUp = true
		} else {
			ev.WheelDn = true
		}
	}
	return &Event{Type: EventMouse, Mouse: ev}
}
