package weave

// KeyCode is the canonical, typed key identity used for pattern matching
// (spec §4.6 "key exposes canonical keycodes"), grounded in original_source's
// crossterm-derived KeyCodeKind.
type KeyCode uint8

const (
	KeyUnknown KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyInsert
	KeyEnter
	KeyEscape
	KeyTab
	KeyBackTab
	KeyBackspace
	KeyDelete
	KeyChar
	KeyFunction
	KeyMedia
)

// MediaKey enumerates the media keys a terminal can report.
type MediaKey uint8

const (
	MediaNone MediaKey = iota
	MediaPlay
	MediaPause
	MediaPlayPause
	MediaStop
	MediaNext
	MediaPrevious
	MediaVolumeUp
	MediaVolumeDown
	MediaVolumeMute
)

// Key is the input handler's view of one keypress: a canonical code plus
// boolean conveniences for the keys components check most often (spec §4.6).
type Key struct {
	Code      KeyCode
	Character rune // valid when Code == KeyChar
	Function  uint8
	Media     MediaKey

	UpArrow, DownArrow, LeftArrow, RightArrow bool
	PageUp, PageDown, Home, End, Insert       bool
	Return, Escape, Tab, Backspace, Delete    bool
	Space                                     bool

	F1, F2, F3, F4, F5, F6 bool
	F7, F8, F9, F10, F11, F12 bool

	Ctrl, Shift, Alt, Meta bool

	MediaPlay, MediaPause, MediaPlayPause, MediaStop bool
	MediaNext, MediaPrevious                         bool
	VolumeUp, VolumeDown, VolumeMute                  bool
}

// Is reports whether the key's canonical code matches.
func (k Key) Is(code KeyCode) bool { return k.Code == code }

// IsChar reports whether the key is exactly the given character.
func (k Key) IsChar(c rune) bool { return k.Code == KeyChar && k.Character == c }

// newKey builds a Key from a canonical code, the raw rune (the character for
// KeyChar), the function number (for KeyFunction), the media key, and modifier
// flags. It derives every boolean convenience field from those inputs (code,
// plus the character for Space, the function number for F1-F12 and the media
// key for the media fields), mirroring original_source's Key::from_event
// field-by-field derivation.
func newKey(code KeyCode, character rune, fn uint8, media MediaKey, ctrl, shift, alt, meta bool) Key {
	k := Key{Code: code, Character: character, Function: fn, Media: media, Ctrl: ctrl, Shift: shift, Alt: alt, Meta: meta}

	k.UpArrow = code == KeyUp
	k.DownArrow = code == KeyDown
	k.LeftArrow = code == KeyLeft
	k.RightArrow = code == KeyRight

	k.PageUp = code == KeyPageUp
	k.PageDown = code == KeyPageDown
	k.Home = code == KeyHome
	k.End = code == KeyEnd
	k.Insert = code == KeyInsert

	k.Return = code == KeyEnter
	k.Escape = code == KeyEscape
	k.Tab = code == KeyTab || code == KeyBackTab
	k.Backspace = code == KeyBackspace
	k.Delete = code == KeyDelete
	k.Space = code == KeyChar && character == ' '

	if code == KeyFunction {
		switch fn {
		case 1:
			k.F1 = true
		case 2:
			k.F2 = true
		case 3:
			k.F3 = true
		case 4:
			k.F4 = true
		case 5:
			k.F5 = true
		case 6:
			k.F6 = true
		case 7:
			k.F7 = true
		case 8:
			k.F8 = true
		case 9:
			k.F9 = true
		case 10:
			k.F10 = true
		case 11:
			k.F11 = true
		case 12:
			k.F12 = true
		}
	}

	if code == KeyMedia {
		k.MediaPlay = media == MediaPlay
		k.MediaPause = media == MediaPause
		k.MediaPlayPause = media == MediaPlayPause
		k.MediaStop = media == MediaStop
		k.MediaNext = media == MediaNext
		k.MediaPrevious = media == MediaPrevious
		k.VolumeUp = media == MediaVolumeUp
		k.VolumeDown = media == MediaVolumeDown
		k.VolumeMute = media == MediaVolumeMute
	}

	return k
}

// charFromKey returns the text an input handler receives alongside Key: the
// literal character for KeyChar, else empty (original_source's char_from_event).
func charFromKey(k Key) string {
	if k.Code == KeyChar {
		return string(k.Character)
	}
	return ""
}
