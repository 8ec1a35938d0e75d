package capture

import (
	"unicode"

	evdev "github.com/holoplot/go-evdev"
)

const (
	valueUp     int32 = 0
	valueDown   int32 = 1
	valueRepeat int32 = 2
)

type keyChar struct {
	normal  string
	shifted string
}

var printable = map[evdev.EvCode]keyChar{
	evdev.KEY_A: {"a", "A"}, evdev.KEY_B: {"b", "B"},
	evdev.KEY_C: {"c", "C"}, evdev.KEY_D: {"d", "D"},
	evdev.KEY_E: {"e", "E"}, evdev.KEY_F: {"f", "F"},
	evdev.KEY_G: {"g", "G"}, evdev.KEY_H: {"h", "H"},
	evdev.KEY_I: {"i", "I"}, evdev.KEY_J: {"j", "J"},
	evdev.KEY_K: {"k", "K"}, evdev.KEY_L: {"l", "L"},
	evdev.KEY_M: {"m", "M"}, evdev.KEY_N: {"n", "N"},
	evdev.KEY_O: {"o", "O"}, evdev.KEY_P: {"p", "P"},
	evdev.KEY_Q: {"q", "Q"}, evdev.KEY_R: {"r", "R"},
	evdev.KEY_S: {"s", "S"}, evdev.KEY_T: {"t", "T"},
	evdev.KEY_U: {"u", "U"}, evdev.KEY_V: {"v", "V"},
	evdev.KEY_W: {"w", "W"}, evdev.KEY_X: {"x", "X"},
	evdev.KEY_Y: {"y", "Y"}, evdev.KEY_Z: {"z", "Z"},

	evdev.KEY_1: {"1", "!"}, evdev.KEY_2: {"2", "@"},
	evdev.KEY_3: {"3", "#"}, evdev.KEY_4: {"4", "$"},
	evdev.KEY_5: {"5", "%"}, evdev.KEY_6: {"6", "^"},
	evdev.KEY_7: {"7", "&"}, evdev.KEY_8: {"8", "*"},
	evdev.KEY_9: {"9", "("}, evdev.KEY_0: {"0", ")"},

	evdev.KEY_MINUS:      {"-", "_"},
	evdev.KEY_EQUAL:      {"=", "+"},
	evdev.KEY_LEFTBRACE:  {"[", "{"},
	evdev.KEY_RIGHTBRACE: {"]", "}"},
	evdev.KEY_SEMICOLON:  {";", ":"},
	evdev.KEY_APOSTROPHE: {"'", "\""},
	evdev.KEY_GRAVE:      {"`", "~"},
	evdev.KEY_BACKSLASH:  {"\\", "|"},
	evdev.KEY_COMMA:      {",", "<"},
	evdev.KEY_DOT:        {".", ">"},
	evdev.KEY_SLASH:      {"/", "?"},
}

// special key names, sent as "Key.<name>"
var special = map[evdev.EvCode]string{
	evdev.KEY_ESC:        "esc",
	evdev.KEY_BACKSPACE:  "backspace",
	evdev.KEY_TAB:        "tab",
	evdev.KEY_ENTER:      "enter",
	evdev.KEY_KPENTER:    "enter",
	evdev.KEY_SPACE:      "space",
	evdev.KEY_LEFTSHIFT:  "shift",
	evdev.KEY_RIGHTSHIFT: "shift_r",
	evdev.KEY_LEFTCTRL:   "ctrl",
	evdev.KEY_RIGHTCTRL:  "ctrl_r",
	evdev.KEY_LEFTALT:    "alt",
	evdev.KEY_RIGHTALT:   "alt_r",
	evdev.KEY_LEFTMETA:   "cmd",
	evdev.KEY_RIGHTMETA:  "cmd_r",
	evdev.KEY_CAPSLOCK:   "caps_lock",
	evdev.KEY_NUMLOCK:    "num_lock",
	evdev.KEY_SCROLLLOCK: "scroll_lock",
	evdev.KEY_UP:         "up",
	evdev.KEY_DOWN:       "down",
	evdev.KEY_LEFT:       "left",
	evdev.KEY_RIGHT:      "right",
	evdev.KEY_HOME:       "home",
	evdev.KEY_END:        "end",
	evdev.KEY_PAGEUP:     "page_up",
	evdev.KEY_PAGEDOWN:   "page_down",
	evdev.KEY_INSERT:     "insert",
	evdev.KEY_DELETE:     "delete",
	evdev.KEY_MENU:       "menu",
	evdev.KEY_PAUSE:      "pause",
	evdev.KEY_SYSRQ:      "print_screen",
	evdev.KEY_F1:         "f1",
	evdev.KEY_F2:         "f2",
	evdev.KEY_F3:         "f3",
	evdev.KEY_F4:         "f4",
	evdev.KEY_F5:         "f5",
	evdev.KEY_F6:         "f6",
	evdev.KEY_F7:         "f7",
	evdev.KEY_F8:         "f8",
	evdev.KEY_F9:         "f9",
	evdev.KEY_F10:        "f10",
	evdev.KEY_F11:        "f11",
	evdev.KEY_F12:        "f12",
}

// Translator names raw EV_KEY transitions. It tracks shift and caps lock so
// that letters come out in the case the user typed. Not safe for concurrent
// use.
type Translator struct {
	leftShift  bool
	rightShift bool
	capsLock   bool
}

// Translate returns the event for one EV_KEY transition. Autorepeat and
// unnamed keys report false.
func (t *Translator) Translate(code evdev.EvCode, value int32) (Event, bool) {
	if value == valueRepeat {
		return Event{}, false
	}
	down := value == valueDown
	edge := Released
	if down {
		edge = Pressed
	}

	switch code {
	case evdev.KEY_LEFTSHIFT:
		t.leftShift = down
	case evdev.KEY_RIGHTSHIFT:
		t.rightShift = down
	case evdev.KEY_CAPSLOCK:
		if down {
			t.capsLock = !t.capsLock
		}
	}

	if name, ok := special[code]; ok {
		return Event{Key: "Key." + name, Special: true, Edge: edge}, true
	}
	if kc, ok := printable[code]; ok {
		return Event{Key: t.char(kc), Edge: edge}, true
	}
	return Event{}, false
}

func (t *Translator) char(kc keyChar) string {
	shift := t.leftShift || t.rightShift
	if t.capsLock && unicode.IsLetter(rune(kc.normal[0])) {
		shift = !shift
	}
	if shift {
		return kc.shifted
	}
	return kc.normal
}
