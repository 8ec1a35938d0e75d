package keymap

import evdev "github.com/holoplot/go-evdev"

const (
	ProfileJoystick = "joystick"
	ProfileArcade   = "arcade"
	ProfileTest     = "test"
	ProfileTest2    = "test2"

	DefaultProfile = ProfileJoystick
)

// Names follow what the capture client sends: printable keys as their
// character, special keys as "Key.<name>". Lookup upper-cases both sides.

var joystickKeys = map[string]KeyCode{
	"A":           evdev.KEY_A,
	"Z":           evdev.KEY_B,
	"S":           evdev.KEY_X,
	"D":           evdev.KEY_Y,
	"1":           evdev.KEY_1, // player 1
	"2":           evdev.KEY_2, // player 2
	"KEY.ENTER":   evdev.KEY_ENTER,
	"KEY.SPACE":   evdev.KEY_SPACE,
	"C":           evdev.KEY_C, // insert coin
	"KEY.LEFT":    evdev.KEY_LEFT,
	"KEY.RIGHT":   evdev.KEY_RIGHT,
	"KEY.UP":      evdev.KEY_UP,
	"KEY.DOWN":    evdev.KEY_DOWN,
	"KEY.F4":      evdev.KEY_F4,
	"KEY.SHIFT":   evdev.KEY_LEFTSHIFT,  // load state
	"KEY.SHIFT_R": evdev.KEY_RIGHTSHIFT, // save state
}

// arcadeKeys uses symbolic button names instead of keyboard names.
var arcadeKeys = map[string]KeyCode{
	"A":      evdev.KEY_A,
	"B":      evdev.KEY_B,
	"X":      evdev.KEY_X,
	"Y":      evdev.KEY_Y,
	"P1":     evdev.KEY_1,
	"P2":     evdev.KEY_2,
	"START":  evdev.KEY_ENTER,
	"SELECT": evdev.KEY_SPACE,
	"COIN":   evdev.KEY_C,
	"LEFT":   evdev.KEY_LEFT,
	"RIGHT":  evdev.KEY_RIGHT,
	"UP":     evdev.KEY_UP,
	"DOWN":   evdev.KEY_DOWN,
}

var testKeys = map[string]KeyCode{
	"A":             evdev.BTN_A,
	"Z":             evdev.BTN_B,
	"C":             evdev.BTN_C,
	"S":             evdev.BTN_X,
	"D":             evdev.BTN_Y,
	"W":             evdev.BTN_Z,
	"KEY.SHIFT":     evdev.BTN_TL,
	"KEY.SHIFT_R":   evdev.BTN_TR,
	"KEY.CAPS_LOCK": evdev.BTN_TL2,
	"`":             evdev.BTN_TR2,
	"KEY.CMD":       evdev.BTN_SELECT,
	"KEY.CMD_R":     evdev.BTN_START,
	"M":             evdev.BTN_MODE,
	"KEY.ALT":       evdev.BTN_THUMBL,
	"KEY.ALT_R":     evdev.BTN_THUMBR,
}

var test2Keys = map[string]KeyCode{
	"A":             evdev.BTN_A,
	"Z":             evdev.BTN_Z,
	"S":             evdev.BTN_X,
	"D":             evdev.BTN_Y,
	"KEY.SHIFT":     evdev.BTN_TL,
	"KEY.CAPS_LOCK": evdev.BTN_TL2,
	"KEY.SHIFT_R":   evdev.BTN_TR,
	"`":             evdev.BTN_TR2,
	"1":             evdev.BTN_1,
	"2":             evdev.BTN_2,
	"KEY.ENTER":     evdev.BTN_START,
	"KEY.SPACE":     evdev.BTN_SELECT,
	"M":             evdev.BTN_MODE,
	"KEY.CMD":       evdev.BTN_THUMBL,
	"KEY.CMD_R":     evdev.BTN_THUMBR,
	"C":             evdev.BTN_C,
	"KEY.LEFT":      evdev.BTN_DPAD_LEFT,
	"KEY.RIGHT":     evdev.BTN_DPAD_RIGHT,
	"KEY.UP":        evdev.BTN_DPAD_UP,
	"KEY.DOWN":      evdev.BTN_DPAD_DOWN,
	"KEY.F4":        evdev.KEY_F4,
}

func builtinProfiles() []*Table {
	return []*Table{
		NewTable(ProfileJoystick, joystickKeys),
		NewTable(ProfileArcade, arcadeKeys),
		NewTable(ProfileTest, testKeys),
		NewTable(ProfileTest2, test2Keys),
	}
}
