// Package rgb packs and unpacks 24-bit strip colours and parses the loose
// colour inputs the control surface accepts.
package rgb

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"formpix/internal/apperr"
)

// Color is a packed 0xRRGGBB value.
type Color uint32

// Named colours the engine uses.
const (
	Black   Color = 0x000000
	White   Color = 0xFFFFFF
	Red     Color = 0xFF0000
	Green   Color = 0x00FF00
	Blue    Color = 0x0000FF
	Cyan    Color = 0x00FFFF
	Gray    Color = 0x808080
	Orange  Color = 0xFF8000
	Magenta Color = 0xFF0080
)

// Unpack splits c into its channels.
func Unpack(c Color) (r, g, b uint8) {
	return uint8(c >> 16 & 0xFF), uint8(c >> 8 & 0xFF), uint8(c & 0xFF)
}

// Pack joins channels into a Color.
func Pack(r, g, b uint8) Color {
	return Color(r)<<16 | Color(g)<<8 | Color(b)
}

// String renders c as #RRGGBB.
func (c Color) String() string {
	s := strconv.FormatUint(uint64(c&0xFFFFFF), 16)
	return "#" + strings.ToUpper(strings.Repeat("0", 6-len(s))+s)
}

const field = "color"

// ParseText parses the text form of a colour: "#RRGGBB" or a JSON object
// such as {"r":255,"g":0,"b":0}.
func ParseText(s string) (Color, error) {
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, apperr.Invalid(field, "Input is not a valid JSON string")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return 0, apperr.Invalid(field, "Parsed value is not an object")
	}
	return parseObject(obj)
}

// Parse accepts a hex or JSON string, a decoded JSON object with
// red/green/blue or r/g/b keys, or an already packed Color.
func Parse(input any) (Color, error) {
	switch v := input.(type) {
	case Color:
		return v & 0xFFFFFF, nil
	case string:
		return ParseText(v)
	case map[string]any:
		return parseObject(v)
	case nil:
		return 0, apperr.Invalid(field, "missing color")
	default:
		return 0, apperr.Invalid(field, "Color must be a string or an object")
	}
}

func parseHex(digits string) (Color, error) {
	if len(digits) != 6 {
		return 0, apperr.Invalid(field, "Hex color must be 6 characters long")
	}
	n, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, apperr.Invalid(field, "Hex color contains a non-hex digit")
	}
	return Color(n), nil
}

var keySets = [][3]string{
	{"red", "green", "blue"},
	{"r", "g", "b"},
}

func parseObject(obj map[string]any) (Color, error) {
	for _, keys := range keySets {
		if !hasExactly(obj, keys) {
			continue
		}
		var ch [3]uint8
		for i, k := range keys {
			n, ok := channel(obj[k])
			if !ok {
				return 0, apperr.Invalid(field, "Color values must be integers between 0 and 255")
			}
			ch[i] = n
		}
		return Pack(ch[0], ch[1], ch[2]), nil
	}
	return 0, apperr.Invalid(field, "Invalid color keys")
}

func hasExactly(obj map[string]any, keys [3]string) bool {
	if len(obj) != len(keys) {
		return false
	}
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

func channel(v any) (uint8, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0, false
	}
	if f != math.Trunc(f) || f < 0 || f > 255 {
		return 0, false
	}
	return uint8(f), true
}
