package display

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"formpix/internal/apperr"
	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

// PixelWrite is one entry of a setPixels request, resolved to a strip index.
type PixelWrite struct {
	Index int
	Color rgb.Color
}

const pixelsSchemaText = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["color"],
		"properties": {
			"color": {"type": ["string", "object"]},
			"pixelNumber": {"type": ["integer", "string"]},
			"x": {"type": "number"},
			"y": {"type": "number"}
		},
		"anyOf": [
			{"required": ["pixelNumber"]},
			{"required": ["x", "y"]}
		]
	}
}`

var pixelsSchema = jsonschema.MustCompileString("pixels.schema.json", pixelsSchemaText)

// ParsePixels decodes the JSON array a setPixels request carries. Each entry
// has a color and either a pixelNumber or x and y board coordinates.
func ParsePixels(g geometry.Geometry, raw string) ([]PixelWrite, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperr.Invalid("pixels", "You did not provide any pixels")
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, apperr.Invalid("pixels", "Input is not a valid JSON string")
	}
	if err := pixelsSchema.Validate(doc); err != nil {
		return nil, apperr.Invalid("pixels", "%s", schemaReason(err))
	}

	items := doc.([]any)
	writes := make([]PixelWrite, 0, len(items))
	for n, item := range items {
		entry := item.(map[string]any)
		color, err := rgb.Parse(entry["color"])
		if err != nil {
			return nil, fmt.Errorf("pixel %d: %w", n, err)
		}
		var index int
		if pn, ok := entry["pixelNumber"]; ok {
			index, err = g.PixelNumber(pn)
		} else {
			index, err = g.MapValue(entry["x"], entry["y"])
		}
		if err != nil {
			return nil, fmt.Errorf("pixel %d: %w", n, err)
		}
		writes = append(writes, PixelWrite{Index: index, Color: color})
	}
	return writes, nil
}

// schemaReason picks the innermost schema failure, which names the
// offending entry.
func schemaReason(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return fmt.Sprintf("%s: %s", ve.InstanceLocation, ve.Message)
}
