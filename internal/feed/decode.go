package feed

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"formpix/internal/display"
	"formpix/internal/rgb"
)

type wireSnapshot struct {
	Status          bool         `json:"status"`
	Prompt          string       `json:"prompt"`
	Polls           orderedPolls `json:"polls"`
	TotalResponders int          `json:"totalResponders"`
	Blind           bool         `json:"blind"`
	MultiRes        bool         `json:"multiRes"`
}

// orderedPolls keeps the choices in the order upstream sent them, which is
// the order they are drawn on the bar.
type orderedPolls []display.Choice

func (p *orderedPolls) UnmarshalJSON(b []byte) error {
	res := gjson.ParseBytes(b)
	if res.Type == gjson.Null {
		*p = nil
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("polls: expected an object, got %.32s", res.Raw)
	}

	var out orderedPolls
	var err error
	res.ForEach(func(key, v gjson.Result) bool {
		name := key.String()
		var color rgb.Color
		color, err = rgb.ParseText(v.Get("color").String())
		if err != nil {
			err = fmt.Errorf("poll %q: %w", name, err)
			return false
		}
		out = append(out, display.Choice{Name: name, Color: color, Responses: int(v.Get("responses").Int())})
		return true
	})
	if err != nil {
		return err
	}
	*p = out
	return nil
}

// DecodeSnapshot decodes the payload of a vbUpdate event.
func DecodeSnapshot(raw []byte) (display.Snapshot, error) {
	var w wireSnapshot
	if err := json.Unmarshal(raw, &w); err != nil {
		return display.Snapshot{}, fmt.Errorf("decode poll: %w", err)
	}
	return display.Snapshot{
		Status:          w.Status,
		Prompt:          w.Prompt,
		Choices:         w.Polls,
		TotalResponders: w.TotalResponders,
		Blind:           w.Blind,
		MultiRes:        w.MultiRes,
	}, nil
}

// DecodeTimer decodes the payload of a vbTimer event.
func DecodeTimer(raw []byte) (display.TimerState, error) {
	var w struct {
		StartTime float64 `json:"startTime"`
		TimeLeft  float64 `json:"timeLeft"`
		Active    bool    `json:"active"`
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return display.TimerState{}, fmt.Errorf("decode timer: %w", err)
	}
	return display.TimerState{StartTime: w.StartTime, TimeLeft: w.TimeLeft, Active: w.Active}, nil
}
