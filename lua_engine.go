package main

import (
	"context"
	"math"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"formpix/internal/apperr"
	"formpix/internal/display"
	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

const (
	// layerBudget bounds one layer's run inside a frame.
	layerBudget = 10 * time.Millisecond
	// scriptBudget bounds a one-shot script.
	scriptBudget = 2 * time.Second
)

// luaSurface is the strip as a script sees it, channels on the 0-255 scale.
type luaSurface interface {
	Len() int
	Get(i int) (r, g, b float64)
	Set(i int, r, g, b float64) error
}

// floatSurface is the pipeline's composite buffer.
type floatSurface []float64

func (s floatSurface) Len() int { return len(s) / 3 }

func (s floatSurface) Get(i int) (float64, float64, float64) {
	return s[i*3], s[i*3+1], s[i*3+2]
}

func (s floatSurface) Set(i int, r, g, b float64) error {
	if i < 0 || i >= s.Len() {
		return &apperr.BoundsError{Index: i, Limit: s.Len()}
	}
	s[i*3], s[i*3+1], s[i*3+2] = r, g, b
	return nil
}

// canvasSurface is the engine's strip during a Paint.
type canvasSurface struct {
	c *display.Canvas
}

func (s canvasSurface) Len() int { return s.c.Len() }

func (s canvasSurface) Get(i int) (float64, float64, float64) {
	r, g, b := rgb.Unpack(s.c.At(i))
	return float64(r), float64(g), float64(b)
}

func (s canvasSurface) Set(i int, r, g, b float64) error {
	return s.c.Set(i, rgb.Pack(uint8(math.Round(r)), uint8(math.Round(g)), uint8(math.Round(b))))
}

func clamp255(v float64) float64 {
	return math.Max(0, math.Min(255, v))
}

// setupLuaState exposes the strip and the clocks to a script.
//
//	LEDCount, BarPixels, Boards, BoardWidth, BoardHeight
//	get_time()                 seconds since the pipeline started
//	get_layer_elapsed_time()   seconds since this layer was added
//	get_pixel(i)               r, g, b as 0.0-1.0
//	set_pixel(i, r, g, b)      r, g, b as 0.0-1.0, clamped
//	fill(color, start, length) color as "#rrggbb"
//	xy(x, y)                   strip index of a board coordinate
func setupLuaState(L *lua.LState, surface luaSurface, g geometry.Geometry, pipelineTime, layerElapsedTime float64) {
	L.SetGlobal("LEDCount", lua.LNumber(surface.Len()))
	L.SetGlobal("BarPixels", lua.LNumber(g.BarLength))
	L.SetGlobal("Boards", lua.LNumber(g.Boards))
	L.SetGlobal("BoardWidth", lua.LNumber(g.Width))
	L.SetGlobal("BoardHeight", lua.LNumber(g.Height))

	L.SetGlobal("get_time", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(pipelineTime))
		return 1
	}))

	L.SetGlobal("get_layer_elapsed_time", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(layerElapsedTime))
		return 1
	}))

	L.SetGlobal("get_pixel", L.NewFunction(func(L *lua.LState) int {
		index := int(L.CheckNumber(1))
		if index < 0 || index >= surface.Len() {
			L.Push(lua.LNumber(0))
			L.Push(lua.LNumber(0))
			L.Push(lua.LNumber(0))
			return 3
		}
		r, g, b := surface.Get(index)
		L.Push(lua.LNumber(r / 255))
		L.Push(lua.LNumber(g / 255))
		L.Push(lua.LNumber(b / 255))
		return 3
	}))

	L.SetGlobal("set_pixel", L.NewFunction(func(L *lua.LState) int {
		index := int(L.CheckNumber(1))
		r := clamp255(float64(L.CheckNumber(2)) * 255)
		g := clamp255(float64(L.CheckNumber(3)) * 255)
		b := clamp255(float64(L.CheckNumber(4)) * 255)
		if err := surface.Set(index, r, g, b); err != nil {
			L.RaiseError("set_pixel: %v", err)
		}
		return 0
	}))

	L.SetGlobal("fill", L.NewFunction(func(L *lua.LState) int {
		color, err := rgb.ParseText(L.CheckString(1))
		if err != nil {
			L.RaiseError("fill: %v", err)
		}
		start := int(L.OptNumber(2, 0))
		length := int(L.OptNumber(3, lua.LNumber(surface.Len())))
		if start < 0 || start > surface.Len() || length < 0 {
			L.RaiseError("fill: span %d+%d outside the strip", start, length)
		}
		r, gr, b := rgb.Unpack(color)
		for i := start; i < min(start+length, surface.Len()); i++ {
			surface.Set(i, float64(r), float64(gr), float64(b))
		}
		return 0
	}))

	L.SetGlobal("xy", L.NewFunction(func(L *lua.LState) int {
		i, err := g.Map(L.CheckInt(1), L.CheckInt(2))
		if err != nil {
			L.RaiseError("xy: %v", err)
		}
		L.Push(lua.LNumber(i))
		return 1
	}))
}

// RenderLayer is one effect script the pipeline runs every frame over the
// engine's picture.
type RenderLayer struct {
	// Name is the unique identifier for the layer.
	Name string `json:"name" binding:"required"`
	// Code is the Lua script to be executed for this layer.
	Code string `json:"code" binding:"required"`
	// Type is PERSISTENT or TEMPORARY.
	Type string `json:"type" binding:"required"`
	// Priority orders the layers; lower draws first.
	Priority int `json:"priority"`
	// TimeoutSeconds is how long a TEMPORARY layer lives.
	TimeoutSeconds float64 `json:"timeout"`
	// AddedAt is when the layer's clock started.
	AddedAt time.Time `json:"addedAt"`

	proto *lua.FunctionProto
}

func compileLua(name, code string) (*lua.FunctionProto, error) {
	chunk, err := parse.Parse(strings.NewReader(code), name)
	if err != nil {
		return nil, apperr.Invalid("code", "%v", err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, apperr.Invalid("code", "%v", err)
	}
	return proto, nil
}

func (l *RenderLayer) compile() error {
	proto, err := compileLua(l.Name, l.Code)
	if err != nil {
		return err
	}
	l.proto = proto
	return nil
}

// execute runs the layer once over buf.
func (l *RenderLayer) execute(buf []float64, g geometry.Geometry, pipelineTime, layerElapsedTime float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), layerBudget)
	defer cancel()
	return runProto(ctx, l.proto, floatSurface(buf), g, pipelineTime, layerElapsedTime)
}

func runProto(ctx context.Context, proto *lua.FunctionProto, surface luaSurface, g geometry.Geometry, pipelineTime, layerElapsedTime float64) error {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	setupLuaState(L, surface, g, pipelineTime, layerElapsedTime)
	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}

// runScript runs code once against the engine's strip. A script that fails
// leaves the strip as it was.
func runScript(e *display.Engine, code string) error {
	if strings.TrimSpace(code) == "" {
		return apperr.Invalid("code", "You did not provide any code")
	}
	proto, err := compileLua("script", code)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), scriptBudget)
	defer cancel()

	return e.Paint(func(c *display.Canvas) error {
		if err := runProto(ctx, proto, canvasSurface{c}, c.Geometry(), 0, 0); err != nil {
			return apperr.Invalid("code", "%v", err)
		}
		return nil
	})
}
