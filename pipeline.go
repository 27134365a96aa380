package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"formpix/internal/apperr"
	"formpix/internal/display"
	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

// Controller is the LED hardware the pipeline pushes finished frames to.
type Controller interface {
	SendColors(colors []byte) error
	Close() error
}

// Layer types. PERSISTENT layers stay until removed, TEMPORARY ones expire
// after their timeout.
const (
	LayerPersistent = "PERSISTENT"
	LayerTemporary  = "TEMPORARY"
)

// PipelineManager is the strip's output stage. It takes the engine's frames
// as the base picture and runs the effect layers over them. At up to 60 FPS
// the result goes to the preview sink as is and to the controller colour
// corrected.
type PipelineManager struct {
	// layers stores active RenderLayer objects, keyed by their Name.
	layers sync.Map
	// mutex guards everything below.
	mutex sync.Mutex

	controller Controller
	preview    display.Sink
	geo        geometry.Geometry
	logger     *log.Logger
	startTime  time.Time
	brightness float64

	// base is the last frame the engine rendered.
	base []rgb.Color
	// pixelBuffer holds the composite, 0-255 per channel, 3 per LED.
	pixelBuffer []float64
	dirty       bool

	isRunning bool
}

// fixColor applies the strip's brightness curve and colour balance.
// Inputs and outputs are on the 0-255 scale.
func fixColor(colorR, colorG, colorB float64) (uint8, uint8, uint8) {
	const MaxValU8 float64 = 255.0
	colorROut := math.Pow(colorR/MaxValU8, 2.0) * MaxValU8
	colorGOut := math.Pow(colorG/MaxValU8, 2.0) * (MaxValU8 * (0x88 / MaxValU8))
	colorBOut := math.Pow(colorB/MaxValU8, 2.0) * (MaxValU8 * (0x66 / MaxValU8))
	return uint8(math.Max(0, math.Min(255, colorROut))),
		uint8(math.Max(0, math.Min(255, colorGOut))),
		uint8(math.Max(0, math.Min(255, colorBOut)))
}

// NewPipelineManager builds the output stage. Either c or preview may be nil.
func NewPipelineManager(c Controller, preview display.Sink, g geometry.Geometry, brightness int, logger *log.Logger) *PipelineManager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &PipelineManager{
		controller:  c,
		preview:     preview,
		geo:         g,
		logger:      logger,
		startTime:   time.Now(),
		brightness:  float64(brightness) / 255,
		base:        make([]rgb.Color, g.Len()),
		pixelBuffer: make([]float64, g.Len()*3),
		dirty:       true,
	}
}

// Render takes a frame from the display engine. The frame goes out on the
// next tick; frames arriving faster than that are coalesced.
func (p *PipelineManager) Render(frame []rgb.Color) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if len(frame) != len(p.base) {
		return fmt.Errorf("frame has %d pixels, strip has %d", len(frame), len(p.base))
	}
	copy(p.base, frame)
	p.dirty = true
	return nil
}

// AddLayer adds an effect layer or replaces the one with the same name.
func (p *PipelineManager) AddLayer(layer RenderLayer) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if layer.Name == "" {
		return apperr.Invalid("name", "layer name is required")
	}
	switch layer.Type {
	case LayerPersistent:
	case LayerTemporary:
		if layer.TimeoutSeconds <= 0 {
			return apperr.Invalid("timeout", "a TEMPORARY layer needs a positive timeout")
		}
	default:
		return apperr.Invalid("type", "unknown layer type: %s", layer.Type)
	}
	if err := layer.compile(); err != nil {
		return err
	}

	// A persistent layer that is replaced keeps its clock; anything else
	// starts over.
	layer.AddedAt = time.Now()
	if existing, ok := p.layers.Load(layer.Name); ok && layer.Type == LayerPersistent {
		layer.AddedAt = existing.(RenderLayer).AddedAt
	}

	p.layers.Store(layer.Name, layer)
	p.dirty = true
	p.logger.Printf("layer %q added (%s)", layer.Name, layer.Type)
	return nil
}

// RemoveLayer removes a layer from the pipeline by its name.
func (p *PipelineManager) RemoveLayer(name string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if _, ok := p.layers.Load(name); !ok {
		return apperr.NotFound("layer %q does not exist", name)
	}
	p.layers.Delete(name)
	p.dirty = true
	p.logger.Printf("layer %q removed", name)
	return nil
}

// Layers lists the active layers by name.
func (p *PipelineManager) Layers() map[string]RenderLayer {
	layers := make(map[string]RenderLayer)
	p.layers.Range(func(key, value any) bool {
		layers[key.(string)] = value.(RenderLayer)
		return true
	})
	return layers
}

// StartLoop runs the render loop at 60 FPS until ctx is cancelled.
func (p *PipelineManager) StartLoop(ctx context.Context) {
	p.mutex.Lock()
	if p.isRunning {
		p.mutex.Unlock()
		return
	}
	p.isRunning = true
	p.mutex.Unlock()

	ticker := time.NewTicker(time.Second / 60)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := p.renderFrame(); err != nil {
					p.logger.Printf("send frame: %v", err)
				}
			}
		}
	}()
}

// activeLayers drops expired TEMPORARY layers and returns the rest in
// drawing order: lower priority first, then by name.
func (p *PipelineManager) activeLayers(now time.Time) []RenderLayer {
	var active []RenderLayer
	p.layers.Range(func(key, value any) bool {
		layer := value.(RenderLayer)
		if layer.Type == LayerTemporary && now.Sub(layer.AddedAt).Seconds() > layer.TimeoutSeconds {
			p.logger.Printf("layer %q timed out", layer.Name)
			p.layers.Delete(key)
			p.dirty = true
			return true
		}
		active = append(active, layer)
		return true
	})
	sort.Slice(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority < active[j].Priority
		}
		return active[i].Name < active[j].Name
	})
	return active
}

// renderFrame composites and sends one frame. Without layers it only sends
// when the engine produced something new.
func (p *PipelineManager) renderFrame() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	now := time.Now()
	layers := p.activeLayers(now)
	if len(layers) == 0 && !p.dirty {
		return nil
	}
	p.dirty = false

	for i, c := range p.base {
		r, g, b := rgb.Unpack(c)
		p.pixelBuffer[i*3], p.pixelBuffer[i*3+1], p.pixelBuffer[i*3+2] = float64(r), float64(g), float64(b)
	}

	pipelineTime := now.Sub(p.startTime).Seconds()
	for _, layer := range layers {
		layerElapsedTime := now.Sub(layer.AddedAt).Seconds()
		if err := layer.execute(p.pixelBuffer, p.geo, pipelineTime, layerElapsedTime); err != nil {
			// A failing layer is skipped; the others still draw.
			p.logger.Printf("layer %q: %v", layer.Name, err)
		}
	}

	var errs []error
	if p.preview != nil {
		frame := make([]rgb.Color, len(p.base))
		for i := range frame {
			frame[i] = rgb.Pack(
				uint8(math.Round(clamp255(p.pixelBuffer[i*3]))),
				uint8(math.Round(clamp255(p.pixelBuffer[i*3+1]))),
				uint8(math.Round(clamp255(p.pixelBuffer[i*3+2]))),
			)
		}
		errs = append(errs, p.preview.Render(frame))
	}

	if p.controller != nil {
		out := make([]byte, len(p.pixelBuffer))
		for i := 0; i < len(p.pixelBuffer); i += 3 {
			out[i], out[i+1], out[i+2] = fixColor(
				p.pixelBuffer[i]*p.brightness,
				p.pixelBuffer[i+1]*p.brightness,
				p.pixelBuffer[i+2]*p.brightness,
			)
		}
		errs = append(errs, p.controller.SendColors(out))
	}
	return errors.Join(errs...)
}
