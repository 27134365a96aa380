package main

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"formpix/internal/apperr"
	"formpix/internal/geometry"
	"formpix/internal/rgb"
)

type fakeController struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeController) SendColors(colors []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, slices.Clone(colors))
	return nil
}

func (f *fakeController) Close() error { return nil }

func (f *fakeController) sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.frames)
}

type previewSink struct {
	frames [][]rgb.Color
}

func (p *previewSink) Render(frame []rgb.Color) error {
	p.frames = append(p.frames, frame)
	return nil
}

func (p *previewSink) last() []rgb.Color {
	if len(p.frames) == 0 {
		return nil
	}
	return p.frames[len(p.frames)-1]
}

var stripGeometry = geometry.Geometry{BarLength: 3}

func newTestPipeline(brightness int) (*PipelineManager, *fakeController, *previewSink) {
	ctrl := &fakeController{}
	preview := &previewSink{}
	return NewPipelineManager(ctrl, preview, stripGeometry, brightness, nil), ctrl, preview
}

func TestFixColor(t *testing.T) {
	tests := []struct {
		in      [3]float64
		r, g, b uint8
	}{
		{[3]float64{0, 0, 0}, 0, 0, 0},
		{[3]float64{255, 255, 255}, 255, 0x88, 0x66},
		{[3]float64{127.5, 0, 0}, 63, 0, 0},
		{[3]float64{-10, 255, 0}, 0, 0x88, 0},
	}
	for _, tt := range tests {
		r, g, b := fixColor(tt.in[0], tt.in[1], tt.in[2])
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("fixColor(%v) = %d,%d,%d, want %d,%d,%d", tt.in, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}

func TestEncodeSPI(t *testing.T) {
	colors := []byte{0xFF, 0x00, 0x80}
	dst := make([]byte, spiFrameLen(1))
	for i := range dst {
		dst[i] = 0xAA
	}
	if err := encodeSPI(dst, colors); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x92, 0x49, 0x24, // G 0x00
		0xDB, 0x6D, 0xB6, // R 0xFF
		0xD2, 0x49, 0x24, // B 0x80
	}
	if !bytes.Equal(dst[:9], want) {
		t.Errorf("bits = % X, want % X", dst[:9], want)
	}
	if !bytes.Equal(dst[9:], make([]byte, resetBytes)) {
		t.Error("latch bytes are not zero")
	}

	if err := encodeSPI(make([]byte, 5), colors); err == nil {
		t.Error("short buffer accepted")
	}
	if err := encodeSPI(make([]byte, spiFrameLen(1)), []byte{1, 2}); err == nil {
		t.Error("partial colour accepted")
	}
}

func TestPipelineSendsEngineFrames(t *testing.T) {
	p, ctrl, preview := newTestPipeline(255)
	if err := p.Render([]rgb.Color{rgb.Blue, rgb.Red, rgb.Black}); err != nil {
		t.Fatal(err)
	}
	if err := p.Render([]rgb.Color{rgb.Red, rgb.Black, rgb.Black}); err != nil {
		t.Fatal(err)
	}
	if err := p.renderFrame(); err != nil {
		t.Fatal(err)
	}

	sent := ctrl.sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1 for two coalesced renders", len(sent))
	}
	if !bytes.Equal(sent[0], []byte{255, 0, 0, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("sent % d", sent[0])
	}
	if !slices.Equal(preview.last(), []rgb.Color{rgb.Red, rgb.Black, rgb.Black}) {
		t.Errorf("preview = %v", preview.last())
	}

	if err := p.renderFrame(); err != nil {
		t.Fatal(err)
	}
	if len(ctrl.sent()) != 1 {
		t.Error("unchanged frame was sent again")
	}

	if err := p.Render(make([]rgb.Color, 2)); err == nil {
		t.Error("short frame accepted")
	}
}

func TestPipelineBrightness(t *testing.T) {
	p, ctrl, preview := newTestPipeline(0)
	p.Render([]rgb.Color{rgb.White, rgb.White, rgb.White})
	p.renderFrame()
	if !bytes.Equal(ctrl.sent()[0], make([]byte, 9)) {
		t.Errorf("brightness 0 sent % d", ctrl.sent()[0])
	}
	if preview.last()[0] != rgb.White {
		t.Error("brightness applied to the preview")
	}
}

func TestLayersDrawInPriorityOrder(t *testing.T) {
	p, _, preview := newTestPipeline(255)
	layers := []RenderLayer{
		{Name: "top", Type: LayerPersistent, Priority: 2, Code: `set_pixel(0, 0, 1, 0)`},
		{Name: "bottom", Type: LayerPersistent, Priority: 1, Code: `set_pixel(0, 1, 0, 0) set_pixel(1, 1, 0, 0)`},
		{Name: "b", Type: LayerPersistent, Priority: 3, Code: `set_pixel(2, 0, 0, 1)`},
		{Name: "a", Type: LayerPersistent, Priority: 3, Code: `set_pixel(2, 1, 1, 1)`},
		{Name: "broken", Type: LayerPersistent, Priority: 0, Code: `error("boom")`},
	}
	for _, l := range layers {
		if err := p.AddLayer(l); err != nil {
			t.Fatalf("AddLayer(%s): %v", l.Name, err)
		}
	}
	if err := p.renderFrame(); err != nil {
		t.Fatal(err)
	}
	want := []rgb.Color{rgb.Green, rgb.Red, rgb.Blue}
	if got := preview.last(); !slices.Equal(got, want) {
		t.Errorf("composite = %v, want %v", got, want)
	}

	// Layers keep drawing without new engine frames.
	p.renderFrame()
	if len(preview.frames) != 2 {
		t.Errorf("%d frames with live layers, want 2", len(preview.frames))
	}
}

func TestLayerReadsEngineFrame(t *testing.T) {
	p, _, preview := newTestPipeline(255)
	p.Render([]rgb.Color{rgb.Red, rgb.Black, rgb.Black})
	p.AddLayer(RenderLayer{Name: "copy", Type: LayerPersistent, Code: `
		local r, g, b = get_pixel(0)
		set_pixel(1, r, g, b)
		set_pixel(2, 0, 0, b + 0.5)
	`})
	p.renderFrame()
	want := []rgb.Color{rgb.Red, rgb.Red, rgb.Pack(0, 0, 128)}
	if got := preview.last(); !slices.Equal(got, want) {
		t.Errorf("composite = %v, want %v", got, want)
	}
}

func TestTemporaryLayerExpires(t *testing.T) {
	p, _, _ := newTestPipeline(255)
	if err := p.AddLayer(RenderLayer{Name: "flash", Type: LayerTemporary, TimeoutSeconds: 0.5, Code: `fill("#FFFFFF")`}); err != nil {
		t.Fatal(err)
	}
	if got := p.activeLayers(time.Now()); len(got) != 1 {
		t.Fatalf("%d active layers, want 1", len(got))
	}
	if got := p.activeLayers(time.Now().Add(time.Second)); len(got) != 0 {
		t.Fatalf("%d active layers after the timeout", len(got))
	}
	if len(p.Layers()) != 0 {
		t.Error("expired layer still listed")
	}
}

func TestAddLayerValidation(t *testing.T) {
	tests := []struct {
		name  string
		layer RenderLayer
	}{
		{"no name", RenderLayer{Type: LayerPersistent, Code: "x = 1"}},
		{"unknown type", RenderLayer{Name: "l", Type: "FOREVER", Code: "x = 1"}},
		{"temporary without timeout", RenderLayer{Name: "l", Type: LayerTemporary, Code: "x = 1"}},
		{"syntax error", RenderLayer{Name: "l", Type: LayerPersistent, Code: "set_pixel("}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newTestPipeline(255)
			err := p.AddLayer(tt.layer)
			if !apperr.IsInput(err) {
				t.Errorf("AddLayer err = %v, want an input error", err)
			}
			if len(p.Layers()) != 0 {
				t.Error("rejected layer was stored")
			}
		})
	}
}

func TestReplacedPersistentLayerKeepsClock(t *testing.T) {
	p, _, _ := newTestPipeline(255)
	p.AddLayer(RenderLayer{Name: "wave", Type: LayerPersistent, Code: "x = 1"})
	first := p.Layers()["wave"].AddedAt
	time.Sleep(time.Millisecond)
	p.AddLayer(RenderLayer{Name: "wave", Type: LayerPersistent, Code: "x = 2"})
	if got := p.Layers()["wave"].AddedAt; !got.Equal(first) {
		t.Errorf("AddedAt moved from %v to %v", first, got)
	}

	if err := p.RemoveLayer("wave"); err != nil {
		t.Fatal(err)
	}
	if err := p.RemoveLayer("wave"); !apperr.IsNotFound(err) {
		t.Errorf("second remove err = %v", err)
	}
}

func TestStartLoop(t *testing.T) {
	p, ctrl, _ := newTestPipeline(255)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.StartLoop(ctx)
	p.StartLoop(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for len(ctrl.sent()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("loop sent nothing")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
