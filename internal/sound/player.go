// Package sound plays the sign's background music and sound effects.
package sound

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"

	"formpix/internal/apperr"
	"formpix/internal/display"
)

// Kind is a sound directory: background music or sound effects.
type Kind string

const (
	BGM Kind = "bgm"
	SFX Kind = "sfx"
)

const sampleRate = beep.SampleRate(44100)

// cueFiles maps engine cues and upstream notifications to sound effects.
var cueFiles = map[string]string{
	display.CueBootup:   "sfx_bootup02.wav",
	display.CueSuccess:  "sfx_success01.wav",
	display.CueBruh:     "bruh.wav",
	display.CueWompWomp: "wompwomp.wav",
	"helpSound":         "sfx_up04.wav",
	"breakSound":        "sfx_pickup02.wav",
	"pollSound":         "sfx_blip01.wav",
	"removePollSound":   "sfx_hit01.wav",
	"joinSound":         "sfx_up02.wav",
	"leaveSound":        "sfx_laser01.wav",
	"kickStudentsSound": "sfx_splash01.wav",
	"endClassSound":     "sfx_explode01.wav",
	"timerSound":        "alarmClock.mp3",
}

// Output plays a decoded stream without blocking.
type Output interface {
	Play(s beep.Streamer) error
}

// Speaker is the default Output. The audio device is opened on first use.
type Speaker struct {
	once sync.Once
	err  error
}

func (s *Speaker) Play(st beep.Streamer) error {
	s.once.Do(func() {
		s.err = speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond))
	})
	if s.err != nil {
		return s.err
	}
	speaker.Play(st)
	return nil
}

type Config struct {
	// Dir holds the bgm and sfx directories.
	Dir    string
	Output Output
	Logger *log.Logger
}

// Player finds sound files on disk and hands them to an Output.
type Player struct {
	dir    string
	out    Output
	logger *log.Logger
}

func New(cfg Config) *Player {
	if cfg.Output == nil {
		cfg.Output = &Speaker{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	return &Player{dir: cfg.Dir, out: cfg.Output, logger: cfg.Logger}
}

// List returns the file names in one sound directory, sorted. A missing
// directory lists as empty.
func (p *Player) List(kind Kind) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(p.dir, string(kind)))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Sounds lists both directories.
func (p *Player) Sounds() (map[Kind][]string, error) {
	out := make(map[Kind][]string, 2)
	for _, kind := range []Kind{BGM, SFX} {
		names, err := p.List(kind)
		if err != nil {
			return nil, err
		}
		out[kind] = names
	}
	return out, nil
}

// Play starts one background track or one sound effect. Exactly one of bgm
// and sfx must be set.
func (p *Player) Play(bgm, sfx string) error {
	switch {
	case bgm == "" && sfx == "":
		return apperr.Invalid("", "Missing bgm or sfx")
	case bgm != "" && sfx != "":
		return apperr.Invalid("", "You can not send both bgm and sfx")
	case bgm != "":
		return p.file(BGM, bgm, "The background music %s does not exist.")
	default:
		return p.file(SFX, sfx, "The sound effect %s does not exist.")
	}
}

func (p *Player) file(kind Kind, name, missing string) error {
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return apperr.NotFound(missing, name)
	}
	path := filepath.Join(p.dir, string(kind), name)
	if _, err := os.Stat(path); err != nil {
		return apperr.NotFound(missing, name)
	}
	return p.play(path)
}

// Cue plays the effect mapped to an engine cue or an upstream notification.
// It returns at once; failures are logged.
func (p *Player) Cue(name string) {
	file, ok := cueFiles[name]
	if !ok {
		p.logger.Printf("no sound for cue %q", name)
		return
	}
	go func() {
		if err := p.play(filepath.Join(p.dir, string(SFX), file)); err != nil {
			p.logger.Printf("cue %s: %v", name, err)
		}
	}()
}

func (p *Player) play(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	default:
		f.Close()
		return apperr.Invalid("sound", "unsupported sound format %s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	var st beep.Streamer = stream
	if format.SampleRate != sampleRate {
		st = beep.Resample(4, format.SampleRate, sampleRate, stream)
	}
	done := beep.Callback(func() { stream.Close() })
	if err := p.out.Play(beep.Seq(st, done)); err != nil {
		stream.Close()
		return err
	}
	p.logger.Printf("playing %s", filepath.Base(path))
	return nil
}
