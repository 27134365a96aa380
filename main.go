package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"formpix/internal/config"
	"formpix/internal/display"
	"formpix/internal/feed"
	"formpix/internal/sim"
	"formpix/internal/sound"
)

// signHandler routes formBar events to the engine and the speaker.
type signHandler struct {
	*display.Engine
	sounds *sound.Player
}

func (h signHandler) Sound(event string) { h.sounds.Cue(event) }

func main() {
	settings := flag.String("config", "settings.yaml", "settings file (YAML or JSON)")
	port := flag.Int("port", 0, "Web API port, overrides the settings file")
	output := flag.String("output", "", "strip, terminal or both, overrides the settings file")
	logPath := flag.String("log", "", "log file; defaults to stdout, or formpix.log when drawing to the terminal")
	flag.Parse()

	cfg, err := config.Load(*settings)
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *output != "" {
		cfg.Output = config.Output(*output)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("settings: %v", err)
	}

	logOut := io.Writer(os.Stdout)
	if *logPath == "" && cfg.Output != config.OutputStrip {
		*logPath = "formpix.log"
	}
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("open log: %v", err)
		}
		defer f.Close()
		logOut = f
		log.SetOutput(f)
	}
	gin.DefaultWriter = logOut
	gin.DefaultErrorWriter = logOut
	newLogger := func(prefix string) *log.Logger {
		return log.New(logOut, prefix, log.LstdFlags)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := cfg.Geometry()
	log.Printf("starting formPix: %d pixels (bar %d, %d boards of %dx%d), output %s",
		g.Len(), g.BarLength, g.Boards, g.Width, g.Height, cfg.Output)

	var controller Controller
	if cfg.Output == config.OutputStrip || cfg.Output == config.OutputBoth {
		spi, err := NewController(cfg.SPIDevice, g.Len())
		if err != nil {
			log.Fatalf("open strip: %v", err)
		}
		defer spi.Close()
		controller = spi
	}

	var screen *sim.Screen
	var preview display.Sink
	if cfg.Output == config.OutputTerminal || cfg.Output == config.OutputBoth {
		screen, err = sim.Open(g)
		if err != nil {
			log.Fatalf("open terminal: %v", err)
		}
		defer screen.Close()
		preview = screen
	}

	pipeline := NewPipelineManager(controller, preview, g, cfg.Brightness, newLogger("[strip] "))
	pipeline.StartLoop(ctx)

	sounds := sound.New(sound.Config{Dir: cfg.SoundDir, Logger: newLogger("[sound] ")})

	engine := display.New(display.Options{
		Geometry: g,
		Sink:     pipeline,
		Cues:     sounds,
		IdleText: cfg.IdleText(),
		Logger:   newLogger("[engine] "),
	})
	go engine.Run(ctx)

	client, err := feed.New(feed.Config{
		URL:    cfg.FormbarURL,
		APIKey: cfg.API,
		Logger: newLogger("[feed] "),
	}, signHandler{Engine: engine, sounds: sounds})
	if err != nil {
		log.Fatalf("formBar client: %v", err)
	}
	go client.Run(ctx)

	srv := &server{
		engine:   engine,
		pipeline: pipeline,
		sounds:   sounds,
		logger:   newLogger("[api] "),
	}
	if cfg.CheckPermissions() {
		srv.permissions = newPermissionChecker(cfg.FormbarURL, cfg.API)
	}
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           setupRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Web API listening on %s", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Web API: %v", err)
			stop()
		}
	}()

	if screen != nil {
		screen.WaitQuit(ctx)
		stop()
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("stopped")
}
