package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"formpix/internal/apperr"
	"formpix/internal/display"
	"formpix/internal/rgb"
	"formpix/internal/sound"
)

// Permission types formBar grants to API keys.
const (
	permLights = "lights"
	permSounds = "sounds"
)

// endpointPermissions maps every checked endpoint to the permission its
// caller needs.
var endpointPermissions = map[string]string{
	"/api/fill":      permLights,
	"/api/gradient":  permLights,
	"/api/setPixel":  permLights,
	"/api/setPixels": permLights,
	"/api/say":       permLights,
	"/api/script":    permLights,
	"/api/pixels":    permLights,
	"/api/layers":    permLights,
	"/api/getSounds": permSounds,
	"/api/playSound": permSounds,
}

const serverErrorMessage = "There was a server error try again"

// server holds what the API handlers work on.
type server struct {
	engine      *display.Engine
	pipeline    *PipelineManager
	sounds      *sound.Player
	permissions *permissionChecker
	logger      *log.Logger
}

// permissionChecker asks formBar whether an API key holds a permission.
type permissionChecker struct {
	formbarURL string
	apiKey     string
	client     *http.Client
}

func newPermissionChecker(formbarURL, apiKey string) *permissionChecker {
	return &permissionChecker{
		formbarURL: strings.TrimRight(formbarURL, "/"),
		apiKey:     apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// permissionError is formBar refusing a key. Status is the status formBar
// answered with.
type permissionError struct {
	Status  int
	Message string
}

func (e *permissionError) Error() string { return e.Message }

func (pc *permissionChecker) check(ctx context.Context, key, permission string) error {
	q := url.Values{}
	q.Set("api", key)
	q.Set("permissionType", permission)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.formbarURL+"/api/apiPermissionCheck?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("api", pc.apiKey)

	resp, err := pc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var data struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return fmt.Errorf("permission check reply: %w", err)
	}
	if data.Error != "" {
		return &permissionError{Status: resp.StatusCode, Message: data.Error}
	}
	return nil
}

// setupRouter initializes the Gin router with the sign's control endpoints
// and the effect layer endpoints.
func setupRouter(s *server) *gin.Engine {
	r := gin.Default()
	r.RedirectTrailingSlash = false

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("The endpoint %s does not exist", strings.TrimPrefix(c.Request.URL.Path, "/"))})
	})

	api := r.Group("/api", s.requireConnection, s.checkPermission, singleQueryValues)
	{
		api.POST("/fill", s.fill)
		api.POST("/gradient", s.gradient)
		api.POST("/setPixel", s.setPixel)
		api.POST("/setPixels", s.setPixels)
		api.POST("/say", s.say)
		api.POST("/getSounds", s.getSounds)
		api.POST("/playSound", s.playSound)
		api.POST("/script", s.script)
		api.GET("/pixels", s.pixels)

		layers := api.Group("/layers")
		{
			// GET /api/layers - Lists all active layers in the pipeline.
			layers.GET("", func(c *gin.Context) {
				c.JSON(http.StatusOK, s.pipeline.Layers())
			})

			// POST /api/layers - Adds a new layer or updates an existing one.
			layers.POST("", func(c *gin.Context) {
				var layer RenderLayer
				if err := c.ShouldBindJSON(&layer); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				if err := s.pipeline.AddLayer(layer); err != nil {
					s.respondError(c, err)
					return
				}
				c.JSON(http.StatusCreated, gin.H{"status": "success", "name": layer.Name})
			})

			// DELETE /api/layers/:name - Removes a layer by its unique name.
			layers.DELETE("/:name", func(c *gin.Context) {
				name := c.Param("name")
				if err := s.pipeline.RemoveLayer(name); err != nil {
					s.respondError(c, err)
					return
				}
				c.JSON(http.StatusOK, gin.H{"status": "deleted", "name": name})
			})
		}
	}

	return r
}

// requireConnection turns callers away while the sign has no formBar.
func (s *server) requireConnection(c *gin.Context) {
	if !s.engine.IsConnected() {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "This formPix is not connected to a formBar"})
		return
	}
	c.Next()
}

func (s *server) checkPermission(c *gin.Context) {
	if s.permissions == nil {
		c.Next()
		return
	}

	key := c.GetHeader("api")
	if key == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing API key"})
		return
	}

	endpoint := strings.TrimRight(c.Request.URL.Path, "/")
	if strings.HasPrefix(endpoint, "/api/layers/") {
		endpoint = "/api/layers"
	}
	permission, ok := endpointPermissions[endpoint]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("The endpoint %s does not exist in the permissions", strings.TrimPrefix(endpoint, "/api/"))})
		return
	}

	if err := s.permissions.check(c.Request.Context(), key, permission); err != nil {
		var pe *permissionError
		if errors.As(err, &pe) {
			c.AbortWithStatusJSON(pe.Status, gin.H{"error": pe.Message})
			return
		}
		s.logger.Printf("permission check: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": serverErrorMessage})
		return
	}
	c.Next()
}

// singleQueryValues rejects a query string that repeats a parameter.
func singleQueryValues(c *gin.Context) {
	for key, values := range c.Request.URL.Query() {
		if len(values) > 1 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("You can only have one %s parameter", key)})
			return
		}
	}
	c.Next()
}

func (s *server) respondError(c *gin.Context, err error) {
	switch {
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, display.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.logger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": serverErrorMessage})
	}
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// queryInt reads an optional integer parameter. Whole floats such as "3.0"
// count as integers; values past the int32 range are rejected.
func queryInt(c *gin.Context, key string, def int) (int, error) {
	v, present := c.GetQuery(key)
	if !present {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, apperr.Invalid(key, "%s must be an integer", key)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, apperr.Invalid(key, "%s is out of range", key)
	}
	return int(f), nil
}

func queryColor(c *gin.Context, key, missing string) (rgb.Color, error) {
	v := c.Query(key)
	if v == "" {
		return 0, apperr.Invalid(key, "%s", missing)
	}
	color, err := rgb.ParseText(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return color, nil
}

// span reads the start and length parameters, defaulting to the whole strip.
func (s *server) span(c *gin.Context) (start, length int, err error) {
	if start, err = queryInt(c, "start", 0); err != nil {
		return 0, 0, err
	}
	if length, err = queryInt(c, "length", s.engine.Geometry().Len()); err != nil {
		return 0, 0, err
	}
	return start, length, nil
}

func (s *server) fill(c *gin.Context) {
	color, err := queryColor(c, "color", "missing color")
	if err != nil {
		s.respondError(c, err)
		return
	}
	start, length, err := s.span(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.engine.Fill(color, start, length); err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c)
}

func (s *server) gradient(c *gin.Context) {
	from, err := queryColor(c, "startColor", "missing startColor")
	if err != nil {
		s.respondError(c, err)
		return
	}
	to, err := queryColor(c, "endColor", "missing endColor")
	if err != nil {
		s.respondError(c, err)
		return
	}
	start, length, err := s.span(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.engine.Gradient(from, to, start, length); err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c)
}

func (s *server) setPixel(c *gin.Context) {
	pixel, present := c.GetQuery("pixel")
	if !present || pixel == "" {
		s.respondError(c, apperr.Invalid("pixel", "missing pixel"))
		return
	}
	color, err := queryColor(c, "color", "missing color")
	if err != nil {
		s.respondError(c, err)
		return
	}
	index, err := s.engine.Geometry().PixelNumber(pixel)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.engine.SetPixel(index, color); err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c)
}

func (s *server) setPixels(c *gin.Context) {
	writes, err := display.ParsePixels(s.engine.Geometry(), c.Query("pixels"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.engine.SetPixels(writes); err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c)
}

func (s *server) say(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		s.respondError(c, apperr.Invalid("text", "You did not provide any text"))
		return
	}
	fg, err := queryColor(c, "textColor", "You did not provide any textColor")
	if err != nil {
		s.respondError(c, err)
		return
	}
	bg, err := queryColor(c, "backgroundColor", "You did not provide any backgroundColor")
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.engine.Say(text, fg, bg); err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c)
}

func (s *server) getSounds(c *gin.Context) {
	switch kind := c.Query("type"); kind {
	case string(sound.BGM), string(sound.SFX):
		names, err := s.sounds.List(sound.Kind(kind))
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, names)
	case "":
		all, err := s.sounds.Sounds()
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, all)
	default:
		s.respondError(c, apperr.Invalid("type", "Invalid type"))
	}
}

func (s *server) playSound(c *gin.Context) {
	if err := s.sounds.Play(c.Query("bgm"), c.Query("sfx")); err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c)
}

// script runs a one-shot Lua script. The code comes from the body, or from
// the code parameter when the body is empty.
func (s *server) script(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		s.respondError(c, apperr.Invalid("code", "could not read the request body"))
		return
	}
	code := string(body)
	if strings.TrimSpace(code) == "" {
		code = c.Query("code")
	}
	if err := runScript(s.engine, code); err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c)
}

// pixels returns what the engine is showing, without the effect layers.
func (s *server) pixels(c *gin.Context) {
	frame, err := s.engine.Frame()
	if err != nil {
		s.respondError(c, err)
		return
	}
	g := s.engine.Geometry()
	out := make([]string, len(frame))
	for i, color := range frame {
		out[i] = strings.ToLower(color.String())
	}
	c.JSON(http.StatusOK, gin.H{
		"pixels":      out,
		"barPixels":   g.BarLength,
		"boards":      g.Boards,
		"boardWidth":  g.Width,
		"boardHeight": g.Height,
		"class":       s.engine.Class(),
	})
}
