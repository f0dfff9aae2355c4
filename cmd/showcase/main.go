package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	stlog "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sandruandrei/SGDemo/internal/assets"
	"github.com/sandruandrei/SGDemo/internal/assets/ebitenload"
	"github.com/sandruandrei/SGDemo/internal/config"
	"github.com/sandruandrei/SGDemo/internal/connection"
	"github.com/sandruandrei/SGDemo/internal/lifecycle"
	"github.com/sandruandrei/SGDemo/internal/showcase"
	"github.com/sandruandrei/SGDemo/internal/signals"
)

const (
	screenWidth  = 1280
	screenHeight = 800
	menuFontKey  = "menuFont"
)

var (
	basePath  = flag.String("base-path", "", "prefix for relative asset paths (overrides SHOWCASE_BASE_PATH)")
	assetDir  = flag.String("assets", "", "local asset directory (overrides SHOWCASE_ASSET_DIR)")
	manifest  = flag.String("manifest", "", "JSON asset manifest; the built-in manifest is used when empty")
	serverURL = flag.String("server", "", "lobby websocket URL; offline when empty (overrides SHOWCASE_SERVER_URL)")
	userID    = flag.String("user", "", "user id to authenticate as (overrides SHOWCASE_USER_ID)")
	logLevel  = flag.String("log-level", "", "log level: debug, info, warn or error")
)

// Game draws the lifecycle state and forwards key presses to the bus.
type Game struct {
	bus     *signals.Bus
	loader  *assets.Loader
	manager *showcase.Manager
	sound   *showcase.SoundModule
}

// Update handles input: 1-3 pick a game, M toggles sound, Escape quits.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	ctx := context.Background()
	for i, key := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3} {
		games := showcase.Games()
		if i < len(games) && inpututil.IsKeyJustPressed(key) {
			g.bus.Emit(ctx, signals.ChangeGame{Game: games[i].Name})
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.bus.Emit(ctx, signals.SoundToggle{Enabled: !g.sound.Enabled()})
	}
	return nil
}

// Draw renders the current background, the game title and a status line.
func (g *Game) Draw(screen *ebiten.Image) {
	snap := g.manager.Snapshot()

	if snap.State != lifecycle.PlayGame {
		screen.Fill(color.RGBA{R: 16, G: 16, B: 24, A: 255})
	} else if bg := g.texture(snap.Background); bg != nil {
		op := &ebiten.DrawImageOptions{}
		b := bg.Bounds()
		op.GeoM.Scale(float64(screenWidth)/float64(b.Dx()), float64(screenHeight)/float64(b.Dy()))
		screen.DrawImage(bg, op)
	}

	if snap.Game != "" {
		g.drawTitle(screen, snap.Game)
	}

	status := fmt.Sprintf("State: %s\nUser: %s\nGame: %s\nSound: %v\nFPS: %.1f\n\n[1-3] change game  [M] sound  [Esc] quit",
		snap.State, snap.UserID, snap.Game, g.sound.Enabled(), ebiten.ActualFPS())
	if snap.LoadError != nil {
		status += "\n\nLoading failed: " + snap.LoadError.Error()
	}
	ebitenutil.DebugPrint(screen, status)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

func (g *Game) texture(key string) *ebiten.Image {
	if key == "" || !g.loader.Loaded(assets.CategoryImages, key) {
		return nil
	}
	tex, err := g.loader.Texture(key)
	if err != nil {
		return nil
	}
	img, _ := tex.(*ebiten.Image)
	return img
}

// drawTitle writes text centred near the top of the screen with the menu
// bitmap font.
func (g *Game) drawTitle(screen *ebiten.Image, text string) {
	if !g.loader.Loaded(assets.CategoryBitmapFonts, menuFontKey) {
		return
	}
	font, err := g.loader.BitmapFont(menuFontKey)
	if err != nil {
		return
	}

	x := float64(screenWidth-font.MeasureString(text)) / 2
	y := 48.0
	var prev rune = -1
	for _, r := range text {
		glyph, ok := font.Glyph(r)
		if !ok {
			continue
		}
		if prev >= 0 {
			x += float64(font.Kerning(prev, r))
		}
		prev = r
		if glyph.Page < 0 || glyph.Page >= len(font.Textures) {
			continue
		}
		page, ok := font.Textures[glyph.Page].(*ebiten.Image)
		if !ok || glyph.Rect.Empty() {
			x += float64(glyph.XAdvance)
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(x+float64(glyph.XOffset), y+float64(glyph.YOffset))
		screen.DrawImage(page.SubImage(glyph.Rect).(*ebiten.Image), op)
		x += float64(glyph.XAdvance)
	}
}

func main() {
	flag.Parse()

	cfg, err := config.LoadShowcase()
	if err != nil {
		logger, _ := config.NewLogger(os.Stderr, "error")
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	applyFlags(&cfg)

	logger, _ := config.NewLogger(os.Stdout, cfg.LogLevel)
	stlog.SetDefault(logger)
	logger.Info("Starting showcase client...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		go serveMetrics(logger, cfg.MetricsAddr, reg)
	}

	m := showcase.DefaultManifest()
	if cfg.ManifestPath != "" {
		if m, err = assets.LoadManifest(cfg.ManifestPath); err != nil {
			logger.Error("Failed to load manifest", "path", cfg.ManifestPath, "error", err)
			os.Exit(1)
		}
	}

	bus := signals.NewBus(logger)
	fetcher := &assets.SourceFetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
		Local:  os.DirFS(cfg.AssetDir),
	}
	loader := assets.New(bus, fetcher, ebitenload.NewDecoder(logger),
		assets.WithBasePath(cfg.BasePath),
		assets.WithLogger(logger),
		assets.WithMetrics(assets.NewMetrics(reg)),
		assets.WithMaxConcurrentFetches(cfg.MaxConcurrentFetches),
	)

	conn := connection.New(ctx, bus, connection.Options{
		ServerURL:    cfg.ServerURL,
		DialAttempts: cfg.DialAttempts,
		AuthTimeout:  cfg.AuthTimeout,
		Logger:       logger,
	})
	defer conn.Close()

	// Registered before the manager so clips exist when the first game starts.
	sound := showcase.NewSoundModule(bus, loader, logger)

	manager := showcase.NewManager(bus, loader, m, showcase.Options{
		LoadRetries: cfg.LoadRetries,
		Metrics:     lifecycle.NewMetrics(reg),
		Logger:      logger,
	})
	go func() {
		if err := manager.Start(ctx, cfg.UserID); err != nil {
			logger.Error("Showcase did not finish booting", "error", err)
		}
	}()

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("SG Demo")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	game := &Game{bus: bus, loader: loader, manager: manager, sound: sound}
	if err := ebiten.RunGame(&stoppable{Game: game, ctx: ctx}); err != nil {
		if errors.Is(err, ebiten.Termination) {
			logger.Info("Ebitengine closed normally.")
		} else {
			logger.Error("Ebitengine error", "error", err)
			os.Exit(1)
		}
	}

	stop()
	manager.Wait()
	logger.Info("Client finished.")
}

// stoppable ends the game loop once ctx is done.
type stoppable struct {
	*Game
	ctx context.Context
}

func (s *stoppable) Update() error {
	if s.ctx.Err() != nil {
		return ebiten.Termination
	}
	return s.Game.Update()
}

func applyFlags(cfg *config.Showcase) {
	if *basePath != "" {
		cfg.BasePath = *basePath
	}
	if *assetDir != "" {
		cfg.AssetDir = *assetDir
	}
	if *manifest != "" {
		cfg.ManifestPath = *manifest
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *userID != "" {
		cfg.UserID = *userID
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
}

func serveMetrics(logger *stlog.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	logger.Info("Starting metrics server", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("Metrics ListenAndServe error", "error", err)
	}
}
