package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-packet-raytracer/internal/config"
	"github.com/df07/go-packet-raytracer/internal/logger"
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/renderer"
	"github.com/df07/go-packet-raytracer/pkg/scene"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

var renderFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "YAML config file (default: ./" + config.FileName + " or the user config dir)",
	},
	cli.StringFlag{
		Name:  "scene, s",
		Usage: "built-in scene name or path to a YAML scene file",
	},
	cli.StringFlag{
		Name:  "mesh",
		Usage: "PLY file for the ply scene",
	},
	cli.IntFlag{
		Name:  "width",
		Usage: "image width in pixels",
	},
	cli.IntFlag{
		Name:  "height",
		Usage: "image height in pixels",
	},
	cli.IntFlag{
		Name:  "lanes",
		Usage: "rays per packet: 1, 4, 8 or 16 (0 = widest supported)",
	},
	cli.IntFlag{
		Name:  "passes, p",
		Usage: "number of progressive passes",
	},
	cli.IntFlag{
		Name:  "workers",
		Usage: "render goroutines (0 = one per CPU)",
	},
	cli.StringFlag{
		Name:  "out, o",
		Usage: "output directory",
	},
	cli.StringFlag{
		Name:  "log-level",
		Usage: "debug, info, warn or error",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "packet-raytracer"
	app.Usage = "progressive SIMD packet path tracer"
	app.Version = "0.1.0"
	app.Flags = renderFlags
	app.Action = renderCmd
	app.Commands = []cli.Command{
		{
			Name:   "render",
			Usage:  "render a scene to output/<scene>/render_<timestamp>.png",
			Flags:  renderFlags,
			Action: renderCmd,
		},
		{
			Name:  "scenes",
			Usage: "list built-in scenes and scene files",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dir",
					Usage: "directory of YAML scenes (default: ./scenes)",
				},
			},
			Action: scenesCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// overridesFromContext collects only the flags given on the command line so
// unset flags do not clobber values from the config file.
func overridesFromContext(ctx *cli.Context) config.Overrides {
	var o config.Overrides
	str := func(name string) *string {
		if !ctx.IsSet(name) {
			return nil
		}
		v := ctx.String(name)
		return &v
	}
	num := func(name string) *int {
		if !ctx.IsSet(name) {
			return nil
		}
		v := ctx.Int(name)
		return &v
	}

	o.Scene = str("scene")
	o.Mesh = str("mesh")
	o.Width = num("width")
	o.Height = num("height")
	o.Lanes = num("lanes")
	o.Passes = num("passes")
	o.Workers = num("workers")
	o.OutputDir = str("out")
	o.LogLevel = str("log-level")
	return o
}

func loadConfig(path string, o config.Overrides) (*config.Config, string, error) {
	cfg, source, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	cfg.ApplyOverrides(o)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, source, nil
}

// createScene builds a built-in scene or loads a YAML scene file.
func createScene(sc config.SceneConfig, log *zap.Logger) (*core.Scene, error) {
	opts := []scene.Option{scene.WithLogger(log)}
	if sc.Mesh != "" {
		opts = append(opts, scene.WithMeshFile(sc.Mesh))
	}
	if sc.IsFile() {
		return scene.LoadYAML(sc.Name, opts...)
	}
	return scene.Builtin(sc.Name, opts...)
}

// sceneOutputName is the directory name used for a scene's renders: the
// built-in name, or the file name without extension for scene files.
func sceneOutputName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func outputPath(dir, sceneName string, t time.Time) string {
	return filepath.Join(dir, sceneOutputName(sceneName),
		fmt.Sprintf("render_%s.png", t.Format("20060102_150405")))
}

func savePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

func renderCmd(ctx *cli.Context) error {
	cfg, source, err := loadConfig(ctx.String("config"), overridesFromContext(ctx))
	if err != nil {
		return err
	}

	if err := logger.InitWithFileConfig(cfg.Logging.Level, cfg.Logging.FileConfig(), cfg.Logging.Console); err != nil {
		return err
	}
	defer logger.Sync()

	if source != "" {
		logger.Info("config loaded", zap.String("source", source))
	} else {
		logger.Debug("config loaded", zap.String("source", "defaults"))
	}

	s, err := createScene(cfg.Scene, logger.Named("scene"))
	if err != nil {
		return err
	}

	pr, err := renderer.NewProgressive(s, cfg.Render.Width, cfg.Render.Height, renderer.ProgressiveConfig{
		RegionSize: cfg.Render.RegionSize,
		MaxPasses:  cfg.Render.Passes,
		NumWorkers: cfg.Render.Workers,
		LaneWidth:  cfg.Render.Lanes,
		Logger:     logger.Named("renderer"),
	})
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	passChan, _, errChan := pr.RenderProgressive(runCtx, renderer.RenderOptions{})

	var last *image.RGBA
	for result := range passChan {
		last = result.Image
	}
	renderErr := <-errChan
	if renderErr != nil && !errors.Is(renderErr, context.Canceled) {
		return renderErr
	}
	if last == nil {
		return errors.New("render stopped before the first pass completed")
	}

	path := outputPath(cfg.Render.OutputDir, cfg.Scene.Name, time.Now())
	if err := savePNG(path, last); err != nil {
		return err
	}

	logger.Info("render saved",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("interrupted", renderErr != nil))
	return nil
}

func scenesCmd(ctx *cli.Context) error {
	groups, err := scene.ListAllScenes(ctx.String("dir"))
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Printf("%s:\n", g.Name)
		for _, s := range g.Scenes {
			id := s.Name
			if s.Type == "yaml" {
				id = s.FilePath
			}
			fmt.Printf("  %-24s %s\n", id, s.Description)
		}
	}
	return nil
}
