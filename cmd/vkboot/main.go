// Command vkboot opens a window, bootstraps a Vulkan context and swapchain on
// it, pumps window events until the window is closed and tears everything down
// in reverse order.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/xlab/closer"

	"vkboot/src/platform/glfw"
	"vkboot/src/render"
	"vkboot/src/render/vkapi"
)

func init() {
	// GLFW calls must come from the main thread
	runtime.LockOSThread()
}

type options struct {
	title         string
	width, height int
	validation    bool
	frames        int
}

func main() {
	var (
		opts    options
		verbose = flag.Bool("v", false, "log per-stage details")
	)
	flag.StringVar(&opts.title, "title", "vkboot", "window title")
	flag.IntVar(&opts.width, "width", 800, "window width")
	flag.IntVar(&opts.height, "height", 600, "window height")
	flag.BoolVar(&opts.validation, "validation", render.DefaultConfig().Validation, "enable the Khronos validation layer")
	flag.IntVar(&opts.frames, "frames", 0, "stop after this many event loop iterations (0 runs until the window closes)")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	render.SetLogger(log)

	// An interrupt stops the loop; main tears down on its own thread and
	// reports back before closer exits.
	stop := make(chan struct{})
	done := make(chan struct{})
	closer.Bind(func() {
		close(stop)
		<-done
	})

	code := 0
	if err := run(opts, log, stop); err != nil {
		log.Error("bootstrap failed", "error", fmt.Sprintf("%+v", err))
		code = 1
	}
	close(done)
	closer.Exit(code)
}

func run(opts options, log *slog.Logger, stop <-chan struct{}) error {
	procAddr, err := glfw.Init()
	if err != nil {
		return err
	}
	defer glfw.Terminate()

	loader, err := vkapi.New(procAddr)
	if err != nil {
		return err
	}

	window, err := glfw.New(opts.title, opts.width, opts.height)
	if err != nil {
		return err
	}
	defer window.Destroy()

	cfg := render.DefaultConfig()
	cfg.AppName = opts.title
	cfg.Validation = opts.validation
	cfg.Logger = log

	ctx, err := render.NewContext(loader, window, cfg)
	if err != nil {
		return err
	}
	defer ctx.Destroy()

	sc, err := render.NewSwapchain(ctx, window)
	if err != nil {
		return err
	}
	defer sc.Destroy()

	dim := sc.Dimensions()
	log.Info("ready", "width", dim.Width, "height", dim.Height, "format", dim.Format, "images", len(sc.Images))

	for frame := 0; opts.frames == 0 || frame < opts.frames; frame++ {
		select {
		case <-stop:
			log.Info("interrupted")
			return ctx.WaitIdle()
		default:
		}
		if window.ShouldClose() {
			break
		}
		window.PollEvents()
	}
	return ctx.WaitIdle()
}
