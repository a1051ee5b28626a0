package render_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"vkboot/src/render"
	"vkboot/src/render/rendertest"
)

func TestLoggerDefaultsToNop(t *testing.T) {
	require.False(t, render.Logger().Enabled(context.Background(), slog.LevelError))
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	render.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer render.SetLogger(nil)

	d := rendertest.NewDriver()
	d.PhysicalDevices = append(d.PhysicalDevices, rendertest.PhysicalDevice{Name: "Fake GPU 1"})
	w := d.Window()
	ctx, err := render.NewContext(d, w, render.DefaultConfig())
	require.NoError(t, err)
	ctx.Destroy()

	out := buf.String()
	require.Contains(t, out, "level=WARN")
	require.Contains(t, out, "more than one physical device")
	require.Contains(t, out, `device="Fake GPU 0"`)
	require.Contains(t, out, "context destroyed")

	render.SetLogger(nil)
	require.False(t, render.Logger().Enabled(context.Background(), slog.LevelError))
}

func TestConfigLoggerOverridesPackageLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := render.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	d := rendertest.NewDriver()
	ctx, err := render.NewContext(d, d.Window(), cfg)
	require.NoError(t, err)
	ctx.Destroy()

	require.Contains(t, buf.String(), "physical device selected")
}
