package lenstracer

import (
	"context"
	"os"
	"strings"
	"time"
)

// Run renders the scene described by the config at cfgPath and writes the
// outputs selected by the package switches.
func Run(ctx context.Context, cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	r, err := cfg.Build()
	if err != nil {
		return err
	}
	if Debug {
		DumpScene(os.Stdout, r.Tracer.Scene)
	}

	var (
		last   *Frame
		frames []*Frame
	)
	start := time.Now()
	err = r.Run(ctx, cfg.Frames, func(f *Frame) error {
		last = f
		if GIF {
			frames = append(frames, f)
		}
		r.Camera.Rot.Y += cfg.YawStepDeg
		return nil
	})
	if err != nil {
		return err
	}
	DebugLog("Frames: %d, time: %s", cfg.Frames, time.Since(start))
	if Debug {
		r.Tracer.Stats.Print(os.Stdout)
	}
	if last == nil {
		return nil
	}
	return saveOutputs(cfg, last, frames)
}

func saveOutputs(cfg *Config, last *Frame, frames []*Frame) error {
	base := strings.TrimSuffix(cfg.Out, ".png")
	log := Logger().With("frame", last.ID.String())
	type output struct {
		on   bool
		path string
		save func(string) error
	}
	outputs := []output{
		{PNG, base + ".png", func(p string) error { return SavePNG(last, p) }},
		{PNG16, base + "_16.png", func(p string) error { return SavePNG16(last, p, cfg.Gamma) }},
		{BMP, base + ".bmp", func(p string) error { return SaveBMP(last, p) }},
		{RAW, base + ".raw", func(p string) error { return SaveRawRGB64(last, p) }},
		{GIF && len(frames) > 0, base + ".gif", func(p string) error { return SaveAnimatedGIF(frames, p, cfg.GIFDelay) }},
	}
	for _, o := range outputs {
		if !o.on {
			continue
		}
		if err := o.save(o.path); err != nil {
			return err
		}
		log.Info("saved", "path", o.path)
	}
	return nil
}
