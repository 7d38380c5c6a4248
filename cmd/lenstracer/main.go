package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"

	"github.com/lukaszgryglicki/lenstracer/internal/lenstracer"
)

func envBool(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v != ""
	}
	return b
}

func main() {
	lenstracer.Debug = os.Getenv("DEBUG") != ""
	lenstracer.PNG = envBool("PNG", true)
	lenstracer.PNG16 = os.Getenv("PNG16") != ""
	lenstracer.BMP = os.Getenv("BMP") != ""
	lenstracer.RAW = os.Getenv("RAW") != ""
	lenstracer.GIF = os.Getenv("GIF") != ""
	lenstracer.Progress = envBool("PROGRESS", true)
	if w, err := strconv.Atoi(os.Getenv("WORKERS")); err == nil {
		lenstracer.Workers = w
	}

	level := slog.LevelInfo
	if lenstracer.Debug {
		level = slog.LevelDebug
	}
	lenstracer.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if os.Getenv("PROFILE") != "" {
		f, err := os.Create("cpu.out")
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	cfg := "scenes/config.json"
	if len(os.Args) > 1 {
		cfg = os.Args[1]
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := lenstracer.Run(ctx, cfg)
	stop()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
