// scenetool inspects scene files and renders them headless against the
// recording device.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Faultbox/trellis/internal/engine/material"
	"github.com/Faultbox/trellis/internal/engine/renderer"
	"github.com/Faultbox/trellis/internal/engine/scene"
	"github.com/Faultbox/trellis/internal/logger"
	"github.com/Faultbox/trellis/internal/scenefile"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "validate", "check":
		err = cmdValidate(os.Stdout, args)
	case "tree":
		err = cmdTree(os.Stdout, args)
	case "render", "run":
		err = cmdRender(os.Stdout, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`scenetool - trellis scene file utility

Usage:
  scenetool <command> [options] <scene.yaml>

Commands:
  validate <scene.yaml>              Parse and check references
  tree <scene.yaml>                  Print the node tree
  render [options] <scene.yaml>      Run frames on the recording device

Render options:
  -frames N        Frames to run (default 1)
  -dt SECONDS      Time step per frame (default 1/60)
  -fixed           Report a device without programmable shaders
  -no-shadows      Disable the shadow pass
  -occlusion       Enable occlusion fading
  -calls           Dump every device call of the last frame

Examples:
  scenetool tree demo.yaml
  scenetool render -frames 120 demo.yaml`)
}

func cmdValidate(w io.Writer, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: scenetool validate <scene.yaml>")
	}
	f, err := scenefile.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: ok (%d nodes, %d meshes, %d materials, %d textures)\n",
		args[0], countNodes(f.Nodes), len(f.Meshes), len(f.Materials), len(f.Textures))
	return nil
}

func cmdTree(w io.Writer, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: scenetool tree <scene.yaml>")
	}
	s, err := build(args[0], renderer.NewRecorder(), scene.DefaultOptions())
	if err != nil {
		return err
	}
	fmt.Fprint(w, s.Root().String())
	return nil
}

func cmdRender(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	frames := fs.Int("frames", 1, "Frames to run")
	dt := fs.Float64("dt", 1.0/60, "Time step per frame in seconds")
	fixed := fs.Bool("fixed", false, "Report a device without programmable shaders")
	noShadows := fs.Bool("no-shadows", false, "Disable the shadow pass")
	occlusion := fs.Bool("occlusion", false, "Enable occlusion fading")
	calls := fs.Bool("calls", false, "Dump device calls of the last frame")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: scenetool render [options] <scene.yaml>")
	}

	level := "warn"
	if *debug {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		return err
	}
	defer logger.Sync()

	rec := renderer.NewRecorder()
	rec.Caps.Programmable = !*fixed
	opts := scene.DefaultOptions()
	opts.Shadows = !*noShadows
	opts.OcclusionTesting = *occlusion

	s, err := build(fs.Arg(0), rec, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	var cfgErr, updateErr error
	for i := 0; i < *frames; i++ {
		rec.Reset()
		if err := s.Update(float32(*dt)); err != nil {
			updateErr = fmt.Errorf("frame %d: %w", i, err)
		}
		if err := s.Render(); err != nil {
			var ce *material.ConfigError
			if !errors.As(err, &ce) {
				return fmt.Errorf("frame %d render: %w", i, err)
			}
			cfgErr = err
		}
	}

	st := s.Stats()
	fmt.Fprintf(w, "frames:   %d\n", s.Renderer().Frames())
	fmt.Fprintf(w, "visited:  %d\n", st.Visited)
	fmt.Fprintf(w, "opaque:   %d\n", st.Opaque)
	fmt.Fprintf(w, "alpha:    %d\n", st.Alpha)
	fmt.Fprintf(w, "skipped:  %d\n", st.Skipped)
	fmt.Fprintf(w, "lights:   %d\n", st.Lights)
	fmt.Fprintf(w, "shadowed: %v\n", st.Shadowed)
	fmt.Fprintf(w, "last:     %s\n", st.Renderer)
	fmt.Fprintf(w, "total:    %s\n", s.Renderer().Totals())
	fmt.Fprintf(w, "order:    %s\n", strings.Join(s.DrawOrder(), ", "))
	if updateErr != nil {
		fmt.Fprintf(w, "update errors:\n  %s\n", strings.ReplaceAll(updateErr.Error(), "\n", "\n  "))
	}
	if cfgErr != nil {
		fmt.Fprintf(w, "config errors:\n  %s\n", strings.ReplaceAll(cfgErr.Error(), "\n", "\n  "))
	}
	if *calls {
		fmt.Fprintln(w)
		fmt.Fprint(w, rec.Dump())
	}
	return nil
}

func build(path string, rec *renderer.Recorder, opts scene.Options) (*scene.Scene, error) {
	f, err := scenefile.Load(path)
	if err != nil {
		return nil, err
	}
	s := scene.New(renderer.New(rec), nil, opts)
	if _, err := f.Build(s); err != nil {
		return nil, err
	}
	return s, nil
}

func countNodes(nodes []scenefile.NodeDesc) int {
	n := len(nodes)
	for _, nd := range nodes {
		n += countNodes(nd.Children)
	}
	return n
}
