// xchange is a CLI utility for inspecting model and finite-element imports.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/modelxchange/internal/config"
	"github.com/Faultbox/modelxchange/internal/fem"
	"github.com/Faultbox/modelxchange/internal/logger"
	"github.com/Faultbox/modelxchange/internal/shader"
	"github.com/Faultbox/modelxchange/pkg/formats"
	"github.com/Faultbox/modelxchange/pkg/gpu"
	"github.com/Faultbox/modelxchange/pkg/scenegraph"
	"github.com/Faultbox/modelxchange/pkg/xchange"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "formats":
		cmdFormats(args)
	case "info":
		cmdInfo(args)
	case "tree":
		cmdTree(args)
	case "nas":
		cmdNastran(args)
	case "shaders":
		cmdShaders(args)
	case "watch":
		cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`xchange - model import utility

Usage:
  xchange <command> [options]

Commands:
  formats                List readable extensions and their features
  info <file>            Import a file and summarize the scene graph
  tree <file>            Import a file and print the scene graph
  nas <file.nas>         Show Nastran record counts and temperature range
  shaders <file>         Compile every material shader variant of a file
  watch <file>           Re-import a file whenever it changes

Options (info, tree, shaders, watch):
  -config <file>         Config file (.yaml or .toml)
  -path <dirs>           Extra search directories, separated by ';'
  -smooth-normals        Generate smooth normals
  -sharp-normals         Generate flat normals
  -crease <degrees>      Crease angle for smooth normals
  -two-sided             Disable back-face culling
  -up <axis>             Up axis of the scene (x-up, y-up, z-up)
  -debug                 Enable debug logging

Examples:
  xchange info robot.glb
  xchange tree -up y-up scene.gltf
  xchange nas -n 5 plate.nas
  xchange watch -path ./textures house.obj`)
}

// setup parses the shared flags of a command, initializes logging and
// returns the reader options and positional arguments.
func setup(name string, args []string) (*xchange.Options, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	opts, err := cfg.ReaderOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	return opts, fs.Args()
}

func requireFile(command string, args []string) string {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Usage: xchange %s <file>\n", command)
		os.Exit(1)
	}
	return args[0]
}

func read(path string, opts *xchange.Options) scenegraph.Node {
	root, err := xchange.Default().Read(path, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return root
}

func cmdFormats(args []string) {
	reg := xchange.Default()
	features := reg.Features()

	fmt.Println("Extensions:")
	for _, ext := range reg.Extensions() {
		fmt.Printf("  %-6s %s\n", ext, features.Extensions[ext])
	}
	fmt.Println()
	fmt.Println("Options:")
	for _, o := range features.Options {
		fmt.Printf("  %-24s %s\n", o.Name, o.Type)
	}
}

func cmdInfo(args []string) {
	opts, rest := setup("info", args)
	path := requireFile("info", rest)
	defer logger.Sync()

	printSummary(path, read(path, opts))
}

// printSummary prints node counts, geometry totals and material pipelines.
func printSummary(path string, root scenegraph.Node) {
	count := scenegraph.CountNodes(root)

	var vertices, triangles, wide int
	pipelines := make(map[string]int)
	scenegraph.Walk(root, func(n scenegraph.Node, _ int) bool {
		switch v := n.(type) {
		case *scenegraph.VertexIndexDraw:
			vertices += v.VertexCount()
			triangles += int(v.IndexCount) / 3
			if v.Indices.Width() == 32 {
				wide++
			}
		case *scenegraph.StateGroup:
			if v.State != nil && v.State.Pipeline != nil {
				pipelines[v.State.Pipeline.Pipeline.Key()]++
			}
		}
		return true
	})

	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Transforms: %d\n", count.Transforms)
	fmt.Printf("States:     %d\n", count.States)
	fmt.Printf("Draws:      %d (%d with 32-bit indices)\n", count.Draws, wide)
	fmt.Printf("Vertices:   %d\n", vertices)
	fmt.Printf("Triangles:  %d\n", triangles)
	fmt.Printf("Cameras:    %d\n", count.Cameras)
	fmt.Printf("Lights:     %d\n", count.Lights)
	fmt.Println()
	fmt.Println("Pipelines:")

	keys := make([]string, 0, len(pipelines))
	for k := range pipelines {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Printf("  %3d  %s\n", pipelines[k], k)
	}
}

func cmdTree(args []string) {
	opts, rest := setup("tree", args)
	path := requireFile("tree", rest)
	defer logger.Sync()

	root := read(path, opts)
	scenegraph.Walk(root, func(n scenegraph.Node, depth int) bool {
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), describe(n))
		return true
	})
}

func describe(n scenegraph.Node) string {
	switch v := n.(type) {
	case *scenegraph.MatrixTransform:
		t := v.Matrix.Col(3)
		return fmt.Sprintf("MatrixTransform translate=(%.3g, %.3g, %.3g)", t[0], t[1], t[2])
	case *scenegraph.StateGroup:
		if v.State == nil || v.State.Pipeline == nil {
			return "StateGroup (inherited)"
		}
		return fmt.Sprintf("StateGroup %s", v.State.Pipeline.Pipeline.Key())
	case *scenegraph.VertexIndexDraw:
		return v.String()
	case *scenegraph.Camera:
		return fmt.Sprintf("Camera %q fovy=%.1f aspect=%.2f", v.Name, v.Projection.FieldOfViewY, v.Projection.AspectRatio)
	case *scenegraph.Light:
		return fmt.Sprintf("Light %q %s", v.Name, v.Kind)
	case *scenegraph.Group:
		return "Group"
	default:
		return fmt.Sprintf("%T", n)
	}
}

func cmdNastran(args []string) {
	fs := flag.NewFlagSet("nas", flag.ExitOnError)
	limit := fs.Int("n", 0, "Print the first N grid points (0 = none)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: xchange nas [-n N] <file.nas>")
		os.Exit(1)
	}

	n, err := formats.ParseNastranFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File:         %s\n", fs.Arg(0))
	fmt.Printf("Grid points:  %d\n", len(n.GridIDs))
	fmt.Printf("Triangles:    %d (CTRIA3 %d, QUAD4 %d)\n", n.TriangleCount(), n.Triangles, n.Quads)
	fmt.Printf("Temperatures: %d\n", len(n.TempIDs))
	if len(n.Temperatures) > 0 {
		fmt.Printf("Range:        %g .. %g\n", slices.Min(n.Temperatures), slices.Max(n.Temperatures))
	}
	if err := fem.CheckIDs(n.GridIDs, n.TempIDs); err != nil {
		fmt.Printf("Ids:          %v\n", err)
	} else {
		fmt.Println("Ids:          ok")
	}

	for i := 0; i < *limit && i < len(n.GridIDs); i++ {
		p := n.Grids[i]
		fmt.Printf("  GRID %-8d (%g, %g, %g)\n", n.GridIDs[i], p[0], p[1], p[2])
	}
}

func cmdShaders(args []string) {
	opts, rest := setup("shaders", args)
	path := requireFile("shaders", rest)
	defer logger.Sync()

	root := read(path, opts)

	seen := make(map[string]bool)
	var pipelines []*gpu.GraphicsPipeline
	scenegraph.Walk(root, func(n scenegraph.Node, _ int) bool {
		if sg, ok := n.(*scenegraph.StateGroup); ok && sg.State != nil && sg.State.Pipeline != nil {
			p := sg.State.Pipeline.Pipeline
			if key := p.Key(); !seen[key] {
				seen[key] = true
				pipelines = append(pipelines, p)
			}
		}
		return true
	})

	ctx, err := shader.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	failed := 0
	for _, p := range pipelines {
		if err := shader.ValidatePipeline(p); err != nil {
			failed++
			fmt.Printf("FAIL %v\n", err)
			continue
		}
		fmt.Printf("ok   %s\n", p.Key())
	}
	fmt.Printf("\n%d variants, %d failed\n", len(pipelines), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func cmdWatch(args []string) {
	opts, rest := setup("watch", args)
	path := requireFile("watch", rest)
	defer logger.Sync()

	abs, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer watcher.Close()

	// Editors often replace files, so watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	reload := func() {
		root, err := xchange.Default().Read(abs, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		printSummary(abs, root)
		fmt.Println()
	}
	reload()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	for {
		select {
		case <-interrupt:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				logger.Info("file changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
				reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
