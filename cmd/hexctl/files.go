package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"

	"github.com/talgya/hexworlds/internal/client"
	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/render"
	"github.com/talgya/hexworlds/internal/world"
)

func runExport(ctx context.Context, c *client.Client, args []string) error {
	fs := flags("export")
	out := fs.StringP("out", "o", "", "output file (default stdout, or a dated name with --dated)")
	dated := fs.Bool("dated", false, "name the file hexworld_YYYY-MM-DD.json")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	data, err := c.Export(ctx)
	if err != nil {
		return err
	}
	path := *out
	if path == "" && *dated {
		path = fmt.Sprintf("hexworld_%s.json", time.Now().Format("2006-01-02"))
	}
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
	return nil
}

func runImport(ctx context.Context, c *client.Client, args []string) error {
	fs := flags("import")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("import takes one world file")
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	counts, err := c.Import(ctx, data)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d hexes, %d tokens, %d paths.\n", counts.Hexes, counts.Tokens, counts.Paths)
	return nil
}

func runGenerate(ctx context.Context, c *client.Client, args []string) error {
	fs := flags("generate")
	radius := fs.IntP("radius", "r", 0, "map radius in hexes (1-64)")
	seed := fs.Int64("seed", 0, "noise seed")
	sea := fs.Float64("sea-level", 0, "elevation below which hexes are water")
	mountain := fs.Float64("mountain-level", 0, "elevation above which hexes are mountains")
	rivers := fs.Int("rivers", 0, "maximum number of rivers")
	fs.Parse(args)

	// Only flags given on the command line override the server's defaults.
	var req client.GenerateRequest
	if fs.Changed("radius") {
		req.Radius = radius
	}
	if fs.Changed("seed") {
		req.Seed = seed
	}
	if fs.Changed("sea-level") {
		req.SeaLevel = sea
	}
	if fs.Changed("mountain-level") {
		req.MountainLevel = mountain
	}
	if fs.Changed("rivers") {
		req.Rivers = rivers
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	st, err := c.Generate(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("Generated %s hexes and %d paths.\n", humanize.Comma(int64(st.Counts.Hexes)), st.Counts.Paths)
	return nil
}

func runSave(ctx context.Context, c *client.Client, args []string) error {
	flags("save").Parse(args)
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := c.Save(ctx); err != nil {
		return err
	}
	fmt.Println("Saved.")
	return nil
}

func runShare(ctx context.Context, c *client.Client, args []string) error {
	fs := flags("share")
	noCopy := fs.Bool("no-copy", false, "do not copy the link to the clipboard")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	share, err := c.Share(ctx)
	if err != nil {
		return err
	}
	fmt.Println(share.URL)
	if *noCopy {
		return nil
	}
	if err := clipboard.WriteAll(share.URL); err != nil {
		fmt.Fprintln(os.Stderr, "could not copy link:", err)
		return nil
	}
	fmt.Fprintln(os.Stderr, "Link copied to clipboard.")
	return nil
}

func runRender(ctx context.Context, c *client.Client, args []string) error {
	fs := flags("render")
	out := fs.StringP("out", "o", "map.png", "output PNG")
	minimap := fs.Bool("minimap", false, "render the minimap instead of the main view")
	file := fs.StringP("file", "f", "", "render this world file locally instead of asking the server")
	width := fs.Int("width", 1280, "canvas width for --file")
	height := fs.Int("height", 800, "canvas height for --file")
	fs.Parse(args)

	var data []byte
	var err error
	if *file != "" {
		data, err = renderFile(*file, *width, *height, *minimap)
	} else {
		rctx, cancel := context.WithTimeout(ctx, requestTimeout)
		data, err = c.Render(rctx, *minimap)
		cancel()
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%s)\n", *out, humanize.Bytes(uint64(len(data))))
	return nil
}

// renderFile draws a world file without a server. width and height size
// whichever surface is requested.
func renderFile(path string, width, height int, minimap bool) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas %dx%d: must be positive", width, height)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := document.New()
	if err := doc.Import(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	miniW, miniH := 0, 0
	if minimap {
		miniW, miniH = width, height
	}
	p := render.NewPipeline(width, height, miniW, miniH, nil)
	layout := world.Layout{HexSize: doc.HexSize(), Width: width, Height: height, View: doc.View}
	p.Commit(doc, render.NewScene(layout), time.Now())

	frame := p.MainFrame()
	if minimap {
		frame = p.MinimapFrame()
	}
	if frame == nil {
		return nil, errors.New("nothing to render")
	}
	return frame.PNG()
}
