// Command mazegen generates, renders and uploads mazes from the command line.
//
//	mazegen -rows 21 -cols 31 -seed 7 -o maze.txt
//	mazegen -rows 21 -cols 31 -o maze.png -width 800 -dpr 2
//	mazegen render maze.txt -o maze.png
//	mazegen upload --api http://localhost:8000 maze.txt
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mazeplay/game/editor"
	"github.com/wricardo/mazeplay/game/generator"
	"github.com/wricardo/mazeplay/game/grid"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/transport/rest"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatalf("mazegen: %v", err)
	}
}

func renderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{Name: "width", Value: 620, Usage: "container width in logical pixels for PNG output"},
		&cli.FloatFlag{Name: "dpr", Value: 1, Usage: "device pixel ratio for PNG output"},
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "mazegen",
		Usage:  "generate, render and upload mazes",
		Writer: out,
		Flags: append([]cli.Flag{
			&cli.IntFlag{Name: "rows", Value: 15, Usage: "grid rows"},
			&cli.IntFlag{Name: "cols", Value: 15, Usage: "grid columns"},
			&cli.IntFlag{Name: "seed", Usage: "generator seed (random when 0)"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "-", Usage: "output file (.txt or .png), - for stdout"},
		}, renderFlags()...),
		Action: generateAction,
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "render a maze file to PNG",
				ArgsUsage: "<maze.txt>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output PNG (defaults to the input name with .png)"},
				}, renderFlags()...),
				Action: renderAction,
			},
			{
				Name:      "upload",
				Usage:     "validate maze files and upload them to the maze store",
				ArgsUsage: "<maze.txt>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api",
						Value:   "http://localhost:8000",
						Usage:   "maze store base URL",
						Sources: cli.EnvVars("MAZE_API_URL"),
					},
				},
				Action: uploadAction,
			},
		},
	}
}

func generateAction(ctx context.Context, cmd *cli.Command) error {
	rows, cols := cmd.Int("rows"), cmd.Int("cols")
	if rows < 1 || cols < 1 || rows > editor.MaxDimension || cols > editor.MaxDimension {
		return fmt.Errorf("size %dx%d must be between 1 and %d", rows, cols, editor.MaxDimension)
	}

	gen := generator.New(int64(cmd.Int("seed")))
	m, err := gen.NewMaze(rows, cols)
	if err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "-" {
		_, err := io.WriteString(cmd.Root().Writer, m.String())
		return err
	}
	if err := writeMaze(out, m, layoutFrom(cmd)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "wrote %s (%dx%d, seed %d)\n", out, rows, cols, gen.Seed())
	return nil
}

func renderAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("render takes exactly one maze file")
	}
	in := cmd.Args().First()
	m, err := readMaze(in)
	if err != nil {
		return err
	}

	out := cmd.String("out")
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".png"
	}
	if filepath.Ext(out) != ".png" {
		return fmt.Errorf("render output must be a .png file, got %s", out)
	}
	if err := writeMaze(out, m, layoutFrom(cmd)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", out)
	return nil
}

func uploadAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return fmt.Errorf("upload needs at least one maze file")
	}
	client := rest.NewClient(cmd.String("api"))

	for _, path := range cmd.Args().Slice() {
		m, err := readMaze(path)
		if err != nil {
			return err
		}
		name := filepath.Base(path)
		if err := client.Upload(ctx, name, m.String()); err != nil {
			return fmt.Errorf("failed to upload %s: %w", name, err)
		}
		fmt.Fprintf(cmd.Root().Writer, "uploaded %s (%dx%d)\n", name, m.Rows(), m.Cols())
	}
	return nil
}

func layoutFrom(cmd *cli.Command) render.Layout {
	return render.Layout{Width: cmd.Float("width"), DPR: cmd.Float("dpr")}
}

// readMaze parses a maze file and checks its start and goal markers.
func readMaze(path string) (*grid.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := grid.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// writeMaze writes m as text or, for a .png path, as a rendered surface.
func writeMaze(path string, m *grid.Grid, layout render.Layout) error {
	switch filepath.Ext(path) {
	case ".txt":
		return os.WriteFile(path, []byte(m.String()), 0644)
	case ".png":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		s := render.NewSurface(render.Options{}, layout)
		s.Draw(m)
		return s.EncodePNG(f)
	}
	return fmt.Errorf("unsupported output %s: use .txt or .png", path)
}
