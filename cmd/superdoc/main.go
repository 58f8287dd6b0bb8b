package main

import (
	"fmt"
	"log"
	"os"

	"github.com/harbour-enterprises/superdoc-go/superdoc"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "superdoc",
		Usage: "convert and modify DOCX documents through the SuperDoc runtime",
		After: func(ctx *cli.Context) error {
			return superdoc.Shutdown()
		},
		Commands: []*cli.Command{
			{
				Name:      "html",
				Usage:     "Convert a DOCX file to HTML.",
				ArgsUsage: "<file>",
				Action: func(ctx *cli.Context) error {
					out, err := superdoc.ToHTML(ctx.Context, requireFileArg(ctx))
					if err != nil {
						return err
					}
					fmt.Println(out)
					return nil
				},
			},
			{
				Name:      "markdown",
				Usage:     "Convert a DOCX file to Markdown.",
				ArgsUsage: "<file>",
				Action: func(ctx *cli.Context) error {
					out, err := superdoc.ToMarkdown(ctx.Context, requireFileArg(ctx))
					if err != nil {
						return err
					}
					fmt.Println(out)
					return nil
				},
			},
			{
				Name:      "json",
				Usage:     "Convert a DOCX file to its ProseMirror document tree.",
				ArgsUsage: "<file>",
				Action: func(ctx *cli.Context) error {
					out, err := superdoc.ToJSON(ctx.Context, requireFileArg(ctx))
					if err != nil {
						return err
					}
					fmt.Println(out.Raw)
					return nil
				},
			},
			{
				Name:      "metadata",
				Usage:     "Print a DOCX file's metadata.",
				ArgsUsage: "<file>",
				Action: func(ctx *cli.Context) error {
					out, err := superdoc.Metadata(ctx.Context, requireFileArg(ctx))
					if err != nil {
						return err
					}
					fmt.Println(out.Raw)
					return nil
				},
			},
			{
				Name:      "insert",
				Usage:     "Insert HTML content into a DOCX file and save the result.",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "content",
						Usage:    "HTML content to insert.",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Path to write the modified document to.",
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					return superdoc.InsertAndSave(ctx.Context, requireFileArg(ctx), ctx.String("content"), ctx.String("output"))
				},
			},
			{
				Name:      "export",
				Usage:     "Load a DOCX file and export it back out (round-trip validation).",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Path to write the exported document to.",
						Required: true,
					},
				},
				Action: func(ctx *cli.Context) error {
					_, err := superdoc.Export(ctx.Context, requireFileArg(ctx), ctx.String("output"))
					return err
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func requireFileArg(ctx *cli.Context) string {
	file := ctx.Args().First()
	if file == "" {
		log.Fatal("a DOCX file argument is required")
	}
	return file
}
