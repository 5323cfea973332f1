package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/usecase/narrative"
	"github.com/urfave/cli/v3"
)

func synthesizeCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "synthesize",
		Usage: "Summarize verified memories into a single narrative",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(os.Stderr)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			result, err := narrative.New(repo, gemini, nil).Synthesize(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to synthesize narrative")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", result.Content)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	var (
		cfg     config
		subject string
		readKey string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "subject",
			Usage:       "Name of the person the memoir is about",
			Destination: &subject,
		},
		&cli.StringFlag{
			Name:        "read",
			Usage:       "Print a previously exported memoir by object key instead of compiling a new one",
			Destination: &readKey,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for exports",
			Sources:     cli.EnvVars("MEMORIA_EXPORT_BUCKET"),
			Destination: &cfg.bucket,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Compile verified memories into a memoir document",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(os.Stderr)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			storage, err := cfg.newStorage(ctx)
			if err != nil {
				return err
			}

			uc := narrative.New(repo, gemini, storage)

			if readKey != "" {
				doc, err := uc.Fetch(ctx, readKey)
				if err != nil {
					return goerr.Wrap(err, "failed to read memoir")
				}
				fmt.Fprint(c.Root().Writer, doc)
				return nil
			}

			key, err := uc.Export(ctx, subject)
			if err != nil {
				return goerr.Wrap(err, "failed to export memoir")
			}

			fmt.Fprintf(c.Root().Writer, "Memoir exported to %s\n", key)
			return nil
		},
	}
}
