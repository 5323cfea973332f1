package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/urfave/cli/v3"
)

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Manage topic suggestions for future interviews",
		Commands: []*cli.Command{
			seedAddCommand(),
			seedListCommand(),
		},
	}
}

func seedAddCommand() *cli.Command {
	var (
		cfg     config
		content string
		addedBy string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "content",
			Usage:       "Topic to suggest, e.g. 'Ask about the wedding in 1968'",
			Destination: &content,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "by",
			Usage:       "Who suggested the topic",
			Destination: &addedBy,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "add",
		Usage: "Add a topic seed",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(os.Stderr)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			seed := &model.Seed{
				ID:        model.NewSeedID(),
				Content:   content,
				AddedBy:   addedBy,
				CreatedAt: time.Now(),
			}
			if err := repo.PutSeed(ctx, seed); err != nil {
				return goerr.Wrap(err, "failed to save seed")
			}

			fmt.Fprintf(c.Root().Writer, "Added seed %s\n", seed.ID)
			return nil
		},
	}
}

func seedListCommand() *cli.Command {
	var cfg config
	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:  "list",
		Usage: "List active topic seeds",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(os.Stderr)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			seeds, err := repo.ListActiveSeeds(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list seeds")
			}

			if len(seeds) == 0 {
				fmt.Fprintf(c.Root().Writer, "No active seeds\n")
				return nil
			}

			for _, seed := range seeds {
				fmt.Fprintf(c.Root().Writer, "%s: %s", seed.ID, seed.Content)
				if seed.AddedBy != "" {
					fmt.Fprintf(c.Root().Writer, " (from %s)", seed.AddedBy)
				}
				fmt.Fprintf(c.Root().Writer, "\n")
			}
			return nil
		},
	}
}
