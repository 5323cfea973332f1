package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/usecase/review"
	"github.com/urfave/cli/v3"
)

func memoriesCommand() *cli.Command {
	var (
		cfg config
		all bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "Include pending fragments (administrative listing)",
			Destination: &all,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "memories",
		Usage: "List verified memory fragments",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(os.Stderr)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			fragments, err := review.New(repo).List(ctx, all)
			if err != nil {
				return goerr.Wrap(err, "failed to list fragments")
			}

			if len(fragments) == 0 {
				fmt.Fprintf(c.Root().Writer, "No memories stored\n")
				return nil
			}

			for _, fragment := range fragments {
				printFragment(c, fragment)
			}
			return nil
		},
	}
}
