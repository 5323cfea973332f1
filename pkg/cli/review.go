package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/model"
	"github.com/m-mizutani/memoria/pkg/usecase/review"
	"github.com/urfave/cli/v3"
)

func reviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Review machine-extracted memory fragments",
		Commands: []*cli.Command{
			reviewListCommand(),
			reviewVerifyCommand(),
			reviewEditCommand(),
			reviewRejectCommand(),
		},
	}
}

func reviewListCommand() *cli.Command {
	var cfg config
	flags := globalFlags(&cfg)

	return &cli.Command{
		Name:  "list",
		Usage: "List fragments awaiting verification",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(os.Stderr)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			fragments, err := review.New(repo).ListPending(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list pending fragments")
			}

			if len(fragments) == 0 {
				fmt.Fprintf(c.Root().Writer, "No fragments pending review\n")
				return nil
			}

			for _, fragment := range fragments {
				printFragment(c, fragment)
			}
			return nil
		},
	}
}

func reviewVerifyCommand() *cli.Command {
	var (
		cfg        config
		fragmentID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "id",
			Aliases:     []string{"i"},
			Usage:       "Fragment ID to verify",
			Destination: &fragmentID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "verify",
		Usage: "Promote a pending fragment to verified",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(os.Stderr)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			if err := review.New(repo).Verify(ctx, model.FragmentID(fragmentID)); err != nil {
				return goerr.Wrap(err, "failed to verify fragment")
			}

			fmt.Fprintf(c.Root().Writer, "Verified %s\n", fragmentID)
			return nil
		},
	}
}

func reviewEditCommand() *cli.Command {
	var (
		cfg        config
		fragmentID string
		content    string
		category   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "id",
			Aliases:     []string{"i"},
			Usage:       "Fragment ID to edit",
			Destination: &fragmentID,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "content",
			Usage:       "New content (required, must be non-empty)",
			Destination: &content,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "category",
			Usage:       "New category (optional, keeps existing when omitted)",
			Destination: &category,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "edit",
		Usage: "Edit a fragment before verification",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(os.Stderr)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			fragment, err := review.New(repo).Edit(ctx, model.FragmentID(fragmentID), content, category)
			if err != nil {
				return goerr.Wrap(err, "failed to edit fragment")
			}

			printFragment(c, fragment)
			return nil
		},
	}
}

func reviewRejectCommand() *cli.Command {
	var (
		cfg        config
		fragmentID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "id",
			Aliases:     []string{"i"},
			Usage:       "Fragment ID to reject",
			Destination: &fragmentID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "reject",
		Usage: "Permanently delete a fragment",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger(os.Stderr)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}

			if err := review.New(repo).Reject(ctx, model.FragmentID(fragmentID)); err != nil {
				return goerr.Wrap(err, "failed to reject fragment")
			}

			fmt.Fprintf(c.Root().Writer, "Rejected %s\n", fragmentID)
			return nil
		},
	}
}

func printFragment(c *cli.Command, fragment *model.Fragment) {
	fmt.Fprintf(c.Root().Writer, "%s [%s] (%s)\n", fragment.ID, fragment.Category, fragment.State)
	fmt.Fprintf(c.Root().Writer, "   %s\n", fragment.Content)
	if fragment.Context != "" {
		fmt.Fprintf(c.Root().Writer, "   Context: %s\n", fragment.Context)
	}
	if fragment.MediaRef != "" {
		fmt.Fprintf(c.Root().Writer, "   Media: %s\n", fragment.MediaRef)
	}
	fmt.Fprintf(c.Root().Writer, "\n")
}
