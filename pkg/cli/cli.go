package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "memoria",
		Usage: "AI biographer that preserves life stories as verified memories",
		Commands: []*cli.Command{
			interviewCommand(),
			reviewCommand(),
			memoriesCommand(),
			seedCommand(),
			synthesizeCommand(),
			exportCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
