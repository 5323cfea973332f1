package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/usecase/extract"
	"github.com/m-mizutani/memoria/pkg/usecase/interview"
	"github.com/m-mizutani/memoria/pkg/usecase/retrieval"
	"github.com/urfave/cli/v3"
)

func interviewCommand() *cli.Command {
	var cfg config

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "profile",
			Usage:       "Path to interviewer profile YAML",
			Sources:     cli.EnvVars("MEMORIA_PROFILE"),
			Destination: &cfg.profilePath,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "interview",
		Usage: "Start an interactive life-story interview",
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

			profile, err := cfg.loadProfile()
			if err != nil {
				return err
			}

			dispatcher := extract.NewDispatcher(extract.New(repo, gemini), 0)
			defer dispatcher.Close()

			session, err := interview.New(ctx, interview.NewInput{
				Repo:       repo,
				Gemini:     gemini,
				Retrieval:  retrieval.New(repo, gemini),
				Dispatcher: dispatcher,
				Profile:    profile,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create interview session")
			}

			rl, err := readline.New("you> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize prompt")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Interview session %s started. Type 'exit' to finish.\n", session.ID())

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Start()
				started := false

				_, err = session.SendStream(ctx, message, func(chunk string) {
					if !started {
						sp.Stop()
						started = true
					}
					fmt.Fprint(c.Root().Writer, chunk)
				})
				if !started {
					sp.Stop()
				}
				if err != nil {
					return goerr.Wrap(err, "failed to send message")
				}

				fmt.Fprintln(c.Root().Writer)
			}

			// Close drains queued extractions before the process exits
			fmt.Fprintf(c.Root().Writer, "\nInterview finished. Extracted memories await review.\n")
			return nil
		},
	}
}
