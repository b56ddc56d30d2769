package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"nmapgraph/internal/adapter"
	"nmapgraph/internal/logging"
	"nmapgraph/internal/watcher"
)

func newIngestCmd(flags *globalFlags) *cobra.Command {
	var (
		format string
		watch  bool
	)

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a saved nmap scan",
		Long: `Read nmap output from a file, or from standard input when no file (or "-")
is given. Lines starting with '#' are ignored.

With --watch the file is ingested again every time it is rewritten, until
the command is interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, flags)
			if err != nil {
				return err
			}

			path := adapter.StdinPath
			if len(args) == 1 {
				path = args[0]
			}
			if watch && path == adapter.StdinPath {
				return fmt.Errorf("--watch needs a file argument")
			}

			src, err := adapter.NewFileSource(path, format)
			if err != nil {
				return err
			}
			src.WithStdin(cmd.InOrStdin())

			p, err := newPipeline(rt, flags.output, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer p.Close()

			err = p.run(cmd.Context(), src)
			if !watch {
				return err
			}
			if err != nil {
				rt.logger.Error().Err(err).Msg("Ingest failed")
			}

			w := watcher.New(path, func(ctx context.Context) {
				if err := p.run(ctx, src); err != nil {
					rt.logger.Error().Err(err).Msg("Ingest failed")
				}
			}).WithLogger(logging.WithComponent(rt.logger, "watcher"))

			err = w.Watch(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "xml", "input format (xml, json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-ingest the file whenever it changes")

	return cmd
}
