package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"bibhub/internal/events"
)

func (a *app) watchCommand() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "watch <host:port | ws://host:port/ws>",
		Short: "Print pipeline events as they are published, reconnecting on loss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			for {
				err := events.Watch(ctx, args[0], func(line []byte) { printEvent(out, line, pretty) })
				if ctx.Err() != nil {
					return nil
				}
				a.logger.Warn().Err(err).Str("target", args[0]).Msg("disconnected")

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", true, "indent JSON events")
	return cmd
}

func printEvent(w io.Writer, line []byte, pretty bool) {
	if !pretty {
		fmt.Fprintln(w, string(line))
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, line, "", "  "); err != nil {
		fmt.Fprintln(w, string(line))
		return
	}
	fmt.Fprintln(w, buf.String())
}
