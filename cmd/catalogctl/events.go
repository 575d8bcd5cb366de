package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/config"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/event"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

type eventsOptions struct {
	url    string
	prefix string
	raw    bool
}

func newEventsCmd() *cobra.Command {
	opts := eventsOptions{}
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Follow the domain events a server relays to NATS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := event.ConnectNATS(config.EventsConfig{
				URL:           opts.url,
				ClientName:    "catalogctl",
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
			}, nil)
			if err != nil {
				return err
			}
			defer conn.Close()
			return followEvents(cmd, conn, opts)
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", nats.DefaultURL, "NATS server URL")
	cmd.Flags().StringVar(&opts.prefix, "prefix", event.DefaultSubjectPrefix, "subject prefix the server publishes under")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print each event payload as JSON")
	return cmd
}

func followEvents(cmd *cobra.Command, conn *nats.Conn, opts eventsOptions) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s.>\n", headerStyle.Render("following"), opts.prefix)
	return event.Tail(cmd.Context(), conn, opts.prefix, func(subject string, env *event.Envelope, ev shared.DomainEvent, err error) {
		printEvent(out, subject, env, ev, err, opts.raw)
	})
}

func printEvent(out io.Writer, subject string, env *event.Envelope, ev shared.DomainEvent, err error, raw bool) {
	if err != nil {
		fmt.Fprintf(out, "%s %s: %v\n", errorStyle.Render("undecodable"), subject, err)
		return
	}
	fmt.Fprintf(out, "%s  %-30s %s %s\n",
		env.OccurredAt.Local().Format(time.TimeOnly),
		env.Type,
		env.AggregateType,
		env.AggregateID,
	)
	if ev == nil {
		fmt.Fprintf(out, "  %s\n", warningStyle.Render("unknown event type"))
		return
	}
	if raw {
		if payload, err := json.Marshal(ev); err == nil {
			fmt.Fprintf(out, "  %s\n", payload)
		}
	}
}
