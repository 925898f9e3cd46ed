package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/events"
)

type eventsOptions struct {
	typeFilter string
	subject    string
	since      string
	limit      int
	follow     bool
	timeout    string
}

func newEventsCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts eventsOptions
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the project event log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := openRecorder(stderr)
			if err != nil {
				fmt.Fprintf(stderr, "iotwb events: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			defer rec.Close() //nolint:errcheck // best-effort close
			if opts.follow {
				if doEventsFollow(cmd.Context(), rec, opts, stdout, stderr) != 0 {
					return errExit
				}
				return nil
			}
			if doEvents(rec, opts, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.typeFilter, "type", "", "Filter by event type (e.g. project.created)")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "Filter by project root")
	cmd.Flags().StringVar(&opts.since, "since", "", "Show events since duration ago (e.g. 1h, 30m)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Show only the last N matching events (0 = all)")
	cmd.Flags().BoolVar(&opts.follow, "follow", false, "Print new events as JSON lines as they arrive")
	cmd.Flags().StringVar(&opts.timeout, "timeout", "0", "Stop following after this duration (0 = never)")
	return cmd
}

func (o eventsOptions) filter() (events.Filter, error) {
	f := events.Filter{Type: o.typeFilter, Subject: o.subject, Limit: o.limit}
	if o.since != "" {
		d, err := time.ParseDuration(o.since)
		if err != nil {
			return f, fmt.Errorf("invalid --since %q: %w", o.since, err)
		}
		f.Since = time.Now().Add(-d)
	}
	return f, nil
}

// doEvents lists events from p. Accepts the provider directly for
// testability.
func doEvents(p events.Provider, opts eventsOptions, stdout, stderr io.Writer) int {
	filter, err := opts.filter()
	if err != nil {
		fmt.Fprintf(stderr, "iotwb events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	evts, err := p.List(filter)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if len(evts) == 0 {
		fmt.Fprintln(stdout, "No events.") //nolint:errcheck // best-effort stdout
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tTYPE\tACTOR\tSUBJECT\tMESSAGE\tTIME") //nolint:errcheck // best-effort stdout
	for _, e := range evts {
		msg := e.Message
		if len(msg) > 40 {
			msg = msg[:37] + "..."
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", //nolint:errcheck // best-effort stdout
			e.Seq, e.Type, e.Actor, e.Subject, msg,
			e.Ts.Format("2006-01-02 15:04:05"),
		)
	}
	tw.Flush() //nolint:errcheck // best-effort stdout
	return 0
}

// doEventsFollow prints events recorded after the current head as JSON
// lines until the timeout expires or ctx ends. Returns 0 on a clean stop.
func doEventsFollow(ctx context.Context, p events.Watchable, opts eventsOptions, stdout, stderr io.Writer) int {
	filter, err := opts.filter()
	if err != nil {
		fmt.Fprintf(stderr, "iotwb events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	timeout, err := time.ParseDuration(opts.timeout)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb events: invalid --timeout %q: %v\n", opts.timeout, err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	head, err := p.LatestSeq()
	if err != nil {
		fmt.Fprintf(stderr, "iotwb events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	w, err := p.Watch(ctx, head)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb events: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer w.Close() //nolint:errcheck // best-effort close

	for {
		e, err := w.Next()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return 0
		}
		if err != nil {
			fmt.Fprintf(stderr, "iotwb events: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		if (filter.Type != "" && e.Type != filter.Type) || (filter.Subject != "" && e.Subject != filter.Subject) {
			continue
		}
		data, err := json.Marshal(e)
		if err != nil {
			fmt.Fprintf(stderr, "iotwb events: marshal: %v\n", err) //nolint:errcheck // best-effort stderr
			continue
		}
		fmt.Fprintln(stdout, string(data)) //nolint:errcheck // best-effort stdout
	}
}
