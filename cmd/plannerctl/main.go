package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"asiops/internal/planner"
	"asiops/internal/planner/render"
	"asiops/internal/planner/snapshot"
	"asiops/pkg/client"
	"asiops/pkg/model"
)

const fetchTimeout = 15 * time.Second

type options struct {
	snapshotPath string
	server       string
	mode         string
	anchor       string
	now          string
	timeZone     string
	cellWidth    int
	plain        bool

	decide    string
	decision  string
	decidedBy string
	note      string
}

func main() {
	var opts options
	flag.StringVar(&opts.snapshotPath, "snapshot", "", "path to a YAML planner snapshot")
	flag.StringVar(&opts.server, "server", "", "planner service base URL to fetch a snapshot from (e.g. http://localhost:8080)")
	flag.StringVar(&opts.mode, "mode", string(planner.ModeWeek), "view mode: day, week or month")
	flag.StringVar(&opts.anchor, "anchor", "", "anchor date YYYY-MM-DD (defaults to today)")
	flag.StringVar(&opts.now, "now", "", "RFC3339 instant used for EOT detection (defaults to the snapshot's, then the clock)")
	flag.StringVar(&opts.timeZone, "tz", "", "IANA time zone (defaults to the snapshot's, then UTC)")
	flag.IntVar(&opts.cellWidth, "width", 10, "characters per day column")
	flag.BoolVar(&opts.plain, "plain", false, "disable colours and borders")
	flag.StringVar(&opts.decide, "decide", "", "booking id to record an EOT decision for (requires -server)")
	flag.StringVar(&opts.decision, "decision", "", "EOT decision: not_required or requested")
	flag.StringVar(&opts.decidedBy, "by", "", "name recorded as the decision maker")
	flag.StringVar(&opts.note, "note", "", "optional note stored with the decision")
	flag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		die("%v", err)
	}
}

func run(opts options, out io.Writer) error {
	if opts.decide != "" {
		return decide(opts, out)
	}

	doc, err := loadDocument(opts)
	if err != nil {
		return err
	}

	loc, err := resolveLocation(opts.timeZone, doc.TimeZone)
	if err != nil {
		return err
	}
	now, err := resolveNow(opts.now, doc.Now)
	if err != nil {
		return err
	}
	mode, err := planner.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	anchor := now.In(loc)
	if strings.TrimSpace(opts.anchor) != "" {
		anchor, err = time.ParseInLocation(planner.DateLayout, opts.anchor, loc)
		if err != nil {
			return fmt.Errorf("anchor must be YYYY-MM-DD: %w", err)
		}
	}

	view := planner.BuildView(doc.Snapshot, planner.Request{Mode: mode, Anchor: anchor}, loc)
	candidates := planner.DetectEOT(doc.Snapshot.Bookings, doc.Snapshot.Jobs, now, loc)

	r := render.New(render.Options{CellWidth: opts.cellWidth, Plain: opts.plain})
	if _, err := fmt.Fprint(out, r.Grid(view)); err != nil {
		return err
	}
	_, err = fmt.Fprint(out, "\n"+r.Candidates(candidates))
	return err
}

// decide records an EOT decision on the server, then prints what is still
// awaiting one.
func decide(opts options, out io.Writer) error {
	if opts.server == "" {
		return fmt.Errorf("-decide requires -server")
	}
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	c := client.NewPlannerClient(strings.TrimRight(opts.server, "/"))
	booking, err := c.DecideEOT(ctx, opts.decide, model.EOTDecision{
		Decision:  model.EOTStatus(opts.decision),
		DecidedBy: opts.decidedBy,
		Note:      opts.note,
	})
	if err != nil {
		return fmt.Errorf("decide %s: %w", opts.decide, err)
	}
	status := model.EOTStatus(opts.decision)
	if booking.EOTCheck != nil {
		status = booking.EOTCheck.Status
	}
	if _, err := fmt.Fprintf(out, "Booking %s: EOT %s\n\n", booking.ID, status); err != nil {
		return err
	}

	candidates, err := c.EOT(ctx)
	if err != nil {
		return fmt.Errorf("list EOT candidates: %w", err)
	}
	r := render.New(render.Options{CellWidth: opts.cellWidth, Plain: opts.plain})
	_, err = fmt.Fprint(out, r.Candidates(candidates))
	return err
}

func loadDocument(opts options) (*snapshot.Document, error) {
	switch {
	case opts.snapshotPath != "" && opts.server != "":
		return nil, fmt.Errorf("use either -snapshot or -server, not both")
	case opts.snapshotPath != "":
		return snapshot.LoadFile(opts.snapshotPath)
	case opts.server != "":
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		body, err := client.NewPlannerClient(strings.TrimRight(opts.server, "/")).Snapshot(ctx, opts.mode, opts.anchor)
		if err != nil {
			return nil, fmt.Errorf("fetch snapshot: %w", err)
		}
		return snapshot.Decode(bytes.NewReader(body))
	default:
		return nil, fmt.Errorf("-snapshot or -server is required")
	}
}

func resolveLocation(flagValue, docValue string) (*time.Location, error) {
	name := flagValue
	if name == "" {
		name = docValue
	}
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

func resolveNow(flagValue, docValue string) (time.Time, error) {
	value := flagValue
	if value == "" {
		value = docValue
	}
	if value == "" {
		return time.Now(), nil
	}
	now, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("now must be RFC3339: %w", err)
	}
	return now, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "plannerctl: "+format+"\n", args...)
	os.Exit(1)
}
