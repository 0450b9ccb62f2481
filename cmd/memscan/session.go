package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"memscan/process"
	"memscan/scan_results"
	"memscan/scan_types"
	"memscan/snapshot"
	"memscan/table"
	"memscan/tasks"
)

// session is one attached process with its snapshot and results
type session struct {
	proc     process.Process
	snap     *snapshot.Snapshot
	bus      *tasks.EventBus
	resolver *scan_results.Resolver
	unwatch  func()

	types  []string
	format scan_types.DisplayFormat
	page   int
}

func newSession(types []string) (*session, error) {
	proc, err := openProcess()
	if err != nil {
		return nil, err
	}
	s := &session{proc: proc, bus: tasks.NewEventBus(), types: types}
	if err := s.reset(); err != nil {
		proc.Close()
		return nil, err
	}
	return s, nil
}

// reset captures a fresh snapshot; the next scan is a new scan
func (s *session) reset() error {
	if err := s.proc.UpdateMemoryMap(); err != nil {
		return err
	}
	snap, err := snapshot.NewSnapshotFromProcess(s.proc, cfg.QueryOptions(), cfg.Memory.MaxRegionSize)
	if err != nil {
		return err
	}
	resolver, err := scan_results.NewResolver(snap, registry, s.proc, cfg.ResolverOptions())
	if err != nil {
		return err
	}
	if s.unwatch != nil {
		s.unwatch()
	}
	s.snap, s.resolver, s.page = snap, resolver, 0
	s.unwatch = resolver.Watch(s.bus)
	fmt.Printf("%d regions, %d bytes\n", snap.RegionCount(), snap.TotalSize())
	return nil
}

func (s *session) close() {
	if s.unwatch != nil {
		s.unwatch()
	}
	s.bus.Close()
	s.proc.Close()
}

// scan runs one pass; Ctrl-C cancels it and keeps the previous results
func (s *session) scan(constraint scan_types.ScanConstraint) error {
	opts := cfg.ExecutorOptions()
	opts.Events = s.bus
	task, err := tasks.StartScanExecutor(s.proc, s.snap, registry, cfg.ScanParameters(constraint, s.types...), opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		select {
		case <-ctx.Done():
			task.Cancel()
		case <-task.Done():
		}
	}()

	progress, unsubscribe := task.Subscribe()
	defer unsubscribe()
	for p := range progress {
		fmt.Fprintf(os.Stderr, "\rscanning %3.0f%%", p)
	}
	fmt.Fprintln(os.Stderr)

	if err := task.WaitForCompletion(); err != nil {
		if task.WasCancelled() {
			fmt.Println("scan cancelled, results unchanged")
			return nil
		}
		return err
	}

	summary := task.Summary()
	s.page = 0
	fmt.Printf("%s: %d results in %s\n", constraint.String(), summary.ResultCount, summary.Duration)
	if len(s.types) > 1 {
		for _, id := range s.types {
			fmt.Printf("  %-12s %d\n", id, summary.PerType[id])
		}
	}
	debugf("pass %s new=%v regions=%d read=%d/%d failed=%d tombstoned=%d mismatches=%d\n",
		summary.PassID.String(), summary.NewScan, summary.Regions, summary.Read.BytesRead,
		summary.Read.Regions, summary.Read.Failed, summary.Tombstoned, summary.Mismatches)
	return nil
}

func (s *session) printPage(n int) error {
	pages, err := s.resolver.PageCount()
	if err != nil {
		return err
	}
	if pages == 0 {
		fmt.Println("no results")
		return nil
	}
	if n < 0 || n >= pages {
		return fmt.Errorf("page %d of %d", n+1, pages)
	}
	results, err := s.resolver.Page(n)
	if err != nil {
		return err
	}
	s.page = n
	printResults(results, s.format)
	fmt.Printf("page %d of %d\n", n+1, pages)
	return nil
}

func (s *session) refresh() error {
	results, err := s.resolver.Refresh(s.proc, s.page)
	if err != nil {
		return err
	}
	printResults(results, s.format)
	return nil
}

func (s *session) history() {
	t := table.New(
		table.Column{Header: "#", Right: true},
		table.Column{Header: "pass"},
		table.Column{Header: "constraint"},
		table.Column{Header: "types"},
		table.Column{Header: "results", Right: true},
		table.Column{Header: "took"},
	)
	for i, pass := range s.snap.History() {
		p := pass.Parameters
		t.Rowf("%d\t%s\t%s\t%s\t%d\t%s", i+1, pass.ID.String(), p.Constraint().String(),
			strings.Join(p.DataTypeIDs, ","), pass.ResultCount, pass.Duration)
	}
	t.Render(os.Stdout)
}

func printResults(results []scan_results.ScanResult, format scan_types.DisplayFormat) {
	t := table.New(
		table.Column{Header: "#", Right: true},
		table.Column{Header: "address"},
		table.Column{Header: "location"},
		table.Column{Header: "type"},
		table.Column{Header: "value", Right: true},
		table.Column{Header: "previous", Right: true},
	)
	for _, r := range results {
		cur, prev := r.FormatValues(registry, format)
		t.Row(fmt.Sprint(r.Index), fmt.Sprintf("0x%x", r.Address), r.Location(), r.DataTypeID, cur, prev)
	}
	t.Render(os.Stdout)
}
