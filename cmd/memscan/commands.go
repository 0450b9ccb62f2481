package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"memscan/hexdump"
	"memscan/process"
	"memscan/process_blob"
	"memscan/snapshot"
	"memscan/table"

	"github.com/spf13/cobra"
)

var (
	regionsCmd = &cobra.Command{
		Use:   "regions",
		Short: "List the regions a scan would cover",
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := openProcess()
			if err != nil {
				return err
			}
			defer proc.Close()

			snap, err := snapshot.NewSnapshotFromProcess(proc, cfg.QueryOptions(), cfg.Memory.MaxRegionSize)
			if err != nil {
				return err
			}
			t := table.New(
				table.Column{Header: "start"},
				table.Column{Header: "end"},
				table.Column{Header: "size", Right: true},
				table.Column{Header: "pages", Right: true},
			)
			for _, r := range snap.Regions() {
				t.Row(fmt.Sprintf("0x%x", r.BaseAddress()), fmt.Sprintf("0x%x", r.EndAddress()),
					strconv.FormatUint(r.Size(), 10), strconv.Itoa(len(r.PageBoundaries())+1))
			}
			if err := t.Render(os.Stdout); err != nil {
				return err
			}
			fmt.Printf("%d regions, %d bytes\n", snap.RegionCount(), snap.TotalSize())
			return nil
		},
	}

	typesCmd = &cobra.Command{
		Use:   "types",
		Short: "List the data types values can be scanned as",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := table.New(
				table.Column{Header: "id"},
				table.Column{Header: "size", Right: true},
				table.Column{Header: "endian"},
				table.Column{Header: "kind"},
				table.Column{Header: "alignment", Right: true},
			)
			for _, id := range registry.SortedIDs() {
				dt := registry.MustGet(id)
				kind := "unsigned"
				switch {
				case dt.IsFloatingPoint():
					kind = "float"
				case dt.IsSigned():
					kind = "signed"
				case dt.UnitSize() == 0:
					kind = "string"
				}
				size := "operand"
				if dt.UnitSize() > 0 {
					size = strconv.Itoa(dt.UnitSize())
				}
				t.Row(id, size, dt.Endian().String(), kind, dt.DefaultAlignment().String())
			}
			return t.Render(os.Stdout)
		},
	}

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Save process memory to a directory or inspect a saved dump",
	}

	dumpSaveCmd = &cobra.Command{
		Use:   "save <dir>",
		Short: "Save the memory of --target to dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proc, err := openProcess()
			if err != nil {
				return err
			}
			defer proc.Close()
			if err := os.MkdirAll(args[0], 0755); err != nil {
				return err
			}
			if err := proc.Save(args[0]); err != nil {
				return err
			}
			fmt.Printf("saved %s (%d) to %s\n", proc.GetName(), proc.GetPID(), args[0])
			return nil
		},
	}

	dumpInfoCmd = &cobra.Command{
		Use:   "info <dir>",
		Short: "Describe a saved dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := process_blob.ReadMetadata(args[0])
			if err != nil {
				return err
			}
			mm, err := process_blob.ReadMemoryMapFile(args[0])
			if err != nil {
				return err
			}
			dump := process_blob.NewProcessDump()
			if err := dump.Load(args[0]); err != nil {
				return err
			}

			fmt.Printf("process  %s (%d)\n", meta.Name, meta.PID)
			if !meta.Saved.IsZero() {
				fmt.Printf("saved    %s\n", meta.Saved.Format("2006-01-02 15:04:05"))
			}
			var mapped, stored uint64
			var missing int
			for _, item := range mm {
				mapped += uint64(item.Size)
				if hasBlob(dump, item.Address) {
					stored += uint64(item.Size)
				} else {
					missing++
				}
			}
			fmt.Printf("regions  %d, %d without data\n", len(mm), missing)
			fmt.Printf("bytes    %d mapped, %d stored\n", mapped, stored)

			modules, _ := dump.GetModules()
			t := table.New(table.Column{Header: "module"}, table.Column{Header: "base"}, table.Column{Header: "size", Right: true})
			for _, m := range modules {
				t.Row(m.Name, fmt.Sprintf("0x%x", m.Base), strconv.FormatUint(m.Size, 10))
			}
			return t.Render(os.Stdout)
		},
	}

	hexdumpCmd = &cobra.Command{
		Use:   "hexdump <address> [size]",
		Short: "Show process memory as hex",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(args[0]), "0x"), 16, 64)
			if err != nil {
				return fmt.Errorf("address %q: %w", args[0], err)
			}
			size := uint64(256)
			if len(args) == 2 {
				if size, err = strconv.ParseUint(args[1], 0, 32); err != nil {
					return fmt.Errorf("size %q: %w", args[1], err)
				}
			}

			proc, err := openProcess()
			if err != nil {
				return err
			}
			defer proc.Close()

			data, err := proc.ReadMemory(process.ProcessMemoryAddress(address), process.ProcessMemorySize(size))
			if err != nil {
				return err
			}
			opts := hexdump.DefaultOptions()
			opts.MemoryMap, _ = proc.GetMemoryMap()
			hexdump.Dump(os.Stdout, address, data, opts)
			return nil
		},
	}

	psCmd = &cobra.Command{
		Use:   "ps [pattern]",
		Short: "List processes memscan can attach to",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			finder := newFinder()
			if finder == nil {
				return fmt.Errorf("process listing is not supported on this platform")
			}
			var list []process.ProcessInfo
			var err error
			if len(args) == 1 {
				list, err = finder.FindProcessByNamePattern(args[0])
			} else {
				list, err = finder.FindAllProcesses()
			}
			if err != nil {
				return err
			}
			t := table.New(
				table.Column{Header: "pid", Right: true},
				table.Column{Header: "ppid", Right: true},
				table.Column{Header: "state"},
				table.Column{Header: "name"},
				table.Column{Header: "exe"},
			)
			for _, p := range list {
				if !p.State.Scannable() {
					continue
				}
				t.Row(strconv.Itoa(int(p.PID)), strconv.Itoa(int(p.PPID)), string(p.State), p.Name, p.Exe)
			}
			return t.Render(os.Stdout)
		},
	}
)

func hasBlob(dump *process_blob.ProcessDump, address uint64) bool {
	_, ok := dump.Blobs[address]
	return ok
}

func init() {
	rootCmd.AddCommand(regionsCmd, typesCmd, dumpCmd, hexdumpCmd, psCmd)
	dumpCmd.AddCommand(dumpSaveCmd, dumpInfoCmd)
}
