package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"memscan/hexdump"
	"memscan/scan_types"

	"github.com/spf13/cobra"
)

var (
	scanTypes []string

	scanCmd = &cobra.Command{
		Use:   "scan [constraint]...",
		Short: "Scan interactively, narrowing the results one constraint at a time",
		Long:  longScan,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range scanTypes {
				if _, err := registry.Get(id); err != nil {
					return err
				}
			}
			s, err := newSession(scanTypes)
			if err != nil {
				return err
			}
			defer s.close()

			// constraints given as arguments run before the prompt
			for _, arg := range args {
				if err := s.command(arg); err != nil {
					return err
				}
			}
			if len(args) > 0 && !isTerminal(os.Stdin) {
				return s.printPage(0)
			}
			return s.repl(os.Stdin, os.Stdout)
		},
	}
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringSliceVarP(&scanTypes, "type", "t", []string{"i32"}, "data types to scan as, comma separated")
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func (s *session) repl(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" || line == "q" {
			return nil
		}
		if err := s.command(line); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
	}
}

// command runs one prompt line: a session command or a scan constraint
func (s *session) command(line string) error {
	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch word {
	case "help", "?":
		fmt.Print(longScan)
		return nil
	case "list", "l", "page":
		n := s.page
		if rest != "" {
			p, err := strconv.Atoi(rest)
			if err != nil {
				return err
			}
			n = p - 1
		}
		return s.printPage(n)
	case "next", "n":
		return s.printPage(s.page + 1)
	case "prev", "p":
		return s.printPage(s.page - 1)
	case "refresh", "r":
		return s.refresh()
	case "set":
		return s.set(rest)
	case "hex":
		return s.hex(rest)
	case "types":
		if rest == "" {
			fmt.Println(strings.Join(s.types, ","))
			return nil
		}
		return s.setTypes(strings.Split(rest, ","))
	case "format":
		f, err := scan_types.ParseDisplayFormat(rest)
		if err != nil {
			return err
		}
		s.format = f
		return nil
	case "history":
		s.history()
		return nil
	case "reset", "new":
		return s.reset()
	}

	constraint, err := scan_types.ParseConstraint(line)
	if err != nil {
		return err
	}
	return s.scan(constraint)
}

// setTypes changes the scanned data types; results of other types are
// dropped, so the next pass is a new scan
func (s *session) setTypes(ids []string) error {
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
		if _, err := registry.Get(ids[i]); err != nil {
			return err
		}
	}
	s.types = ids
	return s.reset()
}

// set writes a value to one result: "set <index> <value>"
func (s *session) set(args string) error {
	indexText, value, ok := strings.Cut(args, " ")
	if !ok {
		return fmt.Errorf("usage: set <index> <value>")
	}
	index, err := strconv.ParseUint(indexText, 10, 64)
	if err != nil {
		return err
	}
	result, err := s.resolver.Result(index)
	if err != nil {
		return err
	}
	if err := s.resolver.SetValue(s.proc, result, scan_types.ParseAnonymousValue(value)); err != nil {
		return err
	}
	return s.refresh()
}

// hex shows the bytes around a result: "hex <index>"
func (s *session) hex(args string) error {
	index, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return fmt.Errorf("usage: hex <index>")
	}
	result, err := s.resolver.Result(index)
	if err != nil {
		return err
	}
	if !s.snap.TryRLock() {
		return fmt.Errorf("snapshot busy")
	}
	defer s.snap.RUnlock()

	region := s.snap.RegionForAddress(result.Address)
	if region == nil {
		return fmt.Errorf("0x%x is no longer in the snapshot", result.Address)
	}
	start := region.BaseAddress()
	if line := result.Address &^ 0xF; line >= start+0x40 {
		start = line - 0x40
	}
	fmt.Println(hexdump.Legend(region))
	return hexdump.Region(os.Stdout, region, start, 0x90, hexdump.DefaultOptions())
}

var longScan = `
Each line is either a constraint or a command.

Constraints:
  42 | == 42        equal to 42 (0x2a and 0b101010 work too)
  != 0  > 5  >= 5  < 5  <= 5
  changed | !=     changed since the last pass
  unchanged | ==   unchanged since the last pass
  increased | +    decreased | -
  +5 -5 *2 /2 %2 <<1 >>1 &x |x ^x
                   changed by exactly that operation

Commands:
  list [page]  next  prev    show results
  refresh                    re-read the values on the current page
  set <index> <value>        write a value to a result
  hex <index>                show the memory around a result
  types [id,id...]           show or change the data types (starts over)
  format dec|hex|bin         value display format
  history                    list the passes of this scan
  reset                      start over with a fresh snapshot
  quit
`
