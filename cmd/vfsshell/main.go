// Command vfsshell is an interactive inspector for a directory's SaveDB: it
// opens the ZomboidSQLite.db in the given directory directly (bypassing the
// call handler and its interception policy entirely) and lets an operator
// inspect, read, delete, and truncate named rows inside it. There is no
// command that lists the rows.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/dbfsio/dbfs/internal/savedb"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: vfsshell <directory>")
		os.Exit(1)
	}
	dir := os.Args[1]

	db, err := savedb.Open(dir, false)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("vfsshell: open")
	}
	defer db.Close()

	shell, err := newShell(db, dir)
	if err != nil {
		log.Fatal().Err(err).Msg("vfsshell: init")
	}
	defer shell.Close()

	if err := shell.run(); err != nil {
		log.Fatal().Err(err).Msg("vfsshell: run")
	}
}

type shell struct {
	db  *savedb.SaveDB
	dir string
	rl  *readline.Instance
}

func newShell(db *savedb.SaveDB, dir string) (*shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[36mvfs>\033[0m ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("readline: %w", err)
	}
	return &shell{db: db, dir: dir, rl: rl}, nil
}

func (s *shell) Close() error {
	return s.rl.Close()
}

func (s *shell) run() error {
	fmt.Printf("vfsshell: %s\ntype \"help\" for commands\n", s.dir)

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if err := s.dispatch(cmd, args); err != nil {
			fmt.Printf("\033[31merror: %v\033[0m\n", err)
		}
	}
}

func (s *shell) dispatch(cmd string, args []string) error {
	switch cmd {
	case "help":
		s.printHelp()
	case "exit", "quit":
		os.Exit(0)
	case "stat":
		return s.cmdStat(args)
	case "cat":
		return s.cmdCat(args)
	case "rm":
		return s.cmdRm(args)
	case "truncate":
		return s.cmdTruncate(args)
	default:
		return fmt.Errorf("unknown command %q (try \"help\")", cmd)
	}
	return nil
}

func (s *shell) printHelp() {
	fmt.Println(`commands:
  stat <name>              report whether name exists and its size
  cat <name>                dump name's bytes to stdout
  rm <name>                 logically delete name
  truncate <name> <length>  shrink or zero-extend name to length bytes
  exit                      leave the shell`)
}

func (s *shell) cmdStat(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: stat <name>")
	}
	name := args[0]
	if !s.db.Exists(name) {
		fmt.Println("does not exist")
		return nil
	}
	size := s.db.Size(name)
	fmt.Printf("%s: %s (%d bytes)\n", name, humanize.Bytes(uint64(size)), size)
	return nil
}

func (s *shell) cmdCat(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: cat <name>")
	}
	name := args[0]
	rowid, ok := s.db.RowID(name)
	if !ok {
		return fmt.Errorf("%s: no such row", name)
	}
	blob, err := s.db.OpenBlob(rowid, false)
	if err != nil {
		return err
	}
	defer blob.Close()

	buf := make([]byte, blob.Size())
	if len(buf) > 0 {
		if err := blob.ReadAt(buf, 0); err != nil {
			return err
		}
	}
	os.Stdout.Write(buf)
	fmt.Println()
	return nil
}

func (s *shell) cmdRm(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: rm <name>")
	}
	n, err := s.db.Delete(args[0])
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: no such row", args[0])
	}
	fmt.Println("deleted")
	return nil
}

func (s *shell) cmdTruncate(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: truncate <name> <length>")
	}
	length, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad length: %w", err)
	}
	name := args[0]

	rowid, ok := s.db.RowID(name)
	if !ok {
		return fmt.Errorf("%s: no such row", name)
	}
	size := s.db.Size(name)
	switch {
	case length < size:
		return s.db.Truncate(1, length, name)
	case length > size:
		var old []byte
		if size > 0 {
			old = make([]byte, size)
			blob, err := s.db.OpenBlob(rowid, false)
			if err != nil {
				return err
			}
			err = blob.ReadAt(old, 0)
			blob.Close()
			if err != nil {
				return err
			}
		}

		newRowID, err := s.db.UpsertZeroBlob(name, length)
		if err != nil {
			return err
		}
		if len(old) == 0 {
			return nil
		}
		blob, err := s.db.OpenBlob(newRowID, true)
		if err != nil {
			return err
		}
		defer blob.Close()
		return blob.WriteAt(old, 0)
	}
	return nil
}
