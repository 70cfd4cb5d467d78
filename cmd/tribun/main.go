// Command tribun drives the Tribun rules core against a local game store:
// it creates games, lists legal actions, applies submitted action words,
// replays logs and emits legality witnesses.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/mathmaxd-max/tribunplay/internal/bloom"
	"github.com/mathmaxd-max/tribunplay/internal/board"
	"github.com/mathmaxd-max/tribunplay/internal/gamelog"
)

var (
	storeDir = flag.String("store", "", "game store directory (default: platform data dir)")
	gameID   = flag.String("game", "local", "game id inside the store")
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: tribun [flags] <command> [arg]

commands:
  new            create the game from the standard starting deployment
  show           print the current board
  moves          list all legal action words
  apply <word>   validate and record one action (hex 0x... or decimal)
  replay         re-fold the full log and print the resulting state
  witness        print the legality witness envelope for the current ply

flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	store, err := openStore(logger)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	if err := run(store, flag.Arg(0), flag.Args()[1:]); err != nil {
		logger.Fatal("command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
}

func openStore(logger *zap.Logger) (*gamelog.Store, error) {
	if *storeDir != "" {
		return gamelog.Open(*storeDir, logger)
	}
	return gamelog.OpenDefault(logger)
}

func run(store *gamelog.Store, command string, args []string) error {
	switch command {
	case "new":
		return store.SaveSnapshot(*gameID, board.InitialSnapshot())

	case "show":
		pos, err := store.Replay(*gameID)
		if err != nil {
			return err
		}
		fmt.Print(pos)
		return nil

	case "moves":
		pos, err := store.Replay(*gameID)
		if err != nil {
			return err
		}
		for _, a := range pos.LegalActions() {
			fmt.Printf("0x%08x  %s\n", uint32(a), a)
		}
		return nil

	case "apply":
		if len(args) != 1 {
			return fmt.Errorf("apply needs exactly one action word")
		}
		a, err := parseAction(args[0])
		if err != nil {
			return err
		}
		pos, err := store.Replay(*gameID)
		if err != nil {
			return err
		}
		next, err := pos.Apply(a)
		if err != nil {
			return err
		}
		if err := store.Append(*gameID, pos.Ply, a); err != nil {
			return err
		}
		fmt.Print(next)
		return nil

	case "replay":
		pos, err := store.Replay(*gameID)
		if err != nil {
			return err
		}
		fmt.Printf("ply %d, board %s\n", pos.Ply, board.PackBoard(pos.Board))
		fmt.Print(pos)
		return nil

	case "witness":
		pos, err := store.Replay(*gameID)
		if err != nil {
			return err
		}
		w := bloom.New(pos.LegalActions())
		out, err := json.Marshal(w.ToEnvelope(pos.Ply))
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func parseAction(s string) (board.Action, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("action word %q: %w", s, err)
	}
	return board.Action(v), nil
}
