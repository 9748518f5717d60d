package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ergochat/readline"

	"github.com/obi-wan76/stginga"
	"github.com/obi-wan76/stginga/utils"
)

// REPL per se.
type REPL struct {
	Inspector *stginga.Inspector

	rl *readline.Instance

	// currently inspected table and array
	decoder *stginga.Decoder
	arr     *stginga.Array
	arrID   string
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("load"),
	readline.PcItem("table"),
	readline.PcItem("meta"),

	readline.PcItem("decode"),
	readline.PcItem("array"),
	readline.PcItem("pixel"),
	readline.PcItem("flags"),
	readline.PcItem("mask"),

	readline.PcItem("invalidate"),
	readline.PcItem("reload"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func (repl *REPL) Open() (err error) {
	repl.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "dq> ",
		HistoryFile:     ".dqinspect_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	repl.rl.CaptureExitSignal()
	return
}

func (repl *REPL) Close() error {
	if repl.rl != nil {
		_ = repl.rl.Close()
		repl.rl = nil
	}
	return nil
}

func (repl *REPL) REPL() (err error) {
	var line string
	line, err = repl.rl.Readline()
	if err == readline.ErrInterrupt && len(line) != 0 {
		return nil
	}
	if err != nil {
		return err
	}

	line = strings.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "help":
		err = repl.CommandHelp(arg)
	// ----- table handling -----
	case "load":
		err = repl.CommandLoad(arg)
	case "table":
		err = repl.CommandTable(arg)
	case "meta":
		err = repl.CommandMeta(arg)
	// ----- decoding -----
	case "decode":
		err = repl.CommandDecode(arg)
	case "array":
		err = repl.CommandArray(arg)
	case "pixel":
		err = repl.CommandPixel(arg)
	case "flags":
		err = repl.CommandFlags(arg)
	case "mask":
		err = repl.CommandMask(arg)
	// ----- cache -----
	case "invalidate":
		err = repl.CommandInvalidate(arg)
	case "reload":
		err = repl.CommandReload(arg)
	case "exit", "quit":
		err = io.EOF
	default:
		_, _ = fmt.Fprintf(os.Stderr, "command unknown: %s\n", cmd)
	}
	return
}

func main() {
	repl := REPL{
		Inspector: stginga.NewInspector(nil, nil,
			utils.NewDefaultLogger(slog.LevelWarn)),
		decoder: stginga.DefaultDecoder(),
	}

	err := repl.Open()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	for err != io.EOF {
		if err != nil {
			_, _ = fmt.Fprintf(os.Stdout, "%s\n", err.Error())
			err = nil
		}
		err = repl.REPL()
	}

	_ = repl.Close()
}
