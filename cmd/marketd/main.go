package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/bazaar"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagHome     = "home"
	flagLogLevel = "log-level"
	varHome      *string
	varLogLevel  *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".bazaar")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")
	varLogLevel = flag.String(flagLogLevel, "info", "log level: debug, info, error or none")

	flag.CommandLine.Usage = helpMessage
}

func helpMessage() {
	fmt.Println("marketd")
	fmt.Println("          Asset marketplace ledger")
	fmt.Println("")
	fmt.Println("help      Print this message")
	fmt.Println("init      Write a default genesis file")
	fmt.Println("start     Run the HTTP API")
	fmt.Println("version   Print the app version")
	fmt.Println(`
  -home string
        directory to store files under (default "$HOME/.bazaar")
  -log-level string
        log level: debug, info, error or none (default "info")`)
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	logger, err := newLogger(*varLogLevel)
	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = InitCmd(logger, *varHome, rest)
	case "start":
		err = StartCmd(logger, *varHome, rest)
	case "version":
		fmt.Println(bazaar.Version())
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		helpMessage()
		os.Exit(1)
	}
}

func newLogger(level string) (log.Logger, error) {
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).With("module", "marketd")
	return log.NewFilter(logger, opt), nil
}
