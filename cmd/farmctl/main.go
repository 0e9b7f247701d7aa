// Command farmctl is a one-shot inspection CLI: farmctl farm <pubkey>
// and farmctl farmer <farm> <authority> print the current state of a
// farm or farmer against a running api server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

func main() {
	apiAddr := flag.String("api-addr", "http://localhost:8080", "base URL of a running farmd -api-listen-addr server")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	flag.Parse()

	log := newLogger(*verbose)

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "farm":
		if len(args) != 2 {
			usage()
			os.Exit(1)
		}
		err = fetchAndPrint(log, fmt.Sprintf("%s/farms/%s", *apiAddr, args[1]))
	case "farmer":
		if len(args) != 3 {
			usage()
			os.Exit(1)
		}
		err = fetchAndPrint(log, fmt.Sprintf("%s/farms/%s/farmers/%s", *apiAddr, args[1], args[2]))
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func fetchAndPrint(log *slog.Logger, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s: %s", url, resp.Status, string(body))
	}

	var raw any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	pretty, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	fmt.Println(string(pretty))
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: farmctl farm <pubkey>")
	fmt.Fprintln(os.Stderr, "       farmctl farmer <farm-pubkey> <authority-pubkey>")
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}
