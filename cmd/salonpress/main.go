package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/eringen/salonpress"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "init":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: salonpress init <dir>")
			os.Exit(1)
		}
		err = runInit(os.Args[2])
	case "hash-password":
		err = runHashPassword(os.Stdin, os.Stdout)
	case "version":
		fmt.Printf("salonpress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", salonpress.EnvOr("SALONPRESS_CONFIG", "config.yaml"), "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := salonpress.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv()

	app := salonpress.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	select {
	case err := <-errCh:
		app.Close()
		return err
	case <-ctx.Done():
	}

	app.Echo.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func runHashPassword(in io.Reader, out io.Writer) error {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	hash, err := salonpress.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, hash)
	return nil
}

func printUsage() {
	fmt.Println(`salonpress - backend for a salon website with an admin console

Usage:
  salonpress <command> [arguments]

Commands:
  serve [-config file]   Run the web server (default config.yaml)
  init <dir>             Create a new site directory with config and data files
  hash-password          Read a password from stdin and print its bcrypt hash
  version                Print the salonpress version
  help                   Show this help message

Examples:
  salonpress init mysalon
  echo -n 'secret' | salonpress hash-password
  salonpress serve -config mysalon/config.yaml`)
}
