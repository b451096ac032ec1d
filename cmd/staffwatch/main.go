// Package main runs one staffwatch reconciliation pass and exits.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	staffwatchcmd "github.com/staffwatch/staffwatch/internal/cmd/staffwatch"
)

func main() {
	cfg, err := staffwatchcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	log.SetPrefix("[STAFFWATCH] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := staffwatchcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("reconciliation failed: %v", err)
	}
}
