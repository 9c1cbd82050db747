package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/danilovkiri/dk_go_qr_forge/internal/cli"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func orNA(v string) string {
	switch v {
	case "":
		return "N/A"
	default:
		return v
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	root := cli.NewRootCmd(orNA(buildVersion), orNA(buildDate), orNA(buildCommit))
	if err := root.ExecuteContext(ctx); err != nil {
		cancel()
		log.Fatal(err)
	}
}
