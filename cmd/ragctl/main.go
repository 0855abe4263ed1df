package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgallion1/ragdesk/internal/config"
	"github.com/dgallion1/ragdesk/internal/desk"
	"github.com/dgallion1/ragdesk/internal/ragclient"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	client := ragclient.NewClient(ragclient.DefaultBaseURL)
	defer client.Close()
	view := desk.NewView(client, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var ok bool
	switch os.Args[1] {
	case "ingest":
		ok = ingestCmd(ctx, view, os.Args[2:])
	case "ask":
		ok = askCmd(ctx, view, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}

	printNotices(view.TakeNotices())
	if err := desk.RenderText(os.Stdout, view.Snapshot()); err != nil {
		log.Error("render failed", "error", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func ingestCmd(ctx context.Context, view *desk.View, paths []string) bool {
	files := make([]ragclient.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", p, err)
			return false
		}
		files = append(files, ragclient.File{Name: filepath.Base(p), Data: data})
	}
	view.SelectFiles(files)
	return view.Ingest(ctx).IsOk()
}

func askCmd(ctx context.Context, view *desk.View, words []string) bool {
	view.SetQuery(strings.Join(words, " "))
	return view.Query(ctx).IsOk()
}

func printNotices(notices []desk.Notice) {
	for _, n := range notices {
		fmt.Fprintf(os.Stderr, "%s: %s\n", n.Level, n.Text)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage:
  ragctl ingest FILE...     upload documents to the RAG backend
  ragctl ask QUESTION...    ask a question about the ingested documents`)
}
