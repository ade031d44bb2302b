// penline is a line-oriented front end for the note engine, standing in for
// the web presentation layer: it renders engine snapshots and forwards user
// commands, nothing more.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/penline/penline/internal/config"
	"github.com/penline/penline/internal/engine"
	"github.com/penline/penline/internal/obs"
	"github.com/penline/penline/internal/remote"
	"github.com/penline/penline/internal/store"
	"github.com/penline/penline/internal/toast"
)

func main() {
	apiBaseURL := config.ParseFlags()
	cfg := config.MustLoadConfig(apiBaseURL)
	obs.Init()
	cfg.PrintStartupSummary()

	client := remote.NewClient(remote.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.HTTPTimeout,
		RPS:     cfg.RemoteRPS,
		Burst:   cfg.RemoteBurst,
	})
	toasts := toast.NewQueue(cfg.ToastTTL)
	defer toasts.Close()

	eng := engine.New(client, toasts, engine.Options{
		DebounceWindow: cfg.DebounceWindow,
		NewNoteTitle:   cfg.NewNoteTitle,
	})
	defer eng.Close()

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "initial fetch failed: %v\n", err)
	}

	repl(ctx, eng, toasts)
}

func repl(ctx context.Context, eng *engine.Engine, toasts *toast.Queue) {
	fmt.Println(`Commands: list, search <term>, open <id>, new, title <text>, body <text>, close,`)
	fmt.Println(`          delete <id>, confirm, cancel, analyze, toasts, quit`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")

		switch cmd {
		case "", "help":
		case "quit", "exit":
			return

		case "list":
			printNotes(eng.Notes(), eng)
		case "search":
			printNotes(eng.Filtered(arg), eng)

		case "open":
			if !eng.SetActive(arg) {
				fmt.Println("no such note")
			}
		case "close":
			eng.ClearActive()

		case "new":
			if note, err := eng.NewNote(ctx); err == nil {
				fmt.Printf("created %s\n", note.ID)
			}

		case "title", "body":
			active, ok := eng.Active()
			if !ok {
				fmt.Println("no note open")
				continue
			}
			if cmd == "title" {
				_ = eng.EditActive(arg, active.Content)
			} else {
				_ = eng.EditActive(active.Title, arg)
			}

		case "delete":
			if !eng.RequestDelete(arg) {
				fmt.Println("no such note")
				continue
			}
			pending, _ := eng.PendingDelete()
			fmt.Printf("delete %q? type confirm or cancel\n", pending.Title)
		case "confirm":
			if err := eng.ConfirmDelete(ctx); err != nil {
				fmt.Printf("delete not performed: %v\n", err)
			}
		case "cancel":
			eng.CancelDelete()

		case "analyze":
			if err := eng.Analyze(ctx); err != nil {
				fmt.Printf("analysis not started: %v\n", err)
				continue
			}
			if result, ok := eng.Analysis(); ok {
				printAnalysis(result)
			}

		case "toasts":
			for _, t := range toasts.Active() {
				fmt.Printf("[%s] %s\n", t.Severity, t.Message)
			}

		default:
			fmt.Printf("unknown command %q\n", cmd)
		}

		if eng.Saving() {
			fmt.Println("saving...")
		}
	}
}

func printNotes(notes []store.Note, eng *engine.Engine) {
	active, hasActive := eng.Active()
	for _, n := range notes {
		marker := " "
		if hasActive && n.ID == active.ID {
			marker = "*"
		}
		preview := n.Content
		if len(preview) > 30 {
			preview = preview[:30] + "..."
		}
		fmt.Printf("%s %s  %-20s %s\n", marker, n.ID, n.Title, preview)
	}
	if len(notes) == 0 {
		fmt.Println("(no notes)")
	}
}

func printAnalysis(result remote.AnalysisResult) {
	fmt.Printf("Summary: %s\n", result.Summary)
	for _, item := range result.Knowledge {
		fmt.Printf("  %s: %s\n", item.Concept, item.Explanation)
		for _, r := range item.Resources {
			fmt.Printf("    - %s (%s)\n", r.Title, r.URL)
		}
	}
	for _, action := range result.Actions {
		fmt.Printf("  [ ] %s\n", action)
	}
}
