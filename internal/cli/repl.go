// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/docchat-tui/internal/attach"
	"github.com/jeranaias/docchat-tui/internal/chat"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/extract"
	"github.com/jeranaias/docchat-tui/internal/gemini"
	"github.com/jeranaias/docchat-tui/internal/plan"
)

// errQuit ends the read loop from a command handler.
var errQuit = errors.New("quit")

// historyFileName under the config directory.
const historyFileName = "history"

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-oriented conversation loop.
type REPL struct {
	cfg          *config.Config
	session      *chat.Session
	orchestrator *plan.Orchestrator
	transcript   *chat.Transcript

	line        *liner.State
	historyFile string
	out         io.Writer
	styles      Styles

	// artifact is the most recent closed document block, the target of
	// /export word and /export print.
	artifact *export.Document
}

// NewREPL prepares the readline state and loads prompt history.
func NewREPL(cfg *config.Config, session *chat.Session, orchestrator *plan.Orchestrator) *REPL {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	r := &REPL{
		cfg:          cfg,
		session:      session,
		orchestrator: orchestrator,
		transcript:   &chat.Transcript{},
		line:         line,
		out:          os.Stdout,
		styles:       NewStyles(),
	}

	if dir, err := config.Dir(); err == nil {
		r.historyFile = filepath.Join(dir, historyFileName)
		if f, err := os.Open(r.historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

// Close saves history and restores the terminal.
func (r *REPL) Close() {
	if r.historyFile != "" {
		if f, err := os.Create(r.historyFile); err == nil {
			_, _ = r.line.WriteHistory(f)
			f.Close()
			_ = os.Chmod(r.historyFile, 0600)
		}
	}
	r.line.Close()
}

// Run reads lines until the user quits. Ctrl+C at the prompt exits;
// Ctrl+C during an exchange stops only that exchange.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, r.styles.Faint("docchat plain mode - /help for commands"))

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		input, err := r.line.Prompt("> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(r.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if err := r.dispatch(input); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintln(r.out, r.styles.Error(err.Error()))
			}
			continue
		}

		r.exchange(ctx, input)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

// parseCommand splits "/export word" into ("export", "word").
func parseCommand(input string) (name, args string) {
	input = strings.TrimPrefix(input, "/")
	name, args, _ = strings.Cut(input, " ")
	return strings.ToLower(name), strings.TrimSpace(args)
}

func (r *REPL) dispatch(input string) error {
	name, args := parseCommand(input)
	switch name {
	case "attach":
		if args == "" {
			return errors.New("usage: /attach <path>")
		}
		return r.attachFile(args)

	case "pending":
		names := r.session.PendingAttachments()
		if len(names) == 0 {
			fmt.Fprintln(r.out, r.styles.Faint("no pending attachments"))
			return nil
		}
		for _, n := range names {
			fmt.Fprintln(r.out, "  "+n)
		}
		return nil

	case "export":
		return r.export(args)

	case "new":
		r.session.Reset()
		r.transcript.Reset()
		r.artifact = nil
		fmt.Fprintln(r.out, r.styles.Notice("started a new conversation"))
		return nil

	case "help":
		r.printHelp()
		return nil

	case "quit", "exit":
		return errQuit

	default:
		return fmt.Errorf("unknown command /%s - /help lists commands", name)
	}
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, r.styles.Faint(`  /attach <path>          queue a file for the next message
  /pending                list queued attachments
  /export [word|print|chat]  export the document or conversation
  /new                    start a new conversation
  /quit                   exit
`))
}

// attachFile reads a file and queues it on the session.
func (r *REPL) attachFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("attach: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	r.session.AddAttachment(attach.Attachment{
		Name:     filepath.Base(path),
		Data:     data,
		MIMEType: mimeType,
		SizeHint: info.Size(),
	})
	fmt.Fprintln(r.out, r.styles.Notice(fmt.Sprintf("attached %s (%d bytes)", filepath.Base(path), info.Size())))
	return nil
}

// =============================================================================
// EXCHANGE
// =============================================================================

// interruptible cancels the returned context on the first Ctrl+C.
func interruptible(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigs)
		cancel()
	}
}

// exchange runs one streamed request and handles the reply's blocks.
func (r *REPL) exchange(parent context.Context, text string) {
	exCtx, stop := interruptible(parent)
	defer stop()

	r.transcript.Append(chat.NewUserMessage(text))
	id := r.transcript.Append(chat.NewModelMessage())
	_ = r.orchestrator.ExchangeStarted()

	fmt.Fprintln(r.out, r.styles.ModelLabel("Model"))
	reply, err := r.session.Send(exCtx, text, func(delta string) {
		fmt.Fprint(r.out, delta)
		r.transcript.AppendText(id, delta)
	})
	fmt.Fprintln(r.out)

	switch {
	case err != nil && gemini.IsCancelled(err):
		r.transcript.Finish(id, false, true, "[stopped]")
		r.orchestrator.ExchangeEnded()
		fmt.Fprintln(r.out, r.styles.Faint("(stopped)"))

	case err != nil:
		r.transcript.Finish(id, true, false, gemini.UserMessage(err))
		r.orchestrator.ExchangeEnded()
		fmt.Fprintln(r.out, r.styles.Error(gemini.UserMessage(err)))

	default:
		r.transcript.Finish(id, false, false, "")

		if res, ok := extract.Extract(reply, extract.TagHTML); ok && res.Closed {
			r.captureArtifact(res.Content)
		}
		// A malformed plan payload degrades to prose with no error.
		proposed := false
		if res, ok := extract.Extract(reply, extract.TagJSON); ok && res.Closed {
			if p, perr := plan.Parse(res.Content); perr == nil {
				if r.orchestrator.Propose(p) == nil {
					r.transcript.AttachPlan(id, p)
					proposed = true
					r.promptApproval(parent, p)
				}
			}
		}
		if !proposed {
			r.orchestrator.ExchangeEnded()
		}
	}
}

var h1Re = regexp.MustCompile(`<h1[^>]*>(.*?)</h1>`)

// captureArtifact records a closed document block as the export target.
func (r *REPL) captureArtifact(body string) {
	title := "document"
	if match := h1Re.FindStringSubmatch(body); match != nil {
		title = match[1]
	}
	r.artifact = &export.Document{
		Title:     title,
		BodyHTML:  body,
		CreatedAt: time.Now(),
	}
	fmt.Fprintln(r.out, r.styles.Notice(fmt.Sprintf("document ready: %s (/export word to save)", title)))
}

// =============================================================================
// PLAN APPROVAL AND EXECUTION
// =============================================================================

// promptApproval shows the proposed plan and asks for [y/n].
func (r *REPL) promptApproval(ctx context.Context, p *plan.Plan) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, r.styles.PlanTitle("Plan: "+p.Title))
	for i, step := range p.Steps {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, step)
	}

	for {
		answer, err := r.line.Prompt("Approve this plan? [y/n] ")
		if err != nil {
			// Abort counts as rejection.
			_ = r.orchestrator.Cancel()
			fmt.Fprintln(r.out, r.styles.Notice("plan discarded"))
			return
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			r.runPlan(ctx)
			return
		case "n", "no":
			_ = r.orchestrator.Cancel()
			fmt.Fprintln(r.out, r.styles.Notice("plan discarded"))
			return
		}
	}
}

// runPlan executes the approved plan, printing each step as it streams.
func (r *REPL) runPlan(parent context.Context) {
	exCtx, stop := interruptible(parent)
	defer stop()

	total := 0
	if p := r.orchestrator.Plan(); p != nil {
		total = p.StepCount()
	}

	var stepID string
	hooks := plan.Hooks{
		OnStepStart: func(i int, step string) {
			stepID = r.transcript.Append(chat.NewModelMessage())
			fmt.Fprintln(r.out)
			fmt.Fprintln(r.out, r.styles.PlanTitle(fmt.Sprintf("step %d/%d: %s", i+1, total, step)))
		},
		OnStepDelta: func(i int, delta string) {
			fmt.Fprint(r.out, delta)
			r.transcript.AppendText(stepID, delta)
		},
		OnStepEnd: func(i int, reply string, err error) {
			fmt.Fprintln(r.out)
			if stepID == "" {
				return
			}
			switch {
			case errors.Is(err, plan.ErrStopped):
				// A user stop is not a failure; the partial step keeps
				// its text under a stopped marker.
				r.transcript.Finish(stepID, false, true, "[stopped]")
				fmt.Fprintln(r.out, r.styles.Faint("(stopped)"))
			case err != nil:
				r.transcript.Finish(stepID, true, false, gemini.UserMessage(err))
			default:
				r.transcript.Finish(stepID, false, false, "")
				// A step may emit a document block of its own.
				if res, ok := extract.Extract(reply, extract.TagHTML); ok && res.Closed {
					r.captureArtifact(res.Content)
				}
			}
			stepID = ""
		},
	}

	err := r.orchestrator.Approve(exCtx, hooks)
	switch {
	case err == nil:
		fmt.Fprintln(r.out, r.styles.Notice("plan completed"))
	case errors.Is(err, plan.ErrStopped):
		fmt.Fprintln(r.out, r.styles.Faint("plan stopped"))
	default:
		fmt.Fprintln(r.out, r.styles.Error(fmt.Sprintf("plan halted: %v", err)))
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func (r *REPL) exportOptions() *export.Options {
	dir := r.cfg.UI.ExportDir
	if dir == "" {
		dir = "."
	}
	return &export.Options{
		OutputDir:       dir,
		OpenAfterExport: false,
		Theme:           r.cfg.UI.Theme,
	}
}

func (r *REPL) export(kind string) error {
	opts := r.exportOptions()

	var doc *export.Document
	var exporter export.Exporter

	switch kind {
	case "", "word":
		if r.artifact == nil {
			return errors.New("no document to export yet")
		}
		doc, exporter = r.artifact, export.NewWordExporter()

	case "print":
		if r.artifact == nil {
			return errors.New("no document to export yet")
		}
		doc, exporter = r.artifact, export.NewPrintExporter(opts)

	case "chat":
		var err error
		doc, err = export.TranscriptDocument("Conversation", r.transcript.Messages())
		if err != nil {
			return err
		}
		exporter = export.NewPrintExporter(opts)

	default:
		return fmt.Errorf("unknown export target %q - word, print, or chat", kind)
	}

	path, err := export.ExportToFile(doc, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, r.styles.Notice("exported to "+path))
	return nil
}
