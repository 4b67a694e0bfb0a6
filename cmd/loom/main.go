// Command loom is a desktop chat client for an autonomous coding agent.
// It spawns the agent CLI per prompt, interprets its event stream into a
// grouped transcript, and renders it in a terminal UI.
//
// Usage:
//
//	loom [flags]
//
// Flags:
//
//	-task string       Path to task file to resume
//	-agent string      Agent CLI binary (default: $LOOM_AGENT or "claude")
//	-dir string        Working directory for the agent (default: cwd)
//	-store-dir string  Directory for per-task file records (default: ~/.loom/files)
//	-debug-log string  Path to a debug log file (default: no logging)
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/avisram/loom"
	bt "github.com/avisram/loom/bubbletea"
	loomjson "github.com/avisram/loom/json"
	"github.com/avisram/loom/runner"
	"github.com/avisram/loom/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "loom: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		taskPath  = flag.String("task", "", "Path to task file to resume")
		agentBin  = flag.String("agent", "", `Agent CLI binary (default: $LOOM_AGENT or "claude")`)
		workDir   = flag.String("dir", "", "Working directory for the agent (default: cwd)")
		storeDir  = flag.String("store-dir", "", "Directory for per-task file records (default: ~/.loom/files)")
		debugPath = flag.String("debug-log", "", "Path to a debug log file (default: no logging)")
	)
	flag.Parse()

	// Handle OS signals for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, closeLog, err := openLogger(*debugPath)
	if err != nil {
		return err
	}
	defer closeLog()

	task, err := loadOrCreateTask(*taskPath)
	if err != nil {
		return err
	}

	files := store.New(resolveStoreDir(*storeDir))

	r := runner.New(resolveAgent(*agentBin), runner.WithDir(*workDir))
	taskFn := func(ctx context.Context, prompt string, onEvent func(loom.Event)) error {
		logger.Printf("turn start: %d bytes of prompt", len(prompt))
		err := r.Run(ctx, prompt, onEvent)
		if err != nil {
			logger.Printf("turn failed: %v", err)
			return err
		}
		logger.Printf("turn done: session=%s events=%d", r.SessionID(), len(task.Events))
		return nil
	}

	tuiModel := bt.New(taskFn, &task, files, loom.DefaultTheme())
	if err := bt.Run(ctx, tuiModel); err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	// Save task on exit.
	if *taskPath != "" {
		if err := loomjson.Save(*taskPath, task); err != nil {
			return fmt.Errorf("save task: %w", err)
		}
	} else if len(task.Events) > 0 {
		savePath := defaultTaskPath(task.ID)
		if err := loomjson.Save(savePath, task); err != nil {
			return fmt.Errorf("auto-save task: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Task saved to %s\n", savePath)
	}

	return nil
}

func loadOrCreateTask(taskPath string) (loom.Task, error) {
	if taskPath != "" {
		t, err := loomjson.Load(taskPath)
		if err != nil {
			return loom.Task{}, fmt.Errorf("load task: %w", err)
		}
		return t, nil
	}
	now := time.Now()
	return loom.Task{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func openLogger(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	return log.New(f, "loom ", log.LstdFlags), func() { f.Close() }, nil
}

func resolveAgent(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if env := os.Getenv("LOOM_AGENT"); env != "" {
		return env
	}
	return "claude"
}

func resolveStoreDir(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return filepath.Join(homeDir(), ".loom", "files")
}

func defaultTaskPath(id string) string {
	return filepath.Join(homeDir(), ".loom", "tasks", id+".json")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
