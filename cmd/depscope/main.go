package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/xyproto/env/v2"

	"github.com/depscope/depscope/pkg/analyzer"
	"github.com/depscope/depscope/pkg/config"
	"github.com/depscope/depscope/pkg/logging"
	"github.com/depscope/depscope/pkg/model"
	"github.com/depscope/depscope/pkg/pubsub"
	"github.com/depscope/depscope/pkg/session"
	"github.com/depscope/depscope/pkg/watcher"
	"github.com/depscope/depscope/pkg/web"
)

// defaultCanvas is the viewport assumed until the first resize event
// arrives from a connected viewer.
const (
	defaultCanvasWidth  = 1200
	defaultCanvasHeight = 800
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	cfg, err := config.Load(flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logging.Setup(cfg.Verbosity, cfg.LogFormat); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := pubsub.NewSSEPublisher()
	defer publisher.Close()
	publisher.ConfigureTopic(pubsub.TopicFrames, pubsub.TopicConfig{BufferSize: 1})
	publisher.ConfigureTopic(pubsub.TopicStatus, pubsub.TopicConfig{BufferSize: 10})

	graph, project, err := loadInput(cfg, publisher)
	if err != nil {
		return err
	}

	sess := session.New(graph, publisher, defaultCanvasWidth, defaultCanvasHeight)
	defer sess.Close()
	publishStatus(publisher, "ready", "", graph)

	if cfg.Watch && project != nil {
		if err := startWatch(ctx, cfg, project, sess, publisher); err != nil {
			// The view still works without live updates.
			logging.Warn("file watching disabled", "error", err)
		}
	}

	server := web.NewServer(sess, publisher)
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(addr)
	}()

	if cfg.OpenBrowser {
		openBrowser(fmt.Sprintf("http://%s/", addr))
	}

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loadInput produces the initial dependency graph: a pre-computed
// graph file when configured, otherwise a project analysis. The
// returned analyzer is nil for file input, which also disables
// watching.
func loadInput(cfg *config.Config, publisher pubsub.Publisher) (model.DependencyGraph, *analyzer.Analyzer, error) {
	if cfg.GraphFile != "" {
		g, err := analyzer.LoadGraphFile(cfg.GraphFile)
		if err != nil {
			return model.DependencyGraph{}, nil, err
		}
		return g, nil, nil
	}

	a, err := analyzer.New(cfg.Project)
	if err != nil {
		return model.DependencyGraph{}, nil, err
	}
	publishStatus(publisher, "analyzing", cfg.Project, model.DependencyGraph{})
	g, err := a.Analyze()
	if err != nil {
		return model.DependencyGraph{}, nil, fmt.Errorf("failed to analyze %s: %w", cfg.Project, err)
	}
	return g, a, nil
}

// startWatch wires the watcher chain: fsnotify events, debounced into
// one re-analysis, whose result replaces the session's graph. Analysis
// failures keep the previous graph on screen.
func startWatch(ctx context.Context, cfg *config.Config, a *analyzer.Analyzer, sess *session.Session, publisher pubsub.Publisher) error {
	fw, err := watcher.NewFileWatcher(a.Root())
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debounce := time.Duration(cfg.DebounceMs) * time.Millisecond
	d := watcher.NewDebouncer(fw.Events(), debounce, 5*debounce)
	d.Start(ctx)

	go func() {
		for event := range d.Output() {
			logging.Info("source changed, re-analyzing", "paths", len(event.Paths))
			publishStatus(publisher, "analyzing", a.Root(), model.DependencyGraph{})
			g, err := a.Analyze()
			if err != nil {
				logging.Error("re-analysis failed, keeping previous graph", "error", err)
				publisher.Publish(pubsub.TopicStatus, "analysis_failed", pubsub.Status{
					State:   "analysis_failed",
					Message: err.Error(),
				})
				continue
			}
			sess.ReplaceGraph(g)
			publishStatus(publisher, "ready", a.Root(), g)
		}
	}()

	publishStatus(publisher, "watching", a.Root(), model.DependencyGraph{})
	return nil
}

func publishStatus(publisher pubsub.Publisher, state, message string, g model.DependencyGraph) {
	publisher.Publish(pubsub.TopicStatus, state, pubsub.Status{
		State:   state,
		Message: message,
		Nodes:   len(g.Nodes),
		Edges:   len(g.Edges),
	})
}

// openBrowser starts the user's browser on the viewer URL. $BROWSER
// wins over the platform default; failures only log, the server keeps
// running.
func openBrowser(url string) {
	if browser := env.Str("BROWSER"); browser != "" {
		if err := exec.Command(browser, url).Start(); err != nil {
			logging.Warn("failed to open $BROWSER", "browser", browser, "error", err)
		}
		return
	}

	var cmd string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("cannot open browser on this platform", "goos", runtime.GOOS)
		return
	}
	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("failed to open browser", "error", err)
	}
}
