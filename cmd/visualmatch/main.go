// Command visualmatch runs one visual similarity search from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/visualmatch/client/config"
	"github.com/visualmatch/client/internal/domain"
	"github.com/visualmatch/client/internal/infrastructure/logging"
	"github.com/visualmatch/client/internal/infrastructure/matcher"
	"github.com/visualmatch/client/internal/infrastructure/preview"
	"github.com/visualmatch/client/internal/usecase"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("visualmatch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baseURL := fs.String("base-url", "", "Search service base URL (default from config)")
	imageURL := fs.String("url", "", "Search by image URL instead of a local file")
	verbose := fs.Bool("v", false, "Log requests to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: visualmatch [-base-url URL] [-url IMAGE_URL] [FILE]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if (*imageURL == "") == (fs.NArg() == 0) || fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	if *baseURL == "" {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
			return exitFailure
		}
		*baseURL = cfg.Search.BaseURL
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := logging.New("development", "debug")
		if err != nil {
			fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
			return exitFailure
		}
		logger = l
		defer func() { _ = logger.Sync() }()
	}

	previews, err := preview.NewStore("", 0, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create preview store: %v\n", err)
		return exitFailure
	}
	defer previews.Close()

	client := matcher.NewClient(*baseURL, matcher.WithLogger(logger))
	workflow := usecase.NewWorkflow(client, previews, nil, logger)
	defer workflow.Close(context.Background())

	var outcome domain.SearchOutcome
	if *imageURL != "" {
		outcome = workflow.SearchURL(ctx, *imageURL)
	} else {
		path := fs.Arg(0)
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to read image: %v\n", err)
			return exitFailure
		}
		file := domain.RawFile{Name: filepath.Base(path), Content: content}
		if err := workflow.SelectFromPicker(ctx, file); err != nil {
			fmt.Fprintf(stderr, "Failed to load image: %v\n", err)
			return exitFailure
		}
		outcome, err = workflow.Search(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", domain.FailureNotice)
			return exitFailure
		}
	}

	return printOutcome(stdout, outcome)
}

func printOutcome(w io.Writer, outcome domain.SearchOutcome) int {
	switch outcome.Kind {
	case domain.OutcomeMatches:
		label := "Matches"
		if len(outcome.Matches) == 1 {
			label = "Match"
		}
		fmt.Fprintf(w, "%d %s\n", len(outcome.Matches), label)
		for i, m := range outcome.Matches {
			fmt.Fprintf(w, "%2d. %s (%s) %d%%\n    %s\n", i+1, m.Product.Name, m.Product.Category, m.Percent(), m.Product.Image)
		}
		return exitOK
	case domain.OutcomeNoMatches:
		fmt.Fprintln(w, outcome.Notice())
		return exitOK
	default:
		fmt.Fprintln(w, outcome.Notice())
		return exitFailure
	}
}
