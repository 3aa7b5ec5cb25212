// Command surveyflow runs the game preference questionnaire in the terminal
// and manages the stored session.
//
// Usage:
//
//	surveyflow [-config file] [-env file] <command> [flags]
//
// Commands:
//
//	run      answer the questionnaire (default)
//	export   write the stored session as JSON or YAML
//	import   replace the stored session with a JSON record
//	stats    summarize the stored session
//	clear    delete the stored session
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/petrijr/surveyflow"
	"github.com/petrijr/surveyflow/internal/config"
	"github.com/petrijr/surveyflow/internal/logging"
	"github.com/petrijr/surveyflow/internal/tui"
)

func main() {
	configFile := flag.String("config", "", "path to surveyflow.yaml (default: search . and ~/.config/surveyflow)")
	envFile := flag.String("env", "", "dotenv file loaded before the config (default .env)")
	flag.Usage = usage
	flag.Parse()

	cmd, args := "run", flag.Args()
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	cfg, err := config.Load(config.Options{ConfigFile: *configFile, EnvFile: *envFile})
	if err != nil {
		die("load config: %v", err)
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		die("init logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "run":
		err = runCmd(ctx, cfg, logger, args)
	case "export":
		err = exportCmd(ctx, cfg, logger, args)
	case "import":
		err = importCmd(ctx, cfg, logger, args)
	case "stats":
		err = statsCmd(ctx, cfg, logger)
	case "clear":
		err = clearCmd(ctx, cfg, logger)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command_failed", slog.String("command", cmd), slog.Any("error", err))
		die("%s: %v", cmd, err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: surveyflow [-config file] [-env file] <run|export|import|stats|clear> [flags]\n\n")
	flag.PrintDefaults()
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts surveyflow.BundleOptions) (*surveyflow.SessionBundle, error) {
	opts.Logger = logger
	return surveyflow.OpenBundle(ctx, cfg, opts)
}

func runCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	format := fs.String("format", "text", "how to print the final answers: text, json or yaml")
	fs.Parse(args)

	var results surveyflow.Answers
	bundle, err := open(ctx, cfg, logger, surveyflow.BundleOptions{
		Results: surveyflow.ResultsHandlerFunc(func(_ context.Context, answers surveyflow.Answers) error {
			results = answers
			return nil
		}),
	})
	if err != nil {
		return err
	}
	defer bundle.Close()

	model := tui.New(ctx, bundle.Controller)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	switch model.Outcome() {
	case tui.OutcomeFailed:
		return model.Err()
	case tui.OutcomeCompleted:
		return printAnswers(os.Stdout, *format, results)
	case tui.OutcomeExited:
		fmt.Println("Back to start. Your progress is saved.")
	default:
		if bundle.Store.HasInProgress(ctx) {
			fmt.Println("Progress saved. Run surveyflow again to continue.")
		}
	}
	return nil
}

func printAnswers(w io.Writer, format string, answers surveyflow.Answers) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answers)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(answers)
	}

	ids := make([]string, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "%-20s %s\n", id, answers[id])
	}
	return nil
}

func exportCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "json", "output format: json or yaml")
	out := fs.String("o", "-", "output file, - for stdout")
	fs.Parse(args)

	bundle, err := open(ctx, cfg, logger, surveyflow.BundleOptions{})
	if err != nil {
		return err
	}
	defer bundle.Close()

	var data []byte
	switch *format {
	case "json":
		var ok bool
		if data, ok = bundle.Store.Export(ctx); !ok {
			return fmt.Errorf("no stored session under key %q", bundle.Store.Key())
		}
	case "yaml":
		rec, ok := bundle.Store.Load(ctx)
		if !ok {
			return fmt.Errorf("no stored session under key %q", bundle.Store.Key())
		}
		if data, err = yaml.Marshal(rec); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q", *format)
	}

	if *out == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(*out, data, 0o644)
}

func importCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("expected one input file (- for stdin)")
	}

	var (
		data []byte
		err  error
	)
	if path := fs.Arg(0); path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	bundle, err := open(ctx, cfg, logger, surveyflow.BundleOptions{})
	if err != nil {
		return err
	}
	defer bundle.Close()

	if err := bundle.Store.Import(ctx, data); err != nil {
		return err
	}
	fmt.Printf("Imported session into %s (key %q).\n", cfg.Storage.Backend, bundle.Store.Key())
	return nil
}

func statsCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	bundle, err := open(ctx, cfg, logger, surveyflow.BundleOptions{})
	if err != nil {
		return err
	}
	defer bundle.Close()

	st := bundle.Store.Stats(ctx)
	fmt.Printf("backend:      %s\n", cfg.Storage.Backend)
	fmt.Printf("key:          %s\n", bundle.Store.Key())
	if !st.HasData {
		fmt.Println("stored:       none")
		return nil
	}
	state := "in progress"
	if st.IsCompleted {
		state = "completed"
	}
	fmt.Printf("stored:       %s\n", state)
	fmt.Printf("answers:      %d\n", st.AnswersCount)
	fmt.Printf("last updated: %s\n", st.LastUpdated.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func clearCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	bundle, err := open(ctx, cfg, logger, surveyflow.BundleOptions{})
	if err != nil {
		return err
	}
	defer bundle.Close()

	bundle.Store.Clear(ctx)
	fmt.Println("Stored session cleared.")
	return nil
}
