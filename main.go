package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fabfab/learning-assistant/api"
	"github.com/fabfab/learning-assistant/config"
	"github.com/fabfab/learning-assistant/documents"
	"github.com/fabfab/learning-assistant/llm"
	"github.com/fabfab/learning-assistant/logging"
	"github.com/fabfab/learning-assistant/metrics"
	"github.com/fabfab/learning-assistant/tutor"
)

var verbose bool

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "learning-assistant",
		Short:         "Question-answering tutor over a small set of AI documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(serveCmd(), askCmd(), docsCmd())
	return root
}

// app holds the handles built once per process and shared by every request.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	docs     *documents.Store
	answerer tutor.Answerer
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger setup: %w", err)
	}

	m := metrics.New()
	docs := documents.Load(cfg.DocsDir, logger)

	a := &app{cfg: cfg, logger: logger, metrics: m, docs: docs}

	if cfg.Mode == config.ModeDemo {
		a.answerer = tutor.NewDemo(m)
		return a, nil
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm setup: %w", err)
	}
	a.answerer = tutor.NewService(docs, client, logger, m, tutor.Options{
		TopN: cfg.TopN,
		Params: llm.Params{
			MaxNewTokens: cfg.LLM.MaxNewTokens,
			Temperature:  cfg.LLM.Temperature,
		},
		Timeout: cfg.LLM.Timeout,
	})
	return a, nil
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tutor web form",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			if addr == "" {
				addr = a.cfg.HTTPAddr
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.New(a.cfg, a.answerer, a.docs, a.logger, a.metrics),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("serving tutor",
					zap.String("addr", addr),
					zap.String("mode", a.cfg.Mode),
					zap.String("provider", a.cfg.LLM.Provider),
					zap.String("model", a.cfg.LLM.Model),
				)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("http server: %w", err)
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			a.logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from HTTP_ADDR)")
	return cmd
}

func askCmd() *cobra.Command {
	var (
		question    string
		level       string
		showSources bool
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer one question and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(question) == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Enter your question: ")
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if scanner.Scan() {
					question = scanner.Text()
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("read question: %w", err)
				}
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.logger.Sync() //nolint:errcheck

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			answer, err := a.answerer.Answer(ctx, tutor.Query{Question: question, Level: level})
			if err != nil {
				return fmt.Errorf("answer failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, answer.Text)
			if showSources {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Sources:")
				if len(answer.Sources) == 0 {
					fmt.Fprintln(out, "  (none)")
				}
				for idx, name := range answer.Sources {
					fmt.Fprintf(out, "%d. %s\n", idx+1, name)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "question to ask the tutor")
	cmd.Flags().StringVarP(&level, "level", "l", string(tutor.Beginner), "difficulty level (beginner, intermediate, advanced)")
	cmd.Flags().BoolVar(&showSources, "sources", false, "print the documents used as context")
	return cmd
}

func docsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List the loaded documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if verbose {
				cfg.Log.Level = "debug"
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return fmt.Errorf("logger setup: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			out := cmd.OutOrStdout()
			for _, doc := range documents.Load(cfg.DocsDir, logger).Documents() {
				status := fmt.Sprintf("%d bytes", len(doc.Content))
				if strings.TrimSpace(doc.Content) == "" {
					status = "empty"
				}
				path := doc.Path
				if path == "" {
					path = "(missing)"
				}
				fmt.Fprintf(out, "%-10s %-30s %s\n", doc.Name, path, status)
			}
			return nil
		},
	}
}
