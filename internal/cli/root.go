// Package cli - команды tavily: поиск, извлечение контента, гибридный поиск и HTTP сервер.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitbuilder587/tavily-go/internal/config"
)

// app - общее состояние команд; заполняется в PersistentPreRunE
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	loadConfig func() (*config.Config, error)
	logLevel   string
	pretty     bool
}

func NewRootCmd() *cobra.Command {
	a := &app{loadConfig: config.Load}

	root := &cobra.Command{
		Use:   "tavily",
		Short: "Tavily search client and hybrid local/remote retrieval",
		Long: `tavily talks to the Tavily search API and merges its results with a
local pgvector collection.

Example usage:
  tavily search -q "golang generics"
  tavily qna -q "who won the 2022 world cup"
  tavily hybrid -q "messi" --persist default
  tavily serve --addr :8080`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (default from LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "indent JSON output")

	root.AddCommand(
		newSearchCmd(a),
		newContextCmd(a),
		newQnACmd(a),
		newCompanyCmd(a),
		newExtractCmd(a),
		newCrawlCmd(a),
		newMapCmd(a),
		newHybridCmd(a),
		newIndexCmd(a),
		newServeCmd(a),
	)

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) print(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if a.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
