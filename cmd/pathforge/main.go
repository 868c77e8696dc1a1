// pathforge es la CLI del motor de evaluacion: evaluacion interactiva,
// simulacion de sesiones y consultas de ajuste por dominio.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pathforge/internal/app"
	"pathforge/internal/config"
)

type rootOptions struct {
	catalogDir string
	archive    string
	offline    bool
	verbose    bool
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pathforge",
		Short:         "Adaptive career assessment engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.catalogDir, "catalog", "", "directory with catalog YAML files (defaults to the embedded catalog)")
	root.PersistentFlags().StringVar(&opts.archive, "archive", string(app.ArchiveSQLite), "report archive: none, memory, sqlite or postgres")
	root.PersistentFlags().BoolVar(&opts.offline, "offline", true, "skip LLM, market API, redis and SMTP collaborators")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newRunCmd(opts), newSimulateCmd(opts), newEvaluateCmd(opts))
	return root
}

// buildEngine carga la configuracion de entorno y aplica los flags globales encima.
func (o *rootOptions) buildEngine(cmd *cobra.Command) (*app.Engine, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.catalogDir != "" {
		cfg.CatalogDir = o.catalogDir
	}
	logger := zap.NewNop()
	if o.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, nil, err
		}
	}
	engine, err := app.Build(cmd.Context(), cfg, logger, app.Options{
		Archive:  app.Archive(o.archive),
		Registry: prometheus.NewRegistry(),
		Offline:  o.offline,
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, logger, nil
}
