package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Paril/angel-lsp/config"
	"github.com/Paril/angel-lsp/daemon"
	"github.com/Paril/angel-lsp/diagnostic"
	"github.com/Paril/angel-lsp/helpers"
	"github.com/Paril/angel-lsp/history"
	"github.com/Paril/angel-lsp/logging"
	"github.com/Paril/angel-lsp/lsp_server"
	"github.com/Paril/angel-lsp/release"
	"github.com/Paril/angel-lsp/resolver"
)

var rootCmd = &cobra.Command{
	Use:     "angel-lsp",
	Version: release.Version(),
	Short:   "angel-lsp is a language server and workspace analyzer for AngelScript.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			log.Fatalln(err)
		}
		daemon.SetDefaultPort(fmt.Sprintf(":%d", port))

		if dataDir, _ := cmd.Flags().GetString("data-dir"); len(dataDir) != 0 {
			helpers.SetDataDirPath(dataDir)
		}
	},
}

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Starts a language server to be consumed by LSP-supported editors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return lsp_server.Start()
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Starts the workspace daemon that holds the shared analysis state for every connected editor.",
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")

		logFile := os.Stderr
		log := logging.New(logFile, verbose)
		defer log.Sync()

		settings, err := config.LoadFile("angelscript.toml", config.Default())
		if err != nil {
			return err
		}

		return daemon.Serve(daemon.CurrentPort(), settings, log)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Analyzes the given files in-process, without starting the daemon, and prints diagnostics.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadFile("angelscript.toml", config.Default())
		if err != nil {
			return err
		}

		recordHistory, _ := cmd.Flags().GetBool("history")

		var store *history.Store
		if recordHistory {
			store, err = history.Open()
			if err != nil {
				return fmt.Errorf("opening analysis history: %w", err)
			}
			defer store.Close()
		}

		hadErrors := false
		res := resolver.New(settings, helpers.NewSharedFS(), nil)

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			docURI := "file://" + path
			res.Open(docURI, string(data))
			rec := res.Flush(docURI)

			diags := rec.Diagnostics()
			fileHadErrors := false
			for _, d := range diags {
				fmt.Printf("%s:%d:%d: %s: %s\n", path, d.Range.Start.Line, d.Range.Start.Column, severityLabel(d.Severity), d.Message)
				if d.Severity == diagnostic.SeverityError {
					fileHadErrors = true
					hadErrors = true
				}
			}

			if store != nil {
				store.RecordRun(history.Run{
					URI:             docURI,
					DiagnosticCount: len(diags),
					OK:              !fileHadErrors,
				})
			}
		}

		if hadErrors {
			os.Exit(1)
		}

		return nil
	},
}

func severityLabel(s diagnostic.Severity) string {
	switch s {
	case diagnostic.SeverityError:
		return "error"
	case diagnostic.SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

func init() {
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(checkCmd)

	rootCmd.PersistentFlags().IntP("port", "p", 9342, "the port to use for the daemon")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().String("data-dir", "", "the directory to use for cached workspace state. Overrides the ANGEL_LSP_DIR environment variable.")

	checkCmd.Flags().Bool("history", false, "record this run's diagnostic counts to the analysis history store")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
