package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/CTAG07/Capyboard/pkg/export"
	"github.com/CTAG07/Capyboard/pkg/herostore"
	"github.com/CTAG07/Capyboard/pkg/studio"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render a layout and save it as PNG or SVG",
	Long: `Starts a private preview server on the loopback interface, captures the
layout with the configured browser and writes the image to the output
directory.`,
	Example: `  capyboard export --layout viewer-stats --state stats.json --format png
  capyboard export --layout episode-release --name ep42 --out ./exports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		layoutName, _ := flags.GetString("layout")
		statePath, _ := flags.GetString("state")
		formatName, _ := flags.GetString("format")
		name, _ := flags.GetString("name")
		outDir, _ := flags.GetString("out")

		format, err := export.ParseFormat(formatName)
		if err != nil {
			return err
		}
		l, err := readLayoutState(cmd, studio.LayoutName(layoutName), statePath)
		if err != nil {
			return err
		}

		config, err := LoadConfig(configPath(cmd))
		if err != nil {
			return err
		}
		if outDir == "" {
			outDir = config.Export.OutputDir
		}
		logger := newLogger(config.Server.LogLevel)

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to open preview listener: %w", err)
		}
		config.Server.Addr = ln.Addr().String()
		config.Export.PublicURL = "http://" + ln.Addr().String()
		cm := newStaticConfigManager(config, logger)

		if err = os.MkdirAll(config.Server.DataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err := initDB(config.Server.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()
		if err = herostore.SetupSchema(db); err != nil {
			return fmt.Errorf("failed to setup settings schema: %w", err)
		}

		server, err := NewServer(cm, logger, db, make(chan string, 1), Capture{})
		if err != nil {
			return err
		}
		defer server.Close()

		httpServer := &http.Server{Handler: server, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Preview server failed", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(ctx)
		}()

		deliverer := export.DirDeliverer{Dir: outDir}
		dl, err := server.exportAPI.run(cmd.Context(), exportJob{Layout: l, Format: format, FileName: name}, deliverer)
		return reportExport(cmd.OutOrStdout(), cmd.ErrOrStderr(), deliverer, dl, err)
	},
}

// reportExport prints the saved path. Skipped exports print a notice to
// errOut and are not failures.
func reportExport(out, errOut io.Writer, deliverer export.DirDeliverer, dl export.Download, err error) error {
	switch {
	case err == nil:
		fmt.Fprintln(out, deliverer.Path(dl.FileName))
		return nil
	case errors.Is(err, export.ErrRootNotFound):
		fmt.Fprintln(errOut, "export skipped: capture root not found")
		return nil
	case errors.Is(err, errExportBusy):
		fmt.Fprintln(errOut, "export skipped: already in progress")
		return nil
	default:
		return fmt.Errorf("export failed: %w", err)
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("layout", "l", string(firstLayout()), "Layout to export")
	exportCmd.Flags().StringP("state", "s", "", "JSON file with the layout state, - for stdin; defaults when empty")
	exportCmd.Flags().StringP("format", "f", "png", "Image format: png or svg")
	exportCmd.Flags().StringP("name", "n", "", "File name, the extension is added when missing")
	exportCmd.Flags().StringP("out", "o", "", "Output directory; the configured one when empty")
}

// readLayoutState decodes the state file of layout name. An empty path
// yields the layout's defaults.
func readLayoutState(cmd *cobra.Command, name studio.LayoutName, path string) (studio.Layout, error) {
	var data []byte
	var err error
	switch path {
	case "":
		return studio.Default(name)
	case "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read layout state: %w", err)
	}
	return studio.Decode(name, data)
}
