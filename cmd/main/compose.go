package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/CTAG07/Capyboard/pkg/mascot"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose the mascot and print it",
	Long: `Resolves a mascot request and prints the layer stack as JSON, the
flattened SVG document or the HTML fragment layouts embed.`,
	Example: `  capyboard compose --eye closed --add-ons tears-streaming --format svg > sad.svg
  capyboard compose --expression anger --size 512`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := LoadConfig(configPath(cmd))
		if err != nil {
			return err
		}
		logger := newLogger(config.Server.LogLevel)

		req, err := composeRequest(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		source, closer, err := newAssetSource(config.Mascot, logger)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}
		compositor := mascot.NewCompositor(source, mascot.WithLogger(logger))
		comp, err := compositor.Compose(cmd.Context(), req)
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		return writeComposition(cmd, w, comp, source, format)
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)
	composeCmd.Flags().String("expression", "", "Legacy expression, e.g. anger or tears-streaming")
	composeCmd.Flags().String("eye", "", "Eye state: normal, closed or white")
	composeCmd.Flags().StringSlice("add-ons", nil, "Add-ons to draw; pass an empty value for none")
	composeCmd.Flags().Int("size", mascot.DefaultSize, "Edge length in pixels")
	composeCmd.Flags().StringP("format", "f", "json", "Output format: json, svg or html")
	composeCmd.Flags().StringP("out", "o", "", "Write to a file instead of stdout")
}

func composeRequest(cmd *cobra.Command) (mascot.Request, error) {
	flags := cmd.Flags()
	expression, _ := flags.GetString("expression")
	eye, _ := flags.GetString("eye")
	size, _ := flags.GetInt("size")
	if size <= 0 || size > maxMascotSize {
		return mascot.Request{}, fmt.Errorf("size must be between 1 and %d", maxMascotSize)
	}

	req := mascot.Request{
		Expression: mascot.Expression(expression),
		Eye:        mascot.EyeState(eye),
		Size:       size,
	}
	if flags.Changed("add-ons") {
		names, _ := flags.GetStringSlice("add-ons")
		req.AddOns = []mascot.AddOn{}
		for _, n := range names {
			if n != "" {
				req.AddOns = append(req.AddOns, mascot.AddOn(n))
			}
		}
	}
	return req, nil
}

func writeComposition(cmd *cobra.Command, w io.Writer, comp mascot.Composition, source mascot.AssetSource, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(comp)
	case "svg":
		data, err := comp.SVG(cmd.Context(), source)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "html":
		fragment, err := comp.HTML()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, string(fragment))
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}
