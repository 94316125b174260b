package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/CTAG07/Capyboard/pkg/studio"
)

var layoutsCmd = &cobra.Command{
	Use:   "layouts",
	Short: "List the layouts and platform canvases",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LAYOUT\tLABEL")
		for _, l := range studio.Layouts() {
			fmt.Fprintf(w, "%s\t%s\n", l.Name, l.Label)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "PLATFORM\tSIZE\tLABEL")
		for _, p := range studio.Platforms() {
			fmt.Fprintf(w, "%s\t%dx%d\t%s\n", p.Key, p.Width, p.Height, p.Label)
		}
		return w.Flush()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of capyboard",
	Run: func(cmd *cobra.Command, args []string) {
		v := currentVersion()
		fmt.Fprintf(cmd.OutOrStdout(), "capyboard version %s (commit %s, built %s)\n", v.Version, v.Commit, v.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(layoutsCmd)
	rootCmd.AddCommand(versionCmd)
}
