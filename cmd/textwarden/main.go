package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "textwarden",
	Short:         "Grammar, spelling, style and clarity checks from the terminal",
	Long:          `TextWarden analyses text and HTML documents with an AI model and marks the issues it finds.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)

	rootCmd.PersistentFlags().String("proxy", "", "analyse through a TextWarden proxy at this URL")
	rootCmd.PersistentFlags().String("env", ".env", "optional dotenv file")
	rootCmd.PersistentFlags().String("settings", "", "settings file (.yaml, .json or .toml)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().StringSlice("checks", nil, "checks to run (grammar,spelling,style,clarity)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		newPrinter(os.Stderr, "auto").errorf("%v", err)
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
