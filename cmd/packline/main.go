// Command packline bundles a CommonJS/ES module entry point and its
// transitive dependencies into a single script runnable in a browser or
// any other environment without a module loader of its own.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/packline-dev/packline/internal/bundlerrors"
	"github.com/packline-dev/packline/internal/cli"
)

var exeName = "packline"

var rootCmd = &cobra.Command{
	Use:           exeName + " [flags] <input> [output]",
	Short:         "Bundle a CommonJS/ES module entry point into one script",
	Version:       "0.1.0",
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringP("input", "i", "", "entry point (may also be given positionally)")
	flags.StringP("output", "o", "-", "output file, or - for stdout")
	flags.StringP("map", "m", "", "write the source map to this file")
	flags.BoolP("map-inline", "I", false, "inline the source map as a data URI")
	flags.BoolP("no-map", "M", false, "suppress source map output")
	flags.BoolP("watch", "w", false, "rebuild on file change")
	flags.BoolP("quiet-watch", "W", false, "like --watch, but suppress the bell on a failed rebuild")
	flags.StringSliceP("external", "x", nil, "module name(s) to leave unbundled")
	flags.Bool("external-core", false, "treat every Node.js core module as external")
	flags.BoolP("for-browser", "b", false, "resolve against bower.json / bower_components instead of npm")
	flags.BoolP("es-syntax", "e", false, "accepted, but has no effect on scanning by itself (see --es-syntax-everywhere)")
	flags.BoolP("es-syntax-everywhere", "E", false, "scan every module as an ES module (implies --es-syntax)")
	flags.Bool("log-json", false, "emit structured JSON diagnostics instead of plain text")

	for _, name := range []string{
		"input", "output", "map", "map-inline", "no-map", "watch", "quiet-watch",
		"external", "external-core", "for-browser", "es-syntax", "es-syntax-everywhere", "log-json",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	viper.SetEnvPrefix("PACKLINE")
	viper.AutomaticEnv()
	viper.SetConfigName("packline")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // absence of a config file is not an error

	rootCmd.SetVersionTemplate(fmt.Sprintf("%s version {{.Version}}\n", exeName))
}

func run(cmd *cobra.Command, args []string) error {
	input := viper.GetString("input")
	output := viper.GetString("output")
	if len(args) > 0 {
		input = args[0]
	}
	if len(args) > 1 {
		output = args[1]
	}
	if input == "" {
		return bundlerrors.New(bundlerrors.MissingFileName, "missing input file name")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}
	if !filepath.IsAbs(input) {
		input = filepath.Join(cwd, input)
	}
	if output != "-" && !filepath.IsAbs(output) {
		output = filepath.Join(cwd, output)
	}

	mapPath := viper.GetString("map")
	opts := cli.Options{
		Input:              input,
		Output:             output,
		MapPath:            mapPath,
		MapPathSet:         mapPath != "",
		MapInline:          viper.GetBool("map-inline"),
		NoMap:              viper.GetBool("no-map"),
		Watch:              viper.GetBool("watch"),
		QuietWatch:         viper.GetBool("quiet-watch"),
		External:           viper.GetStringSlice("external"),
		ExternalCore:       viper.GetBool("external-core"),
		ForBrowser:         viper.GetBool("for-browser"),
		ESSyntax:           viper.GetBool("es-syntax"),
		ESSyntaxEverywhere: viper.GetBool("es-syntax-everywhere"),
		Cwd:                cwd,
		ExeName:            exeName,
		LogJSON:            viper.GetBool("log-json"),
	}
	if opts.MapPath != "" && !filepath.IsAbs(opts.MapPath) {
		opts.MapPath = filepath.Join(cwd, opts.MapPath)
	}

	code := cli.Run(context.Background(), opts, cmd.OutOrStdout(), cmd.OutOrStdout())
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", exeName, err)
		os.Exit(1)
	}
}
