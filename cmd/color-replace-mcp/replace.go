package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-replace-mcp/internal/export"
	"github.com/ironsheep/color-replace-mcp/internal/pipeline"
	"github.com/ironsheep/color-replace-mcp/internal/replace"
	"github.com/ironsheep/color-replace-mcp/internal/workspace"
)

var replaceCmd = &cobra.Command{
	Use:   "replace [flags] FILE...",
	Short: "Apply color replacement rules to image files and export the result",
	Long: `Apply color replacement rules to one or more images.

Rules are SOURCE:TARGET[:TOLERANCE], e.g. "#FFFFFF:transparent:20".
Preset rules come first, then --rule entries in order. With neither, the
default rule #FFFFFF:#000000:15 is used.

One input is written as PNG, several as a zip archive. If --output is a
directory the export's default name is used inside it. Inputs that cannot be
loaded or transformed are reported on stderr and left out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplace,
}

func init() {
	replaceCmd.Flags().StringArrayP("rule", "r", nil, "Replacement rule SOURCE:TARGET[:TOLERANCE] (repeatable)")
	replaceCmd.Flags().StringP("preset", "p", "", "Named rule preset")
	replaceCmd.Flags().StringP("output", "o", "", "Output file or directory")
	replaceCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(replaceCmd)
}

// replaceRules assembles the rule set from --preset and --rule.
func replaceRules(preset string, specs []string) (replace.RuleSet, error) {
	if preset == "" && len(specs) == 0 {
		return replace.DefaultRules(), nil
	}

	var rules replace.RuleSet
	if preset != "" {
		p, err := replace.Preset(preset)
		if err != nil {
			return nil, err
		}
		rules = append(rules, p...)
	}

	parsed, err := replace.ParseRules(specs)
	if err != nil {
		return nil, err
	}
	return append(rules, parsed...), nil
}

func runReplace(cmd *cobra.Command, args []string) error {
	preset, _ := cmd.Flags().GetString("preset")
	specs, _ := cmd.Flags().GetStringArray("rule")
	outputPath, _ := cmd.Flags().GetString("output")

	rules, err := replaceRules(preset, specs)
	if err != nil {
		return err
	}

	ws := workspace.New(pipeline.New(pipelineOptions(cmd)))
	defer ws.Close()

	if err := ws.SetRules(rules); err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	unloaded := 0
	for _, path := range args {
		if _, err := ws.AddImage(path, ""); err != nil {
			fmt.Fprintf(stderr, "skipped %s: %v\n", path, err)
			unloaded++
		}
	}
	if unloaded == len(args) {
		return fmt.Errorf("no input could be loaded: %w", export.ErrNothingToExport)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	art, skipped, err := ws.Export(ctx)
	if err != nil {
		return err
	}
	for _, img := range ws.Status().Images {
		if img.Error != "" {
			fmt.Fprintf(stderr, "skipped %s: %s\n", img.Name, img.Error)
		}
	}

	if info, err := os.Stat(outputPath); err == nil && info.IsDir() {
		outputPath = filepath.Join(outputPath, art.Name)
	}
	if err := os.WriteFile(outputPath, art.Data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes, %d image(s), %d skipped)\n",
		outputPath, len(art.Data), len(args)-unloaded-len(skipped), unloaded+len(skipped))
	return nil
}
