package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/docintake/internal/model"
)

var extractFormat string

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract a structured record from one document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutputFormat(extractFormat); err != nil {
			return err
		}

		env, err := initPipeline(cmd.Context(), cfg, "extract")
		if err != nil {
			return err
		}
		defer env.Close()

		return runExtract(cmd.Context(), env.Pipeline, args[0], extractFormat, cmd.OutOrStdout())
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(extractCmd)
}

func validateOutputFormat(format string) error {
	switch format {
	case "json", "yaml":
		return nil
	default:
		return eris.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// processor runs the extraction pipeline for one source file.
type processor interface {
	Process(ctx context.Context, src model.SourceFile) (*model.ExtractionResult, error)
}

// runExtract processes path and writes the result to w.
func runExtract(ctx context.Context, proc processor, path, format string, w io.Writer) error {
	src := model.NewSourceFile(path)
	if src.Format() != model.FormatUnsupported {
		if _, err := os.Stat(path); err != nil {
			return eris.Wrapf(err, "extract: stat %s", path)
		}
	}

	result, err := proc.Process(ctx, src)
	if err != nil {
		kind := model.KindOf(err)
		zap.L().Error("extraction failed",
			zap.String("file", path),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return eris.Wrapf(err, "extract %s (kind=%s)", src.Name, kind)
	}

	return writeResult(w, result, format)
}

func writeResult(w io.Writer, result *model.ExtractionResult, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return eris.Wrap(err, "extract: encode yaml")
		}
		return eris.Wrap(enc.Close(), "extract: flush yaml")
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "extract: encode json")
	}
}
