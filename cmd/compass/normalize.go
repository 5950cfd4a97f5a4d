package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"career-compass/internal/normalize"

	"github.com/spf13/cobra"
)

var normalizeInsert bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize a JSON field set read from stdin",
	Long: `Read one JSON object of application fields from stdin and print the patch
the tracker would send to the store, or the validation error.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runNormalize(cmd.InOrStdin(), cmd.OutOrStdout(), normalize.New(), normalizeInsert)
	},
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeInsert, "insert", false, "Normalize as a new record (generates app_uuid, defaults status)")
	rootCmd.AddCommand(normalizeCmd)
}

type normalizeResult struct {
	OK      bool             `json:"ok"`
	Patch   *normalize.Patch `json:"patch,omitempty"`
	Code    string           `json:"code,omitempty"`
	Field   string           `json:"field,omitempty"`
	Message string           `json:"message,omitempty"`
}

// runNormalize prints the result as JSON. Validation failures are printed
// and also returned so the process exits non-zero.
func runNormalize(in io.Reader, out io.Writer, n *normalize.Normalizer, insert bool) error {
	dec := json.NewDecoder(in)
	dec.UseNumber()

	var fields normalize.Fields
	if err := dec.Decode(&fields); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	if fields == nil {
		return errors.New("input must be a JSON object")
	}

	build := n.Build
	if insert {
		build = n.BuildInsert
	}

	result := normalizeResult{OK: true}
	patch, err := build(fields)
	if err != nil {
		var ve *normalize.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		result = normalizeResult{Code: string(ve.Kind), Field: ve.Field, Message: ve.Message}
	} else {
		result.Patch = patch
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(result); encErr != nil {
		return fmt.Errorf("encode result: %w", encErr)
	}

	return err
}
