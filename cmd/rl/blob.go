package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/ribbonlog/internal/kvstore"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored record blob as JSON",
		Long:  "Writes the JSON array stored under the configured key, exactly as stored, to stdout or --out.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, configPath, outPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func runExport(cmd *cobra.Command, configPath, outPath string) error {
	a, err := openApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	raw, ok, err := a.adapter.Raw(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		raw = "[]"
	}

	var w io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}
	if _, err := io.WriteString(w, raw+"\n"); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if outPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported key %q to %s\n", a.adapter.Key(), outPath)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the record log with a JSON export",
		Long:  "Reads a JSON array of records (as written by export) and replaces the stored log with it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	return cmd
}

func runImport(cmd *cobra.Command, configPath, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	records, err := kvstore.Decode(data)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	before := len(a.store.List())
	if err := a.store.Replace(cmd.Context(), records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d record(s), replacing %d\n", len(records), before)
	return nil
}
