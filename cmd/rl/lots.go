package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/ribbonlog/internal/confirm"
	"github.com/zulandar/ribbonlog/internal/form"
	"github.com/zulandar/ribbonlog/internal/lot"
	"github.com/zulandar/ribbonlog/internal/models"
	"golang.org/x/term"
)

// lotFlags are the editable fields shared by add and edit.
type lotFlags struct {
	lotNumber   string
	shift       string
	ribbonModel string
	quantity    string
	problem     string
	details     string
	photo       string
}

func (f *lotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.lotNumber, "lot", "", "lot number")
	cmd.Flags().StringVar(&f.shift, "shift", "ADM", "shift (ADM or 2°Turno)")
	cmd.Flags().StringVar(&f.ribbonModel, "model", "", "ribbon model, e.g. R-500")
	cmd.Flags().StringVar(&f.quantity, "quantity", "", "number of ribbons affected")
	cmd.Flags().StringVar(&f.problem, "problem", "", "problem description")
	cmd.Flags().StringVar(&f.details, "details", "", "additional details")
	cmd.Flags().StringVar(&f.photo, "photo", "", "path to an image to attach")
}

// apply copies the flags the user set onto in. Unset flags keep in's values.
func (f *lotFlags) apply(cmd *cobra.Command, in *form.Input) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("lot", &in.LotNumber, f.lotNumber)
	set("shift", &in.Shift, f.shift)
	set("model", &in.RibbonModel, f.ribbonModel)
	set("quantity", &in.Quantity, f.quantity)
	set("problem", &in.Problem, f.problem)
	set("details", &in.Details, f.details)
}

// attachPhoto encodes the --photo file into the form, waiting for the read.
func attachPhoto(ctx context.Context, f *form.Form, path string, limit int64) error {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer file.Close()
	f.Attach(form.EncodeAttachment(ctx, file, limit))
	if err := f.Settle(ctx); err != nil {
		return fmt.Errorf("photo %s: %w", path, err)
	}
	return nil
}

func newAddCmd() *cobra.Command {
	var (
		configPath string
		flags      lotFlags
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a new lot problem",
		Long:  "Records a new ribbon lot problem. Date, time and status are set automatically.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, configPath, &flags)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	flags.register(cmd)
	return cmd
}

func runAdd(cmd *cobra.Command, configPath string, flags *lotFlags) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	f := form.NewCreate()
	flags.apply(cmd, &f.Input)
	if err := attachPhoto(ctx, f, flags.photo, a.cfg.Dashboard.MaxUploadBytes); err != nil {
		return err
	}
	rec, _, err := f.Submit(ctx, a.store)
	if errors.Is(err, form.ErrInvalid) {
		return f.Errors
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Problema registrado: %s\n", rec.ID)
	fmt.Fprintf(out, "Lote %s em %s %s (%s)\n", rec.LotNumber, rec.Date, rec.Time, rec.Shift.Label())
	return nil
}

func newListCmd() *cobra.Command {
	var (
		configPath string
		search     string
		status     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List logged lot problems",
		Long:  "Lists lot problems newest first. --search matches lot number, problem or ribbon model.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, configPath, search, status)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by lot number, problem or model")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (active, pending, resolved)")
	return cmd
}

func runList(cmd *cobra.Command, configPath, search, status string) error {
	if status != "" && !models.Status(status).Valid() {
		return fmt.Errorf("unknown status %q (active, pending, resolved)", status)
	}
	a, err := openApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	all := a.store.List()
	lots := lot.Filter(all, search)
	if status != "" {
		lots = lot.WithStatus(lots, models.Status(status))
	}

	out := cmd.OutOrStdout()
	if len(lots) == 0 {
		if len(all) == 0 {
			fmt.Fprintln(out, "Nenhum problema registrado ainda.")
		} else {
			fmt.Fprintln(out, "Nenhum resultado.")
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLOTE\tDATA/HORA\tTURNO\tMODELO\tQTD\tSTATUS\tPROBLEMA")
	for _, r := range lots {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%d\t%s\t%s\n",
			shortID(r.ID), r.LotNumber, r.Date, r.Time, r.Shift, r.RibbonModel,
			r.Quantity, r.Status.Label(), truncate(r.Problem, 40))
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d resultado(s)\n", len(lots))
	return nil
}

func newShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one lot problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	return cmd
}

func runShow(cmd *cobra.Command, configPath, ref string) error {
	a, err := openApp(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := resolve(a.store, ref)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", rec.ID)
	fmt.Fprintf(out, "Lote:        %s\n", rec.LotNumber)
	fmt.Fprintf(out, "Data/Hora:   %s %s\n", rec.Date, rec.Time)
	fmt.Fprintf(out, "Turno:       %s\n", rec.Shift.Label())
	fmt.Fprintf(out, "Modelo:      %s\n", rec.RibbonModel)
	fmt.Fprintf(out, "Quantidade:  %d\n", rec.Quantity)
	fmt.Fprintf(out, "Status:      %s\n", rec.Status.Label())
	fmt.Fprintf(out, "Problema:    %s\n", rec.Problem)
	details := rec.Details
	if details == "" {
		details = "(Sem detalhes)"
	}
	fmt.Fprintf(out, "Detalhes:    %s\n", details)
	if rec.HasAttachment() {
		mime, _, _ := strings.Cut(strings.TrimPrefix(rec.Attachment, "data:"), ";")
		fmt.Fprintf(out, "Anexo:       %s\n", mime)
	}
	return nil
}

func newEditCmd() *cobra.Command {
	var (
		configPath  string
		flags       lotFlags
		status      string
		removePhoto bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a lot problem",
		Long:  "Updates the fields given as flags. Date, time and ID never change.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, configPath, args[0], &flags, status, removePhoto)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	flags.register(cmd)
	cmd.Flags().StringVar(&status, "status", "", "new status (active, pending, resolved)")
	cmd.Flags().BoolVar(&removePhoto, "remove-photo", false, "drop the attached photo")
	return cmd
}

func runEdit(cmd *cobra.Command, configPath, ref string, flags *lotFlags, status string, removePhoto bool) error {
	if status != "" && !models.Status(status).Valid() {
		return fmt.Errorf("unknown status %q (active, pending, resolved)", status)
	}
	ctx := cmd.Context()
	a, err := openApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := resolve(a.store, ref)
	if err != nil {
		return err
	}

	f := form.NewEdit(rec)
	flags.apply(cmd, &f.Input)
	if status != "" {
		f.Input.Status = status
	}
	f.Input.RemoveAttachment = removePhoto
	if err := attachPhoto(ctx, f, flags.photo, a.cfg.Dashboard.MaxUploadBytes); err != nil {
		return err
	}

	updated, ok, err := f.Submit(ctx, a.store)
	switch {
	case errors.Is(err, form.ErrInvalid):
		return f.Errors
	case err != nil:
		return err
	case !ok:
		return fmt.Errorf("lot %s not found", ref)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registro atualizado: %s (%s)\n", updated.ID, updated.Status.Label())
	return nil
}

func newDeleteCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a lot problem",
		Long:  "Deletes a lot problem after confirmation. Use --yes to skip the prompt.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, configPath, args[0], yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runDelete(cmd *cobra.Command, configPath, ref string, yes bool) error {
	ctx := cmd.Context()
	a, err := openApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := resolve(a.store, ref)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var m confirm.Machine
	m.Request(rec.ID)
	if !yes {
		if !interactive(cmd.InOrStdin()) {
			return fmt.Errorf("refusing to delete without --yes: stdin is not a terminal")
		}
		if !promptYes(out, cmd.InOrStdin(), fmt.Sprintf("Excluir o lote %s (%s)? [y/N]: ", rec.LotNumber, rec.RibbonModel)) {
			m.Cancel()
		}
	}
	id, ok := m.Confirm()
	if !ok {
		fmt.Fprintln(out, "Cancelado.")
		return nil
	}

	removed, err := a.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("lot %s not found", ref)
	}
	fmt.Fprintf(out, "Registro excluído: %s\n", id)
	return nil
}

func newStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			st := lot.Summarize(a.store.List())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total de Registros:  %d\n", st.Total)
			fmt.Fprintf(out, "Problemas Ativos:    %d\n", st.Active)
			fmt.Fprintf(out, "Pendentes:           %d\n", st.Pending)
			fmt.Fprintf(out, "Resolvidos:          %d\n", st.Resolved)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Ribbonlog config file")
	return cmd
}

// resolve finds a record by full ID or by a unique ID prefix as printed by list.
func resolve(s *lot.Store, ref string) (models.Record, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Record{}, fmt.Errorf("lot %q not found", ref)
	}
	if rec, ok := s.Get(ref); ok {
		return rec, nil
	}
	var matches []models.Record
	for _, r := range s.List() {
		if strings.HasPrefix(r.ID, ref) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return models.Record{}, fmt.Errorf("lot %s not found", ref)
	case 1:
		return matches[0], nil
	default:
		return models.Record{}, fmt.Errorf("id prefix %s is ambiguous (%d matches)", ref, len(matches))
	}
}

// interactive reports whether r can answer a prompt. Non-file readers (tests,
// pipes set up by callers) are assumed to carry an answer.
func interactive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	return term.IsTerminal(int(f.Fd()))
}

func promptYes(out io.Writer, in io.Reader, question string) bool {
	fmt.Fprint(out, question)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes", "s", "sim":
		return true
	}
	return false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}
