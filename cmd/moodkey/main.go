// Package main provides the CLI entrypoint for moodkey.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mzashi/moodkey/internal/config"
	"github.com/mzashi/moodkey/internal/formula"
	"github.com/mzashi/moodkey/internal/freq"
	"github.com/mzashi/moodkey/internal/ingest"
	"github.com/mzashi/moodkey/internal/model"
	"github.com/mzashi/moodkey/internal/report"
	"github.com/mzashi/moodkey/internal/score"
	"github.com/mzashi/moodkey/internal/search"
	"github.com/mzashi/moodkey/internal/store"
	"github.com/mzashi/moodkey/internal/viewui"
)

const (
	defaultInput      = "messages.csv"
	defaultWorkers    = 4
	defaultTopK       = 3
	defaultMinLetters = freq.LowConfidenceLetters
	defaultOutDir     = "output"
)

var (
	analyzeInput      string
	analyzeWorkers    int
	analyzeTopK       int
	analyzeMinLetters int
	analyzeIoCMin     float64
	analyzeIoCMax     float64
	analyzeSave       bool
	analyzeOut        string

	deriveSave bool

	decryptMood    int
	decryptFormula string

	freqWidth int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "moodkey",
		Short:         "Affine cipher key recovery from intercepted messages",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newDeriveCmd())
	rootCmd.AddCommand(newDecryptCmd())
	rootCmd.AddCommand(newFreqCmd())
	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Recover per-message keys from a capture",
		Args:  cobra.NoArgs,
		RunE:  runAnalyzeCmd,
	}
	addSearchFlags(cmd)
	cmd.Flags().BoolVar(&analyzeSave, "save", false, "persist recovered keys to the database")
	cmd.Flags().StringVar(&analyzeOut, "out", "", "write decrypted messages to this directory")
	return cmd
}

func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&analyzeInput, "input", defaultInput, "capture CSV path")
	cmd.Flags().IntVar(&analyzeWorkers, "workers", defaultWorkers, "parallel message analyses")
	cmd.Flags().IntVar(&analyzeTopK, "top-k", defaultTopK, "frequency ranks tried by the fast path")
	cmd.Flags().IntVar(&analyzeMinLetters, "min-letters", defaultMinLetters, "minimum letters per message")
	cmd.Flags().Float64Var(&analyzeIoCMin, "ioc-min", score.DefaultIoCMin, "IoC acceptance band lower bound")
	cmd.Flags().Float64Var(&analyzeIoCMax, "ioc-max", score.DefaultIoCMax, "IoC acceptance band upper bound")
}

func searchOptions(cmd *cobra.Command) (search.Options, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return search.Options{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "workers", &analyzeWorkers, fileCfg.Analyze.Workers)
	applyIntConfig(cmd, "top-k", &analyzeTopK, fileCfg.Analyze.TopK)
	applyIntConfig(cmd, "min-letters", &analyzeMinLetters, fileCfg.Analyze.MinLetters)
	applyFloatConfig(cmd, "ioc-min", &analyzeIoCMin, fileCfg.Analyze.IoCMin)
	applyFloatConfig(cmd, "ioc-max", &analyzeIoCMax, fileCfg.Analyze.IoCMax)
	if analyzeOut == "" && fileCfg.Output.Dir != nil {
		analyzeOut = *fileCfg.Output.Dir
	}

	if analyzeWorkers <= 0 {
		return search.Options{}, fmt.Errorf("--workers must be > 0")
	}
	if analyzeTopK <= 0 || analyzeTopK > 26 {
		return search.Options{}, fmt.Errorf("--top-k must be between 1 and 26")
	}
	if analyzeIoCMin <= 0 || analyzeIoCMax <= analyzeIoCMin {
		return search.Options{}, fmt.Errorf("IoC band must satisfy 0 < min < max")
	}
	return search.Options{
		TopK:       analyzeTopK,
		Rule:       score.Rule{IoCMin: analyzeIoCMin, IoCMax: analyzeIoCMax},
		MinLetters: analyzeMinLetters,
	}, nil
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	opts, err := searchOptions(cmd)
	if err != nil {
		return err
	}
	msgs, err := ingest.LoadMessages(analyzeInput)
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}

	results := search.New(opts).AnalyzeBatch(msgs, analyzeWorkers)
	out := cmd.OutOrStdout()
	if err := report.RenderKeyTable(out, results); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, ""); err != nil {
		return err
	}
	if err := report.RenderSummary(out, results, nil); err != nil {
		return err
	}

	recs := search.Records(results)
	if analyzeSave && len(recs) > 0 {
		if err := saveRecords(recs); err != nil {
			return err
		}
	}
	if analyzeOut != "" {
		if err := writeDecrypted(analyzeOut, recs); err != nil {
			return err
		}
	}
	return nil
}

func saveRecords(recs []model.KeyRecord) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer closeStore(st)
	if err := st.InsertKeyRecords(context.Background(), recs); err != nil {
		return fmt.Errorf("failed to save key records: %w", err)
	}
	logErrf("Saved %d key records\n", len(recs))
	return nil
}

func writeDecrypted(dir string, recs []model.KeyRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, rec := range recs {
		var b strings.Builder
		fmt.Fprintf(&b, "%s\n", rec.Label)
		if rec.Mood != nil {
			fmt.Fprintf(&b, "Mood: %d\n", *rec.Mood)
		}
		fmt.Fprintf(&b, "Key: a=%d, b=%d\n", rec.Key.A, rec.Key.B)
		if rec.Username != "" {
			fmt.Fprintf(&b, "Username: %s\n", rec.Username)
		}
		fmt.Fprintf(&b, "\n%s\n", rec.Plaintext)

		path := filepath.Join(dir, rec.Label+".txt")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logErrf("Wrote %s\n", path)
	}
	return nil
}

func newDeriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Induce the mood-to-key formula from a capture",
		Args:  cobra.NoArgs,
		RunE:  runDeriveCmd,
	}
	addSearchFlags(cmd)
	cmd.Flags().BoolVar(&deriveSave, "save", false, "persist the induced formula")
	return cmd
}

func runDeriveCmd(cmd *cobra.Command, _ []string) error {
	opts, err := searchOptions(cmd)
	if err != nil {
		return err
	}
	msgs, err := ingest.LoadMessages(analyzeInput)
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}

	results := search.New(opts).AnalyzeBatch(msgs, analyzeWorkers)
	recs := search.Records(results)
	induced, err := formula.Induce(recs)
	if err != nil {
		return fmt.Errorf("failed to induce formula: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := report.RenderKeyTable(out, results); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, ""); err != nil {
		return err
	}
	if err := report.RenderSummary(out, results, &induced); err != nil {
		return err
	}

	if deriveSave {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer closeStore(st)
		ctx := context.Background()
		if err := st.InsertKeyRecords(ctx, recs); err != nil {
			return fmt.Errorf("failed to save key records: %w", err)
		}
		if err := st.InsertFormula(ctx, induced, len(recs)); err != nil {
			return fmt.Errorf("failed to save formula: %w", err)
		}
		logErrln("Saved formula and key records")
	}
	return nil
}

func newDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt [ciphertext]",
		Short: "Decrypt a message using the induced formula",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDecryptCmd,
	}
	cmd.Flags().IntVar(&decryptMood, "mood", 0, "side-channel mood value")
	cmd.Flags().StringVar(&decryptFormula, "formula", "", "formula coefficients ma,ca,mb,cb (default: latest saved)")
	if err := cmd.MarkFlagRequired("mood"); err != nil {
		// Flag is registered above; marking cannot fail.
		_ = err
	}
	return cmd
}

func runDecryptCmd(cmd *cobra.Command, args []string) error {
	ciphertext, err := readText(args)
	if err != nil {
		return err
	}

	var f model.KeyFormula
	if decryptFormula != "" {
		f, err = parseFormula(decryptFormula)
		if err != nil {
			return err
		}
	} else {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer closeStore(st)
		f, err = st.LatestFormula(context.Background())
		if errors.Is(err, store.ErrNoFormula) {
			return fmt.Errorf("no saved formula; run 'moodkey derive --save' or pass --formula")
		}
		if err != nil {
			return fmt.Errorf("failed to load formula: %w", err)
		}
	}

	plaintext, key, err := formula.UniversalDecrypt(f, decryptMood, ciphertext)
	if err != nil {
		return err
	}
	logErrf("Key %s from %s\n", key, f)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), plaintext); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func parseFormula(s string) (model.KeyFormula, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return model.KeyFormula{}, fmt.Errorf("--formula must be ma,ca,mb,cb")
	}
	vals := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return model.KeyFormula{}, fmt.Errorf("invalid --formula coefficient %q", part)
		}
		vals[i] = v
	}
	return model.KeyFormula{MA: vals[0], CA: vals[1], MB: vals[2], CB: vals[3]}, nil
}

func newFreqCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freq [text]",
		Short: "Show the letter-frequency profile of a text",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runFreqCmd,
	}
	cmd.Flags().IntVar(&freqWidth, "width", 0, "chart width (default: terminal width)")
	return cmd
}

func runFreqCmd(cmd *cobra.Command, args []string) error {
	text, err := readText(args)
	if err != nil {
		return err
	}
	p := freq.New(text)
	if err := report.RenderFreqChart(cmd.OutOrStdout(), "Observed vs English", p, freqWidth); err != nil {
		return err
	}
	ioc := score.IndexOfCoincidence(p)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nLetters: %d  IoC: %.4f  Chi2: %.1f\n",
		p.Letters, ioc, score.ChiSquared(p))
	return err
}

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse analysis results interactively",
		Args:  cobra.NoArgs,
		RunE:  runViewCmd,
	}
	addSearchFlags(cmd)
	return cmd
}

func runViewCmd(cmd *cobra.Command, _ []string) error {
	opts, err := searchOptions(cmd)
	if err != nil {
		return err
	}
	msgs, err := ingest.LoadMessages(analyzeInput)
	if err != nil {
		return fmt.Errorf("failed to load capture: %w", err)
	}
	results := search.New(opts).AnalyzeBatch(msgs, analyzeWorkers)

	var induced *model.KeyFormula
	if f, err := formula.Induce(search.Records(results)); err == nil {
		induced = &f
	} else {
		logErrf("formula not induced: %v\n", err)
	}

	program := tea.NewProgram(viewui.NewModel(results, induced), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run results browser: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# moodkey configuration
# Uncomment a value to enable it. CLI flags override config values.

[analyze]
# top-k = %d          # Frequency ranks tried by the fast path
# workers = %d        # Parallel message analyses
# min-letters = %d   # Minimum letters per message
# ioc-min = %.3f     # IoC acceptance band lower bound
# ioc-max = %.3f     # IoC acceptance band upper bound

[output]
# dir = %q       # Decrypted file directory
`,
		defaultTopK,
		defaultWorkers,
		defaultMinLetters,
		score.DefaultIoCMin,
		score.DefaultIoCMax,
		defaultOutDir,
	)
}

func readText(args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return "", fmt.Errorf("no input text")
	}
	return text, nil
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
