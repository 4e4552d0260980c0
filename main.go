// tabliff — spreadsheet localization toolkit: XLIFF round-trips for Excel workbooks.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tabliff/tabliff/config"
	"github.com/tabliff/tabliff/extract"
	"github.com/tabliff/tabliff/i18n"
	"github.com/tabliff/tabliff/langmeta"
	"github.com/tabliff/tabliff/lockfile"
	"github.com/tabliff/tabliff/merge"
	"github.com/tabliff/tabliff/validate"
	"github.com/tabliff/tabliff/workbook"
	"github.com/tabliff/tabliff/xliff"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tabliff",
		Short: "Workbook localization via XLIFF round-trips",
		Long: `tabliff exports translatable cell content from Excel workbooks into
XLIFF files and merges finished translations back into place.

In-cell markup survives the round trip byte for byte: tag casing,
attribute order, quoting and whitespace are restored exactly as authored.
Placeholders and ICU plural/select structure are masked from translators
and checked for damage on the way back.

Commands:
  status    Show project configuration and translation progress
  extract   Export workbook cells to XLIFF files
  merge     Write translated XLIFF content back into workbooks
  validate  Check translated files for placeholder and markup damage
  version   Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newStatusCmd(),
		newExtractCmd(),
		newMergeCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")

	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version command
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tabliff version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// status command
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project configuration and translation progress",
		Long: `Show project configuration, workbooks and per-language progress.

Reads the configuration (or auto-detects workbooks when no .tabliff.yaml
exists), then reports per workbook and language how many segments the
interchange files hold and how many carry a translation. Does not modify
any files.`,
		Run: func(cmd *cobra.Command, args []string) {
			runStatus()
		},
	}
}

func runStatus() {
	tf, err := loadProject()
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	lock, err := lockfile.Load(tf.Root())
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	// Project info header
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Project"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	fmt.Fprintf(os.Stderr, "  Root:       %s\n", tf.Root())

	configured := i18n.T("auto-detected")
	if fileExists(filepath.Join(tf.Root(), config.TabliffFileName)) {
		configured = config.TabliffFileName
	}
	fmt.Fprintf(os.Stderr, "  Config:     %s\n", configured)
	fmt.Fprintf(os.Stderr, "  Dialect:    %s\n", dialectLabel(tf.Dialect))
	fmt.Fprintf(os.Stderr, "  Source:     %s\n", langLabel(tf.SourceLang))
	fmt.Fprintf(os.Stderr, "  Fallback:   %s\n", tf.Fallback)
	fmt.Fprintf(os.Stderr, "  XLIFF dir:  %s\n", tf.XliffDir)
	fmt.Fprintf(os.Stderr, "  Output dir: %s\n", tf.OutputDir)

	labels := make([]string, 0, len(tf.AllLanguages()))
	for _, l := range tf.AllLanguages() {
		labels = append(labels, langLabel(l))
	}
	fmt.Fprintf(os.Stderr, "  Languages:  %s\n", strings.Join(labels, ", "))

	// Workbooks
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Workbooks"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	if len(tf.Workbooks) == 0 {
		fmt.Fprintf(os.Stderr, "  %s\n", i18n.T("No workbooks found"))
	}
	for _, w := range tf.Workbooks {
		path := tf.AbsWorkbook(w)
		if !fileExists(path) {
			fmt.Fprintf(os.Stderr, "  %s  %s%s%s\n", w.Path, colorRed, i18n.T("missing"), colorReset)
			continue
		}
		cells, err := workbook.Read(path, workbook.Options{
			Sheets: w.Sheets, HeaderRow: w.HeaderRow, SkipHidden: w.SkipHidden,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s  %s%s: %v%s\n", w.Path, colorRed, i18n.T("unreadable"), err, colorReset)
			continue
		}
		sheets := i18n.T("all visible sheets")
		if len(w.Sheets) > 0 {
			sheets = strings.Join(w.Sheets, ", ")
		}
		fmt.Fprintf(os.Stderr, "  %s  %d cells  (%s)\n", w.Path, len(cells), sheets)
	}

	// Per-language progress from the interchange files
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Translations"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	fmt.Fprintf(os.Stderr, "  %-22s %-7s %9s %11s\n",
		i18n.T("Workbook"), i18n.T("Lang"), i18n.T("Segments"), i18n.T("Translated"))
	fmt.Fprintln(os.Stderr, "  "+strings.Repeat("─", 56))

	haveXliff := false
	haveTranslated := false
	for _, w := range tf.Workbooks {
		for _, lang := range w.Languages {
			path := tf.XliffPath(w, lang)
			if !fileExists(path) {
				fmt.Fprintf(os.Stderr, "  %-22s %-7s %9s\n", clip(w.Path, 22), lang, i18n.T("missing"))
				continue
			}
			haveXliff = true
			doc, err := xliff.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %-22s %-7s %9s\n", clip(w.Path, 22), lang, i18n.T("unreadable"))
				continue
			}
			total, translated := docProgress(doc)
			if translated > 0 {
				haveTranslated = true
			}
			percent := 0
			if total > 0 {
				percent = translated * 100 / total
			}
			fmt.Fprintf(os.Stderr, "  %-22s %-7s %9d %11d  %s %s%3d%%%s\n",
				clip(w.Path, 22), lang, total, translated,
				progressBar(percent, 16), percentColor(percent), percent, colorReset)
		}
	}

	// Lock file
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Lock file"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	if targets, _ := lock.Stats(); targets == 0 {
		fmt.Fprintf(os.Stderr, "  %s\n", i18n.T("not created yet"))
	} else {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", lockfile.LockFileName, lock.Summary())
	}

	printSuggestedCommands(tf, haveXliff, haveTranslated)
}

func printSuggestedCommands(tf *config.TabliffFile, haveXliff, haveTranslated bool) {
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Suggested commands"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	switch {
	case len(tf.Workbooks) == 0:
		fmt.Fprintf(os.Stderr, "  # %s\n  tabliff status --root <dir>\n\n",
			i18n.T("Point tabliff at a directory with workbooks"))
	case !haveXliff:
		fmt.Fprintf(os.Stderr, "  # %s\n  tabliff extract\n\n",
			i18n.T("Export workbook text for translation"))
	case !haveTranslated:
		fmt.Fprintf(os.Stderr, "  # %s\n  tabliff extract\n\n",
			i18n.T("Re-export after workbook changes"))
	default:
		fmt.Fprintf(os.Stderr, "  # %s\n  tabliff validate\n\n",
			i18n.T("Check translated files before merging"))
		fmt.Fprintf(os.Stderr, "  # %s\n  tabliff merge\n\n",
			i18n.T("Write translations back into workbooks"))
	}
}

// docProgress counts a document's segments and how many carry a target.
func docProgress(doc *xliff.Document) (total, translated int) {
	for _, u := range doc.Units {
		for _, s := range u.Segments {
			total++
			if strings.TrimSpace(s.Target) != "" {
				translated++
			}
		}
	}
	return total, translated
}

// ---------------------------------------------------------------------------
// extract command
// ---------------------------------------------------------------------------

func newExtractCmd() *cobra.Command {
	var (
		langs  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Export workbook cells to XLIFF files",
		Long: `Export translatable workbook cells to per-language XLIFF files.

Each configured workbook is read, in-cell markup is split from the
translatable text, and one XLIFF file per target language is written to
the interchange directory. Existing translations are kept for segments
whose source did not change.

Examples:
  # Export every workbook for every configured language
  tabliff extract

  # Export only German and Russian
  tabliff extract --lang de,ru

  # Show what would be exported without writing anything
  tabliff extract --dry-run`,
		Run: func(cmd *cobra.Command, args []string) {
			runExtract(extractArgs{langs: langs, dryRun: dryRun})
		},
	}

	cmd.Flags().StringVar(&langs, "lang", "", "Languages to export (comma-separated, default: all configured)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written without writing")

	return cmd
}

type extractArgs struct {
	langs  string
	dryRun bool
}

func runExtract(a extractArgs) {
	tf, err := loadProject()
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	if len(tf.Workbooks) == 0 {
		logWarning(i18n.T("No workbooks found under %s"), tf.Root())
		return
	}
	lock, err := lockfile.Load(tf.Root())
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	failed := false
	for _, w := range tf.Workbooks {
		langs := selectLanguages(w.Languages, a.langs)
		if len(langs) == 0 {
			logWarning(i18n.T("No target languages for %s"), w.Path)
			continue
		}

		logInfo(i18n.T("Reading %s"), w.Path)
		cells, err := workbook.Read(tf.AbsWorkbook(w), workbook.Options{
			Sheets: w.Sheets, HeaderRow: w.HeaderRow, SkipHidden: w.SkipHidden,
		})
		if err != nil {
			logError("%v", err)
			failed = true
			continue
		}

		ex, err := extract.New(extract.Options{
			Dialect:    xliff.Dialect(tf.Dialect),
			Locale:     tf.SourceLang,
			Rules:      tf.Segmentation,
			Patterns:   tf.Patterns(w.Context),
			InlineTags: tf.InlineTagSet(),
		})
		if err != nil {
			logError("%v", err)
			failed = true
			continue
		}
		for _, f := range ex.Findings() {
			logWarning("%s", f)
		}

		// Wire attributes carry canonical BCP 47 tags, file names keep
		// the configured codes.
		doc := ex.Document(cells, w.Path, langmeta.Resolve(tf.SourceLang).Tag)
		if len(doc.Units) == 0 {
			logWarning(i18n.T("No translatable cells in %s"), w.Path)
			continue
		}
		logInfo(i18n.N("Extracted %d unit from %s", "Extracted %d units from %s", len(doc.Units)),
			len(doc.Units), w.Path)

		for _, lang := range langs {
			doc.TargetLang = langmeta.Resolve(lang).Tag
			out := tf.XliffPath(w, lang)
			if a.dryRun {
				logInfo(i18n.T("Would write %s"), relPath(tf.Root(), out))
				continue
			}

			clearTargets(doc)
			kept := 0
			if prev, err := xliff.ReadFile(out); err == nil {
				kept = carryTargets(doc, prev)
			}
			if err := doc.WriteFile(out); err != nil {
				logError("%v", err)
				failed = true
				continue
			}
			logSuccess(i18n.T("Wrote %s"), relPath(tf.Root(), out))
			if kept > 0 {
				logInfo(i18n.N("Kept %d existing translation in %s", "Kept %d existing translations in %s", kept),
					kept, relPath(tf.Root(), out))
			}
		}

		if a.dryRun {
			continue
		}
		entries := make(map[string]string, len(doc.Units))
		ids := make([]string, 0, len(doc.Units))
		for _, u := range doc.Units {
			if u.Content == nil {
				continue
			}
			entries[u.ID] = u.Content.Text
			ids = append(ids, u.ID)
		}
		target := lockfile.TargetKey(w.Path)
		lock.UpdateBatch(target, entries)
		lock.Clean(target, ids)
	}

	if a.dryRun {
		logInfo(i18n.T("Dry run, nothing written"))
	} else if err := lock.Save(); err != nil {
		logError("%v", err)
		failed = true
	}
	if failed {
		os.Exit(1)
	}
}

// clearTargets drops every segment target so a per-language export starts
// untranslated. The same document is written once per language.
func clearTargets(doc *xliff.Document) {
	for _, u := range doc.Units {
		for i := range u.Segments {
			u.Segments[i].Target = ""
		}
	}
}

// carryTargets copies translations from a previous export for segments
// whose wire source is unchanged, and reports how many were kept.
func carryTargets(doc, prev *xliff.Document) int {
	kept := 0
	for _, u := range doc.Units {
		old := prev.UnitByID(u.ID)
		if old == nil {
			continue
		}
		for i := range u.Segments {
			s := &u.Segments[i]
			prevSeg := old.SegmentByID(s.ID)
			if prevSeg == nil || prevSeg.Target == "" || prevSeg.WireSource != s.WireSource {
				continue
			}
			s.Target = prevSeg.Target
			kept++
		}
	}
	return kept
}

// ---------------------------------------------------------------------------
// merge command
// ---------------------------------------------------------------------------

func newMergeCmd() *cobra.Command {
	var langs string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Write translated XLIFF content back into workbooks",
		Long: `Merge translated XLIFF files back into copies of the workbooks.

For every workbook and target language, the interchange file is read,
each unit's markup skeleton is reassembled around the translated text,
and a translated copy of the workbook is written to the output directory.
Untranslated segments follow the configured fallback policy. Problems
found on the way are reported as warnings and never abort the merge.

Examples:
  # Merge every language
  tabliff merge

  # Merge only German
  tabliff merge --lang de`,
		Run: func(cmd *cobra.Command, args []string) {
			runMerge(mergeArgs{langs: langs})
		},
	}

	cmd.Flags().StringVar(&langs, "lang", "", "Languages to merge (comma-separated, default: all configured)")

	return cmd
}

type mergeArgs struct {
	langs string
}

func runMerge(a mergeArgs) {
	tf, err := loadProject()
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
	if len(tf.Workbooks) == 0 {
		logWarning(i18n.T("No workbooks found under %s"), tf.Root())
		return
	}
	lock, err := lockfile.Load(tf.Root())
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	policy := merge.Policy(tf.Fallback)
	failed := false
	for _, w := range tf.Workbooks {
		src := tf.AbsWorkbook(w)
		target := lockfile.TargetKey(w.Path)

		for _, lang := range selectLanguages(w.Languages, a.langs) {
			xlf := tf.XliffPath(w, lang)
			if !fileExists(xlf) {
				logWarning(i18n.T("%s not found, run 'tabliff extract' first"), relPath(tf.Root(), xlf))
				continue
			}
			doc, err := xliff.ReadFile(xlf)
			if err != nil {
				logError("%v", err)
				failed = true
				continue
			}
			for _, u := range doc.Units {
				for _, f := range u.Findings {
					logWarning("%s", f)
				}
			}

			entries := make(map[string]string, len(doc.Units))
			for _, u := range doc.Units {
				if u.Content != nil {
					entries[u.ID] = u.Content.Text
				}
			}
			if stale := lock.Changed(target, entries); len(stale) > 0 {
				logWarning(i18n.N("%d source cell changed since %s was exported",
					"%d source cells changed since %s was exported", len(stale)),
					len(stale), relPath(tf.Root(), xlf))
			}

			results, err := merge.Document(doc, policy)
			if err != nil {
				logError("%v", err)
				failed = true
				continue
			}

			updates := make([]workbook.Update, 0, len(results))
			incomplete := 0
			for _, u := range doc.Units {
				res, ok := results[u.ID]
				if !ok {
					continue
				}
				for _, f := range res.Findings {
					logWarning("%s", f)
				}
				if !res.Complete {
					incomplete++
				}
				updates = append(updates, workbook.Update{
					Sheet: u.Sheet, Row: u.Row, Col: u.Col, Value: res.Output,
				})
			}

			out := tf.OutputPath(w, lang)
			if err := workbook.Write(src, out, updates); err != nil {
				logError("%v", err)
				failed = true
				continue
			}
			logSuccess(i18n.N("Merged %d cell into %s", "Merged %d cells into %s", len(updates)),
				len(updates), relPath(tf.Root(), out))
			if incomplete > 0 {
				logWarning(i18n.N("%d unit in %s is not fully translated",
					"%d units in %s are not fully translated", incomplete),
					incomplete, relPath(tf.Root(), xlf))
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// validate command
// ---------------------------------------------------------------------------

func newValidateCmd() *cobra.Command {
	var langs string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check translated XLIFF files for placeholder and markup damage",
		Long: `Check translated XLIFF files without writing anything.

Every translated segment is compared against its source: masked
placeholder tokens must survive unchanged, ICU plural/select structure
must keep its categories, and paired inline markers must still nest.
Findings are warnings; the exit code stays zero so broken translations
can be reviewed and fixed incrementally.

Examples:
  # Check every language
  tabliff validate

  # Check only German
  tabliff validate --lang de`,
		Run: func(cmd *cobra.Command, args []string) {
			runValidate(validateArgs{langs: langs})
		},
	}

	cmd.Flags().StringVar(&langs, "lang", "", "Languages to check (comma-separated, default: all configured)")

	return cmd
}

type validateArgs struct {
	langs string
}

func runValidate(a validateArgs) {
	tf, err := loadProject()
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	failed := false
	files := 0
	var structural, content, conf int
	for _, w := range tf.Workbooks {
		for _, lang := range selectLanguages(w.Languages, a.langs) {
			xlf := tf.XliffPath(w, lang)
			if !fileExists(xlf) {
				continue
			}
			files++
			doc, err := xliff.ReadFile(xlf)
			if err != nil {
				logError("%v", err)
				failed = true
				continue
			}

			findings := make([]xliff.Finding, 0)
			for _, u := range doc.Units {
				findings = append(findings, u.Findings...)
			}
			more, err := validate.Document(doc)
			if err != nil {
				logError("%v", err)
				failed = true
				continue
			}
			findings = append(findings, more...)

			rel := relPath(tf.Root(), xlf)
			if len(findings) == 0 {
				logSuccess(i18n.T("%s: clean"), rel)
				continue
			}

			fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, rel, colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			for _, f := range findings {
				switch f.Kind {
				case xliff.FindingStructural:
					structural++
				case xliff.FindingContent:
					content++
				default:
					conf++
				}
				tint := colorYellow
				if f.Kind == xliff.FindingStructural {
					tint = colorRed
				}
				loc := f.Unit
				if f.Segment != "" {
					loc += " " + f.Segment
				}
				if loc == "" {
					loc = "-"
				}
				fmt.Fprintf(os.Stderr, "  %s%-10s%s %-24s %s\n", tint, f.Kind, colorReset, loc, f.Message)
			}
			fmt.Fprintln(os.Stderr)
		}
	}

	total := structural + content + conf
	switch {
	case files == 0:
		logWarning(i18n.T("No interchange files found, run 'tabliff extract' first"))
	case total == 0:
		logSuccess(i18n.T("All translations check out"))
	default:
		logWarning(i18n.T("%d findings (%d structural, %d content, %d config)"),
			total, structural, content, conf)
	}
	if failed {
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// loadProject reads .tabliff.yaml from the project root, falling back to
// filesystem auto-detection when no configuration file exists.
func loadProject() (*config.TabliffFile, error) {
	tf, err := config.LoadTabliffFile(rootDir)
	if err != nil {
		return nil, err
	}
	if tf == nil {
		logInfo(i18n.T("No %s found, auto-detecting workbooks"), config.TabliffFileName)
		tf = config.Detect(rootDir)
	}
	return tf, nil
}

// selectLanguages applies a comma-separated --lang filter to a workbook's
// configured target list. An empty filter keeps everything.
func selectLanguages(configured []string, filter string) []string {
	if filter == "" {
		return configured
	}
	want := map[string]bool{}
	for _, l := range strings.Split(filter, ",") {
		if l = strings.TrimSpace(l); l != "" {
			want[l] = true
		}
	}
	var out []string
	for _, l := range configured {
		if want[l] {
			out = append(out, l)
		}
	}
	return out
}

// langLabel renders a language code with its native name and flag.
func langLabel(code string) string {
	m := langmeta.Resolve(code)
	label := m.Tag
	if m.Name != "" && !strings.EqualFold(m.Name, m.Tag) {
		label += " (" + m.Name + ")"
	}
	if m.Flag != "" {
		label += " " + m.Flag
	}
	return label
}

// dialectLabel names a wire dialect for display.
func dialectLabel(d string) string {
	switch xliff.Dialect(d) {
	case xliff.Dialect12:
		return "XLIFF 1.2 (compact inline markers)"
	case xliff.Dialect20:
		return "XLIFF 2.0 (attribute-preserving markers)"
	}
	return d
}

// progressBar renders a width-character bar for a 0-100 percentage.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// percentColor picks the display color for a completion percentage.
func percentColor(percent int) string {
	switch {
	case percent >= 100:
		return colorGreen
	case percent >= 50:
		return colorYellow
	default:
		return colorRed
	}
}

// clip shortens a path to n bytes for table display, keeping the tail.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "…" + s[len(s)-n+1:]
}

// relPath shows p relative to root when p lives underneath it.
func relPath(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return p
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
