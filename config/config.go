// Package config implements .tabliff.yaml loading and workbook
// auto-detection.
//
// When a .tabliff.yaml file exists in the project root, tabliff uses it
// as the sole source of truth: which workbooks to read, which languages
// to export, which interchange dialect to write, and how segmentation
// and placeholder protection behave. Without the file, Detect builds an
// equivalent in-memory configuration from the workbooks it finds.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tabliff/tabliff/segment"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// TabliffFile is the top-level .tabliff.yaml structure.
type TabliffFile struct {
	// SourceLang is the language of the workbook content (default "en").
	// It also selects the segmentation rule set.
	SourceLang string `yaml:"source_lang,omitempty"`
	// Languages is the default target language list for all workbooks
	// (can be overridden per workbook).
	Languages []string `yaml:"languages,omitempty"`
	// Dialect selects the interchange encoding: "1.2" (compact) or
	// "2.0" (attribute-preserving, the default).
	Dialect string `yaml:"dialect,omitempty"`
	// XliffDir is where interchange files are written, relative to the
	// project root (default "xliff").
	XliffDir string `yaml:"xliff_dir,omitempty"`
	// OutputDir is where translated workbooks are written, relative to
	// the project root (default "translated").
	OutputDir string `yaml:"output_dir,omitempty"`
	// Fallback resolves untranslated segments at merge time: "source"
	// keeps the original text (default), "empty" drops the segment.
	Fallback string `yaml:"fallback,omitempty"`
	// InlineTags overrides the set of markup tags treated as inline
	// spans. Empty keeps the built-in set.
	InlineTags []string `yaml:"inline_tags,omitempty"`
	// Placeholders maps a context name to its ordered list of
	// non-translatable patterns. A workbook picks a context; "default"
	// applies otherwise. Invalid patterns are skipped at pipeline
	// construction, never fatal here.
	Placeholders map[string][]string `yaml:"placeholders,omitempty"`
	// Segmentation binds sentence break rules to source locales.
	Segmentation []segment.RuleSet `yaml:"segmentation,omitempty"`
	// Workbooks is the list of spreadsheet files to process.
	Workbooks []Workbook `yaml:"workbooks"`

	// root is the project directory the configuration belongs to.
	root string
}

// Workbook describes a single spreadsheet file to extract from and
// merge back into.
type Workbook struct {
	// Path is the workbook file, relative to the project root.
	Path string `yaml:"path"`
	// Sheets restricts processing to the named sheets. Empty means
	// every visible sheet.
	Sheets []string `yaml:"sheets,omitempty"`
	// HeaderRow treats each sheet's first row as column headers: the
	// headers annotate exported units instead of being translated.
	HeaderRow bool `yaml:"header_row,omitempty"`
	// SkipHidden drops cells in hidden rows and columns.
	SkipHidden bool `yaml:"skip_hidden,omitempty"`
	// Context names the placeholder pattern set for this workbook.
	Context string `yaml:"context,omitempty"`
	// Languages overrides the global target language list.
	Languages []string `yaml:"languages,omitempty"`
}

// DialectCompact is the XLIFF 1.2 interchange encoding.
const DialectCompact = "1.2"

// DialectVerbatim is the XLIFF 2.0 attribute-preserving encoding.
const DialectVerbatim = "2.0"

// FallbackSource keeps the source text for untranslated segments.
const FallbackSource = "source"

// FallbackEmpty drops untranslated segments from merged output.
const FallbackEmpty = "empty"

// DefaultContext is the placeholder context used when a workbook does
// not name one.
const DefaultContext = "default"

// DefaultPlaceholders protects the two placeholder families
// spreadsheet content carries most often: brace indices like {0} and
// printf verbs like %s or %1$s.
var DefaultPlaceholders = []string{`\{\d+\}`, `%(?:\d+\$)?[A-Za-z]`}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// TabliffFileName is the default config file name.
const TabliffFileName = ".tabliff.yaml"

// LoadTabliffFile loads and validates .tabliff.yaml from the given
// directory. Returns nil if no .tabliff.yaml exists.
func LoadTabliffFile(rootDir string) (*TabliffFile, error) {
	path := filepath.Join(rootDir, TabliffFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var tf TabliffFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	tf.root = rootDir
	tf.applyDefaults()

	switch tf.Dialect {
	case DialectCompact, DialectVerbatim:
	default:
		return nil, fmt.Errorf("%s: unknown dialect %q (valid: %s, %s)", path, tf.Dialect, DialectCompact, DialectVerbatim)
	}
	switch tf.Fallback {
	case FallbackSource, FallbackEmpty:
	default:
		return nil, fmt.Errorf("%s: unknown merge fallback %q (valid: %s, %s)", path, tf.Fallback, FallbackSource, FallbackEmpty)
	}

	if len(tf.Workbooks) == 0 {
		return nil, fmt.Errorf("%s: no workbooks declared", path)
	}
	seen := map[string]string{}
	for i := range tf.Workbooks {
		w := &tf.Workbooks[i]
		if w.Path == "" {
			return nil, fmt.Errorf("%s: workbook #%d has no path", path, i+1)
		}
		if w.Context != "" && w.Context != DefaultContext {
			if _, ok := tf.Placeholders[w.Context]; !ok {
				return nil, fmt.Errorf("%s: workbook %q names unknown placeholder context %q", path, w.Path, w.Context)
			}
		}
		if len(w.Languages) == 0 {
			w.Languages = tf.Languages
		}

		// Interchange and output files are named by workbook base name;
		// two workbooks sharing one would overwrite each other.
		base := baseName(w.Path)
		if other, ok := seen[base]; ok {
			return nil, fmt.Errorf("%s: workbooks %q and %q share the file name %q", path, other, w.Path, base)
		}
		seen[base] = w.Path
	}

	return &tf, nil
}

func (tf *TabliffFile) applyDefaults() {
	if tf.SourceLang == "" {
		tf.SourceLang = "en"
	}
	if tf.Dialect == "" {
		tf.Dialect = DialectVerbatim
	}
	if tf.XliffDir == "" {
		tf.XliffDir = "xliff"
	}
	if tf.OutputDir == "" {
		tf.OutputDir = "translated"
	}
	if tf.Fallback == "" {
		tf.Fallback = FallbackSource
	}
}

// ---------------------------------------------------------------------------
// Auto-detection
// ---------------------------------------------------------------------------

// Detect builds an in-memory configuration when no .tabliff.yaml
// exists: every workbook in the project root becomes a target with
// default settings, and target languages are inferred from interchange
// files already present in the xliff directory.
func Detect(rootDir string) *TabliffFile {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		absRoot = rootDir
	}

	tf := &TabliffFile{root: absRoot}
	tf.applyDefaults()

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		return tf
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isWorkbookName(name) {
			continue
		}
		tf.Workbooks = append(tf.Workbooks, Workbook{Path: name})
	}
	sort.Slice(tf.Workbooks, func(i, j int) bool { return tf.Workbooks[i].Path < tf.Workbooks[j].Path })

	tf.Languages = detectLanguages(filepath.Join(absRoot, tf.XliffDir))
	for i := range tf.Workbooks {
		tf.Workbooks[i].Languages = tf.Languages
	}
	return tf
}

// isWorkbookName reports whether name looks like a readable Excel
// workbook. Office lock files ("~$...") are skipped.
func isWorkbookName(name string) bool {
	if strings.HasPrefix(name, "~$") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

// detectLanguages finds language codes from interchange file names of
// the form <base>.<lang>.xlf in the xliff directory.
func detectLanguages(xliffDir string) []string {
	entries, err := os.ReadDir(xliffDir)
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var langs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".xlf") {
			continue
		}
		parts := strings.Split(strings.TrimSuffix(name, ".xlf"), ".")
		if len(parts) < 2 {
			continue
		}
		lang := parts[len(parts)-1]
		if isLangCode(lang) && !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

// isLangCode checks if a string looks like a language code
// (en, ru, pt-BR, zh-Hant, pt_BR).
func isLangCode(s string) bool {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 || len(parts) > 3 {
		return false
	}
	if len(parts[0]) < 2 || len(parts[0]) > 3 || !isAlpha(parts[0]) {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) < 2 || len(p) > 4 || !isAlpha(p) {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Resolved paths and derived settings
// ---------------------------------------------------------------------------

// Root returns the project directory this configuration belongs to.
func (tf *TabliffFile) Root() string {
	return tf.root
}

// AbsWorkbook returns the absolute path of a workbook file.
func (tf *TabliffFile) AbsWorkbook(w Workbook) string {
	if filepath.IsAbs(w.Path) {
		return w.Path
	}
	return filepath.Join(tf.root, w.Path)
}

// baseName strips the directory and extension from a workbook path.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// XliffPath returns the interchange file path for one workbook and
// target language: <xliff_dir>/<base>.<lang>.xlf.
func (tf *TabliffFile) XliffPath(w Workbook, lang string) string {
	return filepath.Join(tf.root, tf.XliffDir, baseName(w.Path)+"."+lang+".xlf")
}

// OutputPath returns the translated workbook path for one target
// language: <output_dir>/<base>.<lang><ext>.
func (tf *TabliffFile) OutputPath(w Workbook, lang string) string {
	base := filepath.Base(w.Path)
	ext := filepath.Ext(base)
	return filepath.Join(tf.root, tf.OutputDir, strings.TrimSuffix(base, ext)+"."+lang+ext)
}

// Patterns returns the placeholder pattern list for a context name.
// An unconfigured default context gets the built-in patterns; a
// configured but empty context disables protection.
func (tf *TabliffFile) Patterns(context string) []string {
	if context == "" {
		context = DefaultContext
	}
	if patterns, ok := tf.Placeholders[context]; ok {
		return patterns
	}
	if context == DefaultContext {
		return DefaultPlaceholders
	}
	return nil
}

// InlineTagSet returns the configured inline tag override as a lookup
// set, or nil when the built-in set applies.
func (tf *TabliffFile) InlineTagSet() map[string]bool {
	if len(tf.InlineTags) == 0 {
		return nil
	}
	set := make(map[string]bool, len(tf.InlineTags))
	for _, tag := range tf.InlineTags {
		set[strings.ToLower(strings.TrimSpace(tag))] = true
	}
	return set
}

// AllLanguages returns the deduplicated union of all workbook target
// languages, sorted.
func (tf *TabliffFile) AllLanguages() []string {
	seen := make(map[string]bool)
	var all []string
	for _, w := range tf.Workbooks {
		for _, lang := range w.Languages {
			if !seen[lang] {
				seen[lang] = true
				all = append(all, lang)
			}
		}
	}
	for _, lang := range tf.Languages {
		if !seen[lang] {
			seen[lang] = true
			all = append(all, lang)
		}
	}
	sort.Strings(all)
	return all
}
