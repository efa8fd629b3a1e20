package answerset

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Setting keys as they appear in stored option maps.
const (
	KeyChoiceComments             = "Enable Answer Choice Comments [...]"
	KeyAnswerComments             = "Enable Answer Comments (...)"
	KeyLenientValidation          = "Enable Lenient Validation"
	KeyIgnoreCase                 = "Ignore Case"
	KeyIgnoreSeparatorsInBrackets = "Ignore Separators in Brackets"
	KeyIgnoredCharacters          = "Ignored Characters"
	KeyEquivalentStrings          = "Equivalent Strings"
	KeyNumericComparisonFactor    = "Numeric Comparison Factor"
	KeySeparators                 = "Separators"
)

const (
	DefaultMaxChoices = 64
	DefaultMaxUnits   = 2000

	bracketChars    = "()[]"
	whitespaceChars = " \t\r\n"
)

// Settings is the user-facing form of the comparison options.
type Settings struct {
	ChoiceComments             bool
	AnswerComments             bool
	LenientValidation          bool
	IgnoreCase                 bool
	IgnoreSeparatorsInBrackets bool
	IgnoredCharacters          string
	EquivalentStrings          [][]string
	NumericFactor              float64
	Separators                 string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		LenientValidation:          true,
		IgnoreCase:                 true,
		IgnoreSeparatorsInBrackets: true,
		IgnoredCharacters:          " .-",
		Separators:                 ";,",
	}
}

// SettingsFromMap reads settings from a generic key/value source. A missing
// key or a value of the wrong type keeps the default.
func SettingsFromMap(m map[string]interface{}) Settings {
	s := DefaultSettings()
	s.ChoiceComments = boolOr(m, KeyChoiceComments, s.ChoiceComments)
	s.AnswerComments = boolOr(m, KeyAnswerComments, s.AnswerComments)
	s.LenientValidation = boolOr(m, KeyLenientValidation, s.LenientValidation)
	s.IgnoreCase = boolOr(m, KeyIgnoreCase, s.IgnoreCase)
	s.IgnoreSeparatorsInBrackets = boolOr(m, KeyIgnoreSeparatorsInBrackets, s.IgnoreSeparatorsInBrackets)
	s.IgnoredCharacters = stringOr(m, KeyIgnoredCharacters, s.IgnoredCharacters)
	s.EquivalentStrings = groupsOr(m, KeyEquivalentStrings, s.EquivalentStrings)
	s.NumericFactor = floatOr(m, KeyNumericComparisonFactor, s.NumericFactor)
	s.Separators = stringOr(m, KeySeparators, s.Separators)
	return s
}

// Map is the inverse of SettingsFromMap.
func (s Settings) Map() map[string]interface{} {
	groups := make([]interface{}, 0, len(s.EquivalentStrings))
	for _, g := range s.EquivalentStrings {
		members := make([]interface{}, 0, len(g))
		for _, x := range g {
			members = append(members, x)
		}
		groups = append(groups, members)
	}
	return map[string]interface{}{
		KeyChoiceComments:             s.ChoiceComments,
		KeyAnswerComments:             s.AnswerComments,
		KeyLenientValidation:          s.LenientValidation,
		KeyIgnoreCase:                 s.IgnoreCase,
		KeyIgnoreSeparatorsInBrackets: s.IgnoreSeparatorsInBrackets,
		KeyIgnoredCharacters:          s.IgnoredCharacters,
		KeyEquivalentStrings:          groups,
		KeyNumericComparisonFactor:    s.NumericFactor,
		KeySeparators:                 s.Separators,
	}
}

func boolOr(m map[string]interface{}, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func stringOr(m map[string]interface{}, key string, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

// floatOr also takes integers, since YAML decodes "2" as an int.
func floatOr(m map[string]interface{}, key string, def float64) float64 {
	switch v := m[key].(type) {
	case float64:
		if v >= 0 {
			return v
		}
	case float32:
		if v >= 0 {
			return float64(v)
		}
	case int:
		if v >= 0 {
			return float64(v)
		}
	case int64:
		if v >= 0 {
			return float64(v)
		}
	}
	return def
}

// groupsOr accepts [][]string or the []interface{} shape produced by JSON
// and YAML decoders. Non-list groups and non-string members are skipped.
func groupsOr(m map[string]interface{}, key string, def [][]string) [][]string {
	switch v := m[key].(type) {
	case [][]string:
		return v
	case []interface{}:
		out := make([][]string, 0, len(v))
		for _, g := range v {
			switch members := g.(type) {
			case []string:
				out = append(out, members)
			case []interface{}:
				strs := make([]string, 0, len(members))
				for _, x := range members {
					if s, ok := x.(string); ok {
						strs = append(strs, s)
					}
				}
				out = append(out, strs)
			}
		}
		return out
	}
	return def
}

// Options is the compiled, read-only form of Settings. It is safe to share
// between goroutines.
type Options struct {
	settings Settings

	ignoreCase   bool
	lenient      bool
	junk         map[string]struct{}
	junkRunes    map[rune]struct{}
	equivalences [][][]string
	maxChoices   int
	maxUnits     int
}

// Option adjusts Options before they are compiled.
type Option func(*Options)

func WithChoiceComments(b bool) Option { return func(o *Options) { o.settings.ChoiceComments = b } }
func WithAnswerComments(b bool) Option { return func(o *Options) { o.settings.AnswerComments = b } }
func WithLenient(b bool) Option        { return func(o *Options) { o.settings.LenientValidation = b } }
func WithIgnoreCase(b bool) Option     { return func(o *Options) { o.settings.IgnoreCase = b } }
func WithIgnoredCharacters(s string) Option {
	return func(o *Options) { o.settings.IgnoredCharacters = s }
}
func WithEquivalentStrings(groups ...[]string) Option {
	return func(o *Options) { o.settings.EquivalentStrings = groups }
}
func WithNumericFactor(f float64) Option { return func(o *Options) { o.settings.NumericFactor = f } }
func WithSeparators(s string) Option     { return func(o *Options) { o.settings.Separators = s } }

// WithLimits bounds the work done for one comparison. Zero or negative
// values disable the corresponding limit.
func WithLimits(maxChoices, maxUnits int) Option {
	return func(o *Options) {
		o.maxChoices = maxChoices
		o.maxUnits = maxUnits
	}
}

// New compiles the default settings with opts applied.
func New(opts ...Option) *Options {
	return compile(DefaultSettings(), opts)
}

// FromSettings compiles s with opts applied.
func FromSettings(s Settings, opts ...Option) *Options {
	return compile(s, opts)
}

// FromMap compiles settings read from m with opts applied.
func FromMap(m map[string]interface{}, opts ...Option) *Options {
	return compile(SettingsFromMap(m), opts)
}

func compile(s Settings, opts []Option) *Options {
	o := &Options{
		settings:   s,
		maxChoices: DefaultMaxChoices,
		maxUnits:   DefaultMaxUnits,
	}
	for _, opt := range opts {
		opt(o)
	}
	s = o.settings
	o.ignoreCase = s.IgnoreCase
	o.lenient = s.LenientValidation

	ignored := fold(norm.NFC.String(s.IgnoredCharacters), s.IgnoreCase)
	ignored = strings.ReplaceAll(ignored, " ", whitespaceChars) + bracketChars
	o.junk = make(map[string]struct{}, len(ignored))
	o.junkRunes = make(map[rune]struct{}, len(ignored))
	for _, r := range ignored {
		o.junk[string(r)] = struct{}{}
		o.junkRunes[r] = struct{}{}
	}

	for _, g := range s.EquivalentStrings {
		var group [][]string
		for _, x := range g {
			if x == "" || !utf8.ValidString(x) {
				continue
			}
			group = append(group, GroupCombining(fold(norm.NFC.String(x), s.IgnoreCase)))
		}
		if len(group) >= 2 {
			o.equivalences = append(o.equivalences, group)
		}
	}
	return o
}

// Settings returns the settings o was compiled from.
func (o *Options) Settings() Settings { return o.settings }

// With recompiles o with opts applied on top. Limits carry over.
func (o *Options) With(opts ...Option) *Options {
	keep := WithLimits(o.maxChoices, o.maxUnits)
	return compile(o.settings, append([]Option{keep}, opts...))
}

func (o *Options) isJunk(unit string) bool {
	_, ok := o.junk[unit]
	return ok
}

func (o *Options) numericEnabled() bool { return o.settings.NumericFactor != 0 }
