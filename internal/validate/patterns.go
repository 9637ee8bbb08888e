// Package validate implements the code validators: the gaming detector,
// which scores suspicious shortcut patterns (fake tests, stubbed
// features, mock data in production paths), and the zero-tolerance
// quality validator, which fails on any violation of per-language rules.
package validate

import "regexp"

// Severity of a violation.
const SeverityCritical = "CRITICAL"

// Violation is a single pattern match in a scanned file.
type Violation struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Category string `json:"category"`
	Message  string `json:"message"`
	Content  string `json:"content,omitempty"`
	Severity string `json:"severity,omitempty"`
}

// Pattern pairs a compiled regex with the message reported on match.
// Unless, when set, suppresses the match (RE2 has no lookahead).
type Pattern struct {
	Re      *regexp.Regexp
	Unless  *regexp.Regexp
	Message string
}

// Matches reports whether line triggers this pattern.
func (p Pattern) Matches(line string) bool {
	if !p.Re.MatchString(line) {
		return false
	}
	if p.Unless != nil && p.Unless.MatchString(line) {
		return false
	}
	return true
}

func pat(expr, message string) Pattern {
	return Pattern{Re: regexp.MustCompile(expr), Message: message}
}

func patUnless(expr, unless, message string) Pattern {
	return Pattern{Re: regexp.MustCompile(expr), Unless: regexp.MustCompile(unless), Message: message}
}

// Gaming categories.
const (
	CategoryTestGaming    = "test_gaming"
	CategoryCodeGaming    = "code_gaming"
	CategoryFeatureFaking = "feature_faking"
	CategoryMockPatterns  = "mock_patterns"
)

// GamingPatterns maps category to the patterns that count toward the
// gaming score. Matching is case-insensitive.
var GamingPatterns = map[string][]Pattern{
	CategoryTestGaming: {
		pat(`(?i)assert\s+True\s*$`, "Meaningless assertion: assert True"),
		pat(`(?i)assert\s+1\s*==\s*1`, "Tautological test: assert 1 == 1"),
		pat(`(?i)assert\s+['"].*['"]\s*==\s*['"].*['"]`, "String equality that always passes"),
		pat(`(?i)@pytest\.mark\.skip`, "Skipped test hiding failures"),
		pat(`(?i)@unittest\.skip`, "Skipped test hiding failures"),
		pat(`(?i)return\s*['"]mock`, "Mock data return"),
		pat(`(?i)return\s*\{\s*['"]fake`, "Fake data return"),
	},
	CategoryCodeGaming: {
		pat(`(?i)#\s*validation`, "Commented validation rule"),
		pat(`(?i)if\s+False\s*:`, "Disabled code block"),
		pat(`(?i)pass\s*#\s*TODO`, "Stub function with TODO"),
		pat(`(?i)void\s+_error`, "Error silencing pattern"),
		pat(`(?i)except\s*:\s*pass`, "Silent exception swallowing"),
		pat(`(?i)except.*:\s*\.\.\.`, "Ellipsis exception handler"),
	},
	CategoryFeatureFaking: {
		pat(`(?i)def\s+\w+\([^)]*\)\s*:\s*pass\s*$`, "Empty function implementation"),
		pat(`(?i)return\s*None\s*#`, "None return with comment (likely stub)"),
		pat(`(?i)raise\s+NotImplementedError`, "NotImplementedError (incomplete)"),
		pat(`(?i)TODO:\s*implement`, "TODO marker for unimplemented code"),
		pat(`(?i)FIXME:`, "FIXME marker"),
	},
	CategoryMockPatterns: {
		pat(`(?i)mock_data\s*=`, "Mock data variable"),
		pat(`(?i)fake_\w+\s*=`, "Fake variable naming"),
		pat(`(?i)dummy_\w+\s*=`, "Dummy variable naming"),
		pat(`(?i)test@test\.com`, "Placeholder test email"),
		pat(`(?i)example@example\.com`, "Placeholder example email"),
		pat(`(?i)['"]John\s+Doe['"]`, "Placeholder name"),
		pat(`(?i)['"]Jane\s+Doe['"]`, "Placeholder name"),
		pat(`(?i)lorem\s+ipsum`, "Lorem ipsum placeholder"),
		pat(`(?i)from\s+faker\s+import`, "Faker library in production code"),
	},
}

// CategoryWeights drive the gaming score. Unknown categories fall back
// to DefaultWeight.
var CategoryWeights = map[string]float64{
	CategoryTestGaming:    0.3,
	CategoryCodeGaming:    0.25,
	CategoryFeatureFaking: 0.25,
	CategoryMockPatterns:  0.2,
}

// DefaultWeight applies to categories without an explicit weight.
const DefaultWeight = 0.2

// QualityPatterns maps language -> category -> patterns for the
// zero-tolerance validator. Any match fails the run.
var QualityPatterns = map[string]map[string][]Pattern{
	"typescript": {
		"console_log": {
			pat(`console\.(log|error|warn|info|debug)\s*\(`, "console.* statement - use proper logger"),
		},
		"error_handling": {
			pat(`catch\s*\{`, "Empty catch block without error parameter"),
			pat(`catch\s*\(\s*_`, "Unused error parameter (prefixed with _)"),
			pat(`catch\s*\([^)]*\)\s*\{\s*\}`, "Empty catch block"),
			pat(`void\s+_?error`, "Void error anti-pattern"),
		},
		"type_safety": {
			pat(`:\s*any\b`, "Explicit 'any' type - use proper typing"),
			pat(`as\s+any\b`, "Type assertion to 'any'"),
			pat(`@ts-ignore`, "@ts-ignore comment - fix the type error"),
			pat(`@ts-nocheck`, "@ts-nocheck - type checking disabled"),
		},
	},
	"python": {
		"error_handling": {
			pat(`except\s*:\s*$`, "Bare except clause"),
			pat(`except\s*:\s*pass`, "Silent exception swallowing"),
			pat(`except.*:\s*\.\.\.`, "Ellipsis exception handler"),
		},
		"debug_statements": {
			patUnless(`^\s*print\s*\(`, `#\s*debug`, "Print statement (use logging)"),
			pat(`breakpoint\s*\(\)`, "Breakpoint left in code"),
			pat(`pdb\.set_trace\(\)`, "PDB debugger left in code"),
			pat(`import\s+pdb`, "PDB import left in code"),
		},
		"type_safety": {
			pat(`#\s*type:\s*ignore`, "Type ignore comment"),
			pat(`Any\s*\]`, "Any type in annotation"),
		},
	},
	"javascript": {
		"console_log": {
			pat(`console\.(log|error|warn|info|debug)\s*\(`, "console.* statement"),
		},
		"error_handling": {
			pat(`catch\s*\{`, "Empty catch block without error parameter"),
			pat(`catch\s*\([^)]*\)\s*\{\s*\}`, "Empty catch block"),
		},
	},
}

// ExtToLang maps file extensions to quality-pattern languages.
var ExtToLang = map[string]string{
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "javascript",
	".jsx": "javascript",
	".py":  "python",
}
