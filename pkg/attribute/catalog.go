// Package attribute defines the fixed catalog of repository-quality
// attributes that repograde assesses. The catalog is compiled in: 25
// attributes across 4 priority tiers, each with a stable identifier, a
// scoring polarity, and a default threshold. Attribute IDs never change
// once published; detectors, config files, and stored assessments all
// key on them.
package attribute

import "slices"

// ID is the stable identifier of a catalog attribute.
type ID string

// Catalog attribute identifiers. The set is closed: weight overrides and
// measurements referencing any other ID are rejected.
const (
	// Tier 1: Essential
	ClaudeMDFile       ID = "claude_md_file"
	ReadmeFile         ID = "readme_file"
	BuildInstructions  ID = "build_instructions"
	CIPipeline         ID = "ci_pipeline"
	DependencyLockfile ID = "dependency_lockfile"

	// Tier 2: Important
	TestCoverage      ID = "test_coverage"
	TestStructure     ID = "test_structure"
	LintConfig        ID = "lint_config"
	APIDocumentation  ID = "api_documentation"
	ArchitectureDocs  ID = "architecture_docs"
	ContributingGuide ID = "contributing_guide"
	LicenseFile       ID = "license_file"
	SecretHygiene     ID = "secret_hygiene"
	TodoDensity       ID = "todo_density"
	CommitConvention  ID = "commit_convention"

	// Tier 3: Recommended
	ChangelogFile    ID = "changelog_file"
	IssueTemplates   ID = "issue_templates"
	CodeownersFile   ID = "codeowners_file"
	EditorconfigFile ID = "editorconfig_file"
	DocFreshness     ID = "doc_freshness"

	// Tier 4: Advanced
	SecurityPolicy        ID = "security_policy"
	ReleaseAutomation     ID = "release_automation"
	PerformanceBenchmarks ID = "performance_benchmarks"
	PRTemplate            ID = "pr_template"
	DependencyFreshness   ID = "dependency_freshness"
)

// Tier is the priority bucket an attribute belongs to. Lower tiers carry
// more default weight: the 50/30/15/5 split gives a Tier 1 attribute 10x
// the default weight of a Tier 4 attribute.
type Tier int

const (
	TierEssential   Tier = 1
	TierImportant   Tier = 2
	TierRecommended Tier = 3
	TierAdvanced    Tier = 4
)

// String returns the human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierEssential:
		return "Essential"
	case TierImportant:
		return "Important"
	case TierRecommended:
		return "Recommended"
	case TierAdvanced:
		return "Advanced"
	default:
		return "Unknown"
	}
}

// Valid reports whether t is one of the four defined tiers.
func (t Tier) Valid() bool {
	return t >= TierEssential && t <= TierAdvanced
}

// DefaultWeight returns the per-attribute default weight for this tier,
// from the 50/30/15/5 split: Tier 1 = 10% each over 5 attributes,
// Tiers 2 and 3 = 3% each over 10+5, Tier 4 = 1% each over 5.
func (t Tier) DefaultWeight() float64 {
	switch t {
	case TierEssential:
		return 0.10
	case TierImportant, TierRecommended:
		return 0.03
	case TierAdvanced:
		return 0.01
	default:
		return 0
	}
}

// Polarity declares which direction of a measurement is good.
type Polarity string

const (
	// HigherIsBetter scores full credit at or above the threshold.
	HigherIsBetter Polarity = "higher_is_better"
	// LowerIsBetter scores full credit at or below the threshold.
	LowerIsBetter Polarity = "lower_is_better"
)

// Valid reports whether p is a defined polarity.
func (p Polarity) Valid() bool {
	return p == HigherIsBetter || p == LowerIsBetter
}

// Attribute is one entry of the fixed catalog.
type Attribute struct {
	ID          ID       `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Tier        Tier     `json:"tier" yaml:"tier"`
	Polarity    Polarity `json:"polarity" yaml:"polarity"`
	Threshold   float64  `json:"threshold" yaml:"threshold"`
	Description string   `json:"description" yaml:"description"`
}

// catalog is the authoritative attribute list, ordered by tier then ID.
// Thresholds are the defaults applied when a measurement does not carry
// its own. Existence-style attributes use threshold 1 (present = full
// credit); percentage and count attributes use domain thresholds.
var catalog = []Attribute{
	// Tier 1: Essential
	{ClaudeMDFile, "Agent context file", TierEssential, HigherIsBetter, 1,
		"CLAUDE.md (or equivalent agent context file) exists and documents project conventions."},
	{ReadmeFile, "README completeness", TierEssential, HigherIsBetter, 1,
		"README exists and covers purpose, setup, and usage."},
	{BuildInstructions, "Reproducible build", TierEssential, HigherIsBetter, 1,
		"Build and run steps are documented and work from a clean checkout."},
	{CIPipeline, "CI pipeline", TierEssential, HigherIsBetter, 1,
		"Hosted CI configuration exists and runs the test suite."},
	{DependencyLockfile, "Dependency lockfile", TierEssential, HigherIsBetter, 1,
		"Dependency versions are pinned by a committed lockfile."},

	// Tier 2: Important
	{TestCoverage, "Test coverage", TierImportant, HigherIsBetter, 80,
		"Line coverage percentage reported by the project's test suite."},
	{TestStructure, "Test organization", TierImportant, HigherIsBetter, 1,
		"Tests live alongside the code they cover and follow naming conventions."},
	{LintConfig, "Linter configuration", TierImportant, HigherIsBetter, 1,
		"A linter or formatter is configured and committed."},
	{APIDocumentation, "API documentation", TierImportant, HigherIsBetter, 70,
		"Percentage of exported API surface carrying documentation."},
	{ArchitectureDocs, "Architecture documentation", TierImportant, HigherIsBetter, 1,
		"Design or architecture documentation exists beyond the README."},
	{ContributingGuide, "Contributing guide", TierImportant, HigherIsBetter, 1,
		"CONTRIBUTING file explains how to propose changes."},
	{LicenseFile, "License file", TierImportant, HigherIsBetter, 1,
		"A recognized license file is present."},
	{SecretHygiene, "Secret hygiene", TierImportant, LowerIsBetter, 0,
		"Count of committed secrets or credentials; any finding forfeits credit."},
	{TodoDensity, "TODO density", TierImportant, LowerIsBetter, 5,
		"TODO/FIXME markers per thousand lines of code."},
	{CommitConvention, "Commit conventions", TierImportant, HigherIsBetter, 75,
		"Percentage of recent commits following the project's message convention."},

	// Tier 3: Recommended
	{ChangelogFile, "Changelog", TierRecommended, HigherIsBetter, 1,
		"A maintained changelog or release notes file exists."},
	{IssueTemplates, "Issue templates", TierRecommended, HigherIsBetter, 1,
		"Issue templates guide bug reports and feature requests."},
	{CodeownersFile, "Code owners", TierRecommended, HigherIsBetter, 1,
		"CODEOWNERS maps paths to responsible reviewers."},
	{EditorconfigFile, "Editor configuration", TierRecommended, HigherIsBetter, 1,
		"An .editorconfig pins whitespace and encoding conventions."},
	{DocFreshness, "Documentation freshness", TierRecommended, LowerIsBetter, 90,
		"Days the documentation lags behind the most recent code change."},

	// Tier 4: Advanced
	{SecurityPolicy, "Security policy", TierAdvanced, HigherIsBetter, 1,
		"SECURITY.md documents how to report vulnerabilities."},
	{ReleaseAutomation, "Release automation", TierAdvanced, HigherIsBetter, 1,
		"Releases are cut by automation rather than by hand."},
	{PerformanceBenchmarks, "Performance benchmarks", TierAdvanced, HigherIsBetter, 1,
		"Benchmarks exist for performance-sensitive paths."},
	{PRTemplate, "Pull request template", TierAdvanced, HigherIsBetter, 1,
		"A pull request template prompts for context and test evidence."},
	{DependencyFreshness, "Dependency freshness", TierAdvanced, LowerIsBetter, 365,
		"Mean age in days of direct dependencies behind their latest release."},
}

// index maps IDs to catalog positions for O(1) lookup.
var index = func() map[ID]int {
	m := make(map[ID]int, len(catalog))
	for i, a := range catalog {
		m[a.ID] = i
	}
	return m
}()

// Catalog returns the full attribute catalog in tier order. The returned
// slice is a copy; callers may not mutate the catalog.
func Catalog() []Attribute {
	return slices.Clone(catalog)
}

// Lookup returns the catalog entry for id.
func Lookup(id ID) (Attribute, bool) {
	i, ok := index[id]
	if !ok {
		return Attribute{}, false
	}
	return catalog[i], true
}

// IsValid reports whether id names a catalog attribute.
func IsValid(id ID) bool {
	_, ok := index[id]
	return ok
}

// IDs returns all catalog attribute IDs in tier order.
func IDs() []ID {
	ids := make([]ID, len(catalog))
	for i, a := range catalog {
		ids[i] = a.ID
	}
	return ids
}

// TierMembers returns the IDs belonging to tier t, in catalog order.
func TierMembers(t Tier) []ID {
	var ids []ID
	for _, a := range catalog {
		if a.Tier == t {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
