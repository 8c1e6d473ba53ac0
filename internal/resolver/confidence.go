package resolver

// Confidence constants, verbatim from the resolver's confidence table:
// each strategy reports one of these (or, for framework resolvers, a
// value in [FrameworkMin, FrameworkMax] the resolver itself chooses).
const (
	ConfidenceQualifiedUnique        = 0.95
	ConfidenceQualifiedPartialSuffix = 0.85
	ConfidenceExactSingle            = 0.90
	ConfidenceExactDisambiguated     = 0.70
	ConfidenceMethodCallPattern      = 0.85
	ConfidenceImportBased            = 0.90
	ConfidenceFuzzy                  = 0.50

	FrameworkMin = 0.80
	FrameworkMax = 1.00
)

// strategy names recorded as ResolvedEdgeMeta.ResolvedBy.
const (
	StrategyFramework     = "framework"
	StrategyImport         = "import"
	StrategyQualifiedName  = "qualified-name"
	StrategyExactName      = "exact-name"
	StrategyMethodCall     = "method-call"
	StrategyFuzzy          = "fuzzy"
)
