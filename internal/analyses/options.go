package analyses

import (
	"errors"
	"strings"
)

// Type selects what the analysis focuses on.
type Type string

const (
	TypeComprehensive    Type = "comprehensive"
	TypeSummary          Type = "summary"
	TypeKeyPoints        Type = "key_points"
	TypeRiskAssessment   Type = "risk_assessment"
	TypeEntityExtraction Type = "entity_extraction"
	TypeContractReview   Type = "contract_review"
	TypeComplianceCheck  Type = "compliance_check"
)

// Level controls how deep the explanation goes.
type Level string

const (
	LevelBasic        Level = "basic"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

var (
	ErrInvalidType  = errors.New("analysis type is invalid")
	ErrInvalidLevel = errors.New("detail level is invalid")
)

var typeLabels = map[Type]string{
	TypeComprehensive:    "Comprehensive Analysis",
	TypeSummary:          "Summary Only",
	TypeKeyPoints:        "Key Points Extraction",
	TypeRiskAssessment:   "Risk Assessment",
	TypeEntityExtraction: "Legal Entity Extraction",
	TypeContractReview:   "Contract Review",
	TypeComplianceCheck:  "Compliance Check",
}

var typeAliases = map[string]Type{
	"comprehensive_analysis":  TypeComprehensive,
	"summary_only":            TypeSummary,
	"key_points_extraction":   TypeKeyPoints,
	"keypoints":               TypeKeyPoints,
	"risk":                    TypeRiskAssessment,
	"legal_entity_extraction": TypeEntityExtraction,
	"entities":                TypeEntityExtraction,
	"contract":                TypeContractReview,
	"compliance":              TypeComplianceCheck,
}

// Options toggles optional sections of the analysis.
type Options struct {
	ExtractEntities  bool `json:"extractEntities"`
	AssessRisks      bool `json:"assessRisks"`
	TimelineAnalysis bool `json:"timelineAnalysis"`
}

// DefaultOptions matches the defaults offered on the analysis form.
func DefaultOptions() Options {
	return Options{ExtractEntities: true, AssessRisks: true}
}

// Request is one analysis invocation.
type Request struct {
	Type    Type
	Level   Level
	Options Options
}

// Label returns the display name of the type.
func (t Type) Label() string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}

// ParseType normalizes an analysis type. Display labels such as
// "Risk Assessment" are accepted. Empty input yields TypeComprehensive.
func ParseType(raw string) (Type, error) {
	key := normalizeToken(raw)
	if key == "" {
		return TypeComprehensive, nil
	}
	if _, ok := typeLabels[Type(key)]; ok {
		return Type(key), nil
	}
	if t, ok := typeAliases[key]; ok {
		return t, nil
	}
	return "", ErrInvalidType
}

// ParseLevel normalizes a detail level. Empty input yields LevelIntermediate.
func ParseLevel(raw string) (Level, error) {
	switch Level(normalizeToken(raw)) {
	case "":
		return LevelIntermediate, nil
	case LevelBasic:
		return LevelBasic, nil
	case LevelIntermediate:
		return LevelIntermediate, nil
	case LevelAdvanced:
		return LevelAdvanced, nil
	case LevelExpert:
		return LevelExpert, nil
	default:
		return "", ErrInvalidLevel
	}
}

func (r Request) normalized() Request {
	if r.Type == "" {
		r.Type = TypeComprehensive
	}
	if r.Level == "" {
		r.Level = LevelIntermediate
	}
	return r
}

func normalizeToken(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}
