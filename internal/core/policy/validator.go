package policy

import (
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

const DefaultMaxQueryLength = 1000

// MedicalKeywords drive the advisory relevance check.
var MedicalKeywords = []string{
	"症状", "诊断", "治疗", "药物", "疾病", "医学", "临床", "病例",
	"患者", "医生", "医院", "手术", "检查", "化验", "病理",
}

var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

type InputValidator struct {
	maxLength int
	keywords  []string
}

func NewInputValidator(maxLength int) *InputValidator {
	if maxLength <= 0 {
		maxLength = DefaultMaxQueryLength
	}
	return &InputValidator{
		maxLength: maxLength,
		keywords:  MedicalKeywords,
	}
}

func (v *InputValidator) MaxLength() int { return v.maxLength }

// Validate trims raw and checks it is non-empty and within the length limit.
// Length is counted in characters, not bytes.
func (v *InputValidator) Validate(raw string) (domain.ValidationResult, error) {
	query := strings.TrimSpace(raw)
	if query == "" {
		return domain.ValidationResult{}, &domain.ValidationError{Kind: domain.ErrEmptyInput}
	}
	if utf8.RuneCountInString(query) > v.maxLength {
		return domain.ValidationResult{}, &domain.ValidationError{Kind: domain.ErrTooLong, Limit: v.maxLength}
	}

	return domain.ValidationResult{
		Query:          query,
		DomainRelevant: v.isDomainRelevant(query),
	}, nil
}

func (v *InputValidator) isDomainRelevant(query string) bool {
	for _, keyword := range v.keywords {
		if strings.Contains(query, keyword) {
			return true
		}
	}
	return false
}

// Sanitize escapes the five markup-significant characters.
func Sanitize(text string) string {
	return htmlEscaper.Replace(text)
}
