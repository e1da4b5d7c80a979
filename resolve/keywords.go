package resolve

import "strings"

// complianceVocabulary is the fixed set of domain terms recognized in
// requirement guidance text. Extraction is a membership test against
// this list, in this order, so results are reproducible across runs.
// The list is deliberately enumerated rather than inferred.
var complianceVocabulary = []string{
	"training",
	"flight review",
	"currency",
	"certification",
	"registration",
	"maintenance",
	"inspection",
	"logbook",
	"record keeping",
	"emergency",
	"incident",
	"accident",
	"reporting",
	"insurance",
	"airspace",
	"weather",
	"battery",
	"payload",
	"pilot",
	"visual observer",
	"crew",
	"briefing",
	"checklist",
	"procedure",
	"site survey",
	"risk assessment",
	"night operations",
	"visual line of sight",
	"detect and avoid",
	"manufacturer",
}

// ExtractKeywords returns the vocabulary terms present in the guidance
// text, in vocabulary order. Matching is case-insensitive substring
// membership; free extraction is deliberately avoided.
func ExtractKeywords(guidance string) []string {
	if guidance == "" {
		return nil
	}
	text := strings.ToLower(guidance)
	var found []string
	for _, keyword := range complianceVocabulary {
		if strings.Contains(text, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}
