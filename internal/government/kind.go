// Package government models the player's cabinet: six policy departments
// sharing one budget/performance contract, and the fiscal and monetary levers
// the economy engine reads each month.
package government

// Kind identifies a department.
type Kind uint8

const (
	KindTaxation Kind = iota
	KindDefense
	KindEducation
	KindHealthcare
	KindWelfare
	KindForeignAffairs
)

// Kinds lists every department in cabinet order.
var Kinds = []Kind{KindTaxation, KindDefense, KindEducation, KindHealthcare, KindWelfare, KindForeignAffairs}

var kindNames = map[Kind]string{
	KindTaxation:       "taxation",
	KindDefense:        "defense",
	KindEducation:      "education",
	KindHealthcare:     "healthcare",
	KindWelfare:        "welfare",
	KindForeignAffairs: "foreign_affairs",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ParseKind maps a department name to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, n := range kindNames {
		if n == s {
			return k, true
		}
	}
	return 0, false
}

// Reform is a one-shot departmental policy change.
type Reform string

const (
	ReformDigitalFiling      Reform = "digitalFiling"
	ReformEvasionCrackdown   Reform = "evasionCrackdown"
	ReformIncreaseReadiness  Reform = "increaseReadiness"
	ReformBoostTech          Reform = "boostTechAdvancement"
	ReformIncreaseLiteracy   Reform = "increaseLiteracy"
	ReformBoostResearch      Reform = "boostResearchOutput"
	ReformVocational         Reform = "expandVocationalTraining"
	ReformPrivatization      Reform = "privatization"
	ReformMentalHealth       Reform = "mentalHealthFocus"
	ReformPovertyReduction   Reform = "increasePovertyReduction"
	ReformEmploymentSupport  Reform = "boostEmploymentSupport"
	ReformHousing            Reform = "expandHousingAssistance"
	ReformDiplomaticRelation Reform = "increaseDiplomaticRelations"
	ReformTradeAgreements    Reform = "boostTradeAgreements"
	ReformCulturalExchange   Reform = "expandCulturalExchange"
)
