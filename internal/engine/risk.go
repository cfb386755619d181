package engine

import "fmt"

// Risk penalty points, subtracted from confidence by the aggregator.
const (
	brandedTitlePenalty = 40
	accidentPenalty     = 8
	maxAccidentPenalty  = 32
	extraOwnerPenalty   = 4
	maxOwnerPenalty     = 12
	missingFieldPenalty = 5

	// ownersBeforePenalty is the owner count tolerated without penalty.
	ownersBeforePenalty = 2
	// wellServicedRecords service records earn a positive note.
	wellServicedRecords = 3
)

// riskStage is the Risk Adjuster output.
type riskStage struct {
	penalty   float64
	forcePass bool // salvage/rebuilt title
	reasons   []Reason
}

// adjustRisk turns condition signals into penalty points and traceable reasons.
func adjustRisk(v DecodedVehicle) riskStage {
	var r riskStage
	add := func(points float64, kind ReasonKind, msg string) {
		r.penalty += points
		r.reasons = append(r.reasons, Reason{Kind: kind, Message: msg})
	}

	title := v.TitleStatus
	if title == "" {
		title = TitleUnknown
	}
	clean := title == TitleClean
	noAccidents := v.AccidentCount != nil && *v.AccidentCount == 0

	switch {
	case title.Branded():
		r.forcePass = true
		add(brandedTitlePenalty, Negative, fmt.Sprintf("%s title: automatic pass", titleLabel(title)))
	case !title.Known():
		add(missingFieldPenalty, Neutral, "Title status not reported")
	case clean && noAccidents:
		r.reasons = append(r.reasons, Reason{Kind: Positive, Message: "Clean title, no accidents reported"})
	default:
		r.reasons = append(r.reasons, Reason{Kind: Positive, Message: "Clean title"})
	}

	switch {
	case v.AccidentCount == nil:
		r.reasons = append(r.reasons, Reason{Kind: Neutral, Message: "Accident history not available"})
	case *v.AccidentCount > 0:
		points := float64(min(*v.AccidentCount*accidentPenalty, maxAccidentPenalty))
		add(points, Negative, plural(*v.AccidentCount, "accident", "accidents")+" reported")
	case !clean:
		r.reasons = append(r.reasons, Reason{Kind: Positive, Message: "No accidents reported"})
	}

	if v.OwnerCount != nil {
		switch n := *v.OwnerCount; {
		case n <= 0:
		case n == 1:
			r.reasons = append(r.reasons, Reason{Kind: Positive, Message: "Single owner"})
		case n <= ownersBeforePenalty:
			r.reasons = append(r.reasons, Reason{Kind: Negative, Message: fmt.Sprintf("%d prior owners", n)})
		default:
			points := float64(min((n-ownersBeforePenalty)*extraOwnerPenalty, maxOwnerPenalty))
			add(points, Negative, fmt.Sprintf("%d prior owners", n))
		}
	}

	if v.Mileage == nil {
		add(missingFieldPenalty, Neutral, "Mileage not reported")
	}

	if v.ServiceRecordCount != nil && *v.ServiceRecordCount >= wellServicedRecords {
		r.reasons = append(r.reasons, Reason{Kind: Positive, Message: fmt.Sprintf("%d service records on file", *v.ServiceRecordCount)})
	}

	return r
}

func titleLabel(t TitleStatus) string {
	switch t {
	case TitleSalvage:
		return "Salvage"
	case TitleRebuilt:
		return "Rebuilt"
	case TitleClean:
		return "Clean"
	}
	return "Unknown"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
