package models

// periods per year used when annualizing
const (
	Daily   = 252
	Weekly  = 52
	Monthly = 12
)

func ConvertFrequencyToString(inp int) string {
	switch inp {
	case Daily:
		return "days"
	case Weekly:
		return "weeks"
	case Monthly:
		return "months"
	default:
		return ""
	}
}
