package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// formatProposalNumber constructs the proposal number string from components.
func formatProposalNumber(year, sequence int) string {
	return fmt.Sprintf("PRP-%d-%03d", year, sequence)
}

// GenerateProposalNumber creates the next proposal number.
// Format: PRP-{year}-{sequence}
// - year: calendar year of now
// - sequence: 3-digit zero-padded, per year
func GenerateProposalNumber(app core.App, now time.Time) (string, error) {
	prefix := fmt.Sprintf("PRP-%d-", now.Year())

	existing, err := app.FindRecordsByFilter(
		"proposals",
		"proposal_number ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{
			"prefix": prefix + "%",
		},
	)
	if err != nil {
		return "", fmt.Errorf("count proposals for %s: %w", prefix, err)
	}

	return formatProposalNumber(now.Year(), len(existing)+1), nil
}
