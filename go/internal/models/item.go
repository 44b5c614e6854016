package models

import (
	"github.com/google/uuid"
)

// Item is a draftable pool member. ADP is the average draft position from
// the upstream projections feed; OverallRank breaks ADP ties.
type Item struct {
	ID              uuid.UUID `json:"id"`
	ExternalID      string    `json:"external_id"`
	FullName        string    `json:"full_name"`
	Position        string    `json:"position"` // 'QB', 'RB', 'WR', 'TE', ...
	TeamAbbr        string    `json:"team_abbr"`
	ADP             float64   `json:"adp"`
	OverallRank     int       `json:"overall_rank"`
	ProjectedPoints float64   `json:"projected_points"`
}
