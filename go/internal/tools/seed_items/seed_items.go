package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/draftroom/go/internal/dbconfig"
)

// ProjectionRow matches the upstream projections feed layout.
type ProjectionRow struct {
	ID              *uuid.UUID `json:"id"`
	ExternalID      string     `json:"external_id"`
	FullName        string     `json:"full_name"`
	Position        string     `json:"position"`
	TeamAbbr        string     `json:"team_abbr"`
	ADP             float64    `json:"adp"`
	OverallRank     int        `json:"overall_rank"`
	ProjectedPoints float64    `json:"projected_points"`
}

func main() {
	ctx := context.Background()

	// 1) Load projections.json
	path := os.Getenv("PROJECTIONS_PATH")
	if path == "" {
		path = "go/internal/assets/projections.json"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", path, err)
		os.Exit(1)
	}
	var rows []ProjectionRow
	if err := json.Unmarshal(data, &rows); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal projections: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Seed items
	total, upserted, errs := len(rows), 0, 0
	for _, r := range rows {
		id := uuid.New()
		if r.ID != nil {
			id = *r.ID
		}
		var team *string
		if r.TeamAbbr != "" {
			team = &r.TeamAbbr
		}
		_, err := pool.Exec(ctx, `
            INSERT INTO items (
              id, external_id, full_name, position, team_abbr,
              adp, overall_rank, projected_points
            ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
            ON CONFLICT (external_id) DO UPDATE SET
              full_name = EXCLUDED.full_name,
              position = EXCLUDED.position,
              team_abbr = EXCLUDED.team_abbr,
              adp = EXCLUDED.adp,
              overall_rank = EXCLUDED.overall_rank,
              projected_points = EXCLUDED.projected_points,
              updated_at = now()
        `, id, r.ExternalID, r.FullName, r.Position, team,
			r.ADP, r.OverallRank, r.ProjectedPoints)
		if err != nil {
			errs++
			continue
		}
		upserted++
	}
	fmt.Printf(
		"Items seed: total=%d upserted=%d errors=%d\n",
		total, upserted, errs,
	)
}
