package db

import (
	"context"
	"fmt"
)

// Recommendation kinds in the catalog table.
const (
	KindGoodPractice = "good_practice"
	KindBadHabit     = "bad_habit"
)

// ListRecommendations returns the catalog tips of one kind in display order.
func ListRecommendations(ctx context.Context, kind string) ([]string, error) {
	if DB == nil {
		return nil, fmt.Errorf("recommendations database not initialized")
	}

	rows, err := DB.QueryContext(ctx,
		`SELECT tip FROM recommendations WHERE kind = $1 ORDER BY position`, kind)
	if err != nil {
		return nil, fmt.Errorf("error querying recommendations: %w", err)
	}
	defer rows.Close()

	var tips []string
	for rows.Next() {
		var tip string
		if err := rows.Scan(&tip); err != nil {
			return nil, fmt.Errorf("error scanning recommendation: %w", err)
		}
		tips = append(tips, tip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading recommendations: %w", err)
	}
	return tips, nil
}
