package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/nutrition-pipeline/internal/core/domain"
)

// FoodCatalog is the local food list. Its refs use the "lyf:" prefix.
type FoodCatalog struct {
	db *sql.DB
}

func NewFoodCatalog(db *sql.DB) *FoodCatalog {
	return &FoodCatalog{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (c *FoodCatalog) SearchFoods(ctx context.Context, query string, limit int) ([]domain.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Candidate{}, nil
	}
	if limit <= 0 {
		limit = 8
	}

	rows, err := c.db.QueryContext(ctx, `
SELECT id, name, class_id, brand
FROM foods
WHERE name ILIKE $1
ORDER BY length(name), name
LIMIT $2
`, "%"+likeEscaper.Replace(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search foods: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Candidate, 0)
	for rows.Next() {
		var (
			id        int64
			candidate domain.Candidate
		)
		if err := rows.Scan(&id, &candidate.Name, &candidate.ClassID, &candidate.BrandName); err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		candidate.ProviderRef = "lyf:" + strconv.FormatInt(id, 10)
		out = append(out, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foods: %w", err)
	}
	return out, nil
}
