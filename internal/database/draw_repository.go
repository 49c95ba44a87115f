package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/powerdraw/internal/domain"
)

// drawSelectColumns lists columns for SELECT queries on draws.
const drawSelectColumns = `draw_no, draw_date, n1, n2, n3, n4, n5, n6, n7, powerball, source_url`

// drawRow is the flat sqlite row shape for a draw.
type drawRow struct {
	DrawNo    int    `db:"draw_no"`
	DrawDate  string `db:"draw_date"`
	N1        int    `db:"n1"`
	N2        int    `db:"n2"`
	N3        int    `db:"n3"`
	N4        int    `db:"n4"`
	N5        int    `db:"n5"`
	N6        int    `db:"n6"`
	N7        int    `db:"n7"`
	Powerball int    `db:"powerball"`
	SourceURL string `db:"source_url"`
}

// toDraw converts a row back into the domain record.
func (r *drawRow) toDraw() (domain.Draw, error) {
	date, err := time.Parse(domain.DateLayout, r.DrawDate)
	if err != nil {
		return domain.Draw{}, fmt.Errorf("stored draw %d has invalid date %q: %w", r.DrawNo, r.DrawDate, err)
	}

	return domain.Draw{
		DrawNo:    r.DrawNo,
		DrawDate:  date,
		Mains:     []int{r.N1, r.N2, r.N3, r.N4, r.N5, r.N6, r.N7},
		Powerball: r.Powerball,
		SourceURL: r.SourceURL,
	}, nil
}

// DrawRepository implements the storage contract over sqlite: idempotent
// upsert keyed by draw number, newest-first listing, and frequency counts.
type DrawRepository struct {
	db    *sqlx.DB
	rules domain.Rules
}

// NewDrawRepository creates a new draw repository.
func NewDrawRepository(db *sqlx.DB, rules domain.Rules) *DrawRepository {
	return &DrawRepository{db: db, rules: rules}
}

// Upsert inserts the draw or overwrites all non-key fields of the row
// sharing its draw number.
func (r *DrawRepository) Upsert(ctx context.Context, draw *domain.Draw) error {
	query := `
		INSERT INTO draws (draw_no, draw_date, n1, n2, n3, n4, n5, n6, n7, powerball, source_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(draw_no) DO UPDATE SET
			draw_date = excluded.draw_date,
			n1 = excluded.n1, n2 = excluded.n2, n3 = excluded.n3, n4 = excluded.n4,
			n5 = excluded.n5, n6 = excluded.n6, n7 = excluded.n7,
			powerball = excluded.powerball,
			source_url = excluded.source_url,
			updated_at = datetime('now')
	`

	_, err := r.db.ExecContext(ctx, query,
		draw.DrawNo, draw.DateString(),
		draw.Mains[0], draw.Mains[1], draw.Mains[2], draw.Mains[3],
		draw.Mains[4], draw.Mains[5], draw.Mains[6],
		draw.Powerball, draw.SourceURL,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert draw %d: %w", draw.DrawNo, err)
	}

	return nil
}

// List returns stored draws ordered newest-first by date then draw
// number. A limit of 0 or less returns all draws.
func (r *DrawRepository) List(ctx context.Context, limit int) ([]domain.Draw, error) {
	query := `SELECT ` + drawSelectColumns + ` FROM draws ORDER BY date(draw_date) DESC, draw_no DESC`

	var rows []drawRow
	var err error
	if limit > 0 {
		query += ` LIMIT ?`
		err = r.db.SelectContext(ctx, &rows, query, limit)
	} else {
		err = r.db.SelectContext(ctx, &rows, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list draws: %w", err)
	}

	draws := make([]domain.Draw, 0, len(rows))
	for i := range rows {
		draw, convErr := rows[i].toDraw()
		if convErr != nil {
			return nil, convErr
		}
		draws = append(draws, draw)
	}

	return draws, nil
}

// Frequencies counts number occurrences over the window most-recent
// draws (all draws when window is 0 or less). The returned table covers
// the full number domains, zero-filled.
func (r *DrawRepository) Frequencies(ctx context.Context, window int) (*domain.FrequencyTable, error) {
	draws, err := r.List(ctx, window)
	if err != nil {
		return nil, err
	}

	table := domain.NewFrequencyTable(r.rules)
	for i := range draws {
		table.Add(&draws[i])
	}

	return table, nil
}
