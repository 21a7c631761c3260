package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"twitter-insights/internal/database"
	"twitter-insights/internal/model"
)

// RegistryStore manages business lines and their tracked members.
type RegistryStore struct {
	q database.Querier
}

func NewRegistryStore(q database.Querier) *RegistryStore {
	return &RegistryStore{q: q}
}

type lineRow struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type memberRow struct {
	Handle      string `db:"handle"`
	Description string `db:"description"`
}

// CreateLine inserts a line and its initial members.
func (s *RegistryStore) CreateLine(ctx context.Context, name, description string, members []model.Member) (model.BusinessLine, error) {
	id := uuid.New()
	now := time.Now().UTC()
	query, args, err := psql.Insert("business_lines").
		Columns("id", "name", "description", "created_at", "updated_at").
		Values(id, name, description, now, now).
		ToSql()
	if err != nil {
		return model.BusinessLine{}, fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return model.BusinessLine{}, fmt.Errorf("insert line: %w", err)
	}
	if err := s.SetMembers(ctx, id, members); err != nil {
		return model.BusinessLine{}, err
	}
	return s.GetLine(ctx, id)
}

// GetLine returns a line with its members.
func (s *RegistryStore) GetLine(ctx context.Context, id uuid.UUID) (model.BusinessLine, error) {
	query, args, err := psql.Select("id", "name", "description", "created_at", "updated_at").
		From("business_lines").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return model.BusinessLine{}, fmt.Errorf("build select: %w", err)
	}
	var row lineRow
	if err := pgxscan.Get(ctx, s.q, &row, query, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.BusinessLine{}, database.ErrNotFound
		}
		return model.BusinessLine{}, fmt.Errorf("get line: %w", err)
	}
	members, err := s.ListMembers(ctx, id)
	if err != nil {
		return model.BusinessLine{}, err
	}
	return model.BusinessLine{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Members:     members,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// ListLines returns all lines, members included, ordered by name.
func (s *RegistryStore) ListLines(ctx context.Context) ([]model.BusinessLine, error) {
	query, args, err := psql.Select("id", "name", "description", "created_at", "updated_at").
		From("business_lines").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var rows []lineRow
	if err := pgxscan.Select(ctx, s.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	out := make([]model.BusinessLine, 0, len(rows))
	for _, r := range rows {
		members, err := s.ListMembers(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.BusinessLine{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Members:     members,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return out, nil
}

// ListMembers returns the tracked members of a line.
func (s *RegistryStore) ListMembers(ctx context.Context, lineID uuid.UUID) ([]model.Member, error) {
	query, args, err := psql.Select("handle", "description").
		From("business_line_members").
		Where(sq.Eq{"line_id": lineID}).
		OrderBy("handle ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var rows []memberRow
	if err := pgxscan.Select(ctx, s.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	members := make([]model.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, model.Member{Handle: r.Handle, Description: r.Description})
	}
	return members, nil
}

// SetMembers replaces the member set of a line.
func (s *RegistryStore) SetMembers(ctx context.Context, lineID uuid.UUID, members []model.Member) error {
	query, args, err := psql.Delete("business_line_members").
		Where(sq.Eq{"line_id": lineID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	if len(members) == 0 {
		return nil
	}
	b := psql.Insert("business_line_members").Columns("line_id", "handle", "description")
	for _, m := range members {
		b = b.Values(lineID, m.Handle, m.Description)
	}
	query, args, err = b.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert members: %w", err)
	}
	return nil
}
