package storage

import (
	"context"
	"database/sql"

	"github.com/jose-valero/scrim-bot/internal/domain"
)

type TeamsRepo struct{ db *sql.DB }

func NewTeamsRepo(db *sql.DB) *TeamsRepo { return &TeamsRepo{db: db} }

func (r *TeamsRepo) Create(ctx context.Context, t Team) (Team, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO teams.teams (guild_id, name, text_channel_id, category_id)
VALUES ($1,$2,$3,$4)
RETURNING id, created_at
`, t.GuildID, t.Name, t.TextChannelID, t.CategoryID)
	err := row.Scan(&t.ID, &t.CreatedAt)
	return t, err
}

// Get resuelve un equipo con su roster. domain.ErrTeamNotFound cuando el
// equipo fue borrado: los callers lo tratan como condición de cancelación,
// nunca como crash.
func (r *TeamsRepo) Get(ctx context.Context, id int64, guildID string) (Team, error) {
	var t Team
	err := r.db.QueryRowContext(ctx, `
SELECT id, guild_id, name, text_channel_id, category_id, created_at
  FROM teams.teams
 WHERE id = $1 AND guild_id = $2
`, id, guildID).Scan(&t.ID, &t.GuildID, &t.Name, &t.TextChannelID, &t.CategoryID, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return Team{}, domain.ErrTeamNotFound
	}
	if err != nil {
		return Team{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT member_id, is_captain
  FROM teams.team_members
 WHERE team_id = $1
 ORDER BY member_id
`, id)
	if err != nil {
		return Team{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.MemberID, &m.IsCaptain); err != nil {
			return Team{}, err
		}
		t.Members = append(t.Members, m)
	}
	return t, rows.Err()
}

func (r *TeamsRepo) GetByName(ctx context.Context, name, guildID string) (Team, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
SELECT id FROM teams.teams WHERE guild_id = $1 AND name = $2
`, guildID, name).Scan(&id)
	if err == sql.ErrNoRows {
		return Team{}, domain.ErrTeamNotFound
	}
	if err != nil {
		return Team{}, err
	}
	return r.Get(ctx, id, guildID)
}

func (r *TeamsRepo) List(ctx context.Context, guildID string) ([]Team, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, guild_id, name, text_channel_id, category_id, created_at
  FROM teams.teams
 WHERE guild_id = $1
 ORDER BY name
`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.GuildID, &t.Name, &t.TextChannelID, &t.CategoryID, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TeamsRepo) AddMember(ctx context.Context, teamID int64, memberID string, captain bool) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO teams.team_members (team_id, member_id, is_captain)
VALUES ($1,$2,$3)
ON CONFLICT (team_id, member_id) DO UPDATE SET is_captain = EXCLUDED.is_captain
`, teamID, memberID, captain)
	return err
}

func (r *TeamsRepo) RemoveMember(ctx context.Context, teamID int64, memberID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM teams.team_members WHERE team_id = $1 AND member_id = $2
`, teamID, memberID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *TeamsRepo) Delete(ctx context.Context, id int64, guildID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM teams.teams WHERE id = $1 AND guild_id = $2
`, id, guildID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
