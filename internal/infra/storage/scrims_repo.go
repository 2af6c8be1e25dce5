package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/jose-valero/scrim-bot/internal/domain"
)

type ScrimsRepo struct{ db *sql.DB }

func NewScrimsRepo(db *sql.DB) *ScrimsRepo { return &ScrimsRepo{db: db} }

const scrimColumns = `id, guild_id, creator_id, per_team, home_id, away_id, status,
       home_voter_ids, away_voter_ids, away_confirm_anyways_voter_ids,
       home_message_id, away_message_id, away_confirm_anyways_message_id,
       scheduled_for, scrim_chat_id,
       scrim_scheduled_timer_id, scrim_reminder_timer_id, scrim_delete_timer_id,
       created_at`

func scanScrim(row interface{ Scan(...any) error }) (Scrim, error) {
	var s Scrim
	var status string
	err := row.Scan(
		&s.ID, &s.GuildID, &s.CreatorID, &s.PerTeam, &s.HomeID, &s.AwayID, &status,
		pq.Array(&s.HomeVoterIDs), pq.Array(&s.AwayVoterIDs), pq.Array(&s.AwayConfirmAnywaysVoterIDs),
		&s.HomeMessageID, &s.AwayMessageID, &s.AwayConfirmAnywaysMessageID,
		&s.ScheduledFor, &s.ScrimChatID,
		&s.ScheduledTimerID, &s.ReminderTimerID, &s.DeleteTimerID,
		&s.CreatedAt,
	)
	s.Status = domain.ScrimStatus(status)
	return s, err
}

func (r *ScrimsRepo) Create(ctx context.Context, s Scrim) (Scrim, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO teams.scrims (guild_id, creator_id, per_team, home_id, away_id, status, scheduled_for)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING `+scrimColumns,
		s.GuildID, s.CreatorID, s.PerTeam, s.HomeID, s.AwayID, s.Status.String(), s.ScheduledFor,
	)
	return scanScrim(row)
}

func (r *ScrimsRepo) Get(ctx context.Context, id int64, guildID string) (Scrim, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+scrimColumns+`
  FROM teams.scrims
 WHERE id = $1 AND guild_id = $2
`, id, guildID)
	s, err := scanScrim(row)
	if err == sql.ErrNoRows {
		return Scrim{}, domain.ErrScrimNotFound
	}
	return s, err
}

// ListAll carga todos los scrims vivos (arranque del bot).
func (r *ScrimsRepo) ListAll(ctx context.Context) ([]Scrim, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+scrimColumns+` FROM teams.scrims ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Scrim
	for rows.Next() {
		s, err := scanScrim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AddVote: append atómico con guard de duplicado y de quorum en el mismo
// UPDATE. 0 filas afectadas = el guard rechazó (el service ya validó en
// memoria bajo el lock, esto es el cinturón en la DB).
func (r *ScrimsRepo) AddVote(ctx context.Context, id int64, side domain.Side, memberID string) error {
	col := voterColumn(side)
	res, err := r.db.ExecContext(ctx, `
UPDATE teams.scrims
   SET `+col+` = array_append(`+col+`, $1)
 WHERE id = $2
   AND NOT ($1 = ANY(`+col+`))
   AND cardinality(`+col+`) < per_team
`, memberID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDuplicateVote
	}
	return nil
}

func (r *ScrimsRepo) RemoveVote(ctx context.Context, id int64, side domain.Side, memberID string) error {
	col := voterColumn(side)
	res, err := r.db.ExecContext(ctx, `
UPDATE teams.scrims
   SET `+col+` = array_remove(`+col+`, $1)
 WHERE id = $2
   AND $1 = ANY(`+col+`)
`, memberID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotVoted
	}
	return nil
}

func (r *ScrimsRepo) AddForceConfirmVote(ctx context.Context, id int64, memberID string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE teams.scrims
   SET away_confirm_anyways_voter_ids = array_append(away_confirm_anyways_voter_ids, $1)
 WHERE id = $2
   AND NOT ($1 = ANY(away_confirm_anyways_voter_ids))
`, memberID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDuplicateVote
	}
	return nil
}

// SetStatus es el primitivo puro de cambio de estado; la validación de
// legalidad de la transición vive en el confirm flow, no acá.
func (r *ScrimsRepo) SetStatus(ctx context.Context, id int64, status domain.ScrimStatus) error {
	_, err := r.db.ExecContext(ctx, `UPDATE teams.scrims SET status = $1 WHERE id = $2`, status.String(), id)
	return err
}

// Patch aplica sólo los campos no-nil, en un único UPDATE.
func (r *ScrimsRepo) Patch(ctx context.Context, id int64, p ScrimPatch) error {
	sets, args := buildScrimPatch(p)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.db.ExecContext(ctx, `
UPDATE teams.scrims SET `+strings.Join(sets, ", ")+` WHERE id = $`+fmt.Sprint(len(args)), args...)
	return err
}

func buildScrimPatch(p ScrimPatch) (sets []string, args []any) {
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.ScheduledFor != nil {
		add("scheduled_for", *p.ScheduledFor)
	}
	if p.HomeMessageID != nil {
		add("home_message_id", *p.HomeMessageID)
	}
	if p.AwayMessageID != nil {
		add("away_message_id", *p.AwayMessageID)
	}
	if p.AwayConfirmAnywaysMessageID != nil {
		add("away_confirm_anyways_message_id", *p.AwayConfirmAnywaysMessageID)
	}
	if p.ScrimChatID != nil {
		add("scrim_chat_id", *p.ScrimChatID)
	}
	return sets, args
}

// SetTimerIDs escribe los tres punteros tal cual (nil => NULL): es la única
// escritura que necesita poder limpiar columnas.
func (r *ScrimsRepo) SetTimerIDs(ctx context.Context, id int64, scheduled, reminder, del *int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE teams.scrims
   SET scrim_scheduled_timer_id = $1,
       scrim_reminder_timer_id  = $2,
       scrim_delete_timer_id    = $3
 WHERE id = $4
`, scheduled, reminder, del, id)
	return err
}

func (r *ScrimsRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM teams.scrims WHERE id = $1`, id)
	return err
}

func voterColumn(side domain.Side) string {
	if side == domain.SideHome {
		return "home_voter_ids"
	}
	return "away_voter_ids"
}
