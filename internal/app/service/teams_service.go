package service

import (
	"context"

	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

// Lo implementa internal/infra/storage.TeamsRepo
type TeamDirectory interface {
	Create(ctx context.Context, t storage.Team) (storage.Team, error)
	Get(ctx context.Context, id int64, guildID string) (storage.Team, error)
	GetByName(ctx context.Context, name, guildID string) (storage.Team, error)
	List(ctx context.Context, guildID string) ([]storage.Team, error)
	AddMember(ctx context.Context, teamID int64, memberID string, captain bool) error
	RemoveMember(ctx context.Context, teamID int64, memberID string) (bool, error)
	Delete(ctx context.Context, id int64, guildID string) (bool, error)
}

// TeamService administra el directorio de equipos del guild. Los scrims
// referencian equipos por id, así que esto tiene que existir antes.
type TeamService struct {
	teams TeamDirectory
}

func NewTeamService(teams TeamDirectory) *TeamService {
	return &TeamService{teams: teams}
}

func (s *TeamService) Create(ctx context.Context, guildID, name string, textChannelID, categoryID *string) (storage.Team, error) {
	return s.teams.Create(ctx, storage.Team{
		GuildID:       guildID,
		Name:          name,
		TextChannelID: textChannelID,
		CategoryID:    categoryID,
	})
}

func (s *TeamService) Get(ctx context.Context, id int64, guildID string) (storage.Team, error) {
	return s.teams.Get(ctx, id, guildID)
}

func (s *TeamService) GetByName(ctx context.Context, name, guildID string) (storage.Team, error) {
	return s.teams.GetByName(ctx, name, guildID)
}

func (s *TeamService) List(ctx context.Context, guildID string) ([]storage.Team, error) {
	return s.teams.List(ctx, guildID)
}

func (s *TeamService) AddMember(ctx context.Context, teamID int64, memberID string, captain bool) error {
	return s.teams.AddMember(ctx, teamID, memberID, captain)
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID int64, memberID string) (bool, error) {
	return s.teams.RemoveMember(ctx, teamID, memberID)
}

func (s *TeamService) Delete(ctx context.Context, id int64, guildID string) (bool, error) {
	return s.teams.Delete(ctx, id, guildID)
}
