package discord

import (
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/scrim-bot/internal/app/service"
)

type Router struct {
	s       *discordgo.Session
	guildID string

	adminRoleIDs []string
	loc          *time.Location
	clicks       *clickLimiter

	scrims  *service.ScrimService
	confirm *service.ConfirmService
	teams   *service.TeamService
}

func NewRouter(
	s *discordgo.Session,
	guildID string,
	adminRoleIDs []string,
	loc *time.Location,
	scrims *service.ScrimService,
	confirm *service.ConfirmService,
	teams *service.TeamService,
) *Router {
	return &Router{
		s:            s,
		guildID:      guildID,
		adminRoleIDs: adminRoleIDs,
		loc:          loc,
		clicks:       newClickLimiter(2 * time.Second),
		scrims:       scrims,
		confirm:      confirm,
		teams:        teams,
	}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		if ic.GuildID != r.guildID || ic.Member == nil || ic.Member.User == nil {
			return
		}
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlashCommand(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(s, ic)
		}
	})

	r.s.AddHandler(func(s *discordgo.Session, rd *discordgo.Ready) {
		log.Printf("bot listo como %s#%s", rd.User.Username, rd.User.Discriminator)
	})
}
