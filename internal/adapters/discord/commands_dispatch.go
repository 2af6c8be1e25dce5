// Lógica de InteractionApplicationCommand: acá sólo parseamos la
// interacción y despachamos a los services.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/scrim-bot/internal/app/service"
	"github.com/jose-valero/scrim-bot/internal/domain"
	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

func (r *Router) handleSlashCommand(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	log.Printf("cmd: /%s by=%s guild=%s", cmd.Name, ic.Member.User.ID, ic.GuildID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("panic in cmd /%s: %v", cmd.Name, rec)
			ReplyEphemeral(s, ic, "❌ Ocurrió un error inesperado procesando el comando.")
		}
	}()

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	if len(cmd.Options) == 0 {
		return
	}
	sub := cmd.Options[0]

	switch cmd.Name {
	case "scrim":
		r.dispatchScrim(ctx, s, ic, sub)
	case "team":
		r.dispatchTeam(ctx, s, ic, sub)
	}
}

func (r *Router) dispatchScrim(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optMap(sub.Options)

	switch sub.Name {
	case "create":
		when, err := parseWhen(opts["when"].StringValue(), r.loc)
		if err != nil {
			ReplyEphemeral(s, ic, "⚠️ "+err.Error())
			return
		}
		if !when.After(time.Now()) {
			ReplyEphemeral(s, ic, "⚠️ La fecha tiene que estar en el futuro.")
			return
		}

		home, err := r.teams.GetByName(ctx, opts["home"].StringValue(), ic.GuildID)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		away, err := r.teams.GetByName(ctx, opts["away"].StringValue(), ic.GuildID)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		if home.ID == away.ID {
			ReplyEphemeral(s, ic, "⚠️ Un equipo no puede jugar contra sí mismo.")
			return
		}

		sc, err := r.scrims.Create(ctx, ic.GuildID, ic.Member.User.ID, home.ID, away.ID, int(opts["per_team"].IntValue()), when)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Scrim **#%d** creado: %s vs %s, %s. La votación quedó en <#%s>.",
			sc.ID, home.Name, away.Name, fmtWhen(sc.ScheduledFor), *home.TextChannelID))

	case "cancel":
		id := opts["id"].IntValue()
		if !r.canManageScrim(ctx, s, ic, id) {
			return
		}
		reason := "Cancelado por <@" + ic.Member.User.ID + ">."
		if o, ok := opts["reason"]; ok && strings.TrimSpace(o.StringValue()) != "" {
			reason = strings.TrimSpace(o.StringValue())
		}
		if err := r.scrims.Cancel(ctx, ic.GuildID, id, reason); err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Scrim **#%d** cancelado.", id))

	case "reschedule":
		id := opts["id"].IntValue()
		if !r.canManageScrim(ctx, s, ic, id) {
			return
		}
		when, err := parseWhen(opts["when"].StringValue(), r.loc)
		if err != nil {
			ReplyEphemeral(s, ic, "⚠️ "+err.Error())
			return
		}
		if !when.After(time.Now()) {
			ReplyEphemeral(s, ic, "⚠️ La fecha tiene que estar en el futuro.")
			return
		}
		sc, err := r.scrims.Reschedule(ctx, ic.GuildID, id, when)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Scrim **#%d** movido a %s.", sc.ID, fmtWhen(sc.ScheduledFor)))

	case "info":
		v, err := r.scrims.Info(ctx, ic.GuildID, opts["id"].IntValue())
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, "", scrimInfoEmbed(v))

	case "list":
		live := r.scrims.List(ic.GuildID)
		if len(live) == 0 {
			ReplyEphemeral(s, ic, "ℹ️ No hay scrims vivos. Crea uno con `/scrim create`.")
			return
		}
		lines := make([]string, 0, len(live))
		for _, sc := range live {
			lines = append(lines, fmt.Sprintf("• **#%d** — %s, estado `%s`, votos %d/%d y %d/%d",
				sc.ID, fmtWhen(sc.ScheduledFor), sc.Status,
				len(sc.HomeVoterIDs), sc.PerTeam, len(sc.AwayVoterIDs), sc.PerTeam))
		}
		ReplyEphemeral(s, ic, strings.Join(lines, "\n"))

	case "force-add-vote", "force-remove-vote":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		id := opts["id"].IntValue()
		side := domain.Side(opts["side"].StringValue())
		member := opts["member"].UserValue(s)

		var err error
		if sub.Name == "force-add-vote" {
			_, err = r.confirm.ForceAddVote(ctx, ic.GuildID, id, side, member.ID)
		} else {
			_, err = r.confirm.ForceRemoveVote(ctx, ic.GuildID, id, side, member.ID)
		}
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Listo: voto de <@%s> en el scrim **#%d**.", member.ID, id))

	case "force-schedule":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
		id := opts["id"].IntValue()
		if _, err := r.confirm.ForceSchedule(ctx, ic.GuildID, id); err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Scrim **#%d** agendado a la fuerza.", id))
	}
}

func (r *Router) dispatchTeam(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	opts := optMap(sub.Options)

	// info y list son de consulta; el resto toca el directorio.
	switch sub.Name {
	case "create", "add-member", "remove-member", "delete":
		if !r.requireAdminOrRoles(s, ic) {
			return
		}
	}

	switch sub.Name {
	case "create":
		var textChannelID, categoryID *string
		if o, ok := opts["text_channel"]; ok {
			ch := o.ChannelValue(s)
			if ch == nil || ch.Type != discordgo.ChannelTypeGuildText {
				ReplyEphemeral(s, ic, "⚠️ `text_channel` tiene que ser un canal de texto.")
				return
			}
			textChannelID = &ch.ID
		}
		if o, ok := opts["category"]; ok {
			ch := o.ChannelValue(s)
			if ch == nil || ch.Type != discordgo.ChannelTypeGuildCategory {
				ReplyEphemeral(s, ic, "⚠️ `category` tiene que ser una categoría.")
				return
			}
			categoryID = &ch.ID
		}

		t, err := r.teams.Create(ctx, ic.GuildID, strings.TrimSpace(opts["name"].StringValue()), textChannelID, categoryID)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Equipo **%s** creado (id %d).", t.Name, t.ID))

	case "add-member":
		t, err := r.teams.GetByName(ctx, opts["team"].StringValue(), ic.GuildID)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		member := opts["member"].UserValue(s)
		captain := false
		if o, ok := opts["captain"]; ok {
			captain = o.BoolValue()
		}
		if err := r.teams.AddMember(ctx, t.ID, member.ID, captain); err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ <@%s> ahora es parte de **%s**.", member.ID, t.Name))

	case "remove-member":
		t, err := r.teams.GetByName(ctx, opts["team"].StringValue(), ic.GuildID)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		member := opts["member"].UserValue(s)
		removed, err := r.teams.RemoveMember(ctx, t.ID, member.ID)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		if !removed {
			ReplyEphemeral(s, ic, fmt.Sprintf("ℹ️ <@%s> no era parte de **%s**.", member.ID, t.Name))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ <@%s> salió de **%s**.", member.ID, t.Name))

	case "delete":
		t, err := r.teams.GetByName(ctx, opts["team"].StringValue(), ic.GuildID)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		if _, err := r.teams.Delete(ctx, t.ID, ic.GuildID); err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Equipo **%s** borrado. Los scrims que lo referencien se cancelan al tocar el panel.", t.Name))

	case "info":
		t, err := r.teams.GetByName(ctx, opts["team"].StringValue(), ic.GuildID)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		ReplyEphemeral(s, ic, "", teamInfoEmbed(t))

	case "list":
		teams, err := r.teams.List(ctx, ic.GuildID)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		if len(teams) == 0 {
			ReplyEphemeral(s, ic, "ℹ️ No hay equipos todavía. Crea uno con `/team create`.")
			return
		}
		lines := make([]string, 0, len(teams))
		for _, t := range teams {
			lines = append(lines, fmt.Sprintf("• **%s** — %d miembros", t.Name, len(t.Members)))
		}
		ReplyEphemeral(s, ic, strings.Join(lines, "\n"))
	}
}

// canManageScrim: el creador del scrim o un admin. Responde efímero si no.
func (r *Router) canManageScrim(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate, scrimID int64) bool {
	v, err := r.scrims.Info(ctx, ic.GuildID, scrimID)
	if err != nil {
		ReplyEphemeral(s, ic, r.errMsg(err))
		return false
	}
	if v.Scrim.CreatorID == ic.Member.User.ID {
		return true
	}
	return r.requireAdminOrRoles(s, ic)
}

// errMsg traduce los errores de dominio a algo que el usuario entienda;
// lo demás se reporta crudo.
func (r *Router) errMsg(err error) string {
	var exists *domain.ForceConfirmExistsError
	if errors.As(err, &exists) {
		return fmt.Sprintf("⚠️ Ya hay una votación forzada abierta: https://discord.com/channels/%s/%s/%s",
			r.guildID, exists.ChannelID, exists.MessageID)
	}

	switch {
	case errors.Is(err, domain.ErrDuplicateVote):
		return "⚠️ Ese voto ya estaba contado."
	case errors.Is(err, domain.ErrNotVoted):
		return "⚠️ No había voto que retirar."
	case errors.Is(err, domain.ErrQuorumReached):
		return "⚠️ Esa votación ya cerró."
	case errors.Is(err, domain.ErrUnknownTeam):
		return "⚠️ Ese equipo no es parte de este scrim."
	case errors.Is(err, domain.ErrForceConfirmPerTeam):
		return "⚠️ La confirmación forzada necesita al menos 2 jugadores por equipo."
	case errors.Is(err, domain.ErrForceConfirmTooFewVotes):
		return "⚠️ Faltan votos normales para abrir una confirmación forzada."
	case errors.Is(err, domain.ErrForceConfirmTooEarly):
		return fmt.Sprintf("⚠️ La confirmación forzada se abre recién %s antes del scrim.", domain.ForceConfirmWindow)
	case errors.Is(err, domain.ErrNoHomeChannel):
		return "⚠️ El equipo local no tiene canal de texto configurado."
	case errors.Is(err, domain.ErrScrimNotFound):
		return "⚠️ No encontré ese scrim. ¿Seguro que el id es correcto?"
	case errors.Is(err, domain.ErrTeamNotFound):
		return "⚠️ No encontré ese equipo."
	default:
		return "⚠️ Algo salió mal: " + err.Error()
	}
}

func scrimInfoEmbed(v service.PanelView) *discordgo.MessageEmbed {
	sc := v.Scrim

	status := map[domain.ScrimStatus]string{
		domain.StatusPendingHost: "⏳ Esperando al equipo local",
		domain.StatusPendingAway: "⏳ Esperando al equipo visitante",
		domain.StatusScheduled:   "✅ Agendado",
	}[sc.Status]

	fields := []*discordgo.MessageEmbedField{
		{Name: "Estado", Value: status},
		{Name: "Cuándo", Value: fmtWhen(sc.ScheduledFor)},
		{Name: fmt.Sprintf("%s (%d/%d)", v.Home.Name, len(sc.HomeVoterIDs), sc.PerTeam), Value: mentions(sc.HomeVoterIDs, "sin votos")},
		{Name: fmt.Sprintf("%s (%d/%d)", v.Away.Name, len(sc.AwayVoterIDs), sc.PerTeam), Value: mentions(sc.AwayVoterIDs, "sin votos")},
	}
	if sc.AwayConfirmAnywaysMessageID != nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Confirmación forzada",
			Value: mentions(sc.AwayConfirmAnywaysVoterIDs, "sin votos"),
		})
	}
	if sc.ScrimChatID != nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Canal", Value: "<#" + *sc.ScrimChatID + ">"})
	}

	return &discordgo.MessageEmbed{
		Title:  fmt.Sprintf("Scrim #%d — %s vs %s", sc.ID, v.Home.Name, v.Away.Name),
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{Text: "Creado por el directorio de scrims"},
	}
}

func teamInfoEmbed(t storage.Team) *discordgo.MessageEmbed {
	channel := "—"
	if t.TextChannelID != nil {
		channel = "<#" + *t.TextChannelID + ">"
	}
	captains := mentions(t.CaptainIDs(), "—")

	return &discordgo.MessageEmbed{
		Title: "Equipo " + t.Name,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Canal", Value: channel},
			{Name: "Capitanes", Value: captains},
			{Name: fmt.Sprintf("Miembros (%d)", len(t.Members)), Value: mentions(t.MemberIDs(), "sin miembros")},
		},
	}
}
