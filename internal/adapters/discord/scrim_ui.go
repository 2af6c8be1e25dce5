package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/scrim-bot/internal/app/service"
	"github.com/jose-valero/scrim-bot/internal/domain"
	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

// ScrimUI implementa service.Panels: publica y edita los tres paneles del
// flujo (local, visitante, force-confirm) en los canales de cada equipo.
type ScrimUI struct {
	s *discordgo.Session
}

func NewScrimUI(s *discordgo.Session) *ScrimUI { return &ScrimUI{s: s} }

var _ service.Panels = (*ScrimUI)(nil)

// ---------- publish ----------

func (u *ScrimUI) PublishHome(ctx context.Context, v service.PanelView) (string, error) {
	ch, ok := channelOf(v.Home)
	if !ok {
		return "", domain.ErrNoHomeChannel
	}
	msg, err := u.s.ChannelMessageSendComplex(ch, &discordgo.MessageSend{
		Content:         "@everyone",
		Embeds:          []*discordgo.MessageEmbed{u.renderHome(v)},
		Components:      u.homeComponents(v),
		AllowedMentions: everyoneMentions(),
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (u *ScrimUI) PublishAway(ctx context.Context, v service.PanelView) (string, error) {
	ch, ok := channelOf(v.Away)
	if !ok {
		return "", domain.ErrNoHomeChannel
	}
	msg, err := u.s.ChannelMessageSendComplex(ch, &discordgo.MessageSend{
		Content:         "@everyone",
		Embeds:          []*discordgo.MessageEmbed{u.renderAway(v)},
		Components:      u.awayComponents(v),
		AllowedMentions: everyoneMentions(),
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (u *ScrimUI) PublishForceConfirm(ctx context.Context, v service.PanelView) (string, error) {
	ch, ok := channelOf(v.Away)
	if !ok {
		return "", domain.ErrNoHomeChannel
	}
	msg, err := u.s.ChannelMessageSendComplex(ch, &discordgo.MessageSend{
		Content:         "@everyone",
		Embeds:          []*discordgo.MessageEmbed{u.renderForce(v)},
		Components:      u.forceComponents(v),
		AllowedMentions: everyoneMentions(),
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// ---------- refresh ----------

func (u *ScrimUI) RefreshHome(ctx context.Context, v service.PanelView) error {
	ch, ok := channelOf(v.Home)
	if !ok {
		return domain.ErrNoHomeChannel
	}
	return u.edit(ch, v.Scrim.HomeMessageID, u.renderHome(v), u.homeComponents(v))
}

func (u *ScrimUI) RefreshAway(ctx context.Context, v service.PanelView) error {
	if v.Scrim.AwayMessageID == nil {
		return nil
	}
	ch, ok := channelOf(v.Away)
	if !ok {
		return domain.ErrNoHomeChannel
	}
	return u.edit(ch, *v.Scrim.AwayMessageID, u.renderAway(v), u.awayComponents(v))
}

func (u *ScrimUI) RefreshForceConfirm(ctx context.Context, v service.PanelView) error {
	if v.Scrim.AwayConfirmAnywaysMessageID == nil {
		return nil
	}
	ch, ok := channelOf(v.Away)
	if !ok {
		return domain.ErrNoHomeChannel
	}
	return u.edit(ch, *v.Scrim.AwayConfirmAnywaysMessageID, u.renderForce(v), u.forceComponents(v))
}

// ---------- anuncios ----------

func (u *ScrimUI) AnnounceCancelled(ctx context.Context, v service.PanelView, reason string) {
	embed := &discordgo.MessageEmbed{
		Title:       "Scrim cancelado",
		Description: fmt.Sprintf("El scrim agendado para %s fue cancelado.", fmtWhen(v.Scrim.ScheduledFor)),
		Footer:      &discordgo.MessageEmbedFooter{Text: "Este scrim fue cancelado."},
	}
	content := "@everyone, este scrim fue cancelado. " + reason

	if ch, ok := channelOf(v.Home); ok && v.Scrim.HomeMessageID != "" {
		if err := u.edit(ch, v.Scrim.HomeMessageID, embed, nil); err != nil {
			log.Printf("[ui] cancel edit home scrim=%d: %v", v.Scrim.ID, err)
		} else {
			u.reply(ch, v.Scrim.HomeMessageID, content)
		}
	}
	if ch, ok := channelOf(v.Away); ok && v.Scrim.AwayMessageID != nil {
		if err := u.edit(ch, *v.Scrim.AwayMessageID, embed, nil); err != nil {
			log.Printf("[ui] cancel edit away scrim=%d: %v", v.Scrim.ID, err)
		} else {
			u.reply(ch, *v.Scrim.AwayMessageID, content)
		}
	}
}

func (u *ScrimUI) AnnounceNotStarted(ctx context.Context, v service.PanelView) error {
	sc := v.Scrim
	embed := &discordgo.MessageEmbed{
		Title: "Este scrim no arrancó",
		Description: fmt.Sprintf(
			"No hubo votos suficientes para arrancar el scrim.\n\n"+
				"**Votos que faltaban de %s**: %d\n**Votos que faltaban de %s**: %d",
			v.Home.Name, sc.PerTeam-len(sc.HomeVoterIDs),
			v.Away.Name, sc.PerTeam-len(sc.AwayVoterIDs),
		),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Votos de " + v.Home.Name, Value: mentions(sc.HomeVoterIDs, "Nadie votó.")},
			{Name: "Votos de " + v.Away.Name, Value: mentions(sc.AwayVoterIDs, "Nadie votó.")},
		},
	}

	ch, ok := channelOf(v.Home)
	if !ok {
		return domain.ErrNoHomeChannel
	}
	if err := u.edit(ch, sc.HomeMessageID, embed, nil); err != nil {
		return err
	}
	u.reply(ch, sc.HomeMessageID, "@everyone, este scrim no arrancó.")

	if awayCh, ok := channelOf(v.Away); ok && sc.AwayMessageID != nil {
		if err := u.edit(awayCh, *sc.AwayMessageID, embed, nil); err != nil {
			log.Printf("[ui] not-started edit away scrim=%d: %v", sc.ID, err)
		} else {
			u.reply(awayCh, *sc.AwayMessageID, "@everyone, este scrim no arrancó.")
		}
	}
	return nil
}

func (u *ScrimUI) AnnounceReminder(ctx context.Context, v service.PanelView) error {
	sc := v.Scrim

	var content string
	switch sc.Status {
	case domain.StatusScheduled:
		content = fmt.Sprintf("@everyone, el scrim arranca el %s. Estén listos: a esa hora se crea el canal del match.", fmtWhen(sc.ScheduledFor))
	case domain.StatusPendingAway:
		content = fmt.Sprintf("@everyone, el scrim arranca el %s y todavía faltan %d voto(s) de %s.",
			fmtWhen(sc.ScheduledFor), sc.PerTeam-len(sc.AwayVoterIDs), v.Away.Name)
	default:
		content = fmt.Sprintf("@everyone, el scrim arranca el %s y este equipo no juntó los votos. "+
			"**Voy a cancelarlo: es muy difícil que el otro equipo confirme a tiempo.**", fmtWhen(sc.ScheduledFor))
	}

	ch, ok := channelOf(v.Home)
	if !ok {
		return domain.ErrNoHomeChannel
	}
	if err := u.replyStrict(ch, sc.HomeMessageID, content); err != nil {
		return err
	}
	if sc.Status != domain.StatusPendingHost {
		if awayCh, ok := channelOf(v.Away); ok && sc.AwayMessageID != nil {
			u.reply(awayCh, *sc.AwayMessageID, content)
		}
	}
	return nil
}

func (u *ScrimUI) DeleteForceConfirmPrompt(ctx context.Context, v service.PanelView) {
	if v.Scrim.AwayConfirmAnywaysMessageID == nil {
		return
	}
	ch, ok := channelOf(v.Away)
	if !ok {
		return
	}
	if err := u.s.ChannelMessageDelete(ch, *v.Scrim.AwayConfirmAnywaysMessageID); err != nil {
		log.Printf("[ui] delete force prompt scrim=%d: %v", v.Scrim.ID, err)
	}
}

// ---------- embeds ----------

func (u *ScrimUI) renderHome(v service.PanelView) *discordgo.MessageEmbed {
	sc := v.Scrim
	switch sc.Status {
	case domain.StatusPendingHost:
		return &discordgo.MessageEmbed{
			Title: "Confirmen el scrim",
			Description: fmt.Sprintf("Usá el botón **Confirmar** si querés jugar el scrim agendado para %s contra **%s**.",
				fmtWhen(sc.ScheduledFor), v.Away.Name),
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Confirmados", Value: mentions(sc.HomeVoterIDs, "Nadie confirmó todavía.")},
				{Name: "Votos que faltan", Value: fmt.Sprintf("Faltan **%d voto(s)** para que este equipo confirme.", sc.PerTeam-len(sc.HomeVoterIDs))},
			},
		}
	case domain.StatusPendingAway:
		return &discordgo.MessageEmbed{
			Title: fmt.Sprintf("Esperando la confirmación de %s", v.Away.Name),
			Description: fmt.Sprintf("Este equipo ya confirmó. Ahora le toca a **%s**: faltan **%d voto(s)** del rival para agendar el scrim.",
				v.Away.Name, sc.PerTeam-len(sc.AwayVoterIDs)),
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Fecha del scrim", Value: fmtWhen(sc.ScheduledFor)},
				{Name: "Confirmados", Value: mentions(sc.HomeVoterIDs, "Nadie confirmó todavía.")},
				{Name: "Confirmados del rival", Value: mentions(sc.AwayVoterIDs, "Nadie del rival confirmó todavía.")},
			},
		}
	default:
		return u.scheduledEmbed(v, fmt.Sprintf("El scrim del %s contra **%s** quedó agendado.", fmtWhen(sc.ScheduledFor), v.Away.Name),
			sc.HomeVoterIDs, sc.AwayVoterIDs)
	}
}

func (u *ScrimUI) renderAway(v service.PanelView) *discordgo.MessageEmbed {
	sc := v.Scrim
	if sc.Status == domain.StatusPendingAway {
		return &discordgo.MessageEmbed{
			Title: "¡Scrim a la vista!",
			Description: fmt.Sprintf("**%s** quiere jugarles un scrim el %s. ¿Se prenden? Apretá **Confirmar**. Faltan **%d voto(s)** para confirmarlo.",
				v.Home.Name, fmtWhen(sc.ScheduledFor), sc.PerTeam-len(sc.AwayVoterIDs)),
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Confirmados", Value: mentions(sc.AwayVoterIDs, "Nadie todavía.")},
				{Name: "Equipo rival", Value: mentions(sc.HomeVoterIDs, "—")},
			},
		}
	}
	return u.scheduledEmbed(v, fmt.Sprintf("El scrim contra **%s** quedó confirmado para %s.", v.Home.Name, fmtWhen(sc.ScheduledFor)),
		sc.AwayVoterIDs, sc.HomeVoterIDs)
}

func (u *ScrimUI) scheduledEmbed(v service.PanelView, desc string, ownVoters, otherVoters []string) *discordgo.MessageEmbed {
	sc := v.Scrim
	embed := &discordgo.MessageEmbed{
		Title:       "Scrim agendado",
		Description: desc,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "¿Cómo se juega?",
				Value: fmt.Sprintf("A la hora del scrim el bot crea un canal para que ambos equipos coordinen. Ahí **%s** arma el lobby privado "+
					"para que entre **%s**. El canal se borra solo a las 4 horas.", v.Home.Name, v.Away.Name),
			},
			{Name: "Confirmados", Value: mentions(ownVoters, "—")},
			{Name: "Confirmados del rival", Value: mentions(otherVoters, "—")},
		},
	}
	if sc.AwayConfirmAnywaysMessageID != nil && sc.ForceConfirmPassed() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "¿Arrancado a la fuerza?",
			Value: "El scrim fue confirmado a la fuerza por: " + mentions(sc.AwayConfirmAnywaysVoterIDs, "—"),
		})
	}
	return embed
}

func (u *ScrimUI) renderForce(v service.PanelView) *discordgo.MessageEmbed {
	sc := v.Scrim
	required := domain.ForceConfirmThreshold(sc.PerTeam)

	if sc.ForceConfirmPassed() {
		return &discordgo.MessageEmbed{
			Title:       "Force-confirm aprobado",
			Description: fmt.Sprintf("Se juntaron los votos para confirmar a la fuerza. El scrim arranca el %s.", fmtWhen(sc.ScheduledFor)),
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Votaron confirmar a la fuerza", Value: mentions(sc.AwayConfirmAnywaysVoterIDs, "—")},
			},
		}
	}
	return &discordgo.MessageEmbed{
		Title: "Votación: confirmar a la fuerza",
		Description: fmt.Sprintf("Alguien del equipo quiere confirmar el scrim sin equipo completo. Si votan **%d miembros**, el scrim se agenda igual.",
			required),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Votos que faltan", Value: fmt.Sprintf("Faltan **%d voto(s)** para aprobar.", required-len(sc.AwayConfirmAnywaysVoterIDs))},
			{Name: "Votaron confirmar a la fuerza", Value: mentions(sc.AwayConfirmAnywaysVoterIDs, "Nadie todavía.")},
		},
	}
}

// ---------- componentes ----------

func (u *ScrimUI) homeComponents(v service.PanelView) []discordgo.MessageComponent {
	if v.Scrim.Status != domain.StatusPendingHost {
		return nil
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{Style: discordgo.SuccessButton, Label: "Confirmar", CustomID: customID(panelHome, v.Scrim.ID, actionConfirm)},
			discordgo.Button{Style: discordgo.SecondaryButton, Label: "Retirar voto", CustomID: customID(panelHome, v.Scrim.ID, actionUnconfirm)},
		},
	}}
}

func (u *ScrimUI) awayComponents(v service.PanelView) []discordgo.MessageComponent {
	if v.Scrim.Status != domain.StatusPendingAway {
		return nil
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{Style: discordgo.SuccessButton, Label: "Confirmar", CustomID: customID(panelAway, v.Scrim.ID, actionConfirm)},
			discordgo.Button{Style: discordgo.SecondaryButton, Label: "Confirmar a la fuerza", CustomID: customID(panelAway, v.Scrim.ID, actionForce)},
			discordgo.Button{Style: discordgo.SecondaryButton, Label: "Retirar voto", CustomID: customID(panelAway, v.Scrim.ID, actionUnconfirm)},
		},
	}}
}

func (u *ScrimUI) forceComponents(v service.PanelView) []discordgo.MessageComponent {
	if v.Scrim.ForceConfirmPassed() {
		return nil
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{Style: discordgo.SuccessButton, Label: "Confirmar a la fuerza", CustomID: customID(panelForce, v.Scrim.ID, actionConfirm)},
		},
	}}
}

// ---------- plumbing ----------

func channelOf(t storage.Team) (string, bool) {
	if t.TextChannelID == nil || *t.TextChannelID == "" {
		return "", false
	}
	return *t.TextChannelID, true
}

func (u *ScrimUI) edit(channelID, messageID string, embed *discordgo.MessageEmbed, comps []discordgo.MessageComponent) error {
	if comps == nil {
		comps = []discordgo.MessageComponent{}
	}
	embeds := []*discordgo.MessageEmbed{embed}
	empty := ""
	_, err := u.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Content:    &empty,
		Embeds:     &embeds,
		Components: &comps,
	})
	return classifyMessageErr(err)
}

// reply best-effort: responde citando el panel, con @everyone habilitado.
func (u *ScrimUI) reply(channelID, messageID, content string) {
	if err := u.replyStrict(channelID, messageID, content); err != nil {
		log.Printf("[ui] reply channel=%s msg=%s: %v", channelID, messageID, err)
	}
}

func (u *ScrimUI) replyStrict(channelID, messageID, content string) error {
	_, err := u.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: everyoneMentions(),
		Reference: &discordgo.MessageReference{
			ChannelID: channelID,
			MessageID: messageID,
		},
	})
	return classifyMessageErr(err)
}
