package discord

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/scrim-bot/internal/domain"
)

func (r *Router) handleMessageComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	data := ic.MessageComponentData()

	panel, scrimID, action, ok := parseCustomID(data.CustomID)
	if !ok {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("panic in component %s: %v", data.CustomID, rec)
			ReplyEphemeral(s, ic, "❌ Ocurrió un error inesperado.")
		}
	}()

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	uid := ic.Member.User.ID
	if !r.clicks.Allow(fmt.Sprintf("%s:%d", uid, scrimID)) {
		ReplyEphemeral(s, ic, "⏳ Esperá un segundo…")
		return
	}

	// La membresía se valida acá: los services asumen que el voto viene de
	// alguien del equipo correcto.
	v, err := r.scrims.Info(ctx, ic.GuildID, scrimID)
	if err != nil {
		ReplyEphemeral(s, ic, r.errMsg(err))
		return
	}

	switch panel {
	case panelHome:
		if !v.Home.HasMember(uid) {
			ReplyEphemeral(s, ic, "⚠️ Esta votación es del equipo **"+v.Home.Name+"** y no eres parte.")
			return
		}
		switch action {
		case actionConfirm:
			sc, err := r.confirm.VoteHome(ctx, ic.GuildID, scrimID, uid)
			if err != nil {
				ReplyEphemeral(s, ic, r.errMsg(err))
				return
			}
			ReplyEphemeral(s, ic, fmt.Sprintf("✅ Voto contado (%d/%d).", len(sc.HomeVoterIDs), sc.PerTeam))
		case actionUnconfirm:
			sc, err := r.confirm.UnvoteHome(ctx, ic.GuildID, scrimID, uid)
			if err != nil {
				ReplyEphemeral(s, ic, r.errMsg(err))
				return
			}
			ReplyEphemeral(s, ic, fmt.Sprintf("✅ Voto retirado (%d/%d).", len(sc.HomeVoterIDs), sc.PerTeam))
		}

	case panelAway:
		if !v.Away.HasMember(uid) {
			ReplyEphemeral(s, ic, "⚠️ Esta votación es del equipo **"+v.Away.Name+"** y no eres parte.")
			return
		}
		switch action {
		case actionConfirm:
			sc, err := r.confirm.VoteAway(ctx, ic.GuildID, scrimID, uid)
			if err != nil {
				ReplyEphemeral(s, ic, r.errMsg(err))
				return
			}
			ReplyEphemeral(s, ic, fmt.Sprintf("✅ Voto contado (%d/%d).", len(sc.AwayVoterIDs), sc.PerTeam))
		case actionUnconfirm:
			sc, err := r.confirm.UnvoteAway(ctx, ic.GuildID, scrimID, uid)
			if err != nil {
				ReplyEphemeral(s, ic, r.errMsg(err))
				return
			}
			ReplyEphemeral(s, ic, fmt.Sprintf("✅ Voto retirado (%d/%d).", len(sc.AwayVoterIDs), sc.PerTeam))
		case actionForce:
			if _, err := r.confirm.OpenForceConfirm(ctx, ic.GuildID, scrimID); err != nil {
				ReplyEphemeral(s, ic, r.errMsg(err))
				return
			}
			ReplyEphemeral(s, ic, "✅ Abrí la votación forzada en el canal del equipo.")
		}

	case panelForce:
		if !v.Away.HasMember(uid) {
			ReplyEphemeral(s, ic, "⚠️ Esta votación es del equipo **"+v.Away.Name+"** y no eres parte.")
			return
		}
		if action != actionConfirm {
			return
		}
		sc, err := r.confirm.VoteForceConfirm(ctx, ic.GuildID, scrimID, uid)
		if err != nil {
			ReplyEphemeral(s, ic, r.errMsg(err))
			return
		}
		if sc.ForceConfirmPassed() {
			ReplyEphemeral(s, ic, "✅ Voto contado. ¡La confirmación forzada pasó, scrim agendado!")
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Voto contado (%d de %d necesarios).",
			len(sc.AwayConfirmAnywaysVoterIDs), domain.ForceConfirmThreshold(sc.PerTeam)))
	}
}
