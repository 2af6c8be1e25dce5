package discord

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/scrim-bot/internal/app/service"
	"github.com/jose-valero/scrim-bot/internal/domain"
)

// ChannelManager implementa service.ChannelManager: el canal privado del
// match bajo la categoría del equipo local, visible sólo para los jugadores.
type ChannelManager struct {
	s *discordgo.Session
}

func NewChannelManager(s *discordgo.Session) *ChannelManager { return &ChannelManager{s: s} }

var _ service.ChannelManager = (*ChannelManager)(nil)

func (m *ChannelManager) CreateMatchChannel(ctx context.Context, v service.PanelView) (string, error) {
	if v.Home.CategoryID == nil || *v.Home.CategoryID == "" {
		return "", errors.New("el equipo local no tiene categoría")
	}

	// oculto para @everyone, visible para los miembros de ambos equipos
	overwrites := []*discordgo.PermissionOverwrite{{
		ID:   v.Scrim.GuildID, // el rol @everyone comparte id con el guild
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: discordgo.PermissionViewChannel,
	}}
	seen := map[string]bool{}
	for _, id := range append(v.Home.MemberIDs(), v.Away.MemberIDs()...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel,
		})
	}

	ch, err := m.s.GuildChannelCreateComplex(v.Scrim.GuildID, discordgo.GuildChannelCreateData{
		Name:                 "scrim-chat",
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("Scrim %s vs %s", v.Home.Name, v.Away.Name),
		ParentID:             *v.Home.CategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", fmt.Errorf("creando canal del scrim: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s vs %s", v.Home.Name, v.Away.Name),
		Description: fmt.Sprintf("Scrim confirmado para %s. Coordinen el lobby por acá.", fmtWhen(v.Scrim.ScheduledFor)),
		Fields: []*discordgo.MessageEmbedField{
			{Name: v.Home.Name, Value: mentions(v.Scrim.HomeVoterIDs, "—")},
			{Name: v.Away.Name, Value: mentions(v.Scrim.AwayVoterIDs, "—")},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Este canal se borra solo en %s.", domain.MatchChannelTTL),
		},
	}
	if _, err := m.s.ChannelMessageSendEmbed(ch.ID, embed); err != nil {
		log.Printf("[channels] kickoff embed scrim=%d: %v", v.Scrim.ID, err)
	}

	return ch.ID, nil
}

func (m *ChannelManager) DeleteChannel(ctx context.Context, channelID string) {
	if _, err := m.s.ChannelDelete(channelID); err != nil {
		log.Printf("[channels] delete channel=%s: %v", channelID, err)
	}
}
