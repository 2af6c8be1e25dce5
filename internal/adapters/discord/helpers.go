package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// fmtWhen renderiza una fecha como timestamp nativo de Discord:
// absoluto + relativo, en la zona del que lo mira.
func fmtWhen(t time.Time) string {
	return fmt.Sprintf("<t:%d:F> (<t:%d:R>)", t.Unix(), t.Unix())
}

// mentions arma la lista "<@id>, <@id>" o un fallback si está vacía.
func mentions(ids []string, empty string) string {
	if len(ids) == 0 {
		return empty
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, "<@"+id+">")
	}
	return strings.Join(out, ", ")
}

// parseWhen acepta "2006-01-02 15:04" en la zona configurada del bot.
func parseWhen(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida %q (formato: 2006-01-02 15:04)", raw)
	}
	return t, nil
}

// optMap indexa las opciones de un subcomando por nombre.
func optMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	out := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		out[o.Name] = o
	}
	return out
}

func everyoneMentions() *discordgo.MessageAllowedMentions {
	return &discordgo.MessageAllowedMentions{
		Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeEveryone, discordgo.AllowedMentionTypeUsers},
	}
}
