package config

import (
	"log"
	"os"
	"strings"
)

type Config struct {
	DatabaseURL  string
	DiscordToken string
	DiscordGuild string

	// Roles que pueden usar los comandos /scrim force-* y /team (csv de ids).
	AdminRoleIDs []string

	// Zona horaria para parsear fechas de /scrim create (default UTC).
	Timezone string
}

func Load() Config {
	get := func(k string, req bool) string {
		v := os.Getenv(k)
		if v == "" && req {
			log.Fatalf("faltante env %s", k)
		}
		return v
	}

	cfg := Config{
		DatabaseURL:  get("DATABASE_URL", true),
		DiscordToken: get("DISCORD_BOT_TOKEN", true),
		DiscordGuild: get("DISCORD_GUILD_ID", true),
		Timezone:     get("SCRIM_TIMEZONE", false),
	}
	if raw := get("ADMIN_ROLE_IDS", false); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.AdminRoleIDs = append(cfg.AdminRoleIDs, id)
			}
		}
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	return cfg
}
