package discord

import "github.com/bwmarrin/discordgo"

func minOne() *float64 { v := 1.0; return &v }

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "scrim",
		Description: "Agenda y administra scrims entre equipos",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Propone un scrim entre dos equipos",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "home", Description: "Equipo local (por nombre)", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "away", Description: "Equipo visitante (por nombre)", Required: true},
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "per_team", Description: "Jugadores por equipo", Required: true, MinValue: minOne()},
					{Type: discordgo.ApplicationCommandOptionString, Name: "when", Description: "Fecha y hora (2006-01-02 15:04)", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "cancel",
				Description: "Cancela un scrim (creador o admin)",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Id del scrim", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Motivo"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reschedule",
				Description: "Mueve un scrim a otra fecha (creador o admin)",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Id del scrim", Required: true},
					{Type: discordgo.ApplicationCommandOptionString, Name: "when", Description: "Nueva fecha (2006-01-02 15:04)", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "info",
				Description: "Muestra el estado de un scrim",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Id del scrim", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "Lista los scrims vivos del servidor",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "force-add-vote",
				Description: "Admin: vota en nombre de un miembro",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Id del scrim", Required: true},
					{
						Type: discordgo.ApplicationCommandOptionString, Name: "side", Description: "Lado del voto", Required: true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "local", Value: "home"},
							{Name: "visitante", Value: "away"},
						},
					},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Miembro", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "force-remove-vote",
				Description: "Admin: retira el voto de un miembro",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Id del scrim", Required: true},
					{
						Type: discordgo.ApplicationCommandOptionString, Name: "side", Description: "Lado del voto", Required: true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "local", Value: "home"},
							{Name: "visitante", Value: "away"},
						},
					},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Miembro", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "force-schedule",
				Description: "Admin: agenda el scrim sin esperar los votos",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "Id del scrim", Required: true},
				},
			},
		},
	},
	{
		Name:        "team",
		Description: "Administra el directorio de equipos (admins)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Crea un equipo",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Nombre del equipo", Required: true},
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "text_channel", Description: "Canal de texto del equipo"},
					{Type: discordgo.ApplicationCommandOptionChannel, Name: "category", Description: "Categoría del equipo"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add-member",
				Description: "Suma un miembro a un equipo",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "team", Description: "Nombre del equipo", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Miembro", Required: true},
					{Type: discordgo.ApplicationCommandOptionBoolean, Name: "captain", Description: "¿Es capitán?"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove-member",
				Description: "Saca un miembro de un equipo",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "team", Description: "Nombre del equipo", Required: true},
					{Type: discordgo.ApplicationCommandOptionUser, Name: "member", Description: "Miembro", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Borra un equipo del directorio",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "team", Description: "Nombre del equipo", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "info",
				Description: "Muestra un equipo y su roster",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "team", Description: "Nombre del equipo", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "Lista los equipos del servidor",
			},
		},
	},
}
