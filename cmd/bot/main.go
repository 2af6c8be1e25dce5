package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	discordrouter "github.com/jose-valero/scrim-bot/internal/adapters/discord"
	"github.com/jose-valero/scrim-bot/internal/app/service"
	"github.com/jose-valero/scrim-bot/internal/infra/config"
	"github.com/jose-valero/scrim-bot/internal/infra/storage"
	"github.com/jose-valero/scrim-bot/internal/infra/timers"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("zona horaria %q: %v", cfg.Timezone, err)
	}

	// DB
	db, err := storage.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}
	log.Println("✅ DB lista y migrada")

	// Repos
	scrimsRepo := storage.NewScrimsRepo(db)
	teamsRepo := storage.NewTeamsRepo(db)
	timersRepo := storage.NewTimersRepo(db)

	// Discord session (antes de los services, que publican paneles)
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(auth)), "bot ") {
		auth = "Bot " + strings.TrimSpace(auth)
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	log.Printf("✅ Conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

	// Registry en memoria: se precarga con lo que haya en la DB, después es
	// write-through desde los services.
	reg := service.NewRegistry()
	all, err := scrimsRepo.ListAll(context.Background())
	if err != nil {
		log.Fatal("cargando scrims:", err)
	}
	reg.Load(all)
	log.Printf("✅ registry con %d scrims vivos", len(all))

	// Timer manager durable
	zl := zerolog.New(os.Stdout).With().Timestamp().Str("comp", "timers").Logger()
	tm := timers.New(timersRepo, clockwork.NewRealClock(), zl)

	// Services
	ui := discordrouter.NewScrimUI(s)
	rooms := discordrouter.NewChannelManager(s)
	scrimSvc := service.NewScrimService(scrimsRepo, teamsRepo, tm, ui, rooms, reg, clockwork.NewRealClock())
	confirmSvc := service.NewConfirmService(scrimSvc)
	teamSvc := service.NewTeamService(teamsRepo)

	service.NewEventService(scrimSvc).Register(tm)

	runCtx, stopTimers := context.WithCancel(context.Background())
	defer stopTimers()
	go func() {
		if err := tm.Run(runCtx); err != nil && runCtx.Err() == nil {
			log.Fatalf("timer manager: %v", err)
		}
	}()

	// Router
	r := discordrouter.NewRouter(s, cfg.DiscordGuild, cfg.AdminRoleIDs, loc, scrimSvc, confirmSvc, teamSvc)
	if err := r.Register(); err != nil {
		log.Fatalf("registrando comandos: %v", err)
	}
	r.Handlers()
	log.Printf("✅ comandos registrados en guild %s", cfg.DiscordGuild)

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop
}
