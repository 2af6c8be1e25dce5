// Janitor: limpieza periódica de la DB (corre como Lambda agendada).
// El bot es el dueño del ciclo de vida normal; esto sólo barre lo que
// quedó huérfano tras caídas o borrados a mano.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
)

func handler(ctx context.Context) (string, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return "no DATABASE_URL", nil
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Sprintf("parse: %v", err), nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Sprintf("pool: %v", err), nil
	}
	defer pool.Close()

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Timers de scrim cuya fila ya no existe: quedan si el bot murió entre
	// borrar el scrim y cancelar sus timers.
	_, _ = pool.Exec(cctx, `
DELETE FROM timers t
WHERE t.event IN ('scrim_scheduled','scrim_reminder','scrim_delete')
  AND NOT EXISTS (
    SELECT 1 FROM teams.scrims s
    WHERE s.id = (t.payload->>'scrim_id')::BIGINT
  );`)

	// Scrims que nunca llegaron a agendarse y cuya fecha pasó hace una
	// semana: nadie los va a confirmar ya.
	_, _ = pool.Exec(cctx, `
DELETE FROM teams.scrims
WHERE status <> 'scheduled'
  AND scheduled_for < now() - INTERVAL '7 days';`)

	// Scrims agendados cuyo canal ya venció hace días y que quedaron sin
	// timer de borrado (falló el schedule en su momento).
	_, _ = pool.Exec(cctx, `
DELETE FROM teams.scrims
WHERE status = 'scheduled'
  AND scrim_delete_timer_id IS NULL
  AND scheduled_for < now() - INTERVAL '7 days';`)

	return "ok", nil
}

func main() { lambda.Start(handler) }
