package service

import (
	"context"
	"errors"
	"log"

	"github.com/jose-valero/scrim-bot/internal/domain"
	"github.com/jose-valero/scrim-bot/internal/infra/storage"
)

// ConfirmService maneja el flujo de confirmación de dos fases:
// pending_host -> (quorum local) -> pending_away -> (quorum visitante o
// force-confirm con medio quorum) -> scheduled. Toda mutación corre bajo
// el lock por-scrim del registry.
type ConfirmService struct {
	s *ScrimService
}

func NewConfirmService(s *ScrimService) *ConfirmService {
	return &ConfirmService{s: s}
}

// VoteHome registra el voto de un miembro del equipo local. Si con este
// voto se llega al quorum, el scrim pasa a pending_away y se publica el
// panel del visitante.
func (c *ConfirmService) VoteHome(ctx context.Context, guildID string, scrimID int64, memberID string) (storage.Scrim, error) {
	unlock := c.s.reg.Lock(guildID, scrimID)
	defer unlock()

	sc, err := c.s.scrims.Get(ctx, scrimID, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}
	if sc.Status != domain.StatusPendingHost {
		if sc.VotedOn(domain.SideHome, memberID) {
			return sc, domain.ErrDuplicateVote
		}
		return sc, domain.ErrQuorumReached
	}

	if err := c.s.scrims.AddVote(ctx, scrimID, domain.SideHome, memberID); err != nil {
		return sc, err
	}
	sc.HomeVoterIDs = append(sc.HomeVoterIDs, memberID)

	if !sc.HomeQuorum() {
		c.refresh(ctx, sc, refreshHome)
		c.s.reg.Put(sc)
		return sc, nil
	}

	// quorum local completo: pasamos la pelota al visitante
	if err := c.s.setStatusLocked(ctx, &sc, domain.StatusPendingAway); err != nil {
		return sc, err
	}

	v, err := c.s.view(ctx, sc)
	if err != nil {
		if cerr := c.s.cancelLocked(ctx, sc, "Uno de los equipos fue borrado."); cerr != nil {
			log.Printf("[confirm] cancel scrim=%d: %v", scrimID, cerr)
		}
		return sc, err
	}
	if err := c.s.panels.RefreshHome(ctx, v); err != nil {
		log.Printf("[confirm] refresh home scrim=%d: %v", scrimID, err)
	}

	msgID, err := c.s.panels.PublishAway(ctx, v)
	if err != nil {
		// sin canal del visitante el scrim no puede seguir
		if cerr := c.s.cancelLocked(ctx, sc, "El canal del equipo visitante fue borrado."); cerr != nil {
			log.Printf("[confirm] cancel scrim=%d: %v", scrimID, cerr)
		}
		return sc, err
	}
	sc.AwayMessageID = &msgID
	if err := c.s.scrims.Patch(ctx, scrimID, storage.ScrimPatch{AwayMessageID: &msgID}); err != nil {
		return sc, err
	}

	c.s.reg.Put(sc)
	return sc, nil
}

// UnvoteHome retira un voto local. Una vez que el equipo confirmó
// (pending_away en adelante) ya no se puede retirar.
func (c *ConfirmService) UnvoteHome(ctx context.Context, guildID string, scrimID int64, memberID string) (storage.Scrim, error) {
	unlock := c.s.reg.Lock(guildID, scrimID)
	defer unlock()

	sc, err := c.s.scrims.Get(ctx, scrimID, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}
	if sc.Status != domain.StatusPendingHost {
		return sc, domain.ErrQuorumReached
	}

	if err := c.s.scrims.RemoveVote(ctx, scrimID, domain.SideHome, memberID); err != nil {
		return sc, err
	}
	sc.HomeVoterIDs = removeID(sc.HomeVoterIDs, memberID)

	c.refresh(ctx, sc, refreshHome)
	c.s.reg.Put(sc)
	return sc, nil
}

// VoteAway registra el voto de un miembro del visitante. Con quorum
// completo el scrim queda scheduled y ambos paneles se cierran.
func (c *ConfirmService) VoteAway(ctx context.Context, guildID string, scrimID int64, memberID string) (storage.Scrim, error) {
	unlock := c.s.reg.Lock(guildID, scrimID)
	defer unlock()

	sc, err := c.s.scrims.Get(ctx, scrimID, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}
	if sc.Status != domain.StatusPendingAway {
		if sc.VotedOn(domain.SideAway, memberID) {
			return sc, domain.ErrDuplicateVote
		}
		return sc, domain.ErrQuorumReached
	}

	if err := c.s.scrims.AddVote(ctx, scrimID, domain.SideAway, memberID); err != nil {
		return sc, err
	}
	sc.AwayVoterIDs = append(sc.AwayVoterIDs, memberID)

	if sc.AwayQuorum() {
		if err := c.s.setStatusLocked(ctx, &sc, domain.StatusScheduled); err != nil {
			return sc, err
		}
	}

	v, verr := c.s.view(ctx, sc)
	if verr != nil {
		if cerr := c.s.cancelLocked(ctx, sc, "Uno de los equipos fue borrado."); cerr != nil {
			log.Printf("[confirm] cancel scrim=%d: %v", scrimID, cerr)
		}
		return sc, verr
	}
	if err := c.s.panels.RefreshAway(ctx, v); err != nil {
		log.Printf("[confirm] refresh away scrim=%d: %v", scrimID, err)
	}
	if err := c.s.panels.RefreshHome(ctx, v); err != nil {
		if errors.Is(err, domain.ErrMessageGone) {
			// el panel local fue borrado a mano: el scrim quedó inválido
			if cerr := c.s.cancelLocked(ctx, sc, "El mensaje del equipo local fue borrado."); cerr != nil {
				log.Printf("[confirm] cancel scrim=%d: %v", scrimID, cerr)
			}
			return sc, err
		}
		log.Printf("[confirm] refresh home scrim=%d: %v", scrimID, err)
	}

	c.s.reg.Put(sc)
	return sc, nil
}

// UnvoteAway retira un voto del visitante mientras siga pending_away.
func (c *ConfirmService) UnvoteAway(ctx context.Context, guildID string, scrimID int64, memberID string) (storage.Scrim, error) {
	unlock := c.s.reg.Lock(guildID, scrimID)
	defer unlock()

	sc, err := c.s.scrims.Get(ctx, scrimID, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}
	if sc.Status != domain.StatusPendingAway {
		return sc, domain.ErrQuorumReached
	}

	if err := c.s.scrims.RemoveVote(ctx, scrimID, domain.SideAway, memberID); err != nil {
		return sc, err
	}
	sc.AwayVoterIDs = removeID(sc.AwayVoterIDs, memberID)

	c.refresh(ctx, sc, refreshAway)
	c.s.reg.Put(sc)
	return sc, nil
}

// OpenForceConfirm abre la votación de force-confirm del visitante:
// per_team >= 2, al menos medio quorum de votos regulares, dentro de los
// 30 minutos previos al scrim, y como mucho una votación viva por scrim.
func (c *ConfirmService) OpenForceConfirm(ctx context.Context, guildID string, scrimID int64) (storage.Scrim, error) {
	unlock := c.s.reg.Lock(guildID, scrimID)
	defer unlock()

	sc, err := c.s.scrims.Get(ctx, scrimID, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}
	if sc.Status != domain.StatusPendingAway {
		return sc, domain.ErrQuorumReached
	}

	v, err := c.s.view(ctx, sc)
	if err != nil {
		if cerr := c.s.cancelLocked(ctx, sc, "Uno de los equipos fue borrado."); cerr != nil {
			log.Printf("[confirm] cancel scrim=%d: %v", scrimID, cerr)
		}
		return sc, err
	}

	if sc.AwayConfirmAnywaysMessageID != nil {
		exists := &domain.ForceConfirmExistsError{MessageID: *sc.AwayConfirmAnywaysMessageID}
		if v.Away.TextChannelID != nil {
			exists.ChannelID = *v.Away.TextChannelID
		}
		return sc, exists
	}

	until := sc.ScheduledFor.Sub(c.s.clock.Now())
	if err := domain.CanOpenForceConfirm(sc.PerTeam, len(sc.AwayVoterIDs), until); err != nil {
		return sc, err
	}

	msgID, err := c.s.panels.PublishForceConfirm(ctx, v)
	if err != nil {
		if cerr := c.s.cancelLocked(ctx, sc, "El canal del equipo visitante fue borrado."); cerr != nil {
			log.Printf("[confirm] cancel scrim=%d: %v", scrimID, cerr)
		}
		return sc, err
	}
	sc.AwayConfirmAnywaysMessageID = &msgID
	if err := c.s.scrims.Patch(ctx, scrimID, storage.ScrimPatch{AwayConfirmAnywaysMessageID: &msgID}); err != nil {
		return sc, err
	}

	c.s.reg.Put(sc)
	return sc, nil
}

// VoteForceConfirm suma un voto a la votación de force-confirm. Al llegar
// a per_team/2 el scrim queda scheduled aunque el visitante esté incompleto.
func (c *ConfirmService) VoteForceConfirm(ctx context.Context, guildID string, scrimID int64, memberID string) (storage.Scrim, error) {
	unlock := c.s.reg.Lock(guildID, scrimID)
	defer unlock()

	sc, err := c.s.scrims.Get(ctx, scrimID, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}
	if sc.Status != domain.StatusPendingAway || sc.AwayConfirmAnywaysMessageID == nil {
		return sc, domain.ErrQuorumReached
	}

	if err := c.s.scrims.AddForceConfirmVote(ctx, scrimID, memberID); err != nil {
		return sc, err
	}
	sc.AwayConfirmAnywaysVoterIDs = append(sc.AwayConfirmAnywaysVoterIDs, memberID)

	if !sc.ForceConfirmPassed() {
		c.refresh(ctx, sc, refreshForce)
		c.s.reg.Put(sc)
		return sc, nil
	}

	// medio quorum alcanzado: el scrim arranca igual
	if err := c.s.setStatusLocked(ctx, &sc, domain.StatusScheduled); err != nil {
		return sc, err
	}

	v, verr := c.s.view(ctx, sc)
	if verr != nil {
		if cerr := c.s.cancelLocked(ctx, sc, "Uno de los equipos fue borrado."); cerr != nil {
			log.Printf("[confirm] cancel scrim=%d: %v", scrimID, cerr)
		}
		return sc, verr
	}

	c.s.panels.DeleteForceConfirmPrompt(ctx, v)

	if err := c.s.panels.RefreshHome(ctx, v); err != nil {
		if errors.Is(err, domain.ErrMessageGone) {
			if cerr := c.s.cancelLocked(ctx, sc, "El mensaje del equipo local fue borrado."); cerr != nil {
				log.Printf("[confirm] cancel scrim=%d: %v", scrimID, cerr)
			}
			return sc, err
		}
		log.Printf("[confirm] refresh home scrim=%d: %v", scrimID, err)
	}
	if err := c.s.panels.RefreshAway(ctx, v); err != nil {
		log.Printf("[confirm] refresh away scrim=%d: %v", scrimID, err)
	}

	c.s.reg.Put(sc)
	return sc, nil
}

// ---------- overrides de admin ----------

// ForceAddVote mete un voto en nombre de otro miembro. Pasa por el mismo
// camino que el voto normal, así los cambios de estado disparan igual.
func (c *ConfirmService) ForceAddVote(ctx context.Context, guildID string, scrimID int64, side domain.Side, memberID string) (storage.Scrim, error) {
	if side == domain.SideHome {
		return c.VoteHome(ctx, guildID, scrimID, memberID)
	}
	return c.VoteAway(ctx, guildID, scrimID, memberID)
}

func (c *ConfirmService) ForceRemoveVote(ctx context.Context, guildID string, scrimID int64, side domain.Side, memberID string) (storage.Scrim, error) {
	if side == domain.SideHome {
		return c.UnvoteHome(ctx, guildID, scrimID, memberID)
	}
	return c.UnvoteAway(ctx, guildID, scrimID, memberID)
}

// ForceSchedule salta directo a scheduled sin esperar los quorums.
func (c *ConfirmService) ForceSchedule(ctx context.Context, guildID string, scrimID int64) (storage.Scrim, error) {
	unlock := c.s.reg.Lock(guildID, scrimID)
	defer unlock()

	sc, err := c.s.scrims.Get(ctx, scrimID, guildID)
	if err != nil {
		return storage.Scrim{}, err
	}
	if sc.Status == domain.StatusScheduled {
		return sc, nil
	}

	if err := c.s.setStatusLocked(ctx, &sc, domain.StatusScheduled); err != nil {
		return sc, err
	}
	c.refresh(ctx, sc, refreshHome)
	if sc.AwayMessageID != nil {
		c.refresh(ctx, sc, refreshAway)
	}
	c.s.reg.Put(sc)
	log.Printf("[confirm] force scheduled scrim=%d guild=%s", scrimID, guildID)
	return sc, nil
}

// ---------- helpers ----------

type refreshTarget int

const (
	refreshHome refreshTarget = iota
	refreshAway
	refreshForce
)

// refresh re-renderiza un panel best-effort: un panel desactualizado no
// justifica romper la operación que ya mutó la DB.
func (c *ConfirmService) refresh(ctx context.Context, sc storage.Scrim, target refreshTarget) {
	v, err := c.s.view(ctx, sc)
	if err != nil {
		log.Printf("[confirm] view scrim=%d: %v", sc.ID, err)
		return
	}
	switch target {
	case refreshHome:
		err = c.s.panels.RefreshHome(ctx, v)
	case refreshAway:
		err = c.s.panels.RefreshAway(ctx, v)
	case refreshForce:
		err = c.s.panels.RefreshForceConfirm(ctx, v)
	}
	if err != nil {
		log.Printf("[confirm] refresh scrim=%d: %v", sc.ID, err)
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
