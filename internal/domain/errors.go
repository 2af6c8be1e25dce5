package domain

import (
	"errors"
	"fmt"
)

// Errores de usuario: se reportan al que apretó el botón, no mutan estado
// y no se loguean como fallas.
var (
	ErrDuplicateVote = errors.New("member has already voted")
	ErrNotVoted      = errors.New("member has not voted")
	ErrUnknownTeam   = errors.New("team is not part of this scrim")
	ErrQuorumReached = errors.New("this side already reached quorum")

	ErrForceConfirmPerTeam     = errors.New("force confirm needs per_team >= 2")
	ErrForceConfirmTooFewVotes = errors.New("not enough regular votes to open a force confirm")
	ErrForceConfirmTooEarly    = errors.New("force confirm only opens 30 minutes before the scrim")
)

// Errores de invalidación / estado.
var (
	ErrNoHomeChannel = errors.New("home team has no text channel")
	ErrScrimNotFound = errors.New("scrim not found")
	ErrTeamNotFound  = errors.New("team not found")
	// Lo devuelve el adapter cuando Discord responde 404 sobre un mensaje
	// que deberíamos poder editar: invalida el scrim.
	ErrMessageGone = errors.New("prompt message was deleted")
)

// ForceConfirmExistsError: ya hay una votación de force-confirm viva; el
// caller debe apuntar a la existente en vez de crear otra.
type ForceConfirmExistsError struct {
	ChannelID string
	MessageID string
}

func (e *ForceConfirmExistsError) Error() string {
	return fmt.Sprintf("a force confirm vote already exists (message %s)", e.MessageID)
}
