package discord

import (
	"fmt"
	"strconv"
	"strings"
)

// Custom ids de los botones de scrim: "<panel>:<scrim_id>:<action>".
// El panel identifica qué vista generó el click, así el dispatch no
// depende del estado del mensaje.
const (
	panelHome  = "scrimhome"
	panelAway  = "scrimaway"
	panelForce = "scrimforce"

	actionConfirm   = "confirm"
	actionUnconfirm = "unconfirm"
	actionForce     = "force"
)

func customID(panel string, scrimID int64, action string) string {
	return fmt.Sprintf("%s:%d:%s", panel, scrimID, action)
}

// parseCustomID deshace customID. ok=false para componentes que no son
// nuestros (otros bots comparten el namespace de custom ids).
func parseCustomID(raw string) (panel string, scrimID int64, action string, ok bool) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return "", 0, "", false
	}
	switch parts[0] {
	case panelHome, panelAway, panelForce:
	default:
		return "", 0, "", false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, "", false
	}
	return parts[0], id, parts[2], true
}
