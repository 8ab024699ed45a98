package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

const (
	ctxPartyID = "party_id"
	ctxRole    = "role"
)

func setParty(c echo.Context, p model.Party) {
	c.Set(ctxPartyID, p.ID)
	c.Set(ctxRole, p.Role)
}

// PartyFrom returns the authenticated party, or a zero Party for guests.
func PartyFrom(c echo.Context) model.Party {
	id, _ := c.Get(ctxPartyID).(string)
	role, _ := c.Get(ctxRole).(string)
	return model.Party{ID: id, Role: role}
}

// partyKey identifies the caller for rate limiting.
func partyKey(c echo.Context) string {
	if id := PartyFrom(c).ID; id != "" {
		return id
	}
	return "guest"
}
