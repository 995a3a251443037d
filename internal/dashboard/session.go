package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionCookie = "rl_session"
	flashCookie   = "rl_flash"
)

// sessionID returns the browser's session id, issuing a new cookie when the
// request carries none. Each session gets its own delete confirmation.
func sessionID(c *gin.Context) string {
	if id, ok := c.Get(sessionCookie); ok {
		return id.(string)
	}
	id, err := c.Cookie(sessionCookie)
	if err != nil || id == "" {
		id = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
	}
	c.Set(sessionCookie, id)
	return id
}

// setFlash stores a one-shot message shown on the next rendered page.
func setFlash(c *gin.Context, msg string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, msg, 60, "/", "", false, true)
}

// takeFlash returns the pending message and clears it.
func takeFlash(c *gin.Context) string {
	msg, err := c.Cookie(flashCookie)
	if err != nil || msg == "" {
		return ""
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)
	return msg
}
