package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"sitecms/pkg/config"
)

const (
	tokenKey = "access_token"
	stateKey = "oauth_state"
)

func (h *Handler) AuthRequired(c *gin.Context) {
	if h.AuthDisabled {
		c.Next()
		return
	}
	session := sessions.Default(c)
	if session.Get(tokenKey) == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

// accessToken is the GitHub token of the signed in user, or "" when
// authentication is disabled.
func accessToken(c *gin.Context) string {
	token, _ := sessions.Default(c).Get(tokenKey).(string)
	return token
}

func GithubLogin(c *gin.Context) {
	state := uuid.NewString()
	session := sessions.Default(c)
	session.Set(stateKey, state)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Session save failed")
		return
	}
	url := config.OauthConf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func AuthCallback(c *gin.Context) {
	session := sessions.Default(c)
	want, _ := session.Get(stateKey).(string)
	if want == "" || c.Query("state") != want {
		c.String(http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	session.Delete(stateKey)

	code := c.Query("code")
	token, err := config.OauthConf.Exchange(c.Request.Context(), code)
	if err != nil {
		c.String(http.StatusInternalServerError, "OAuth Exchange Failed")
		return
	}

	session.Set(tokenKey, token.AccessToken)
	if err := session.Save(); err != nil {
		c.String(http.StatusInternalServerError, "Session save failed")
		return
	}

	c.Redirect(http.StatusFound, config.GetAppURL())
}

func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}
