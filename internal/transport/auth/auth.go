// Package auth serves the login endpoints and guards the admin API.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	domainuser "github.com/alanyang/agentflow/internal/domain/user"
	authsvc "github.com/alanyang/agentflow/internal/service/auth"
	"github.com/alanyang/agentflow/internal/transport/respond"
)

const (
	CookieName = "token"
	userKey    = "auth.user"
)

type CookieOptions struct {
	Secure bool
	TTL    time.Duration
}

func Register(rg *gin.RouterGroup, svc *authsvc.Service, opts CookieOptions) {
	rg.POST("/setup", setup(svc))
	rg.POST("/login", login(svc, opts))
	rg.POST("/logout", logout(opts))
	rg.GET("/me", RequireAdmin(svc), me)
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResp struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func toUserResp(u domainuser.User) userResp {
	return userResp{ID: u.ID.String(), Email: u.Email}
}

func setup(svc *authsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsReq
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Message(c, http.StatusBadRequest, "Email and password are required")
			return
		}

		if _, err := svc.Setup(c.Request.Context(), req.Email, req.Password); err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Admin account created successfully"})
	}
}

func login(svc *authsvc.Service, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsReq
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Message(c, http.StatusBadRequest, "Email and password are required")
			return
		}

		u, token, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respond.Error(c, err)
			return
		}

		setSessionCookie(c, token, int(opts.TTL.Seconds()), opts.Secure)
		c.JSON(http.StatusOK, gin.H{
			"message": "Login successful",
			"user":    toUserResp(u),
		})
	}
}

func logout(opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		setSessionCookie(c, "", -1, opts.Secure)
		c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}

func me(c *gin.Context) {
	u, _ := CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": toUserResp(u)})
}

func setSessionCookie(c *gin.Context, value string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(CookieName, value, maxAge, "/", "", secure, true)
}

// RequireAdmin rejects requests without a valid session. The token is read
// from the session cookie, or from an Authorization: Bearer header for API
// clients.
func RequireAdmin(svc *authsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Authenticate(c.Request.Context(), TokenFrom(c.Request))
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// TokenFrom extracts the session token from a request, preferring the cookie.
func TokenFrom(r *http.Request) string {
	if ck, err := r.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func CurrentUser(c *gin.Context) (domainuser.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return domainuser.User{}, false
	}
	u, ok := v.(domainuser.User)
	return u, ok
}
