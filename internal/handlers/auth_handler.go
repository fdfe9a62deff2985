package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"salespipe/internal/middleware"
	"salespipe/internal/models"
	"salespipe/internal/services"
)

type AuthHandler struct {
	userService services.UserService
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewAuthHandler(userService services.UserService, jwtSecret []byte) *AuthHandler {
	return &AuthHandler{userService: userService, jwtSecret: jwtSecret, tokenTTL: 15 * time.Minute}
}

// Login authenticates a staff member and issues a short-lived access token
// carrying the actor triple (id, role, community).
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)

	user, err := h.userService.GetUserByEmail(email)
	if err != nil || user == nil {
		log.Warn().Str("email", email).Msg("[auth][login] user not found")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(req.Password))); err != nil {
		log.Warn().Str("email", email).Msg("[auth][login] bcrypt mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	claims := &middleware.Claims{
		UserID:      user.ID,
		Role:        string(user.Role),
		CommunityID: user.CommunityID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"user":         user,
	})
}
