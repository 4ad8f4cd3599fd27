package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"tgreceiver/internal/middleware"
	"tgreceiver/internal/models"
	"tgreceiver/internal/repositories"
)

type AuthHandler struct {
	Operators repositories.OperatorRepository
}

func NewAuthHandler(operators repositories.OperatorRepository) *AuthHandler {
	return &AuthHandler{Operators: operators}
}

// @Summary      Operator login
// @Description  Аутентифицирует оператора и возвращает access-токен
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Данные для входа"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)

	op, err := h.Operators.GetByEmail(c.Request.Context(), email)
	if err != nil {
		log.Printf("[auth][login] operator not found by email=%q: err=%v", email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(strings.TrimSpace(req.Password))); err != nil {
		log.Printf("[auth][login] bcrypt mismatch for operatorID=%d", op.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	claims := &middleware.Claims{
		OperatorID: op.ID,
		RoleID:     op.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(middleware.SigningKey())
	if err != nil {
		log.Printf("[auth][login] sign token failed for operatorID=%d: err=%v", op.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	log.Printf("[auth][login] success operatorID=%d role=%d", op.ID, op.RoleID)
	c.JSON(http.StatusOK, gin.H{
		"access_token": tokenString,
		"operator":     op,
	})
}
