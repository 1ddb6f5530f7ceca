package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dcare-crm/config"
	"dcare-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// LoginInput defines the credentials payload for the login endpoint.
type LoginInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler проверяет учетные данные и выдает JWT в httpOnly cookie.
func LoginHandler(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login and password are required"})
		return
	}

	var user models.User
	if err := config.DB.Where("login = ?", input.Login).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid login or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid login or password"})
		return
	}

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"login":   user.Login,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(config.JwtKey)
	if err != nil {
		slog.Error("Failed to sign JWT", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.SetCookie("auth_token", tokenStr, int((24 * time.Hour).Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token": tokenStr,
		"user": gin.H{
			"id":    user.ID,
			"login": user.Login,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

// LogoutHandler сбрасывает cookie и кэш пользователя.
func LogoutHandler(c *gin.Context) {
	if userIDVal, exists := c.Get("user_id"); exists {
		if userID, ok := userIDVal.(uint); ok && config.RDB != nil {
			cacheKey := fmt.Sprintf("user:%d:data", userID)
			if err := config.RDB.Del(config.Ctx, cacheKey).Err(); err != nil {
				slog.Warn("Failed to invalidate user cache on logout", "error", err, "user_id", userID)
			}
		}
	}

	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// RegisterInput defines the payload for creating a console account.
type RegisterInput struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role"`
}

// RegisterHandler создает нового пользователя консоли. Доступно только администратору.
func RegisterHandler(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := input.Role
	switch role {
	case "":
		role = models.RoleConsultant
	case models.RoleAdmin, models.RoleManager, models.RoleConsultant:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + role})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Login:        input.Login,
		PasswordHash: string(hashedPassword),
		Name:         input.Name,
		Role:         role,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to create user: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    user.ID,
		"login": user.Login,
		"name":  user.Name,
		"role":  user.Role,
	})
}

// GetProfileHandler возвращает данные текущего авторизованного пользователя из контекста.
func GetProfileHandler(c *gin.Context) {
	userIDVal, _ := c.Get("user_id")
	loginVal, _ := c.Get("login")
	nameVal, _ := c.Get("userName")
	roleVal, _ := c.Get("role")
	permissionsVal, _ := c.Get("permissions")

	userID, _ := userIDVal.(uint)
	login, _ := loginVal.(string)
	name, _ := nameVal.(string)
	role, _ := roleVal.(string)
	permissions, _ := permissionsVal.([]string)

	c.JSON(http.StatusOK, gin.H{
		"id":          userID,
		"login":       login,
		"name":        name,
		"role":        role,
		"permissions": permissions,
	})
}
