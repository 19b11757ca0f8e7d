package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/config"
	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const refreshCookieName = "refreshToken"

type AuthController struct {
	DB     *gorm.DB
	Config *config.AppConfig
}

func NewAuthController(db *gorm.DB, cfg *config.AppConfig) *AuthController {
	return &AuthController{DB: db, Config: cfg}
}

func userSummary(user *models.User) gin.H {
	return gin.H{
		"id":       user.ID,
		"username": user.Username,
		"isAdmin":  user.IsAdmin,
	}
}

// issueTokens signs a new access token and stores a new refresh token,
// which is also set as an http-only cookie.
func (ac *AuthController) issueTokens(c *gin.Context, tx *gorm.DB, user *models.User) (string, string, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Role(), ac.Config.JWTSecret, ac.Config.AccessTokenTTL)
	if err != nil {
		return "", "", utils.Internal("Could not generate token.", err)
	}
	refreshToken, expiresAt, err := utils.GenerateRefreshToken(user.ID, ac.Config.RefreshTokenSecret, ac.Config.RefreshTokenTTL)
	if err != nil {
		return "", "", utils.Internal("Could not generate token.", err)
	}

	err = tx.Create(&models.RefreshToken{
		UserID:         user.ID,
		Token:          refreshToken,
		ExpirationDate: expiresAt,
	}).Error
	if err != nil {
		return "", "", utils.Internal("Could not store refresh token.", err)
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, refreshToken, int(ac.Config.RefreshTokenTTL/time.Second), "/", "", !ac.Config.IsDevelopment(), true)
	return accessToken, refreshToken, nil
}

func (ac *AuthController) clearRefreshCookie(c *gin.Context) {
	c.SetCookie(refreshCookieName, "", -1, "/", "", !ac.Config.IsDevelopment(), true)
}

// refreshTokenFrom reads the refresh token from the cookie, falling back to
// the JSON body for non-browser clients.
func refreshTokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(refreshCookieName); err == nil && token != "" {
		return token
	}
	var input struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.ShouldBindJSON(&input)
	return input.RefreshToken
}

func (ac *AuthController) Signup(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required,min=3,max=30"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(utils.Validation("Please provide a username, a valid email and a password of at least 6 characters."))
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		_ = c.Error(utils.Internal("Could not hash password.", err))
		return
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashedPassword),
	}

	var accessToken, refreshToken string
	err = ac.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.Conflict("Email already in use.")
		}
		if err := tx.Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return utils.Conflict("Username already taken.")
		}

		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.Conflict("Username or email already exists.")
			}
			return err
		}

		var err error
		accessToken, refreshToken, err = ac.issueTokens(c, tx, &user)
		return err
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	log.Printf("user %d signed up as %s", user.ID, user.Username)
	sendJSON(c, http.StatusCreated, "Signup successful.", gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         userSummary(&user),
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(utils.Validation("Email and password are required."))
		return
	}

	invalid := utils.Forbidden("Invalid credentials or account is blocked.")

	var user models.User
	db := ac.DB.WithContext(c.Request.Context())
	if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Error(invalid)
			return
		}
		_ = c.Error(err)
		return
	}
	if user.IsBlocked {
		_ = c.Error(invalid)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		_ = c.Error(invalid)
		return
	}

	accessToken, refreshToken, err := ac.issueTokens(c, db, &user)
	if err != nil {
		_ = c.Error(err)
		return
	}

	sendJSON(c, http.StatusOK, "Login successful.", gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         userSummary(&user),
	})
}

// RefreshToken rotates the refresh token: the presented one is deleted and
// a new pair is issued.
func (ac *AuthController) RefreshToken(c *gin.Context) {
	presented := refreshTokenFrom(c)
	if presented == "" {
		ac.clearRefreshCookie(c)
		_ = c.Error(utils.Unauthorized("No refresh token provided."))
		return
	}
	if _, err := utils.ParseToken(presented, ac.Config.RefreshTokenSecret); err != nil {
		ac.clearRefreshCookie(c)
		_ = c.Error(utils.Unauthorized("Invalid refresh token."))
		return
	}

	var user models.User
	var accessToken, refreshToken string
	err := ac.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var stored models.RefreshToken
		if err := tx.Where("token = ?", presented).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.Forbidden("Refresh token revoked. Please log in again.")
			}
			return err
		}
		if err := tx.Delete(&stored).Error; err != nil {
			return err
		}
		if stored.Expired(time.Now()) {
			return utils.Unauthorized("Refresh token expired.")
		}

		if err := tx.First(&user, stored.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.Forbidden("Invalid account or account is blocked.")
			}
			return err
		}
		if user.IsBlocked {
			return utils.Forbidden("Invalid account or account is blocked.")
		}

		var err error
		accessToken, refreshToken, err = ac.issueTokens(c, tx, &user)
		return err
	})
	if err != nil {
		ac.clearRefreshCookie(c)
		_ = c.Error(err)
		return
	}

	sendJSON(c, http.StatusOK, "Token refreshed successfully.", gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"isAdmin":      user.IsAdmin,
			"isBlocked":    user.IsBlocked,
			"flaggedCount": user.FlaggedCount,
		},
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	if token := refreshTokenFrom(c); token != "" {
		result := ac.DB.WithContext(c.Request.Context()).Where("token = ?", token).Delete(&models.RefreshToken{})
		if result.Error != nil {
			_ = c.Error(result.Error)
			return
		}
	}
	ac.clearRefreshCookie(c)
	sendJSON(c, http.StatusOK, "Logged out successfully.", nil)
}

func (ac *AuthController) GetProfile(c *gin.Context) {
	claims, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var user models.User
	if err := ac.DB.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Error(utils.NotFound("User not found."))
			return
		}
		_ = c.Error(err)
		return
	}

	sendJSON(c, http.StatusOK, "User profile fetched successfully.", gin.H{
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"email":        user.Email,
			"isAdmin":      user.IsAdmin,
			"isBlocked":    user.IsBlocked,
			"flaggedCount": user.FlaggedCount,
			"createdAt":    user.CreatedAt,
		},
	})
}
