package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/config"
	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/utils"
	"gorm.io/gorm"
)

// AuthMiddleware authenticates the bearer access token and loads the
// caller. Blocked accounts are turned away even with a valid token.
func AuthMiddleware(db *gorm.DB, cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || bearerToken[1] == "" {
			abort(c, utils.Unauthorized("Access token missing."))
			return
		}

		claims, err := utils.ParseToken(bearerToken[1], cfg.JWTSecret)
		if err != nil {
			abort(c, utils.Unauthorized("Invalid or expired access token."))
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				abort(c, utils.Unauthorized("User associated with token not found."))
				return
			}
			abort(c, err)
			return
		}
		if user.IsBlocked {
			abort(c, utils.Forbidden("Your account has been blocked."))
			return
		}

		utils.SetUser(c, &utils.UserClaims{
			UserID: user.ID,
			Role:   user.Role(),
		})
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.GetUser(c).IsAdmin() {
			abort(c, utils.Forbidden("Admin access required."))
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
