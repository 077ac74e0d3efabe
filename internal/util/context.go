package util

import (
	"github.com/gin-gonic/gin"

	"github.com/trackforge/defecttrack/dao/model"
)

const (
	UserIDKey   = "x-user-id"
	UsernameKey = "x-user-name"
	RoleKey     = "x-role-platform"
)

func SetJWTContext(
	c *gin.Context,
	msg JWTMessage,
) {
	c.Set(UserIDKey, msg.UserID)
	c.Set(UsernameKey, msg.Username)
	c.Set(RoleKey, msg.Role)
}

func GetToken(ctx *gin.Context) JWTMessage {
	var msg JWTMessage
	msg.UserID = ctx.GetUint(UserIDKey)
	msg.Username = ctx.GetString(UsernameKey)

	role, _ := ctx.Get(RoleKey)
	if r, ok := role.(model.PlatformRole); ok {
		msg.Role = r
	}
	return msg
}
