package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type selectUserPayload struct {
	User string `json:"user" binding:"required"`
}

// GetConfig 按当前用户标识返回前端需要的数据库配置。
// 每个字段都有内置默认值兜底，机密凭证绝不出现在响应里。
func (a *API) GetConfig(c *gin.Context) {
	tag := c.Query("user")
	if tag == "" {
		tag = a.currentUser(c)
	}
	profile := a.users.Lookup(tag)

	c.JSON(http.StatusOK, gin.H{
		"user":                  profile.Tag,
		"habit_database_id":     profile.HabitDatabaseID,
		"energy_database_id":    profile.EnergyDatabaseID,
		"energy_data_source_id": profile.EnergyDataSourceID,
		"energy_enabled":        profile.EnergyEnabled,
	})
}

// SelectUser 把选中的用户写进会话
func (a *API) SelectUser(c *gin.Context) {
	var payload selectUserPayload
	if !bindJSON(c, &payload, "user is required") {
		return
	}

	profile := a.users.Lookup(payload.User)

	session := sessions.Default(c)
	session.Set(sessionUserKey, profile.Tag)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": profile.Tag})
}
