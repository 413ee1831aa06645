package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetWeeklyStats 返回指定周（按 start 所在周的周一对齐）的聚合统计
func (a *API) GetWeeklyStats(c *gin.Context) {
	start := c.Query("start")

	monday := time.Now()
	if start != "" {
		parsed, err := time.Parse(dateFormat, start)
		if err != nil {
			respondError(c, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		monday = parsed
	}

	stats, err := a.stats.Weekly(c.Request.Context(), a.currentUser(c), monday)
	if err != nil {
		respondError(c, http.StatusBadGateway, err.Error())
		return
	}

	c.JSON(http.StatusOK, stats)
}
