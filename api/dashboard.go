package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (a Api) GetDashboardStats(c *gin.Context) {
	stats, err := a.mitra.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a Api) GetRecentActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	activity, err := a.mitra.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}
