package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ktwom22/plater8te/models"
	"github.com/ktwom22/plater8te/utils"
)

// StatsController exposes site-wide counters.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

const statsCacheKey = "cache:stats:site"

type siteStats struct {
	Users       int64 `json:"users"`
	Plates      int64 `json:"plates"`
	Restaurants int64 `json:"restaurants"`
	Comments    int64 `json:"comments"`
	ViewsToday  int64 `json:"views_today"`
	ViewsTotal  int64 `json:"views_total"`
}

// Site returns entity counts plus page view totals, cached for a minute.
func (s *StatsController) Site(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(statsCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}

	var stats siteStats
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.User{}, &stats.Users},
		{&models.Plate{}, &stats.Plates},
		{&models.Restaurant{}, &stats.Restaurants},
		{&models.Comment{}, &stats.Comments},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Count(c.dst).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to load stats")
			return
		}
	}

	today := time.Now().Format("2006-01-02")
	row := s.db.Model(&models.PageView{}).Where("date = ?", today).
		Select("COALESCE(SUM(count), 0)").Row()
	if err := row.Scan(&stats.ViewsToday); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to load stats")
		return
	}
	row = s.db.Model(&models.PageView{}).Select("COALESCE(SUM(count), 0)").Row()
	if err := row.Scan(&stats.ViewsTotal); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50046, "failed to load stats")
		return
	}

	envelope := gin.H{"code": 0, "message": "success", "data": stats}
	if b, err := json.Marshal(envelope); err == nil {
		utils.CacheSetBytes(statsCacheKey, b, time.Minute)
		ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
		return
	}
	ctx.JSON(http.StatusOK, envelope)
}
