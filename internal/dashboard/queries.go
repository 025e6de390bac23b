package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kosten114/schoolbot/internal/models"
	"gorm.io/gorm"
)

// Stats holds per-owner record counts.
type Stats struct {
	Owner         int64 `json:"owner"`
	HomeworkTotal int64 `json:"homework_total"`
	HomeworkDone  int64 `json:"homework_done"`
	EventsTotal   int64 `json:"events_total"`
}

// ownerParam parses the required owner query parameter.
func ownerParam(c *gin.Context) (int64, bool) {
	owner, err := strconv.ParseInt(c.Query("owner"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner query parameter is required"})
		return 0, false
	}
	return owner, true
}

func handleStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerParam(c)
		if !ok {
			return
		}

		stats := Stats{Owner: owner}
		if err := db.Model(&models.Homework{}).Where("user_id = ?", owner).
			Count(&stats.HomeworkTotal).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := db.Model(&models.Homework{}).Where("user_id = ? AND done = ?", owner, true).
			Count(&stats.HomeworkDone).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := db.Model(&models.ScheduleEvent{}).Where("user_id = ?", owner).
			Count(&stats.EventsTotal).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

func handleRecentHomework(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerParam(c)
		if !ok {
			return
		}
		n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
		if err != nil || n <= 0 {
			n = 10
		}

		var hws []models.Homework
		if err := db.Where("user_id = ?", owner).
			Order("created_at DESC").Limit(n).Find(&hws).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, hws)
	}
}

func handleUpcomingEvents(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := ownerParam(c)
		if !ok {
			return
		}

		var evs []models.ScheduleEvent
		if err := db.Where("user_id = ? AND event_date >= ?", owner, time.Now()).
			Order("event_date").Find(&evs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, evs)
	}
}
