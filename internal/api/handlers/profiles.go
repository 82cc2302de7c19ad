package handlers

import (
	"net/http"

	"battery-backtest/internal/api/models"
	"battery-backtest/internal/data"

	"github.com/gin-gonic/gin"
)

// ListProfiles handles GET /api/v1/profiles
func ListProfiles(c *gin.Context) {
	catalog, err := data.LoadProfiles(data.GetDefaultProfilesPath())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"profiles": []models.ProfileSummary{}})
		return
	}

	profiles := make([]models.ProfileSummary, len(catalog.Profiles))
	for i, p := range catalog.Profiles {
		profiles[i] = models.ProfileSummary{
			ID:     p.ID,
			Name:   p.Name,
			Site:   p.Site,
			Market: p.Market,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles":   profiles,
		"updated_at": catalog.UpdatedAt,
		"count":      len(profiles),
	})
}
