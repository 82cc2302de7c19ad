package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"battery-backtest/internal/api/models"
	"battery-backtest/internal/config"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"
)

// BatteryHandler serves the catalog of battery templates under batteryDir,
// each a YAML file in the shape consumed by config.BatteryFile.
type BatteryHandler struct {
	batteryDir string
}

// GetBatteryDir returns the battery directory path (for debugging).
func (h *BatteryHandler) GetBatteryDir() string {
	return h.batteryDir
}

// NewBatteryHandler creates a new battery handler.
func NewBatteryHandler() *BatteryHandler {
	dir := os.Getenv("BATTERY_DIR")
	if dir == "" {
		wd, err := os.Getwd()
		if err == nil {
			dir = filepath.Join(wd, "examples", "batteries")
		} else {
			dir = "./examples/batteries"
		}
	}

	if absDir, err := filepath.Abs(dir); err == nil {
		dir = absDir
	}

	log.Printf("BatteryHandler: using battery directory: %s", dir)

	return &BatteryHandler{batteryDir: dir}
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	entries, err := os.ReadDir(h.batteryDir)
	if err != nil {
		log.Printf("BatteryHandler: failed to read battery directory %s: %v", h.batteryDir, err)
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(h.batteryDir, entry.Name())
		info, err := h.loadBatteryInfo(path, entry.Name())
		if err != nil {
			log.Printf("BatteryHandler: failed to load battery file %s: %v", path, err)
			continue
		}

		batteries = append(batteries, *info)
	}

	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}

// GetBattery handles GET /api/v1/batteries/:id
func (h *BatteryHandler) GetBattery(c *gin.Context) {
	id := c.Param("id")
	path := filepath.Join(h.batteryDir, id+".yaml")

	info, err := h.loadBatteryInfo(path, id+".yaml")
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "BATTERY_NOT_FOUND", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *BatteryHandler) loadBatteryInfo(path, filename string) (*models.BatteryInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		Name    string               `yaml:"name"`
		Battery config.BatteryConfig `yaml:"battery"`
	}
	if err := yaml.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}

	id := strings.TrimSuffix(filename, ".yaml")

	name := wrapper.Name
	if name == "" {
		name = id
	}

	battCfg := config.MergeBattery(config.Defaults().Battery, wrapper.Battery)

	return &models.BatteryInfo{
		ID:   id,
		Name: name,
		File: path,
		Specs: models.BatterySpecs{
			RoundTripEfficiency: battCfg.RoundTripEfficiency,
			MaxCyclesPerDay:     battCfg.MaxCyclesPerDay,
		},
	}, nil
}
