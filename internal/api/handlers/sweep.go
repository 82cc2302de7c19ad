package handlers

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"battery-backtest/internal/api/live"
	"battery-backtest/internal/api/models"
	"battery-backtest/internal/config"
	"battery-backtest/internal/data"
	"battery-backtest/internal/model"
	"battery-backtest/internal/sweep"
)

// SweepHandler runs capacity sweeps against a requested solar source,
// optionally broadcasting progress to hub subscribers.
type SweepHandler struct {
	hub *live.Hub
}

// NewSweepHandler creates a new sweep handler. hub may be nil, in which
// case no progress events are broadcast.
func NewSweepHandler(hub *live.Hub) *SweepHandler {
	return &SweepHandler{hub: hub}
}

// RunSweep handles POST /api/v1/sweeps
func (h *SweepHandler) RunSweep(c *gin.Context) {
	var req models.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	solar, err := h.fetchSolar(req.SolarSource)
	if err != nil {
		if sdErr, ok := err.(*data.SolarDataError); ok {
			statusCode := http.StatusBadRequest
			switch sdErr.StatusCode {
			case http.StatusForbidden, http.StatusUnauthorized:
				statusCode = http.StatusUnauthorized
			case http.StatusTooManyRequests:
				statusCode = http.StatusTooManyRequests
			}
			c.JSON(statusCode, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    sdErr.Code,
					Message: sdErr.Message,
					Details: map[string]interface{}{"status_code": sdErr.StatusCode, "retry_after": sdErr.RetryAfter},
				},
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "SOLAR_FETCH_ERROR", Message: err.Error()},
		})
		return
	}

	battCfg := reqToBatteryConfig(req.Battery)
	if req.BatteryFile != "" {
		loaded, err := loadBatteryFileConfig(req.BatteryFile)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INVALID_BATTERY_FILE", Message: err.Error()},
			})
			return
		}
		battCfg = config.MergeBattery(loaded, battCfg)
	}

	deliveryCfg := config.DeliveryConfig{
		TargetMW:          req.Delivery.TargetMW,
		ChargeThresholdMW: req.Delivery.ChargeThresholdMW,
		NightBlackoutFrom: req.Delivery.NightBlackoutFrom,
		NightBlackoutTo:   req.Delivery.NightBlackoutTo,
	}
	if deliveryCfg.NightBlackoutFrom == 0 && deliveryCfg.NightBlackoutTo == 0 {
		deliveryCfg.NightBlackoutFrom, deliveryCfg.NightBlackoutTo = -1, -1
	}

	sweepCfg := req.Sweep
	sizeMin, sizeMax, sizeStep := sweepCfg.SizeMinMWh, sweepCfg.SizeMaxMWh, sweepCfg.SizeStepMWh
	if sizeMin == 0 && sizeMax == 0 && sizeStep == 0 {
		d := config.Defaults().Sweep
		sizeMin, sizeMax, sizeStep = d.SizeMinMWh, d.SizeMaxMWh, d.SizeStepMWh
	}
	threshold := sweepCfg.MarginalThreshold
	if threshold == 0 {
		threshold = config.Defaults().Sweep.MarginalThreshold
	}

	sweepID := uuid.NewString()
	var onProgress func(done, total int)
	if h.hub != nil {
		onProgress = func(done, total int) {
			h.hub.Broadcast(live.ProgressEvent{SweepID: sweepID, Done: done, Total: total, Status: "running"})
		}
	}

	outcome, err := sweep.Run(c.Request.Context(), sweep.Params{
		SizeMinMWh:                   sizeMin,
		SizeMaxMWh:                   sizeMax,
		SizeStepMWh:                  sizeStep,
		MarginalThresholdHoursPerMWh: threshold,
		MaxParallel:                  runtime.NumCPU(),
		Solar:                        solar,
		BatteryParams:                battCfg.ToModelParams(0),
		Delivery:                     deliveryCfg.ToModelParams(),
		OnProgress:                   onProgress,
	})
	if h.hub != nil {
		status := "done"
		errMsg := ""
		if err != nil {
			status = "error"
			errMsg = err.Error()
		} else if outcome.Cancelled {
			status = "cancelled"
		}
		h.hub.Broadcast(live.ProgressEvent{SweepID: sweepID, Status: status, Error: errMsg})
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "SWEEP_ERROR", Message: err.Error()},
		})
		return
	}

	status := "ok"
	if outcome.Cancelled {
		status = "cancelled"
	}
	resp := models.SweepResponse{
		ID:                  sweepID,
		Status:              status,
		OptimalCapacity:     outcome.OptimalCapacity,
		Results:             make([]models.CapacitySummary, len(outcome.Results)),
		Cancelled:           outcome.Cancelled,
		CompletedCapacities: outcome.CompletedCapacities,
	}
	for i, r := range outcome.Results {
		resp.Results[i] = toCapacitySummary(r, sweepCfg.IncludeLedger)
	}

	c.JSON(http.StatusOK, resp)
}

func toCapacitySummary(r sweep.CapacityResult, includeLedger bool) models.CapacitySummary {
	s := r.Summary
	out := models.CapacitySummary{
		CapacityMWh:       s.CapacityMWh,
		HoursDelivered:    s.HoursDelivered,
		HoursShortfall:    s.HoursShortfall,
		HoursCycleBlocked: s.HoursCycleBlocked,
		TotalWastageMWh:   s.TotalWastageMWh,
		WastagePct:        s.WastagePct,
		TotalCycles:       s.TotalCycles,
		AvgCyclesPerDay:   s.AvgCyclesPerDay,
		DegradationPct:    s.DegradationPct,
		ServedFraction:    s.ServedFraction,
	}
	if s.HasMarginal {
		m := s.MarginalHoursPerMWh
		out.MarginalHoursPerMWh = &m
	}
	if includeLedger {
		out.Ledger = make([]models.HourlyRow, len(r.Ledger))
		for i, rec := range r.Ledger {
			out.Ledger[i] = toHourlyRow(rec)
		}
	}
	return out
}

func toHourlyRow(rec model.HourlyRecord) models.HourlyRow {
	delivery := "No"
	if rec.DeliveredMW > 0 {
		delivery = "Yes"
	}
	return models.HourlyRow{
		Hour:        rec.Hour,
		Timestamp:   rec.Timestamp,
		SolarMW:     rec.SolarMW,
		DemandMW:    rec.DemandMW,
		BatteryMW:   rec.BatteryMW,
		DeliveredMW: rec.DeliveredMW,
		ShortfallMW: rec.ShortfallMW,
		WastageMWh:  rec.WastageMWh,
		SOCPct:      rec.SOC * 100,
		State:       string(rec.State),
		Delivery:    delivery,
	}
}

func (h *SweepHandler) fetchSolar(src models.SolarSourceConfig) (*model.SolarProfile, error) {
	switch src.Type {
	case "file":
		return data.LoadSolarProfileJSON(src.FilePath)
	case "remote":
		client := data.NewSolarDataClient(src.APIKey, "")
		return client.QueryProfileByString(src.ProfileID, src.SiteID, src.StartDate, src.EndDate)
	case "profile_id":
		catalog, err := data.LoadProfiles(data.GetDefaultProfilesPath())
		if err != nil {
			return nil, fmt.Errorf("loading profile catalog: %w", err)
		}
		for _, p := range catalog.Profiles {
			if p.ID == src.ProfileID {
				return data.LoadSolarProfileJSON(fmt.Sprintf("./data/profiles/%s.json", p.ID))
			}
		}
		return nil, fmt.Errorf("unknown profile_id %q", src.ProfileID)
	default:
		return nil, fmt.Errorf("unsupported solar_source.type %q", src.Type)
	}
}

func reqToBatteryConfig(b models.BatteryConfig) config.BatteryConfig {
	d := config.Defaults().Battery
	override := config.BatteryConfig{
		SOCMin:              b.SOCMin,
		SOCMax:              b.SOCMax,
		SOCInit:             b.SOCInit,
		RoundTripEfficiency: b.RoundTripEfficiency,
		ChargeCRate:         b.ChargeCRate,
		DischargeCRate:      b.DischargeCRate,
		MaxCyclesPerDay:     b.MaxCyclesPerDay,
		DegradationPerCycle: b.DegradationPerCycle,
		AuxLoadPct:          b.AuxLoadPct,
	}
	return config.MergeBattery(d, override)
}

func loadBatteryFileConfig(path string) (config.BatteryConfig, error) {
	cfg, err := config.LoadUnchecked(path)
	if err != nil {
		return config.BatteryConfig{}, err
	}
	return cfg.Battery, nil
}
