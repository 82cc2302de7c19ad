package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"battery-backtest/internal/data"
)

// updateProfiles refreshes the site identifier of a known list of solar
// profiles by querying the remote solar-data provider for each (name and
// market are kept as they are in the seed),
// then writes the resulting catalog to disk. Seeded from an existing
// catalog file (or a small built-in default) since the provider has no
// profile-discovery endpoint of its own — only per-profile queries.
func main() {
	var (
		outputPath = flag.String("output", "", "Output file path (default: ./data/profiles.json)")
		seedFile   = flag.String("seed", "", "Path to existing profiles file to use as seed")
		days       = flag.Int("days", 7, "Number of days to look back when refreshing each profile")
	)
	flag.Parse()

	apiKey := os.Getenv("SOLARDATA_API_KEY")
	if apiKey == "" {
		log.Fatal("SOLARDATA_API_KEY environment variable is required")
	}

	if *outputPath == "" {
		*outputPath = data.GetDefaultProfilesPath()
	}

	client := data.NewSolarDataClient(apiKey, "")

	seedPath := *seedFile
	if seedPath == "" {
		seedPath = data.GetDefaultProfilesPath()
	}
	seed, err := data.LoadProfiles(seedPath)
	if err != nil {
		fmt.Printf("no seed catalog at %s, starting from defaults\n", seedPath)
		seed = &data.ProfileList{Profiles: []data.ProfileInfo{
			{ID: "moss_landing", Name: "Moss Landing", Site: "MOSSLD_SOLAR1", Market: "CAISO"},
			{ID: "flagstaff", Name: "Flagstaff", Site: "SV_SOLAR6A", Market: "CAISO"},
		}}
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -*days)

	refreshed := make([]data.ProfileInfo, 0, len(seed.Profiles))
	for _, p := range seed.Profiles {
		profile, err := client.QueryProfile(data.QueryProfileParams{
			ProfileID: p.ID,
			SiteID:    p.Site,
			StartTime: startDate,
			EndTime:   endDate,
			Timezone:  "site",
		})
		if err != nil {
			fmt.Printf("  warning: failed to refresh profile %s: %v\n", p.ID, err)
			refreshed = append(refreshed, p)
			continue
		}
		p.Site = profile.Site
		refreshed = append(refreshed, p)
		fmt.Printf("  refreshed: %s (%s)\n", p.ID, p.Site)
	}

	list := &data.ProfileList{
		UpdatedAt: time.Now().Format(time.RFC3339),
		Profiles:  refreshed,
	}

	if err := data.SaveProfiles(list, *outputPath); err != nil {
		log.Fatalf("failed to save profiles: %v", err)
	}

	fmt.Printf("Saved %d profiles to %s\n", len(refreshed), *outputPath)
}
