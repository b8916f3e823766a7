package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Dev tool: fires demo analysis requests at a running instance so the
// pipeline, worker pool and warehouse wiring can be exercised end to end.

type analyzeRequest struct {
	HomeTeam string             `json:"home_team"`
	AwayTeam string             `json:"away_team"`
	Context  map[string]any     `json:"context,omitempty"`
	Odds     map[string]float64 `json:"odds,omitempty"`
	Seed     *int64             `json:"seed,omitempty"`
}

var fixtures = []analyzeRequest{
	{
		HomeTeam: "Liverpool",
		AwayTeam: "Manchester City",
		Context: map[string]any{
			"importance":     "HIGH",
			"rest_days_home": 6,
			"rest_days_away": 3,
			"is_derby":       true,
		},
		Odds: map[string]float64{
			"OVER_25":  1.72,
			"BTTS_YES": 1.65,
			"UNDER_25": 2.10,
		},
	},
	{
		HomeTeam: "Getafe",
		AwayTeam: "Cadiz",
		Context: map[string]any{
			"importance": "NORMAL",
		},
		Odds: map[string]float64{
			"UNDER_25": 1.60,
			"OVER_25":  2.30,
		},
	},
	{
		HomeTeam: "Borussia Dortmund",
		AwayTeam: "Bayer Leverkusen",
		Odds: map[string]float64{
			"BTTS_YES":   1.55,
			"GOAL_76_90": 1.48,
		},
	},
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "API base URL")
	quick := flag.Bool("quick", false, "use /analyze/quick")
	seed := flag.Int64("seed", 0, "fixed simulation seed (0 = none)")
	flag.Parse()

	path := "/analyze"
	if *quick {
		path = "/analyze/quick"
	}

	client := &http.Client{Timeout: 60 * time.Second}

	for _, fixture := range fixtures {
		if *seed != 0 {
			s := *seed
			fixture.Seed = &s
		}
		body, _ := json.Marshal(fixture)

		resp, err := client.Post(*baseURL+path, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Fatalf("POST %s: %v", path, err)
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		fmt.Printf("=== %s vs %s (%d) ===\n", fixture.HomeTeam, fixture.AwayTeam, resp.StatusCode)

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err == nil {
			fmt.Println(pretty.String())
		} else {
			fmt.Println(string(respBody))
		}
	}
}
