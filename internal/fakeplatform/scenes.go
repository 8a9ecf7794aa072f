package fakeplatform

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// sceneFixture is one synthetic Sentinel-2 acquisition over the study area.
type sceneFixture struct {
	id         string
	time       time.Time
	cloudCover float64
	ndvi       float64
	masked     bool
}

// Sentinel-2 revisits the study area every five days.
const revisitDays = 5

// generateScenes builds the deterministic acquisition catalog for the fixture
// window. The same seed always yields the same scenes, cloud covers, and NDVI
// values, so integration tests can assert exact series contents.
func generateScenes(seed int64, from, to time.Time) []sceneFixture {
	rng := rand.New(rand.NewSource(seed))

	var scenes []sceneFixture
	for t := from; t.Before(to); t = t.AddDate(0, 0, revisitDays) {
		acq := t.Add(5*time.Hour + 10*time.Minute)
		jitter := (rng.Float64() - 0.5) * 0.06
		scenes = append(scenes, sceneFixture{
			id:         sceneID(acq),
			time:       acq,
			cloudCover: rng.Float64() * 80,
			ndvi:       clamp(seasonalNDVI(acq)+jitter, 0.05, 0.95),
			// Roughly one scene in 13 only grazes the study area, so its
			// cloud-masked mean comes back null.
			masked: len(scenes)%13 == 7,
		})
	}
	return scenes
}

// sceneID formats an id the way the real catalog does:
// COPERNICUS/S2_SR_HARMONIZED/{start}_{stop}_T44QMD.
func sceneID(acq time.Time) string {
	stop := acq.Add(7*time.Minute + 9*time.Second)
	return fmt.Sprintf("COPERNICUS/S2_SR_HARMONIZED/%s_%s_T44QMD",
		acq.Format("20060102T150405"), stop.Format("20060102T150405"))
}

// seasonalNDVI models the double-cropped paddy calendar around Nalgonda: a
// kharif peak in late August and a rabi peak in mid March, with bare or
// fallow fields between.
func seasonalNDVI(t time.Time) float64 {
	day := float64(t.YearDay())
	ndvi := 0.18
	ndvi += 0.55 * gaussian(day, 75, 45)  // rabi crop
	ndvi += 0.45 * gaussian(day, 240, 50) // kharif crop
	return ndvi
}

func gaussian(x, mean, width float64) float64 {
	d := x - mean
	return math.Exp(-(d * d) / (2 * width * width))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
