//go:build darwin

package sysinfo

import (
	"encoding/json"
	"fmt"
	"os/exec"
)

// systemProfilerOutput is the part of `system_profiler SPDisplaysDataType -json` we read.
type systemProfilerOutput struct {
	Displays []gpuInfo `json:"SPDisplaysDataType"`
}

type gpuInfo struct {
	NDRVs []displayInfo `json:"spdisplays_ndrvs"`
}

type displayInfo struct {
	Resolution string `json:"_spdisplays_pixels"` // e.g. "3420 x 2214"
	Main       string `json:"spdisplays_main"`    // "spdisplays_yes"
}

// ScreenDimensions returns the main display's pixel size.
func ScreenDimensions() (int, int, error) {
	out, err := exec.Command("system_profiler", "SPDisplaysDataType", "-json").Output()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to run system_profiler: %w", err)
	}
	return parseSystemProfiler(out)
}

func parseSystemProfiler(data []byte) (int, int, error) {
	var profiler systemProfilerOutput
	if err := json.Unmarshal(data, &profiler); err != nil {
		return 0, 0, fmt.Errorf("decoding system_profiler JSON: %w", err)
	}

	for _, gpu := range profiler.Displays {
		for _, display := range gpu.NDRVs {
			if display.Main == "spdisplays_yes" {
				return parseResolutionString(display.Resolution)
			}
		}
	}

	// No main display flagged: take the first one.
	if len(profiler.Displays) > 0 && len(profiler.Displays[0].NDRVs) > 0 {
		return parseResolutionString(profiler.Displays[0].NDRVs[0].Resolution)
	}
	return 0, 0, fmt.Errorf("no displays found in system_profiler output")
}
