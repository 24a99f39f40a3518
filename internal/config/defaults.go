package config

import (
	"github.com/mgpai22/markreel/internal/align"
	"github.com/mgpai22/markreel/internal/video"
)

// Default returns the settings used for anything a project file omits.
func Default() Config {
	return Config{
		Output:     "output.mp4",
		Work:       "work",
		Rate:       30,
		Resolution: []int{1920, 1080},
		Assets:     map[string]string{},
		Aligner: Aligner{
			Endpoint:       align.DefaultEndpoint,
			TimeoutSeconds: 1800,
		},
		Render: Render{
			MuxPollSeconds: int(video.DefaultPollInterval.Seconds()),
		},
	}
}
