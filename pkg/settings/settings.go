// Package settings loads, validates and holds the rngpaper configuration.
//
// The configuration lives in a TOML file. Components never read the file themselves; they
// take a Snapshot from the Holder once per operation.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dixieflatline76/rngpaper/config"
	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/util/log"
	toml "github.com/pelletier/go-toml/v2"
)

// Default values, matching the settings file written on first run.
const (
	DefaultInterval        = 10 * time.Minute
	DefaultHotkey          = "ctrl+alt+w"
	DefaultMaxEmptyRetries = 5
	DefaultWorkers         = 2
	DefaultChangeTimeout   = 2 * time.Minute
	maxWorkers             = 8
)

// DefaultCollections is the collection list used when the settings file is created.
var DefaultCollections = []string{"@arkas"}

var resolutionRegex = regexp.MustCompile(`^([1-9][0-9]{1,4})x([1-9][0-9]{1,4})$`)

// Orientation is the preferred wallpaper orientation.
type Orientation string

// Supported orientations.
const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
	Squarish  Orientation = "squarish"
)

// Resolution returns the default image resolution for the orientation.
func (o Orientation) Resolution() string {
	switch o {
	case Portrait:
		return "1080x1920"
	case Squarish:
		return "1440x1440"
	default:
		return "1920x1080"
	}
}

// Categories are the wallhaven content category filters.
type Categories struct {
	General bool `toml:"general"`
	Anime   bool `toml:"anime"`
	People  bool `toml:"people"`
}

// String renders the categories as the 3-bit string the search API expects (general, anime, people).
func (c Categories) String() string {
	return bits(c.General, c.Anime, c.People)
}

// Purity are the wallhaven content purity filters.
type Purity struct {
	SFW     bool `toml:"sfw"`
	Sketchy bool `toml:"sketchy"`
	NSFW    bool `toml:"nsfw"`
}

// String renders the purity as the 3-bit string the search API expects (sfw, sketchy, nsfw).
func (p Purity) String() string {
	return bits(p.SFW, p.Sketchy, p.NSFW)
}

func bits(flags ...bool) string {
	var sb strings.Builder
	for _, f := range flags {
		if f {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Snapshot is an immutable view of the configuration. Take one per operation and do not
// mutate the slices it carries.
type Snapshot struct {
	Collections     []string
	Categories      Categories
	Purity          Purity
	APIKey          string
	Hotkey          Accelerator
	Interval        time.Duration
	Orientation     Orientation
	ImageResolution string
	ChangeOnStart   bool
	IncludeLastPage bool
	MaxEmptyRetries int
	Workers         int
	ChangeTimeout   time.Duration
	Fit             bool
	ControlAddr     string
	CheckUpdates    bool
}

// clone returns a deep copy of the snapshot.
func (s Snapshot) clone() Snapshot {
	s.Collections = slices.Clone(s.Collections)
	s.Hotkey.Modifiers = slices.Clone(s.Hotkey.Modifiers)
	return s
}

// ScreenResolution as image_resolution fits wallpapers to the detected primary screen.
const ScreenResolution = "screen"

// ResolutionSize parses ImageResolution into width and height. It fails for ScreenResolution,
// which is resolved at fit time.
func (s Snapshot) ResolutionSize() (int, int, error) {
	return ParseResolution(s.ImageResolution)
}

// ParseResolution parses a "WIDTHxHEIGHT" string.
func ParseResolution(res string) (int, int, error) {
	m := resolutionRegex.FindStringSubmatch(strings.TrimSpace(res))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: invalid resolution %q, want WIDTHxHEIGHT", errkind.ErrConfig, res)
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w, h, nil
}

// fileConfig mirrors the settings file. Fields are pre-filled with defaults before decoding,
// so keys missing from the file keep their default.
type fileConfig struct {
	Collections     []string   `toml:"collections"`
	Interval        int64      `toml:"interval"`
	Orientation     string     `toml:"orientation"`
	ImageResolution string     `toml:"image_resolution"`
	APIKey          string     `toml:"api_key"`
	Hotkey          string     `toml:"hotkey"`
	Categories      Categories `toml:"categories"`
	Purity          Purity     `toml:"purity"`
	ChangeOnStart   bool       `toml:"change_on_start"`
	IncludeLastPage bool       `toml:"include_last_page"`
	MaxEmptyRetries int        `toml:"max_empty_retries"`
	Workers         int        `toml:"workers"`
	ChangeTimeout   int64      `toml:"change_timeout"`
	Fit             bool       `toml:"fit"`
	ControlAddr     string     `toml:"control_addr"`
	CheckUpdates    bool       `toml:"check_updates"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Collections:     slices.Clone(DefaultCollections),
		Interval:        int64(DefaultInterval / time.Minute),
		Orientation:     string(Landscape),
		Categories:      Categories{General: false, Anime: true, People: false},
		Purity:          Purity{SFW: true, Sketchy: false, NSFW: false},
		ChangeOnStart:   true,
		MaxEmptyRetries: DefaultMaxEmptyRetries,
		Workers:         DefaultWorkers,
		ChangeTimeout:   int64(DefaultChangeTimeout / time.Second),
		ControlAddr:     config.DefaultControlAddr,
		CheckUpdates:    true,
	}
}

// defaultFile is written when no settings file exists yet.
const defaultFile = `# rngpaper settings

# Wallhaven collections (curator tags) to pick wallpapers from. Each should start with @.
collections = ["@arkas"]

# Minutes between automatic changes. 0 disables the timer.
interval = 10

# landscape, portrait or squarish
orientation = "landscape"

# Crop and resize wallpapers to image_resolution ("WIDTHxHEIGHT", or "screen" for the
# detected screen size). Defaults to a size matching the orientation.
fit = false
# image_resolution = "screen"

# Wallhaven API key. Leave empty to use the key stored with "rngpaper set-api-key".
api_key = ""

# Global shortcut that changes the wallpaper.
hotkey = "ctrl+alt+w"

[categories]
general = false
anime = true
people = false

[purity]
sfw = true
sketchy = false
nsfw = false
`

// Load reads the settings file at path, creating it with defaults when it does not exist.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Snapshot{}, fmt.Errorf("%w: read settings: %v", errkind.ErrConfig, err)
		}
		log.Printf("Settings file %s not found, creating it with defaults", path)
		if err := writeDefault(path); err != nil {
			return Snapshot{}, err
		}
		data = []byte(defaultFile)
	}
	return Parse(data)
}

// Parse decodes and validates settings file content.
func Parse(data []byte) (Snapshot, error) {
	raw := defaultFileConfig()
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("%w: parse settings: %v", errkind.ErrConfig, err)
	}
	return raw.snapshot()
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), config.DirPermissions); err != nil {
		return fmt.Errorf("%w: create settings dir: %v", errkind.ErrConfig, err)
	}
	if err := os.WriteFile(path, []byte(defaultFile), 0o600); err != nil {
		return fmt.Errorf("%w: write default settings: %v", errkind.ErrConfig, err)
	}
	return nil
}

// snapshot validates the decoded file and converts it into a Snapshot.
func (f fileConfig) snapshot() (Snapshot, error) {
	var collections []string
	for _, c := range f.Collections {
		tag := strings.TrimSpace(c)
		if tag == "" {
			return Snapshot{}, fmt.Errorf("%w: collections must not contain empty tags", errkind.ErrConfig)
		}
		if !strings.HasPrefix(tag, "@") {
			log.Printf("Collection %q does not start with @, searching it as a plain query", tag)
		}
		collections = append(collections, tag)
	}
	if len(collections) == 0 {
		return Snapshot{}, fmt.Errorf("%w: collections must not be empty", errkind.ErrConfig)
	}

	if f.Interval < 0 {
		return Snapshot{}, fmt.Errorf("%w: interval must not be negative", errkind.ErrConfig)
	}

	orientation := Orientation(strings.ToLower(strings.TrimSpace(f.Orientation)))
	switch orientation {
	case Landscape, Portrait, Squarish:
	default:
		return Snapshot{}, fmt.Errorf("%w: unknown orientation %q", errkind.ErrConfig, f.Orientation)
	}

	resolution := strings.TrimSpace(f.ImageResolution)
	switch {
	case resolution == "":
		resolution = orientation.Resolution()
	case strings.EqualFold(resolution, ScreenResolution):
		resolution = ScreenResolution
	default:
		if _, _, err := ParseResolution(resolution); err != nil {
			return Snapshot{}, err
		}
	}

	if strings.TrimSpace(f.Hotkey) == "" {
		return Snapshot{}, fmt.Errorf("%w: hotkey is required", errkind.ErrConfig)
	}
	accel, err := ParseAccelerator(f.Hotkey)
	if err != nil {
		return Snapshot{}, err
	}

	if !f.Purity.SFW && !f.Purity.Sketchy && !f.Purity.NSFW {
		return Snapshot{}, fmt.Errorf("%w: at least one purity flag must be set", errkind.ErrConfig)
	}
	if !f.Categories.General && !f.Categories.Anime && !f.Categories.People {
		return Snapshot{}, fmt.Errorf("%w: at least one category must be set", errkind.ErrConfig)
	}

	if f.MaxEmptyRetries < 1 {
		return Snapshot{}, fmt.Errorf("%w: max_empty_retries must be at least 1", errkind.ErrConfig)
	}
	if f.Workers < 1 || f.Workers > maxWorkers {
		return Snapshot{}, fmt.Errorf("%w: workers must be between 1 and %d", errkind.ErrConfig, maxWorkers)
	}
	if f.ChangeTimeout < 1 {
		return Snapshot{}, fmt.Errorf("%w: change_timeout must be at least 1 second", errkind.ErrConfig)
	}

	return Snapshot{
		Collections:     collections,
		Categories:      f.Categories,
		Purity:          f.Purity,
		APIKey:          strings.TrimSpace(f.APIKey),
		Hotkey:          accel,
		Interval:        time.Duration(f.Interval) * time.Minute,
		Orientation:     orientation,
		ImageResolution: resolution,
		ChangeOnStart:   f.ChangeOnStart,
		IncludeLastPage: f.IncludeLastPage,
		MaxEmptyRetries: f.MaxEmptyRetries,
		Workers:         f.Workers,
		ChangeTimeout:   time.Duration(f.ChangeTimeout) * time.Second,
		Fit:             f.Fit,
		ControlAddr:     strings.TrimSpace(f.ControlAddr),
		CheckUpdates:    f.CheckUpdates,
	}, nil
}
