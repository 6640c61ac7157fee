package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Settings is the root configuration tree (§4.12). A *Settings value is
// built once by Load and handed by value-semantics (a pointer to an
// immutable snapshot) to every worker at Start; workers never mutate it.
type Settings struct {
	Debug bool

	Main struct {
		Name string
		Log  LogConfig
	}

	Microphone struct {
		MicrophoneDevice int  // input device index for C1
		DebugDump        bool // dump ring snapshots to WAV for debugging
		DebugDumpPath    string
	}

	Script struct {
		Path string // path to the script JSON consumed by C2
	}

	Camera struct {
		Brightness     int // 0-100, 50 neutral
		Exposure       int
		Contrast       int
		Saturation     int
		MirrorX        bool
		MirrorY        bool
		Rotation       int // 0,1,2,3 quarter turns clockwise
		Clahe          bool
		ClaheClipLimit int // 0-100
		Resolution     [2]int
		VideoDevicePos int
	}

	StageZone struct {
		SrcPoints        [4][2]float64
		HomographyWidth  float64
		HomographyHeight float64
		EnableHomography bool
		EnableCrop       bool
		CropPoints       [4][2]float64
	}

	PerformerTracker struct {
		UserFolder      string
		UncertainFolder string
		SaveInterval    int
		TrackedUserID   string
		LightCoords     [3]float64
		MaxPan          float64
		MaxTilt         float64
		LightNodeIP     string
		LightNodePort   int
		LightUniverseID uint16
		LoggingLevel    string
		ShowWindow      bool
	}

	MQTT struct {
		Enabled  bool
		Broker   string // tcp://host:port, built from HIVEMQ_IP/HIVEMQ_PORT if unset
		ClientID string
		Username string
		Password string
		Topic    string // base topic, e.g. "local_server"
	}

	StatusServer struct {
		Enabled bool
		Listen  string
	}

	Telemetry struct {
		Enabled   bool
		SentryDSN string
	}

	ControlSocket string // unix socket path for the supervisor RPC (§6)
}

// LogConfig mirrors the teacher's per-output log configuration.
type LogConfig struct {
	Path     string
	MaxSize  int64
	Rotation string // "daily", "weekly", "size"
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads settings.yaml (via viper) plus environment overrides into a
// fresh Settings snapshot, validates it, and caches it for Setting().
// A ConfigInvalid condition (§7) is returned as an error for the caller to
// treat as fatal at worker init.
func Load(path string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				if werr := writeDefaultConfig(path); werr != nil {
					return nil, fmt.Errorf("creating default config: %w", werr)
				}
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("reading newly created config: %w", err)
				}
			} else {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	applyEnvOverrides(v)

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}

	if err := Validate(settings); err != nil {
		return nil, err
	}

	settingsInstance = settings
	return settings, nil
}

// Setting returns the most recently loaded snapshot, or nil before Load.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
