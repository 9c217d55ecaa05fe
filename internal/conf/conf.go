package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration wraps time.Duration so it can be written as "30s" in TOML.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Bootstrap top-level configuration
type Bootstrap struct {
	Server  Server  `toml:"server"`
	Data    Data    `toml:"data"`
	Monitor Monitor `toml:"monitor"`

	BuildVersion string `toml:"-"`
	ConfigDir    string `toml:"-"`
}

type Server struct {
	Debug bool `toml:"debug"`
	HTTP  HTTP `toml:"http"`
}

type HTTP struct {
	Port      int    `toml:"port"`
	JwtSecret string `toml:"jwt_secret"`
	PProf     PProf  `toml:"pprof"`
}

type PProf struct {
	Enabled   bool     `toml:"enabled"`
	AccessIps []string `toml:"access_ips"`
}

type Data struct {
	Database Database `toml:"database"`
}

type Database struct {
	// Dsn decides the driver by prefix: postgres://, mysql://, otherwise sqlite file
	Dsn             string   `toml:"dsn"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	SlowThreshold   Duration `toml:"slow_threshold"`
}

// Monitor tuning knobs for the violation engine.
// Zero values are replaced with defaults on load.
type Monitor struct {
	// StalenessWindow heartbeat age beyond which a session counts as offline
	StalenessWindow Duration `toml:"staleness_window"`
	// DurationThreshold sustained side-gaze time before a warning fires
	DurationThreshold Duration `toml:"duration_threshold"`
	// ConfidenceThreshold minimum classifier confidence, floored at 0.15
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// ReAlertInterval re-emit spacing while a stream stays in an elevated state
	ReAlertInterval Duration `toml:"re_alert_interval"`
	// DebounceFrames consecutive frames a condition must hold before it fires
	DebounceFrames int `toml:"debounce_frames"`
	// MaxCapturesPerMinute evidence artifacts allowed per stream per minute
	MaxCapturesPerMinute int `toml:"max_captures_per_minute"`
	// EvidenceDir root directory for captured artifacts
	EvidenceDir string `toml:"evidence_dir"`
	// SnapshotInterval cadence of full-state pushes to dashboard observers
	SnapshotInterval Duration `toml:"snapshot_interval"`
	// RetainDays evidence/violation retention, 0 disables cleanup
	RetainDays int `toml:"retain_days"`
	// ClassifyTimeout upper bound of a single classifier call
	ClassifyTimeout Duration `toml:"classify_timeout"`
	// ClassifyEveryN run heavyweight models on every Nth frame only
	ClassifyEveryN int `toml:"classify_every_n"`
	// FrameRetryLimit frame-read retries before a stream is marked failed
	FrameRetryLimit int `toml:"frame_retry_limit"`
	// InferenceURL vision model service; empty runs degraded, samples
	// come only from agent reports
	InferenceURL string `toml:"inference_url"`
}

// MinConfidenceThreshold below this the detectors amplify noise into
// false positives, so user input is clamped.
const MinConfidenceThreshold = 0.15

// SetDefaults fills unset fields in place
func (m *Monitor) SetDefaults() {
	if m.StalenessWindow <= 0 {
		m.StalenessWindow = Duration(30 * time.Second)
	}
	if m.DurationThreshold <= 0 {
		m.DurationThreshold = Duration(5 * time.Second)
	}
	if m.ConfidenceThreshold <= 0 {
		m.ConfidenceThreshold = 0.6
	}
	if m.ConfidenceThreshold < MinConfidenceThreshold {
		m.ConfidenceThreshold = MinConfidenceThreshold
	}
	if m.ReAlertInterval <= 0 {
		m.ReAlertInterval = Duration(30 * time.Second)
	}
	if m.DebounceFrames <= 0 {
		m.DebounceFrames = 25
	}
	if m.MaxCapturesPerMinute <= 0 {
		m.MaxCapturesPerMinute = 6
	}
	if m.EvidenceDir == "" {
		m.EvidenceDir = "detections"
	}
	if m.SnapshotInterval <= 0 {
		m.SnapshotInterval = Duration(5 * time.Second)
	}
	if m.ClassifyTimeout <= 0 {
		m.ClassifyTimeout = Duration(2 * time.Second)
	}
	if m.ClassifyEveryN <= 0 {
		m.ClassifyEveryN = 5
	}
	if m.FrameRetryLimit <= 0 {
		m.FrameRetryLimit = 3
	}
}

// SetupConfig reads config.toml from dir, creating it with defaults when absent.
func SetupConfig(dir string) (*Bootstrap, error) {
	bc := defaultBootstrap()
	bc.ConfigDir = dir

	path := filepath.Join(dir, "config.toml")
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := writeConfig(path, bc); err != nil {
			return nil, err
		}
	} else if err := toml.Unmarshal(b, bc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	bc.Monitor.SetDefaults()
	return bc, nil
}

func defaultBootstrap() *Bootstrap {
	return &Bootstrap{
		Server: Server{
			HTTP: HTTP{Port: 8001},
		},
		Data: Data{
			Database: Database{
				Dsn:             "proctor.db",
				MaxIdleConns:    10,
				MaxOpenConns:    50,
				ConnMaxLifetime: Duration(6 * time.Hour),
				SlowThreshold:   Duration(200 * time.Millisecond),
			},
		},
	}
}

func writeConfig(path string, bc *Bootstrap) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	b, err := toml.Marshal(bc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
