package pov

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"pov/internal/block"
	"pov/internal/stacktrace"
	"pov/internal/style"
)

// Config holds the process-wide defaults. A single instance is initialized
// once, from an optional TOML file and then the POV_* environment, and is
// mutated only by the explicit "globally" operations.
type Config struct {
	// OutputPath names the output sink: empty or "-" for stderr.
	OutputPath string `toml:"output"`
	// Depth is the default value-rendering depth; -1 is unlimited
	// (unsafe against cyclic structures).
	Depth int `toml:"depth"`
	// Full renders unexported struct fields when set.
	Full bool `toml:"full"`
	// StackDepth bounds captured stack slices; 0 disables stack lines,
	// -1 captures without bound.
	StackDepth int `toml:"stack_depth"`
	// Color is "auto", "on" or "off".
	Color string `toml:"color"`
	// IDRange is "lo:hi" (hi exclusive); when set, only tracked entities
	// whose ordinal id falls in the range produce output.
	IDRange string `toml:"id_range"`
	// Disable turns every front-end operation into a no-op.
	Disable bool `toml:"disable"`
	// KeepPanicHook makes ExitOnPanic re-panic instead of rendering.
	KeepPanicHook bool `toml:"keep_panic_hook"`
	// KeepPrint makes Print write to the sink unformatted instead of
	// routing through the trace renderer.
	KeepPrint bool `toml:"keep_print"`
	// ExcludeFrames lists extra function prefixes to hide from stacks.
	ExcludeFrames []string `toml:"exclude_frames"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		OutputPath: "-",
		Depth:      2,
		StackDepth: -1,
		Color:      "auto",
	}
}

// idRange is the parsed identity filter.
type idRange struct {
	lo, hi uint64
	set    bool
}

func (r idRange) allows(id uint64) bool {
	return !r.set || (id >= r.lo && id < r.hi)
}

func parseIDRange(s string) (idRange, error) {
	if s == "" {
		return idRange{}, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return idRange{}, fmt.Errorf("invalid id range %q (expected lo:hi)", s)
	}
	r := idRange{set: true}
	var err error
	if lo != "" {
		if r.lo, err = strconv.ParseUint(lo, 10, 64); err != nil {
			return idRange{}, fmt.Errorf("invalid id range %q: %w", s, err)
		}
	}
	r.hi = ^uint64(0)
	if hi != "" {
		if r.hi, err = strconv.ParseUint(hi, 10, 64); err != nil {
			return idRange{}, fmt.Errorf("invalid id range %q: %w", s, err)
		}
	}
	return r, nil
}

// global is the process-wide mutable state: configuration defaults plus
// the one trace session. Single logical call stack assumed throughout.
var global struct {
	cfg     Config
	sess    *block.Session
	ids     idRange
	color   style.ColorMode
	disable bool
}

var initOnce sync.Once

// ensureInit lazily initializes the process-wide state on the first
// front-end call.
func ensureInit() {
	initOnce.Do(func() { configure(loadConfig()) })
}

// Init applies a caller-supplied configuration, replacing the environment
// defaults. Calling it after trace output started reconfigures the session
// for subsequent flushes.
func Init(cfg Config) {
	initOnce.Do(func() {})
	configure(cfg)
}

func configure(cfg Config) {
	global.cfg = cfg

	mode, err := style.ParseColorMode(cfg.Color)
	warnings := make([]string, 0, 2)
	if err != nil {
		warnings = append(warnings, err.Error())
	}
	global.color = mode

	global.ids, err = parseIDRange(cfg.IDRange)
	if err != nil {
		warnings = append(warnings, err.Error())
	}

	global.disable = cfg.Disable
	global.sess = block.NewSession(openSink(cfg.OutputPath), mode, cfg.StackDepth)
	stacktrace.Exclude(cfg.ExcludeFrames...)

	// Misconfiguration degrades to defaults with a warning, it never
	// fails the program under observation.
	for _, w := range warnings {
		if !global.disable {
			b := global.sess.OpenDepth(style.Warn, 0)
			b.Print(w)
			b.Close()
		}
	}
}

func openSink(path string) io.Writer {
	if path == "" || path == "-" {
		return os.Stderr
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}

// loadConfig builds the initial configuration: defaults, then the TOML
// file named by POV_CONFIG (if any), then POV_* environment overrides.
func loadConfig() Config {
	cfg := DefaultConfig()

	if path := os.Getenv("POV_CONFIG"); path != "" {
		// Decode errors leave the defaults in place.
		_, _ = toml.DecodeFile(path, &cfg)
	}

	if v := os.Getenv("POV_FILE"); v != "" {
		cfg.OutputPath = v
	}
	if v, ok := envInt("POV_DEPTH"); ok {
		cfg.Depth = v
	}
	if v, ok := envInt("POV_FULL"); ok {
		cfg.Full = v > 0
	}
	if v, ok := envInt("POV_STACK"); ok {
		cfg.StackDepth = v
	}
	if v := os.Getenv("POV_COLOR"); v != "" {
		cfg.Color = v
	}
	if v := os.Getenv("POV_ID_RANGE"); v != "" {
		cfg.IDRange = v
	}
	if v, ok := envInt("POV_DISABLE"); ok {
		cfg.Disable = v > 0
	}
	if v, ok := envInt("POV_KEEP_PANICHOOK"); ok {
		cfg.KeepPanicHook = v > 0
	}
	if v, ok := envInt("POV_KEEP_PRINT"); ok {
		cfg.KeepPrint = v > 0
	}
	return cfg
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PrintTo redirects trace output to w for the whole process.
func PrintTo(w io.Writer) {
	ensureInit()
	global.sess.SetOutput(w)
}

// disabled reports whether the library is in stub mode.
func disabled() bool {
	ensureInit()
	return global.disable
}
