package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jrick/logrotate/rotator"
)

// logWriter fans a write out to stdout and the rotator, matching the
// teacher's logWriter/errLogWriter split.
type logWriter struct{ rotator *rotator.Rotator }

func (w logWriter) Write(p []byte) (int, error) {
	if initiated {
		os.Stdout.Write(p)
		w.rotator.Write(p)
	}
	return len(p), nil
}

var (
	logRotator    *rotator.Rotator
	errLogRotator *rotator.Rotator
	initiated     bool

	backendLog = NewBackend(nil, nil)

	// GeometryLog is the subsystem logger for the triangle/geometry package.
	GeometryLog = backendLog.Logger("GEOM")
	// TxnLog is the subsystem logger for transaction validation.
	TxnLog = backendLog.Logger("TXN ")
	// StateLog is the subsystem logger for the UTXO state engine.
	StateLog = backendLog.Logger("STAT")
	// MempoolLog is the subsystem logger for the mempool.
	MempoolLog = backendLog.Logger("TXMP")
	// ChainLog is the subsystem logger for the block/chain engine.
	ChainLog = backendLog.Logger("CHAN")
	// MinerLog is the subsystem logger for the mining engine.
	MinerLog = backendLog.Logger("MINR")
	// NetworkLog is the subsystem logger for P2P networking.
	NetworkLog = backendLog.Logger("NETP")
	// StoreLog is the subsystem logger for block persistence.
	StoreLog = backendLog.Logger("STOR")
	// NodeLog is the subsystem logger for top-level process wiring.
	NodeLog = backendLog.Logger("NODE")

	subsystemLoggers = map[string]Logger{
		"GEOM": GeometryLog,
		"TXN ": TxnLog,
		"STAT": StateLog,
		"TXMP": MempoolLog,
		"CHAN": ChainLog,
		"MINR": MinerLog,
		"NETP": NetworkLog,
		"STOR": StoreLog,
		"NODE": NodeLog,
	}
)

// InitLogRotator wires stdout plus a rotated log file into every
// subsystem logger's backend. It must be called once during process
// startup before any subsystem logger is used in anger.
func InitLogRotator(logFile, errLogFile string) error {
	var err error
	logRotator, err = newRotator(logFile)
	if err != nil {
		return err
	}
	errLogRotator, err = newRotator(errLogFile)
	if err != nil {
		return err
	}
	backendLog.writers = []io.Writer{logWriter{rotator: logRotator}}
	backendLog.errWriters = []io.Writer{logWriter{rotator: errLogRotator}}
	initiated = true
	return nil
}

func newRotator(logFile string) (*rotator.Rotator, error) {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to create file rotator: %w", err)
	}
	return r, nil
}

// SetLevel sets the logging level for the named subsystem. Unknown
// subsystems are ignored.
func SetLevel(subsystemTag, levelName string) {
	logger, ok := subsystemLoggers[subsystemTag]
	if !ok {
		return
	}
	level, _ := LevelFromString(levelName)
	logger.SetLevel(level)
}

// SetLevels sets every subsystem logger to the given level.
func SetLevels(levelName string) {
	for tag := range subsystemLoggers {
		SetLevel(tag, levelName)
	}
}

// ParseAndSetLevels parses a "debug" style spec, either a bare level
// name applied to every subsystem or a comma-separated list of
// TAG=level pairs, matching the teacher's ParseAndSetDebugLevels.
func ParseAndSetLevels(spec string) error {
	if !strings.Contains(spec, ",") && !strings.Contains(spec, "=") {
		if !validLevel(spec) {
			return fmt.Errorf("the specified log level %q is invalid", spec)
		}
		SetLevels(spec)
		return nil
	}
	for _, pair := range strings.Split(spec, ",") {
		fields := strings.SplitN(pair, "=", 2)
		if len(fields) != 2 {
			return fmt.Errorf("invalid subsystem/level pair %q", pair)
		}
		tag, level := fields[0], fields[1]
		if _, ok := subsystemLoggers[tag]; !ok {
			return fmt.Errorf("unknown log subsystem %q (supported: %s)", tag, strings.Join(SupportedSubsystems(), ", "))
		}
		if !validLevel(level) {
			return fmt.Errorf("the specified log level %q is invalid", level)
		}
		SetLevel(tag, level)
	}
	return nil
}

// SupportedSubsystems returns the sorted list of known subsystem tags.
func SupportedSubsystems() []string {
	tags := make([]string, 0, len(subsystemLoggers))
	for tag := range subsystemLoggers {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
