package world

import (
	"io"
	"os"
	"time"

	"github.com/plus3/ecsrt/ecs"
	"github.com/sirupsen/logrus"
)

// DefaultHTTPAddr is where the HTTP addon listens unless told otherwise.
const DefaultHTTPAddr = "127.0.0.1:27750"

// Option tunes Build. Options that belong to a disabled addon are ignored.
type Option func(*options)

type options struct {
	registry *ecs.ComponentRegistry
	os       OSAPI

	logOutput io.Writer
	logFile   string
	logLevel  logrus.Level
	logJSON   bool

	modules []Module

	httpAddr         string
	metricsNamespace string
	alertRules       []AlertRule
	shutdownTimeout  time.Duration
}

func defaultOptions() options {
	return options{
		logOutput:        os.Stderr,
		logLevel:         logrus.InfoLevel,
		httpAddr:         DefaultHTTPAddr,
		metricsNamespace: "ecsrt",
		shutdownTimeout:  5 * time.Second,
	}
}

// WithRegistry supplies the component registry instead of a fresh one.
func WithRegistry(r *ecs.ComponentRegistry) Option {
	return func(o *options) { o.registry = r }
}

// WithOSAPI installs the time source, overriding the default one of the
// os_api addon. With os_api disabled it is required by the timer and app
// addons.
func WithOSAPI(api OSAPI) Option {
	return func(o *options) { o.os = api }
}

// WithLogOutput sends log output to w.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithLogFile appends log output to the file at path. The file is opened at
// Build and closed by Close.
func WithLogFile(path string) Option {
	return func(o *options) { o.logFile = path }
}

// WithLogLevel sets the minimum level of the log addon.
func WithLogLevel(level logrus.Level) Option {
	return func(o *options) { o.logLevel = level }
}

// WithJSONLogs switches the log addon to JSON output.
func WithJSONLogs(enabled bool) Option {
	return func(o *options) { o.logJSON = enabled }
}

// WithModules imports modules as the last step of Build. An import failure
// fails the build.
func WithModules(modules ...Module) Option {
	return func(o *options) { o.modules = append(o.modules, modules...) }
}

// WithHTTPAddr sets the listen address of the HTTP addon. Use port 0 to let
// the kernel choose.
func WithHTTPAddr(addr string) Option {
	return func(o *options) { o.httpAddr = addr }
}

// WithMetricsNamespace sets the Prometheus namespace of exported metrics.
func WithMetricsNamespace(ns string) Option {
	return func(o *options) { o.metricsNamespace = ns }
}

// WithAlertRules installs alert rules for the alerts addon.
func WithAlertRules(rules ...AlertRule) Option {
	return func(o *options) { o.alertRules = append(o.alertRules, rules...) }
}

// WithShutdownTimeout bounds how long Close waits for the HTTP server.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.shutdownTimeout = d }
}
