// Package grkruntime holds the process-wide handle the rest of the codec
// reaches for instead of global state: thread count, logger, and the
// environment-derived configuration spec.md §6 enumerates.
package grkruntime

import (
	"os"
	"runtime"
	"sync"

	"github.com/caarlos0/env/v9"
	"github.com/rs/zerolog"
)

// Config binds the environment variables spec.md §6 recognises.
type Config struct {
	SingleThreaded bool   `env:"GRK_TEST_SINGLE"`
	DebugLevel     int    `env:"GRK_DEBUG" envDefault:"0"`
	AWSRegion      string `env:"AWS_REGION"`
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSSessionTok  string `env:"AWS_SESSION_TOKEN"`
	AWSProfile     string `env:"AWS_PROFILE"`
	AWSS3Endpoint  string `env:"AWS_S3_ENDPOINT"`
	AWSVirtualHost bool   `env:"AWS_VIRTUAL_HOSTING"`
	AWSHTTPS       bool   `env:"AWS_HTTPS" envDefault:"true"`
	AWSNoSign      bool   `env:"AWS_NO_SIGN_REQUEST"`
	CurlTimeout    int    `env:"CPL_VSIL_CURL_TIMEOUT" envDefault:"30"`
}

// LoadConfig parses Config from the process environment. A parse failure
// (malformed bool/int) is non-fatal: the zero-value field is kept and the
// error is returned so callers can log it through their own Runtime.
func LoadConfig() (Config, error) {
	var c Config
	err := env.Parse(&c)
	return c, err
}

// Runtime is the explicit, non-global handle described in spec.md §9's
// design notes ("Global init state... becomes an explicit Runtime handle").
type Runtime struct {
	Logger     zerolog.Logger
	Config     Config
	NumThreads int
}

// New builds a Runtime from the process environment. Logging defaults to
// silent (zerolog.Nop) so the library never writes to stderr uninvited;
// callers that want output call WithLogger.
func New() *Runtime {
	cfg, _ := LoadConfig()
	threads := runtime.GOMAXPROCS(0)
	if cfg.SingleThreaded {
		threads = 1
	}
	return &Runtime{
		Logger:     zerolog.Nop(),
		Config:     cfg,
		NumThreads: threads,
	}
}

// WithLogger returns a copy of r using the given logger.
func (r *Runtime) WithLogger(l zerolog.Logger) *Runtime {
	cp := *r
	cp.Logger = l
	return &cp
}

var (
	defaultOnce sync.Once
	defaultRT   *Runtime
)

// Default lazily constructs the process-wide default Runtime. Not required
// — callers are free to build and thread their own — but convenient for
// package-level entry points (Decode, DecodeConfig) that take no Runtime.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultRT = New()
		if lvl := defaultRT.Config.DebugLevel; lvl > 0 {
			w := zerolog.ConsoleWriter{Out: os.Stderr}
			zlvl := zerolog.ErrorLevel
			switch {
			case lvl >= 5:
				zlvl = zerolog.TraceLevel
			case lvl >= 4:
				zlvl = zerolog.DebugLevel
			case lvl >= 3:
				zlvl = zerolog.InfoLevel
			case lvl >= 2:
				zlvl = zerolog.WarnLevel
			}
			defaultRT.Logger = zerolog.New(w).Level(zlvl).With().Timestamp().Logger()
		}
	})
	return defaultRT
}
