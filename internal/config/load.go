package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/phrazzld/testsize/internal/selector"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TESTSIZE"

// Short environment names for the selection, read by both Load and
// LoadSelect. They take the same values as TESTSIZE_SELECT_*.
const (
	EnvInclude     = "TESTSIZE_INCLUDE"
	EnvExclude     = "TESTSIZE_EXCLUDE"
	EnvExpr        = "TESTSIZE_EXPR"
	EnvDefaultSize = "TESTSIZE_DEFAULT_SIZE"
)

// ConfigName is the base name of the optional config file.
const ConfigName = ".testsize"

var (
	// ErrInvalidConfig is returned when loaded values fail validation.
	ErrInvalidConfig = errors.New("validation failed")

	// ErrReadConfig is returned when a config file exists but cannot be read
	// or parsed.
	ErrReadConfig = errors.New("error reading config")
)

// Load reads configuration from defaults, an optional config file and
// environment variables, in increasing order of precedence.
//
// When configPath is empty, a .testsize.yaml file is searched for in
// searchDirs and then in the working directory; a missing file is not an
// error. Environment variables use the TESTSIZE_ prefix with sections joined
// by underscores (TESTSIZE_LOG_LEVEL, TESTSIZE_SCAN_WORKERS).
func Load(configPath string, searchDirs ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadConfig, err)
		}
		v.SetConfigFile(configPath)
	} else {
		for _, dir := range searchDirs {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}

	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %v", ErrReadConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadConfig, err)
	}
	cfg.Select.normalize()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadSelect reads only the selection from the environment. Test binaries
// use it, so it never touches config files.
func LoadSelect() (*SelectConfig, error) {
	v := viper.New()
	bindEnv(v)

	var sel SelectConfig
	sel.Include = v.GetStringSlice("select.include")
	sel.Exclude = v.GetStringSlice("select.exclude")
	sel.Expr = v.GetString("select.expr")
	sel.DefaultSize = v.GetString("select.default_size")
	sel.normalize()

	if err := newValidator().Struct(&sel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &sel, nil
}

// Validate checks cfg against its struct rules.
func Validate(cfg *Config) error {
	if err := newValidator().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("scan.root", "")
	v.SetDefault("scan.import_path", DefaultImportPath)
	v.SetDefault("scan.skip_dirs", []string{})
	v.SetDefault("scan.workers", 4)
	v.SetDefault("select.include", []string{})
	v.SetDefault("select.exclude", []string{})
	v.SetDefault("select.expr", "")
	v.SetDefault("select.default_size", "")
	v.SetDefault("output.format", "text")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// BindEnv only fails when called without a key.
	_ = v.BindEnv("select.include", EnvPrefix+"_SELECT_INCLUDE", EnvInclude)
	_ = v.BindEnv("select.exclude", EnvPrefix+"_SELECT_EXCLUDE", EnvExclude)
	_ = v.BindEnv("select.expr", EnvPrefix+"_SELECT_EXPR", EnvExpr)
	_ = v.BindEnv("select.default_size", EnvPrefix+"_SELECT_DEFAULT_SIZE", EnvDefaultSize)
}

func newValidator() *validator.Validate {
	validate := validator.New()
	// Registration only fails for an empty tag name or a nil function.
	_ = validate.RegisterValidation("tag", func(fl validator.FieldLevel) bool {
		return selector.ValidTag(fl.Field().String())
	})
	_ = validate.RegisterValidation("expr", func(fl validator.FieldLevel) bool {
		_, err := selector.New(selector.Options{Expr: fl.Field().String()})
		return err == nil
	})
	return validate
}
