package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	OutputFile    string  `mapstructure:"output_file" yaml:"output_file"`
	OutputFormat  string  `mapstructure:"output_format" yaml:"output_format" validate:"oneof=csv json html pdf"`
	RiskThreshold float64 `mapstructure:"risk_threshold" yaml:"risk_threshold" validate:"gte=0,lte=1"`

	// Synthetic labels
	LabelSeed      int64   `mapstructure:"label_seed" yaml:"label_seed"`
	LabelNoiseStd  float64 `mapstructure:"label_noise_std" yaml:"label_noise_std" validate:"gte=0"`
	LabelThreshold float64 `mapstructure:"label_threshold" yaml:"label_threshold"`
	// LabelColumn names an observed churn column; empty means synthesize.
	LabelColumn string `mapstructure:"label_column" yaml:"label_column"`

	ResolveMode string `mapstructure:"resolve_mode" yaml:"resolve_mode" validate:"oneof=exclusive independent"`
	// Delimiter is a single character, "tab", or empty to sniff by extension.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter" validate:"omitempty,max=3"`

	// Logistic regression
	ModelEpochs       int     `mapstructure:"model_epochs" yaml:"model_epochs" validate:"gte=0"`
	ModelLearningRate float64 `mapstructure:"model_learning_rate" yaml:"model_learning_rate" validate:"gte=0"`
	// ModelL2 is the inverse regularization strength C; 0 disables the penalty.
	ModelL2 float64 `mapstructure:"model_l2" yaml:"model_l2" validate:"gte=0"`
}

// Keys lists the configuration keys in display order.
func Keys() []string {
	return []string{
		"output_file", "output_format", "risk_threshold",
		"label_seed", "label_noise_std", "label_threshold", "label_column",
		"resolve_mode", "delimiter",
		"model_epochs", "model_learning_rate", "model_l2",
	}
}

// DefaultPath returns ~/.churnguard/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".churnguard", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.churnguard/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_file", "churn_prediction_results.csv")
	v.SetDefault("output_format", "csv")
	v.SetDefault("risk_threshold", 0.75)
	v.SetDefault("label_seed", 42)
	v.SetDefault("label_noise_std", 0.15)
	v.SetDefault("label_threshold", 0.3)
	v.SetDefault("label_column", "")
	v.SetDefault("resolve_mode", "exclusive")
	v.SetDefault("delimiter", "")
	// Model defaults
	v.SetDefault("model_epochs", 500)
	v.SetDefault("model_learning_rate", 0.5)
	v.SetDefault("model_l2", 1.0)
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CHURNGUARD")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, a broken one is not
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks value ranges and enumerations using the struct tags.
func (c *Global) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Get returns the display value of key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "output_file":
		return c.OutputFile, nil
	case "output_format":
		return c.OutputFormat, nil
	case "risk_threshold":
		return strconv.FormatFloat(c.RiskThreshold, 'f', -1, 64), nil
	case "label_seed":
		return strconv.FormatInt(c.LabelSeed, 10), nil
	case "label_noise_std":
		return strconv.FormatFloat(c.LabelNoiseStd, 'f', -1, 64), nil
	case "label_threshold":
		return strconv.FormatFloat(c.LabelThreshold, 'f', -1, 64), nil
	case "label_column":
		return c.LabelColumn, nil
	case "resolve_mode":
		return c.ResolveMode, nil
	case "delimiter":
		return c.Delimiter, nil
	case "model_epochs":
		return strconv.Itoa(c.ModelEpochs), nil
	case "model_learning_rate":
		return strconv.FormatFloat(c.ModelLearningRate, 'f', -1, 64), nil
	case "model_l2":
		return strconv.FormatFloat(c.ModelL2, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Set parses val and assigns it to key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "output_file":
		c.OutputFile = val
	case "output_format":
		switch f := strings.ToLower(val); f {
		case "csv", "json", "html", "pdf":
			c.OutputFormat = f
		default:
			return fmt.Errorf("invalid output_format: %s (use csv, json, html or pdf)", val)
		}
	case "risk_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("invalid probability for risk_threshold: %v", val)
		}
		c.RiskThreshold = f
	case "label_seed":
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for label_seed: %w", err)
		}
		c.LabelSeed = i
	case "label_noise_std":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for label_noise_std: %v", val)
		}
		c.LabelNoiseStd = f
	case "label_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for label_threshold: %w", err)
		}
		c.LabelThreshold = f
	case "label_column":
		c.LabelColumn = val
	case "resolve_mode":
		switch m := strings.ToLower(val); m {
		case "exclusive", "independent":
			c.ResolveMode = m
		default:
			return fmt.Errorf("invalid resolve_mode: %s (use exclusive or independent)", val)
		}
	case "delimiter":
		if val != "" && val != "tab" && len([]rune(val)) != 1 {
			return fmt.Errorf("invalid delimiter: %q (use a single character or tab)", val)
		}
		c.Delimiter = val
	case "model_epochs":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for model_epochs: %v", val)
		}
		c.ModelEpochs = i
	case "model_learning_rate":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid float for model_learning_rate: %v", val)
		}
		c.ModelLearningRate = f
	case "model_l2":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for model_l2: %v", val)
		}
		c.ModelL2 = f
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// DelimiterRune maps the delimiter setting to a rune; 0 means sniff.
func (c *Global) DelimiterRune() rune {
	switch c.Delimiter {
	case "":
		return 0
	case "tab", `\t`:
		return '\t'
	default:
		return []rune(c.Delimiter)[0]
	}
}
