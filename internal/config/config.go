package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"sigs.k8s.io/yaml"
)

type Config struct {
	Database *dbConfig     `json:"database"`
	Service  *svcConfig    `json:"service"`
	Export   *exportConfig `json:"export"`
	Import   *importConfig `json:"import"`
}

// dbConfig selects the run catalog. An empty Type disables it.
type dbConfig struct {
	Type     string `envconfig:"GEOPHYGIS_DB_TYPE" default:"" json:"type" validate:"omitempty,oneof=sqlite pgsql"`
	Hostname string `envconfig:"GEOPHYGIS_DB_HOST" default:"localhost" json:"hostname"`
	Port     string `envconfig:"GEOPHYGIS_DB_PORT" default:"5432" json:"port"`
	Name     string `envconfig:"GEOPHYGIS_DB_NAME" default:"geophygis.db" json:"name"`
	User     string `envconfig:"GEOPHYGIS_DB_USER" default:"geophygis" json:"user"`
	Password string `envconfig:"GEOPHYGIS_DB_PASS" default:"" json:"password"`
}

type svcConfig struct {
	LogLevel    string `envconfig:"GEOPHYGIS_LOG_LEVEL" default:"info" json:"logLevel" validate:"oneof=debug info warn error"`
	MetricsFile string `envconfig:"GEOPHYGIS_METRICS_FILE" default:"" json:"metricsFile"`

	// MeasureMode is planar for projected line coordinates, geodesic for lon/lat.
	MeasureMode string `envconfig:"GEOPHYGIS_MEASURE_MODE" default:"planar" json:"measureMode" validate:"oneof=planar geodesic"`
}

type exportConfig struct {
	// MedianWindow is the requested moving average window, 0 disables smoothing.
	MedianWindow int `envconfig:"GEOPHYGIS_MEDIAN_WINDOW" default:"0" json:"medianWindow" validate:"eq=0|min=3,max=13"`

	NullValue      float64 `envconfig:"GEOPHYGIS_NULL_VALUE" default:"-9999" json:"nullValue"`
	IDField        string  `envconfig:"GEOPHYGIS_ID_FIELD" default:"ID" json:"idField" validate:"required"`
	DistanceField  string  `envconfig:"GEOPHYGIS_DISTANCE_FIELD" default:"distance" json:"distanceField" validate:"required"`
	ElevationField string  `envconfig:"GEOPHYGIS_ELEVATION_FIELD" default:"DEM_1" json:"elevationField" validate:"required"`

	ParameterFile string `envconfig:"GEOPHYGIS_IVP_FILE" default:"" json:"parameterFile"`
	InversionTool string `envconfig:"GEOPHYGIS_INVERSION_TOOL" default:"" json:"inversionTool"`
}

type importConfig struct {
	DeviceHeaders bool `envconfig:"GEOPHYGIS_DEVICE_HEADERS" default:"false" json:"deviceHeaders"`
	Workbook      bool `envconfig:"GEOPHYGIS_WORKBOOK" default:"true" json:"workbook"`
}

// NewDefault returns the configuration loaded from the environment.
func NewDefault() (*Config, error) {
	return load()
}

// NewFromFile loads the environment defaults and overlays the YAML file at path.
// Keys missing from the file keep their environment value.
func NewFromFile(path string) (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return cfg, nil
}

func load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	v := validator.New()
	for _, s := range []any{c.Database, c.Service, c.Export, c.Import} {
		if err := v.Struct(s); err != nil {
			return fmt.Errorf("invalid configuration: %s", describe(err))
		}
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s=%v violates %s", fe.Field(), fe.Value(), fe.Tag()))
	}
	return strings.Join(msgs, ", ")
}

