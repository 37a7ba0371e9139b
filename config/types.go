package config

// AppConfig is the whole service configuration, read from config.yml.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Projection ProjectionConfig `yaml:"projection"`
	Graph      GraphConfig      `yaml:"graph"`
	Navigation NavigationConfig `yaml:"navigation"`
	Feed       FeedConfig       `yaml:"feed"`
	Storage    StorageConfig    `yaml:"storage"`
}

type ServerConfig struct {
	Addr             string `yaml:"addr" validate:"required"`
	JWTSecret        string `yaml:"jwtSecret" validate:"required"`
	TokenTTLHours    int    `yaml:"tokenTTLHours" validate:"gt=0"`
	StreamIntervalMS int    `yaml:"streamIntervalMS" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver" validate:"oneof=postgres mysql sqlite"`
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	Path       string `yaml:"path" validate:"required_if=Driver sqlite"`
	MaxRetries int    `yaml:"maxRetries" validate:"gte=0"`
}

// ProjectionConfig has no defaults: a missing reference or scale is fatal.
// The reference is held by pointer so an absent key differs from 0.
type ProjectionConfig struct {
	ReferenceLatitude  *float64 `yaml:"referenceLatitude" validate:"required,gte=-90,lte=90"`
	ReferenceLongitude *float64 `yaml:"referenceLongitude" validate:"required,gte=-180,lte=180"`
	MetersPerDegreeLat float64  `yaml:"metersPerDegreeLat" validate:"gt=0"`
	MetersPerDegreeLon float64  `yaml:"metersPerDegreeLon" validate:"gt=0"`
}

type SourceConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Location string `yaml:"location" validate:"required"`
	Format   string `yaml:"format" validate:"omitempty,oneof=geojson osm"`
}

type GraphConfig struct {
	Root           string         `yaml:"root"`
	Tolerance      float64        `yaml:"tolerance" validate:"gt=0"`
	OneWayProperty string         `yaml:"oneWayProperty" validate:"required"`
	POIProperty    string         `yaml:"poiProperty"`
	Sources        []SourceConfig `yaml:"sources" validate:"dive"`
}

type NavigationConfig struct {
	Route                        string  `yaml:"route" validate:"required"`
	InstructionDistanceThreshold float64 `yaml:"instructionDistanceThreshold" validate:"gt=0"`
	PassThroughDistance          float64 `yaml:"passThroughDistance" validate:"gt=0"`
	DriftThreshold               float64 `yaml:"driftThreshold" validate:"gt=0"`
	CorrectionLerp               float64 `yaml:"correctionLerp" validate:"gt=0,lte=1"`
	ScaleFactor                  float64 `yaml:"scaleFactor" validate:"gt=0"`
	AutoCorrection               bool    `yaml:"autoCorrection"`
	EyeHeight                    float64 `yaml:"eyeHeight" validate:"gte=0"`
	TickIntervalMS               int     `yaml:"tickIntervalMS" validate:"gt=0"`
}

type FeedConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`
}

// KafkaConfig is optional. Without a topic, positions only arrive over HTTP.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" validate:"required_with=Topic"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"groupID"`
}

type StorageConfig struct {
	Minio MinioConfig `yaml:"minio"`
}

// MinioConfig is optional. With an endpoint, graph sources are read from the bucket instead of Graph.Root.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket" validate:"required_with=Endpoint"`
	UseSSL    bool   `yaml:"useSSL"`
}

// Default returns the configuration used for any key config.yml leaves out.
func Default() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			Addr:             ":8080",
			JWTSecret:        "change-me",
			TokenTTLHours:    24,
			StreamIntervalMS: 500,
		},
		Database: DatabaseConfig{
			Driver:     "postgres",
			Host:       "localhost",
			Port:       "5432",
			User:       "navuser",
			Password:   "navpassword",
			Name:       "arnav",
			MaxRetries: 30,
		},
		Graph: GraphConfig{
			Root:           ".",
			Tolerance:      1e-5,
			OneWayProperty: "oneway",
			POIProperty:    "name",
		},
		Navigation: NavigationConfig{
			Route:                        "default",
			InstructionDistanceThreshold: 5.0,
			PassThroughDistance:          1.2,
			DriftThreshold:               2.0,
			CorrectionLerp:               0.05,
			ScaleFactor:                  1.0,
			AutoCorrection:               true,
			EyeHeight:                    1.5,
			TickIntervalMS:               100,
		},
	}
}
