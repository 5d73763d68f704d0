package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/facetag/internal/constants"
	"gopkg.in/yaml.v3"
)

//go:embed identities.yaml
var identitiesYAML []byte

// Backend names accepted by FACE_BACKEND.
const (
	BackendDlib   = "dlib"
	BackendRemote = "remote"
)

// Detection buffer policies accepted by DETECT_POLICY.
const (
	PolicyFit   = "fit"
	PolicyFixed = "fixed"
)

type Config struct {
	Models    ModelsConfig
	Embedding EmbeddingConfig
	Matcher   MatcherConfig
	Detection DetectionConfig
	Reference ReferenceConfig
	Web       WebConfig
	Roster    Roster
}

type ModelsConfig struct {
	Backend string // dlib or remote, defaults to dlib
	Dir     string // directory holding the dlib model files, defaults to ./models
	CNN     bool   // use the CNN face detector instead of HOG (dlib only)
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
}

type MatcherConfig struct {
	Threshold float64 // defaults to 0.6
	Strategy  string  // mean or nearest, defaults to mean
}

type DetectionConfig struct {
	Policy      string // fit or fixed, defaults to fit
	MaxSize     int    // longest side of the detection buffer under "fit"
	FixedWidth  int    // canvas width under "fixed"
	FixedHeight int    // canvas height under "fixed"
}

type ReferenceConfig struct {
	URL            string // overrides the roster's reference_url template
	Dir            string // local directory source, takes precedence over URL
	Count          int    // overrides the roster's images_per_identity
	TimeoutSeconds int
	IdentitiesFile string // optional YAML roster replacing the embedded one
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string
	AllowedOrigins []string
}

// Roster is the list of known identities and where their reference images live.
type Roster struct {
	ReferenceURL      string   `yaml:"reference_url"`
	ImagesPerIdentity int      `yaml:"images_per_identity"`
	Identities        []string `yaml:"identities"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

func envBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseRoster decodes a YAML roster and applies defaults.
func ParseRoster(data []byte) (Roster, error) {
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Roster{}, fmt.Errorf("parsing roster: %w", err)
	}
	if len(r.Identities) == 0 {
		return Roster{}, errors.New("roster lists no identities")
	}
	seen := make(map[string]struct{}, len(r.Identities))
	for _, name := range r.Identities {
		if strings.TrimSpace(name) == "" {
			return Roster{}, errors.New("roster contains an empty identity name")
		}
		if _, dup := seen[name]; dup {
			return Roster{}, fmt.Errorf("roster lists %q twice", name)
		}
		seen[name] = struct{}{}
	}
	if r.ImagesPerIdentity <= 0 {
		r.ImagesPerIdentity = constants.DefaultReferenceCount
	}
	return r, nil
}

// LoadRosterFile reads a roster from disk.
func LoadRosterFile(path string) (Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("reading roster file: %w", err)
	}
	return ParseRoster(data)
}

func Load() *Config {
	roster, err := ParseRoster(identitiesYAML)
	if err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to parse embedded identities.yaml: " + err.Error())
	}

	return &Config{
		Models: ModelsConfig{
			Backend: strings.ToLower(envString("FACE_BACKEND", BackendDlib)),
			Dir:     envString("MODELS_DIR", "./models"),
			CNN:     envBool("FACE_CNN"),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
		},
		Matcher: MatcherConfig{
			Threshold: envFloat("MATCH_THRESHOLD", constants.DefaultMatchThreshold),
			Strategy:  strings.ToLower(envString("MATCH_STRATEGY", "mean")),
		},
		Detection: DetectionConfig{
			Policy:      strings.ToLower(envString("DETECT_POLICY", PolicyFit)),
			MaxSize:     envInt("DETECT_MAX_SIZE", constants.MaxImageSize),
			FixedWidth:  envInt("DETECT_FIXED_WIDTH", constants.FixedCanvasWidth),
			FixedHeight: envInt("DETECT_FIXED_HEIGHT", constants.FixedCanvasHeight),
		},
		Reference: ReferenceConfig{
			URL:            os.Getenv("REFERENCE_URL"),
			Dir:            os.Getenv("REFERENCE_DIR"),
			Count:          envInt("REFERENCE_COUNT", 0),
			TimeoutSeconds: envInt("REFERENCE_TIMEOUT_SECONDS", constants.DefaultReferenceTimeoutSeconds),
			IdentitiesFile: os.Getenv("IDENTITIES_FILE"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", constants.DefaultWebHost),
			Port:           envInt("WEB_PORT", constants.DefaultWebPort),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Roster: roster,
	}
}

// ResolveRoster replaces the embedded roster with IDENTITIES_FILE when set and
// applies REFERENCE_URL / REFERENCE_COUNT overrides.
func (c *Config) ResolveRoster() error {
	if c.Reference.IdentitiesFile != "" {
		r, err := LoadRosterFile(c.Reference.IdentitiesFile)
		if err != nil {
			return err
		}
		c.Roster = r
	}
	if c.Reference.URL != "" {
		c.Roster.ReferenceURL = c.Reference.URL
	}
	if c.Reference.Count > 0 {
		c.Roster.ImagesPerIdentity = c.Reference.Count
	}
	return nil
}

// Validate checks values that cannot be defaulted silently.
func (c *Config) Validate() error {
	switch c.Models.Backend {
	case BackendDlib, BackendRemote:
	default:
		return fmt.Errorf("FACE_BACKEND must be %q or %q, got %q", BackendDlib, BackendRemote, c.Models.Backend)
	}
	switch c.Matcher.Strategy {
	case "mean", "nearest":
	default:
		return fmt.Errorf("MATCH_STRATEGY must be mean or nearest, got %q", c.Matcher.Strategy)
	}
	switch c.Detection.Policy {
	case PolicyFit, PolicyFixed:
	default:
		return fmt.Errorf("DETECT_POLICY must be %q or %q, got %q", PolicyFit, PolicyFixed, c.Detection.Policy)
	}
	if c.Reference.Dir == "" && c.Roster.ReferenceURL == "" {
		return errors.New("either REFERENCE_DIR or a reference_url template is required")
	}
	return nil
}
