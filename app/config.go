package app

import (
	"net/url"
	"strings"
	"time"

	"github.com/JiscSD/cessda-fair-checker/vocab"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const defaultConfig = `# CESSDA FAIR Checker

################################## LOGGING ####################################

[logging]

#
# Logging verbosity level.
# Supported values: "DEBUG", "INFO", "WARN", "ERROR", "FATAL" or "PANIC".
#
level = "WARN"

#
# Log format, "text" or "json". Logs are always written to stderr.
#
format = "text"

################################## ENDPOINTS ##################################

[endpoints]

#
# CESSDA Data Catalogue OAI-PMH endpoint. Records are requested with
# verb=GetRecord and metadataPrefix=oai_ddi25.
#
oai_pmh = "https://datacatalogue.cessda.eu/oai-pmh/v0/oai"

#
# SKG-IF topics API used to confirm ELSST keywords.
#
elsst_topics = "https://skg-if-openapi.cessda.eu/api/topics"

#
# CESSDA Vocabulary Service, one JSON document per controlled vocabulary.
#
[endpoints.vocabularies]
access-rights = "https://vocabularies.cessda.eu/v2/vocabularies/CessdaAccessRights/1.0.0?languageVersion=en-1.0.0&format=json"
pid-schemes = "https://vocabularies.cessda.eu/v2/vocabularies/CessdaPersistentIdentifierTypes/1.0.0?languageVersion=en-1.0.0&format=json"
topic-classification = "https://vocabularies.cessda.eu/v2/vocabularies/TopicClassification/4.0.0?languageVersion=en-4.0.0&format=json"
analysis-unit = "https://vocabularies.cessda.eu/v2/vocabularies/AnalysisUnit/1.2.0?languageVersion=en-1.2.0&format=json"
time-method = "https://vocabularies.cessda.eu/v2/vocabularies/TimeMethod/1.2.1?languageVersion=en-1.2.1&format=json"
sampling-procedure = "https://vocabularies.cessda.eu/v2/vocabularies/SamplingProcedure/2.0.0?languageVersion=en-2.0.0&format=json"
collection-mode = "https://vocabularies.cessda.eu/v2/vocabularies/ModeOfCollection/4.0.0?languageVersion=en-4.0.0&format=json"

################################## TIMEOUTS ###################################

[timeouts]

dial = "10s"
metadata = "30s"
vocabulary = "20s"
keywords = "30s"

#################################### HTTP #####################################

[http]

#
# Additional attempts made after a network or server error. Zero means that
# every request is attempted once.
#
retries = 0

user_agent = "cessda-fair-checker"

################################### ELSST #####################################

[elsst]

#
# Maximum number of concurrent keyword queries per check.
#
parallelism = 4

################################### SERVER ####################################

[server]

addr = ":6060"
`

type Config struct {
	v *viper.Viper

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`

	Endpoints struct {
		OAIPMH       string            `mapstructure:"oai_pmh"`
		ELSSTTopics  string            `mapstructure:"elsst_topics"`
		Vocabularies map[string]string `mapstructure:"vocabularies"`
	} `mapstructure:"endpoints"`

	Timeouts struct {
		Dial       time.Duration `mapstructure:"dial"`
		Metadata   time.Duration `mapstructure:"metadata"`
		Vocabulary time.Duration `mapstructure:"vocabulary"`
		Keywords   time.Duration `mapstructure:"keywords"`
	} `mapstructure:"timeouts"`

	HTTP struct {
		Retries   uint64 `mapstructure:"retries"`
		UserAgent string `mapstructure:"user_agent"`
	} `mapstructure:"http"`

	ELSST struct {
		Parallelism int `mapstructure:"parallelism"`
	} `mapstructure:"elsst"`

	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
}

// Validate checks the endpoints and the raw timeout values.
func (c Config) Validate() error {
	endpoints := map[string]string{
		"endpoints.oai_pmh":      c.Endpoints.OAIPMH,
		"endpoints.elsst_topics": c.Endpoints.ELSSTTopics,
	}
	for name, u := range c.Endpoints.Vocabularies {
		if _, ok := vocab.DefaultURLs[vocab.Category(name)]; !ok {
			return errors.Errorf("endpoints.vocabularies.%s: %v", name, vocab.ErrUnknownCategory)
		}
		endpoints["endpoints.vocabularies."+name] = u
	}
	for name, u := range endpoints {
		if err := validateURL(u); err != nil {
			return errors.Wrap(err, name)
		}
	}

	if c.v != nil {
		for name, raw := range c.v.GetStringMap("timeouts") {
			d, err := cast.ToDurationE(raw)
			if err != nil {
				return errors.Wrapf(err, "timeouts.%s", name)
			}
			if d <= 0 {
				return errors.Errorf("timeouts.%s: must be positive", name)
			}
		}
	}

	if c.ELSST.Parallelism < 1 {
		return errors.New("elsst.parallelism: must be at least 1")
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("unsupported URL %q", raw)
	}
	return nil
}

// VocabularyURLs returns the configured vocabulary URLs by category.
func (c Config) VocabularyURLs() map[vocab.Category]string {
	urls := make(map[vocab.Category]string, len(c.Endpoints.Vocabularies))
	for name, u := range c.Endpoints.Vocabularies {
		urls[vocab.Category(name)] = u
	}
	return urls
}

func (c Config) String() string {
	if c.v == nil {
		return ""
	}
	// Write from a copy so the loaded instance keeps its file system.
	fs := afero.NewMemMapFs()
	w := viper.New()
	w.SetFs(fs)
	if err := w.MergeConfigMap(c.v.AllSettings()); err != nil {
		return err.Error()
	}
	const name = "/config.toml"
	if err := w.WriteConfigAs(name); err != nil {
		return err.Error()
	}
	blob, err := afero.ReadFile(fs, name)
	if err != nil {
		return err.Error()
	}
	return string(blob)
}

// loadConfig reads the defaults, the user file (path, or the first one found
// in the search paths) and the environment into c.
func loadConfig(fs afero.Fs, path string, c *Config) error {
	v := viper.New()
	v.SetFs(fs)

	v.SetEnvPrefix("CESSDA_FAIR_CHECKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("cessda-fair-checker")
	v.SetConfigType("toml")
	v.AddConfigPath("$HOME/.config/")
	v.AddConfigPath("/etc/cessda/")

	if path != "" {
		v.SetConfigFile(path)
	}

	// Read our default configuration.
	if err := v.ReadConfig(strings.NewReader(defaultConfig)); err != nil {
		panic(err) // Not in the user path.
	}

	// Include configuration file provided by the user.
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "configuration file could not be read")
		}
	}

	if err := v.Unmarshal(c); err != nil {
		return errors.Wrap(err, "configuration unmarshaling failed")
	}

	c.v = v

	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "config did not pass validation")
	}

	return nil
}
