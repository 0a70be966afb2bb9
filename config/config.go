// Copyright 2020 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const (
	UserBased = "users"
	ItemBased = "items"
)

// Config is the configuration of an evaluation run.
type Config struct {
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Predictor PredictorConfig `mapstructure:"predictor"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Eval      EvalConfig      `mapstructure:"eval"`
	Meta      MetaConfig      `mapstructure:"meta"`
}

// DatasetConfig selects the ratings. A built-in dataset is used unless path is set.
type DatasetConfig struct {
	Name      string  `mapstructure:"name" validate:"required_without=Path"`
	Path      string  `mapstructure:"path"`
	TestPath  string  `mapstructure:"test_path"`
	Separator string  `mapstructure:"separator" validate:"required_with=Path"`
	Header    bool    `mapstructure:"header"`
	TestRatio float64 `mapstructure:"test_ratio" validate:"gte=0,lt=1"`
	Seed      int64   `mapstructure:"seed"`
}

type PredictorConfig struct {
	Name            string  `mapstructure:"name" validate:"oneof=random basic_collaborative baseline_only neighborhood_with_baseline analogy gilles knn_bellkor"`
	Orientation     string  `mapstructure:"orientation" validate:"oneof=users items"`
	K               int     `mapstructure:"k" validate:"gt=0"`
	Baseline        string  `mapstructure:"baseline" validate:"oneof=sgd shrinkage"`
	Lr              float64 `mapstructure:"lr" validate:"gt=0"`
	Reg             float64 `mapstructure:"reg" validate:"gte=0"`
	NEpochs         int     `mapstructure:"n_epochs" validate:"gt=0"`
	RegUser         float64 `mapstructure:"reg_user" validate:"gte=0"`
	RegItem         float64 `mapstructure:"reg_item" validate:"gte=0"`
	WeightReg       float64 `mapstructure:"weight_reg" validate:"gte=0"`
	WarmStart       bool    `mapstructure:"warm_start"`
	NTrials         int     `mapstructure:"n_trials" validate:"gt=0"`
	TruthValue      string  `mapstructure:"truth_value" validate:"oneof=a a_star"`
	Margin          float64 `mapstructure:"margin" validate:"gt=0"`
	GillesWeighting string  `mapstructure:"gilles_weighting" validate:"oneof=uniform norm support"`
	Seed            int64   `mapstructure:"seed"`
	Jobs            int     `mapstructure:"jobs" validate:"gt=0"`
}

// CacheConfig locates the similarity cache. An empty store disables caching.
type CacheConfig struct {
	Store string          `mapstructure:"store"`
	S3    S3Config        `mapstructure:"s3"`
	GCS   GCSConfig       `mapstructure:"gcs"`
	Azure AzureBlobConfig `mapstructure:"azure"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type AzureBlobConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
}

type EvalConfig struct {
	ImpossibleDefault float64 `mapstructure:"impossible_default" validate:"gte=1,lte=5"`
	ExcludeImpossible bool    `mapstructure:"exclude_impossible"`
	MAESqrt           bool    `mapstructure:"mae_sqrt"`
	Verbose           bool    `mapstructure:"verbose"`
}

// MetaConfig locates the run history. An empty path disables recording.
type MetaConfig struct {
	Path string `mapstructure:"path"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Name:      "ml-100k",
			Separator: "\t",
			TestRatio: 0.2,
		},
		Predictor: PredictorConfig{
			Name:            "analogy",
			Orientation:     UserBased,
			K:               40,
			Baseline:        "sgd",
			Lr:              0.005,
			Reg:             0.02,
			NEpochs:         20,
			RegUser:         10,
			RegItem:         25,
			WeightReg:       0.002,
			NTrials:         1000,
			TruthValue:      "a",
			Margin:          1.5,
			GillesWeighting: "uniform",
			Jobs:            1,
		},
		Eval: EvalConfig{
			ImpossibleDefault: 3,
		},
		Meta: MetaConfig{
			Path: "sqlite://runs.db",
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	viper.SetDefault("dataset.name", defaultConfig.Dataset.Name)
	viper.SetDefault("dataset.path", defaultConfig.Dataset.Path)
	viper.SetDefault("dataset.test_path", defaultConfig.Dataset.TestPath)
	viper.SetDefault("dataset.separator", defaultConfig.Dataset.Separator)
	viper.SetDefault("dataset.header", defaultConfig.Dataset.Header)
	viper.SetDefault("dataset.test_ratio", defaultConfig.Dataset.TestRatio)
	viper.SetDefault("dataset.seed", defaultConfig.Dataset.Seed)
	// [predictor]
	viper.SetDefault("predictor.name", defaultConfig.Predictor.Name)
	viper.SetDefault("predictor.orientation", defaultConfig.Predictor.Orientation)
	viper.SetDefault("predictor.k", defaultConfig.Predictor.K)
	viper.SetDefault("predictor.baseline", defaultConfig.Predictor.Baseline)
	viper.SetDefault("predictor.lr", defaultConfig.Predictor.Lr)
	viper.SetDefault("predictor.reg", defaultConfig.Predictor.Reg)
	viper.SetDefault("predictor.n_epochs", defaultConfig.Predictor.NEpochs)
	viper.SetDefault("predictor.reg_user", defaultConfig.Predictor.RegUser)
	viper.SetDefault("predictor.reg_item", defaultConfig.Predictor.RegItem)
	viper.SetDefault("predictor.weight_reg", defaultConfig.Predictor.WeightReg)
	viper.SetDefault("predictor.warm_start", defaultConfig.Predictor.WarmStart)
	viper.SetDefault("predictor.n_trials", defaultConfig.Predictor.NTrials)
	viper.SetDefault("predictor.truth_value", defaultConfig.Predictor.TruthValue)
	viper.SetDefault("predictor.margin", defaultConfig.Predictor.Margin)
	viper.SetDefault("predictor.gilles_weighting", defaultConfig.Predictor.GillesWeighting)
	viper.SetDefault("predictor.seed", defaultConfig.Predictor.Seed)
	viper.SetDefault("predictor.jobs", defaultConfig.Predictor.Jobs)
	// [cache]
	viper.SetDefault("cache.store", defaultConfig.Cache.Store)
	viper.SetDefault("cache.s3.endpoint", defaultConfig.Cache.S3.Endpoint)
	viper.SetDefault("cache.s3.access_key_id", defaultConfig.Cache.S3.AccessKeyID)
	viper.SetDefault("cache.s3.secret_access_key", defaultConfig.Cache.S3.SecretAccessKey)
	viper.SetDefault("cache.s3.use_ssl", defaultConfig.Cache.S3.UseSSL)
	viper.SetDefault("cache.gcs.credentials_file", defaultConfig.Cache.GCS.CredentialsFile)
	viper.SetDefault("cache.azure.connection_string", defaultConfig.Cache.Azure.ConnectionString)
	viper.SetDefault("cache.azure.account_name", defaultConfig.Cache.Azure.AccountName)
	viper.SetDefault("cache.azure.account_key", defaultConfig.Cache.Azure.AccountKey)
	viper.SetDefault("cache.azure.endpoint", defaultConfig.Cache.Azure.Endpoint)
	// [eval]
	viper.SetDefault("eval.impossible_default", defaultConfig.Eval.ImpossibleDefault)
	viper.SetDefault("eval.exclude_impossible", defaultConfig.Eval.ExcludeImpossible)
	viper.SetDefault("eval.mae_sqrt", defaultConfig.Eval.MAESqrt)
	viper.SetDefault("eval.verbose", defaultConfig.Eval.Verbose)
	// [meta]
	viper.SetDefault("meta.path", defaultConfig.Meta.Path)
}

type configBinding struct {
	key string
	env string
}

// LoadConfig loads configuration from toml file. Environment variables prefixed by
// ANALOGY_ override file values, for example ANALOGY_PREDICTOR_NAME.
func LoadConfig(path string) (*Config, error) {
	setDefault()

	// bind environment bindings
	bindings := []configBinding{
		{"cache.store", "ANALOGY_CACHE_STORE"},
		{"cache.s3.endpoint", "S3_ENDPOINT"},
		{"cache.s3.access_key_id", "S3_ACCESS_KEY_ID"},
		{"cache.s3.secret_access_key", "S3_SECRET_ACCESS_KEY"},
		{"cache.gcs.credentials_file", "GCS_CREDENTIALS_FILE"},
		{"cache.azure.connection_string", "AZURE_STORAGE_CONNECTION_STRING"},
		{"cache.azure.account_name", "AZURE_STORAGE_ACCOUNT"},
		{"cache.azure.account_key", "AZURE_STORAGE_KEY"},
	}
	for _, binding := range bindings {
		if err := viper.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}
	viper.SetEnvPrefix("ANALOGY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// load config file
	if path != "" {
		viper.SetConfigFile(path)
		viper.SetConfigType("toml")
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}

	// unmarshal config file
	var conf Config
	if err := viper.Unmarshal(&conf, func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
	}); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks value ranges and enumerations.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return errors.NewNotValid(err, "invalid config")
	}
	return nil
}
