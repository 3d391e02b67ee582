package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/raddo/internal/common"
	"github.com/dmitrijs2005/raddo/internal/flagx"
	"github.com/dmitrijs2005/raddo/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It is
// prefilled from the current Config so keys absent from the file keep
// their earlier values.
type JsonConfig struct {
	PrimaryURL       string         `json:"primary_url"`
	FallbackURL      string         `json:"fallback_url"`
	Directory        string         `json:"directory"`
	Start            string         `json:"start"`
	End              string         `json:"end"`
	ErrorsAllowed    int            `json:"errors_allowed"`
	ForceRescan      bool           `json:"force_rescan"`
	ForceRedownload  bool           `json:"force_redownload"`
	Yes              bool           `json:"yes"`
	Sort             bool           `json:"sort"`
	Extract          bool           `json:"extract"`
	Complete         bool           `json:"complete"`
	NoTimeCorrection bool           `json:"no_time_correction"`
	FetchTimeout     timex.Duration `json:"fetch_timeout"`
	RetryDelay       timex.Duration `json:"retry_delay"`
	HistoryDB        string         `json:"history_db"`
	LogLevel         string         `json:"log_level"`
	LogFile          string         `json:"log_file"`
	MetricsFile      string         `json:"metrics_file"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3Endpoint       string         `json:"s3_endpoint"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
	S3Prefix         string         `json:"s3_prefix"`
}

func jsonPath(args []string) string {
	return flagx.JSONConfigPath(args)
}

// LoadJSON overlays c with the keys present in the JSON file at path. An
// empty path is a no-op.
func (c *Config) LoadJSON(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read config file: %v", common.ErrInvalidConfig, err)
	}

	jc := c.toJSON()
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("%w: parse config file %s: %v", common.ErrInvalidConfig, path, err)
	}
	c.fromJSON(jc)
	return nil
}

func (c *Config) toJSON() JsonConfig {
	return JsonConfig{
		PrimaryURL:       c.PrimaryURL,
		FallbackURL:      c.FallbackURL,
		Directory:        c.Directory,
		Start:            c.Start,
		End:              c.End,
		ErrorsAllowed:    c.ErrorsAllowed,
		ForceRescan:      c.ForceRescan,
		ForceRedownload:  c.ForceRedownload,
		Yes:              c.Yes,
		Sort:             c.Sort,
		Extract:          c.Extract,
		Complete:         c.Complete,
		NoTimeCorrection: c.NoTimeCorrection,
		FetchTimeout:     timex.Duration{Duration: c.FetchTimeout},
		RetryDelay:       timex.Duration{Duration: c.RetryDelay},
		HistoryDB:        c.HistoryDB,
		LogLevel:         c.LogLevel,
		LogFile:          c.LogFile,
		MetricsFile:      c.MetricsFile,
		S3Bucket:         c.S3.Bucket,
		S3Region:         c.S3.Region,
		S3Endpoint:       c.S3.Endpoint,
		S3AccessKey:      c.S3.AccessKey,
		S3SecretKey:      c.S3.SecretKey,
		S3Prefix:         c.S3.Prefix,
	}
}

func (c *Config) fromJSON(jc JsonConfig) {
	c.PrimaryURL = jc.PrimaryURL
	c.FallbackURL = jc.FallbackURL
	c.Directory = jc.Directory
	c.Start = jc.Start
	c.End = jc.End
	c.ErrorsAllowed = jc.ErrorsAllowed
	c.ForceRescan = jc.ForceRescan
	c.ForceRedownload = jc.ForceRedownload
	c.Yes = jc.Yes
	c.Sort = jc.Sort
	c.Extract = jc.Extract
	c.Complete = jc.Complete
	c.NoTimeCorrection = jc.NoTimeCorrection
	c.FetchTimeout = jc.FetchTimeout.Duration
	c.RetryDelay = jc.RetryDelay.Duration
	c.HistoryDB = jc.HistoryDB
	c.LogLevel = jc.LogLevel
	c.LogFile = jc.LogFile
	c.MetricsFile = jc.MetricsFile
	c.S3 = S3Config{
		Bucket:    jc.S3Bucket,
		Region:    jc.S3Region,
		Endpoint:  jc.S3Endpoint,
		AccessKey: jc.S3AccessKey,
		SecretKey: jc.S3SecretKey,
		Prefix:    jc.S3Prefix,
	}
}
