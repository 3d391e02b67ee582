package config

import "github.com/spf13/pflag"

// BindFlags registers every setting on fs with the current values of c as
// defaults, so flags the user does not pass leave earlier sources intact.
func BindFlags(fs *pflag.FlagSet, c *Config) {
	fs.StringVarP(&c.PrimaryURL, "radolan-server-url", "u", c.PrimaryURL, "base URL of the recent RADOLAN archives")
	fs.StringVar(&c.FallbackURL, "historical-url", c.FallbackURL, "base URL of the historical monthly archives")
	fs.StringVarP(&c.Directory, "directory", "d", c.Directory, "local directory holding the archives")
	fs.StringVarP(&c.Start, "start", "s", c.Start, "first day to fetch, e.g. 2020-01-01 or \"3 weeks ago\" (default: 14 days ago)")
	fs.StringVarP(&c.End, "end", "e", c.End, "last day to fetch (default: yesterday)")
	fs.IntVarP(&c.ErrorsAllowed, "errors-allowed", "r", c.ErrorsAllowed, "failed attempts tolerated per file before giving up (max 20)")

	fs.BoolVarP(&c.ForceRescan, "force", "F", c.ForceRescan, "rescan the local directory instead of trusting the file list")
	fs.BoolVarP(&c.ForceRedownload, "force-download", "D", c.ForceRedownload, "download every file in the range again")
	fs.BoolVarP(&c.Yes, "yes", "y", c.Yes, "answer yes to every confirmation")

	fs.BoolVarP(&c.Sort, "sort-in-folders", "f", c.Sort, "move archives into year/month folders")
	fs.BoolVarP(&c.Extract, "extract", "x", c.Extract, "extract downloaded archives")
	fs.BoolVarP(&c.Complete, "complete", "C", c.Complete, "sort and extract")
	fs.BoolVarP(&c.NoTimeCorrection, "no-time-correction", "t", c.NoTimeCorrection, "keep the minutes of .asc timestamps instead of truncating to the hour")

	fs.DurationVar(&c.FetchTimeout, "fetch-timeout", c.FetchTimeout, "timeout of a single download attempt")
	fs.DurationVar(&c.RetryDelay, "retry-delay", c.RetryDelay, "initial pause between attempts, doubled up to 30s (0 disables)")

	fs.StringVar(&c.HistoryDB, "history-db", c.HistoryDB, "run history database (default <directory>/.raddo_history.db, \"-\" disables)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "also write JSON logs to this rotated file")
	fs.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "write Prometheus textfile metrics here after each run")

	fs.StringVar(&c.S3.Bucket, "s3-bucket", c.S3.Bucket, "mirror new archives to this S3 bucket")
	fs.StringVar(&c.S3.Region, "s3-region", c.S3.Region, "S3 region")
	fs.StringVar(&c.S3.Endpoint, "s3-endpoint", c.S3.Endpoint, "S3-compatible endpoint URL")
	fs.StringVar(&c.S3.AccessKey, "s3-access-key", c.S3.AccessKey, "S3 access key")
	fs.StringVar(&c.S3.SecretKey, "s3-secret-key", c.S3.SecretKey, "S3 secret key")
	fs.StringVar(&c.S3.Prefix, "s3-prefix", c.S3.Prefix, "object key prefix in the bucket")

	// Consumed before flag parsing; registered so it is accepted and shown.
	fs.StringP("config", "c", "", "path to JSON config file")
}
