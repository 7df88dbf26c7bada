package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/traceops/capfetch/pkg/fetch"
	"github.com/traceops/capfetch/pkg/resolve"
	"github.com/traceops/capfetch/pkg/storage"
)

// Accepted layouts for --from / --to. Layouts without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func cmdFetch() *cli.Command {
	selfFlags := []cli.Flag{
		&cli.StringFlag{
			Name:     "from",
			Usage:    "start of the time window (UTC), e.g. 2020-12-20T05:00",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "to",
			Usage:    "end of the time window (UTC), e.g. 2020-12-20T07:30",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "address",
			Usage: "IP address to keep in the output; repeatable",
		},
		&cli.StringSliceFlag{
			Name:  "iccid",
			Usage: "SIM ICCID to resolve to an address; repeatable",
		},
		&cli.StringSliceFlag{
			Name:  "imsi",
			Usage: "SIM IMSI to resolve to an address; repeatable",
		},
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "base URL of the SIM lookup API",
			Value:   resolve.DefaultBaseURL,
			EnvVars: []string{"CAPFETCH_API_URL"},
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "token for the SIM lookup API; required when identifiers are supplied",
			EnvVars: []string{"CAPFETCH_API_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "api-org",
			Usage:   "organization scope for the SIM lookup API",
			EnvVars: []string{"CAPFETCH_API_ORG"},
		},
		&cli.StringFlag{
			Name:  "output-dir",
			Usage: "directory the final capture file is written to",
			Value: ".",
		},
		&cli.BoolFlag{
			Name:  "keep-temp",
			Usage: "keep the scratch area after the run, for diagnostics",
		},
	}

	return &cli.Command{
		Name:   "fetch",
		Action: fetchAction,
		Usage:  "Download, filter and merge captures for a time window",
		Description: `
			Discovers the capture objects stored for the given UTC time window,
			downloads them, optionally filters them down to the given addresses
			(resolving ICCIDs/IMSIs through the SIM lookup API first), and merges
			everything into one capture file.

			Exactly one storage credential set must be supplied: either the S3
			flags or the Azure flags.

			Examples:
			$ capfetch fetch --from 2020-12-20T05:00 --to 2020-12-20T07:30 \
			    --s3-bucket captures --s3-region eu-west-1
			$ capfetch fetch --from 2020-12-20 --to 2020-12-21 --iccid 8988228066612345678 \
			    --az-container captures --az-account acct --az-account-key $KEY`,
		Flags: append(selfFlags, credentialFlags()...),
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "s3-bucket",
			Usage:   "S3 bucket holding the captures",
			EnvVars: []string{"CAPFETCH_S3_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "s3-region",
			Usage:   "S3 region",
			EnvVars: []string{"AWS_REGION"},
		},
		&cli.StringFlag{
			Name:    "s3-access-key",
			Usage:   "S3 access key",
			EnvVars: []string{"AWS_ACCESS_KEY_ID"},
		},
		&cli.StringFlag{
			Name:    "s3-secret-key",
			Usage:   "S3 secret key",
			EnvVars: []string{"AWS_SECRET_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:    "s3-endpoint",
			Usage:   "S3 endpoint for non-AWS stores, including the scheme",
			EnvVars: []string{"CAPFETCH_S3_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "az-container",
			Usage:   "Azure Blob container holding the captures",
			EnvVars: []string{"CAPFETCH_AZ_CONTAINER"},
		},
		&cli.StringFlag{
			Name:    "az-account",
			Usage:   "Azure storage account name",
			EnvVars: []string{"AZURE_STORAGE_ACCOUNT"},
		},
		&cli.StringFlag{
			Name:    "az-account-key",
			Usage:   "Azure storage account key",
			EnvVars: []string{"AZURE_STORAGE_KEY"},
		},
		&cli.StringFlag{
			Name:    "az-connection-string",
			Usage:   "Azure storage connection string (alternative to account + key)",
			EnvVars: []string{"AZURE_STORAGE_CONNECTION_STRING"},
		},
	}
}

func fetchAction(c *cli.Context) error {
	setupLogging(c)

	conf, err := configFromFlags(c)
	if err != nil {
		return err
	}

	path, err := fetch.Run(c.Context, conf)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func configFromFlags(c *cli.Context) (*fetch.Config, error) {
	from, err := parseTimeFlag(c.String("from"))
	if err != nil {
		return nil, fmt.Errorf("invalid --from: %w", err)
	}
	to, err := parseTimeFlag(c.String("to"))
	if err != nil {
		return nil, fmt.Errorf("invalid --to: %w", err)
	}

	conf := &fetch.Config{
		From:      from,
		To:        to,
		Addresses: c.StringSlice("address"),
		ICCIDs:    c.StringSlice("iccid"),
		IMSIs:     c.StringSlice("imsi"),
		APIURL:    c.String("api-url"),
		APIToken:  c.String("api-token"),
		APIOrg:    c.String("api-org"),
		OutputDir: c.String("output-dir"),
		KeepTemp:  c.Bool("keep-temp"),
	}

	// Which credential set is present picks the backend; Validate rejects
	// partial or contradictory sets.
	if s3 := s3ConfigFromFlags(c); s3 != nil {
		conf.S3 = s3
	}
	if az := azureConfigFromFlags(c); az != nil {
		conf.Azure = az
	}
	return conf, nil
}

func s3ConfigFromFlags(c *cli.Context) *storage.S3Config {
	s3 := storage.S3Config{
		Bucket:    c.String("s3-bucket"),
		Region:    c.String("s3-region"),
		AccessKey: c.String("s3-access-key"),
		SecretKey: c.String("s3-secret-key"),
		Endpoint:  c.String("s3-endpoint"),
	}
	// Any S3 flag at all means the user intends S3; a partial set must
	// surface as incomplete credentials, not as no backend.
	if s3 == (storage.S3Config{}) {
		return nil
	}
	return &s3
}

func azureConfigFromFlags(c *cli.Context) *storage.AzureConfig {
	az := storage.AzureConfig{
		Container:        c.String("az-container"),
		Account:          c.String("az-account"),
		AccountKey:       c.String("az-account-key"),
		ConnectionString: c.String("az-connection-string"),
	}
	if az == (storage.AzureConfig{}) {
		return nil
	}
	return &az
}

func parseTimeFlag(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q, want e.g. 2020-12-20T05:00", s)
}
