// Package fetch orchestrates one capture-fetch run end to end: resolve
// identifiers, discover day-bucketed objects, download them, and feed them
// through the filter/merge pipeline.
package fetch

import (
	"errors"
	"fmt"
	"time"

	"github.com/traceops/capfetch/pkg/resolve"
	"github.com/traceops/capfetch/pkg/storage"
)

// Config is built once from external input at run start and read-only
// thereafter.
type Config struct {
	From time.Time
	To   time.Time

	// Filter inputs. Addresses are used as-is; ICCIDs and IMSIs are
	// resolved through the lookup API first.
	Addresses []string
	ICCIDs    []string
	IMSIs     []string

	APIURL   string
	APIToken string
	APIOrg   string

	// Exactly one backend credential set must be present.
	S3    *storage.S3Config
	Azure *storage.AzureConfig

	OutputDir string
	KeepTemp  bool
}

// Validate applies every configuration precondition. It runs before any
// network or filesystem work, so a bad invocation never costs a download.
func (c *Config) Validate() error {
	if c.From.IsZero() || c.To.IsZero() {
		return errors.New("both --from and --to are required")
	}
	if !c.From.Before(c.To) {
		return fmt.Errorf("invalid time range: --from (%s) must be before --to (%s)",
			c.From.UTC().Format(time.RFC3339), c.To.UTC().Format(time.RFC3339))
	}

	switch {
	case c.S3 == nil && c.Azure == nil:
		return errors.New("no storage backend configured: supply either the S3 or the Azure credential set")
	case c.S3 != nil && c.Azure != nil:
		return errors.New("both S3 and Azure credentials supplied: exactly one backend must be configured")
	}

	if c.S3 != nil {
		if c.S3.Bucket == "" || c.S3.Region == "" || c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return errors.New("incomplete S3 credentials: bucket, region, access key and secret key are all required")
		}
	}
	if c.Azure != nil {
		if c.Azure.Container == "" {
			return errors.New("incomplete Azure credentials: container is required")
		}
		if c.Azure.ConnectionString == "" && (c.Azure.Account == "" || c.Azure.AccountKey == "") {
			return errors.New("incomplete Azure credentials: supply a connection string, or an account name and key")
		}
	}

	if (len(c.ICCIDs) > 0 || len(c.IMSIs) > 0) && c.APIToken == "" {
		return fmt.Errorf("%w (--api-token)", resolve.ErrMissingCredential)
	}
	return nil
}

// filterTerms returns the identifiers and addresses in the order they weigh
// into the output name: identifiers first, then literal addresses.
func (c *Config) filterTerms() []string {
	terms := make([]string, 0, len(c.ICCIDs)+len(c.IMSIs)+len(c.Addresses))
	terms = append(terms, c.ICCIDs...)
	terms = append(terms, c.IMSIs...)
	terms = append(terms, c.Addresses...)
	return terms
}
