package cmd

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// flagContext builds a cli context with the given string flags set, the
// way fetch and doctor actions see them.
func flagContext(t *testing.T, values map[string]string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for name, value := range values {
		set.String(name, "", "")
		require.NoError(t, set.Set(name, value))
	}
	return cli.NewContext(nil, set, nil)
}

func TestS3ConfigFromFlags(t *testing.T) {
	assert.Nil(t, s3ConfigFromFlags(flagContext(t, nil)))

	// A lone credential flag still selects the backend so validation can
	// name what is missing instead of claiming no backend was configured.
	s3 := s3ConfigFromFlags(flagContext(t, map[string]string{
		"s3-region":     "eu-west-1",
		"s3-access-key": "AKIAEXAMPLE",
	}))
	require.NotNil(t, s3)
	assert.Equal(t, "eu-west-1", s3.Region)
	assert.Empty(t, s3.Bucket)
}

func TestAzureConfigFromFlags(t *testing.T) {
	assert.Nil(t, azureConfigFromFlags(flagContext(t, nil)))

	az := azureConfigFromFlags(flagContext(t, map[string]string{
		"az-account": "captures",
	}))
	require.NotNil(t, az)
	assert.Equal(t, "captures", az.Account)
	assert.Empty(t, az.Container)
}

func TestConfigFromFlagsPartialS3Credentials(t *testing.T) {
	conf, err := configFromFlags(flagContext(t, map[string]string{
		"from":          "2020-12-20T05:00",
		"to":            "2020-12-20T07:00",
		"s3-access-key": "AKIAEXAMPLE",
		"s3-secret-key": "secret",
	}))
	require.NoError(t, err)
	require.NotNil(t, conf.S3)

	err = conf.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete S3 credentials")
}

func TestParseTimeFlag(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"RFC3339", "2020-12-20T05:00:00Z", time.Date(2020, 12, 20, 5, 0, 0, 0, time.UTC), false},
		{"RFC3339 with offset", "2020-12-20T06:00:00+01:00", time.Date(2020, 12, 20, 5, 0, 0, 0, time.UTC), false},
		{"Minute precision", "2020-12-20T05:00", time.Date(2020, 12, 20, 5, 0, 0, 0, time.UTC), false},
		{"Space separator", "2020-12-20 05:00", time.Date(2020, 12, 20, 5, 0, 0, 0, time.UTC), false},
		{"Date only", "2020-12-20", time.Date(2020, 12, 20, 0, 0, 0, 0, time.UTC), false},
		{"Garbage", "yesterday", time.Time{}, true},
		{"Empty", "", time.Time{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseTimeFlag(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.True(t, got.Equal(tc.expected), "got %s", got)
			}
		})
	}
}
