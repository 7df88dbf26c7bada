// Package resolve converts SIM identifiers into the network addresses their
// traffic is captured under, via the remote SIM lookup API.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/traceops/capfetch/internal"
)

var (
	ErrMissingCredential = errors.New("identifier lookup requires an API token")
	ErrResolutionFailed  = errors.New("identifier resolution failed")
)

var logger = internal.GetLogger("capfetch")

// Kind selects which identifier namespace a lookup runs against. Both kinds
// go through the same endpoint, only the request parameter differs.
type Kind string

const (
	KindICCID Kind = "iccid"
	KindIMSI  Kind = "imsi"
)

const DefaultBaseURL = "https://api.onomondo.com"

// Client queries the SIM lookup API. Org is an optional organization scope
// added as a request header.
type Client struct {
	BaseURL string
	Token   string
	Org     string

	httpClient *http.Client
}

func New(baseURL, token, org string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		Org:        org,
		httpClient: http.DefaultClient,
	}
}

type simResponse struct {
	IP string `json:"ip"`
}

// Resolve looks up the network address assigned to one identifier. Any
// non-2xx response is a resolution failure; a partial address set is never
// used.
func (c *Client) Resolve(ctx context.Context, id string, kind Kind) (string, error) {
	if c.Token == "" {
		return "", ErrMissingCredential
	}

	u := fmt.Sprintf("%s/sims/%s?type=%s", c.BaseURL, url.PathEscape(id), kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrResolutionFailed, id, err)
	}
	req.Header.Set("authorization", c.Token)
	if c.Org != "" {
		req.Header.Set("x-onomondo-org", c.Org)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrResolutionFailed, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: %s: %s: %s", ErrResolutionFailed, id, resp.Status, strings.TrimSpace(string(body)))
	}

	var sim simResponse
	if err := json.NewDecoder(resp.Body).Decode(&sim); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrResolutionFailed, id, err)
	}
	if sim.IP == "" {
		return "", fmt.Errorf("%w: %s: response carries no ip", ErrResolutionFailed, id)
	}
	return sim.IP, nil
}

// ResolveAll resolves every identifier, one at a time, and returns the
// addresses in input order (ICCIDs first). The first failure aborts.
func (c *Client) ResolveAll(ctx context.Context, iccids, imsis []string) ([]string, error) {
	addrs := make([]string, 0, len(iccids)+len(imsis))
	resolveOne := func(id string, kind Kind) error {
		ip, err := c.Resolve(ctx, id, kind)
		if err != nil {
			return err
		}
		logger.Debugf("resolved %s %s to %s", kind, id, ip)
		addrs = append(addrs, ip)
		return nil
	}
	for _, id := range iccids {
		if err := resolveOne(id, KindICCID); err != nil {
			return nil, err
		}
	}
	for _, id := range imsis {
		if err := resolveOne(id, KindIMSI); err != nil {
			return nil, err
		}
	}
	return addrs, nil
}
