package es

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
	"github.com/pkg/errors"                 // Wrap errors with stacktrace.
)

// DefaultPort is the Elasticsearch HTTP port used when none is configured.
const DefaultPort = 9200

// ConnectionConfig describes how to reach the Elasticsearch admin API.
type ConnectionConfig struct {
	// Hosts is the list of candidate hostnames.
	// The first is used as the cluster endpoint.
	Hosts []string

	// Port of the HTTP API.
	Port int

	Username string
	Password string

	// TLS selects https.
	TLS bool

	// VerifyHostname toggles certificate verification when TLS is on.
	VerifyHostname bool

	// Timeout for a single HTTP request. Zero means no timeout.
	Timeout time.Duration
}

// URL returns the base URL of the API on host.
func (c ConnectionConfig) URL(host string) string {
	scheme := "http"
	if c.TLS {
		scheme = "https"
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	u := url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
	return u.String()
}

// ClusterURL returns the base URL of the first configured host.
func (c ConnectionConfig) ClusterURL() (string, error) {
	if len(c.Hosts) == 0 {
		return "", errors.New("no Elasticsearch hosts configured")
	}
	return c.URL(c.Hosts[0]), nil
}

// HTTPClient returns the http.Client to use for API calls.
//
// The client's Transport is left nil (meaning http.DefaultTransport) unless
// certificate verification has to be turned off.
func (c ConnectionConfig) HTTPClient() *http.Client {
	hc := &http.Client{Timeout: c.Timeout}
	if c.TLS && !c.VerifyHostname {
		t, ok := http.DefaultTransport.(*http.Transport)
		if ok {
			t = t.Clone()
		} else {
			t = &http.Transport{Proxy: http.ProxyFromEnvironment}
		}
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // nolint: gosec
		hc.Transport = t
	}
	return hc
}

// NewClient returns a new Elasticsearch client for the cluster endpoint.
//
// The client doesn't sniff or health check, so constructing it makes no
// network calls. Extra options are applied last.
func NewClient(c ConnectionConfig, opts ...elastic.ClientOptionFunc) (*elastic.Client, error) {
	u, err := c.ClusterURL()
	if err != nil {
		return nil, err
	}
	return NewHostClient(c, u, opts...)
}

// NewHostClient is like NewClient but targets the given base URL.
func NewHostClient(c ConnectionConfig, baseURL string, opts ...elastic.ClientOptionFunc) (*elastic.Client, error) {
	options := []elastic.ClientOptionFunc{
		elastic.SetURL(baseURL),
		elastic.SetHttpClient(c.HTTPClient()),
	}
	if c.Username != "" || c.Password != "" {
		options = append(options, elastic.SetBasicAuth(c.Username, c.Password))
	}
	options = append(options, opts...)
	client, err := elastic.NewSimpleClient(options...)
	if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("error creating Elasticsearch client for %s", baseURL))
	}
	return client, nil
}
