package cmd

import (
	"strconv"
	"time"

	"github.com/mintel/elasticsearch-rolling/pkg/es" // Elasticsearch API extensions.
)

// ElasticsearchFlags represents the flags for connecting to
// the Elasticsearch admin API.
type ElasticsearchFlags struct {
	// Host to send cluster API calls to. Defaults to the first inventory host.
	Host string

	Port     int
	Username string
	Password string
	TLS      bool
	Verify   bool
	Timeout  time.Duration
}

// NewElasticsearchFlags returns a new ElasticsearchFlags.
func NewElasticsearchFlags(app Flagger) *ElasticsearchFlags {
	var f ElasticsearchFlags

	app.Flag("elasticsearch.host", "Host to send cluster API requests to. Defaults to the first host in the inventory.").
		PlaceHolder("HOSTNAME").
		StringVar(&f.Host)

	app.Flag("elasticsearch.port", "Port of the Elasticsearch HTTP API.").
		Default(strconv.Itoa(es.DefaultPort)).
		IntVar(&f.Port)

	app.Flag("elasticsearch.username", "Username for Elasticsearch basic auth.").
		Envar("ELASTICSEARCH_USERNAME").
		StringVar(&f.Username)

	app.Flag("elasticsearch.password", "Password for Elasticsearch basic auth.").
		Envar("ELASTICSEARCH_PASSWORD").
		StringVar(&f.Password)

	app.Flag("elasticsearch.tls", "Connect to Elasticsearch over https.").
		BoolVar(&f.TLS)

	app.Flag("elasticsearch.verify-hostname", "Verify the Elasticsearch TLS certificate.").
		Default("true").
		BoolVar(&f.Verify)

	app.Flag("elasticsearch.timeout", "Timeout of a single Elasticsearch request. 0 means none.").
		Hidden().
		Default("30s").
		DurationVar(&f.Timeout)

	return &f
}

// ConnectionConfig returns the connection settings for a run over hosts.
// The cluster endpoint is the Host flag if set, else the first of hosts.
func (f *ElasticsearchFlags) ConnectionConfig(hosts []string) es.ConnectionConfig {
	endpoints := hosts
	if f.Host != "" {
		endpoints = append([]string{f.Host}, hosts...)
	}
	return es.ConnectionConfig{
		Hosts:          endpoints,
		Port:           f.Port,
		Username:       f.Username,
		Password:       f.Password,
		TLS:            f.TLS,
		VerifyHostname: f.Verify,
		Timeout:        f.Timeout,
	}
}
