// Package search implements the Reader/Writer contracts for
// Elasticsearch-family endpoints over github.com/elastic/go-elasticsearch/v8.
// Schema is nominally empty (spec §4.C: "schema is nominally empty");
// fields are discovered dynamically as documents are read, matching
// original_source/src-tauri/src/exchange/readers/elasticsearch.rs.
package search

import (
	"crypto/tls"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
)

// Config identifies one index and the connection used to reach it.
type Config struct {
	Addresses []string // e.g. []string{"http://host:9200"}
	Username  string
	Password  string
	Index     string
	BatchSize int
	// MaxBatchBytes caps the bulk request body size the writer will
	// accumulate before flushing (spec §9 Open Question resolution).
	MaxBatchBytes int64
}

const defaultMaxBatchBytes = 8 << 20 // 8 MiB

func newClient(cfg Config) (*elasticsearch.Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: false},
		},
	}
	return elasticsearch.NewClient(esCfg)
}
