package es

import (
	"bufio"
	"context"
	"net/url"
	"strings"

	elastic "github.com/olivere/elastic/v7" // Elasticsearch client.
)

// CatNodesService lists the names of the nodes currently in the cluster
// using `GET /_cat/nodes?h=name`.
//
// The response is kept as the plaintext table Elasticsearch returns,
// since membership checks are done by substring containment.
type CatNodesService struct {
	client *elastic.Client
}

// NewCatNodesService creates a new CatNodesService.
func NewCatNodesService(client *elastic.Client) *CatNodesService {
	return &CatNodesService{client: client}
}

func (s *CatNodesService) buildURL() (string, url.Values) {
	params := url.Values{}
	params.Set("h", "name")
	return "/_cat/nodes", params
}

// Do executes the operation.
func (s *CatNodesService) Do(ctx context.Context) (CatNodesResponse, error) {
	path, params := s.buildURL()
	res, err := s.client.PerformRequest(ctx, elastic.PerformRequestOptions{
		Method: "GET",
		Path:   path,
		Params: params,
	})
	if err != nil {
		return "", err
	}
	return CatNodesResponse(res.Body), nil
}

// CatNodesResponse is the raw plaintext _cat/nodes table.
type CatNodesResponse string

// Contains reports whether name appears anywhere in the listing.
func (r CatNodesResponse) Contains(name string) bool {
	return name != "" && strings.Contains(string(r), name)
}

// Names returns the trimmed, non-empty lines of the listing.
func (r CatNodesResponse) Names() []string {
	var names []string
	sc := bufio.NewScanner(strings.NewReader(string(r)))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	return names
}
