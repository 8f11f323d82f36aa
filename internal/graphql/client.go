// Package graphql implements the ledger and catalog ports against the remote
// GraphQL API. Every call maps to one of the server's named operations.
package graphql

import (
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
)

const defaultBaseURL = "http://localhost:4000"

// Client wraps the machinebox client with the endpoint convention used by
// the server: base URL plus a fixed /graphql path.
type Client struct {
	gql *graphql.Client
}

func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/graphql"
	httpClient := &http.Client{Timeout: 30 * time.Second}
	return &Client{gql: graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient))}
}
