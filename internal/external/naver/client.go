package naver

import (
	"github.com/hal2001/BatchGetSymbols/pkg/httputil"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// DefaultBaseURL is the Naver Finance chart host
const DefaultBaseURL = "https://fchart.stock.naver.com"

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance API calls go through this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new Naver Finance client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient.WithHeader("Referer", "https://finance.naver.com/")

	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
	}
}
