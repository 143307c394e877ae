package market

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"propdash/server/internal/models"
)

var (
	bhkRe   = regexp.MustCompile(`(\d)\s?bhk`)
	priceRe = regexp.MustCompile(`(\d+\.?\d*)\s?(cr|crore|lakh|lac)`)
)

// Client scrapes search-result snippets for ticket size and advertised
// configurations of a society. Results are a soft signal: any failure
// degrades to "N/A" sentinels, never an aborted batch.
type Client struct {
	logger    *logrus.Logger
	client    *http.Client
	searchURL string
}

func NewClient(logger *logrus.Logger, searchURL string) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		logger:    logger,
		client:    &http.Client{Timeout: 15 * time.Second},
		searchURL: searchURL,
	}
}

// FetchMarketInfo searches for "<society> <locality> <city> price
// configuration BHK" and extracts what the snippets give away.
func (c *Client) FetchMarketInfo(society, locality, citySuffix string) models.MarketInfo {
	query := strings.TrimSpace(fmt.Sprintf("%s %s %s price configuration BHK", society, locality, citySuffix))

	req, err := http.NewRequest(http.MethodGet, c.searchURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return models.MarketInfo{TicketSize: "N/A", Configurations: "N/A"}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("query", query).Warn("Market search failed")
		return models.MarketInfo{TicketSize: "N/A", Configurations: "N/A"}
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to parse market search results")
		return models.MarketInfo{TicketSize: "N/A", Configurations: "N/A"}
	}

	var snippets strings.Builder
	doc.Find(".result__snippet, .result__title").Each(func(_ int, s *goquery.Selection) {
		snippets.WriteString(s.Text())
		snippets.WriteString(" ")
	})
	text := snippets.String()
	if text == "" {
		text = doc.Text()
	}

	return ParseSnippets(text)
}

// ParseSnippets pulls the price and BHK mentions out of free search
// text. Exported so the scrape transport can be tested without a
// network.
func ParseSnippets(text string) models.MarketInfo {
	lower := strings.ToLower(text)

	info := models.MarketInfo{TicketSize: "Check Online", Configurations: "N/A"}

	if m := priceRe.FindStringSubmatch(lower); m != nil {
		info.TicketSize = m[1] + " " + strings.ToUpper(m[2][:1]) + m[2][1:]
	}

	seen := make(map[string]bool)
	var configs []string
	for _, m := range bhkRe.FindAllStringSubmatch(lower, -1) {
		label := m[1] + " BHK"
		if !seen[label] {
			seen[label] = true
			configs = append(configs, label)
		}
	}
	if len(configs) > 0 {
		sort.Strings(configs)
		info.Configurations = strings.Join(configs, ", ")
	}

	return info
}
