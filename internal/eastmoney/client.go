package eastmoney

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// DefaultQuoteBaseURL is the base URL for the push2 quote endpoints.
	DefaultQuoteBaseURL = "https://push2.eastmoney.com"

	// DefaultDataBaseURL is the base URL for the data-center endpoints.
	DefaultDataBaseURL = "https://datacenter-web.eastmoney.com"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultRequestGap is the default minimum interval between requests.
	DefaultRequestGap = 200 * time.Millisecond

	// DefaultJitterMaxMS is the default maximum random jitter in milliseconds.
	DefaultJitterMaxMS = 50

	listPageSize = 500
)

// Browser-imitating headers; the quote endpoints throttle bare clients.
const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	referer   = "https://quote.eastmoney.com/"
)

const (
	rankingFields = "f2,f3,f12,f14,f184"
	quoteFields   = "f2,f3,f5,f6,f12,f14,f20"
)

// Client is an Eastmoney market-data client.
type Client struct {
	quoteBaseURL string
	dataBaseURL  string
	httpClient   *http.Client
	logger       arbor.ILogger
	limiter      *rate.Limiter
	jitterMaxMS  int
}

// NewClient creates a new Eastmoney client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		quoteBaseURL: DefaultQuoteBaseURL,
		dataBaseURL:  DefaultDataBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:     rate.NewLimiter(rate.Every(DefaultRequestGap), 1),
		jitterMaxMS: DefaultJitterMaxMS,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// throttle paces outbound requests: a minimum inter-request interval enforced
// by the rate limiter plus a small random jitter.
func (c *Client) throttle(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if c.jitterMaxMS > 0 {
		jitter := time.Duration(rand.Intn(c.jitterMaxMS)+1) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter):
		}
	}
	return nil
}

// get performs a throttled GET request and returns the response body.
func (c *Client) get(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	if err := c.throttle(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	if c.logger != nil {
		c.logger.Debug().
			Str("endpoint", endpoint).
			Msg("Eastmoney API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   endpoint,
		}
	}

	return body, nil
}

// MainFundFlowRanking fetches the main-fund-flow ranking for a stock universe.
// An empty table (not an error) is returned when the source has no rows.
func (c *Client) MainFundFlowRanking(ctx context.Context, universe string) (*FundFlowTable, error) {
	fs, ok := universeFS[universe]
	if !ok {
		return nil, fmt.Errorf("unknown stock universe %q", universe)
	}

	table := &FundFlowTable{}
	page := 1
	for {
		reqURL := fmt.Sprintf("%s/api/qt/clist/get?pn=%d&pz=%d&po=1&np=1&fid=%s&fs=%s&fields=%s",
			c.quoteBaseURL, page, listPageSize, FieldMainNetPct, url.QueryEscape(fs), rankingFields)
		body, err := c.get(ctx, "/api/qt/clist/get", reqURL)
		if err != nil {
			return nil, err
		}

		data := gjson.GetBytes(body, "data")
		if !data.Exists() || data.Type == gjson.Null {
			break
		}
		total := int(data.Get("total").Int())

		count := 0
		eachDiffItem(data.Get("diff"), func(item gjson.Result) {
			if len(table.Fields) == 0 {
				table.Fields = itemFields(item)
			}
			code := item.Get(FieldCode).String()
			if code == "" {
				return
			}
			table.Rows = append(table.Rows, FundFlowRow{
				Code:       code,
				Name:       item.Get(FieldName).String(),
				Price:      item.Get(FieldPrice).Float(),
				ChangePct:  item.Get(FieldChangePct).Float(),
				MainNetPct: item.Get(FieldMainNetPct).Float(),
			})
			count++
		})

		if count == 0 || len(table.Rows) >= total || count < listPageSize {
			break
		}
		page++
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("universe", universe).
			Int("rows", len(table.Rows)).
			Msg("Fetched main-fund-flow ranking")
	}
	return table, nil
}

// SpotQuotes fetches the full A-share real-time quote snapshot.
func (c *Client) SpotQuotes(ctx context.Context) (*QuoteTable, error) {
	table := &QuoteTable{}
	page := 1
	for {
		reqURL := fmt.Sprintf("%s/api/qt/clist/get?pn=%d&pz=%d&po=1&np=1&fid=%s&fs=%s&fields=%s",
			c.quoteBaseURL, page, listPageSize, FieldChangePct,
			url.QueryEscape(universeFS[UniverseShSzA]), quoteFields)
		body, err := c.get(ctx, "/api/qt/clist/get", reqURL)
		if err != nil {
			return nil, err
		}

		data := gjson.GetBytes(body, "data")
		if !data.Exists() || data.Type == gjson.Null {
			break
		}
		total := int(data.Get("total").Int())

		count := 0
		eachDiffItem(data.Get("diff"), func(item gjson.Result) {
			if len(table.Fields) == 0 {
				table.Fields = itemFields(item)
			}
			code := item.Get(FieldCode).String()
			if code == "" {
				return
			}
			table.Rows = append(table.Rows, QuoteRow{
				Code:      code,
				Name:      item.Get(FieldName).String(),
				Price:     item.Get(FieldPrice).Float(),
				ChangePct: item.Get(FieldChangePct).Float(),
				Volume:    item.Get(FieldVolume).Float(),
				Amount:    item.Get(FieldAmount).Float(),
				MarketCap: item.Get(FieldMarketCap).Float(),
			})
			count++
		})

		if count == 0 || len(table.Rows) >= total || count < listPageSize {
			break
		}
		page++
	}

	if c.logger != nil {
		c.logger.Debug().
			Int("rows", len(table.Rows)).
			Msg("Fetched spot quote snapshot")
	}
	return table, nil
}

// InstituteHoldings fetches per-institution holdings for a stock and reporting
// quarter (e.g. "20243" = 2024 Q3). An empty slice is returned when the quarter
// has no disclosure yet.
func (c *Client) InstituteHoldings(ctx context.Context, code, quarter string) ([]InstituteHolding, error) {
	endDate, err := QuarterEndDate(quarter)
	if err != nil {
		return nil, err
	}

	filter := fmt.Sprintf(`(SECURITY_CODE="%s")(REPORT_DATE='%s')`, code, endDate)
	reqURL := fmt.Sprintf("%s/api/data/v1/get?reportName=RPT_MAIN_ORGHOLDDETAILS&columns=ALL&source=WEB&client=WEB&pageSize=%d&pageNumber=1&filter=%s",
		c.dataBaseURL, listPageSize, url.QueryEscape(filter))
	body, err := c.get(ctx, "/api/data/v1/get", reqURL)
	if err != nil {
		return nil, err
	}

	rows := gjson.GetBytes(body, "result.data")
	if !rows.Exists() || !rows.IsArray() {
		return nil, nil
	}

	var holdings []InstituteHolding
	rows.ForEach(func(_, item gjson.Result) bool {
		name := item.Get("ORG_NAME").String()
		if name == "" {
			return true
		}
		change := item.Get("CHANGE_RATIO")
		holdings = append(holdings, InstituteHolding{
			Institution: name,
			Type:        item.Get("ORG_TYPE_NAME").String(),
			HoldPct:     item.Get("TOTAL_SHARES_RATIO").Float(),
			ChangePct:   change.Float(),
			HasChange:   change.Exists() && change.Type != gjson.Null,
		})
		return true
	})
	return holdings, nil
}

// MainShareholders fetches the top-shareholder history for a stock, most
// recent as-of dates first.
func (c *Client) MainShareholders(ctx context.Context, code string) ([]ShareholderRow, error) {
	filter := fmt.Sprintf(`(SECURITY_CODE="%s")`, code)
	reqURL := fmt.Sprintf("%s/api/data/v1/get?reportName=RPT_F10_EH_HOLDER&columns=ALL&source=WEB&client=WEB&sortColumns=END_DATE&sortTypes=-1&pageSize=%d&pageNumber=1&filter=%s",
		c.dataBaseURL, listPageSize, url.QueryEscape(filter))
	body, err := c.get(ctx, "/api/data/v1/get", reqURL)
	if err != nil {
		return nil, err
	}

	rows := gjson.GetBytes(body, "result.data")
	if !rows.Exists() || !rows.IsArray() {
		return nil, nil
	}

	var holders []ShareholderRow
	rows.ForEach(func(_, item gjson.Result) bool {
		name := item.Get("HOLDER_NAME").String()
		if name == "" {
			return true
		}
		endDate := item.Get("END_DATE").String()
		if len(endDate) > 10 {
			endDate = endDate[:10]
		}
		holders = append(holders, ShareholderRow{
			Holder:       name,
			HoldPct:      item.Get("HOLD_NUM_RATIO").Float(),
			EndDate:      endDate,
			TotalHolders: int(item.Get("HOLDER_NUM").Int()),
		})
		return true
	})
	return holders, nil
}

// eachDiffItem walks the clist "diff" payload, which the upstream returns
// either as an array or as an object keyed "0", "1", ...
func eachDiffItem(diff gjson.Result, fn func(item gjson.Result)) {
	if !diff.Exists() {
		return
	}
	if diff.IsArray() || diff.IsObject() {
		diff.ForEach(func(_, item gjson.Result) bool {
			fn(item)
			return true
		})
	}
}

// itemFields collects the payload field names of a diff item.
func itemFields(item gjson.Result) []string {
	var fields []string
	item.ForEach(func(key, _ gjson.Result) bool {
		fields = append(fields, key.String())
		return true
	})
	return fields
}
