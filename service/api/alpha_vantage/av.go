package alpha_vantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	ex "ma/data/extensions"
	m "ma/data/models"
	c "ma/service/api"
	"ma/service/logger"
)

// public
const (
	HostDefault = "www.alphavantage.co"
)

// private
const (
	// default query parameters, full gives the whole daily history instead of the last 100 bars
	defaultOutputSize = "full"
	defaultDataType   = "json"
	defaultTimeout    = time.Second * 30
	// free tier allowance
	defaultRequestsPerMinute = 5

	// api request elements
	query      = "query"
	symbol     = "symbol"
	function   = "function"
	outputSize = "outputsize"

	metaDataKey     = "Meta Data"
	errorMessageKey = "Error Message"
	noteKey         = "Note"
	informationKey  = "Information"
)

var (
	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}
)

type AlphaVantageClient struct {
	*c.Client
}

func GetClient(apiKey string) *AlphaVantageClient {
	return &AlphaVantageClient{
		c.ClientFactory(HostDefault, apiKey, defaultTimeout, defaultRequestsPerMinute),
	}
}

// NewClient builds a client over any connection, tests use this to replay canned responses
func NewClient(conn c.Connection, apiKey string) *AlphaVantageClient {
	return &AlphaVantageClient{
		&c.Client{Connection: conn, ApiKey: apiKey},
	}
}

// GetDailyTimeSeries returns the daily bars for a ticker, oldest first.
// https://www.alphavantage.co/documentation/#daily
func (avc *AlphaVantageClient) GetDailyTimeSeries(ctx context.Context, ticker string, timeSeries TimeSeries) (*m.TimeSeriesResult, error) {
	if avc == nil || avc.Client == nil {
		return nil, fmt.Errorf("alpha vantage client has not been set")
	}

	endpoint := avc.buildRequestPath(map[string]string{
		function:   timeSeries.Function(),
		symbol:     ticker,
		outputSize: defaultOutputSize,
	})

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s for %s: %w", timeSeries.Name(), ticker, err)
	}

	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage returned status %d for %s", response.StatusCode, ticker)
	}

	raw, err := parseRawJson(response.Body)
	if err != nil {
		return nil, err
	}

	if err := checkApiError(raw); err != nil {
		return nil, fmt.Errorf("error requesting %s for %s: %w", timeSeries.Name(), ticker, err)
	}

	metaData, timeZone, err := parseMetaData(raw)
	if err != nil {
		return nil, err
	}

	timeSeriesData, err := parseTimeSeriesDataResult(raw, timeSeries.TimeSeriesKey(), timeZone)
	if err != nil {
		return nil, err
	}

	return &m.TimeSeriesResult{
		Metadata:   metaData,
		TimeSeries: timeSeriesData,
	}, nil
}

func (avc *AlphaVantageClient) buildRequestPath(params map[string]string) *url.URL {
	// build our URL
	endpoint := &url.URL{}
	endpoint.Path = query

	// base parameters
	query := endpoint.Query()
	query.Set("apikey", avc.Client.ApiKey)
	query.Set("datatype", defaultDataType)

	// additional parameters
	for key, value := range params {
		query.Set(key, value)
	}

	endpoint.RawQuery = query.Encode()

	return endpoint
}

func parseRawJson(reader io.Reader) (raw map[string]json.RawMessage, err error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	// converting to a <string, raw message> map
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	return
}

// checkApiError surfaces the error, rate limit and premium messages alpha vantage sends with a 200
func checkApiError(raw map[string]json.RawMessage) error {
	for _, key := range []string{errorMessageKey, noteKey, informationKey} {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		if _, hasData := raw[metaDataKey]; hasData && key != errorMessageKey {
			continue
		}

		var text string
		if err := json.Unmarshal(msg, &text); err != nil {
			text = string(msg)
		}
		return fmt.Errorf("alpha vantage %s: %s", strings.ToLower(key), text)
	}
	return nil
}

func parseMetaData(raw map[string]json.RawMessage) (*m.TimeSeriesMetadata, *time.Location, error) {
	var metadataElements map[string]string
	if err := json.Unmarshal(raw[metaDataKey], &metadataElements); err != nil {
		return nil, nil, fmt.Errorf("error unmarshaling meta data: %w", err)
	}

	metaDataKeys := slices.Collect(maps.Keys(metadataElements))

	// parse symbol
	sf := func(s string) bool { return strings.HasSuffix(s, ". Symbol") }
	symbolKey, err := ex.FilterSingle(metaDataKeys, sf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting symbol for meta data")
	}

	// parse time zone
	tzf := func(s string) bool { return strings.HasSuffix(s, ". Time Zone") }
	timeZoneKey, err := ex.FilterSingle(metaDataKeys, tzf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting time zone for meta data")
	}

	timeZone, err := getTimeZone(metadataElements[timeZoneKey])
	if err != nil {
		return nil, nil, fmt.Errorf("error converting time zone key %s, to time.Location: %w", metadataElements[timeZoneKey], err)
	}

	// parse last refreshed
	lrf := func(s string) bool { return strings.HasSuffix(s, ". Last Refreshed") }
	lastRefreshedKey, err := ex.FilterSingle(metaDataKeys, lrf)
	if err != nil {
		return nil, nil, fmt.Errorf("error extracting last refreshed date")
	}

	lastRefreshed, err := parseDate(metadataElements[lastRefreshedKey], timeZone)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing last refreshed date: %w", err)
	}

	// information and output size are optional
	information, _ := ex.FilterSingle(metaDataKeys, func(s string) bool { return strings.HasSuffix(s, ". Information") })
	size, _ := ex.FilterSingle(metaDataKeys, func(s string) bool { return strings.HasSuffix(s, ". Output Size") })

	res := m.TimeSeriesMetadata{
		Information:   null.NewString(metadataElements[information], information != ""),
		Symbol:        metadataElements[symbolKey],
		LastRefreshed: lastRefreshed,
		OutputSize:    null.NewString(metadataElements[size], size != ""),
		TimeZone:      metadataElements[timeZoneKey],
	}

	return &res, timeZone, nil
}

func parseTimeSeriesDataResult(raw map[string]json.RawMessage, key string, location *time.Location) ([]*m.TimeSeriesData, error) {
	content, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("response does not contain %q", key)
	}

	var timeSeriesElements map[string]map[string]string
	if err := json.Unmarshal(content, &timeSeriesElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series: %w", err)
	}

	timeSeries := make([]*m.TimeSeriesData, 0, len(timeSeriesElements))
	for timeSeriesKey, timeSeriesValue := range timeSeriesElements {
		timestamp, err := parseDate(timeSeriesKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting TIMESTAMP from string to time.Time: %w", err)
		}

		values := getValueLookup(timeSeriesValue)
		timeSeries = append(timeSeries, &m.TimeSeriesData{
			Timestamp:     timestamp,
			Open:          parseNullFloat(values["open"]),
			High:          parseNullFloat(values["high"]),
			Low:           parseNullFloat(values["low"]),
			Close:         parseNullFloat(values["close"]),
			AdjustedClose: parseNullFloat(values["adjusted close"]),
			Volume:        parseNullFloat(values["volume"]),
		})
	}

	slices.SortFunc(timeSeries, func(a, b *m.TimeSeriesData) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	return timeSeries, nil
}

// getValueLookup strips the numbering alpha vantage puts on every column ("5. adjusted close" -> "adjusted close")
func getValueLookup(values map[string]string) map[string]string {
	res := make(map[string]string, len(values))
	for k, v := range values {
		name := k
		if _, after, found := strings.Cut(k, ". "); found {
			name = after
		}
		res[strings.ToLower(strings.TrimSpace(name))] = v
	}
	return res
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	default:
		logger.Warn().Str("timeZone", location).Msg("time zone not recognized, defaulting to UTC")
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)
	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation: %w", loc, err)
	}

	return res, nil
}

func parseDate(dateString string, location *time.Location) (time.Time, error) {
	for _, format := range timeSeriesDateFormats {
		t, err := time.ParseInLocation(format, dateString, location)
		if err != nil {
			continue
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("error converting date %s to time.Time", dateString)
}

func parseNullFloat(val string) null.Float {
	if val == "" {
		return null.Float{}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	return null.NewFloat(f, err == nil)
}
