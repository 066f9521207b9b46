package alpha_vantage

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ex "ma/data/extensions"
)

const dailyAdjustedBody = `{
    "Meta Data": {
        "1. Information": "Daily Time Series with Splits and Dividend Events",
        "2. Symbol": "IBM",
        "3. Last Refreshed": "2024-03-08",
        "4. Output Size": "Full size",
        "5. Time Zone": "US/Eastern"
    },
    "Time Series (Daily)": {
        "2024-03-08": {
            "1. open": "195.0900",
            "2. high": "197.7700",
            "3. low": "194.3800",
            "4. close": "195.9500",
            "5. adjusted close": "194.2100",
            "6. volume": "3902839",
            "7. dividend amount": "0.0000",
            "8. split coefficient": "1.0"
        },
        "2024-03-07": {
            "1. open": "197.5800",
            "2. high": "198.7300",
            "3. low": "196.1400",
            "4. close": "196.5400",
            "5. adjusted close": "194.7950",
            "6. volume": "4604405",
            "7. dividend amount": "0.0000",
            "8. split coefficient": "1.0"
        }
    }
}`

const dailyBody = `{
    "Meta Data": {
        "1. Information": "Daily Prices (open, high, low, close) and Volumes",
        "2. Symbol": "SPY",
        "3. Last Refreshed": "2024-03-08",
        "4. Output Size": "Full size",
        "5. Time Zone": "US/Eastern"
    },
    "Time Series (Daily)": {
        "2024-03-06": {
            "1. open": "510.5500",
            "2. high": "512.0700",
            "3. low": "508.4200",
            "4. close": "",
            "5. volume": "68587707"
        },
        "2024-03-08": {
            "1. open": "515.4600",
            "2. high": "518.2200",
            "3. low": "511.1300",
            "4. close": "511.7200",
            "5. volume": "86532492"
        },
        "2024-03-07": {
            "1. open": "513.1400",
            "2. high": "515.8900",
            "3. low": "509.8100",
            "4. close": "514.8100",
            "5. volume": "58652112"
        }
    }
}`

type fakeConnection struct {
	status   int
	body     string
	endpoint *url.URL
}

func (f *fakeConnection) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	f.endpoint = endpoint
	return &http.Response{
		StatusCode: f.status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func Test_DoesNullFloatWorkHowIThink(t *testing.T) {
	var nullFloat null.Float

	if nullFloat.Valid {
		t.Fatalf("expected .valid to be false")
	}

	ex.AssertNillability(t, "unset float", true, nullFloat.Ptr())
	ex.AssertNillability(t, "bad float", true, parseNullFloat("n/a").Ptr())
	ex.AssertAreEqual(t, "trimmed float", 12.5, parseNullFloat(" 12.5 ").Float64)
}

func Test_AlphaVantage_DailyAdjusted(t *testing.T) {
	conn := &fakeConnection{status: http.StatusOK, body: dailyAdjustedBody}
	c := NewClient(conn, "av-test-api-key")

	res, err := c.GetDailyTimeSeries(context.Background(), "IBM", TimeSeriesDailyAdjusted)
	require.NoError(t, err)

	// request
	q := conn.endpoint.Query()
	assert.Equal(t, "TIME_SERIES_DAILY_ADJUSTED", q.Get(function))
	assert.Equal(t, "IBM", q.Get(symbol))
	assert.Equal(t, "av-test-api-key", q.Get("apikey"))
	assert.Equal(t, defaultOutputSize, q.Get(outputSize))
	assert.Equal(t, "json", q.Get("datatype"))

	location, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database not available: %v", err)
	}

	// meta data
	ex.AssertAreEqual(t, "symbol", "IBM", res.Metadata.Symbol)
	ex.AssertAreEqual(t, "time zone", "US/Eastern", res.Metadata.TimeZone)
	ex.AssertAreEqual(t, "output size", "Full size", res.Metadata.OutputSize.String)
	assert.True(t, res.Metadata.LastRefreshed.Equal(time.Date(2024, time.March, 8, 0, 0, 0, 0, location)))

	// ordered oldest first
	require.Len(t, res.TimeSeries, 2)
	first := res.TimeSeries[0]
	assert.True(t, first.Timestamp.Equal(time.Date(2024, time.March, 7, 0, 0, 0, 0, location)))

	ex.AssertAreEqual(t, "open", 197.58, first.Open.Float64)
	ex.AssertAreEqual(t, "high", 198.73, first.High.Float64)
	ex.AssertAreEqual(t, "low", 196.14, first.Low.Float64)
	ex.AssertAreEqual(t, "close", 196.54, first.Close.Float64)
	ex.AssertAreEqual(t, "adjusted close", 194.795, first.AdjustedClose.Float64)
	ex.AssertAreEqual(t, "volume", float64(4604405), first.Volume.Float64)
}

func Test_AlphaVantage_Daily(t *testing.T) {
	conn := &fakeConnection{status: http.StatusOK, body: dailyBody}
	c := NewClient(conn, "av-test-api-key")

	res, err := c.GetDailyTimeSeries(context.Background(), "SPY", TimeSeriesDaily)
	require.NoError(t, err)
	require.Len(t, res.TimeSeries, 3)

	for i := 1; i < len(res.TimeSeries); i++ {
		assert.True(t, res.TimeSeries[i-1].Timestamp.Before(res.TimeSeries[i].Timestamp))
	}

	// no adjusted close on the plain daily series, the blank close stays unset
	ex.AssertNillability(t, "adjusted close", true, res.TimeSeries[2].AdjustedClose.Ptr())
	ex.AssertNillability(t, "missing close", true, res.TimeSeries[0].Close.Ptr())
	ex.AssertAreEqual(t, "volume", float64(86532492), res.TimeSeries[2].Volume.Float64)
}

func Test_AlphaVantage_ErrorResponses(t *testing.T) {
	cases := map[string]string{
		"error message": `{"Error Message": "Invalid API call. Please retry or visit the documentation."}`,
		"rate limit":    `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`,
		"information":   `{"Information": "This is a premium endpoint."}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewClient(&fakeConnection{status: http.StatusOK, body: body}, "key")
			res, err := c.GetDailyTimeSeries(context.Background(), "BAD", TimeSeriesDaily)
			assert.Error(t, err)
			assert.Nil(t, res)
		})
	}

	t.Run("http status", func(t *testing.T) {
		c := NewClient(&fakeConnection{status: http.StatusBadGateway, body: ""}, "key")
		_, err := c.GetDailyTimeSeries(context.Background(), "SPY", TimeSeriesDaily)
		assert.Error(t, err)
	})

	t.Run("nil client", func(t *testing.T) {
		var c *AlphaVantageClient
		_, err := c.GetDailyTimeSeries(context.Background(), "SPY", TimeSeriesDaily)
		assert.Error(t, err)
	})
}

func Test_AlphaVantage_TimeSeriesNames(t *testing.T) {
	assert.True(t, TimeSeriesDailyAdjusted.IsAdjusted())
	assert.False(t, TimeSeriesDaily.IsAdjusted())
	assert.Equal(t, TimeSeriesDaily.TimeSeriesKey(), TimeSeriesDailyAdjusted.TimeSeriesKey())
	assert.Equal(t, "TIME_SERIES_DAILY", TimeSeriesDaily.Function())
}
