package alpha_vantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
	m "github.com/NovaInv/EfficientFrontier/data/models"
)

const dailyAdjustedPayload = `{
    "Meta Data": {
        "1. Information": "Daily Time Series with Splits and Dividend Events",
        "2. Symbol": "AAPL",
        "3. Last Refreshed": "2025-10-31",
        "4. Output Size": "Full size",
        "5. Time Zone": "US/Eastern"
    },
    "Time Series (Daily)": {
        "2025-10-31": {
            "1. open": "276.99",
            "2. high": "277.32",
            "3. low": "269.16",
            "4. close": "270.37",
            "5. adjusted close": "270.37",
            "6. volume": "86167123",
            "7. dividend amount": "0.0000",
            "8. split coefficient": "1.0"
        },
        "2025-10-30": {
            "1. open": "271.99",
            "2. high": "274.14",
            "3. low": "268.48",
            "4. close": "271.40",
            "5. adjusted close": "271.40",
            "6. volume": "69886534",
            "7. dividend amount": "0.0000",
            "8. split coefficient": "1.0"
        },
        "2025-10-29": {
            "1. open": "269.28",
            "2. high": "271.41",
            "3. low": "267.11",
            "4. close": "269.70",
            "5. adjusted close": "",
            "6. volume": "51086742",
            "7. dividend amount": "0.0000",
            "8. split coefficient": "1.0"
        }
    }
}`

func newTestClient(t *testing.T, status int, payload string) (*AlphaVantageClient, *string) {
	t.Helper()

	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, "av-test-api-key", time.Second)
	if err != nil {
		t.Fatalf("error creating client: %v", err)
	}

	return c, &rawQuery
}

func Test_DoesNullFloatWorkHowIThink(t *testing.T) {
	var nullFloat null.Float

	if nullFloat.Valid {
		t.Fatalf("expected .valid to be false")
	}

	validFloat := null.FloatFrom(64)
	if !validFloat.Valid {
		t.Fatalf("value is set, expected .valid to be true now")
	}

	ex.AssertAreEqual(t, "value", 64.0, *validFloat.Ptr())
	ex.AssertAreEqual(t, "empty parse", false, parseFloat("").Valid)
	ex.AssertAreEqual(t, "garbage parse", false, parseFloat("n/a").Valid)
}

func Test_AlphaVantage_GetClientRequiresKey(t *testing.T) {
	if _, err := GetClient(""); err == nil {
		t.Fatalf("expected an error for an empty api key")
	}
}

func Test_AlphaVantage_StockTimeSeries(t *testing.T) {
	c, rawQuery := newTestClient(t, http.StatusOK, dailyAdjustedPayload)

	res, err := c.GetStockTimeSeries(context.Background(), TimeSeriesDailyAdjusted, "AAPL")
	if err != nil {
		t.Fatalf("error getting stock time series: %s", err)
	}

	for _, expected := range []string{"function=TIME_SERIES_DAILY_ADJUSTED", "symbol=AAPL", "outputsize=full", "apikey=av-test-api-key"} {
		if !containsParam(*rawQuery, expected) {
			t.Errorf("expected request query %q to contain %q", *rawQuery, expected)
		}
	}

	location, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("error parsing time zone: %s", err)
	}

	// meta data
	ex.AssertAreEqual(t, "information", "Daily Time Series with Splits and Dividend Events", res.Metadata.Information.String)
	ex.AssertAreEqual(t, "symbol", "AAPL", res.Metadata.Symbol)
	ex.AssertAreEqual(t, "output size", "Full size", res.Metadata.OutputSize.String)
	ex.AssertAreEqual(t, "time zone", "US/Eastern", res.Metadata.TimeZone)
	ex.AssertAreEqual(t, "last refreshed", time.Date(2025, time.October, 31, 0, 0, 0, 0, location).Unix(), res.Metadata.LastRefreshed.Unix())

	// bars come back oldest first
	ex.AssertAreEqual(t, "bars", 3, len(res.TimeSeries))
	ex.AssertAreEqual(t, "first bar", "2025-10-29", ex.FmtShort(res.TimeSeries[0].Timestamp))
	ex.AssertAreEqual(t, "last bar", "2025-10-31", ex.FmtShort(res.TimeSeries[2].Timestamp))

	f := func(e *m.TimeSeriesData) bool { return ex.FmtShort(e.Timestamp) == "2025-10-31" }
	s, err := ex.FilterSingle(res.TimeSeries, f)
	if err != nil {
		t.Fatalf("error filtering single time series element: %v", err)
	}

	ex.AssertAreEqual(t, "open", 276.99, s.Open.Float64)
	ex.AssertAreEqual(t, "high", 277.32, s.High.Float64)
	ex.AssertAreEqual(t, "low", 269.16, s.Low.Float64)
	ex.AssertAreEqual(t, "close", 270.37, s.Close.Float64)
	ex.AssertAreEqual(t, "adjusted close", 270.37, s.AdjustedClose.Float64)
	ex.AssertAreEqual(t, "volume", float64(86167123), s.Volume.Float64)
	ex.AssertAreEqual(t, "dividend amount", true, s.DividendAmount.Valid)

	// a blank adjusted close is null, price falls back to close
	ex.AssertAreEqual(t, "blank adjusted close", false, res.TimeSeries[0].AdjustedClose.Valid)
	ex.AssertAreEqual(t, "fallback price", 269.70, res.TimeSeries[0].Price().Float64)
}

func Test_AlphaVantage_FetchDailyAdjustedTrimsWindow(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, dailyAdjustedPayload)

	start := time.Date(2025, time.October, 30, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)

	bars, err := c.FetchDailyAdjusted(context.Background(), "AAPL", start, end)
	if err != nil {
		t.Fatalf("error fetching: %v", err)
	}

	ex.AssertAreEqual(t, "bars in window", 2, len(bars))
	ex.AssertAreEqual(t, "first in window", "2025-10-30", ex.FmtShort(bars[0].Timestamp))
}

func Test_AlphaVantage_RejectedRequest(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"Error Message": "Invalid API call."}`)

	_, err := c.GetStockTimeSeries(context.Background(), TimeSeriesDailyAdjusted, "NOPE")
	if err == nil {
		t.Fatalf("expected an error for a rejected request")
	}
}

func Test_AlphaVantage_RateLimited(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"Information": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)

	_, err := c.GetStockTimeSeries(context.Background(), TimeSeriesDailyAdjusted, "AAPL")
	if err == nil {
		t.Fatalf("expected an error for a rate limited request")
	}
}

func Test_AlphaVantage_ServerError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusInternalServerError, "")

	if _, err := c.GetStockTimeSeries(context.Background(), TimeSeriesDailyAdjusted, "AAPL"); err == nil {
		t.Fatalf("expected an error for a 500 response")
	}
}

func Test_TimeSeriesKeys(t *testing.T) {
	ex.AssertAreEqual(t, "daily adjusted function", "TIME_SERIES_DAILY_ADJUSTED", TimeSeriesDailyAdjusted.Function())
	ex.AssertAreEqual(t, "daily adjusted key", "Time Series (Daily)", TimeSeriesDailyAdjusted.TimeSeriesKey())
	ex.AssertAreEqual(t, "unknown function", "", TimeSeries(99).Function())
}

func containsParam(rawQuery, param string) bool {
	return slices.Contains(strings.Split(rawQuery, "&"), param)
}
