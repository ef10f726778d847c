package alpha_vantage

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"

	ex "github.com/NovaInv/EfficientFrontier/data/extensions"
	m "github.com/NovaInv/EfficientFrontier/data/models"
	c "github.com/NovaInv/EfficientFrontier/service/api"
)

// public
const (
	HostDefault = "www.alphavantage.co"
	SourceName  = "alphavantage"
)

// private
const (
	// default query parameters, full is needed for anything past ~100 trading days
	defaultOutputSize = "full"
	defaultDataType   = "json"
	defaultTimeout    = time.Second * 30

	// api request elements
	query    = "query"
	symbol   = "symbol"
	function = "function"
)

var (
	timeSeriesDateFormats = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}

	ohlcvResultKeys = map[string]string{
		"Open":   ". Open",
		"High":   ". High",
		"Low":    ". Low",
		"Close":  ". Close",
		"Volume": ". Volume",
	}

	// keys av uses instead of "Meta Data" when a request is rejected
	errorResultKeys = []string{"Error Message", "Information", "Note"}
)

type AlphaVantageClient struct {
	*c.Client
}

func GetClient(apiKey string) (*AlphaVantageClient, error) {
	return NewClient(HostDefault, apiKey, defaultTimeout)
}

func NewClient(baseUrl, apiKey string, timeout time.Duration) (*AlphaVantageClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("error creating alpha vantage client, api key is empty")
	}

	client, err := c.ClientFactory(baseUrl, apiKey, timeout)
	if err != nil {
		return nil, err
	}

	return &AlphaVantageClient{client}, nil
}

func (avc *AlphaVantageClient) Name() string {
	return SourceName
}

// FetchDailyAdjusted returns the daily bars for ticker with start <= timestamp < end, oldest first.
// https://www.alphavantage.co/documentation/#dailyadj
func (avc *AlphaVantageClient) FetchDailyAdjusted(ctx context.Context, ticker string, start, end time.Time) ([]*m.TimeSeriesData, error) {
	res, err := avc.GetStockTimeSeries(ctx, TimeSeriesDailyAdjusted, ticker)
	if err != nil {
		return nil, err
	}

	f := func(d *m.TimeSeriesData) bool { return !d.Timestamp.Before(start) && d.Timestamp.Before(end) }
	return ex.FilterMultiplePtr(res.TimeSeries, f), nil
}

func (avc *AlphaVantageClient) GetStockTimeSeries(ctx context.Context, series TimeSeries, ticker string) (*m.TimeSeriesResult, error) {
	if avc == nil || avc.Client == nil {
		return nil, fmt.Errorf("alpha vantage client has not been set")
	}

	endpoint := avc.buildRequestPath(map[string]string{
		function: series.Function(),
		symbol:   ticker,
	})

	response, err := avc.Client.Connection.Request(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s for %s: %w", series.Function(), ticker, err)
	}

	defer response.Body.Close()

	raw, err := parseRawJson(response.Body)
	if err != nil {
		return nil, err
	}

	if err := parseErrorResult(raw); err != nil {
		return nil, fmt.Errorf("error requesting %s for %s: %w", series.Function(), ticker, err)
	}

	metaData, timeZone, err := parseMetaData(raw)
	if err != nil {
		return nil, err
	}

	timeSeriesData, err := parseTimeSeriesDataResult(raw, series.TimeSeriesKey(), timeZone)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(timeSeriesData, func(a, b *m.TimeSeriesData) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

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
	query.Set("outputsize", defaultOutputSize)

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

func parseErrorResult(raw map[string]json.RawMessage) error {
	if _, ok := raw["Meta Data"]; ok {
		return nil
	}

	for _, key := range errorResultKeys {
		if msg, ok := raw[key]; ok {
			var s string
			_ = json.Unmarshal(msg, &s)
			return fmt.Errorf("alpha vantage returned %q: %s", key, s)
		}
	}

	return fmt.Errorf("alpha vantage response is missing meta data, keys: %v", slices.Sorted(maps.Keys(raw)))
}

func parseMetaData(raw map[string]json.RawMessage) (*m.TimeSeriesMetadata, *time.Location, error) {
	var metadataElements map[string]string
	if err := json.Unmarshal(raw["Meta Data"], &metadataElements); err != nil {
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
		return nil, nil, fmt.Errorf("error parsing last refreshed date")
	}

	res := m.TimeSeriesMetadata{
		Information:   optionalElement(metadataElements, metaDataKeys, ". Information"),
		Symbol:        metadataElements[symbolKey],
		LastRefreshed: lastRefreshed,
		OutputSize:    optionalElement(metadataElements, metaDataKeys, ". Output Size"),
		TimeZone:      metadataElements[timeZoneKey],
	}

	return &res, timeZone, nil
}

func optionalElement(elements map[string]string, keys []string, suffix string) null.String {
	key, err := ex.FilterSingle(keys, func(s string) bool { return strings.HasSuffix(s, suffix) })
	if err != nil {
		return null.String{}
	}
	return null.StringFrom(elements[key])
}

func parseTimeSeriesDataResult(raw map[string]json.RawMessage, key string, location *time.Location) ([]*m.TimeSeriesData, error) {
	var timeSeriesElements map[string]map[string]string
	if err := json.Unmarshal(raw[key], &timeSeriesElements); err != nil {
		return nil, fmt.Errorf("error unmarshaling time series %q: %w", key, err)
	}

	if len(timeSeriesElements) == 0 {
		return nil, nil
	}

	// populate the lookups from any element, av sends the same headers for every bar
	firstKey := slices.MinFunc(slices.Collect(maps.Keys(timeSeriesElements)), cmp.Compare[string])
	firstValue := timeSeriesElements[firstKey]
	valueKeys := slices.Collect(maps.Keys(firstValue))

	ohlcvLookup, err := getLookupKey(ohlcvResultKeys, firstValue)
	if err != nil {
		return nil, err
	}

	// adjusted close and dividend only exist on the adjusted series
	acf := func(s string) bool { return strings.HasSuffix(s, ". adjusted close") }
	adjustedCloseKey, _ := ex.FilterSingle(valueKeys, acf)

	daf := func(s string) bool { return strings.HasSuffix(s, ". dividend amount") }
	dividendAmountKey, _ := ex.FilterSingle(valueKeys, daf)

	timeSeries := make([]*m.TimeSeriesData, 0, len(timeSeriesElements))
	for timeSeriesKey, timeSeriesValue := range timeSeriesElements {
		timestamp, err := parseDate(timeSeriesKey, location)
		if err != nil {
			return nil, fmt.Errorf("error converting TIMESTAMP from string to time.Time: %w", err)
		}

		data := &m.TimeSeriesData{
			Timestamp:      timestamp,
			AdjustedClose:  parseFloat(timeSeriesValue[adjustedCloseKey]),
			DividendAmount: parseFloat(timeSeriesValue[dividendAmountKey]),
		}

		if err := parseOHLCV(data, timeSeriesValue, ohlcvLookup); err != nil {
			return nil, fmt.Errorf("error parsing OHLCV: %w", err)
		}

		timeSeries = append(timeSeries, data)
	}

	return timeSeries, nil
}

func parseOHLCV(res *m.TimeSeriesData, value, lookup map[string]string) error {
	v := reflect.ValueOf(res).Elem()
	for jsonKey, structAttribute := range lookup {
		field := v.FieldByName(structAttribute)
		if !field.IsValid() {
			return fmt.Errorf("field %s does not exist", structAttribute)
		}
		if !field.CanSet() {
			return fmt.Errorf("field %s cannot be set", structAttribute)
		}

		field.Set(reflect.ValueOf(parseFloat(value[jsonKey])))
	}
	return nil
}

func getLookupKey(expectedKeys, values map[string]string) (map[string]string, error) {
	res := make(map[string]string)
	responseValueHeaders := slices.Collect(maps.Keys(values))

	for key, value := range expectedKeys {
		f := func(s string) bool {
			return strings.HasSuffix(strings.ToLower(s), strings.ToLower(value))
		}
		if jsonKey, err := ex.FilterSingle(responseValueHeaders, f); err == nil {
			res[jsonKey] = key
		}
	}

	if len(res) == 0 {
		return nil, fmt.Errorf("error generating key value map from av response object. Available headers: %v", responseValueHeaders)
	}

	return res, nil
}

func getTimeZone(location string) (*time.Location, error) {
	var loc string
	switch strings.ToUpper(location) {
	case "US/EASTERN":
		loc = "America/New_York"
	default:
		log.Warn().Str("timeZone", location).Msg("time zone not recognized, defaulting to utc")
		return time.UTC, nil
	}

	res, err := time.LoadLocation(loc)
	if err != nil {
		return nil, fmt.Errorf("error parsing time zone %s in time.LoadLocation", loc)
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

func parseFloat(val string) null.Float {
	if val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return null.FloatFrom(f)
		}
	}
	return null.Float{}
}
