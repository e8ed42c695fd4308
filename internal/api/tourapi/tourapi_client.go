// Package tourapi is the client for the Korea Tourism Organization KorService2 API.
package tourapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-korea-tour-explorer/app/observability/metrics"
	"github.com/FACorreiaa/go-korea-tour-explorer/config"
	"github.com/FACorreiaa/go-korea-tour-explorer/internal/types"
)

const (
	DefaultBaseURL   = "https://apis.data.go.kr/B551011/KorService2"
	DefaultMobileApp = "MyTrip"
	DefaultNumOfRows = 10
	DefaultPageNo    = 1

	// areaCodeRows covers all 17 first-level regions in one page.
	areaCodeRows = 50

	maxBodyBytes = 4 << 20
)

var _ Client = (*HTTPClient)(nil)

// Client is the KorService2 contract used by the stats and place services.
type Client interface {
	GetAreaCode(ctx context.Context, parentCode string) ([]types.AreaCode, error)
	GetAreaBasedList(ctx context.Context, opts AreaBasedListOptions) (*ListResult, error)
	SearchKeyword(ctx context.Context, opts SearchKeywordOptions) (*ListResult, error)
	GetDetailCommon(ctx context.Context, contentID string) (*types.TourDetail, error)
	GetDetailIntro(ctx context.Context, contentID, contentTypeID string) (types.TourIntro, error)
	GetDetailImage(ctx context.Context, contentID string) ([]types.TourImage, error)
	GetDetailPetTour(ctx context.Context, contentID string) (*types.PetTourInfo, error)
}

type AreaBasedListOptions struct {
	AreaCode      string
	ContentTypeID string
	NumOfRows     int
	PageNo        int
}

type SearchKeywordOptions struct {
	Keyword       string
	AreaCode      string
	ContentTypeID string
	NumOfRows     int
	PageNo        int
}

// ListResult is one page of list or search results.
type ListResult struct {
	Items      []types.TourItem `json:"items"`
	TotalCount int              `json:"totalCount"`
	NumOfRows  int              `json:"numOfRows"`
	PageNo     int              `json:"pageNo"`
}

type HTTPClient struct {
	baseURL    string
	serviceKey string
	mobileApp  string
	http       *retryablehttp.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *metrics.AppMetrics
}

// NewClient builds a retrying KorService2 client. A missing service key is not
// an error here; every call fails with KindConfig instead.
func NewClient(cfg config.TourAPIConfig, logger *slog.Logger) *HTTPClient {
	l := logger.With(slog.String("component", "TourAPIClient"))

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	mobileApp := cfg.MobileApp
	if mobileApp == "" {
		mobileApp = DefaultMobileApp
	}
	delays := cfg.RetryDelays
	if len(delays) == 0 {
		delays = DefaultRetryDelays
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &HTTPClient{
		baseURL:    baseURL,
		serviceKey: normaliseServiceKey(cfg.ServiceKey),
		mobileApp:  mobileApp,
		logger:     l,
		metrics:    metrics.Get(),
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = maxRetries
	rc.HTTPClient.Timeout = timeout
	rc.Backoff = tableBackoff(delays)
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{l}
	rc.RequestLogHook = c.retryLogHook
	c.http = rc

	if cfg.RateLimitPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
	}

	return c
}

// normaliseServiceKey accepts both the encoded and decoded key variants issued
// by data.go.kr; url.Values re-encodes on the way out.
func normaliseServiceKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.Contains(key, "%") {
		if decoded, err := url.QueryUnescape(key); err == nil {
			return decoded
		}
	}
	return key
}

func (c *HTTPClient) GetAreaCode(ctx context.Context, parentCode string) ([]types.AreaCode, error) {
	params := url.Values{}
	params.Set("numOfRows", strconv.Itoa(areaCodeRows))
	params.Set("pageNo", "1")
	if code := strings.TrimSpace(parentCode); code != "" {
		params.Set("areaCode", code)
	}

	p, err := fetch[areaCodeItem](ctx, c, "areaCode2", params)
	if err != nil {
		return nil, err
	}
	areas := make([]types.AreaCode, 0, len(p.Items))
	for _, it := range p.Items {
		areas = append(areas, types.AreaCode{Code: it.Code, Name: it.Name, RNum: int(it.RNum)})
	}
	return areas, nil
}

func (c *HTTPClient) GetAreaBasedList(ctx context.Context, opts AreaBasedListOptions) (*ListResult, error) {
	params := pagingParams(opts.NumOfRows, opts.PageNo)
	setIfPresent(params, "areaCode", opts.AreaCode)
	setIfPresent(params, "contentTypeId", opts.ContentTypeID)

	p, err := fetch[types.TourItem](ctx, c, "areaBasedList2", params)
	if err != nil {
		return nil, err
	}
	return toListResult(p), nil
}

func (c *HTTPClient) SearchKeyword(ctx context.Context, opts SearchKeywordOptions) (*ListResult, error) {
	keyword := strings.TrimSpace(opts.Keyword)
	if keyword == "" {
		return nil, newError(KindValidation, 0, "search keyword is required", nil)
	}
	params := pagingParams(opts.NumOfRows, opts.PageNo)
	params.Set("keyword", keyword)
	setIfPresent(params, "areaCode", opts.AreaCode)
	setIfPresent(params, "contentTypeId", opts.ContentTypeID)

	p, err := fetch[types.TourItem](ctx, c, "searchKeyword2", params)
	if err != nil {
		return nil, err
	}
	return toListResult(p), nil
}

func (c *HTTPClient) GetDetailCommon(ctx context.Context, contentID string) (*types.TourDetail, error) {
	id := strings.TrimSpace(contentID)
	if id == "" {
		return nil, newError(KindValidation, 0, "content id is required", nil)
	}
	params := url.Values{}
	params.Set("contentId", id)

	p, err := fetch[types.TourDetail](ctx, c, "detailCommon2", params)
	if err != nil {
		return nil, err
	}
	if len(p.Items) == 0 {
		return nil, newError(KindNotFound, http.StatusNotFound, fmt.Sprintf("no detail for content id %s", id), nil)
	}
	return &p.Items[0], nil
}

func (c *HTTPClient) GetDetailIntro(ctx context.Context, contentID, contentTypeID string) (types.TourIntro, error) {
	id := strings.TrimSpace(contentID)
	typeID := strings.TrimSpace(contentTypeID)
	if id == "" {
		return nil, newError(KindValidation, 0, "content id is required", nil)
	}
	if typeID == "" {
		return nil, newError(KindValidation, 0, "content type id is required", nil)
	}
	params := url.Values{}
	params.Set("contentId", id)
	params.Set("contentTypeId", typeID)

	p, err := fetch[stringRecord](ctx, c, "detailIntro2", params)
	if err != nil {
		return nil, err
	}
	if len(p.Items) == 0 {
		return nil, newError(KindNotFound, http.StatusNotFound, fmt.Sprintf("no intro for content id %s", id), nil)
	}
	return types.TourIntro(p.Items[0]), nil
}

func (c *HTTPClient) GetDetailImage(ctx context.Context, contentID string) ([]types.TourImage, error) {
	id := strings.TrimSpace(contentID)
	if id == "" {
		return nil, newError(KindValidation, 0, "content id is required", nil)
	}
	params := url.Values{}
	params.Set("contentId", id)
	params.Set("imageYN", "Y")

	p, err := fetch[types.TourImage](ctx, c, "detailImage2", params)
	if err != nil {
		return nil, err
	}
	if p.Items == nil {
		return []types.TourImage{}, nil
	}
	return p.Items, nil
}

// GetDetailPetTour returns nil, nil when the attraction has no pet information.
func (c *HTTPClient) GetDetailPetTour(ctx context.Context, contentID string) (*types.PetTourInfo, error) {
	id := strings.TrimSpace(contentID)
	if id == "" {
		return nil, newError(KindValidation, 0, "content id is required", nil)
	}
	params := url.Values{}
	params.Set("contentId", id)

	p, err := fetch[types.PetTourInfo](ctx, c, "detailPetTour2", params)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(p.Items) == 0 {
		return nil, nil
	}
	return &p.Items[0], nil
}

// fetch performs one logical call: common parameters, rate limiting, retries,
// status mapping and envelope decoding.
func fetch[T any](ctx context.Context, c *HTTPClient, endpoint string, params url.Values) (p *page[T], err error) {
	ctx, span := otel.Tracer("TourAPIClient").Start(ctx, "TourAPI."+endpoint, trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(http.MethodGet),
		attribute.String("tourapi.endpoint", endpoint),
	))
	defer span.End()

	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
	c.metrics.TourAPIRequestsTotal.Add(ctx, 1, attrs)
	defer func() {
		c.metrics.TourAPIDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
		if err != nil {
			kind := KindOf(err)
			c.metrics.TourAPIErrorsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("endpoint", endpoint),
				attribute.String("kind", kind.String()),
			))
			span.RecordError(err)
			span.SetStatus(codes.Error, kind.String())
			return
		}
		span.SetStatus(codes.Ok, "")
	}()

	if c.serviceKey == "" {
		return nil, newError(KindConfig, 0, "service key is not configured (set TOUR_API_KEY)", nil)
	}

	if c.limiter != nil {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return nil, newError(KindTransport, 0, "rate limiter wait aborted", werr)
		}
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("serviceKey", c.serviceKey)
	q.Set("MobileOS", "ETC")
	q.Set("MobileApp", c.mobileApp)
	q.Set("_type", "json")

	req, rerr := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if rerr != nil {
		return nil, newError(KindUnexpected, 0, "failed to build request", rerr)
	}
	req.Header.Set("Accept", "application/json")

	resp, derr := c.http.Do(req)
	if derr != nil {
		if resp != nil {
			resp.Body.Close()
		}
		if errors.Is(derr, context.Canceled) || errors.Is(derr, context.DeadlineExceeded) {
			return nil, newError(KindTransport, 0, "request aborted", derr)
		}
		return nil, newError(KindTransport, 0, "request failed after retries", derr)
	}
	defer resp.Body.Close()
	span.SetAttributes(semconv.HTTPResponseStatusCodeKey.Int(resp.StatusCode))

	if err := statusError(resp); err != nil {
		return nil, err
	}

	body, rerr := readAllLimit(resp.Body, maxBodyBytes)
	if rerr != nil {
		return nil, newError(KindUnexpected, resp.StatusCode, "failed to read response body", rerr)
	}

	p, err = decodeEnvelope[T](body, resp.StatusCode)
	if err != nil {
		c.logger.WarnContext(ctx, "Tour API returned an unusable envelope",
			slog.String("endpoint", endpoint), slog.Any("error", err))
		return nil, err
	}
	span.SetAttributes(attribute.Int("tourapi.items", len(p.Items)))
	return p, nil
}

// statusError maps non-2xx responses onto the error taxonomy.
func statusError(resp *http.Response) error {
	status := resp.StatusCode
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return newError(KindNotFound, status, "resource not found", nil)
	case status == http.StatusTooManyRequests:
		return newError(KindRateLimited, status, "rate limit exceeded", nil)
	case status >= 400 && status < 500:
		return newError(KindAPI, status, "request rejected: "+http.StatusText(status), nil)
	default:
		return newError(KindAPI, status, "upstream failure: "+http.StatusText(status), nil)
	}
}

func readAllLimit(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, errors.New("payload too large")
	}
	return b, nil
}

func pagingParams(numOfRows, pageNo int) url.Values {
	if numOfRows <= 0 {
		numOfRows = DefaultNumOfRows
	}
	if pageNo <= 0 {
		pageNo = DefaultPageNo
	}
	params := url.Values{}
	params.Set("numOfRows", strconv.Itoa(numOfRows))
	params.Set("pageNo", strconv.Itoa(pageNo))
	return params
}

func setIfPresent(params url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		params.Set(key, v)
	}
}

func toListResult(p *page[types.TourItem]) *ListResult {
	items := p.Items
	if items == nil {
		items = []types.TourItem{}
	}
	pageNo := p.PageNo
	if pageNo == 0 {
		pageNo = DefaultPageNo
	}
	return &ListResult{
		Items:      items,
		TotalCount: p.TotalCount,
		NumOfRows:  p.NumOfRows,
		PageNo:     pageNo,
	}
}

// leveledLogger hands retryablehttp's internal logging to slog with the
// service key scrubbed from request URLs.
type leveledLogger struct {
	l *slog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.l.Error(msg, redactKeys(kv)...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.l.Info(msg, redactKeys(kv)...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.l.Debug(msg, redactKeys(kv)...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.l.Warn(msg, redactKeys(kv)...) }

func redactKeys(kv []interface{}) []interface{} {
	out := make([]interface{}, len(kv))
	for i, v := range kv {
		out[i] = v
		var raw string
		switch t := v.(type) {
		case string:
			raw = t
		case *url.URL:
			raw = t.String()
		default:
			continue
		}
		if !strings.Contains(raw, "serviceKey=") {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			out[i] = "[redacted]"
			continue
		}
		q := u.Query()
		q.Set("serviceKey", "REDACTED")
		u.RawQuery = q.Encode()
		out[i] = u.String()
	}
	return out
}
