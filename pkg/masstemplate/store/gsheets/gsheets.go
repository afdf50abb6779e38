// Package gsheets implements store.Workbook on the Google Sheets API v4.
package gsheets

import (
	"context"
	"fmt"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/retry"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes are the OAuth scopes requested for the service account.
var Scopes = []string{sheets.SpreadsheetsScope, sheets.DriveReadonlyScope}

// Config tunes quota handling.
type Config struct {
	// RateLimit is the sustained request rate per second.
	RateLimit float64
	// Burst is the maximum number of requests sent back to back.
	Burst int
	// Retry configures backoff; nil uses retry.DefaultConfig.
	Retry *retry.Config
}

// DefaultConfig stays under the default 60 requests per minute per user.
func DefaultConfig() Config {
	return Config{RateLimit: 1, Burst: 5}
}

// Client opens spreadsheets through one rate-limited Sheets service.
type Client struct {
	svc     *sheets.Service
	limiter *rate.Limiter
	retrier *retry.Retrier
	log     logrus.FieldLogger
}

var _ store.Opener = (*Client)(nil)

// NewClient authenticates with a service-account JSON key.
func NewClient(ctx context.Context, credentialsJSON []byte, cfg Config, log logrus.FieldLogger) (*Client, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, log), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *sheets.Service, cfg Config, log logrus.FieldLogger) *Client {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultConfig().RateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		retrier: retry.New(cfg.Retry),
		log:     log,
	}
}

// call runs fn under the rate limiter with retries.
func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	res, err := c.retrier.Do(ctx, op, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		return fn(ctx)
	})
	if res.Attempts > 1 {
		c.log.WithFields(logrus.Fields{
			"op":       op,
			"attempts": res.Attempts,
			"duration": res.TotalDuration.String(),
		}).Debug("sheets call retried")
	}
	return err
}

// Open implements store.Opener for spreadsheet URLs and IDs.
func (c *Client) Open(ctx context.Context, ref string) (store.Workbook, error) {
	return c.OpenSpreadsheet(ctx, ref)
}

// OpenSpreadsheet opens a spreadsheet and loads its worksheet metadata.
func (c *Client) OpenSpreadsheet(ctx context.Context, ref string) (*Spreadsheet, error) {
	id, err := parser.ExtractSheetID(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, ref)
	}
	s := &Spreadsheet{c: c, id: id}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
