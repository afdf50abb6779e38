package main

import (
	"context"
	"sync"

	"github.com/sellerops/masstemplate-go/internal/config"
	"github.com/sellerops/masstemplate-go/internal/secrets"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/retry"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store/gsheets"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store/xlsx"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/uploader"
	"github.com/sirupsen/logrus"
)

// sheetsOpener authenticates on the first Google Sheets open so local xlsx
// runs work without credentials.
type sheetsOpener struct {
	cfg    *config.Config
	loader *secrets.Loader
	log    logrus.FieldLogger

	mu     sync.Mutex
	client *gsheets.Client
}

func (o *sheetsOpener) sheets(ctx context.Context) (*gsheets.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.client != nil {
		return o.client, nil
	}
	creds, err := o.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	rc := retry.DefaultConfig()
	if o.cfg.SheetsMaxRetries > 0 {
		rc.MaxAttempts = o.cfg.SheetsMaxRetries
	}
	gc := gsheets.Config{RateLimit: o.cfg.SheetsRateLimit, Burst: o.cfg.SheetsRateBurst, Retry: rc}
	client, err := gsheets.NewClient(ctx, creds, gc, o.log)
	if err != nil {
		return nil, err
	}
	o.client = client
	return client, nil
}

func (o *sheetsOpener) Open(ctx context.Context, ref string) (store.Workbook, error) {
	client, err := o.sheets(ctx)
	if err != nil {
		return nil, err
	}
	return client.Open(ctx, ref)
}

// app wires the pipeline from configuration.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	creator  *masstemplate.Creator
	uploader *uploader.Uploader
	loader   *secrets.Loader
}

func newApp(cfg *config.Config, log *logrus.Logger) *app {
	loader := &secrets.Loader{
		Sources: secrets.Sources{
			JSON:      cfg.ServiceAccountJSON,
			File:      cfg.CredentialsFile,
			ProjectID: cfg.GCPProjectID,
			Secret:    cfg.ServiceAccountSecret,
		},
		Log: log,
	}
	opener := store.Router{
		Files:  xlsx.Opener{},
		Sheets: &sheetsOpener{cfg: cfg, loader: loader, log: log},
	}

	creator := masstemplate.NewCreator(opener, cfg.ReferenceSpreadsheet, log)
	creator.Config = cfg.Steps
	return &app{
		cfg:      cfg,
		log:      log,
		creator:  creator,
		uploader: uploader.New(cfg.UploadChunkRows, log),
		loader:   loader,
	}
}

func (a *app) Close() {
	if a.loader.Manager != nil {
		if err := a.loader.Manager.Close(); err != nil {
			a.log.WithError(err).Warn("close secret manager")
		}
	}
}
