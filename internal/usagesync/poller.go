// Package usagesync periodically pulls usage from vendor APIs and persists
// canonical snapshots for the dashboard.
package usagesync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/proxydash/proxydash/internal/models"
	"github.com/proxydash/proxydash/internal/vendor"
)

const (
	defaultSyncInterval  = 15 * time.Minute
	defaultPeriod        = "week"
	maxConcurrentFetches = 8
	noBindingRetryDelay  = time.Minute
)

// ErrUnsupportedVendor indicates a binding whose vendor cannot report usage.
var ErrUnsupportedVendor = errors.New("usage sync: vendor does not support usage reporting")

// Options tunes the sync loop.
type Options struct {
	Interval    time.Duration // Delay between sync rounds.
	Concurrency int           // Max parallel vendor fetches.
	Period      string        // Usage period requested from vendors.
}

// binding is one unit of sync work: a subuser scoped to a vendor service.
type binding struct {
	VendorID    string
	SubuserID   string
	ServiceName string
}

// Poller periodically fetches usage for customer vendor-service bindings.
type Poller struct {
	db          *gorm.DB
	vendors     *vendor.Manager
	interval    time.Duration
	concurrency int
	period      string
	hadBindings bool
}

// NewPoller constructs a usage sync poller.
func NewPoller(db *gorm.DB, vendors *vendor.Manager, opts Options) *Poller {
	if db == nil || vendors == nil {
		return nil
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > maxConcurrentFetches {
		concurrency = maxConcurrentFetches
	}
	period := strings.TrimSpace(opts.Period)
	if period == "" {
		period = defaultPeriod
	}
	return &Poller{
		db:          db,
		vendors:     vendors,
		interval:    interval,
		concurrency: concurrency,
		period:      period,
	}
}

// Start launches the sync loop in a background goroutine.
func (p *Poller) Start(ctx context.Context) {
	if p == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go p.run(ctx)
	log.Infof("usage sync started (interval=%s concurrency=%d period=%s)", p.interval, p.concurrency, p.period)
}

func (p *Poller) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		interval := p.sync(ctx)
		if ctx.Err() != nil {
			return
		}
		if interval <= 0 {
			interval = p.interval
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

// sync runs one round and returns the delay before the next one.
func (p *Poller) sync(ctx context.Context) time.Duration {
	if p == nil {
		return 0
	}
	if ctx == nil {
		ctx = context.Background()
	}

	bindings, errLoad := p.loadBindings(ctx)
	if errLoad != nil {
		log.WithError(errLoad).Warn("usage sync: load bindings failed")
		return p.interval
	}
	if len(bindings) == 0 {
		if !p.hadBindings {
			return noBindingRetryDelay
		}
		return p.interval
	}
	p.hadBindings = true

	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	for _, b := range bindings {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return p.interval
		}

		wg.Add(1)
		bCopy := b
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if errSync := p.syncBinding(ctx, bCopy); errSync != nil && !errors.Is(errSync, ErrUnsupportedVendor) {
				log.WithError(errSync).Warnf("usage sync: binding failed (vendor=%s subuser=%s)", bCopy.VendorID, bCopy.SubuserID)
			}
		}()
	}

	wg.Wait()
	return p.interval
}

// loadBindings collects distinct sync units from customer bindings. Bindings
// without a subuser cannot be queried and are skipped.
func (p *Poller) loadBindings(ctx context.Context) ([]binding, error) {
	var rows []models.CustomerVendorService
	if errFind := p.db.WithContext(ctx).
		Where("subuser_id <> ''").
		Order("id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, errFind
	}

	serviceNames, errServices := p.loadServiceNames(ctx)
	if errServices != nil {
		return nil, errServices
	}

	seen := map[binding]struct{}{}
	out := make([]binding, 0, len(rows))
	for _, row := range rows {
		b := binding{
			VendorID:    row.VendorID,
			SubuserID:   row.SubuserID,
			ServiceName: serviceNames[row.ServiceID],
		}
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}

func (p *Poller) loadServiceNames(ctx context.Context) (map[uint64]string, error) {
	var rows []models.Service
	if errFind := p.db.WithContext(ctx).Select("id", "name").Find(&rows).Error; errFind != nil {
		return nil, errFind
	}
	names := make(map[uint64]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

// syncBinding fetches usage for one binding and upserts the snapshots.
func (p *Poller) syncBinding(ctx context.Context, b binding) error {
	adapter, ok := p.vendors.Adapter(b.VendorID)
	if !ok {
		return ErrUnsupportedVendor
	}
	if !adapter.Config().Enabled {
		return nil
	}
	fetcher, ok := adapter.(vendor.UsageFetcher)
	if !ok {
		return ErrUnsupportedVendor
	}

	rows, errFetch := fetcher.FetchUsage(ctx, vendor.UsageParams{
		SubuserID: b.SubuserID,
		Period:    p.period,
		Service:   b.ServiceName,
	})
	if errFetch != nil {
		return errFetch
	}

	return p.saveSnapshots(ctx, b, rows)
}

// saveSnapshots upserts usage rows keyed by vendor, subuser, service, and
// period label.
func (p *Poller) saveSnapshots(ctx context.Context, b binding, rows []vendor.UsageRow) error {
	now := time.Now().UTC()
	for _, row := range rows {
		service := row.Service
		if service == "" || service == "N/A" {
			service = b.ServiceName
		}
		snapshot := models.UsageSnapshot{
			VendorID:  b.VendorID,
			SubuserID: b.SubuserID,
			Service:   service,
			Date:      row.Date,
			TrafficGB: row.TrafficGB,
			Requests:  row.Requests,
			FetchedAt: now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		errUpsert := p.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "vendor_id"}, {Name: "subuser_id"}, {Name: "service"}, {Name: "date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"traffic_gb", "requests", "fetched_at", "updated_at"}),
		}).Create(&snapshot).Error
		if errUpsert != nil {
			return errUpsert
		}
	}
	return nil
}
