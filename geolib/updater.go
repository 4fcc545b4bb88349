package geolib

import (
	"context"
	"sync"
	"time"
)

// Updater refreshes a database in background: once on start and then
// every UpdateEvery.
type Updater struct {
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   Logger
	database DatabaseUpdater
}

func (u *Updater) Start() {
	u.wg.Add(1)

	go func() {
		defer u.wg.Done()

		u.bgUpdate()
	}()
}

// Shutdown stops updates and waits until ongoing one is finished.
func (u *Updater) Shutdown() {
	u.cancel()
	u.wg.Wait()
}

func (u *Updater) bgUpdate() {
	ticker := time.NewTicker(u.database.UpdateEvery())
	defer ticker.Stop()

	u.doUpdate()

	for {
		select {
		case <-u.ctx.Done():
			return
		case <-ticker.C:
			u.doUpdate()
		}
	}
}

func (u *Updater) doUpdate() {
	if err := u.database.Update(u.ctx); err != nil {
		u.logger.UpdateError(u.database.Name(), err)

		return
	}

	u.logger.UpdateInfo(u.database.Name(), "database has been updated")
}

// NewUpdater prepares an updater for the database. Nothing is
// happening until Start is called.
func NewUpdater(ctx context.Context, database DatabaseUpdater, logger Logger) *Updater {
	ctx, cancel := context.WithCancel(ctx)

	return &Updater{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		database: database,
	}
}
