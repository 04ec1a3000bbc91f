package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"immo-tracker/models"
)

// ErrUnknownDriver is returned by Open for an unsupported store driver.
var ErrUnknownDriver = errors.New("unknown store driver")

// Store persists the listing snapshot. Every backend uses the same canonical
// schema.
type Store interface {
	// Load returns the persisted snapshot. A store that does not exist yet
	// yields an empty snapshot and no error.
	Load(ctx context.Context) ([]*models.Listing, error)
	// Save replaces the snapshot atomically. With checkpoint set, a dated
	// copy is written to the checkpoint directory first.
	Save(ctx context.Context, listings []*models.Listing, checkpoint bool) error
	// Backup copies the current snapshot to the backup directory and returns
	// the path written. It returns "" when there is nothing to back up.
	Backup(ctx context.Context) (string, error)
	// Query returns listings matching c, newest first. A limit of zero or
	// less means no limit.
	Query(ctx context.Context, c Conditions, limit int) ([]*models.Listing, error)
	Close() error
}

// Options are the archive settings shared by every backend.
type Options struct {
	CheckpointDir string
	BackupDir     string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Status selects listings by lifecycle state.
type Status string

const (
	StatusAll    Status = ""
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Conditions filter Query results. Nil or empty fields do not filter.
type Conditions struct {
	Status          Status
	MinPrice        *float64
	MaxPrice        *float64
	MinRooms        *float64
	MinLivingArea   *float64
	CreatedSince    *models.Date
	AddressContains string
}

// Match reports whether l satisfies every condition. A numeric bound never
// matches a listing whose value is unknown.
func (c Conditions) Match(l *models.Listing) bool {
	switch c.Status {
	case StatusActive:
		if !l.Active() {
			return false
		}
	case StatusClosed:
		if l.Active() {
			return false
		}
	}
	if c.MinPrice != nil && (l.PriceValue == nil || *l.PriceValue < *c.MinPrice) {
		return false
	}
	if c.MaxPrice != nil && (l.PriceValue == nil || *l.PriceValue > *c.MaxPrice) {
		return false
	}
	if c.MinRooms != nil && (l.RoomCount == nil || *l.RoomCount < *c.MinRooms) {
		return false
	}
	if c.MinLivingArea != nil && (l.LivingAreaSqm == nil || *l.LivingAreaSqm < *c.MinLivingArea) {
		return false
	}
	if c.CreatedSince != nil && (l.CreatedDate == nil || l.CreatedDate.Before(*c.CreatedSince)) {
		return false
	}
	if c.AddressContains != "" {
		needle := strings.ToLower(c.AddressContains)
		full := ""
		if l.FullAddress != nil {
			full = *l.FullAddress
		}
		if !strings.Contains(strings.ToLower(l.RawAddress), needle) && !strings.Contains(strings.ToLower(full), needle) {
			return false
		}
	}
	return true
}
