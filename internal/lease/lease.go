package lease

import (
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/google/uuid"
)

// Locker serializes scheduled work across replicas. Acquire succeeds for at
// most one holder per name until the lease expires or is released.
type Locker interface {
	Acquire(name string, maxHold, minHold time.Duration) (*Lease, bool)
	Release(l *Lease)
}

// Lease is one named row in the leases table. lockedUntil is the hard
// expiry; minHold keeps the row held until lockedAt+minHold even after
// Release, which stops a fast replica from re-running a short task.
type Lease struct {
	Name        string    `gorm:"column:name;primaryKey"`
	LockedBy    string    `gorm:"column:locked_by"`
	LockedAt    time.Time `gorm:"column:locked_at"`
	LockedUntil time.Time `gorm:"column:locked_until"`

	minHold time.Duration `gorm:"-"`
}

func (Lease) TableName() string {
	return "leases"
}

type GormLocker struct {
	db     *gorm.DB
	holder string
	logger *slog.Logger
}

func NewGormLocker(db *gorm.DB, logger *slog.Logger) *GormLocker {
	return &GormLocker{
		db:     db,
		holder: uuid.NewString(),
		logger: logger,
	}
}

// Acquire inserts the lease row, or steals it when the previous holder's
// expiry has passed. Returns false when another replica holds the lease.
// minHold is the minimum time the lease stays held after acquisition
// regardless of how quickly the guarded task finishes.
func (g *GormLocker) Acquire(name string, maxHold, minHold time.Duration) (*Lease, bool) {
	now := time.Now()
	lease := &Lease{
		Name:        name,
		LockedBy:    g.holder,
		LockedAt:    now,
		LockedUntil: now.Add(maxHold),
		minHold:     minHold,
	}

	res := g.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Lt{Column: clause.Column{Table: "leases", Name: "locked_until"}, Value: now},
		}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"locked_by":    lease.LockedBy,
			"locked_at":    lease.LockedAt,
			"locked_until": lease.LockedUntil,
		}),
	}).Create(lease)

	if res.Error != nil {
		g.logger.Error("failed to acquire lease", "name", name, "error", res.Error)
		return nil, false
	}
	if res.RowsAffected == 0 {
		return nil, false
	}
	return lease, true
}

// Release shortens the lease so another replica can take over. The row is
// kept until lockedAt+minHold has passed.
func (g *GormLocker) Release(l *Lease) {
	until := l.LockedAt.Add(l.minHold)
	if now := time.Now(); now.After(until) {
		until = now
	}

	err := g.db.Model(&Lease{}).
		Where("name = ? AND locked_by = ?", l.Name, g.holder).
		Update("locked_until", until).Error
	if err != nil {
		g.logger.Error("failed to release lease", "name", l.Name, "error", err)
	}
}
