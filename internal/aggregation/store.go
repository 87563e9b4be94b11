package aggregation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/gamification"
	"github.com/ahmetcoskunkizilkaya/billguard-backend/internal/models"
)

// Store is the persistence the engine needs. Reads outside a transaction
// return ErrNotFound for missing rows.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	GetBillboard(ctx context.Context, id uuid.UUID) (*models.Billboard, error)
	GetReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
}

// Tx is one atomic unit of work. Any error returned from the WithinTx callback
// rolls back everything done through Tx.
type Tx interface {
	// UpsertBillboard returns the billboard with candidate.ImageHash, creating
	// it from candidate when none exists. The returned row is locked for the
	// rest of the transaction where the database supports it.
	UpsertBillboard(ctx context.Context, candidate *models.Billboard) (b *models.Billboard, created bool, err error)
	LockBillboard(ctx context.Context, id uuid.UUID) (*models.Billboard, error)
	// SaveBillboard writes b if its Version still matches the stored row and
	// bumps Version; otherwise it returns ErrConcurrencyConflict.
	SaveBillboard(ctx context.Context, b *models.Billboard) error
	// BillboardReports returns the linked reports in submission order.
	BillboardReports(ctx context.Context, billboardID uuid.UUID) ([]models.Report, error)

	LockReport(ctx context.Context, id uuid.UUID) (*models.Report, error)
	CreateReport(ctx context.Context, r *models.Report) error
	SaveReport(ctx context.Context, r *models.Report) error

	UpsertVote(ctx context.Context, v *models.ReportVote) error
	CountVotes(ctx context.Context, reportID uuid.UUID) (up, down int, err error)

	LoadProfile(ctx context.Context, userID uuid.UUID) (gamification.Profile, error)
	ApplyCommands(ctx context.Context, cmds []gamification.Command) error
}
