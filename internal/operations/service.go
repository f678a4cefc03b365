package operations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wareline/wareline/internal/shared"
	"github.com/wareline/wareline/internal/stock"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, docType DocumentType, limit int) ([]Document, error)
	Get(ctx context.Context, docType DocumentType, id int64) (Document, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CachePort invalidates cached stock breakdowns after validation.
type CachePort interface {
	InvalidateProducts(ctx context.Context, productIDs ...int64)
}

// Service orchestrates the draft/validate lifecycle of the four document
// types and applies their stock effects.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	cache       CachePort
	idempotency *shared.IdempotencyStore
}

// NewService constructs the operations service. audit, cache and idempotency
// may be nil.
func NewService(repo RepositoryPort, audit AuditPort, cache CachePort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, idempotency: idem}
}

// LineInput is one incoming document line. Quantity applies to receipts,
// deliveries and transfers; CountedQuantity applies to adjustments.
type LineInput struct {
	ProductID       int64
	Quantity        decimal.Decimal
	CountedQuantity decimal.Decimal
}

// CreateInput carries a new or replacement document payload.
type CreateInput struct {
	PartnerName   string
	SourceID      *int64
	DestinationID *int64
	LocationID    *int64
	Date          time.Time
	Notes         string
	Lines         []LineInput
}

// List returns documents of one type, newest first.
func (s *Service) List(ctx context.Context, docType DocumentType, limit int) ([]Document, error) {
	return s.repo.List(ctx, docType, limit)
}

// Get loads one document with its lines.
func (s *Service) Get(ctx context.Context, docType DocumentType, id int64) (Document, error) {
	if id <= 0 {
		return Document{}, fmt.Errorf("%w: invalid document id", shared.ErrValidation)
	}
	return s.repo.Get(ctx, docType, id)
}

// Create inserts a draft document. Empty documents are rejected here as well
// as at validation so a draft always carries at least one line.
func (s *Service) Create(ctx context.Context, docType DocumentType, input CreateInput, actorID int64) (Document, error) {
	if err := validateHeader(docType, input); err != nil {
		return Document{}, err
	}
	if len(input.Lines) == 0 {
		return Document{}, shared.ErrEmptyDocument
	}

	doc := Document{
		Type:          docType,
		Status:        StatusDraft,
		PartnerName:   input.PartnerName,
		SourceID:      input.SourceID,
		DestinationID: input.DestinationID,
		LocationID:    input.LocationID,
		Date:          defaultTime(input.Date),
		Notes:         input.Notes,
		CreatedBy:     actorID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		seq, err := tx.NextNumber(ctx, docType)
		if err != nil {
			return err
		}
		doc.Number = FormatNumber(docType, seq)

		id, err := tx.InsertDocument(ctx, doc)
		if err != nil {
			return err
		}
		doc.ID = id

		return insertLines(ctx, tx, docType, id, input.Lines)
	})
	if err != nil {
		return Document{}, err
	}

	s.recordAudit(ctx, actorID, string(docType)+".create", doc.ID, map[string]any{"number": doc.Number})
	return s.repo.Get(ctx, docType, doc.ID)
}

// Update replaces the header and, when lines are supplied, all lines of a
// draft. Validated documents are immutable.
func (s *Service) Update(ctx context.Context, docType DocumentType, id int64, input CreateInput, actorID int64) (Document, error) {
	doc, err := s.Get(ctx, docType, id)
	if err != nil {
		return Document{}, err
	}
	if doc.Status == StatusValidated {
		return Document{}, shared.ErrInvalidState
	}
	if err := validateHeader(docType, input); err != nil {
		return Document{}, err
	}
	if input.Lines != nil && len(input.Lines) == 0 {
		return Document{}, shared.ErrEmptyDocument
	}

	doc.PartnerName = input.PartnerName
	doc.SourceID = input.SourceID
	doc.DestinationID = input.DestinationID
	doc.LocationID = input.LocationID
	doc.Date = defaultTime(input.Date)
	doc.Notes = input.Notes

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateHeader(ctx, doc); err != nil {
			return err
		}
		if input.Lines == nil {
			return nil
		}
		if err := tx.DeleteLines(ctx, doc.ID); err != nil {
			return err
		}
		return insertLines(ctx, tx, docType, doc.ID, input.Lines)
	})
	if err != nil {
		return Document{}, err
	}

	s.recordAudit(ctx, actorID, string(docType)+".update", doc.ID, map[string]any{"number": doc.Number})
	return s.repo.Get(ctx, docType, id)
}

// Delete removes a draft document and its lines. Validated documents are
// immutable.
func (s *Service) Delete(ctx context.Context, docType DocumentType, id int64, actorID int64) error {
	doc, err := s.Get(ctx, docType, id)
	if err != nil {
		return err
	}
	if doc.Status == StatusValidated {
		return shared.ErrInvalidState
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.DeleteLines(ctx, doc.ID); err != nil {
			return err
		}
		return tx.DeleteDocument(ctx, doc.ID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, string(docType)+".delete", id, map[string]any{"number": doc.Number})
	return nil
}

// Validate finalizes a draft: applies its stock effects, writes one movement
// row per line and flips the status. Everything happens in one transaction
// with row locks on every touched (product, location) pair, so a failure on
// any line rolls back the whole document.
func (s *Service) Validate(ctx context.Context, docType DocumentType, id int64, validatorID int64) (Document, error) {
	existing, err := s.Get(ctx, docType, id)
	if err != nil {
		return Document{}, err
	}
	if existing.Status == StatusValidated {
		return Document{}, shared.ErrInvalidState
	}
	if len(existing.Lines) == 0 {
		return Document{}, shared.ErrEmptyDocument
	}

	key := fmt.Sprintf("DOC:%s", existing.Number)
	inserted := false
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "operations.validate"); err != nil {
			return Document{}, err
		}
		inserted = true
	}

	now := time.Now().UTC()
	var products []int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetDocument(ctx, docType, id)
		if err != nil {
			return err
		}
		if doc.Status == StatusValidated {
			return shared.ErrInvalidState
		}
		if len(doc.Lines) == 0 {
			return shared.ErrEmptyDocument
		}

		ledger := tx.Ledger()
		for _, line := range doc.Lines {
			if err := s.applyLine(ctx, tx, ledger, doc, line, validatorID, now); err != nil {
				return err
			}
			products = append(products, line.ProductID)
		}

		return tx.MarkValidated(ctx, doc.ID, validatorID, now)
	})
	if err != nil {
		if inserted {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Document{}, err
	}

	if s.cache != nil {
		s.cache.InvalidateProducts(ctx, products...)
	}
	s.recordAudit(ctx, validatorID, string(docType)+".validate", id, map[string]any{"number": existing.Number})
	return s.repo.Get(ctx, docType, id)
}

// applyLine applies one line's stock effect and writes its movement row.
func (s *Service) applyLine(ctx context.Context, tx TxRepository, ledger stock.TxLedger, doc Document, line Line, validatorID int64, now time.Time) error {
	movement := stock.Movement{
		MovementID:   fmt.Sprintf("%s-%d", doc.Number, line.ProductID),
		Type:         string(doc.Type),
		Reference:    doc.Number,
		ProductID:    line.ProductID,
		Quantity:     line.Quantity,
		UOM:          line.ProductUOM,
		MovementDate: now,
		ValidatedBy:  &validatorID,
		ValidatedAt:  &now,
		Notes:        doc.Notes,
		CreatedBy:    &doc.CreatedBy,
	}

	switch doc.Type {
	case TypeReceipt:
		if err := s.increment(ctx, ledger, line.ProductID, *doc.DestinationID, line.Quantity); err != nil {
			return err
		}
		movement.DestinationID = doc.DestinationID

	case TypeDelivery:
		if err := s.decrement(ctx, ledger, line, *doc.SourceID); err != nil {
			return err
		}
		movement.SourceID = doc.SourceID

	case TypeTransfer:
		if err := s.decrement(ctx, ledger, line, *doc.SourceID); err != nil {
			return err
		}
		if err := s.increment(ctx, ledger, line.ProductID, *doc.DestinationID, line.Quantity); err != nil {
			return err
		}
		movement.SourceID = doc.SourceID
		movement.DestinationID = doc.DestinationID

	case TypeAdjustment:
		level, err := ledger.GetForUpdate(ctx, line.ProductID, *doc.LocationID)
		if err != nil && !errors.Is(err, stock.ErrLevelNotFound) {
			return err
		}
		system := level.Quantity
		difference := line.CountedQuantity.Sub(system)
		level.Quantity = line.CountedQuantity
		if err := ledger.Upsert(ctx, level); err != nil {
			return err
		}
		if err := tx.SetAdjustmentLine(ctx, line.ID, system, line.CountedQuantity, difference); err != nil {
			return err
		}
		// The movement records the signed difference verbatim against
		// the counted location.
		movement.Quantity = difference
		movement.DestinationID = doc.LocationID

	default:
		return fmt.Errorf("%w: unknown document type %q", shared.ErrValidation, doc.Type)
	}

	return ledger.InsertMovement(ctx, movement)
}

func (s *Service) increment(ctx context.Context, ledger stock.TxLedger, productID, locationID int64, qty decimal.Decimal) error {
	level, err := ledger.GetForUpdate(ctx, productID, locationID)
	if err != nil && !errors.Is(err, stock.ErrLevelNotFound) {
		return err
	}
	level.Quantity = level.Quantity.Add(qty)
	return ledger.Upsert(ctx, level)
}

func (s *Service) decrement(ctx context.Context, ledger stock.TxLedger, line Line, locationID int64) error {
	level, err := ledger.GetForUpdate(ctx, line.ProductID, locationID)
	if err != nil {
		if errors.Is(err, stock.ErrLevelNotFound) {
			return fmt.Errorf("%w: no stock for product %d at source location", shared.ErrInsufficientStock, line.ProductID)
		}
		return err
	}
	remaining := level.Quantity.Sub(line.Quantity)
	if remaining.IsNegative() {
		return fmt.Errorf("%w: product %d has %s available, %s required",
			shared.ErrInsufficientStock, line.ProductID, level.Quantity.String(), line.Quantity.String())
	}
	level.Quantity = remaining
	return ledger.Upsert(ctx, level)
}

// insertLines validates and writes the line set for a draft.
func insertLines(ctx context.Context, tx TxRepository, docType DocumentType, documentID int64, lines []LineInput) error {
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID <= 0 {
			return fmt.Errorf("%w: line requires a product", shared.ErrValidation)
		}
		// Movement ids are {number}-{product}, so a product may appear once.
		if _, dup := seen[line.ProductID]; dup {
			return fmt.Errorf("%w: product %d listed more than once", shared.ErrValidation, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
		if docType == TypeAdjustment {
			if line.CountedQuantity.IsNegative() {
				return fmt.Errorf("%w: counted quantity must be >= 0", shared.ErrValidation)
			}
		} else if !line.Quantity.IsPositive() {
			return fmt.Errorf("%w: line quantity must be > 0", shared.ErrValidation)
		}
		if err := tx.InsertLine(ctx, Line{
			DocumentID:      documentID,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			CountedQuantity: line.CountedQuantity,
		}); err != nil {
			return err
		}
	}
	return nil
}

// validateHeader checks the per-type location requirements.
func validateHeader(docType DocumentType, input CreateInput) error {
	switch docType {
	case TypeReceipt:
		if input.DestinationID == nil || *input.DestinationID <= 0 {
			return fmt.Errorf("%w: receipt requires a destination location", shared.ErrValidation)
		}
	case TypeDelivery:
		if input.SourceID == nil || *input.SourceID <= 0 {
			return fmt.Errorf("%w: delivery requires a source location", shared.ErrValidation)
		}
	case TypeTransfer:
		if input.SourceID == nil || *input.SourceID <= 0 || input.DestinationID == nil || *input.DestinationID <= 0 {
			return fmt.Errorf("%w: transfer requires source and destination locations", shared.ErrValidation)
		}
		if *input.SourceID == *input.DestinationID {
			return fmt.Errorf("%w: source and destination locations must differ", shared.ErrValidation)
		}
	case TypeAdjustment:
		if input.LocationID == nil || *input.LocationID <= 0 {
			return fmt.Errorf("%w: adjustment requires a location", shared.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown document type %q", shared.ErrValidation, docType)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "operations",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}

func defaultTime(value time.Time) time.Time {
	if value.IsZero() {
		return time.Now().UTC()
	}
	return value
}
