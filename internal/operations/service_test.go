package operations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/wareline/wareline/internal/shared"
	"github.com/wareline/wareline/internal/stock"
)

// memoryStore backs an in-memory RepositoryPort with transactional rollback
// so validation failures can be asserted to leave nothing behind.
type memoryStore struct {
	docs      map[int64]Document
	nextDoc   int64
	nextLine  int64
	seqs      map[DocumentType]int64
	levels    map[string]stock.Level
	movements []stock.Movement
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		docs:   make(map[int64]Document),
		seqs:   make(map[DocumentType]int64),
		levels: make(map[string]stock.Level),
	}
}

func (m *memoryStore) clone() *memoryStore {
	cp := &memoryStore{
		docs:      make(map[int64]Document, len(m.docs)),
		nextDoc:   m.nextDoc,
		nextLine:  m.nextLine,
		seqs:      make(map[DocumentType]int64, len(m.seqs)),
		levels:    make(map[string]stock.Level, len(m.levels)),
		movements: append([]stock.Movement(nil), m.movements...),
	}
	for id, doc := range m.docs {
		doc.Lines = append([]Line(nil), doc.Lines...)
		cp.docs[id] = doc
	}
	for t, s := range m.seqs {
		cp.seqs[t] = s
	}
	for k, l := range m.levels {
		cp.levels[k] = l
	}
	return cp
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	backup := m.clone()
	if err := fn(ctx, &memTx{store: m}); err != nil {
		*m = *backup
		return err
	}
	return nil
}

func (m *memoryStore) List(ctx context.Context, docType DocumentType, limit int) ([]Document, error) {
	out := []Document{}
	for _, doc := range m.docs {
		if doc.Type == docType {
			doc.Lines = append([]Line(nil), doc.Lines...)
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memoryStore) Get(ctx context.Context, docType DocumentType, id int64) (Document, error) {
	doc, ok := m.docs[id]
	if !ok || doc.Type != docType {
		return Document{}, shared.ErrNotFound
	}
	doc.Lines = append([]Line(nil), doc.Lines...)
	return doc, nil
}

func stockKey(productID, locationID int64) string {
	return fmt.Sprintf("%d:%d", productID, locationID)
}

func (m *memoryStore) level(productID, locationID int64) stock.Level {
	return m.levels[stockKey(productID, locationID)]
}

type memTx struct {
	store *memoryStore
}

func (t *memTx) NextNumber(ctx context.Context, docType DocumentType) (int64, error) {
	t.store.seqs[docType]++
	return t.store.seqs[docType], nil
}

func (t *memTx) InsertDocument(ctx context.Context, doc Document) (int64, error) {
	t.store.nextDoc++
	doc.ID = t.store.nextDoc
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt
	t.store.docs[doc.ID] = doc
	return doc.ID, nil
}

func (t *memTx) UpdateHeader(ctx context.Context, doc Document) error {
	current, ok := t.store.docs[doc.ID]
	if !ok || current.Status != StatusDraft {
		return shared.ErrNotFound
	}
	current.PartnerName = doc.PartnerName
	current.SourceID = doc.SourceID
	current.DestinationID = doc.DestinationID
	current.LocationID = doc.LocationID
	current.Date = doc.Date
	current.Notes = doc.Notes
	t.store.docs[doc.ID] = current
	return nil
}

func (t *memTx) InsertLine(ctx context.Context, line Line) error {
	doc, ok := t.store.docs[line.DocumentID]
	if !ok {
		return shared.ErrNotFound
	}
	t.store.nextLine++
	line.ID = t.store.nextLine
	doc.Lines = append(doc.Lines, line)
	t.store.docs[line.DocumentID] = doc
	return nil
}

func (t *memTx) DeleteLines(ctx context.Context, documentID int64) error {
	doc, ok := t.store.docs[documentID]
	if !ok {
		return shared.ErrNotFound
	}
	doc.Lines = nil
	t.store.docs[documentID] = doc
	return nil
}

func (t *memTx) DeleteDocument(ctx context.Context, documentID int64) error {
	if _, ok := t.store.docs[documentID]; !ok {
		return shared.ErrNotFound
	}
	delete(t.store.docs, documentID)
	return nil
}

func (t *memTx) SetAdjustmentLine(ctx context.Context, lineID int64, system, counted, difference decimal.Decimal) error {
	for docID, doc := range t.store.docs {
		for i, line := range doc.Lines {
			if line.ID == lineID {
				doc.Lines[i].SystemQuantity = system
				doc.Lines[i].CountedQuantity = counted
				doc.Lines[i].Difference = difference
				t.store.docs[docID] = doc
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

func (t *memTx) MarkValidated(ctx context.Context, documentID, validatorID int64, at time.Time) error {
	doc, ok := t.store.docs[documentID]
	if !ok {
		return shared.ErrNotFound
	}
	if doc.Status != StatusDraft {
		return shared.ErrInvalidState
	}
	doc.Status = StatusValidated
	doc.ValidatedBy = &validatorID
	doc.ValidatedAt = &at
	t.store.docs[documentID] = doc
	return nil
}

func (t *memTx) GetDocument(ctx context.Context, docType DocumentType, id int64) (Document, error) {
	return t.store.Get(ctx, docType, id)
}

func (t *memTx) Ledger() stock.TxLedger {
	return &memLedger{store: t.store}
}

type memLedger struct {
	store *memoryStore
}

func (l *memLedger) GetForUpdate(ctx context.Context, productID, locationID int64) (stock.Level, error) {
	level, ok := l.store.levels[stockKey(productID, locationID)]
	if !ok {
		return stock.Level{ProductID: productID, LocationID: locationID}, stock.ErrLevelNotFound
	}
	return level, nil
}

func (l *memLedger) Upsert(ctx context.Context, level stock.Level) error {
	l.store.levels[stockKey(level.ProductID, level.LocationID)] = level
	return nil
}

func (l *memLedger) InsertMovement(ctx context.Context, movement stock.Movement) error {
	movement.ID = int64(len(l.store.movements) + 1)
	l.store.movements = append(l.store.movements, movement)
	return nil
}

func ptr(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(store *memoryStore) *Service {
	return NewService(store, nil, nil, nil)
}

func receiptInput(dest int64, lines ...LineInput) CreateInput {
	return CreateInput{DestinationID: ptr(dest), Lines: lines}
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	first, err := svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("10")}), 1)
	require.NoError(t, err)
	require.Equal(t, "REC-00001", first.Number)
	require.Equal(t, StatusDraft, first.Status)

	second, err := svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("1")}), 1)
	require.NoError(t, err)
	require.Equal(t, "REC-00002", second.Number)
}

func TestCreateRejectsEmptyDocument(t *testing.T) {
	svc := newTestService(newMemoryStore())
	for _, docType := range []DocumentType{TypeReceipt, TypeDelivery, TypeTransfer, TypeAdjustment} {
		input := CreateInput{
			SourceID:      ptr(1),
			DestinationID: ptr(2),
			LocationID:    ptr(1),
		}
		_, err := svc.Create(context.Background(), docType, input, 1)
		require.ErrorIs(t, err, shared.ErrEmptyDocument, "type %s", docType)
	}
}

func TestCreateRejectsMissingLocations(t *testing.T) {
	svc := newTestService(newMemoryStore())
	ctx := context.Background()
	line := LineInput{ProductID: 5, Quantity: dec("1")}

	_, err := svc.Create(ctx, TypeReceipt, CreateInput{Lines: []LineInput{line}}, 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, TypeDelivery, CreateInput{Lines: []LineInput{line}}, 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, TypeTransfer, CreateInput{SourceID: ptr(1), DestinationID: ptr(1), Lines: []LineInput{line}}, 1)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDraftIsMutable(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	doc, err := svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("10")}), 1)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, TypeReceipt, doc.ID, CreateInput{
		DestinationID: ptr(2),
		Notes:         "rerouted",
		Lines:         []LineInput{{ProductID: 5, Quantity: dec("7")}, {ProductID: 9, Quantity: dec("2")}},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), *updated.DestinationID)
	require.Len(t, updated.Lines, 2)
	require.Equal(t, "rerouted", updated.Notes)

	require.NoError(t, svc.Delete(ctx, TypeReceipt, doc.ID, 1))
	_, err = svc.Get(ctx, TypeReceipt, doc.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestValidatedIsImmutable(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	doc, err := svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("10")}), 1)
	require.NoError(t, err)
	_, err = svc.Validate(ctx, TypeReceipt, doc.ID, 2)
	require.NoError(t, err)

	_, err = svc.Update(ctx, TypeReceipt, doc.ID, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("99")}), 1)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	err = svc.Delete(ctx, TypeReceipt, doc.ID, 1)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestValidateReceiptMovementShape(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	doc, err := svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("10")}), 1)
	require.NoError(t, err)
	validated, err := svc.Validate(ctx, TypeReceipt, doc.ID, 2)
	require.NoError(t, err)

	require.Equal(t, StatusValidated, validated.Status)
	require.Equal(t, int64(2), *validated.ValidatedBy)
	require.NotNil(t, validated.ValidatedAt)

	require.True(t, store.level(5, 1).Quantity.Equal(dec("10")))

	require.Len(t, store.movements, 1)
	mv := store.movements[0]
	require.Equal(t, "receipt", mv.Type)
	require.Equal(t, validated.Number, mv.Reference)
	require.Nil(t, mv.SourceID)
	require.Equal(t, int64(1), *mv.DestinationID)
	require.True(t, mv.Quantity.Equal(dec("10")))
}

func TestValidateTwiceFailsAndAppliesOnce(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	doc, err := svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("10")}), 1)
	require.NoError(t, err)
	_, err = svc.Validate(ctx, TypeReceipt, doc.ID, 2)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, TypeReceipt, doc.ID, 2)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	require.True(t, store.level(5, 1).Quantity.Equal(dec("10")))
	require.Len(t, store.movements, 1)
}

func TestValidateDeliveryInsufficientStockRollsBack(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	store.levels[stockKey(5, 1)] = stock.Level{ProductID: 5, LocationID: 1, Quantity: dec("3")}
	store.levels[stockKey(9, 1)] = stock.Level{ProductID: 9, LocationID: 1, Quantity: dec("4")}

	doc, err := svc.Create(ctx, TypeDelivery, CreateInput{
		SourceID: ptr(1),
		Lines: []LineInput{
			{ProductID: 5, Quantity: dec("2")},
			{ProductID: 9, Quantity: dec("5")},
		},
	}, 1)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, TypeDelivery, doc.ID, 2)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)

	// First line's decrement must not survive the failed second line.
	require.True(t, store.level(5, 1).Quantity.Equal(dec("3")))
	require.True(t, store.level(9, 1).Quantity.Equal(dec("4")))
	require.Empty(t, store.movements)

	after, err := svc.Get(ctx, TypeDelivery, doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, after.Status)
}

func TestValidateDeliveryWithoutStockRow(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	doc, err := svc.Create(ctx, TypeDelivery, CreateInput{
		SourceID: ptr(1),
		Lines:    []LineInput{{ProductID: 5, Quantity: dec("1")}},
	}, 1)
	require.NoError(t, err)

	_, err = svc.Validate(ctx, TypeDelivery, doc.ID, 2)
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestValidateTransferConservesStock(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	store.levels[stockKey(5, 1)] = stock.Level{ProductID: 5, LocationID: 1, Quantity: dec("10")}

	doc, err := svc.Create(ctx, TypeTransfer, CreateInput{
		SourceID:      ptr(1),
		DestinationID: ptr(2),
		Lines:         []LineInput{{ProductID: 5, Quantity: dec("4")}},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "TRF-00001", doc.Number)

	_, err = svc.Validate(ctx, TypeTransfer, doc.ID, 2)
	require.NoError(t, err)

	require.True(t, store.level(5, 1).Quantity.Equal(dec("6")))
	require.True(t, store.level(5, 2).Quantity.Equal(dec("4")))

	require.Len(t, store.movements, 1)
	mv := store.movements[0]
	require.Equal(t, "transfer", mv.Type)
	require.Equal(t, int64(1), *mv.SourceID)
	require.Equal(t, int64(2), *mv.DestinationID)
	require.True(t, mv.Quantity.Equal(dec("4")))
}

func TestValidateAdjustmentSetsCountedValue(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	store.levels[stockKey(5, 1)] = stock.Level{ProductID: 5, LocationID: 1, Quantity: dec("12")}

	doc, err := svc.Create(ctx, TypeAdjustment, CreateInput{
		LocationID: ptr(1),
		Lines:      []LineInput{{ProductID: 5, CountedQuantity: dec("9")}},
	}, 1)
	require.NoError(t, err)

	validated, err := svc.Validate(ctx, TypeAdjustment, doc.ID, 2)
	require.NoError(t, err)

	require.True(t, store.level(5, 1).Quantity.Equal(dec("9")))

	line := validated.Lines[0]
	require.True(t, line.SystemQuantity.Equal(dec("12")))
	require.True(t, line.CountedQuantity.Equal(dec("9")))
	require.True(t, line.Difference.Equal(dec("-3")))

	require.Len(t, store.movements, 1)
	require.True(t, store.movements[0].Quantity.Equal(dec("-3")))
}

func TestValidateAdjustmentMissingRowCountsFromZero(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	doc, err := svc.Create(ctx, TypeAdjustment, CreateInput{
		LocationID: ptr(1),
		Lines:      []LineInput{{ProductID: 5, CountedQuantity: dec("7")}},
	}, 1)
	require.NoError(t, err)

	validated, err := svc.Validate(ctx, TypeAdjustment, doc.ID, 2)
	require.NoError(t, err)

	require.True(t, store.level(5, 1).Quantity.Equal(dec("7")))
	require.True(t, validated.Lines[0].Difference.Equal(dec("7")))
}

func TestReceiptThenTransferScenario(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	receipt, err := svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("10")}), 1)
	require.NoError(t, err)
	_, err = svc.Validate(ctx, TypeReceipt, receipt.ID, 1)
	require.NoError(t, err)
	require.True(t, store.level(5, 1).Quantity.Equal(dec("10")))

	transfer, err := svc.Create(ctx, TypeTransfer, CreateInput{
		SourceID:      ptr(1),
		DestinationID: ptr(2),
		Lines:         []LineInput{{ProductID: 5, Quantity: dec("4")}},
	}, 1)
	require.NoError(t, err)
	_, err = svc.Validate(ctx, TypeTransfer, transfer.ID, 1)
	require.NoError(t, err)

	require.True(t, store.level(5, 1).Quantity.Equal(dec("6")))
	require.True(t, store.level(5, 2).Quantity.Equal(dec("4")))
	require.Len(t, store.movements, 2)
}

func TestLineQuantityValidation(t *testing.T) {
	svc := newTestService(newMemoryStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("0")}), 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("-1")}), 1)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, TypeAdjustment, CreateInput{
		LocationID: ptr(1),
		Lines:      []LineInput{{ProductID: 5, CountedQuantity: dec("-1")}},
	}, 1)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsDuplicateProductLines(t *testing.T) {
	svc := newTestService(newMemoryStore())

	_, err := svc.Create(context.Background(), TypeReceipt, receiptInput(1,
		LineInput{ProductID: 5, Quantity: dec("2")},
		LineInput{ProductID: 5, Quantity: dec("3")},
	), 1)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateWithEmptyLineSetRejected(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	doc, err := svc.Create(ctx, TypeReceipt, receiptInput(1, LineInput{ProductID: 5, Quantity: dec("10")}), 1)
	require.NoError(t, err)

	_, err = svc.Update(ctx, TypeReceipt, doc.ID, CreateInput{
		DestinationID: ptr(1),
		Lines:         []LineInput{},
	}, 1)
	require.ErrorIs(t, err, shared.ErrEmptyDocument)
}
