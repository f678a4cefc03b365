package operations

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wareline/wareline/internal/shared"
	"github.com/wareline/wareline/internal/stock"
)

// TxRepository exposes the transactional operations used by the service.
// Ledger returns a stock ledger bound to the same transaction so document
// writes and stock effects commit or roll back together.
type TxRepository interface {
	NextNumber(ctx context.Context, docType DocumentType) (int64, error)
	InsertDocument(ctx context.Context, doc Document) (int64, error)
	UpdateHeader(ctx context.Context, doc Document) error
	InsertLine(ctx context.Context, line Line) error
	DeleteLines(ctx context.Context, documentID int64) error
	DeleteDocument(ctx context.Context, documentID int64) error
	SetAdjustmentLine(ctx context.Context, lineID int64, system, counted, difference decimal.Decimal) error
	MarkValidated(ctx context.Context, documentID, validatorID int64, at time.Time) error
	GetDocument(ctx context.Context, docType DocumentType, id int64) (Document, error)
	Ledger() stock.TxLedger
}

// Repository persists operation documents in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("operations repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(ctx, &txRepository{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const documentSelect = `SELECT d.document_key, d.document_id, d.doc_type, d.status, COALESCE(d.partner_name, ''),
	d.source_location_key, d.destination_location_key, d.location_key,
	d.document_date, COALESCE(d.notes, ''), d.created_by, d.validated_by, d.validated_at, d.created_at, d.updated_at,
	COALESCE(src.location_name, ''), COALESCE(dst.location_name, ''), COALESCE(loc.location_name, ''), COALESCE(u.username, '')
FROM fact_document d
LEFT JOIN dim_location src ON src.location_key = d.source_location_key
LEFT JOIN dim_location dst ON dst.location_key = d.destination_location_key
LEFT JOIN dim_location loc ON loc.location_key = d.location_key
LEFT JOIN dim_user u ON u.user_key = d.created_by`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Number, &d.Type, &d.Status, &d.PartnerName,
		&d.SourceID, &d.DestinationID, &d.LocationID,
		&d.Date, &d.Notes, &d.CreatedBy, &d.ValidatedBy, &d.ValidatedAt, &d.CreatedAt, &d.UpdatedAt,
		&d.SourceName, &d.DestinationName, &d.LocationName, &d.CreatorName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, shared.ErrNotFound
		}
		return Document{}, err
	}
	return d, nil
}

func loadLines(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, documentID int64) ([]Line, error) {
	rows, err := q.Query(ctx, `SELECT dl.line_key, dl.document_key, dl.product_key, dl.quantity, dl.counted_quantity, dl.system_quantity, dl.difference,
	p.product_name, p.sku, COALESCE(p.uom, '')
FROM fact_document_line dl
JOIN dim_product p ON p.product_key = dl.product_key
WHERE dl.document_key=$1
ORDER BY dl.line_key ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.ProductID, &l.Quantity, &l.CountedQuantity, &l.SystemQuantity, &l.Difference,
			&l.ProductName, &l.ProductSKU, &l.ProductUOM); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// List returns documents of one type, newest first, with lines attached.
func (r *Repository) List(ctx context.Context, docType DocumentType, limit int) ([]Document, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, documentSelect+` WHERE d.doc_type=$1 ORDER BY d.created_at DESC, d.document_key DESC LIMIT $2`, string(docType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Number, &d.Type, &d.Status, &d.PartnerName,
			&d.SourceID, &d.DestinationID, &d.LocationID,
			&d.Date, &d.Notes, &d.CreatedBy, &d.ValidatedBy, &d.ValidatedAt, &d.CreatedAt, &d.UpdatedAt,
			&d.SourceName, &d.DestinationName, &d.LocationName, &d.CreatorName); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range docs {
		lines, err := loadLines(ctx, r.pool, docs[i].ID)
		if err != nil {
			return nil, err
		}
		docs[i].Lines = lines
	}
	return docs, nil
}

// Get loads one document of the given type with its lines.
func (r *Repository) Get(ctx context.Context, docType DocumentType, id int64) (Document, error) {
	doc, err := scanDocument(r.pool.QueryRow(ctx, documentSelect+` WHERE d.doc_type=$1 AND d.document_key=$2`, string(docType), id))
	if err != nil {
		return Document{}, err
	}
	doc.Lines, err = loadLines(ctx, r.pool, doc.ID)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// numberSequences maps each type to its PostgreSQL sequence. Numbers come
// from sequences so two concurrent creates can never collide.
var numberSequences = map[DocumentType]string{
	TypeReceipt:    "receipt_number_seq",
	TypeDelivery:   "delivery_number_seq",
	TypeTransfer:   "transfer_number_seq",
	TypeAdjustment: "adjustment_number_seq",
}

func (r *txRepository) NextNumber(ctx context.Context, docType DocumentType) (int64, error) {
	seq, ok := numberSequences[docType]
	if !ok {
		return 0, errors.New("operations: no sequence for document type")
	}
	var next int64
	err := r.tx.QueryRow(ctx, `SELECT nextval('`+seq+`')`).Scan(&next)
	return next, err
}

func (r *txRepository) InsertDocument(ctx context.Context, doc Document) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO fact_document (document_id, doc_type, status, partner_name, source_location_key, destination_location_key, location_key, document_date, notes, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW()) RETURNING document_key`,
		doc.Number, string(doc.Type), string(doc.Status), doc.PartnerName,
		doc.SourceID, doc.DestinationID, doc.LocationID, doc.Date, doc.Notes, doc.CreatedBy).Scan(&id)
	return id, err
}

func (r *txRepository) UpdateHeader(ctx context.Context, doc Document) error {
	tag, err := r.tx.Exec(ctx, `UPDATE fact_document SET partner_name=$2, source_location_key=$3, destination_location_key=$4, location_key=$5, document_date=$6, notes=$7, updated_at=NOW()
WHERE document_key=$1 AND status='draft'`,
		doc.ID, doc.PartnerName, doc.SourceID, doc.DestinationID, doc.LocationID, doc.Date, doc.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertLine(ctx context.Context, line Line) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO fact_document_line (document_key, product_key, quantity, counted_quantity, system_quantity, difference)
VALUES ($1,$2,$3,$4,$5,$6)`,
		line.DocumentID, line.ProductID, line.Quantity, line.CountedQuantity, line.SystemQuantity, line.Difference)
	return err
}

func (r *txRepository) DeleteLines(ctx context.Context, documentID int64) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM fact_document_line WHERE document_key=$1`, documentID)
	return err
}

func (r *txRepository) DeleteDocument(ctx context.Context, documentID int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM fact_document WHERE document_key=$1`, documentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) SetAdjustmentLine(ctx context.Context, lineID int64, system, counted, difference decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE fact_document_line SET system_quantity=$2, counted_quantity=$3, difference=$4 WHERE line_key=$1`,
		lineID, system, counted, difference)
	return err
}

func (r *txRepository) MarkValidated(ctx context.Context, documentID, validatorID int64, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `UPDATE fact_document SET status='validated', validated_by=$2, validated_at=$3, updated_at=NOW()
WHERE document_key=$1 AND status='draft'`, documentID, validatorID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrInvalidState
	}
	return nil
}

// GetDocument loads a document inside the transaction so validation works on
// a consistent snapshot.
func (r *txRepository) GetDocument(ctx context.Context, docType DocumentType, id int64) (Document, error) {
	doc, err := scanDocument(r.tx.QueryRow(ctx, documentSelect+` WHERE d.doc_type=$1 AND d.document_key=$2`, string(docType), id))
	if err != nil {
		return Document{}, err
	}
	doc.Lines, err = loadLines(ctx, r.tx, doc.ID)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (r *txRepository) Ledger() stock.TxLedger {
	return stock.NewTxLedger(r.tx)
}
