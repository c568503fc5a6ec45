package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentService assigns gapless document numbers (INV-2026-00001, ...) to
// invoices, credit memos, receipts, quotes, and RMAs at posting time.
type DocumentService interface {
	CreateDraftDocument(ctx context.Context, companyID int, typeCode string, financialYear *int) (int, error)
	// PostDocument posts a document in its own transaction. Use for standalone calls.
	PostDocument(ctx context.Context, documentID int) (string, error)
	// PostDocumentTx posts a document using an existing transaction. Use when
	// the caller controls the transaction boundary so the document number and
	// the business write are fully atomic.
	PostDocumentTx(ctx context.Context, tx pgx.Tx, documentID int) (string, error)
	// IssueNumberTx creates and posts a document in one step inside the
	// caller's transaction and returns the assigned number.
	IssueNumberTx(ctx context.Context, tx pgx.Tx, companyID int, typeCode string, financialYear *int) (string, error)
}

type documentService struct {
	pool *pgxpool.Pool
}

func NewDocumentService(pool *pgxpool.Pool) DocumentService {
	return &documentService{pool: pool}
}

func (s *documentService) CreateDraftDocument(ctx context.Context, companyID int, typeCode string, financialYear *int) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO documents (company_id, type_code, status, financial_year)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, companyID, typeCode, string(DocumentStatusDraft), financialYear).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create draft document: %w", err)
	}
	return id, nil
}

func (s *documentService) PostDocument(ctx context.Context, documentID int) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	number, err := postDocumentWithTx(ctx, tx, documentID)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return number, nil
}

func (s *documentService) PostDocumentTx(ctx context.Context, tx pgx.Tx, documentID int) (string, error) {
	return postDocumentWithTx(ctx, tx, documentID)
}

func (s *documentService) IssueNumberTx(ctx context.Context, tx pgx.Tx, companyID int, typeCode string, financialYear *int) (string, error) {
	var docID int
	err := tx.QueryRow(ctx, `
		INSERT INTO documents (company_id, type_code, status, financial_year)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, companyID, typeCode, string(DocumentStatusDraft), financialYear).Scan(&docID)
	if err != nil {
		return "", fmt.Errorf("failed to create %s document: %w", typeCode, err)
	}
	return postDocumentWithTx(ctx, tx, docID)
}

// postDocumentWithTx assigns the gapless number and flips the document to
// POSTED. Runs within the provided transaction.
func postDocumentWithTx(ctx context.Context, tx pgx.Tx, documentID int) (string, error) {
	var doc Document
	err := tx.QueryRow(ctx, `
		SELECT company_id, type_code, status, financial_year
		FROM documents
		WHERE id = $1
		FOR UPDATE
	`, documentID).Scan(&doc.CompanyID, &doc.TypeCode, &doc.Status, &doc.FinancialYear)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("document not found: %d", documentID)
		}
		return "", fmt.Errorf("failed to read document for update: %w", err)
	}

	if doc.Status != DocumentStatusDraft {
		return "", fmt.Errorf("document must be in DRAFT status to be posted, current status: %s", doc.Status)
	}

	var docType DocumentType
	err = tx.QueryRow(ctx, `
		SELECT numbering_strategy, resets_every_fy
		FROM document_types
		WHERE code = $1
	`, doc.TypeCode).Scan(&docType.NumberingStrategy, &docType.ResetsEveryFY)
	if err != nil {
		return "", fmt.Errorf("failed to get document type strategy: %w", err)
	}

	// Concurrency-safe gapless sequence generation.
	var lastNumber int64
	err = tx.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, type_code, financial_year, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, type_code, (COALESCE(financial_year, -1)))
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, doc.CompanyID, doc.TypeCode, doc.FinancialYear).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}

	yearStr := "GLOBAL"
	if doc.FinancialYear != nil {
		yearStr = fmt.Sprintf("%d", *doc.FinancialYear)
	}
	formattedNum := fmt.Sprintf("%s-%s-%05d", doc.TypeCode, yearStr, lastNumber)

	_, err = tx.Exec(ctx, `
		UPDATE documents
		SET status = $1, document_number = $2, posted_at = NOW()
		WHERE id = $3
	`, string(DocumentStatusPosted), formattedNum, documentID)
	if err != nil {
		return "", fmt.Errorf("failed to update document status and number: %w", err)
	}

	return formattedNum, nil
}
