package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service defines product catalog business logic.
type Service interface {
	ListProducts(ctx context.Context, supplierID uuid.UUID) ([]*Product, error)
	CreateProduct(ctx context.Context, supplierID uuid.UUID, in ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, supplierID, productID uuid.UUID, in ProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, supplierID, productID uuid.UUID) error
	ApproveAll(ctx context.Context, supplierID uuid.UUID) (int, error)

	// Upload stores a catalog file and queues it for background parsing.
	Upload(ctx context.Context, supplierID uuid.UUID, filename, contentType string, r io.Reader) (*Upload, error)
	UploadStatus(ctx context.Context, supplierID uuid.UUID) (*UploadStatus, error)
	// Process runs one queued job to completion, recording the outcome on the upload row.
	Process(ctx context.Context, job Job) error
}

type service struct {
	repo      Repository
	queue     Queue
	processor Processor
	uploadDir string
	logger    *zap.Logger
}

func NewService(repo Repository, queue Queue, processor Processor, uploadDir string, logger *zap.Logger) Service {
	return &service{
		repo:      repo,
		queue:     queue,
		processor: processor,
		uploadDir: uploadDir,
		logger:    logger.Named("catalog"),
	}
}

func (s *service) ListProducts(ctx context.Context, supplierID uuid.UUID) ([]*Product, error) {
	return s.repo.ListBySupplier(ctx, supplierID)
}

func (s *service) CreateProduct(ctx context.Context, supplierID uuid.UUID, in ProductInput) (*Product, error) {
	if in.ProductName == nil || strings.TrimSpace(*in.ProductName) == "" {
		return nil, ErrNameRequired
	}
	if err := in.validateFulfillment(); err != nil {
		return nil, err
	}

	p := &Product{ID: uuid.New(), SupplierID: supplierID}
	in.apply(p)
	// Manual entries start unapproved like parsed ones.
	p.ApprovedBySupplier = false
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, supplierID, productID uuid.UUID, in ProductInput) (*Product, error) {
	if in.ProductName != nil && strings.TrimSpace(*in.ProductName) == "" {
		return nil, ErrNameRequired
	}
	if err := in.validateFulfillment(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, supplierID, productID)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, supplierID, productID uuid.UUID) error {
	return s.repo.Delete(ctx, supplierID, productID)
}

func (s *service) ApproveAll(ctx context.Context, supplierID uuid.UUID) (int, error) {
	return s.repo.ApproveAll(ctx, supplierID)
}

func (s *service) Upload(ctx context.Context, supplierID uuid.UUID, filename, contentType string, r io.Reader) (*Upload, error) {
	dir := filepath.Join(s.uploadDir, supplierID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	id := uuid.New()
	path := filepath.Join(dir, id.String()+strings.ToLower(filepath.Ext(filename)))
	if err := writeFile(path, r); err != nil {
		return nil, err
	}

	if filename == "" {
		filename = "unknown"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	u := &Upload{
		ID:               id,
		SupplierID:       supplierID,
		OriginalFilename: filename,
		FilePath:         path,
		FileType:         contentType,
		Status:           ProcessingUploaded,
	}
	if err := s.repo.CreateUpload(ctx, u); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, Job{UploadID: u.ID, SupplierID: supplierID}); err != nil {
		s.logger.Error("enqueue catalog job", zap.Stringer("upload_id", u.ID), zap.Error(err))
		_ = s.repo.SetUploadStatus(ctx, u.ID, ProcessingFailed, "could not queue processing")
		u.Status = ProcessingFailed
		return u, nil
	}
	return u, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write upload file: %w", err)
	}
	return f.Close()
}

func (s *service) UploadStatus(ctx context.Context, supplierID uuid.UUID) (*UploadStatus, error) {
	u, err := s.repo.LatestUpload(ctx, supplierID)
	if errors.Is(err, ErrUploadNotFound) {
		return &UploadStatus{Status: ProcessingNone}, nil
	}
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	id := u.ID
	return &UploadStatus{
		UploadID:         &id,
		OriginalFilename: u.OriginalFilename,
		Status:           u.Status,
		Error:            u.Error,
		ProductCount:     count,
	}, nil
}

func (s *service) Process(ctx context.Context, job Job) error {
	log := s.logger.With(zap.Stringer("upload_id", job.UploadID), zap.Stringer("supplier_id", job.SupplierID))

	u, err := s.repo.GetUpload(ctx, job.UploadID)
	if err != nil {
		return err
	}
	if u.Status.Terminal() {
		log.Warn("catalog job already finished", zap.String("status", string(u.Status)))
		return nil
	}
	if err := s.repo.SetUploadStatus(ctx, u.ID, ProcessingProcessing, ""); err != nil {
		return err
	}

	products, err := s.processor.Parse(ctx, u.FilePath)
	if err == nil {
		for _, p := range products {
			p.ID = uuid.New()
			p.SupplierID = u.SupplierID
		}
		err = s.repo.CreateBatch(ctx, products)
	}
	if err != nil {
		log.Error("catalog processing failed", zap.Error(err))
		if serr := s.repo.SetUploadStatus(ctx, u.ID, ProcessingFailed, err.Error()); serr != nil {
			log.Error("mark upload failed", zap.Error(serr))
		}
		return err
	}

	log.Info("catalog processed", zap.Int("products", len(products)))
	return s.repo.SetUploadStatus(ctx, u.ID, ProcessingCompleted, "")
}
