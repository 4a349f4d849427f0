package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
)

const (
	defaultBookLimit   = 20
	defaultSearchLimit = 50
)

type Catalog struct {
	store  CatalogStore
	policy Policy
	log    *zap.Logger
}

func NewCatalog(store CatalogStore, log *zap.Logger) *Catalog {
	return &Catalog{
		store: store,
		log:   log.Named("catalog"),
	}
}

func (s *Catalog) Search(ctx context.Context, q string, limit int) ([]model.BookSearchResult, error) {
	page := model.NewPage(0, limit, defaultSearchLimit)
	return s.store.SearchBooks(ctx, q, page.Limit)
}

func (s *Catalog) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	filter.Page = model.NewPage(filter.Page.Skip, filter.Page.Limit, defaultBookLimit)
	return s.store.ListBooks(ctx, filter)
}

func (s *Catalog) GetBook(ctx context.Context, id string) (model.Book, error) {
	return s.store.GetBook(ctx, id)
}

// ListCopies fails with not found when the book itself does not exist.
func (s *Catalog) ListCopies(ctx context.Context, bookID string, filter model.CopyFilter) ([]model.Copy, error) {
	var copies []model.Copy
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.store.GetBook(gCtx, bookID)
		return err
	})
	g.Go(func() (err error) {
		copies, err = s.store.ListCopies(gCtx, bookID, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return copies, nil
}

// DigitalLicense returns nil when the book exists but has no digital edition.
func (s *Catalog) DigitalLicense(ctx context.Context, bookID string) (*model.DigitalLicense, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.GetDigitalLicense(ctx, bookID)
}

func (s *Catalog) Categories(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Catalog) CreateBook(ctx context.Context, caller auth.Caller, b model.Book) (model.Book, error) {
	if err := s.policy.Authorize(caller, ActionManageCatalog, ""); err != nil {
		return model.Book{}, err
	}
	id, err := s.store.NextID(ctx, model.IDBook)
	if err != nil {
		return model.Book{}, err
	}
	b.ID = id
	if b.Language == "" {
		b.Language = "en"
	}
	if err := s.store.CreateBook(ctx, b); err != nil {
		return model.Book{}, err
	}
	return b, nil
}

func (s *Catalog) UpdateBook(ctx context.Context, caller auth.Caller, id string, upd model.BookUpdate) (model.Book, error) {
	if err := s.policy.Authorize(caller, ActionManageCatalog, ""); err != nil {
		return model.Book{}, err
	}
	return s.store.UpdateBook(ctx, id, upd)
}

func (s *Catalog) DeleteBook(ctx context.Context, caller auth.Caller, id string) error {
	if err := s.policy.Authorize(caller, ActionManageCatalog, ""); err != nil {
		return err
	}
	return s.store.DeleteBook(ctx, id)
}
