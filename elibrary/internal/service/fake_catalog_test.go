package service

import (
	"context"
	"sort"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

func (s *memStore) GetBook(_ context.Context, id string) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return model.Book{}, errs.ErrBookNotFound
	}
	return b, nil
}

func (s *memStore) ListBooks(_ context.Context, filter model.BookFilter) ([]model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Book, 0, len(s.books))
	for _, b := range s.books {
		if filter.LccCode != "" && b.LccCode != filter.LccCode {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > filter.Page.Limit {
		out = out[:filter.Page.Limit]
	}
	return out, nil
}

func (s *memStore) SearchBooks(context.Context, string, int) ([]model.BookSearchResult, error) {
	return nil, nil
}

func (s *memStore) CreateBook(_ context.Context, b model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.books {
		if other.ISBN == b.ISBN {
			return errs.ErrISBNTaken
		}
	}
	s.books[b.ID] = b
	return nil
}

func (s *memStore) UpdateBook(ctx context.Context, id string, upd model.BookUpdate) (model.Book, error) {
	b, err := s.GetBook(ctx, id)
	if err != nil {
		return model.Book{}, err
	}
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	s.mu.Lock()
	s.books[id] = b
	s.mu.Unlock()
	return b, nil
}

func (s *memStore) DeleteBook(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return errs.ErrBookNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *memStore) ListCategories(context.Context) ([]model.Category, error) {
	return nil, nil
}

func (s *memStore) GetDigitalLicense(context.Context, string) (*model.DigitalLicense, error) {
	return nil, nil
}

func (s *memStore) ListCopies(_ context.Context, bookID string, filter model.CopyFilter) ([]model.Copy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Copy, 0)
	for _, cp := range s.copies {
		if cp.BookID != bookID {
			continue
		}
		if filter.BranchID != "" && cp.BranchID != filter.BranchID {
			continue
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ CatalogStore = (*memStore)(nil)
