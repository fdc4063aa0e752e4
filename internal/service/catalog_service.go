package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_delivery/internal/domain"
	"github.com/fjod/go_delivery/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const homeProductLimit = 6

type HomePage struct {
	Categories []domain.Category `json:"categories"`
	Products   []domain.Product  `json:"products"`
	Banners    []domain.Banner   `json:"banners"`
}

type CatalogService struct {
	repo     repository.CatalogRepository
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewCatalogService(repo repository.CatalogRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		logger:   logger,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Home gathers the storefront landing data: categories by name, the newest
// products and the active banners by position.
func (s *CatalogService) Home(ctx context.Context) (*HomePage, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListNewestProducts(ctx, homeProductLimit)
	if err != nil {
		return nil, err
	}
	banners, err := s.repo.ListBanners(ctx, true)
	if err != nil {
		return nil, err
	}
	return &HomePage{
		Categories: nonNil(categories),
		Products:   nonNil(products),
		Banners:    nonNil(banners),
	}, nil
}

func (s *CatalogService) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return s.repo.GetCategoryBySlug(ctx, slug)
}

func (s *CatalogService) Product(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	return nonNil(categories), err
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) Result {
	in.normalize()
	if msg := firstViolation(s.validate, in); msg != "" {
		return failure(KindValidation, msg)
	}

	c := &domain.Category{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Slug:      Slugify(in.Name),
		Color:     in.Color,
		CreatedAt: s.now(),
	}
	if res, taken := s.slugTaken(ctx, c.Slug, ""); taken {
		return res
	}

	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return s.categoryFailure("create", c.ID, err)
	}
	return Result{Success: true, ID: c.ID}
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryInput) Result {
	in.normalize()
	if msg := firstViolation(s.validate, in); msg != "" {
		return failure(KindValidation, msg)
	}

	c := &domain.Category{ID: id, Name: in.Name, Slug: Slugify(in.Name), Color: in.Color}
	if res, taken := s.slugTaken(ctx, c.Slug, id); taken {
		return res
	}

	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return s.categoryFailure("update", id, err)
	}
	return Result{Success: true, ID: id}
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) Result {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return s.categoryFailure("delete", id, err)
	}
	return Result{Success: true, ID: id}
}

func (s *CatalogService) slugTaken(ctx context.Context, slug, excludeID string) (Result, bool) {
	exists, err := s.repo.CategorySlugExists(ctx, slug, excludeID)
	if err != nil {
		s.logger.Error("failed to check category slug", "slug", slug, "error", err)
		return failure(KindFailure, MsgCategoryFailed), true
	}
	if exists {
		return failure(KindConflict, MsgDuplicateName), true
	}
	return Result{}, false
}

func (s *CatalogService) categoryFailure(op, id string, err error) Result {
	switch {
	case errors.Is(err, repository.ErrDuplicateSlug):
		return failure(KindConflict, MsgDuplicateName)
	case errors.Is(err, repository.ErrCategoryInUse):
		return failure(KindConflict, MsgCategoryInUse)
	case errors.Is(err, repository.ErrCategoryNotFound):
		return failure(KindNotFound, MsgCategoryGone)
	}
	s.logger.Error("category write failed", "op", op, "category_id", id, "error", err)
	return failure(KindFailure, MsgCategoryFailed)
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	return nonNil(products), err
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) Result {
	in.normalize()
	if msg := firstViolation(s.validate, in); msg != "" {
		return failure(KindValidation, msg)
	}

	p := &domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		PhotoRef:    in.PhotoRef,
		CategoryID:  in.CategoryID,
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return s.productFailure("create", p.ID, err)
	}
	return Result{Success: true, ID: p.ID}
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) Result {
	in.normalize()
	if msg := firstViolation(s.validate, in); msg != "" {
		return failure(KindValidation, msg)
	}

	p := &domain.Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		PhotoRef:    in.PhotoRef,
		CategoryID:  in.CategoryID,
	}
	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return s.productFailure("update", id, err)
	}
	return Result{Success: true, ID: id}
}

// DeleteProduct leaves order lines that reference the product untouched.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) Result {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return s.productFailure("delete", id, err)
	}
	return Result{Success: true, ID: id}
}

func (s *CatalogService) productFailure(op, id string, err error) Result {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return failure(KindNotFound, MsgProductGone)
	case errors.Is(err, repository.ErrCategoryNotFound):
		return failure(KindValidation, MsgCategoryGone)
	}
	s.logger.Error("product write failed", "op", op, "product_id", id, "error", err)
	return failure(KindFailure, MsgProductFailed)
}

func (s *CatalogService) ListBanners(ctx context.Context) ([]domain.Banner, error) {
	banners, err := s.repo.ListBanners(ctx, false)
	return nonNil(banners), err
}

func (s *CatalogService) CreateBanner(ctx context.Context, in BannerInput) Result {
	in.normalize()
	if msg := firstViolation(s.validate, in); msg != "" {
		return failure(KindValidation, msg)
	}

	b := bannerFrom(in)
	b.ID = uuid.NewString()
	b.CreatedAt = s.now()
	if err := s.repo.CreateBanner(ctx, b); err != nil {
		return s.bannerFailure("create", b.ID, err)
	}
	return Result{Success: true, ID: b.ID}
}

func (s *CatalogService) UpdateBanner(ctx context.Context, id string, in BannerInput) Result {
	in.normalize()
	if msg := firstViolation(s.validate, in); msg != "" {
		return failure(KindValidation, msg)
	}

	b := bannerFrom(in)
	b.ID = id
	if err := s.repo.UpdateBanner(ctx, b); err != nil {
		return s.bannerFailure("update", id, err)
	}
	return Result{Success: true, ID: id}
}

func (s *CatalogService) SetBannerActive(ctx context.Context, id string, active bool) Result {
	if err := s.repo.SetBannerActive(ctx, id, active); err != nil {
		return s.bannerFailure("toggle", id, err)
	}
	return Result{Success: true, ID: id}
}

func (s *CatalogService) DeleteBanner(ctx context.Context, id string) Result {
	if err := s.repo.DeleteBanner(ctx, id); err != nil {
		return s.bannerFailure("delete", id, err)
	}
	return Result{Success: true, ID: id}
}

func (s *CatalogService) bannerFailure(op, id string, err error) Result {
	if errors.Is(err, repository.ErrBannerNotFound) {
		return failure(KindNotFound, MsgBannerGone)
	}
	s.logger.Error("banner write failed", "op", op, "banner_id", id, "error", err)
	return failure(KindFailure, MsgBannerFailed)
}

func bannerFrom(in BannerInput) *domain.Banner {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return &domain.Banner{
		Title:    in.Title,
		Subtitle: in.Subtitle,
		ImageURL: in.ImageURL,
		Link:     in.Link,
		Active:   active,
		Position: in.Position,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
