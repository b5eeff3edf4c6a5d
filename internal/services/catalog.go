package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/hub"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/media"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/models"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/storage"
)

var (
	ErrGroupExists      = errors.New("option group already exists")
	ErrGroupNotFound    = errors.New("option group not found")
	ErrItemNotFound     = errors.New("option item not found")
	ErrCategoryNotFound = errors.New("category not found")
)

const uncategorized = "Uncategorized"

// ProductIn carries the multipart form fields of the product endpoints. A nil
// OptionGroupIDs means "leave associations unchanged"; a nil ImageFilename
// means "keep the current image".
type ProductIn struct {
	Name           string
	BasePrice      decimal.Decimal
	CategoryName   string
	Description    *string
	OptionGroupIDs []int64
	ImageFilename  *string
}

type OptionItemIn struct {
	Name          string
	Price         decimal.Decimal
	ImageFilename *string
	ClearImage    bool
}

// CatalogService is CRUD over products, categories and option groups. Every
// mutation pushes the full current snapshot of the affected channel; there
// are no incremental diffs.
type CatalogService struct {
	store storage.Store
	hub   *hub.Hub
	media *media.Store
	log   *logger.Logger
}

func NewCatalogService(store storage.Store, h *hub.Hub, m *media.Store, log *logger.Logger) *CatalogService {
	return &CatalogService{store: store, hub: h, media: m, log: log}
}

// ---- Products ----

func (s *CatalogService) ProductsByCategory(ctx context.Context) (map[string][]models.ProductSummary, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.ProductSummary)
	for _, p := range products {
		cat := uncategorized
		if p.Category != nil {
			cat = p.Category.Name
		}
		out[cat] = append(out[cat], models.ProductSummary{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.BasePrice,
			ImageURL: s.media.PublicURL(p.ImageFilename),
		})
	}
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.ProductOut, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return s.productOut(p), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in *ProductIn) (*models.ProductOut, error) {
	cat, err := s.store.GetOrCreateCategory(ctx, in.CategoryName)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:          in.Name,
		BasePrice:     in.BasePrice,
		Description:   in.Description,
		ImageFilename: in.ImageFilename,
		CategoryID:    &cat.ID,
	}
	if err := s.store.CreateProduct(ctx, p, in.OptionGroupIDs); err != nil {
		return nil, err
	}

	s.broadcastProducts(ctx)
	return s.GetProduct(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in *ProductIn) (*models.ProductOut, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	cat, err := s.store.GetOrCreateCategory(ctx, in.CategoryName)
	if err != nil {
		return nil, err
	}

	prevImage := p.ImageFilename
	p.Name = in.Name
	p.BasePrice = in.BasePrice
	p.Description = in.Description
	p.CategoryID = &cat.ID
	if in.ImageFilename != nil {
		p.ImageFilename = in.ImageFilename
	}

	if err := s.store.UpdateProduct(ctx, p, in.OptionGroupIDs); err != nil {
		return nil, err
	}
	if in.ImageFilename != nil && prevImage != nil {
		s.media.Remove(*prevImage)
	}

	s.broadcastProducts(ctx)
	return s.GetProduct(ctx, p.ID)
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if p.ImageFilename != nil {
		s.media.Remove(*p.ImageFilename)
	}

	s.broadcastProducts(ctx)
	return nil
}

func (s *CatalogService) productOut(p *models.Product) *models.ProductOut {
	out := &models.ProductOut{
		ID:             p.ID,
		Name:           p.Name,
		BasePrice:      p.BasePrice,
		Description:    p.Description,
		ImageURL:       s.media.PublicURL(p.ImageFilename),
		OptionGroupIDs: []int64{},
	}
	if p.Category != nil {
		name := p.Category.Name
		out.CategoryName = &name
	}
	for _, g := range p.OptionGroups {
		out.OptionGroupIDs = append(out.OptionGroupIDs, g.ID)
	}
	return out
}

// ---- Categories ----

func (s *CatalogService) Categories(ctx context.Context) ([]*models.Category, error) {
	return s.store.ListCategories(ctx)
}

// DeleteCategory detaches products from the category; the products survive.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	s.broadcastProducts(ctx)
	return nil
}

// ---- Option groups ----

func (s *CatalogService) Groups(ctx context.Context) ([]models.OptionGroupOut, error) {
	groups, err := s.store.ListOptionGroups(ctx)
	if err != nil {
		return nil, err
	}
	return s.groupOuts(groups), nil
}

func (s *CatalogService) CreateGroup(ctx context.Context, name string, selectType models.SelectType, isRequired bool) (*models.OptionGroupOut, error) {
	if _, err := s.store.GetOptionGroupByName(ctx, name); err == nil {
		return nil, ErrGroupExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	g := &models.OptionGroup{Name: name, SelectType: selectType, IsRequired: isRequired}
	if err := s.store.CreateOptionGroup(ctx, g); err != nil {
		return nil, err
	}

	s.broadcastOptions(ctx)
	out := s.groupOut(g)
	return &out, nil
}

func (s *CatalogService) UpdateGroup(ctx context.Context, id int64, name string, selectType models.SelectType, isRequired bool) (*models.OptionGroupOut, error) {
	g, err := s.store.GetOptionGroup(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	g.Name = name
	g.SelectType = selectType
	g.IsRequired = isRequired
	if err := s.store.UpdateOptionGroup(ctx, g); err != nil {
		return nil, err
	}

	s.broadcastOptions(ctx)
	out := s.groupOut(g)
	return &out, nil
}

// DeleteGroup removes the group and, by cascade, all of its items.
func (s *CatalogService) DeleteGroup(ctx context.Context, id int64) error {
	g, err := s.store.GetOptionGroup(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	for _, it := range g.Items {
		if it.ImageFilename != nil {
			s.media.Remove(*it.ImageFilename)
		}
	}
	if err := s.store.DeleteOptionGroup(ctx, id); err != nil {
		return err
	}

	s.broadcastOptions(ctx)
	return nil
}

// ---- Option items ----

func (s *CatalogService) AddItem(ctx context.Context, groupID int64, in *OptionItemIn) (*models.OptionItemOut, error) {
	if _, err := s.store.GetOptionGroup(ctx, groupID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	it := &models.OptionItem{
		GroupID:       groupID,
		Name:          in.Name,
		Price:         in.Price,
		ImageFilename: in.ImageFilename,
	}
	if err := s.store.CreateOptionItem(ctx, it); err != nil {
		return nil, err
	}

	s.broadcastOptions(ctx)
	out := s.itemOut(it)
	return &out, nil
}

func (s *CatalogService) UpdateItem(ctx context.Context, id int64, in *OptionItemIn) (*models.OptionItemOut, error) {
	it, err := s.store.GetOptionItem(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	prevImage := it.ImageFilename
	it.Name = in.Name
	it.Price = in.Price
	switch {
	case in.ImageFilename != nil:
		it.ImageFilename = in.ImageFilename
	case in.ClearImage:
		it.ImageFilename = nil
	}

	if err := s.store.UpdateOptionItem(ctx, it); err != nil {
		return nil, err
	}
	if prevImage != nil && (in.ImageFilename != nil || in.ClearImage) {
		s.media.Remove(*prevImage)
	}

	s.broadcastOptions(ctx)
	out := s.itemOut(it)
	return &out, nil
}

func (s *CatalogService) DeleteItem(ctx context.Context, id int64) error {
	it, err := s.store.GetOptionItem(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	if err := s.store.DeleteOptionItem(ctx, id); err != nil {
		return err
	}
	if it.ImageFilename != nil {
		s.media.Remove(*it.ImageFilename)
	}

	s.broadcastOptions(ctx)
	return nil
}

func (s *CatalogService) groupOut(g *models.OptionGroup) models.OptionGroupOut {
	out := models.OptionGroupOut{
		ID:         g.ID,
		Name:       g.Name,
		SelectType: g.SelectType,
		IsRequired: g.IsRequired,
		Items:      []models.OptionItemOut{},
	}
	for _, it := range g.Items {
		out.Items = append(out.Items, s.itemOut(it))
	}
	return out
}

func (s *CatalogService) groupOuts(groups []*models.OptionGroup) []models.OptionGroupOut {
	out := make([]models.OptionGroupOut, 0, len(groups))
	for _, g := range groups {
		out = append(out, s.groupOut(g))
	}
	return out
}

func (s *CatalogService) itemOut(it *models.OptionItem) models.OptionItemOut {
	return models.OptionItemOut{
		ID:       it.ID,
		Name:     it.Name,
		Price:    it.Price,
		ImageURL: s.media.PublicURL(it.ImageFilename),
	}
}

// ---- Snapshots and broadcasts ----

// ProductsSnapshot is what the "products" channel carries: the full menu
// grouped by category.
func (s *CatalogService) ProductsSnapshot(ctx context.Context) (*models.ProductsPayload, error) {
	byCat, err := s.ProductsByCategory(ctx)
	if err != nil {
		return nil, err
	}
	return &models.ProductsPayload{Type: "products", ByCategory: byCat}, nil
}

func (s *CatalogService) OptionsSnapshot(ctx context.Context) (*models.OptionsPayload, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}
	return &models.OptionsPayload{Type: "options", Groups: groups}, nil
}

func (s *CatalogService) broadcastProducts(ctx context.Context) {
	snap, err := s.ProductsSnapshot(ctx)
	if err != nil {
		s.log.Error("CATALOG", "Failed to build products snapshot: "+err.Error())
		return
	}
	s.hub.Send("products", snap)
}

func (s *CatalogService) broadcastOptions(ctx context.Context) {
	snap, err := s.OptionsSnapshot(ctx)
	if err != nil {
		s.log.Error("CATALOG", "Failed to build options snapshot: "+err.Error())
		return
	}
	s.hub.Send("options", snap)
}
