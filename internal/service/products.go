package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/internal/validate"
	"github.com/Skotchmaster/marketplace/pkg/filestore"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const (
	maxProductName = 50
	maxCityName    = 50
	maxDescription = 500
)

type ProductService struct {
	Repo   *repo.GormRepo
	Files  filestore.Store
	Index  ProductIndex
	Events Publisher
	Tasks  *Tasks
}

// ProductInput carries raw form values. A nil field was not submitted.
type ProductInput struct {
	Name        *string
	Price       *string
	CityName    *string
	Description *string
	Status      *string
	Category    *string
}

type SearchQuery struct {
	Name          string
	Q             string
	Status        string
	Category      string
	MinPrice      string
	MaxPrice      string
	SortCreatedAt string
	SortPrice     string
	Page          int
	Size          int
}

type Page struct {
	Items []models.Product `json:"data"`
	Meta  util.Meta        `json:"meta"`
}

func present(p *string) bool { return p != nil && strings.TrimSpace(*p) != "" }

// productFields validates in. With partial set, absent fields are skipped;
// otherwise every required field must be present.
func productFields(in ProductInput, partial bool) (map[string]any, error) {
	fields := map[string]any{}

	if present(in.Name) {
		name := validate.Text(*in.Name)
		if name == "" {
			return nil, fail(ErrValidation, "Missing product name.")
		}
		if len(name) > maxProductName {
			return nil, fail(ErrValidation, "Product name is too long.")
		}
		fields["name"] = name
	} else if !partial {
		return nil, fail(ErrValidation, "Missing product name.")
	}

	if present(in.Price) {
		price, err := strconv.ParseFloat(strings.TrimSpace(*in.Price), 64)
		if err != nil {
			return nil, fail(ErrValidation, "Price must be a valid float number.")
		}
		if price < 0 {
			return nil, fail(ErrValidation, "Price must not be negative.")
		}
		fields["price"] = price
	} else if !partial {
		return nil, fail(ErrValidation, "Missing price.")
	}

	if present(in.Description) {
		desc := validate.Text(*in.Description)
		if desc == "" {
			return nil, fail(ErrValidation, "Missing description.")
		}
		if len(desc) > maxDescription {
			return nil, fail(ErrValidation, "Description is too long.")
		}
		fields["description"] = desc
	} else if !partial {
		return nil, fail(ErrValidation, "Missing description.")
	}

	if present(in.Status) {
		if !models.ValidStatus(*in.Status) {
			return nil, fail(ErrValidation, "Invalid value for status.")
		}
		fields["status"] = *in.Status
	} else if !partial {
		return nil, fail(ErrValidation, "Missing status.")
	}

	if present(in.Category) {
		if !models.ValidCategory(*in.Category) {
			return nil, fail(ErrValidation, "Invalid value for category.")
		}
		fields["category"] = *in.Category
	} else if !partial {
		return nil, fail(ErrValidation, "Missing category.")
	}

	if in.CityName != nil {
		city := validate.Text(*in.CityName)
		if len(city) > maxCityName {
			return nil, fail(ErrValidation, "City name is too long.")
		}
		fields["city_name"] = city
	}
	return fields, nil
}

func (s *ProductService) Create(ctx context.Context, owner string, in ProductInput, files []Upload) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "products.create", "username", owner)

	fields, err := productFields(in, false)
	if err != nil {
		return nil, err
	}

	keys, err := storeImages(ctx, s.Files, "products", files)
	if err != nil {
		l.Error("product_create_error", "status", 500, "reason", "cannot store pictures", "error", err)
		return nil, err
	}

	p := &models.Product{
		Name:        fields["name"].(string),
		Price:       fields["price"].(float64),
		Description: fields["description"].(string),
		Status:      fields["status"].(string),
		Category:    fields["category"].(string),
		Owner:       owner,
	}
	if city, ok := fields["city_name"].(string); ok {
		p.CityName = city
	}
	for _, k := range keys {
		p.Pictures = append(p.Pictures, models.Picture{Filename: k})
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		removeFiles(ctx, s.Files, keys)
		l.Error("product_create_error", "status", 500, "reason", "cannot add product to db", "error", err)
		return nil, err
	}

	s.index(ctx, p)
	publishProduct(ctx, s.Events, s.Tasks, EventProductCreated, owner, p.ID)
	l.Info("create_product_success", "product_id", p.ID)
	return p, nil
}

func parseSort(v, field string) (string, error) {
	switch v {
	case "", "asc", "dsc":
		return v, nil
	}
	return "", fail(ErrValidation, "Invalid value for "+field+".")
}

func (s *ProductService) Search(ctx context.Context, q SearchQuery) (*Page, error) {
	f := repo.ProductFilter{Name: strings.TrimSpace(q.Name)}

	if q.Status != "" {
		if !models.ValidStatus(q.Status) {
			return nil, fail(ErrValidation, "Invalid value for filter status.")
		}
		f.Status = q.Status
	}
	if q.Category != "" {
		if !models.ValidCategory(q.Category) {
			return nil, fail(ErrValidation, "Invalid value for category.")
		}
		f.Category = q.Category
	}

	if (q.MinPrice == "") != (q.MaxPrice == "") {
		return nil, fail(ErrValidation, "Min price and max price must both be provided.")
	}
	if q.MinPrice != "" {
		minPrice, err := strconv.Atoi(q.MinPrice)
		if err != nil {
			return nil, fail(ErrValidation, "Min price must be an integer.")
		}
		maxPrice, err := strconv.Atoi(q.MaxPrice)
		if err != nil {
			return nil, fail(ErrValidation, "Max price must be an integer.")
		}
		lo, hi := float64(minPrice), float64(maxPrice)
		f.MinPrice, f.MaxPrice = &lo, &hi
	}

	var err error
	if f.SortCreatedAt, err = parseSort(q.SortCreatedAt, "sort_created_at"); err != nil {
		return nil, err
	}
	if f.SortPrice, err = parseSort(q.SortPrice, "sort_price"); err != nil {
		return nil, err
	}

	if text := strings.TrimSpace(q.Q); text != "" {
		if s.Index != nil {
			ids, err := s.Index.SearchIDs(ctx, text)
			if err != nil {
				return nil, err
			}
			if ids == nil {
				ids = []uint{}
			}
			f.IDs = ids
		} else if f.Name == "" {
			f.Name = text
		}
	}

	return s.page(ctx, f, q.Page, q.Size)
}

func (s *ProductService) page(ctx context.Context, f repo.ProductFilter, page, size int) (*Page, error) {
	f.Offset, f.Limit = util.Calculate(page, size)
	total, items, err := s.Repo.SearchProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Meta: util.NewMeta(page, f.Offset, f.Limit, total)}, nil
}

// Get hides banned products as if they did not exist.
func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if p.IsBanned {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// owned loads a product for an owner operation. Banned products stay
// visible to their owner so the listing can still be fixed or removed.
func (s *ProductService) owned(ctx context.Context, caller string, id uint, denied string) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if p.Owner != caller {
		return nil, fail(ErrForbidden, denied)
	}
	return p, nil
}

func (s *ProductService) Edit(ctx context.Context, caller string, id uint, in ProductInput, files []Upload) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "products.edit", "username", caller, "product_id", id)

	if _, err := s.owned(ctx, caller, id, "You cannot edit this product."); err != nil {
		if errors.Is(err, ErrForbidden) {
			l.Warn("product_edit_error", "status", 403, "reason", "not the owner")
		}
		return nil, err
	}

	fields, err := productFields(in, true)
	if err != nil {
		return nil, err
	}

	keys, err := storeImages(ctx, s.Files, "products", files)
	if err != nil {
		return nil, err
	}
	pics := make([]models.Picture, 0, len(keys))
	for _, k := range keys {
		pics = append(pics, models.Picture{Filename: k})
	}

	updated, err := s.Repo.UpdateProduct(ctx, id, fields, pics)
	if err != nil {
		removeFiles(ctx, s.Files, keys)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if !updated.IsBanned {
		s.index(ctx, updated)
	}
	l.Info("edit_product_success")
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, caller string, id uint) error {
	l := logging.FromContext(ctx).With("svc", "products.delete", "username", caller, "product_id", id)

	if _, err := s.owned(ctx, caller, id, "You cannot delete this product."); err != nil {
		if errors.Is(err, ErrForbidden) {
			l.Warn("product_delete_error", "status", 403, "reason", "not the owner")
		}
		return err
	}

	pics, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	keys := make([]string, 0, len(pics))
	for _, pic := range pics {
		keys = append(keys, pic.Filename)
	}
	removeFiles(ctx, s.Files, keys)
	s.unindex(ctx, id)
	publishProduct(ctx, s.Events, s.Tasks, EventProductDeleted, caller, id)
	l.Info("delete_product_success")
	return nil
}

// SaleList pages through the caller's own listings, banned ones included.
func (s *ProductService) SaleList(ctx context.Context, owner string, page, size int) (*Page, error) {
	return s.page(ctx, repo.ProductFilter{Owner: owner, IncludeBanned: true}, page, size)
}

func (s *ProductService) Report(ctx context.Context, reporter string, id uint, description string) (*models.ProductReport, error) {
	description = validate.Text(description)
	if description == "" {
		return nil, fail(ErrValidation, "Missing description.")
	}
	if len(description) > maxReportLen {
		return nil, fail(ErrValidation, "Description is too long.")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	rep := &models.ProductReport{ReportedProduct: id, ReporterUsername: reporter, Description: description}
	if err := s.Repo.CreateProductReport(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *ProductService) ProductReports(ctx context.Context) ([]models.ProductReport, error) {
	return s.Repo.ListProductReports(ctx)
}

func (s *ProductService) Ban(ctx context.Context, id uint) error {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if err := s.Repo.SetProductBanned(ctx, id, true); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	s.unindex(ctx, id)
	publishProduct(ctx, s.Events, s.Tasks, EventProductBanned, p.Owner, id)
	logging.FromContext(ctx).Info("product_banned", "svc", "products.ban", "product_id", id)
	return nil
}

func (s *ProductService) index(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("index_product_failed", "product_id", p.ID, "error", err)
	}
}

func (s *ProductService) unindex(ctx context.Context, id uint) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Delete(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("unindex_product_failed", "product_id", id, "error", err)
	}
}
