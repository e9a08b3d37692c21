package repository

import (
	"context"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 検索・価格帯・分類の絞り込み。削除済みはgormが除外する
func productFilter(q repo.ProductListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !q.IncludeInactive {
			db = db.Where("is_active = ?", true)
		}
		db = db.Scopes(searchAny(q.Q, "name_en", "name_sv"))

		for _, f := range []struct {
			col string
			id  *int64
		}{
			{"category_id", q.CategoryID},
			{"type_id", q.TypeID},
			{"size_id", q.SizeID},
		} {
			if f.id != nil {
				db = db.Where(f.col+" = ?", *f.id)
			}
		}
		if q.MinPrice != nil {
			db = db.Where("price >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			db = db.Where("price <= ?", *q.MaxPrice)
		}
		return db
	}
}

// 同値のときもページ間で順序がぶれないようidを足す
func productOrder(sort string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch sort {
		case "price_asc":
			return db.Order("price asc").Order("id asc")
		case "price_desc":
			return db.Order("price desc").Order("id desc")
		}
		return db.Order("created_at desc").Order("id desc")
	}
}

func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(productFilter(q))

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	products := []model.Product{}
	if err := tx.Scopes(productOrder(q.Sort), paginate(q.Page, q.Limit)).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, notFound(err)
	}
	return p, nil
}

// xlsx出力用（非公開も含む）
func (r *ProductGormRepository) ListAll(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	if err := r.db.WithContext(ctx).Order("id asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, conflict(err)
	}
	return p, nil
}

// stockは在庫APIでしか変えない
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	return affected(r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name_en":        p.NameEn,
		"name_sv":        p.NameSv,
		"description_en": p.DescriptionEn,
		"description_sv": p.DescriptionSv,
		"price":          p.Price,
		"image_path":     p.ImagePath,
		"category_id":    p.CategoryID,
		"type_id":        p.TypeID,
		"size_id":        p.SizeID,
		"is_active":      p.IsActive,
	}))
}

// deleted_atを立てるだけ。注文明細からは参照が残る
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Product{}, id))
}
