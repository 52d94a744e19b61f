package store

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"policy-advisor/pkg/model"
)

// GormFlowStore is the relational FlowStore implementation.
type GormFlowStore struct {
	db *gorm.DB
}

func NewFlowStore(db *gorm.DB) *GormFlowStore {
	return &GormFlowStore{db: db}
}

func (s *GormFlowStore) Insert(f model.Flow) (model.Flow, error) {
	if f.Timestamp.IsZero() {
		return model.Flow{}, &ValidationError{Field: "timestamp"}
	}
	if f.SourceNamespace == "" {
		return model.Flow{}, &ValidationError{Field: "source_namespace"}
	}
	if f.DestinationNamespace == "" {
		return model.Flow{}, &ValidationError{Field: "destination_namespace"}
	}
	f.FlowID = uuid.NewString()
	if f.SourceLabels == nil {
		f.SourceLabels = model.Labels{}
	}
	if f.DestinationLabels == nil {
		f.DestinationLabels = model.Labels{}
	}
	if err := s.db.Create(&f).Error; err != nil {
		return model.Flow{}, err
	}
	return f, nil
}

func (s *GormFlowStore) Query(filter FlowFilter, page Page) (FlowPage, error) {
	if page.Page < 1 {
		page.Page = 1
	}
	if page.Limit < 1 {
		page.Limit = 50
	}
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Namespace != "" {
			db = db.Where("source_namespace = ? OR destination_namespace = ?", filter.Namespace, filter.Namespace)
		}
		if filter.Port > 0 {
			db = db.Where("destination_port = ?", filter.Port)
		}
		return db
	}

	var total int64
	if err := s.db.Model(&model.Flow{}).Scopes(scope).Count(&total).Error; err != nil {
		return FlowPage{}, err
	}

	flows := make([]model.Flow, 0, page.Limit)
	offset := (page.Page - 1) * page.Limit
	if err := s.db.Scopes(scope).Order("timestamp DESC").Limit(page.Limit).Offset(offset).Find(&flows).Error; err != nil {
		return FlowPage{}, err
	}

	totalPages := int((total + int64(page.Limit) - 1) / int64(page.Limit))
	return FlowPage{
		Flows:      flows,
		Total:      total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *GormFlowStore) GetByID(id string) (model.Flow, bool, error) {
	var f model.Flow
	if err := s.db.Where("flow_id = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Flow{}, false, nil
		}
		return model.Flow{}, false, err
	}
	return f, true, nil
}

// GetByIDs returns the flows that exist among ids, in storage order.
// Missing ids are simply absent from the result.
func (s *GormFlowStore) GetByIDs(ids []string) ([]model.Flow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	flows := make([]model.Flow, 0, len(ids))
	if err := s.db.Where("flow_id IN ?", ids).Find(&flows).Error; err != nil {
		return nil, err
	}
	return flows, nil
}

func (s *GormFlowStore) Delete(id string) (bool, error) {
	res := s.db.Delete(&model.Flow{}, "flow_id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
