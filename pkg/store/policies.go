package store

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"policy-advisor/pkg/model"
)

const initialChangeSummary = "Initial policy generation"

// GormPolicyStore is the relational PolicyStore implementation. All writes
// that touch both the policy row and its version chain run inside one
// transaction so readers never observe one without the other.
type GormPolicyStore struct {
	db *gorm.DB
}

func NewPolicyStore(db *gorm.DB) *GormPolicyStore {
	return &GormPolicyStore{db: db}
}

// CreateFromDocument creates a policy with its version 1 in one transaction.
// An empty name gets a timestamp-derived default.
func (s *GormPolicyStore) CreateFromDocument(name, namespace, document string) (model.Policy, error) {
	if name == "" {
		name = fmt.Sprintf("policy-%d", time.Now().UnixMilli())
	}
	p := model.Policy{
		PolicyID:    uuid.NewString(),
		PolicyName:  name,
		Namespace:   namespace,
		YAMLContent: document,
		Status:      model.PolicyStatusDraft,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			if isDuplicate(err) {
				return ErrDuplicateName
			}
			return err
		}
		v := model.Version{
			VersionID:     uuid.NewString(),
			PolicyID:      p.PolicyID,
			VersionNumber: 1,
			YAMLContent:   document,
			ChangeSummary: initialChangeSummary,
		}
		return tx.Create(&v).Error
	})
	if err != nil {
		return model.Policy{}, err
	}
	return p, nil
}

// Amend replaces the policy's current document and appends the next version.
// The latest-version read and the insert share the transaction, and the
// policy row is locked first, so two concurrent amendments cannot compute
// the same next number.
func (s *GormPolicyStore) Amend(policyID, document, summary string) (model.Policy, int, error) {
	var (
		updated model.Policy
		next    int
	)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("policy_id = ?", policyID)
		if tx.Dialector.Name() == "mysql" {
			// Under REPEATABLE READ a plain SELECT reads from the snapshot,
			// so the MAX(version_number) below could go stale. FOR UPDATE
			// serializes amendments on the policy row. SQLite locks the
			// whole database on write and does not accept the clause.
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var p model.Policy
		if err := q.First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		latest, err := latestVersionNumber(tx, policyID)
		if err != nil {
			return err
		}
		next = latest + 1

		now := time.Now()
		if err := tx.Model(&model.Policy{}).Where("policy_id = ?", policyID).
			Updates(map[string]interface{}{"yaml_content": document, "updated_at": now}).Error; err != nil {
			return err
		}
		v := model.Version{
			VersionID:     uuid.NewString(),
			PolicyID:      policyID,
			VersionNumber: next,
			YAMLContent:   document,
			ChangeSummary: summary,
		}
		if err := tx.Create(&v).Error; err != nil {
			return err
		}
		p.YAMLContent = document
		p.UpdatedAt = now
		updated = p
		return nil
	})
	if err != nil {
		return model.Policy{}, 0, err
	}
	return updated, next, nil
}

func (s *GormPolicyStore) LatestVersionNumber(policyID string) (int, error) {
	return latestVersionNumber(s.db, policyID)
}

func latestVersionNumber(tx *gorm.DB, policyID string) (int, error) {
	var latest int
	err := tx.Model(&model.Version{}).
		Where("policy_id = ?", policyID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&latest).Error
	return latest, err
}

func (s *GormPolicyStore) Get(policyID string) (model.Policy, bool, error) {
	var p model.Policy
	if err := s.db.Where("policy_id = ?", policyID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Policy{}, false, nil
		}
		return model.Policy{}, false, err
	}
	return p, true, nil
}

func (s *GormPolicyStore) List() ([]model.Policy, error) {
	policies := make([]model.Policy, 0)
	if err := s.db.Order("created_at DESC").Find(&policies).Error; err != nil {
		return nil, err
	}
	return policies, nil
}

// Delete removes the policy and its whole version chain.
func (s *GormPolicyStore) Delete(policyID string) (bool, error) {
	var existed bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&model.Policy{}, "policy_id = ?", policyID)
		if res.Error != nil {
			return res.Error
		}
		existed = res.RowsAffected > 0
		if !existed {
			return nil
		}
		return tx.Delete(&model.Version{}, "policy_id = ?", policyID).Error
	})
	if err != nil {
		return false, err
	}
	return existed, nil
}

func (s *GormPolicyStore) ListVersions(policyID string) ([]model.Version, error) {
	versions := make([]model.Version, 0)
	if err := s.db.Where("policy_id = ?", policyID).Order("version_number DESC").Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (s *GormPolicyStore) GetVersion(versionID string) (model.Version, bool, error) {
	var v model.Version
	if err := s.db.Where("version_id = ?", versionID).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Version{}, false, nil
		}
		return model.Version{}, false, err
	}
	return v, true, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "Duplicate entry")
}
