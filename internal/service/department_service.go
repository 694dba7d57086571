package service

import (
	"context"
	"strings"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/dto"
	"github.com/onboarding-api/internal/repository"
)

// DepartmentService определяет интерфейс бизнес-логики для подразделений
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest) (*domain.Department, error)
	GetByID(ctx context.Context, id int64) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
	Update(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*domain.Department, error)
	Delete(ctx context.Context, id int64) error
}

type departmentService struct {
	deptRepo repository.DepartmentRepository
	txm      repository.TxManager
}

// NewDepartmentService создаёт новый экземпляр сервиса
func NewDepartmentService(deptRepo repository.DepartmentRepository, txm repository.TxManager) DepartmentService {
	return &departmentService{
		deptRepo: deptRepo,
		txm:      txm,
	}
}

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest) (*domain.Department, error) {
	name := strings.TrimSpace(req.Name)

	dept := &domain.Department{Name: name}

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		// Проверяем уникальность имени подразделения
		exists, err := s.deptRepo.ExistsByName(ctx, name, nil)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConstraintError(domain.RuleUniqueDepartmentName, name)
		}

		return s.deptRepo.Create(ctx, dept)
	})
	if err != nil {
		return nil, err
	}

	return dept, nil
}

func (s *departmentService) GetByID(ctx context.Context, id int64) (*domain.Department, error) {
	return s.deptRepo.GetByIDWithRoles(ctx, id)
}

func (s *departmentService) List(ctx context.Context) ([]domain.Department, error) {
	return s.deptRepo.List(ctx)
}

func (s *departmentService) Update(ctx context.Context, id int64, req *dto.UpdateDepartmentRequest) (*domain.Department, error) {
	var dept *domain.Department

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		var err error
		dept, err = s.deptRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)

			exists, err := s.deptRepo.ExistsByName(ctx, name, &id)
			if err != nil {
				return err
			}
			if exists {
				return domain.NewConstraintError(domain.RuleUniqueDepartmentName, name)
			}

			dept.Name = name
		}

		return s.deptRepo.Update(ctx, dept)
	})
	if err != nil {
		return nil, err
	}

	return dept, nil
}

func (s *departmentService) Delete(ctx context.Context, id int64) error {
	return s.deptRepo.Delete(ctx, id)
}
