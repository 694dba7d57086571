package service

import (
	"context"
	"strings"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/dto"
	"github.com/onboarding-api/internal/repository"
)

// RoleService определяет интерфейс бизнес-логики для должностей
type RoleService interface {
	Create(ctx context.Context, departmentID int64, req *dto.CreateRoleRequest) (*domain.Role, error)
	GetByID(ctx context.Context, id int64) (*domain.Role, error)
	GetByDepartmentID(ctx context.Context, departmentID int64) ([]domain.Role, error)
	Update(ctx context.Context, id int64, req *dto.UpdateRoleRequest) (*domain.Role, error)
	Delete(ctx context.Context, id int64) error
}

type roleService struct {
	roleRepo repository.RoleRepository
	deptRepo repository.DepartmentRepository
	txm      repository.TxManager
}

// NewRoleService создаёт новый экземпляр сервиса
func NewRoleService(roleRepo repository.RoleRepository, deptRepo repository.DepartmentRepository, txm repository.TxManager) RoleService {
	return &roleService{
		roleRepo: roleRepo,
		deptRepo: deptRepo,
		txm:      txm,
	}
}

func (s *roleService) Create(ctx context.Context, departmentID int64, req *dto.CreateRoleRequest) (*domain.Role, error) {
	title := strings.TrimSpace(req.Title)
	role := &domain.Role{
		DepartmentID: departmentID,
		Title:        title,
	}

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		// Проверяем существование подразделения
		if _, err := s.deptRepo.GetByID(ctx, departmentID); err != nil {
			return err
		}

		// Проверяем уникальность названия должности
		exists, err := s.roleRepo.ExistsByTitle(ctx, title, nil)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConstraintError(domain.RuleUniqueRoleTitle, title)
		}

		return s.roleRepo.Create(ctx, role)
	})
	if err != nil {
		return nil, err
	}

	return role, nil
}

func (s *roleService) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	return s.roleRepo.GetByID(ctx, id)
}

func (s *roleService) GetByDepartmentID(ctx context.Context, departmentID int64) ([]domain.Role, error) {
	// Проверяем существование подразделения
	if _, err := s.deptRepo.GetByID(ctx, departmentID); err != nil {
		return nil, err
	}

	return s.roleRepo.GetByDepartmentID(ctx, departmentID)
}

func (s *roleService) Update(ctx context.Context, id int64, req *dto.UpdateRoleRequest) (*domain.Role, error) {
	var role *domain.Role

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		var err error
		role, err = s.roleRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)

			exists, err := s.roleRepo.ExistsByTitle(ctx, title, &id)
			if err != nil {
				return err
			}
			if exists {
				return domain.NewConstraintError(domain.RuleUniqueRoleTitle, title)
			}

			role.Title = title
		}

		if req.DepartmentID != nil {
			// Проверяем существование нового подразделения
			if _, err := s.deptRepo.GetByID(ctx, *req.DepartmentID); err != nil {
				if err == domain.ErrDepartmentNotFound {
					return domain.NewConstraintError(domain.RuleFKDepartment, "")
				}
				return err
			}
			role.DepartmentID = *req.DepartmentID
		}

		return s.roleRepo.Update(ctx, role)
	})
	if err != nil {
		return nil, err
	}

	return role, nil
}

func (s *roleService) Delete(ctx context.Context, id int64) error {
	return s.roleRepo.Delete(ctx, id)
}
