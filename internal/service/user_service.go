package service

import (
	"context"
	"strings"
	"time"

	"github.com/onboarding-api/internal/domain"
	"github.com/onboarding-api/internal/dto"
	"github.com/onboarding-api/internal/repository"
)

// Максимальная глубина цепочки руководителей и менторов. Ограничивает
// стоимость проверки цикла и выявляет разросшиеся данные.
const maxHierarchyDepth = 64

// UserService определяет интерфейс бизнес-логики для пользователей
type UserService interface {
	Create(ctx context.Context, req *dto.CreateUserRequest) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	txm      repository.TxManager
}

// NewUserService создаёт новый экземпляр сервиса
func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, txm repository.TxManager) UserService {
	return &userService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		txm:      txm,
	}
}

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*domain.User, error) {
	user := &domain.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		UserType: domain.UserType(req.UserType),
		RoleID:   req.RoleID,
	}

	if !user.UserType.Valid() {
		return nil, domain.NewConstraintError(domain.RuleEnumUserType, req.UserType)
	}

	if req.StartDate != nil {
		startDate, err := time.Parse("2006-01-02", *req.StartDate)
		if err != nil {
			return nil, err
		}
		user.StartDate = &startDate
	}

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		// Проверяем уникальность email
		exists, err := s.userRepo.ExistsByEmail(ctx, user.Email, nil)
		if err != nil {
			return err
		}
		if exists {
			return domain.NewConstraintError(domain.RuleUniqueEmail, user.Email)
		}

		// Проверяем существование должности
		if req.RoleID != nil {
			if _, err := s.roleRepo.GetByID(ctx, *req.RoleID); err != nil {
				if err == domain.ErrRoleNotFound {
					return domain.NewConstraintError(domain.RuleFKRole, "")
				}
				return err
			}
		}

		// Руководитель и ментор должны существовать. Цикл на создании
		// невозможен: нового пользователя ещё нет ни в одной цепочке.
		for _, ref := range []*int64{req.ManagerID, req.MentorID} {
			if ref == nil {
				continue
			}
			if _, err := s.userRepo.GetByID(ctx, *ref); err != nil {
				if err == domain.ErrUserNotFound {
					return domain.NewConstraintError(domain.RuleFKUser, "")
				}
				return err
			}
		}
		user.ManagerID = req.ManagerID
		user.MentorID = req.MentorID

		return s.userRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*domain.User, error) {
	var user *domain.User

	err := s.txm.Do(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.FullName != nil {
			user.FullName = strings.TrimSpace(*req.FullName)
		}

		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			exists, err := s.userRepo.ExistsByEmail(ctx, email, &id)
			if err != nil {
				return err
			}
			if exists {
				return domain.NewConstraintError(domain.RuleUniqueEmail, email)
			}
			user.Email = email
		}

		if req.UserType != nil {
			userType := domain.UserType(*req.UserType)
			if !userType.Valid() {
				return domain.NewConstraintError(domain.RuleEnumUserType, *req.UserType)
			}
			user.UserType = userType
		}

		if req.RoleID != nil {
			if *req.RoleID == 0 {
				user.RoleID = nil
			} else {
				if _, err := s.roleRepo.GetByID(ctx, *req.RoleID); err != nil {
					if err == domain.ErrRoleNotFound {
						return domain.NewConstraintError(domain.RuleFKRole, "")
					}
					return err
				}
				user.RoleID = req.RoleID
			}
		}

		if req.StartDate != nil {
			startDate, err := time.Parse("2006-01-02", *req.StartDate)
			if err != nil {
				return err
			}
			user.StartDate = &startDate
		}

		// Назначения руководителя и ментора валидируются независимо:
		// это два разных леса, которые могут легально пересекаться
		if req.ManagerID != nil {
			if *req.ManagerID == 0 {
				user.ManagerID = nil
			} else {
				if err := s.validateHierarchy(ctx, repository.RelationManager, id, *req.ManagerID); err != nil {
					return err
				}
				user.ManagerID = req.ManagerID
			}
		}

		if req.MentorID != nil {
			if *req.MentorID == 0 {
				user.MentorID = nil
			} else {
				if err := s.validateHierarchy(ctx, repository.RelationMentor, id, *req.MentorID); err != nil {
					return err
				}
				user.MentorID = req.MentorID
			}
		}

		return s.userRepo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// validateHierarchy проверяет, что назначение targetID руководителем или
// ментором пользователя userID не создаёт цикл. Цепочка предков targetID
// обходится вверх не глубже maxHierarchyDepth; появление userID в цепочке
// означает цикл, необорванная цепочка - разросшиеся данные.
func (s *userService) validateHierarchy(ctx context.Context, rel repository.HierarchyRelation, userID, targetID int64) error {
	if userID == targetID {
		return domain.ErrSelfReference
	}

	chain, truncated, err := s.userRepo.AncestorChain(ctx, rel, targetID, maxHierarchyDepth)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return domain.NewConstraintError(domain.RuleFKUser, "")
		}
		return err
	}

	for _, ancestorID := range chain {
		if ancestorID == userID {
			return domain.ErrHierarchyCycle
		}
	}
	if truncated {
		return domain.ErrHierarchyTooDeep
	}

	return nil
}

func (s *userService) Delete(ctx context.Context, id int64) error {
	return s.userRepo.Delete(ctx, id)
}
