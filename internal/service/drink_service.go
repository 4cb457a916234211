package service

import (
	"context"
	"errors"

	"github.com/russross/blackfriday/v2"

	"barkeep/internal/domain"
	"barkeep/internal/repository"
)

// DrinkService инкапсулирует бизнес-логику вокруг каталога напитков
type DrinkService struct {
	repo repository.DrinkRepository
}

func NewDrinkService(repo repository.DrinkRepository) *DrinkService {
	return &DrinkService{repo: repo}
}

var ErrInvalidInput = errors.New("invalid input")

// Create добавляет напиток в каталог; новый напиток сразу в наличии
func (s *DrinkService) Create(ctx context.Context, d domain.Drink) (*domain.Drink, error) {
	if d.Name == "" || d.Description == "" || d.Recipe == "" {
		return nil, ErrInvalidInput
	}
	cp := d
	cp.ID = 0
	cp.InStock = true
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *DrinkService) GetByID(ctx context.Context, id int64) (*domain.Drink, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Update полностью заменяет изменяемые поля напитка
func (s *DrinkService) Update(ctx context.Context, d domain.Drink) (*domain.Drink, error) {
	if d.ID <= 0 || d.Name == "" || d.Description == "" || d.Recipe == "" {
		return nil, ErrInvalidInput
	}
	cp := d
	if err := s.repo.Update(ctx, &cp); err != nil {
		return nil, err
	}
	// перечитываем, чтобы вернуть строку с настоящим createdAt
	return s.repo.GetByID(ctx, d.ID)
}

func (s *DrinkService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

func (s *DrinkService) List(ctx context.Context) ([]domain.Drink, error) {
	return s.repo.List(ctx)
}

// RenderRecipe отдаёт рецепт напитка, свёрстанный из markdown в HTML
func (s *DrinkService) RenderRecipe(ctx context.Context, id int64) ([]byte, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return blackfriday.Run([]byte(d.Recipe)), nil
}

// SetImage обновляет только картинку напитка, остальные поля не трогает
func (s *DrinkService) SetImage(ctx context.Context, id int64, url string) (*domain.Drink, error) {
	if id <= 0 || url == "" {
		return nil, ErrInvalidInput
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.ImageURL = url
	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
