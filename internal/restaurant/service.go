package restaurant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lunch-voting/internal/clock"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrMenuExists       = errors.New("menu already exists for this restaurant and date")
	ErrRestaurantExists = errors.New("restaurant with this name already exists")
	ErrForbidden        = errors.New("not allowed to manage this restaurant")
	ErrInvalid          = errors.New("invalid data")
)

type DBLayer interface {
	CreateRestaurant(ctx context.Context, r *models.Restaurant) error
	GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]models.Restaurant, error)

	CreateMenu(ctx context.Context, menu *models.Menu) error
	GetMenu(ctx context.Context, id int64) (*models.Menu, error)
	MenuExists(ctx context.Context, id int64) (bool, error)
	MenusByRestaurant(ctx context.Context, restaurantID int64) ([]models.Menu, error)
	MenusByDate(ctx context.Context, date time.Time) ([]models.Menu, error)
	MenusByIDs(ctx context.Context, ids []int64) ([]models.Menu, error)
}

// Service is the menu registry plus restaurant management.
type Service struct {
	DB    DBLayer
	Clock clock.Clock
	Log   *logger.Logger
}

func NewService(db DBLayer, clk clock.Clock, log *logger.Logger) *Service {
	return &Service{DB: db, Clock: clk, Log: log}
}

// VotingAllowed is true while the menu's date is today or later.
func VotingAllowed(menu models.Menu, today time.Time) bool {
	return !menu.Date.Before(clock.DateOf(today))
}

func (s *Service) VotingAllowed(menu models.Menu) bool {
	return VotingAllowed(menu, s.Clock.Today())
}

func (s *Service) Exists(ctx context.Context, menuID int64) (bool, error) {
	return s.DB.MenuExists(ctx, menuID)
}

func (s *Service) Menu(ctx context.Context, menuID int64) (*models.Menu, error) {
	return s.DB.GetMenu(ctx, menuID)
}

func (s *Service) ByRestaurant(ctx context.Context, restaurantID int64) ([]models.Menu, error) {
	return s.DB.MenusByRestaurant(ctx, restaurantID)
}

func (s *Service) ByDate(ctx context.Context, date time.Time) ([]models.Menu, error) {
	return s.DB.MenusByDate(ctx, clock.DateOf(date))
}

func (s *Service) Today(ctx context.Context) ([]models.Menu, error) {
	return s.ByDate(ctx, s.Clock.Today())
}

// ByIDs returns the requested menus with their items, ordered by id.
// Unknown ids are skipped.
func (s *Service) ByIDs(ctx context.Context, ids []int64) ([]models.Menu, error) {
	if len(ids) == 0 {
		return []models.Menu{}, nil
	}
	return s.DB.MenusByIDs(ctx, ids)
}

func (s *Service) ListRestaurants(ctx context.Context) ([]models.Restaurant, error) {
	return s.DB.ListRestaurants(ctx)
}

func (s *Service) CreateRestaurant(ctx context.Context, req models.RestaurantRequest) (*models.Restaurant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if req.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner_id is required", ErrInvalid)
	}

	r := &models.Restaurant{Name: name, OwnerID: req.OwnerID}
	if err := s.DB.CreateRestaurant(ctx, r); err != nil {
		return nil, err
	}
	s.Log.LogDatabase("INSERT", "restaurants", fmt.Sprintf("restaurant %d %q owned by %s", r.ID, r.Name, r.OwnerID))
	return r, nil
}

// CreateMenu publishes a menu for restaurantID. Only admins and the
// restaurant's owner may do so. An empty date means today.
func (s *Service) CreateMenu(ctx context.Context, restaurantID int64, req models.MenuRequest, actorID string, actorAdmin bool) (*models.Menu, error) {
	rest, err := s.DB.GetRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !actorAdmin && rest.OwnerID != actorID {
		return nil, ErrForbidden
	}

	date := s.Clock.Today()
	if req.Date != "" {
		date, err = clock.ParseDate(req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}

	items := make([]models.Item, 0, len(req.Items))
	for i, it := range req.Items {
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("%w: item %d has no name", ErrInvalid, i)
		}
		if it.Price < 0 {
			return nil, fmt.Errorf("%w: item %q has a negative price", ErrInvalid, it.Name)
		}
		items = append(items, models.Item{
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
		})
	}

	menu := &models.Menu{
		Date:         date,
		RestaurantID: restaurantID,
		Items:        items,
	}
	if err := s.DB.CreateMenu(ctx, menu); err != nil {
		return nil, err
	}
	s.Log.LogDatabase("INSERT", "menus", fmt.Sprintf("menu %d for restaurant %d on %s with %d items",
		menu.ID, restaurantID, date.Format(models.DateLayout), len(items)))
	return menu, nil
}
