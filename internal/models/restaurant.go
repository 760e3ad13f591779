package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants,alias:restaurant"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name,notnull,unique" json:"name"`
	OwnerID string `bun:"owner_id,notnull" json:"owner_id"`
}

type RestaurantRequest struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// Menu is a restaurant's offering for one calendar date. Date is always
// stored at midnight UTC, see clock.DateOf.
type Menu struct {
	bun.BaseModel `bun:"table:menus,alias:menu"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Date         time.Time `bun:"date,notnull,unique:menus_restaurant_date"`
	RestaurantID int64     `bun:"restaurant_id,notnull,unique:menus_restaurant_date"`
	Items        []Item    `bun:"rel:has-many,join:id=menu_id"`
}

type Item struct {
	bun.BaseModel `bun:"table:items,alias:item"`

	ID          int64   `bun:"id,pk,autoincrement"`
	MenuID      int64   `bun:"menu_id,notnull"`
	Name        string  `bun:"name,notnull"`
	Description string  `bun:"description"`
	Price       float64 `bun:"price,notnull"`
}

type ItemPayload struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

type MenuRequest struct {
	Date  string        `json:"date,omitempty"`
	Items []ItemPayload `json:"items"`
}

type MenuResponse struct {
	ID           int64         `json:"id"`
	Date         string        `json:"date"`
	RestaurantID int64         `json:"restaurant"`
	Items        []ItemPayload `json:"items"`
}

// DateLayout is the wire format of menu dates.
const DateLayout = "2006-01-02"

// Day is the menu's calendar date. Drivers may hand Date back in the session's
// zone, so it is read in UTC where it was stored.
func (m Menu) Day() string {
	return m.Date.UTC().Format(DateLayout)
}

func (m Menu) ToResponse() MenuResponse {
	items := make([]ItemPayload, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, ItemPayload{
			Name:        it.Name,
			Price:       it.Price,
			Description: it.Description,
		})
	}
	return MenuResponse{
		ID:           m.ID,
		Date:         m.Day(),
		RestaurantID: m.RestaurantID,
		Items:        items,
	}
}

func MenusToResponse(menus []Menu) []MenuResponse {
	out := make([]MenuResponse, 0, len(menus))
	for _, m := range menus {
		out = append(out, m.ToResponse())
	}
	return out
}
