package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
)

type wireNamed struct {
	ID   expense.WireID `json:"id"`
	Name string         `json:"name"`
	Code string         `json:"code"`
}

type wireCategory struct {
	ID            expense.WireID    `json:"id"`
	Name          string            `json:"name"`
	Subcategories []json.RawMessage `json:"subcategories"`
}

type wireCard struct {
	ID       expense.WireID `json:"id"`
	Name     string         `json:"name"`
	CardName string         `json:"card_name"`
	LastFour string         `json:"last_four"`
}

func (c *Client) listNamed(ctx context.Context, path string) ([]wireNamed, error) {
	var out []wireNamed
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Projects implements port.ReferenceAPI
func (c *Client) Projects(ctx context.Context) ([]entity.Project, error) {
	wire, err := c.listNamed(ctx, "/api/cost-centers/projects")
	if err != nil {
		return nil, err
	}
	out := make([]entity.Project, 0, len(wire))
	for _, w := range wire {
		out = append(out, entity.Project{ID: string(w.ID), Name: w.Name, Code: w.Code})
	}
	return out, nil
}

// ExpenseTypes implements port.ReferenceAPI
func (c *Client) ExpenseTypes(ctx context.Context) ([]entity.GeneralExpenseType, error) {
	wire, err := c.listNamed(ctx, "/api/cost-centers/expense-types")
	if err != nil {
		return nil, err
	}
	out := make([]entity.GeneralExpenseType, 0, len(wire))
	for _, w := range wire {
		out = append(out, entity.GeneralExpenseType{ID: string(w.ID), Name: w.Name})
	}
	return out, nil
}

// Suppliers implements port.ReferenceAPI
func (c *Client) Suppliers(ctx context.Context) ([]entity.Supplier, error) {
	wire, err := c.listNamed(ctx, "/api/suppliers")
	if err != nil {
		return nil, err
	}
	out := make([]entity.Supplier, 0, len(wire))
	for _, w := range wire {
		out = append(out, entity.Supplier{ID: string(w.ID), Name: w.Name})
	}
	return out, nil
}

// Categories implements port.ReferenceAPI. Subcategories may come as
// plain names or as objects with a name.
func (c *Client) Categories(ctx context.Context) ([]entity.ExpenseCategory, error) {
	var wire []wireCategory
	if err := c.doJSON(ctx, http.MethodGet, "/api/harcama-kategorileri", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]entity.ExpenseCategory, 0, len(wire))
	for _, w := range wire {
		cat := entity.ExpenseCategory{ID: string(w.ID), Name: w.Name}
		for _, raw := range w.Subcategories {
			if name := subcategoryName(raw); name != "" {
				cat.Subcategories = append(cat.Subcategories, name)
			}
		}
		out = append(out, cat)
	}
	return out, nil
}

func subcategoryName(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var named struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &named) == nil {
		return named.Name
	}
	return ""
}

// CreditCards implements port.ReferenceAPI
func (c *Client) CreditCards(ctx context.Context) ([]entity.CreditCard, error) {
	var wire []wireCard
	if err := c.doJSON(ctx, http.MethodGet, "/api/credit-cards", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]entity.CreditCard, 0, len(wire))
	for _, w := range wire {
		name := w.Name
		if name == "" {
			name = w.CardName
		}
		out = append(out, entity.CreditCard{ID: string(w.ID), Name: name, LastFour: w.LastFour})
	}
	return out, nil
}
