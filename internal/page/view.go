package page

import (
	"github.com/example/ec-product-card/internal/catalog"
	"github.com/example/ec-product-card/internal/domain/tabs"
)

type VariantView struct {
	Index    int    `json:"index"`
	ID       int    `json:"id"`
	Color    string `json:"color"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
	Selected bool   `json:"selected"`
}

type TabView struct {
	Label    string `json:"label"`
	Slug     string `json:"slug"`
	Selected bool   `json:"selected"`
}

type FormView struct {
	Name      string   `json:"name"`
	Body      string   `json:"review"`
	Rating    int      `json:"rating,omitempty"`
	Recommend string   `json:"recommend,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// View is an immutable snapshot of everything the page renders
type View struct {
	Title           string           `json:"title"`
	Sale            string           `json:"sale"`
	OnSale          bool             `json:"on_sale"`
	Description     string           `json:"description"`
	Link            string           `json:"link"`
	Image           string           `json:"image"`
	AltText         string           `json:"alt_text"`
	InStock         bool             `json:"in_stock"`
	BasePrice       string           `json:"base_price"`
	Price           string           `json:"price"`
	DiscountPercent int              `json:"discount_percent"`
	Details         []string         `json:"details"`
	Sizes           []string         `json:"sizes"`
	Variants        []VariantView    `json:"variants"`
	Reviews         []catalog.Review `json:"reviews"`
	ReviewCount     int              `json:"review_count"`
	AverageRating   string           `json:"average_rating"`
	Premium         bool             `json:"premium"`
	Shipping        string           `json:"shipping"`
	Cart            []int            `json:"cart"`
	CartCount       int              `json:"cart_count"`
	SelectedTab     tabs.Tab         `json:"selected_tab"`
	Tabs            []TabView        `json:"tabs"`
	Form            FormView         `json:"form"`
}

// View captures the current state under the page lock.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()

	prod := p.product.Product()
	v := View{
		Title:           p.product.Title(),
		Sale:            p.product.Sale(),
		OnSale:          p.product.OnSale(),
		Description:     prod.Description,
		Link:            prod.Link,
		Image:           p.product.Image(),
		AltText:         prod.AltText,
		InStock:         p.product.InStock(),
		BasePrice:       p.product.BasePrice().StringFixed(2),
		Price:           p.product.FormattedPrice(),
		DiscountPercent: prod.DiscountPercent,
		Details:         p.product.Details(),
		Sizes:           p.product.Sizes(),
		Reviews:         p.product.Reviews(),
		ReviewCount:     p.product.ReviewCount(),
		AverageRating:   p.product.FormattedRating(),
		Premium:         p.cart.Premium(),
		Shipping:        p.product.Shipping(p.cart.Premium()),
		Cart:            p.cart.Items(),
		CartCount:       p.cart.Len(),
		SelectedTab:     p.panel.Selected(),
	}
	if v.Reviews == nil {
		v.Reviews = []catalog.Review{}
	}

	for i, variant := range p.product.Variants() {
		v.Variants = append(v.Variants, VariantView{
			Index:    i,
			ID:       variant.ID,
			Color:    variant.Color,
			Image:    variant.Image,
			Quantity: variant.Quantity,
			Selected: i == p.product.SelectedIndex(),
		})
	}

	for _, t := range tabs.All {
		v.Tabs = append(v.Tabs, TabView{Label: string(t), Slug: t.Slug(), Selected: p.panel.IsSelected(t)})
	}

	fv := p.form.Values()
	v.Form = FormView{Name: fv.Name, Body: fv.Body, Errors: p.form.Errors()}
	if fv.Rating != nil {
		v.Form.Rating = *fv.Rating
	}
	if fv.Recommend != nil {
		v.Form.Recommend = *fv.Recommend
	}
	return v
}
