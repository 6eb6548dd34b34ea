// Package catalog holds the built-in device model lists used to generate
// inventory and price-list rows over a model range.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"repairshop-backend/internal/models"
)

// BatchSize caps the rows written per transaction during bulk generation.
const BatchSize = 450

var (
	ErrUnknownType  = errors.New("unknown device type")
	ErrUnknownModel = errors.New("model not in catalogue")
	ErrEmptyRange   = errors.New("model range is empty")
)

// Models lists each device family oldest first.
var Models = map[models.ProductType][]string{
	models.ProductTypeIPhone: {
		"iPhone 6", "iPhone 6 Plus", "iPhone 6s", "iPhone 6s Plus", "iPhone SE",
		"iPhone 7", "iPhone 7 Plus", "iPhone 8", "iPhone 8 Plus", "iPhone X",
		"iPhone XR", "iPhone XS", "iPhone XS Max",
		"iPhone 11", "iPhone 11 Pro", "iPhone 11 Pro Max", "iPhone SE 2020",
		"iPhone 12 Mini", "iPhone 12", "iPhone 12 Pro", "iPhone 12 Pro Max",
		"iPhone 13 Mini", "iPhone 13", "iPhone 13 Pro", "iPhone 13 Pro Max", "iPhone SE 2022",
		"iPhone 14", "iPhone 14 Plus", "iPhone 14 Pro", "iPhone 14 Pro Max",
		"iPhone 15", "iPhone 15 Plus", "iPhone 15 Pro", "iPhone 15 Pro Max",
		"iPhone 16", "iPhone 16 Plus", "iPhone 16 Pro", "iPhone 16 Pro Max", "iPhone 16e",
		"iPhone 17", "iPhone Air", "iPhone 17 Pro", "iPhone 17 Pro Max",
	},
	models.ProductTypeIPad: {
		"iPad 6", "iPad 7", "iPad 8", "iPad 9", "iPad 10", "iPad 11",
		"iPad Mini 5", "iPad Mini 6", "iPad Mini 7",
		"iPad Air 3", "iPad Air 4", "iPad Air 5", "iPad Air M2", "iPad Air M3",
		"iPad Pro 11 (1st gen)", "iPad Pro 11 (2nd gen)", "iPad Pro 11 (3rd gen)", "iPad Pro 11 (4th gen)",
		"iPad Pro 12.9 (3rd gen)", "iPad Pro 12.9 (4th gen)", "iPad Pro 12.9 (5th gen)", "iPad Pro 12.9 (6th gen)",
		"iPad Pro 11 M4", "iPad Pro 13 M4",
	},
	models.ProductTypeWatch: {
		"Watch Series 3", "Watch Series 4", "Watch Series 5", "Watch SE",
		"Watch Series 6", "Watch Series 7", "Watch Series 8", "Watch SE 2",
		"Watch Ultra", "Watch Series 9", "Watch Ultra 2", "Watch Series 10",
		"Watch Series 11", "Watch SE 3", "Watch Ultra 3",
	},
}

func indexOf(list []string, model string) int {
	for i, m := range list {
		if strings.EqualFold(m, strings.TrimSpace(model)) {
			return i
		}
	}
	return -1
}

// Range returns the models from..to inclusive. The bounds may be given in
// either order; an empty bound means the start or end of the family.
func Range(t models.ProductType, from, to string) ([]string, error) {
	list, ok := Models[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	lo, hi := 0, len(list)-1
	if from != "" {
		if lo = indexOf(list, from); lo < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModel, from)
		}
	}
	if to != "" {
		if hi = indexOf(list, to); hi < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownModel, to)
		}
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	out := make([]string, hi-lo+1)
	copy(out, list[lo:hi+1])
	return out, nil
}

// Name fills a {model}/{color}/{category} template.
func Name(tmpl, model, color, category string) string {
	if tmpl == "" {
		tmpl = "{model} {category} {color}"
	}
	r := strings.NewReplacer("{model}", model, "{color}", color, "{category}", category)
	return strings.Join(strings.Fields(r.Replace(tmpl)), " ")
}

// Expand builds the model range × colors cross product. Products are not
// yet persisted; ids are assigned here.
func Expand(req models.BulkGenerateRequest) ([]models.Product, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, req.Type)
	}
	if req.Price.IsNegative() || req.Stock < 0 {
		return nil, errors.New("price and stock must not be negative")
	}
	modelList, err := Range(req.Type, req.FromModel, req.ToModel)
	if err != nil {
		return nil, err
	}
	colors := req.Colors
	if len(colors) == 0 {
		colors = []string{""}
	}

	out := make([]models.Product, 0, len(modelList)*len(colors))
	for _, m := range modelList {
		for _, c := range colors {
			c = strings.TrimSpace(c)
			out = append(out, models.Product{
				ID:       uuid.New(),
				Name:     Name(req.NameTemplate, m, c, req.Category),
				Category: req.Category,
				Model:    m,
				Color:    c,
				Price:    req.Price,
				Stock:    req.Stock,
				Type:     req.Type,
			})
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyRange
	}
	return out, nil
}

// Chunks splits n items into [start,end) windows of at most size.
func Chunks(n, size int) [][2]int {
	if size <= 0 {
		size = BatchSize
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
