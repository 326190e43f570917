package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/club-pos/internal/pos/domain"
)

func item(id int, name string, price int64) domain.MenuItem {
	return domain.MenuItem{ID: id, Name: name, Price: decimal.NewFromInt(price)}
}

// Sample is the demo menu used when no menu file is configured.
func Sample() *Catalog {
	c, err := New([]Course{
		{ID: 1, Name: "Decadent Desserts", Items: []domain.MenuItem{
			item(1001, "Chocolate Lava Cake", 280),
			item(1002, "Tiramisu", 260),
			item(1003, "New York Cheesecake", 250),
			item(1004, "Crème Brûlée", 270),
		}},
		{ID: 2, Name: "Soups", Items: []domain.MenuItem{
			item(2001, "Cream of Mushroom", 180),
			item(2002, "Tomato Basil", 170),
			item(2003, "French Onion", 200),
		}},
		{ID: 4, Name: "Fresh Juices", Items: []domain.MenuItem{
			item(4001, "Watermelon Mint", 150),
			item(4002, "Green Detox", 160),
			item(4005, "Orange Sunrise", 130),
		}},
		{ID: 5, Name: "Mocktails", Items: []domain.MenuItem{
			item(5001, "Virgin Mojito", 180),
			item(5003, "Pina Colada", 200),
		}},
		{ID: 6, Name: "Italian Pizza", Items: []domain.MenuItem{
			item(6001, "Margherita Classica", 420),
			item(6002, "Pepperoni Supreme", 480),
		}},
		{ID: 12, Name: "Side Orders", Items: []domain.MenuItem{
			item(12003, "Truffle Fries", 150),
			item(12004, "Onion Rings", 130),
		}},
	})
	if err != nil {
		panic(err)
	}
	return c
}
