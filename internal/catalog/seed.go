package catalog

import (
	"time"

	"github.com/shvbsle/survey-sensei/internal/models"
)

// Demo catalog. IDs are fixed so the data set is stable across restarts and
// the intake form can hardcode examples.
var seedProducts = []models.Product{
	{
		ID:          "prod_4f8a2c1e9b3d5076",
		Name:        "Ridgeline Trail Runners",
		Description: "Lightweight trail running shoes with a reinforced toe cap and aggressive lugs for loose terrain.",
		Category:    "Footwear",
		Price:       129.95,
		Features:    []string{"Vibram outsole", "6mm drop", "Quick-dry mesh upper", "Rock plate"},
	},
	{
		ID:          "prod_7b3e9d0a4c6f2185",
		Name:        "Morning Ritual Espresso Maker",
		Description: "Compact 15-bar espresso machine with a steam wand and a warming tray for two cups.",
		Category:    "Kitchen",
		Price:       249.00,
		Features:    []string{"15-bar pump", "Steam wand", "1.2L removable tank", "Cup warmer"},
	},
	{
		ID:          "prod_2d6c8f5b1e9a4037",
		Name:        "Quiet Hours Headphones",
		Description: "Over-ear wireless headphones with adaptive noise cancelling and a 40-hour battery.",
		Category:    "Audio",
		Price:       199.50,
		Features:    []string{"Adaptive ANC", "40h battery", "Multipoint Bluetooth", "Foldable"},
	},
}

var seedShoppers = []models.Shopper{
	{
		ID:          "shop_9e1d4b7a3f5c2860",
		Email:       "maya.okafor@example.com",
		DisplayName: "Maya Okafor",
		Traits:      []string{"detail-oriented", "compares specs", "writes long reviews"},
	},
	{
		ID:          "shop_5a8c2f0d6b9e4173",
		Email:       "jon.petersen@example.com",
		DisplayName: "Jon Petersen",
		Traits:      []string{"casual tone", "short sentences", "focuses on value"},
	},
	{
		ID:          "shop_1c7f3a9e5d2b8046",
		Email:       "ines.moreau@example.com",
		DisplayName: "Ines Moreau",
		Traits:      []string{"first-time reviewer"},
	},
}

var seedReviews = []models.Review{
	{
		ID:        "rev_8d2a6f4c0e9b3157",
		ShopperID: "shop_9e1d4b7a3f5c2860",
		ProductID: "prod_2d6c8f5b1e9a4037",
		Stars:     5,
		Text:      "I measured the battery claim against a week of commutes and it actually overdelivers. The ANC handles train rumble better than anything else I have owned, though the ear cups run warm in summer. Pairing with two laptops at once works exactly as advertised.",
		Tone:      "enthusiastic",
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	},
	{
		ID:        "rev_3b9e5c1d7a4f2068",
		ShopperID: "shop_9e1d4b7a3f5c2860",
		ProductID: "prod_7b3e9d0a4c6f2185",
		Stars:     4,
		Text:      "Pulls a consistent shot once you dial in the grind, and the warming tray is a nice touch. Docked a star because the steam wand takes a full minute to build pressure, which matters on busy mornings.",
		Tone:      "balanced",
		CreatedAt: time.Date(2026, 4, 2, 18, 5, 0, 0, time.UTC),
	},
	{
		ID:        "rev_6f0c4a8b2d7e9135",
		ShopperID: "shop_5a8c2f0d6b9e4173",
		ProductID: "prod_4f8a2c1e9b3d5076",
		Stars:     3,
		Text:      "Decent shoes. Grip is great on dirt. Sizing runs small though, order a half size up. For the price I expected better laces.",
		Tone:      "matter-of-fact",
		CreatedAt: time.Date(2026, 5, 21, 7, 45, 0, 0, time.UTC),
	},
}
