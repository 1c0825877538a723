package main

import "github.com/angelmondragon/gearhub-backend/pkg/enums"

type categoryFixture struct {
	Slug        string
	Name        string
	Description string
}

type variantFixture struct {
	Name           string
	SKU            string
	Price          int64
	CompareAtPrice int64
	Quantity       int
}

type productFixture struct {
	Slug        string
	Name        string
	Subtitle    string
	Description string
	Brand       string
	Category    string
	Featured    bool
	Specs       map[string]string
	ImageURL    string
	Variants    []variantFixture
}

type couponFixture struct {
	Code           string
	Type           enums.CouponType
	Value          int64
	MinSubtotal    int64
	MaxRedemptions int
}

type faqFixture struct {
	Question string
	Answer   string
	Tags     []string
}

var categoryFixtures = []categoryFixture{
	{Slug: "cases", Name: "Cases", Description: "Protective cases for all devices"},
	{Slug: "screen-protectors", Name: "Screen Protectors", Description: "Crystal clear protection for your screen"},
	{Slug: "chargers", Name: "Chargers", Description: "Fast and reliable charging solutions"},
	{Slug: "cables", Name: "Cables", Description: "High-quality charging and data cables"},
	{Slug: "power-banks", Name: "Power Banks", Description: "Portable power for on-the-go charging"},
	{Slug: "earbuds", Name: "Earbuds", Description: "Wireless and wired audio solutions"},
	{Slug: "car-mounts", Name: "Car Mounts", Description: "Secure phone mounting for vehicles"},
	{Slug: "misc", Name: "Accessories", Description: "Other essential mobile accessories"},
}

var productFixtures = []productFixture{
	{
		Slug:        "iphone-15-silicone-case",
		Name:        "iPhone 15 Silicone Case",
		Subtitle:    "Premium protection with style",
		Description: "Keep your iPhone 15 protected with this premium silicone case. Features precise cutouts and wireless charging compatibility.",
		Brand:       "Apple",
		Category:    "cases",
		Featured:    true,
		Specs: map[string]string{
			"material":      "Premium Silicone",
			"compatibility": "iPhone 15",
			"features":      "Wireless Charging Compatible",
		},
		ImageURL: "https://images.unsplash.com/photo-1556656793-08538906a9f8?w=600",
		Variants: []variantFixture{
			{Name: "Black", SKU: "IPH15-CASE-BLK", Price: 2999, CompareAtPrice: 3499, Quantity: 50},
			{Name: "Blue", SKU: "IPH15-CASE-BLU", Price: 2999, Quantity: 30},
			{Name: "Pink", SKU: "IPH15-CASE-PNK", Price: 2999, Quantity: 25},
		},
	},
	{
		Slug:        "samsung-s24-screen-protector",
		Name:        "Samsung Galaxy S24 Screen Protector",
		Subtitle:    "Crystal clear protection",
		Description: "Ultra-thin tempered glass screen protector for Samsung Galaxy S24. 99% transparency with bubble-free installation.",
		Brand:       "Samsung",
		Category:    "screen-protectors",
		Specs: map[string]string{
			"thickness":     "0.33mm",
			"hardness":      "9H",
			"transparency":  "99%",
			"compatibility": "Samsung Galaxy S24",
		},
		ImageURL: "https://images.unsplash.com/photo-1512499617640-c74ae3a79d37?w=600",
		Variants: []variantFixture{
			{Name: "Single Pack", SKU: "S24-SCREEN-1PK", Price: 1999, Quantity: 100},
			{Name: "Twin Pack", SKU: "S24-SCREEN-2PK", Price: 3499, Quantity: 75},
		},
	},
	{
		Slug:        "anker-powercore-20000",
		Name:        "Anker PowerCore 20000mAh Power Bank",
		Subtitle:    "Massive capacity, compact design",
		Description: "High-capacity portable charger with fast charging technology. Charge multiple devices simultaneously with PowerIQ 3.0 technology.",
		Brand:       "Anker",
		Category:    "power-banks",
		Featured:    true,
		Specs: map[string]string{
			"capacity":     "20000mAh",
			"input":        "USB-C PD",
			"output":       "2x USB-A + 1x USB-C",
			"fastCharging": "PowerIQ 3.0",
			"weight":       "355g",
		},
		ImageURL: "https://images.unsplash.com/photo-1609091839311-d5365f9ff1c5?w=600",
		Variants: []variantFixture{
			{Name: "Black", SKU: "ANKER-PB20K-BLK", Price: 4999, CompareAtPrice: 5999, Quantity: 25},
			{Name: "White", SKU: "ANKER-PB20K-WHT", Price: 4999, Quantity: 15},
		},
	},
	{
		Slug:        "airpods-pro-2nd-gen",
		Name:        "Apple AirPods Pro (2nd Generation)",
		Subtitle:    "Adaptive Audio. Now playing.",
		Description: "AirPods Pro feature up to 2x more Active Noise Cancellation, plus Adaptive Transparency, and Personalized Spatial Audio with dynamic head tracking.",
		Brand:       "Apple",
		Category:    "earbuds",
		Featured:    true,
		Specs: map[string]string{
			"chip":                    "H2",
			"batteryLife":             "Up to 6 hours",
			"chargingCase":            "Up to 30 hours",
			"activeNoiseCancellation": "Yes",
			"waterResistance":         "IPX4",
		},
		ImageURL: "https://images.unsplash.com/photo-1600294037681-c80b4cb5b434?w=600",
		Variants: []variantFixture{
			{Name: "White", SKU: "AIRPODS-PRO-2", Price: 24900, Quantity: 12},
		},
	},
	{
		Slug:        "belkin-15w-wireless-charger",
		Name:        "Belkin 15W Wireless Charging Pad",
		Subtitle:    "Fast wireless charging made simple",
		Description: "Charge your Qi-enabled devices wirelessly with this sleek 15W charging pad. Compatible with iPhone, Samsung, and other Qi devices.",
		Brand:       "Belkin",
		Category:    "chargers",
		Specs: map[string]string{
			"output":        "15W max",
			"compatibility": "Qi-enabled devices",
			"design":        "Non-slip base",
			"ledIndicator":  "Yes",
		},
		ImageURL: "https://images.unsplash.com/photo-1588872657578-7efd1f1555ed?w=600",
		Variants: []variantFixture{
			{Name: "Black", SKU: "BELKIN-WC15-BLK", Price: 3999, Quantity: 40},
			{Name: "White", SKU: "BELKIN-WC15-WHT", Price: 3999, Quantity: 35},
		},
	},
}

var couponFixtures = []couponFixture{
	{Code: "WELCOME20", Type: enums.CouponTypePercent, Value: 20, MinSubtotal: 2500, MaxRedemptions: 100},
	{Code: "SAVE10", Type: enums.CouponTypePercent, Value: 10, MaxRedemptions: 500},
	{Code: "FLAT50", Type: enums.CouponTypeFixed, Value: 5000, MinSubtotal: 10000, MaxRedemptions: 50},
}

var faqFixtures = []faqFixture{
	{
		Question: "What is your return policy?",
		Answer:   "We offer a 30-day return policy for all items. Items must be in original condition with tags attached.",
		Tags:     []string{"returns", "policy"},
	},
	{
		Question: "Do you offer free shipping?",
		Answer:   "Yes! We offer free standard shipping on orders over $50. Express shipping is available for $15.",
		Tags:     []string{"shipping", "free"},
	},
	{
		Question: "How long does shipping take?",
		Answer:   "Standard shipping takes 5-7 business days. Express shipping takes 2-3 business days.",
		Tags:     []string{"shipping", "delivery"},
	},
	{
		Question: "Are your products authentic?",
		Answer:   "Yes, all our products are 100% authentic and come with manufacturer warranties.",
		Tags:     []string{"authenticity", "warranty"},
	},
	{
		Question: "Do you have a physical store?",
		Answer:   "We are currently online-only, but we offer excellent customer support via chat and email.",
		Tags:     []string{"store", "location"},
	},
	{
		Question: "How can I track my order?",
		Answer:   "Once your order ships, you will receive a tracking number via email. You can also look the order up with its number and your email.",
		Tags:     []string{"tracking", "orders"},
	},
}
