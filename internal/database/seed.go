package database

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeMC777/konki-burger/internal/notify"
	"github.com/MikeMC777/konki-burger/internal/product"
)

// menuNamespace derives stable product ids from product names, so a reseed
// after a wipe yields the same ids.
var menuNamespace = uuid.MustParse("6f1c8a52-3d0e-4b8e-9a57-0c4b1a9d2e61")

// Categories of the opening menu.
var Categories = []product.Category{
	{ID: "burgers", Name: "Hamburguesas"},
	{ID: "sides", Name: "Entrantes"},
	{ID: "drinks", Name: "Bebidas"},
}

const unsplash = "https://images.unsplash.com/"

// Menu is the opening catalog.
var Menu = []product.CreateProductRequest{
	{Name: "Konki Clásica", Price: "9.99", Category: "burgers",
		Description: "La que lo empezó todo. Una jugosa hamburguesa de ternera, queso cheddar, lechuga, tomate y nuestra salsa secreta Konki.",
		ImageURL:    unsplash + "photo-1571091718767-18b5b1457add?w=1200&auto=format&fit=crop"},
	{Name: "Bacon Blitz", Price: "12.49", Category: "burgers",
		Description: "¡Una explosión de sabor! Hamburguesa de ternera, bacon crujiente, aros de cebolla y salsa BBQ.",
		ImageURL:    unsplash + "photo-1551782450-a2132b4ba21d?w=1200&auto=format&fit=crop"},
	{Name: "Viajera Vegetal", Price: "10.99", Category: "burgers",
		Description: "Una deliciosa y contundente hamburguesa vegetariana, con aguacate, brotes y una mayonesa vegana ácida.",
		ImageURL:    unsplash + "photo-1521305916504-4a112118cc58?w=1200&auto=format&fit=crop"},
	{Name: "Doble Problema", Price: "15.99", Category: "burgers",
		Description: "Dos hamburguesas de ternera, doble de queso, doble de bacon. No apto para cardíacos.",
		ImageURL:    unsplash + "photo-1627907228175-2bf846a303b4?w=1200&auto=format&fit=crop"},
	{Name: "Hamburguesa Infierno", Price: "11.99", Category: "burgers",
		Description: "¿Te atreves? Esta hamburguesa está cargada con chiles fantasma, jalapeños y un alioli de habanero ardiente.",
		ImageURL:    unsplash + "photo-1594212699903-ec8a6e502067?w=1200&auto=format&fit=crop"},
	{Name: "Patatas Doradas", Price: "3.49", Category: "sides",
		Description: "Perfectamente crujientes y saladas a la perfección. El acompañante ideal para cualquier hamburguesa.",
		ImageURL:    unsplash + "photo-1573080496219-bb085dd77339?w=1200&auto=format&fit=crop"},
	{Name: "Órbitas de Cebolla", Price: "4.99", Category: "sides",
		Description: "Aros de cebolla gruesos, fritos hasta conseguir un crujido dorado.",
		ImageURL:    unsplash + "photo-1639585366434-a82404b96238?w=1200&auto=format&fit=crop"},
	{Name: "Konki-Cola", Price: "2.49", Category: "drinks",
		Description: "Nuestra bebida gaseosa de autor. El refresco perfecto.",
		ImageURL:    unsplash + "photo-1554866585-cd94860890b7?w=1200&auto=format&fit=crop"},
	{Name: "Batido Cósmico", Price: "5.99", Category: "drinks",
		Description: "Un rico y cremoso batido de vainilla que está fuera de este mundo.",
		ImageURL:    unsplash + "photo-1572490122747-3968b75cc699?w=1200&auto=format&fit=crop"},
	{Name: "Crujipollo Errante", Price: "11.49", Category: "burgers",
		Description: "Un filete de pollo crujiente, pepinillos y nuestra salsa de autor en un pan de brioche.",
		ImageURL:    unsplash + "photo-1626082929543-5bab896ba4ae?w=1200&auto=format&fit=crop"},
}

// MenuProducts validates Menu and assigns the stable ids.
func MenuProducts() ([]product.Product, error) {
	out := make([]product.Product, 0, len(Menu))
	for _, req := range Menu {
		p, err := req.Build()
		if err != nil {
			return nil, err
		}
		p.ID = uuid.NewSHA1(menuNamespace, []byte(p.Name)).String()
		out = append(out, *p)
	}
	return out, nil
}

// Seed inserts the categories and, if the products table is empty, the
// opening menu, all in one transaction. A failure is published to relay.
func Seed(ctx context.Context, db *pgxpool.Pool, relay notify.Relay) error {
	products, err := MenuProducts()
	if err != nil {
		return err
	}
	seeded := 0
	err = notify.Guard(ctx, relay, notify.OpWrite, "products", len(products), func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
			for _, c := range Categories {
				if _, err := tx.Exec(ctx, `INSERT INTO categories (id, name) VALUES ($1,$2) ON CONFLICT (id) DO NOTHING`, c.ID, c.Name); err != nil {
					return err
				}
			}
			var n int
			if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
				return err
			}
			if n > 0 {
				return nil
			}
			batch := &pgx.Batch{}
			for _, p := range products {
				batch.Queue(`
					INSERT INTO products (id, name, description, price, category_id, image_url, created_at, updated_at)
					VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
				`, p.ID, p.Name, p.Description, p.Price.StringFixed(2), p.CategoryID, p.ImageURL)
			}
			if err := tx.SendBatch(ctx, batch).Close(); err != nil {
				return err
			}
			seeded = len(products)
			return nil
		})
	})
	if err != nil {
		log.Printf("[seed] failed: %v", err)
		return err
	}
	if seeded > 0 {
		log.Printf("[seed] inserted %d products", seeded)
	}
	return nil
}
