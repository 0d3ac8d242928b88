package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/savanna-table/savanna-backend/config"
	"github.com/savanna-table/savanna-backend/internal/app/model"
	"github.com/savanna-table/savanna-backend/internal/app/repository"
	"github.com/savanna-table/savanna-backend/internal/app/service"
	"github.com/savanna-table/savanna-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// Expected XLSX header, first sheet:
// title | description | price | category | available | ingredients | allergens | preparation_time
const minColumns = 4

func main() {
	xlsxPath := flag.String("xlsx", "", "optional XLSX file with menu items to import")
	force := flag.Bool("force", false, "insert menu items even when the catalog is not empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	menuRepo := repository.NewMenuRepository(db.GetDB())
	adminService := service.NewAdminService(
		repository.NewUserRepository(db.GetDB()),
		repository.NewOrderRepository(db.GetDB()),
		repository.NewAdminRepository(db.GetDB()),
	)

	admin, created, err := adminService.EnsureSuperAdmin(cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		log.Fatal("Failed to create admin:", err)
	}
	if created {
		fmt.Printf("Created admin %s\n", admin.Email)
	} else {
		fmt.Printf("Admin %s already exists\n", admin.Email)
	}

	count, err := menuRepo.Count()
	if err != nil {
		log.Fatal("Failed to count menu items:", err)
	}
	if count > 0 && !*force {
		fmt.Printf("Menu already has %d items, skipping (use -force to insert anyway)\n", count)
		return
	}

	items := sampleMenu()
	if *xlsxPath != "" {
		fmt.Printf("Reading XLSX file: %s\n", *xlsxPath)
		items, err = readMenuFromXLSX(*xlsxPath)
		if err != nil {
			log.Fatal("Failed to read XLSX:", err)
		}
	}

	for i := range items {
		if err := menuRepo.Create(&items[i]); err != nil {
			log.Fatalf("Failed to create menu item %q: %v", items[i].Title, err)
		}
	}
	fmt.Printf("Seeded %d menu items\n", len(items))
}

func sampleMenu() []model.MenuItem {
	item := func(title, description string, price float64, category model.MenuCategory, prep int, popular bool, ingredients ...string) model.MenuItem {
		return model.MenuItem{
			Title:           title,
			Description:     description,
			Price:           price,
			Category:        category,
			Available:       true,
			Ingredients:     ingredients,
			Allergens:       []string{},
			PreparationTime: prep,
			IsPopular:       popular,
		}
	}

	return []model.MenuItem{
		item("Cream Ling Shrimp", "Shrimp in a light cream sauce with house spices", 12.99, model.CategoryAppetizers, 15, true, "shrimp", "cream", "ling", "spices"),
		item("Mozzarella Tomato Salad", "Fresh mozzarella and ripe tomatoes with basil and olive oil", 8.99, model.CategoryAppetizers, 10, false, "mozzarella", "tomatoes", "basil", "olive oil"),
		item("Beetroot Shrimp", "Roasted beetroot and shrimp with fresh herbs", 10.99, model.CategoryAppetizers, 20, false, "beetroot", "shrimp", "herbs", "spices"),
		item("Wagyu Steak", "Wagyu beef finished with garlic herb butter", 18.99, model.CategoryMains, 25, true, "wagyu beef", "herbs", "garlic", "butter"),
		item("Jollof Rice", "Rice simmered in a spiced tomato sauce, served with grilled chicken", 10.99, model.CategoryMains, 25, true, "rice", "tomatoes", "chicken", "spices"),
		item("Beef Suya", "Beef skewers in suya spice with rice and fresh salad", 22.99, model.CategoryMains, 30, true, "beef", "suya spices", "rice", "vegetables"),
		item("Vegetarian Curry", "Coconut curry with mixed vegetables and chickpeas, served with rice", 16.99, model.CategoryMains, 20, false, "mixed vegetables", "coconut milk", "curry spices", "rice"),
		item("Hibiscus Tea", "Chilled hibiscus tea with honey and lemon", 4.99, model.CategoryBeverages, 5, false, "hibiscus flowers", "honey", "lemon"),
		item("Fresh Coconut Water", "Coconut water from young coconuts", 5.99, model.CategoryBeverages, 2, false, "fresh coconut water"),
		item("Apple Pie", "Baked apple pie with cinnamon", 8.99, model.CategoryDesserts, 15, false, "apples", "pastry", "cinnamon", "sugar"),
		item("Pistachio Cake", "Light sponge with pistachio cream", 6.99, model.CategoryDesserts, 10, false, "pistachio", "flour", "sugar", "eggs"),
	}
}

func readMenuFromXLSX(filePath string) ([]model.MenuItem, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	var items []model.MenuItem
	skipped := 0
	for i, row := range rows[1:] {
		item, err := parseMenuRow(row)
		if err != nil {
			fmt.Printf("  row %d skipped: %v\n", i+2, err)
			skipped++
			continue
		}
		items = append(items, item)
	}

	fmt.Printf("Rows: %d, valid: %d, skipped: %d\n", len(rows)-1, len(items), skipped)
	return items, nil
}

func parseMenuRow(row []string) (model.MenuItem, error) {
	if len(row) < minColumns {
		return model.MenuItem{}, fmt.Errorf("expected at least %d columns, got %d", minColumns, len(row))
	}
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	title, description := cell(0), cell(1)
	if title == "" || description == "" {
		return model.MenuItem{}, fmt.Errorf("title and description are required")
	}
	price, err := strconv.ParseFloat(cell(2), 64)
	if err != nil || price < 0 {
		return model.MenuItem{}, fmt.Errorf("invalid price %q", cell(2))
	}
	category, ok := model.ParseMenuCategory(cell(3))
	if !ok {
		return model.MenuItem{}, fmt.Errorf("unknown category %q", cell(3))
	}

	available := true
	if v := cell(4); v != "" {
		if available, err = strconv.ParseBool(v); err != nil {
			return model.MenuItem{}, fmt.Errorf("invalid available flag %q", v)
		}
	}
	prep := model.DefaultPreparationTime
	if v := cell(7); v != "" {
		if prep, err = strconv.Atoi(v); err != nil || prep < 1 {
			return model.MenuItem{}, fmt.Errorf("invalid preparation_time %q", v)
		}
	}

	return model.MenuItem{
		Title:           title,
		Description:     description,
		Price:           price,
		Category:        category,
		Available:       available,
		Ingredients:     splitCell(cell(5)),
		Allergens:       splitCell(cell(6)),
		PreparationTime: prep,
	}, nil
}

func splitCell(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
