package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ikkim/restaurant-pos/config"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	"github.com/ikkim/restaurant-pos/internal/app/service"
	"github.com/ikkim/restaurant-pos/internal/db"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// 메뉴 시트 컬럼 순서: 이름, 카테고리, 가격, 설명, 태그(쉼표 구분), 판매여부
const (
	colName = iota
	colCategory
	colPrice
	colDescription
	colTags
	colAvailable
	minColumns = colPrice + 1
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <menu.xlsx> [--yes]")
	}

	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "--yes"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	conn, err := db.Open(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close(conn)

	if err := db.Migrate(conn); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	items, skipped, err := readMenuFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Menu items to import: %d (skipped rows: %d)\n", len(items), skipped)

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	productRepo := repository.NewProductRepository(conn)
	products := service.NewProductService(productRepo, nil)

	created, updated, failed := importMenu(productRepo, products, items)

	fmt.Println("Import completed.")
	fmt.Printf("  Created: %d\n  Updated: %d\n  Failed: %d\n", created, updated, failed)
}

// importMenu upserts by product name.
func importMenu(repo repository.ProductRepository, products service.ProductService, items []service.ProductInput) (created, updated, failed int) {
	for _, in := range items {
		existing, err := repo.FindByName(in.Name)
		switch {
		case err == nil:
			_, err = products.UpdateProduct(existing.ID, in)
			if err == nil {
				updated++
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			_, err = products.CreateProduct(in)
			if err == nil {
				created++
			}
		}
		if err != nil {
			failed++
			fmt.Printf("  ! %s: %v\n", in.Name, err)
		}
	}
	return created, updated, failed
}

func readMenuFromXLSX(filePath string) ([]service.ProductInput, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	items, skipped := parseMenuRows(rows[1:])
	return items, skipped, nil
}

// parseMenuRows skips rows without a name or a valid non-negative price and
// keeps the last row for a repeated name.
func parseMenuRows(rows [][]string) ([]service.ProductInput, int) {
	var (
		items   []service.ProductInput
		index   = make(map[string]int)
		skipped int
	)

	for _, row := range rows {
		if len(row) < minColumns {
			skipped++
			continue
		}

		name := strings.TrimSpace(row[colName])
		price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(row[colPrice]), ",", ""))
		if name == "" || err != nil || price.IsNegative() {
			skipped++
			continue
		}

		in := service.ProductInput{
			Name:     name,
			Category: strings.TrimSpace(row[colCategory]),
			Price:    price,
		}
		if len(row) > colDescription {
			in.Description = strings.TrimSpace(row[colDescription])
		}
		if len(row) > colTags && strings.TrimSpace(row[colTags]) != "" {
			in.Tags = strings.Split(row[colTags], ",")
		}
		if len(row) > colAvailable {
			if v, ok := parseYesNo(row[colAvailable]); ok {
				in.Available = &v
			}
		}

		key := strings.ToLower(name)
		if i, seen := index[key]; seen {
			items[i] = in
			skipped++
			continue
		}
		index[key] = len(items)
		items = append(items, in)
	}

	return items, skipped
}

func parseYesNo(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1", "o":
		return true, true
	case "n", "no", "false", "0", "x":
		return false, true
	}
	return false, false
}
