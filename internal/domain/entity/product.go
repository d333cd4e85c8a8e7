package entity

import "time"

// ProductRecord katalogdagi bitta qator (artikul, ombor, davr)
type ProductRecord struct {
	Article           string // Excel dagi asl ko'rinish
	ArticleClean      string // faqat raqamlar
	ArticleWithSpaces string // raqam guruhlari, bitta probel bilan
	ArticleKey        string // harf va raqamlar, kichik harfda ("rc1206jr076r8l")
	Name              string
	Code              string
	Warehouse         string
	Quantity          *float64
	Price             *float64
	Currency          string
	PriceDate         string
	Period            string
	LastUpdated       time.Time
}

// Catalog butun katalog (har ingest da to'liq almashtiriladi)
type Catalog struct {
	Records   []ProductRecord
	UpdatedAt time.Time
	Source    string // Excel fayl nomi
}

// CatalogInfo oxirgi ingest haqida ma'lumot
type CatalogInfo struct {
	IngestID  string
	Source    string
	Rows      int
	UpdatedAt time.Time
}
