package domain

import "time"

// Order is one row of the orders table. In line-item sources several rows
// may share the same Code; together they form one logical order.
type Order struct {
	ID               int64
	Source           string
	Code             string
	OrderDate        string
	Status           string
	Currency         string
	Email            string
	Phone            string
	BillFullName     string
	BillCompany      string
	BillStreet       string
	BillCity         string
	BillZip          string
	BillCountry      string
	VatID            string
	DeliveryFullName string
	DeliveryStreet   string
	DeliveryCity     string
	DeliveryZip      string
	DeliveryCountry  string
	// TotalPrice and ShippingPrice are decimal-like text, exactly as the
	// source exports carry them. Numeric comparison happens in the executor.
	TotalPrice     string
	ShippingPrice  string
	PaymentMethod  string
	ShippingMethod string
	Notes          string
	RawData        string // JSON blob of unmapped source cells, audit only
	CreatedAt      time.Time
}

// Row is one result row: column name to scalar value. Rows are
// request-scoped and never persisted.
type Row = map[string]any

// UploadedFile describes one ingested spreadsheet.
type UploadedFile struct {
	ID         string
	Filename   string
	RowCount   int64
	Columns    []string
	UploadedAt time.Time
}
