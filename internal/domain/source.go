package domain

// Column names shared by every source. The physical id, source, and
// raw_data columns are deliberately absent: they never appear in plans,
// filters, or results.
var orderColumns = []string{
	"code", "order_date", "status", "currency", "email", "phone",
	"bill_full_name", "bill_company", "bill_street", "bill_city",
	"bill_zip", "bill_country", "vat_id",
	"delivery_full_name", "delivery_street", "delivery_city",
	"delivery_zip", "delivery_country",
	"total_price", "shipping_price",
	"payment_method", "shipping_method", "notes", "created_at",
}

// Source is one logical table the user can query. All sources share the
// orders table; the repository scopes every statement by source name.
type Source struct {
	Name      string
	LineItems bool   // true when several rows share one code
	Note      string // structural note for the planning prompt
}

// Columns returns the queryable column list for the source.
func (s Source) Columns() []string {
	cols := make([]string, len(orderColumns))
	copy(cols, orderColumns)
	return cols
}

// HasColumn reports whether name is a queryable column of the source.
func (s Source) HasColumn(name string) bool {
	for _, c := range orderColumns {
		if c == name {
			return true
		}
	}
	return false
}

// DefaultSource is the generic orders table where one row equals one order.
const DefaultSource = "orders"

var sources = map[string]Source{
	"orders": {
		Name: "orders",
		Note: "Jeden řádek = jedna objednávka.",
	},
	"orders_cz": {
		Name:      "orders_cz",
		LineItems: true,
		Note: "POZOR: jeden řádek = jedna položka objednávky, NE jedna objednávka. " +
			"Více řádků se stejným sloupcem code patří k jedné objednávce.",
	},
	"orders_sk": {
		Name:      "orders_sk",
		LineItems: true,
		Note: "POZOR: jeden řádek = jedna položka objednávky, NE jedna objednávka. " +
			"Více řádků se stejným sloupcem code patří k jedné objednávce.",
	},
}

// LookupSource resolves a data-source identifier. Empty name selects the
// default generic source.
func LookupSource(name string) (Source, error) {
	if name == "" {
		name = DefaultSource
	}
	s, ok := sources[name]
	if !ok {
		return Source{}, ErrValidation("unknown data source %q", name)
	}
	return s, nil
}

// SourceNames lists the closed set of source identifiers.
func SourceNames() []string {
	return []string{"orders", "orders_cz", "orders_sk"}
}
